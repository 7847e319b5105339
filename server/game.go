// Package server is the authoritative side: it owns the world, accepts
// sessions, decides gameplay outcomes and keeps every client in sync.
package server

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"time"

	"go.uber.org/zap"

	"orbitfight/config"
	"orbitfight/game"
)

// maxDelta caps a single step after a stall (60 = one second).
const maxDelta = 10.0

// ErrStopped is returned by Call once the tick loop has exited.
var ErrStopped = errors.New("server stopped")

// Server is the authoritative process: world, session roster and the tick
// loop that drives both. Everything except Do, Call and the Hub runs on the
// tick goroutine.
type Server struct {
	cfg    *config.Settings
	log    *zap.SugaredLogger
	world  *game.World
	hub    *Hub
	ledger *Ledger
	rng    *rand.Rand

	roster      []*Session
	spare       *Session
	nextSession game.OwnerID

	seed     uint64
	lastSync float64

	cmds    chan func()
	stopped chan struct{}
}

// New builds a server over cfg. ledger may be nil.
func New(cfg *config.Settings, log *zap.SugaredLogger, ledger *Ledger) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	s := &Server{
		cfg:         cfg,
		log:         log,
		world:       game.NewWorld(&cfg.Physics, true, log),
		hub:         NewHub(),
		ledger:      ledger,
		rng:         rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 7)),
		nextSession: 1,
		seed:        uint64(cfg.SystemSeed),
		lastSync:    math.Inf(-1),
		cmds:        make(chan func(), 64),
		stopped:     make(chan struct{}),
	}
	s.spare = newSession(s.nextSession)
	s.world.SetHooks(s)
	return s
}

// World exposes the simulation. Only the tick goroutine may touch it.
func (s *Server) World() *game.World {
	return s.world
}

// Hub is the hand-off point for new connections.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Bootstrap restores the world dump when one is configured and readable,
// and otherwise generates a fresh system.
func (s *Server) Bootstrap() {
	if path := s.cfg.WorldFile; path != "" {
		n, err := s.loadWorld(path)
		switch {
		case err == nil && n > 0:
			s.log.Infof("Loaded %d entities from %s.", n, path)
			return
		case err != nil && !errors.Is(err, os.ErrNotExist):
			s.log.Warnf("could not load world: %v", err)
		}
	}
	s.world.Generate(s.seed)
}

func (s *Server) loadWorld(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return game.LoadWorld(f, s.world)
}

// SaveWorld writes the world dump to the configured file.
func (s *Server) SaveWorld() error {
	path := s.cfg.WorldFile
	if path == "" {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save world: %w", err)
	}
	if err := game.SaveWorld(f, s.world); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Run drives the tick loop until ctx is done, then disconnects everyone.
func (s *Server) Run(ctx context.Context) {
	defer close(s.stopped)
	rate := s.cfg.TickRate
	if rate <= 0 {
		rate = 60
	}
	ticker := time.NewTicker(time.Second / time.Duration(rate))
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds() * 60
			last = now
			s.Tick(min(dt, maxDelta))
		}
	}
}

// Tick runs one pass of the pipeline: commands, accepts, ship control,
// physics, sync broadcast, then inbound traffic and reaping.
func (s *Server) Tick(dt float64) {
	s.runCommands()
	s.acceptPending()

	// Control reads the delta of the step it precedes.
	s.world.Delta = dt
	s.controlShips()
	s.world.Step(dt)

	if s.world.Time-s.lastSync >= s.cfg.SyncSpacing {
		s.syncAll()
	}
	s.pollSessions()
}

func (s *Server) acceptPending() {
	for {
		select {
		case link := <-s.hub.register:
			s.accept(link)
		default:
			return
		}
	}
}

func (s *Server) runCommands() {
	for {
		select {
		case fn := <-s.cmds:
			fn()
		default:
			return
		}
	}
}

// Do queues fn to run on the tick goroutine at the start of the next tick.
func (s *Server) Do(fn func()) {
	select {
	case s.cmds <- fn:
	case <-s.stopped:
	}
}

// Call runs fn on the tick goroutine and waits for it.
func (s *Server) Call(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	wrapped := func() {
		defer close(done)
		fn()
	}
	select {
	case s.cmds <- wrapped:
	case <-s.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-s.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) syncAll() {
	s.lastSync = s.world.Time
	if len(s.roster) == 0 {
		return
	}
	for _, pkt := range game.SyncPackets(s.world.Entities()) {
		s.broadcast(pkt)
	}
}

func (s *Server) shutdown() {
	for _, sess := range append([]*Session(nil), s.roster...) {
		s.removeSession(sess, StateDisconnected)
	}
	// connections that never reached the roster
	for {
		select {
		case link := <-s.hub.register:
			_ = link.Close()
		default:
			return
		}
	}
}

// EntityCreated announces a new entity to every session.
func (s *Server) EntityCreated(e *game.Entity) {
	s.broadcast(game.CreatePacket(e))
}

// EntityDestroyed announces a deletion to every session.
func (s *Server) EntityDestroyed(e *game.Entity) {
	s.broadcast(game.DeletePacket(e.ID))
}

// ShipKilled disconnects the victim's session, which destroys the ship,
// then tells the sessions that remain.
func (s *Server) ShipKilled(ship, projectile *game.Entity) {
	victim := s.sessionByOwner(ship.Owner)
	name := ship.Ship.Name
	if victim != nil {
		name = victim.Name()
	}

	if killer := s.sessionByOwner(projectile.Owner); killer != nil && killer != victim {
		s.ledger.Track(EvtKill, killer.Name())
	}
	if victim == nil {
		s.world.Destroy(ship.ID)
	} else {
		s.ledger.Track(EvtDeath, victim.Name())
		s.removeSession(victim, StateDisconnected)
	}
	s.chat(fmt.Sprintf("<%s> has been killed.", name))
}

// The operations below are the command surface. They must run on the tick
// goroutine; use Call from elsewhere.

// LookupEntity returns a read-only copy of the entity with the given id.
func (s *Server) LookupEntity(id game.ID) (game.Snapshot, bool) {
	return s.world.Lookup(id)
}

// EntityCount returns the number of live entities.
func (s *Server) EntityCount() int {
	return s.world.Count()
}

// RegenerateWorld replaces the star system with a fresh one and re-places
// every ship.
func (s *Server) RegenerateWorld() {
	s.seed++
	s.world.Regenerate(s.seed)
	s.syncAll()
	s.chat("ANNOUNCEMENT: The system has been regenerated.")
}

// BroadcastChat sends msg to every session as the server.
func (s *Server) BroadcastChat(msg string) {
	s.chat("Server: " + msg)
}

func (s *Server) chat(msg string) {
	s.log.Info(msg)
	s.broadcast(game.ChatPacket(msg))
}

// PlayerInfo describes one session for the command surface.
type PlayerInfo struct {
	ID   game.OwnerID `json:"id"`
	Name string       `json:"name"`
	Ship game.ID      `json:"ship"`
	Addr string       `json:"addr"`
}

// Players lists the active sessions.
func (s *Server) Players() []PlayerInfo {
	out := make([]PlayerInfo, 0, len(s.roster))
	for _, sess := range s.roster {
		out = append(out, PlayerInfo{
			ID:   sess.ID,
			Name: sess.Name(),
			Ship: sess.Ship,
			Addr: fmt.Sprintf("%s:%d", sess.IP, sess.Port),
		})
	}
	return out
}

// Sessions returns the active roster. The slice is a copy.
func (s *Server) Sessions() []*Session {
	return append([]*Session(nil), s.roster...)
}

