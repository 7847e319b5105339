// Package client mirrors a server's world: it applies the authoritative
// stream, steps a local copy between syncs and hands snapshots to a renderer.
package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"orbitfight/config"
	"orbitfight/game"
	"orbitfight/transport"
)

const (
	defaultViewW = 1280
	defaultViewH = 720
	redialWait   = time.Second
	dialTimeout  = 5 * time.Second
)

// ErrDisconnected is returned by Tick once the server has gone away.
var ErrDisconnected = errors.New("connection to server closed")

// Renderer draws one frame. The snapshots are copies; own is 0 until the
// server has assigned a ship.
type Renderer interface {
	Render(snaps []game.Snapshot, own game.ID)
}

// Client is one connection's worth of mirrored state. It is not safe for
// concurrent use; one goroutine owns it.
type Client struct {
	URL      string
	Username string

	// OnChat receives every chat line. Nil logs them instead.
	OnChat   func(msg string)
	Renderer Renderer

	// PredictSteps is how far ahead the own ship's trail is projected.
	PredictSteps int

	log      *zap.SugaredLogger
	world    *game.World
	link     transport.Link
	own      game.ID
	controls game.Controls
	sent     game.Controls
	synced   bool
}

// New creates a disconnected client whose local world runs on params, which
// should match the server's. Nil params use the defaults; a nil logger
// discards output.
func New(url, username string, params *game.Params, log *zap.SugaredLogger) *Client {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Client{
		URL:          url,
		Username:     username,
		PredictSteps: config.Default().PredictSteps,
		log:          log,
		world:        game.NewWorld(params, false, log),
	}
}

// Dial connects to url and introduces itself as username.
func Dial(ctx context.Context, url, username string, params *game.Params, log *zap.SugaredLogger) (*Client, error) {
	c := New(url, username, params, log)
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Connect opens the socket and sends Hello. Any previous connection must be
// gone.
func (c *Client) Connect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, c.URL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.URL, err)
	}
	conn := transport.NewConn(ws, 0)
	conn.Start()
	return c.attach(conn)
}

func (c *Client) attach(link transport.Link) error {
	c.link = link
	c.own = 0
	c.synced = false
	if err := link.Send(game.HelloPacket(c.Username, defaultViewW, defaultViewH)); err != nil {
		link.Close()
		c.link = nil
		return fmt.Errorf("send hello: %w", err)
	}
	return nil
}

// World exposes the mirrored world.
func (c *Client) World() *game.World {
	return c.world
}

// Own returns the id of the ship the server assigned, or 0.
func (c *Client) Own() game.ID {
	return c.own
}

// SetControls replaces the held controls; they are sent on the next Tick.
func (c *Client) SetControls(ctrl game.Controls) {
	c.controls = ctrl
}

// Close hangs up.
func (c *Client) Close() error {
	if c.link == nil {
		return nil
	}
	err := c.link.Close()
	c.link = nil
	return err
}

// Tick drains the inbound stream, sends changed controls, advances the local
// world by dt and renders. It returns ErrDisconnected once the link is gone,
// after clearing the world.
func (c *Client) Tick(dt float64) error {
	if c.link == nil {
		return ErrDisconnected
	}
	for {
		pkt, err := c.link.Recv()
		if err != nil {
			c.log.Info("Connection to server closed.")
			c.drop()
			return ErrDisconnected
		}
		if pkt == nil {
			break
		}
		if err := c.handle(pkt); err != nil {
			c.log.Debugf("dropping packet: %v", err)
		}
	}

	if c.controls != c.sent || !c.synced {
		if err := c.link.Send(game.ControlsPacket(c.controls)); err == nil {
			c.sent = c.controls
			c.synced = true
		}
	}

	c.world.Step(dt)
	if c.own != 0 && c.PredictSteps > 0 {
		c.world.Predict(c.PredictSteps, dt)
	}
	if c.Renderer != nil {
		c.Renderer.Render(c.world.Snapshots(), c.own)
	}
	return nil
}

func (c *Client) drop() {
	c.link.Close()
	c.link = nil
	c.own = 0
	c.world.Store().Clear(nil)
}

func (c *Client) handle(pkt []byte) error {
	op, r, err := game.ReadOpcode(pkt)
	if err != nil {
		return err
	}
	switch op {
	case game.OpAck:
		return c.link.Send(game.AckPacket())
	case game.OpCreate:
		e, err := game.DecodeCreate(r)
		if err != nil {
			return err
		}
		c.world.Upsert(e)
	case game.OpBatch:
		ents, err := game.DecodeBatch(r)
		for _, e := range ents {
			c.world.Upsert(e)
		}
		return err
	case game.OpDelete:
		id := game.ID(r.U32())
		if err := r.Err(); err != nil {
			return err
		}
		c.world.Destroy(id)
	case game.OpSync:
		n := int(r.U16())
		for i := 0; i < n; i++ {
			if _, err := game.DecodeSync(r, c.world.Store().Get); err != nil {
				return err
			}
		}
	case game.OpChat:
		msg := r.Str()
		if err := r.Err(); err != nil {
			return err
		}
		if c.OnChat != nil {
			c.OnChat(msg)
		} else {
			c.log.Info(msg)
		}
	case game.OpWelcome:
		id := game.ID(r.U32())
		if err := r.Err(); err != nil {
			return err
		}
		c.own = id
	default:
		return fmt.Errorf("unexpected opcode %d", op)
	}
	return nil
}

// Run ticks at rate per second until ctx is done, redialling whenever the
// connection drops.
func (c *Client) Run(ctx context.Context, rate int) error {
	if rate <= 0 {
		rate = 60
	}
	ticker := time.NewTicker(time.Second / time.Duration(rate))
	defer ticker.Stop()
	defer c.Close()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			dt := min(now.Sub(last).Seconds()*60, 10)
			last = now
			if c.link == nil {
				if err := c.Connect(ctx); err != nil {
					c.log.Warnf("reconnect failed: %v", err)
					if !sleepCtx(ctx, redialWait) {
						return ctx.Err()
					}
					last = time.Now()
				}
				continue
			}
			if errors.Is(c.Tick(dt), ErrDisconnected) {
				sleepCtx(ctx, redialWait)
			}
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
