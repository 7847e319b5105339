package config

import (
	"errors"
	"io/fs"

	"orbitfight/game"
)

// Settings holds every tunable of the process.
type Settings struct {
	Port    uint16
	Address string
	Name    string
	Debug   bool
	LogFile string

	Physics game.Params

	MaxAckTime        float64 // seconds without an ack before a session times out
	KeepaliveTime     float64 // seconds of silence before a ping
	SyncSpacing       float64 // seconds between sync broadcasts
	MaxMessagesPerSec int
	TickRate          int
	SystemSeed        int
	PredictSteps      int

	StatsDB       string
	WorldFile     string
	AdminPassword string
	AdminSecret   string
	PublicURL     string
}

// Default returns the stock settings. Port and Name are left empty so the
// first run asks for them.
func Default() *Settings {
	return &Settings{
		Address:           "localhost",
		LogFile:           "orbitfight.log",
		Physics:           game.DefaultParams(),
		MaxAckTime:        15,
		KeepaliveTime:     1,
		SyncSpacing:       0.1,
		MaxMessagesPerSec: 200,
		TickRate:          60,
		SystemSeed:        1,
		PredictSteps:      600,
		StatsDB:           "orbitfight.db",
	}
}

// Bind registers every field of s with reg under its config key.
func (s *Settings) Bind(reg *Registry) {
	reg.ShortVar(&s.Port, "port")
	reg.StringVar(&s.Address, "address")
	reg.StringVar(&s.Name, "name")
	reg.BoolVar(&s.Debug, "debug")
	reg.StringVar(&s.LogFile, "log_file")

	reg.DoubleVar(&s.Physics.G, "G")
	reg.DoubleVar(&s.Physics.Restitution, "collide_restitution")
	reg.DoubleVar(&s.Physics.Friction, "friction")
	reg.DoubleVar(&s.Physics.ScanSpacing, "collide_scan_spacing")
	reg.DoubleVar(&s.Physics.ScanDistance2, "collide_scan_distance2")
	reg.DoubleVar(&s.Physics.StarMass, "star_mass")
	reg.DoubleVar(&s.Physics.StarRadius, "star_radius")
	reg.IntVar(&s.Physics.PlanetCount, "planet_count")

	reg.DoubleVar(&s.MaxAckTime, "max_ack_time")
	reg.DoubleVar(&s.KeepaliveTime, "keepalive_time")
	reg.DoubleVar(&s.SyncSpacing, "sync_spacing")
	reg.IntVar(&s.MaxMessagesPerSec, "max_messages_per_sec")
	reg.IntVar(&s.TickRate, "tick_rate")
	reg.IntVar(&s.SystemSeed, "system_seed")
	reg.IntVar(&s.PredictSteps, "predict_steps")

	reg.StringVar(&s.StatsDB, "stats_db")
	reg.StringVar(&s.WorldFile, "world_file")
	reg.StringVar(&s.AdminPassword, "admin_password")
	reg.StringVar(&s.AdminSecret, "admin_secret")
	reg.StringVar(&s.PublicURL, "public_url")
}

// Load builds the defaults, binds them and applies the file at path. The
// registry is returned for later reloads and queries. A missing file is not
// an error; per-line problems are returned alongside usable settings.
func Load(path string) (*Settings, *Registry, error) {
	s := Default()
	reg := NewRegistry()
	s.Bind(reg)
	if path == "" {
		return s, reg, nil
	}
	err := reg.LoadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		err = nil
	}
	return s, reg, err
}
