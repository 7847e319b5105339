package server

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite stats database.
type DB struct {
	conn *sql.DB
}

// StatsRow is one player's lifetime record.
type StatsRow struct {
	Username string    `json:"username"`
	Connects int       `json:"connects"`
	Kills    int       `json:"kills"`
	Deaths   int       `json:"deaths"`
	Timeouts int       `json:"timeouts"`
	LastSeen time.Time `json:"last_seen"`
}

// OpenDB opens (or creates) the database at path.
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// one writer; sqlite serializes anyway
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS stats (
		username TEXT PRIMARY KEY,
		connects INTEGER NOT NULL DEFAULT 0,
		kills INTEGER NOT NULL DEFAULT 0,
		deaths INTEGER NOT NULL DEFAULT 0,
		timeouts INTEGER NOT NULL DEFAULT 0,
		last_seen DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event_type TEXT NOT NULL,
		username TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_type ON events(event_type);
	`
	if _, err := db.conn.Exec(schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// sqliteTime matches CURRENT_TIMESTAMP, so stored values scan back into
// time.Time.
const sqliteTime = "2006-01-02 15:04:05"

// counterColumn maps an event to the stats column it bumps.
func counterColumn(evtType string) string {
	switch evtType {
	case EvtConnect:
		return "connects"
	case EvtKill:
		return "kills"
	case EvtDeath:
		return "deaths"
	case EvtTimeout:
		return "timeouts"
	}
	return ""
}

// WriteEvents stores a batch of events and folds them into the per-player
// counters in one transaction.
func (db *DB) WriteEvents(events []Event) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	insert, err := tx.Prepare(`INSERT INTO events (event_type, username, created_at) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer insert.Close()

	for _, evt := range events {
		at := evt.Timestamp.UTC().Format(sqliteTime)
		if _, err := insert.Exec(evt.Type, evt.Username, at); err != nil {
			return err
		}
		// column names come from a fixed switch, never from input
		col := counterColumn(evt.Type)
		if col == "" {
			continue
		}
		_, err := tx.Exec(fmt.Sprintf(`
			INSERT INTO stats (username, %[1]s, last_seen) VALUES (?, 1, ?)
			ON CONFLICT(username) DO UPDATE SET %[1]s = %[1]s + 1, last_seen = excluded.last_seen`, col),
			evt.Username, at)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetStats returns one player's record, or nil if the name is unknown.
func (db *DB) GetStats(username string) (*StatsRow, error) {
	row := db.conn.QueryRow(
		"SELECT username, connects, kills, deaths, timeouts, last_seen FROM stats WHERE username = ?",
		username,
	)
	s := &StatsRow{}
	err := row.Scan(&s.Username, &s.Connects, &s.Kills, &s.Deaths, &s.Timeouts, &s.LastSeen)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

// Leaderboard returns the top players by kills, then fewest deaths.
func (db *DB) Leaderboard(limit int) ([]StatsRow, error) {
	rows, err := db.conn.Query(`
		SELECT username, connects, kills, deaths, timeouts, last_seen FROM stats
		ORDER BY kills DESC, deaths ASC, username ASC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StatsRow
	for rows.Next() {
		var s StatsRow
		if err := rows.Scan(&s.Username, &s.Connects, &s.Kills, &s.Deaths, &s.Timeouts, &s.LastSeen); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// EventCount returns how many events of the given type are stored.
func (db *DB) EventCount(evtType string) (int, error) {
	var n int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM events WHERE event_type = ?", evtType).Scan(&n)
	return n, err
}
