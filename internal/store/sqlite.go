// Package store persists rooms in an embedded SQLite database. Each room is
// one row holding the full room state as a JSON document, replaced atomically
// on every save.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/gotoplanb/kzrk/internal/game"
	"github.com/gotoplanb/kzrk/internal/room"
)

const schema = `
CREATE TABLE IF NOT EXISTS rooms (
	id         TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
);`

// SQLite implements room.Store on a local database file.
type SQLite struct {
	db *sql.DB
}

// Open creates or opens the database at path and ensures the schema. Pass
// ":memory:" for an ephemeral store.
func Open(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	// A single writer keeps room saves serialized at the driver level too.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

// SaveRoom upserts the room's full JSON document. The caller holds the room
// lock, so the marshaled state is a consistent committed view.
func (s *SQLite) SaveRoom(r *room.Room) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal room %s: %w", r.ID, err)
	}
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO rooms (id, data, updated_at) VALUES (?, ?, ?)`,
		r.ID, string(data), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save room %s: %w", r.ID, err)
	}
	return nil
}

func (s *SQLite) LoadRoom(id string) (*room.Room, error) {
	var data string
	err := s.db.QueryRow(`SELECT data FROM rooms WHERE id = ?`, id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("room %q: %w", id, game.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load room %q: %w", id, err)
	}

	r := &room.Room{}
	if err := json.Unmarshal([]byte(data), r); err != nil {
		return nil, fmt.Errorf("decode room %q: %w", id, err)
	}
	normalize(r)
	return r, nil
}

func (s *SQLite) ListRooms() ([]string, error) {
	rows, err := s.db.Query(`SELECT id FROM rooms ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan room id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLite) DeleteRoom(id string) error {
	if _, err := s.db.Exec(`DELETE FROM rooms WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete room %q: %w", id, err)
	}
	return nil
}

// normalize repairs nil maps a decoded document may carry so callers can
// mutate the room without nil checks.
func normalize(r *room.Room) {
	if r.Members == nil {
		r.Members = make(map[string]*room.Member)
	}
	if r.World.Markets == nil {
		r.World.Markets = make(map[string]*game.MarketState)
	}
	if r.Board == nil {
		r.Board = game.NewMessageBoard(50)
	}
	if r.Board.Messages == nil {
		r.Board.Messages = make(map[string][]game.Message)
	}
	for _, m := range r.World.Markets {
		if m.CargoPrices == nil {
			m.CargoPrices = make(map[string]int)
		}
	}
	for _, mem := range r.Members {
		if mem.Player != nil && mem.Player.Inventory == nil {
			mem.Player.Inventory = make(map[string]int)
		}
	}
}
