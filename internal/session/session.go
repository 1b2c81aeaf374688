// Package session persists the client-side state tree between runs.
//
// The snapshot lives in a local SQLite database: one row per entity keyed by
// (slice, id) with its collection position, plus one row per singleton slice
// (attorney, user, analysis). Saving replaces the whole snapshot; the tree in
// memory stays the single source of truth while a session is live.
package session

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/cleanslate/recordflow/internal/record"
	"github.com/cleanslate/recordflow/internal/schema"
	"github.com/cleanslate/recordflow/internal/store"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - Current layout (entities + singletons)
const currentSchemaVersion = 1

// Singleton slice names.
const (
	singletonAttorney = "attorney"
	singletonUser     = "user"
	singletonAnalysis = "analysis"
)

// Session is a durable snapshot of the state tree.
type Session struct {
	db *sql.DB
}

// Open creates or opens the session database at path. Pragmas and schema
// migrations are applied automatically; calling Open on an existing session
// file is safe.
func Open(path string) (*Session, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to session database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Session{db: db}, nil
}

// Close closes the session database.
func (s *Session) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save replaces the stored snapshot with the given state tree. The write is
// transactional: a failed save leaves the previous snapshot intact.
func (s *Session) Save(st *store.State) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM entities`); err != nil {
		return fmt.Errorf("clear entities: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM singletons`); err != nil {
		return fmt.Errorf("clear singletons: %w", err)
	}

	insertEntity, err := tx.Prepare(`INSERT INTO entities (slice, id, position, body) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare entity insert: %w", err)
	}
	defer insertEntity.Close()

	for _, typ := range st.Types() {
		ids, err := st.Order(typ)
		if err != nil {
			return err
		}
		for pos, id := range ids {
			ent, err := st.Get(typ, id)
			if err != nil {
				return err
			}
			body, err := json.Marshal(ent)
			if err != nil {
				return fmt.Errorf("encode %s/%s: %w", typ, id, err)
			}
			if _, err := insertEntity.Exec(typ, id, pos, string(body)); err != nil {
				return fmt.Errorf("insert %s/%s: %w", typ, id, err)
			}
		}
	}

	singletons := []struct {
		name  string
		value any
	}{
		{singletonAttorney, st.Attorney},
		{singletonUser, st.User},
		{singletonAnalysis, st.Analysis},
	}
	for _, sg := range singletons {
		body, err := json.Marshal(sg.value)
		if err != nil {
			return fmt.Errorf("encode %s: %w", sg.name, err)
		}
		if _, err := tx.Exec(`INSERT INTO singletons (name, body) VALUES (?, ?)`, sg.name, string(body)); err != nil {
			return fmt.Errorf("insert %s: %w", sg.name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

// Load rebuilds a state tree from the stored snapshot. An empty session file
// yields an empty tree.
func (s *Session) Load(sch *schema.Schema, extraTypes ...string) (*store.State, error) {
	st := store.New(sch, extraTypes...)

	rows, err := s.db.Query(`SELECT slice, id, body FROM entities ORDER BY slice, position`)
	if err != nil {
		return nil, fmt.Errorf("read entities: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var slice, id, body string
		if err := rows.Scan(&slice, &id, &body); err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		ent, err := record.FromJSON([]byte(body))
		if err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", slice, id, err)
		}
		if err := st.Upsert(slice, id, ent); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read entities: %w", err)
	}

	if err := s.loadSingletons(st); err != nil {
		return nil, err
	}
	if err := st.Check(); err != nil {
		return nil, fmt.Errorf("session snapshot is inconsistent: %w", err)
	}
	return st, nil
}

func (s *Session) loadSingletons(st *store.State) error {
	rows, err := s.db.Query(`SELECT name, body FROM singletons`)
	if err != nil {
		return fmt.Errorf("read singletons: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, body string
		if err := rows.Scan(&name, &body); err != nil {
			return fmt.Errorf("scan singleton: %w", err)
		}
		switch name {
		case singletonAttorney:
			if err := json.Unmarshal([]byte(body), &st.Attorney); err != nil {
				return fmt.Errorf("decode attorney: %w", err)
			}
		case singletonUser:
			obj, err := decodeSingleton(body)
			if err != nil {
				return fmt.Errorf("decode user: %w", err)
			}
			st.User = obj
		case singletonAnalysis:
			obj, err := decodeSingleton(body)
			if err != nil {
				return fmt.Errorf("decode analysis: %w", err)
			}
			st.Analysis = obj
		}
	}
	return rows.Err()
}

func decodeSingleton(body string) (record.Object, error) {
	if body == "null" {
		return nil, nil
	}
	return record.FromJSON([]byte(body))
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version < currentSchemaVersion {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
			return fmt.Errorf("set user_version: %w", err)
		}
	}
	return nil
}
