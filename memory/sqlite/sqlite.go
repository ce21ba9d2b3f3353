// Package sqlite provides SQLite-backed implementations of the persistence
// boundary interfaces (core.RecordStore, core.CanonStore). The engine defines
// the record shape; this package only maps it onto rows. Add other backends
// alongside without changing any calling code.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hupe1980/personamesh/core"
)

// Store persists long-term records and canon facts in a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates a SQLite database at the given path and applies the
// schema.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		id                 TEXT PRIMARY KEY,
		created_at         TEXT NOT NULL,
		last_reinforced_at TEXT NOT NULL,
		summary            TEXT NOT NULL,
		tags               TEXT,
		emotional_weight   REAL NOT NULL DEFAULT 0,
		tone               TEXT,
		access_count       INTEGER NOT NULL DEFAULT 0,
		sensitive          INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_records_reinforced ON records(last_reinforced_at DESC);

	CREATE TABLE IF NOT EXISTS canon_facts (
		key    TEXT PRIMARY KEY,
		value  TEXT NOT NULL,
		locked INTEGER NOT NULL DEFAULT 0
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveRecord inserts or updates a long-term record.
func (s *Store) SaveRecord(ctx context.Context, rec core.LongTermRecord) error {
	tags, err := json.Marshal(rec.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO records (id, created_at, last_reinforced_at, summary, tags, emotional_weight, tone, access_count, sensitive)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			last_reinforced_at = excluded.last_reinforced_at,
			summary            = excluded.summary,
			tags               = excluded.tags,
			emotional_weight   = excluded.emotional_weight,
			tone               = excluded.tone,
			access_count       = excluded.access_count,
			sensitive          = excluded.sensitive`,
		rec.ID,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
		rec.LastReinforcedAt.UTC().Format(time.RFC3339Nano),
		rec.Summary,
		string(tags),
		rec.EmotionalWeight,
		rec.Tone,
		rec.AccessCount,
		boolToInt(rec.Sensitive),
	)
	if err != nil {
		return fmt.Errorf("save record: %w", err)
	}
	return nil
}

// LoadRecords returns all stored records ordered by ID.
func (s *Store) LoadRecords(ctx context.Context) ([]core.LongTermRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, last_reinforced_at, summary, tags, emotional_weight, tone, access_count, sensitive
		FROM records ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	defer rows.Close()

	var out []core.LongTermRecord
	for rows.Next() {
		var (
			rec                  core.LongTermRecord
			createdAt, reinfAt   string
			tagsJSON, tone       sql.NullString
			sensitive            int
		)
		if err := rows.Scan(&rec.ID, &createdAt, &reinfAt, &rec.Summary, &tagsJSON,
			&rec.EmotionalWeight, &tone, &rec.AccessCount, &sensitive); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at for %s: %w", rec.ID, err)
		}
		if rec.LastReinforcedAt, err = time.Parse(time.RFC3339Nano, reinfAt); err != nil {
			return nil, fmt.Errorf("parse last_reinforced_at for %s: %w", rec.ID, err)
		}
		if tagsJSON.Valid && tagsJSON.String != "" {
			if err := json.Unmarshal([]byte(tagsJSON.String), &rec.Tags); err != nil {
				return nil, fmt.Errorf("parse tags for %s: %w", rec.ID, err)
			}
		}
		rec.Tone = tone.String
		rec.Sensitive = sensitive != 0
		out = append(out, rec)
	}
	return out, rows.Err()
}

// DeleteRecord removes a record by ID. Deleting an absent record is not an
// error.
func (s *Store) DeleteRecord(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

// SaveFact inserts or updates a canon fact.
func (s *Store) SaveFact(ctx context.Context, fact core.CanonFact) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO canon_facts (key, value, locked) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, locked = excluded.locked`,
		fact.Key, fact.Value, boolToInt(fact.Locked))
	if err != nil {
		return fmt.Errorf("save canon fact: %w", err)
	}
	return nil
}

// LoadFacts returns all canon facts ordered by key.
func (s *Store) LoadFacts(ctx context.Context) ([]core.CanonFact, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value, locked FROM canon_facts ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("load canon facts: %w", err)
	}
	defer rows.Close()

	var out []core.CanonFact
	for rows.Next() {
		var fact core.CanonFact
		var locked int
		if err := rows.Scan(&fact.Key, &fact.Value, &locked); err != nil {
			return nil, fmt.Errorf("scan canon fact: %w", err)
		}
		fact.Locked = locked != 0
		out = append(out, fact)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
