// Package store persists cards in SQLite. Updates are always partial
// merges of a field subset; nothing ever rewrites a whole card blindly.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cardstash/cardstash/internal/model"
)

// ErrNotFound is returned when no card matches the requested id.
var ErrNotFound = errors.New("card not found")

// Store provides data access to the SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and runs migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL for concurrent reads while background tasks write.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	var version int
	err := s.db.QueryRow(`SELECT version FROM schema_version LIMIT 1`).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		if _, err := s.db.Exec(`INSERT INTO schema_version (version) VALUES (0)`); err != nil {
			return fmt.Errorf("init schema version: %w", err)
		}
		version = 0
	} else if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	migrations := []func() error{
		s.migrateV1, // v0 → v1: cards table
	}

	for i := version; i < len(migrations); i++ {
		if err := migrations[i](); err != nil {
			return fmt.Errorf("migration v%d→v%d: %w", i, i+1, err)
		}
		if _, err := s.db.Exec(`UPDATE schema_version SET version = ?`, i+1); err != nil {
			return fmt.Errorf("update schema version to %d: %w", i+1, err)
		}
	}
	return nil
}

func (s *Store) migrateV1() error {
	schema := `
	CREATE TABLE IF NOT EXISTS cards (
		id          TEXT PRIMARY KEY,
		owner_id    TEXT NOT NULL,
		type        TEXT NOT NULL,
		title       TEXT NOT NULL DEFAULT '',
		content     TEXT NOT NULL DEFAULT '',
		url         TEXT NOT NULL DEFAULT '',
		image_url   TEXT NOT NULL DEFAULT '',
		tags        TEXT NOT NULL DEFAULT '[]',
		metadata    TEXT NOT NULL DEFAULT '{}',
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL,
		deleted_at  TEXT,
		archived_at TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_cards_owner ON cards(owner_id, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_cards_type ON cards(type);
	`
	_, err := s.db.Exec(schema)
	return err
}

const cardColumns = `id, owner_id, type, title, content, url, image_url, tags, metadata, created_at, updated_at, deleted_at, archived_at`

// CreateCard inserts a new card.
func (s *Store) CreateCard(ctx context.Context, c *model.Card) error {
	tags, err := json.Marshal(c.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}
	meta, err := json.Marshal(c.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO cards (`+cardColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.OwnerID, string(c.Type), c.Title, c.Content, c.URL, c.ImageURL,
		string(tags), string(meta),
		fmtTime(c.CreatedAt), fmtTime(c.UpdatedAt), fmtTimePtr(c.DeletedAt), fmtTimePtr(c.ArchivedAt),
	)
	return err
}

// GetCard returns a single card by id.
func (s *Store) GetCard(ctx context.Context, id string) (*model.Card, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+cardColumns+` FROM cards WHERE id = ?`, id)
	card, err := scanCard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return card, err
}

// Filter holds query parameters for listing cards.
type Filter struct {
	OwnerID  string
	Type     string
	Query    string
	Archived bool // only archived cards when true, exclude them otherwise
	Deleted  bool // include soft-deleted cards
}

// ListCards returns cards matching the filter, newest first.
func (s *Store) ListCards(ctx context.Context, f Filter) ([]*model.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards`
	var conditions []string
	var args []any

	if f.OwnerID != "" {
		conditions = append(conditions, "owner_id = ?")
		args = append(args, f.OwnerID)
	}
	if f.Type != "" {
		conditions = append(conditions, "type = ?")
		args = append(args, f.Type)
	}
	if f.Query != "" {
		like := "%" + f.Query + "%"
		conditions = append(conditions, "(title LIKE ? OR content LIKE ? OR url LIKE ?)")
		args = append(args, like, like, like)
	}
	if f.Archived {
		conditions = append(conditions, "archived_at IS NOT NULL")
	} else {
		conditions = append(conditions, "archived_at IS NULL")
	}
	if !f.Deleted {
		conditions = append(conditions, "deleted_at IS NULL")
	}

	query += " WHERE " + strings.Join(conditions, " AND ")
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cards []*model.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}

// Patch is a partial update: nil fields are left untouched, and Metadata
// keys are merged into the existing bag rather than replacing it.
type Patch struct {
	Type     *model.CardType
	Title    *string
	Content  *string
	URL      *string
	ImageURL *string
	Tags     *[]string
	Metadata model.Metadata // merged key-by-key; a nil value deletes the key
}

// UpdateCard applies a partial merge to the card inside a transaction.
// Concurrent updaters interleave at field granularity, never wholesale.
func (s *Store) UpdateCard(ctx context.Context, id string, p Patch) (*model.Card, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `SELECT `+cardColumns+` FROM cards WHERE id = ?`, id)
	card, err := scanCard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if p.Type != nil {
		card.Type = *p.Type
	}
	if p.Title != nil {
		card.Title = *p.Title
	}
	if p.Content != nil {
		card.Content = *p.Content
	}
	if p.URL != nil {
		card.URL = *p.URL
	}
	if p.ImageURL != nil {
		card.ImageURL = *p.ImageURL
	}
	if p.Tags != nil {
		card.Tags = *p.Tags
	}
	for k, v := range p.Metadata {
		if v == nil {
			delete(card.Metadata, k)
			continue
		}
		card.Metadata[k] = v
	}
	card.UpdatedAt = time.Now().UTC()

	tags, err := json.Marshal(card.Tags)
	if err != nil {
		return nil, fmt.Errorf("marshal tags: %w", err)
	}
	meta, err := json.Marshal(card.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE cards SET type = ?, title = ?, content = ?, url = ?, image_url = ?,
			tags = ?, metadata = ?, updated_at = ?
		WHERE id = ?`,
		string(card.Type), card.Title, card.Content, card.URL, card.ImageURL,
		string(tags), string(meta), fmtTime(card.UpdatedAt), id,
	); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return card, nil
}

// SoftDelete marks the card deleted without removing the row.
func (s *Store) SoftDelete(ctx context.Context, id string) error {
	return s.setTimestamp(ctx, id, "deleted_at", true)
}

// RestoreDeleted clears the deletion mark.
func (s *Store) RestoreDeleted(ctx context.Context, id string) error {
	return s.setTimestamp(ctx, id, "deleted_at", false)
}

// Archive marks the card archived. Archival and deletion are independent.
func (s *Store) Archive(ctx context.Context, id string) error {
	return s.setTimestamp(ctx, id, "archived_at", true)
}

// Unarchive clears the archive mark.
func (s *Store) Unarchive(ctx context.Context, id string) error {
	return s.setTimestamp(ctx, id, "archived_at", false)
}

func (s *Store) setTimestamp(ctx context.Context, id, column string, set bool) error {
	var value any
	if set {
		value = fmtTime(time.Now().UTC())
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE cards SET `+column+` = ?, updated_at = ? WHERE id = ?`,
		value, fmtTime(time.Now().UTC()), id,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ResetStaleProcessing clears the processing flag on cards left in flight
// by a previous run, recording the interruption as an enrichment error.
func (s *Store) ResetStaleProcessing(ctx context.Context) (int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE metadata LIKE '%"processing":true%'`)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return 0, err
		}
		ids = append(ids, card.ID)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	var n int64
	for _, id := range ids {
		_, err := s.UpdateCard(ctx, id, Patch{Metadata: model.Metadata{
			model.MetaProcessing:      false,
			model.MetaProcessingSince: nil,
			model.MetaEnrichmentError: "interrupted by restart",
		}})
		if err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

type scanner interface {
	Scan(dest ...any) error
}

func scanCard(row scanner) (*model.Card, error) {
	var (
		c                 model.Card
		typ, tags, meta   string
		created, updated  string
		deleted, archived sql.NullString
	)
	err := row.Scan(&c.ID, &c.OwnerID, &typ, &c.Title, &c.Content, &c.URL, &c.ImageURL,
		&tags, &meta, &created, &updated, &deleted, &archived)
	if err != nil {
		return nil, err
	}

	c.Type = model.CardType(typ)
	if err := json.Unmarshal([]byte(tags), &c.Tags); err != nil {
		c.Tags = []string{}
	}
	if err := json.Unmarshal([]byte(meta), &c.Metadata); err != nil {
		c.Metadata = model.Metadata{}
	}
	if c.Metadata == nil {
		c.Metadata = model.Metadata{}
	}
	c.CreatedAt, _ = time.Parse(time.RFC3339, created)
	c.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
	c.DeletedAt = parseTimePtr(deleted)
	c.ArchivedAt = parseTimePtr(archived)
	return &c, nil
}

func fmtTime(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func fmtTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return fmtTime(*t)
}

func parseTimePtr(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, ns.String)
	if err != nil {
		return nil
	}
	return &t
}
