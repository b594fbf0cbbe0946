package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/lexin-ta/lexin-api/internal/config"
	"github.com/lexin-ta/lexin-api/internal/core"
	"github.com/lexin-ta/lexin-api/internal/models"
)

var _ core.DbClient = (*DatabaseClient)(nil)

// DatabaseClient holds the bookmark table. Document ids stored here are weak
// references into the search index; no join is enforced.
type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(ctx context.Context, cfg *config.Config) (*DatabaseClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Sensible pool settings for an API service; adjust as needed.
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	ctxPing, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(ctxPing); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctxPing, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// CreateBookmark inserts the (user, document) pair. A pair that already
// exists is left untouched, making create idempotent; in that case the
// stored row's id and created_at are read back into bookmark so callers
// always see the persisted values.
func (c *DatabaseClient) CreateBookmark(ctx context.Context, bookmark *models.LegalDocumentBookmark) error {
	if bookmark == nil {
		return errors.New("nil bookmark")
	}
	const insert = `
		INSERT INTO legal_document_bookmark (id, user_id, document_id, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
		ON CONFLICT (user_id, document_id) DO NOTHING
		RETURNING id, created_at
	`
	err := c.db.QueryRowContext(ctx, insert,
		bookmark.ID, bookmark.UserID, bookmark.DocumentID, bookmark.CreatedAt).
		Scan(&bookmark.ID, &bookmark.CreatedAt)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	// Conflict: the insert returned no row, so the pair already exists.
	const existing = `
		SELECT id, created_at
		FROM legal_document_bookmark
		WHERE user_id = $1 AND document_id = $2
	`
	return c.db.QueryRowContext(ctx, existing, bookmark.UserID, bookmark.DocumentID).
		Scan(&bookmark.ID, &bookmark.CreatedAt)
}

// DeleteBookmark removes the pair. Deleting a bookmark that was never created
// is a no-op, not an error.
func (c *DatabaseClient) DeleteBookmark(ctx context.Context, userID, documentID string) error {
	const q = `
		DELETE FROM legal_document_bookmark
		WHERE user_id = $1 AND document_id = $2
	`
	_, err := c.db.ExecContext(ctx, q, userID, documentID)
	return err
}

func (c *DatabaseClient) ListBookmarksByUser(ctx context.Context, userID string) ([]models.LegalDocumentBookmark, error) {
	const q = `
		SELECT id, user_id, document_id, created_at
		FROM legal_document_bookmark
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := c.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.LegalDocumentBookmark
	for rows.Next() {
		var b models.LegalDocumentBookmark
		if err := rows.Scan(&b.ID, &b.UserID, &b.DocumentID, &b.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
