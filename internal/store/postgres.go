package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookcatalogue/internal/catalogue"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS catalogue_documents (
		name       TEXT PRIMARY KEY,
		body       JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`

// PostgresStore keeps both documents as JSONB rows of catalogue_documents.
type PostgresStore struct {
	snapshots
	db      *pgxpool.Pool
	timeout time.Duration
}

var (
	_ Backend               = (*PostgresStore)(nil)
	_ catalogue.AtomicSaver = (*PostgresStore)(nil)
)

// NewPostgresStore creates the documents table if needed and seeds empty
// documents. The store takes ownership of db.
func NewPostgresStore(ctx context.Context, db *pgxpool.Pool, timeout time.Duration) (*PostgresStore, error) {
	s := &PostgresStore{db: db, timeout: timeout}
	s.snapshots = snapshots{io: s}

	timeoutCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	if _, err := db.Exec(timeoutCtx, postgresSchema); err != nil {
		return nil, fmt.Errorf("create catalogue_documents: %w", err)
	}
	for _, name := range documentNames {
		const seedSQL = `
			INSERT INTO catalogue_documents (name, body)
			VALUES ($1, $2::jsonb)
			ON CONFLICT (name) DO NOTHING`
		if _, err := db.Exec(timeoutCtx, seedSQL, name, string(emptyDocument(name))); err != nil {
			return nil, fmt.Errorf("seed %s: %w", name, err)
		}
	}
	return s, nil
}

func (s *PostgresStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

func (s *PostgresStore) readDocument(ctx context.Context, name string) ([]byte, error) {
	const query = `SELECT body::text FROM catalogue_documents WHERE name = $1`

	timeoutCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	var body string
	if err := s.db.QueryRow(timeoutCtx, query, name).Scan(&body); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("document %q does not exist", name)
		}
		return nil, err
	}
	return []byte(body), nil
}

const upsertDocumentSQL = `
	INSERT INTO catalogue_documents (name, body, updated_at)
	VALUES ($1, $2::jsonb, now())
	ON CONFLICT (name) DO UPDATE SET
		body = EXCLUDED.body,
		updated_at = now()`

func (s *PostgresStore) writeDocument(ctx context.Context, name string, body []byte) error {
	timeoutCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	_, err := s.db.Exec(timeoutCtx, upsertDocumentSQL, name, string(body))
	return err
}

// SaveAll replaces both documents in one transaction.
func (s *PostgresStore) SaveAll(ctx context.Context, books catalogue.BookCollection, reviews catalogue.ReviewCollection) error {
	booksBody, err := encodeBooks(books)
	if err != nil {
		return err
	}
	reviewsBody, err := encodeReviews(reviews)
	if err != nil {
		return err
	}

	timeoutCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	tx, err := s.db.Begin(timeoutCtx)
	if err != nil {
		return unavailable("begin", "transaction", err)
	}
	defer tx.Rollback(timeoutCtx)

	if _, err := tx.Exec(timeoutCtx, upsertDocumentSQL, ReviewsDocument, string(reviewsBody)); err != nil {
		return unavailable("write", ReviewsDocument, err)
	}
	if _, err := tx.Exec(timeoutCtx, upsertDocumentSQL, BooksDocument, string(booksBody)); err != nil {
		return unavailable("write", BooksDocument, err)
	}
	if err := tx.Commit(timeoutCtx); err != nil {
		return unavailable("commit", "transaction", err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}
