package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"bookcatalogue/internal/catalogue"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStore keeps both documents in a single SQLite database.
//
// Tables:
//
//	documents(name, body)  PRIMARY KEY (name)
type SQLiteStore struct {
	snapshots
	db *sql.DB
}

var (
	_ Backend               = (*SQLiteStore)(nil)
	_ catalogue.AtomicSaver = (*SQLiteStore)(nil)
)

func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS documents (
		name TEXT PRIMARY KEY,
		body TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, err
	}
	for _, name := range documentNames {
		if _, err := db.ExecContext(ctx,
			"INSERT OR IGNORE INTO documents (name, body) VALUES (?, ?)",
			name, string(emptyDocument(name)),
		); err != nil {
			db.Close()
			return nil, err
		}
	}

	s := &SQLiteStore{db: db}
	s.snapshots = snapshots{io: s}
	return s, nil
}

func (s *SQLiteStore) readDocument(ctx context.Context, name string) ([]byte, error) {
	var body string
	err := s.db.QueryRowContext(ctx, "SELECT body FROM documents WHERE name = ?", name).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %q does not exist", name)
	}
	if err != nil {
		return nil, err
	}
	return []byte(body), nil
}

func (s *SQLiteStore) writeDocument(ctx context.Context, name string, body []byte) error {
	return upsertSQLite(ctx, s.db, name, body)
}

type sqliteExecer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertSQLite(ctx context.Context, db sqliteExecer, name string, body []byte) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO documents (name, body) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET body = excluded.body`,
		name, string(body),
	)
	return err
}

// SaveAll replaces both documents in one transaction.
func (s *SQLiteStore) SaveAll(ctx context.Context, books catalogue.BookCollection, reviews catalogue.ReviewCollection) error {
	booksBody, err := encodeBooks(books)
	if err != nil {
		return err
	}
	reviewsBody, err := encodeReviews(reviews)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("begin", "transaction", err)
	}
	defer tx.Rollback()

	if err := upsertSQLite(ctx, tx, ReviewsDocument, reviewsBody); err != nil {
		return unavailable("write", ReviewsDocument, err)
	}
	if err := upsertSQLite(ctx, tx, BooksDocument, booksBody); err != nil {
		return unavailable("write", BooksDocument, err)
	}
	if err := tx.Commit(); err != nil {
		return unavailable("commit", "transaction", err)
	}
	return nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
