package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/rushteam/bookrec/core"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS books (
  seq            INTEGER PRIMARY KEY AUTOINCREMENT,
  id             TEXT NOT NULL UNIQUE,
  title          TEXT NOT NULL,
  author         TEXT NOT NULL,
  genre          TEXT NOT NULL,
  description    TEXT NOT NULL DEFAULT '',
  year           INTEGER NOT NULL DEFAULT 0,
  average_rating REAL NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS users (
  id   TEXT PRIMARY KEY,
  name TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS ratings (
  seq     INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id TEXT NOT NULL,
  book_id TEXT NOT NULL REFERENCES books(id),
  rating  INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
  UNIQUE (user_id, book_id)
);
CREATE INDEX IF NOT EXISTS idx_ratings_user_id ON ratings(user_id);
CREATE INDEX IF NOT EXISTS idx_ratings_book_id ON ratings(book_id);
`

// SQLiteSource 是基于 SQLite 的 core.DataSource（嵌入式，单文件部署）。
// 书目与评分按写入顺序（seq）读取。
type SQLiteSource struct {
	db   *sql.DB
	path string
}

var _ core.DataSource = (*SQLiteSource)(nil)

// OpenSQLite 打开（必要时创建）数据库并建表。path 可以是 ":memory:"。
func OpenSQLite(ctx context.Context, path string) (*SQLiteSource, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite doesn't support concurrent writes
	db.SetMaxOpenConns(1)

	s := &SQLiteSource{db: db, path: path}
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteSource) Name() string { return "sqlite" }

// Migrate 建表，可重复执行。
func (s *SQLiteSource) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("migrate %s: %w", s.path, err)
	}
	return nil
}

func (s *SQLiteSource) Close() error {
	return s.db.Close()
}

// AddBook 新增或更新书目；平均分由评分维护，更新时不覆盖。
func (s *SQLiteSource) AddBook(ctx context.Context, b core.Book) error {
	if b.ID == "" {
		return core.NewDomainError(core.ModuleSource, core.ErrorCodeInvalidInput, "source: book id is required")
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO books (id, title, author, genre, description, year, average_rating)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  title = excluded.title,
  author = excluded.author,
  genre = excluded.genre,
  description = excluded.description,
  year = excluded.year`,
		b.ID, b.Title, b.Author, b.Genre, b.Description, b.Year, b.AverageRating)
	if err != nil {
		return fmt.Errorf("add book %s: %w", b.ID, err)
	}
	return nil
}

// AddUser 新增或更新用户。
func (s *SQLiteSource) AddUser(ctx context.Context, id, name string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, name) VALUES (?, ?) ON CONFLICT(id) DO UPDATE SET name = excluded.name`,
		id, name)
	if err != nil {
		return fmt.Errorf("add user %s: %w", id, err)
	}
	return nil
}

// Rate 记录评分（同一用户同一书目覆盖旧值）并在同一事务内刷新平均分。
func (s *SQLiteSource) Rate(ctx context.Context, userID, bookID string, score int) error {
	if !core.ValidScore(score) {
		return core.ErrInvalidScore
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM books WHERE id = ?`, bookID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", core.ErrBookNotFound, bookID)
	}
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
INSERT INTO ratings (user_id, book_id, rating) VALUES (?, ?, ?)
ON CONFLICT(user_id, book_id) DO UPDATE SET rating = excluded.rating`,
		userID, bookID, score); err != nil {
		return fmt.Errorf("rate %s/%s: %w", userID, bookID, err)
	}
	if _, err := tx.ExecContext(ctx, `
UPDATE books SET average_rating =
  (SELECT COALESCE(AVG(rating), 0) FROM ratings WHERE book_id = ?)
WHERE id = ?`, bookID, bookID); err != nil {
		return fmt.Errorf("update average %s: %w", bookID, err)
	}
	return tx.Commit()
}

func (s *SQLiteSource) AllRatings(ctx context.Context) ([]core.Rating, error) {
	return s.queryRatings(ctx, `SELECT user_id, book_id, rating FROM ratings ORDER BY seq`)
}

func (s *SQLiteSource) RatingsForUser(ctx context.Context, userID string, minScore int) ([]core.Rating, error) {
	return s.queryRatings(ctx,
		`SELECT user_id, book_id, rating FROM ratings WHERE user_id = ? AND rating >= ? ORDER BY seq`,
		userID, minScore)
}

func (s *SQLiteSource) queryRatings(ctx context.Context, query string, args ...any) ([]core.Rating, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ratings []core.Rating
	for rows.Next() {
		var r core.Rating
		if err := rows.Scan(&r.UserID, &r.BookID, &r.Score); err != nil {
			return nil, err
		}
		ratings = append(ratings, r)
	}
	return ratings, rows.Err()
}

const bookColumns = `id, title, author, genre, description, year, average_rating`

func (s *SQLiteSource) AllItems(ctx context.Context) ([]core.Book, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+bookColumns+` FROM books ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []core.Book
	for rows.Next() {
		var b core.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.Genre, &b.Description, &b.Year, &b.AverageRating); err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

func (s *SQLiteSource) ItemByID(ctx context.Context, bookID string) (*core.Book, error) {
	var b core.Book
	err := s.db.QueryRowContext(ctx, `SELECT `+bookColumns+` FROM books WHERE id = ?`, bookID).
		Scan(&b.ID, &b.Title, &b.Author, &b.Genre, &b.Description, &b.Year, &b.AverageRating)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", core.ErrBookNotFound, bookID)
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}
