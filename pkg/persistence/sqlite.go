package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteAdapter struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS game_records (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// NewSQLiteAdapter opens (or creates) a sqlite-backed adapter at path.
func NewSQLiteAdapter(ctx context.Context, path string) (Adapter, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return nil, fmt.Errorf("failed to create schema: %v", err)
	}

	return &SQLiteAdapter{
		db: db,
	}, nil
}

func (a *SQLiteAdapter) Close(ctx context.Context) error {
	return a.db.Close()
}

func (a *SQLiteAdapter) get(ctx context.Context, key string) (string, error) {
	q := `
	SELECT value FROM game_records WHERE key = ?;
	`
	var value string
	if err := a.db.QueryRowContext(ctx, q, key).Scan(&value); err != nil {
		if err == sql.ErrNoRows {
			return "", &ErrNotFound{}
		}
		return "", fmt.Errorf("failed to scan record %s: %v", key, err)
	}
	return value, nil
}

func (a *SQLiteAdapter) set(ctx context.Context, key, value string) error {
	q := `
	INSERT OR REPLACE INTO game_records (key, value)
	VALUES (?, ?);
	`
	if _, err := a.db.ExecContext(ctx, q, key, value); err != nil {
		return fmt.Errorf("failed to insert record %s: %v", key, err)
	}
	return nil
}

func (a *SQLiteAdapter) GetBool(ctx context.Context, key string) (bool, error) {
	value, err := a.get(ctx, key)
	if err != nil {
		return false, err
	}
	return parseBool(key, value)
}

func (a *SQLiteAdapter) SetBool(ctx context.Context, key string, value bool) error {
	return a.set(ctx, key, strconv.FormatBool(value))
}

func (a *SQLiteAdapter) GetInt64(ctx context.Context, key string) (int64, error) {
	value, err := a.get(ctx, key)
	if err != nil {
		return 0, err
	}
	return parseInt64(key, value)
}

func (a *SQLiteAdapter) SetInt64(ctx context.Context, key string, value int64) error {
	return a.set(ctx, key, strconv.FormatInt(value, 10))
}

func (a *SQLiteAdapter) GetString(ctx context.Context, key string) (string, error) {
	return a.get(ctx, key)
}

func (a *SQLiteAdapter) SetString(ctx context.Context, key string, value string) error {
	return a.set(ctx, key, value)
}

func parseBool(key, value string) (bool, error) {
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("failed to parse record %s: %v", key, err)
	}
	return parsed, nil
}

func parseInt64(key, value string) (int64, error) {
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse record %s: %v", key, err)
	}
	return parsed, nil
}
