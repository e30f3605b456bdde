package persistence

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"

	"github.com/joyridegames/joyride/pkg/log"
)

type PostgresAdapter struct {
	conn *pgx.Conn
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS game_records (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// NewPostgresAdapter creates a postgres-backed adapter.
// It panics if it is unable to connect to the database.
// The caller is responsible for calling Close() on the adapter.
func NewPostgresAdapter(ctx context.Context, connStr string) Adapter {
	conn := connectDb(ctx, connStr)
	if _, err := conn.Exec(ctx, postgresSchema); err != nil {
		panic(fmt.Sprintf("Unable to create schema: %v\n", err))
	}
	return &PostgresAdapter{
		conn: conn,
	}
}

func connectDb(ctx context.Context, connStr string) *pgx.Conn {
	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		panic(fmt.Sprintf("Unable to connect to database: %v\n", err))
	}

	var username string
	var database string
	err = conn.QueryRow(ctx, "SELECT current_user, current_database()").Scan(&username, &database)
	if err != nil {
		panic(fmt.Sprintf("Unable to query database: %v\n", err))
	}

	log.Info("Connected to %s as %s", database, username)

	return conn
}

func (a *PostgresAdapter) Close(ctx context.Context) error {
	return a.conn.Close(ctx)
}

func (a *PostgresAdapter) get(ctx context.Context, key string) (string, error) {
	q := `
	SELECT value FROM game_records WHERE key = $1;
	`
	var value string
	if err := a.conn.QueryRow(ctx, q, key).Scan(&value); err != nil {
		if err == pgx.ErrNoRows {
			return "", &ErrNotFound{}
		}
		return "", fmt.Errorf("failed to scan record %s: %v", key, err)
	}
	return value, nil
}

func (a *PostgresAdapter) set(ctx context.Context, key, value string) error {
	q := `
	INSERT INTO game_records (key, value) VALUES ($1, $2)
	ON CONFLICT (key) DO UPDATE SET value = $2;
	`
	if _, err := a.conn.Exec(ctx, q, key, value); err != nil {
		return fmt.Errorf("failed to insert record %s: %v", key, err)
	}
	return nil
}

func (a *PostgresAdapter) GetBool(ctx context.Context, key string) (bool, error) {
	value, err := a.get(ctx, key)
	if err != nil {
		return false, err
	}
	return parseBool(key, value)
}

func (a *PostgresAdapter) SetBool(ctx context.Context, key string, value bool) error {
	return a.set(ctx, key, strconv.FormatBool(value))
}

func (a *PostgresAdapter) GetInt64(ctx context.Context, key string) (int64, error) {
	value, err := a.get(ctx, key)
	if err != nil {
		return 0, err
	}
	return parseInt64(key, value)
}

func (a *PostgresAdapter) SetInt64(ctx context.Context, key string, value int64) error {
	return a.set(ctx, key, strconv.FormatInt(value, 10))
}

func (a *PostgresAdapter) GetString(ctx context.Context, key string) (string, error) {
	return a.get(ctx, key)
}

func (a *PostgresAdapter) SetString(ctx context.Context, key string, value string) error {
	return a.set(ctx, key, value)
}
