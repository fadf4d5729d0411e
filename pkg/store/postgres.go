package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresStore keeps blobs in the project_layers table.
type PostgresStore struct {
	db *sql.DB
}

// DSN builds a lib/pq connection string.
func DSN(host string, port int, user, password, dbname string) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)
}

// NewPostgresStore opens and pings a connection.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &PostgresStore{db: db}, nil
}

// InitSchema creates the table if it does not exist.
func (p *PostgresStore) InitSchema(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS project_layers (
			project TEXT PRIMARY KEY,
			layers JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
	}

	for _, query := range queries {
		if _, err := p.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query '%s': %w", query, err)
		}
	}

	return nil
}

// Load returns the stored blob. JSONB normalizes whitespace and key order,
// so the bytes may differ from what was saved while decoding the same.
func (p *PostgresStore) Load(ctx context.Context, project string) ([]byte, error) {
	if err := ValidProject(project); err != nil {
		return nil, err
	}
	var blob []byte
	err := p.db.QueryRowContext(ctx,
		`SELECT layers FROM project_layers WHERE project = $1`, project).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load project %s: %w", project, err)
	}
	return blob, nil
}

// Save upserts the blob.
func (p *PostgresStore) Save(ctx context.Context, project string, blob []byte) error {
	if err := ValidProject(project); err != nil {
		return err
	}
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO project_layers (project, layers, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (project) DO UPDATE
		SET layers = EXCLUDED.layers, updated_at = EXCLUDED.updated_at
	`, project, string(blob))
	if err != nil {
		return fmt.Errorf("failed to save project %s: %w", project, err)
	}
	return nil
}

// Projects lists stored project ids.
func (p *PostgresStore) Projects(ctx context.Context) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT project FROM project_layers ORDER BY project`)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}

// Count returns the number of stored projects.
func (p *PostgresStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := p.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM project_layers").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count projects: %w", err)
	}
	return count, nil
}

// Close closes the database connection
func (p *PostgresStore) Close() error {
	return p.db.Close()
}
