package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// SQLCatalog reads artifacts from the artifacts table of the SQLite store.
type SQLCatalog struct {
	db *sql.DB
}

// NewSQL wraps an open database that already carries the artifacts table.
func NewSQL(db *sql.DB) *SQLCatalog {
	return &SQLCatalog{db: db}
}

// Exists reports whether id is a known artifact.
func (c *SQLCatalog) Exists(ctx context.Context, id string) (bool, error) {
	var count int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM artifacts WHERE id = ?`, id).Scan(&count); err != nil {
		return false, fmt.Errorf("artifact exists: %w", err)
	}
	return count > 0, nil
}

// Name returns the display name of id.
func (c *SQLCatalog) Name(ctx context.Context, id string) (string, error) {
	var name string
	err := c.db.QueryRowContext(ctx, `SELECT name FROM artifacts WHERE id = ?`, id).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", ErrArtifactNotFound, id)
	}
	if err != nil {
		return "", fmt.Errorf("artifact name: %w", err)
	}
	return name, nil
}

// List returns all artifacts ordered by identifier.
func (c *SQLCatalog) List(ctx context.Context) ([]Artifact, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT id, name FROM artifacts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	defer rows.Close()

	var artifacts []Artifact
	for rows.Next() {
		var a Artifact
		if err := rows.Scan(&a.ID, &a.Name); err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		artifacts = append(artifacts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	return artifacts, nil
}

// Upsert inserts or renames an artifact.
func (c *SQLCatalog) Upsert(ctx context.Context, artifact Artifact) error {
	if err := artifact.validate(); err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO artifacts (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET name = excluded.name, updated_at = excluded.updated_at`,
		strings.TrimSpace(artifact.ID), strings.TrimSpace(artifact.Name), now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert artifact %s: %w", artifact.ID, err)
	}
	return nil
}

func (a Artifact) validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return errors.New("artifact id is required")
	}
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("artifact %s: name is required", a.ID)
	}
	return nil
}
