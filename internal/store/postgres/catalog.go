package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"vitrine/internal/catalog"
)

// Catalog reads artifacts from the PostgreSQL artifacts table.
type Catalog struct {
	pool *pgxpool.Pool
}

// NewCatalog wraps a pool whose schema was prepared by Store.EnsureSchema.
func NewCatalog(pool *pgxpool.Pool) *Catalog {
	return &Catalog{pool: pool}
}

// Exists reports whether id is a known artifact.
func (c *Catalog) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	if err := c.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM artifacts WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("artifact exists: %w", err)
	}
	return exists, nil
}

// Name returns the display name of id.
func (c *Catalog) Name(ctx context.Context, id string) (string, error) {
	var name string
	err := c.pool.QueryRow(ctx, `SELECT name FROM artifacts WHERE id = $1`, id).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", catalog.ErrArtifactNotFound, id)
	}
	if err != nil {
		return "", fmt.Errorf("artifact name: %w", err)
	}
	return name, nil
}

// List returns all artifacts ordered by identifier.
func (c *Catalog) List(ctx context.Context) ([]catalog.Artifact, error) {
	rows, err := c.pool.Query(ctx, `SELECT id, name FROM artifacts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	defer rows.Close()

	var artifacts []catalog.Artifact
	for rows.Next() {
		var a catalog.Artifact
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
func (c *Catalog) Upsert(ctx context.Context, artifact catalog.Artifact) error {
	id := strings.TrimSpace(artifact.ID)
	name := strings.TrimSpace(artifact.Name)
	if id == "" || name == "" {
		return fmt.Errorf("artifact %q: id and name are required", artifact.ID)
	}
	_, err := c.pool.Exec(ctx, `
		INSERT INTO artifacts (id, name) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, updated_at = NOW()`, id, name)
	if err != nil {
		return fmt.Errorf("upsert artifact %s: %w", id, err)
	}
	return nil
}
