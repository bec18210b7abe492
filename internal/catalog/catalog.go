package catalog

import (
	"context"
	"errors"
	"strings"
)

// ErrArtifactNotFound is returned by Name when the identifier is unknown.
var ErrArtifactNotFound = errors.New("artifact not found")

// Artifact is the catalog's view of a museum object.
type Artifact struct {
	ID   string `toml:"id" json:"id"`
	Name string `toml:"name" json:"name"`
}

// Reader answers identity questions about artifacts.
type Reader interface {
	Exists(ctx context.Context, id string) (bool, error)
	Name(ctx context.Context, id string) (string, error)
	List(ctx context.Context) ([]Artifact, error)
}

// Writer seeds artifacts into a catalog.
type Writer interface {
	Upsert(ctx context.Context, artifact Artifact) error
}

// PlaceholderName is shown when an artifact's name cannot be resolved.
func PlaceholderName(id string) string {
	return "Artifact " + id
}

// DisplayName resolves an artifact name, degrading to PlaceholderName on any
// lookup failure.
func DisplayName(ctx context.Context, r Reader, id string) string {
	if r == nil {
		return PlaceholderName(id)
	}
	name, err := r.Name(ctx, id)
	if err != nil || strings.TrimSpace(name) == "" {
		return PlaceholderName(id)
	}
	return name
}
