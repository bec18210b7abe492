package catalog

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// importFile is the on-disk seed format:
//
//	[[artifact]]
//	id = "A-001"
//	name = "Bronze Age Dagger"
type importFile struct {
	Artifacts []Artifact `toml:"artifact"`
}

// ParseImport decodes and validates a TOML artifact list. Duplicate
// identifiers are rejected.
func ParseImport(r io.Reader) ([]Artifact, error) {
	var file importFile
	decoder := toml.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("parse artifact import: %w", err)
	}

	seen := make(map[string]struct{}, len(file.Artifacts))
	artifacts := make([]Artifact, 0, len(file.Artifacts))
	for i, artifact := range file.Artifacts {
		artifact.ID = strings.TrimSpace(artifact.ID)
		artifact.Name = strings.TrimSpace(artifact.Name)
		if err := artifact.validate(); err != nil {
			return nil, fmt.Errorf("artifact #%d: %w", i+1, err)
		}
		if _, dup := seen[artifact.ID]; dup {
			return nil, fmt.Errorf("artifact #%d: duplicate id %q", i+1, artifact.ID)
		}
		seen[artifact.ID] = struct{}{}
		artifacts = append(artifacts, artifact)
	}
	return artifacts, nil
}

// ImportFile loads path and upserts every artifact into w. It returns the
// number of artifacts written.
func ImportFile(ctx context.Context, w Writer, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open artifact import: %w", err)
	}
	defer f.Close()

	artifacts, err := ParseImport(f)
	if err != nil {
		return 0, err
	}
	for i, artifact := range artifacts {
		if err := w.Upsert(ctx, artifact); err != nil {
			return i, err
		}
	}
	return len(artifacts), nil
}
