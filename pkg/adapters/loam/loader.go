// Package loam reads bot phrasebooks from a Loam document repository.
//
// A phrasebook is a Markdown (or JSON/YAML) document whose front matter sets
// any of the domain.Phrasebook keys:
//
//	---
//	greeting: "Evening! What can I get you?"
//	farewell: "Cheers!"
//	---
//	Ask me to recommend a beer or to order one.
//
// The document body, when present, becomes the help text unless the front
// matter sets "help" itself.
package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aretw0/bartender/pkg/domain"
	"github.com/aretw0/loam"
)

// DefaultDocument is the phrasebook looked up when no ID is given.
const DefaultDocument = "phrasebook"

// Loader adapts a Loam repository to phrasebook loading.
type Loader struct {
	Repo *loam.TypedRepository[domain.Phrasebook]
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[domain.Phrasebook]) *Loader {
	return &Loader{Repo: repo}
}

// Open initializes a read-only Loam repository rooted at dir.
func Open(dir string) (*Loader, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[domain.Phrasebook](repo)), nil
}

// Load reads the phrasebook document id (e.g. "phrasebook" for phrasebook.md).
// Keys the document leaves out stay empty; merge with domain.DefaultPhrasebook.
func (l *Loader) Load(ctx context.Context, id string) (domain.Phrasebook, error) {
	if id == "" {
		id = DefaultDocument
	}
	doc, err := l.Repo.Get(ctx, id)
	if err != nil {
		return domain.Phrasebook{}, fmt.Errorf("loam get failed for %s: %w", id, err)
	}

	p := doc.Data
	if p.Help == "" {
		p.Help = strings.TrimSpace(doc.Content)
	}
	return p, nil
}

// List returns the IDs of the phrasebooks in the repository, extensions stripped.
func (l *Loader) List(ctx context.Context) ([]string, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, strings.TrimSuffix(doc.ID, filepath.Ext(doc.ID)))
	}
	return ids, nil
}
