package store

import (
	"context"
	"errors"
	"time"

	"github.com/dk/stagecraft/internal/block"
	"github.com/dk/stagecraft/internal/depscan"
)

// ErrNotFound is returned when no record exists for the requested session.
var ErrNotFound = errors.New("artifact record not found")

// Record is everything the persist stage saves for one workflow session.
type Record struct {
	SessionID    string               `json:"sessionId"`
	Prompt       string               `json:"prompt,omitempty"`
	Blocks       []block.ContentBlock `json:"blocks"`
	Dependencies []depscan.Dependency `json:"dependencies"`
	Preview      string               `json:"preview,omitempty"`
	CreatedAt    time.Time            `json:"createdAt"`
	UpdatedAt    time.Time            `json:"updatedAt"`
}

// ArtifactStore persists workflow artifacts keyed by session identifier.
// Save failures propagate as the persist stage's error.
type ArtifactStore interface {
	Save(ctx context.Context, record *Record) error
	Load(ctx context.Context, sessionID string) (*Record, error)
	List(ctx context.Context) ([]string, error)
	Close() error
}

// clone deep-copies a record so stored state cannot be mutated through a
// slice the caller still holds.
func clone(r *Record) *Record {
	out := *r
	if r.Blocks != nil {
		out.Blocks = make([]block.ContentBlock, len(r.Blocks))
		copy(out.Blocks, r.Blocks)
		for i, b := range r.Blocks {
			if b.Metadata == nil {
				continue
			}
			meta := make(map[string]any, len(b.Metadata))
			for k, v := range b.Metadata {
				meta[k] = v
			}
			out.Blocks[i].Metadata = meta
		}
	}
	if r.Dependencies != nil {
		out.Dependencies = make([]depscan.Dependency, len(r.Dependencies))
		copy(out.Dependencies, r.Dependencies)
	}
	return &out
}
