package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dk/stagecraft/internal/block"
	"github.com/dk/stagecraft/internal/depscan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord(sessionID string) *Record {
	return &Record{
		SessionID: sessionID,
		Prompt:    "make a landing page",
		Blocks: []block.ContentBlock{{
			ID:       "html-0",
			Type:     block.TypeMarkup,
			Code:     "<div>hi</div>",
			Title:    "HTML",
			Language: "html",
			Metadata: map[string]any{block.MetaPattern: "html", block.MetaStartIndex: 0},
		}},
		Dependencies: []depscan.Dependency{{
			Name: "axios", Type: depscan.TypePackage, Required: true, Source: depscan.SourceImport,
		}},
		Preview: "<!DOCTYPE html><html></html>",
	}
}

// roundTrip exercises the shared store contract against any backend.
func roundTrip(t *testing.T, s ArtifactStore) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Load(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	record := sampleRecord("session-1")
	require.NoError(t, s.Save(ctx, record))

	loaded, err := s.Load(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, record.Prompt, loaded.Prompt)
	assert.Equal(t, record.Preview, loaded.Preview)
	require.Len(t, loaded.Blocks, 1)
	assert.Equal(t, "html-0", loaded.Blocks[0].ID)
	require.Len(t, loaded.Dependencies, 1)
	assert.Equal(t, "axios", loaded.Dependencies[0].Name)
	assert.False(t, loaded.CreatedAt.IsZero())
	assert.False(t, loaded.UpdatedAt.IsZero())

	require.NoError(t, s.Save(ctx, sampleRecord("session-2")))
	ids, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"session-1", "session-2"}, ids)

	// Overwriting keeps the original creation time.
	updated := sampleRecord("session-1")
	updated.Preview = "updated"
	require.NoError(t, s.Save(ctx, updated))
	reloaded, err := s.Load(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, "updated", reloaded.Preview)
	assert.Equal(t, loaded.CreatedAt, reloaded.CreatedAt)
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	roundTrip(t, s)
}

func TestMemoryStore_SaveRejectsEmptySessionID(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	assert.Error(t, s.Save(context.Background(), &Record{}))
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	record := sampleRecord("session-1")
	require.NoError(t, s.Save(ctx, record))

	// Mutating the caller's record after Save must not affect the store.
	record.Blocks[0].Code = "mutated"

	loaded, err := s.Load(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, "<div>hi</div>", loaded.Blocks[0].Code)

	// Mutating a loaded record must not affect subsequent loads.
	loaded.Blocks[0].Metadata[block.MetaPattern] = "tampered"
	again, err := s.Load(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, "html", again.Blocks[0].Metadata[block.MetaPattern])
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artifacts.db")
	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()
	roundTrip(t, s)
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artifacts.db")
	ctx := context.Background()

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, sampleRecord("session-1")))
	require.NoError(t, s.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	loaded, err := reopened.Load(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, "make a landing page", loaded.Prompt)
}
