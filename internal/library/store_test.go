package library

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/msalah0e/flowcanvas/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s, err := NewStore(db)
	require.NoError(t, err)
	s.now = func() time.Time { return time.UnixMilli(1_700_000_000_000) }
	return s
}

func TestPutGetRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	w := workflow.Sample()

	require.NoError(t, s.Put(ctx, w, "demo"))
	got, err := s.Get(ctx, w.ID)
	require.NoError(t, err)

	assert.Equal(t, w.ID, got.ID)
	assert.Equal(t, w.Name, got.Name)
	assert.Len(t, got.Nodes, len(w.Nodes))
	assert.Equal(t, len(workflow.BuildGraph(w).Links), len(workflow.BuildGraph(got).Links))
	assert.Equal(t, *w.Nodes[3].Position, *got.Nodes[3].Position)
}

func TestPutReplaces(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	w := workflow.Sample()
	require.NoError(t, s.Put(ctx, w, "a.json"))

	w.Name = "Renamed"
	w.Nodes = w.Nodes[:2]
	require.NoError(t, s.Put(ctx, w, "b.json"))

	entries, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Renamed", entries[0].Name)
	assert.Equal(t, 2, entries[0].Nodes)
	assert.Equal(t, 1, entries[0].Links)
	assert.Equal(t, "b.json", entries[0].Source)
	assert.Equal(t, int64(1_700_000_000_000), entries[0].UpdatedAt.UnixMilli())
}

func TestListOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, s.Put(ctx, workflow.Workflow{ID: workflow.DeriveID(name), Name: name}, ""))
	}
	entries, err := s.List(ctx)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, names)
}

func TestNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Remove(ctx, "missing"), ErrNotFound)

	require.NoError(t, s.Put(ctx, workflow.Sample(), ""))
	require.NoError(t, s.Remove(ctx, workflow.Sample().ID))
	_, err = s.Get(ctx, workflow.Sample().ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPutRequiresID(t *testing.T) {
	s := newTestStore(t)
	assert.Error(t, s.Put(context.Background(), workflow.Workflow{Name: "anon"}, ""))
}

func TestOpenOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "library.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(context.Background(), workflow.Sample(), ""))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	entries, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
