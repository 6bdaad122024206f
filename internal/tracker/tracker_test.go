package tracker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/function-map/function-map-lsp/internal/outline"
)

const uri = "file:///src/app.js"

type recorder struct {
	mu       sync.Mutex
	versions []int32
	calls    atomic.Int32
}

func (r *recorder) build(_ context.Context, snap Snapshot) ([]*outline.FunctionNode, error) {
	r.calls.Add(1)
	r.mu.Lock()
	r.versions = append(r.versions, snap.Version)
	r.mu.Unlock()
	if string(snap.Text) == "broken" {
		return nil, errors.New("parse failed")
	}
	return []*outline.FunctionNode{{Name: string(snap.Text)}}, nil
}

func newTracker(t *testing.T, opts Options) *Tracker {
	t.Helper()
	tr, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(tr.Close)
	return tr
}

func snap(version int32, text string) Snapshot {
	return Snapshot{URI: uri, Version: version, LanguageID: "javascript", Text: []byte(text)}
}

func TestScheduleCoalescesToLatest(t *testing.T) {
	rec := &recorder{}
	tr := newTracker(t, Options{Debounce: 30 * time.Millisecond, Build: rec.build})

	tr.Schedule(snap(1, "a"))
	tr.Schedule(snap(2, "b"))
	tr.Schedule(snap(3, "c"))

	require.Eventually(t, func() bool {
		f := tr.Current(uri)
		return f != nil && f.Version == 3
	}, time.Second, 5*time.Millisecond)

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), rec.calls.Load())
	assert.Equal(t, "c", tr.Current(uri).Roots[0].Name)
}

func TestRebuildNow(t *testing.T) {
	var updates atomic.Int32
	rec := &recorder{}
	tr := newTracker(t, Options{
		Build:    rec.build,
		OnUpdate: func(*outline.Forest) { updates.Add(1) },
	})

	forest, err := tr.RebuildNow(context.Background(), snap(1, "a"))
	require.NoError(t, err)
	assert.Equal(t, uri, forest.URI)
	assert.Equal(t, int32(1), forest.Version)
	assert.Equal(t, "javascript", forest.LanguageID)
	assert.Same(t, forest, tr.Current(uri))
	assert.Equal(t, int32(1), updates.Load())
}

func TestFailedRebuildKeepsStaleForest(t *testing.T) {
	rec := &recorder{}
	tr := newTracker(t, Options{Build: rec.build})

	good, err := tr.RebuildNow(context.Background(), snap(1, "a"))
	require.NoError(t, err)

	stale, err := tr.RebuildNow(context.Background(), snap(2, "broken"))
	require.Error(t, err)
	assert.Same(t, good, stale)
	assert.Same(t, good, tr.Current(uri))
}

func TestSupersededResultIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	tr := newTracker(t, Options{Build: func(_ context.Context, s Snapshot) ([]*outline.FunctionNode, error) {
		if s.Version == 1 {
			close(started)
			<-release
		}
		return []*outline.FunctionNode{{Name: string(s.Text)}}, nil
	}})

	type result struct {
		forest *outline.Forest
		err    error
	}
	slow := make(chan result, 1)
	go func() {
		f, err := tr.RebuildNow(context.Background(), snap(1, "old"))
		slow <- result{f, err}
	}()
	<-started

	fresh, err := tr.RebuildNow(context.Background(), snap(2, "new"))
	require.NoError(t, err)
	close(release)

	r := <-slow
	assert.ErrorIs(t, r.err, ErrSuperseded)
	assert.Same(t, fresh, r.forest)
	assert.Equal(t, int32(2), tr.Current(uri).Version)
}

func TestMemoSkipsIdenticalText(t *testing.T) {
	rec := &recorder{}
	tr := newTracker(t, Options{Build: rec.build, MemoSize: 16})
	ctx := context.Background()

	first, err := tr.RebuildNow(ctx, snap(1, "same"))
	require.NoError(t, err)
	second, err := tr.RebuildNow(ctx, snap(2, "same"))
	require.NoError(t, err)

	assert.Equal(t, int32(1), rec.calls.Load())
	assert.Equal(t, int32(2), second.Version)
	assert.Equal(t, first.Roots, second.Roots)

	other := snap(3, "same")
	other.LanguageID = "typescript"
	_, err = tr.RebuildNow(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, int32(2), rec.calls.Load(), "language is part of the key")
}

func TestForget(t *testing.T) {
	rec := &recorder{}
	tr := newTracker(t, Options{Debounce: 20 * time.Millisecond, Build: rec.build})

	_, err := tr.RebuildNow(context.Background(), snap(1, "a"))
	require.NoError(t, err)

	tr.Schedule(snap(2, "b"))
	tr.Forget(uri)
	assert.Nil(t, tr.Current(uri))

	time.Sleep(60 * time.Millisecond)
	assert.Nil(t, tr.Current(uri))
	assert.Equal(t, int32(1), rec.calls.Load())
}

func TestClose(t *testing.T) {
	rec := &recorder{}
	tr, err := New(Options{Debounce: 10 * time.Millisecond, Build: rec.build, MemoSize: 4})
	require.NoError(t, err)

	tr.Schedule(snap(1, "a"))
	tr.Close()
	tr.Close()

	_, err = tr.RebuildNow(context.Background(), snap(2, "b"))
	assert.ErrorIs(t, err, ErrClosed)

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(0), rec.calls.Load())
}

func TestNewRequiresBuild(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}
