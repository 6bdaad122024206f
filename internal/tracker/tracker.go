// Package tracker keeps the current outline forest of every open document
// and coalesces rebuild requests so that only the latest one wins.
package tracker

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/maypok86/otter"
	"github.com/rs/zerolog/log"

	"github.com/function-map/function-map-lsp/internal/outline"
)

// ErrSuperseded is returned by a rebuild whose result was discarded because a
// newer request for the same document arrived while it ran.
var ErrSuperseded = errors.New("tracker: rebuild superseded")

var ErrClosed = errors.New("tracker: closed")

// Snapshot is one version of a document's text.
type Snapshot struct {
	URI        string
	Version    int32
	LanguageID string
	Text       []byte
}

// BuildFunc computes the forest roots of a snapshot. It must not retain or
// mutate the snapshot text.
type BuildFunc func(ctx context.Context, snap Snapshot) ([]*outline.FunctionNode, error)

type Options struct {
	Debounce time.Duration
	// MemoSize bounds the number of memoised builds; zero disables the memo.
	MemoSize int
	Build    BuildFunc
	// OnUpdate is called after a forest has been swapped in.
	OnUpdate func(forest *outline.Forest)
}

type slot struct {
	generation uint64
	timer      *time.Timer
}

type Tracker struct {
	build    BuildFunc
	debounce time.Duration
	onUpdate func(*outline.Forest)
	memo     *otter.Cache[string, []*outline.FunctionNode]

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.Mutex
	closed     bool
	generation uint64
	slots      map[string]*slot
	forests    sync.Map // uri -> *atomic.Pointer[outline.Forest]
}

func New(opts Options) (*Tracker, error) {
	if opts.Build == nil {
		return nil, errors.New("tracker: build function is required")
	}
	t := &Tracker{
		build:    opts.Build,
		debounce: opts.Debounce,
		onUpdate: opts.OnUpdate,
		slots:    make(map[string]*slot),
	}
	if opts.MemoSize > 0 {
		cache, err := otter.MustBuilder[string, []*outline.FunctionNode](opts.MemoSize).Build()
		if err != nil {
			return nil, fmt.Errorf("tracker: create memo: %w", err)
		}
		t.memo = &cache
	}
	t.ctx, t.cancel = context.WithCancel(context.Background())
	return t, nil
}

// Schedule requests a rebuild after the debounce window. A later Schedule or
// RebuildNow for the same document replaces this one.
func (t *Tracker) Schedule(snap Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}

	s := t.slot(snap.URI)
	generation := t.nextGeneration(s)
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(t.debounce, func() {
		t.mu.Lock()
		if t.closed {
			t.mu.Unlock()
			return
		}
		t.wg.Add(1)
		t.mu.Unlock()
		defer t.wg.Done()

		if _, err := t.rebuild(t.ctx, snap, generation); err != nil && !errors.Is(err, ErrSuperseded) {
			log.Warn().Err(err).Str("uri", snap.URI).Int32("version", snap.Version).Msg("tracker: rebuild failed, keeping previous outline")
		}
	})
}

// RebuildNow rebuilds immediately, cancelling any pending debounced request.
// On failure the previous forest stays current and is returned with the error.
func (t *Tracker) RebuildNow(ctx context.Context, snap Snapshot) (*outline.Forest, error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil, ErrClosed
	}
	s := t.slot(snap.URI)
	generation := t.nextGeneration(s)
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	t.wg.Add(1)
	t.mu.Unlock()
	defer t.wg.Done()

	return t.rebuild(ctx, snap, generation)
}

// Current returns the latest forest of uri, or nil.
func (t *Tracker) Current(uri string) *outline.Forest {
	if p, ok := t.forests.Load(uri); ok {
		return p.(*atomic.Pointer[outline.Forest]).Load()
	}
	return nil
}

// Forget drops a document. Pending and running rebuilds for it are discarded.
func (t *Tracker) Forget(uri string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.slots[uri]; ok {
		if s.timer != nil {
			s.timer.Stop()
		}
		delete(t.slots, uri)
	}
	t.forests.Delete(uri)
}

// Close stops pending rebuilds and waits for running ones.
func (t *Tracker) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	for _, s := range t.slots {
		if s.timer != nil {
			s.timer.Stop()
		}
	}
	t.mu.Unlock()

	t.cancel()
	t.wg.Wait()
	if t.memo != nil {
		t.memo.Close()
	}
}

// nextGeneration stamps s with a generation unique across the tracker, so a
// slot recreated after Forget never matches a stale rebuild.
func (t *Tracker) nextGeneration(s *slot) uint64 {
	t.generation++
	s.generation = t.generation
	return s.generation
}

func (t *Tracker) slot(uri string) *slot {
	s, ok := t.slots[uri]
	if !ok {
		s = &slot{}
		t.slots[uri] = s
	}
	return s
}

func (t *Tracker) rebuild(ctx context.Context, snap Snapshot, generation uint64) (*outline.Forest, error) {
	start := time.Now()
	roots, err := t.roots(ctx, snap)
	if err != nil {
		return t.Current(snap.URI), fmt.Errorf("build %s: %w", snap.URI, err)
	}
	forest := &outline.Forest{
		URI:        snap.URI,
		Version:    snap.Version,
		LanguageID: snap.LanguageID,
		Roots:      roots,
	}

	t.mu.Lock()
	s, ok := t.slots[snap.URI]
	if !ok || s.generation != generation {
		t.mu.Unlock()
		return t.Current(snap.URI), ErrSuperseded
	}
	p, _ := t.forests.LoadOrStore(snap.URI, &atomic.Pointer[outline.Forest]{})
	p.(*atomic.Pointer[outline.Forest]).Store(forest)
	t.mu.Unlock()

	log.Debug().
		Str("uri", snap.URI).
		Int32("version", snap.Version).
		Int("roots", len(roots)).
		Dur("took", time.Since(start)).
		Msg("tracker: outline rebuilt")

	if t.onUpdate != nil {
		t.onUpdate(forest)
	}
	return forest, nil
}

func (t *Tracker) roots(ctx context.Context, snap Snapshot) ([]*outline.FunctionNode, error) {
	if t.memo == nil {
		return t.build(ctx, snap)
	}
	key := memoKey(snap)
	if roots, ok := t.memo.Get(key); ok {
		return roots, nil
	}
	roots, err := t.build(ctx, snap)
	if err != nil {
		return nil, err
	}
	t.memo.Set(key, roots)
	return roots, nil
}

func memoKey(snap Snapshot) string {
	h := sha256.New()
	h.Write([]byte(snap.LanguageID))
	h.Write([]byte{0})
	h.Write(snap.Text)
	return hex.EncodeToString(h.Sum(nil))
}
