package snapshot

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"siostam-backend/domain/graph"
	pkgerrors "siostam-backend/pkg/errors"
)

// Renderer turns a dot document into an SVG image. Rendering happens
// once per structural change, at publication time, so that readers
// never wait on it.
type Renderer interface {
	Render(ctx context.Context, dot string) ([]byte, error)
}

// Snapshot is one immutable publication of the graph: the model, its
// serialized forms, and the bookkeeping the updater reads. No field
// changes after publication; any number of readers may share one
// instance without synchronization.
type Snapshot struct {
	Graph     *graph.Graph
	JSON      []byte
	DOT       string
	SVG       []byte
	Checksum  string
	Version   uint64
	BuiltAt   time.Time
	LastCheck time.Time
}

// Store holds the current Snapshot and swaps the pointer under a
// write lock. Reads hold the read lock only for the pointer copy.
//
// Replace assumes a single writer. The update scheduler is that
// writer; a second concurrent writer would race version numbers.
type Store struct {
	mu       sync.RWMutex
	current  *Snapshot
	renderer Renderer
}

// NewStore materializes the initial snapshot at version 0 and returns
// a store serving it. The first build is part of startup: if it fails
// the process has nothing to serve and should not come up.
func NewStore(ctx context.Context, g *graph.Graph, renderer Renderer) (*Store, error) {
	if g == nil {
		return nil, pkgerrors.NewValidationError("graph cannot be nil")
	}

	jsonBytes, err := g.JSON()
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to serialize graph").WithCause(err)
	}

	s := &Store{renderer: renderer}
	snap, err := s.materialize(ctx, g, jsonBytes, checksum(jsonBytes), 0)
	if err != nil {
		return nil, err
	}
	s.current = snap
	return s, nil
}

// Read returns the current snapshot
func (s *Store) Read() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Version returns the version of the current snapshot
func (s *Store) Version() uint64 {
	return s.Read().Version
}

// Replace publishes a freshly built graph. When the new graph is
// structurally identical to the current one, only LastCheck moves and
// the version stays put; rendered artifacts are reused. When it
// differs, Replace renders the new artifacts and bumps the version.
//
// On error the current snapshot stays untouched, LastCheck included,
// so the next scheduler pass retries immediately.
func (s *Store) Replace(ctx context.Context, g *graph.Graph) (uint64, bool, error) {
	if g == nil {
		return s.Version(), false, pkgerrors.NewValidationError("graph cannot be nil")
	}

	jsonBytes, err := g.JSON()
	if err != nil {
		return s.Version(), false, pkgerrors.NewInternalError("failed to serialize graph").WithCause(err)
	}
	sum := checksum(jsonBytes)

	prev := s.Read()
	if sum == prev.Checksum {
		next := *prev
		next.LastCheck = time.Now()
		s.swap(&next)
		return next.Version, false, nil
	}

	next, err := s.materialize(ctx, g, jsonBytes, sum, prev.Version+1)
	if err != nil {
		return prev.Version, false, err
	}
	s.swap(next)
	return next.Version, true, nil
}

// materialize renders the serialized forms and assembles a snapshot.
// jsonBytes and sum are precomputed by the caller, which needed them
// for the change check already.
func (s *Store) materialize(ctx context.Context, g *graph.Graph, jsonBytes []byte, sum string, version uint64) (*Snapshot, error) {
	dot := g.DOT()
	svg, err := s.renderer.Render(ctx, dot)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to render svg")
	}

	now := time.Now()
	return &Snapshot{
		Graph:     g,
		JSON:      jsonBytes,
		DOT:       dot,
		SVG:       svg,
		Checksum:  sum,
		Version:   version,
		BuiltAt:   now,
		LastCheck: now,
	}, nil
}

func (s *Store) swap(next *Snapshot) {
	s.mu.Lock()
	s.current = next
	s.mu.Unlock()
}

func checksum(jsonBytes []byte) string {
	hash := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(hash[:])
}
