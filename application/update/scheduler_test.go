package update

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"siostam-backend/domain/graph"
	"siostam-backend/domain/snapshot"
	"siostam-backend/pkg/observability"
)

type fakeProvider struct {
	mu    sync.Mutex
	calls int
	files []graph.SourceFile
	err   error
	gate  chan struct{}
}

func (p *fakeProvider) Load(context.Context) ([]graph.SourceFile, error) {
	p.mu.Lock()
	p.calls++
	files, err, gate := p.files, p.err, p.gate
	p.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return files, nil
}

func (p *fakeProvider) loadCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func (p *fakeProvider) set(files []graph.SourceFile, err error) {
	p.mu.Lock()
	p.files, p.err = files, err
	p.mu.Unlock()
}

type fakeConfig struct {
	gen      atomic.Uint64
	interval atomic.Int64
}

func newFakeConfig(interval time.Duration) *fakeConfig {
	c := &fakeConfig{}
	c.interval.Store(int64(interval))
	return c
}

func (c *fakeConfig) Generation() uint64             { return c.gen.Load() }
func (c *fakeConfig) RebuildInterval() time.Duration { return time.Duration(c.interval.Load()) }

type recordingNotifier struct {
	mu       sync.Mutex
	versions []uint64
}

func (n *recordingNotifier) NotifyVersion(version uint64) {
	n.mu.Lock()
	n.versions = append(n.versions, version)
	n.mu.Unlock()
}

func (n *recordingNotifier) observed() []uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]uint64(nil), n.versions...)
}

type nopRenderer struct{}

func (nopRenderer) Render(context.Context, string) ([]byte, error) {
	return []byte("<svg/>"), nil
}

func sourceFiles(ids ...string) []graph.SourceFile {
	decls := make([]graph.SubsystemDecl, 0, len(ids))
	for _, id := range ids {
		decls = append(decls, graph.SubsystemDecl{ID: id})
	}
	return []graph.SourceFile{{Subsystems: decls}}
}

func newTestScheduler(t *testing.T, provider *fakeProvider, config *fakeConfig, notifier *recordingNotifier) (*Scheduler, *snapshot.Store) {
	t.Helper()

	store, err := snapshot.NewStore(context.Background(), graph.Build(sourceFiles("seed")), nopRenderer{})
	require.NoError(t, err)

	scheduler := NewScheduler(store, provider, config, notifier,
		observability.NewCollector("test"), zap.NewNop(), time.Millisecond)
	return scheduler, store
}

func TestScheduler_TickSkipsWhileFresh(t *testing.T) {
	provider := &fakeProvider{files: sourceFiles("seed")}
	scheduler, _ := newTestScheduler(t, provider, newFakeConfig(time.Hour), &recordingNotifier{})

	assert.False(t, scheduler.Tick(context.Background()))
	assert.Equal(t, 0, provider.loadCalls())
}

func TestScheduler_ConfigChangeTriggersRebuild(t *testing.T) {
	provider := &fakeProvider{files: sourceFiles("seed", "extra")}
	config := newFakeConfig(time.Hour)
	notifier := &recordingNotifier{}
	scheduler, store := newTestScheduler(t, provider, config, notifier)

	config.gen.Add(1)

	require.True(t, scheduler.Tick(context.Background()))
	require.Eventually(t, func() bool { return len(notifier.observed()) == 1 },
		time.Second, time.Millisecond)
	assert.Equal(t, []uint64{1}, notifier.observed())
	assert.Equal(t, uint64(1), store.Version())

	// The generation is acknowledged, so nothing further is due.
	assert.False(t, scheduler.Tick(context.Background()))
	assert.Equal(t, 1, provider.loadCalls())
}

func TestScheduler_OverlappingTicksSkipNotQueue(t *testing.T) {
	gate := make(chan struct{})
	provider := &fakeProvider{files: sourceFiles("seed"), gate: gate}
	scheduler, _ := newTestScheduler(t, provider, newFakeConfig(0), &recordingNotifier{})

	require.True(t, scheduler.Tick(context.Background()))
	require.Eventually(t, func() bool { return provider.loadCalls() == 1 },
		time.Second, time.Millisecond)

	for i := 0; i < 5; i++ {
		assert.False(t, scheduler.Tick(context.Background()),
			"tick during a running rebuild must skip")
	}
	assert.Equal(t, 1, provider.loadCalls())

	close(gate)
}

func TestScheduler_UnchangedRebuildDoesNotNotify(t *testing.T) {
	provider := &fakeProvider{files: sourceFiles("seed")}
	notifier := &recordingNotifier{}
	scheduler, store := newTestScheduler(t, provider, newFakeConfig(0), notifier)
	before := store.Read().LastCheck

	require.True(t, scheduler.Tick(context.Background()))
	require.Eventually(t, func() bool { return store.Read().LastCheck.After(before) },
		time.Second, time.Millisecond)

	assert.Equal(t, uint64(0), store.Version())
	assert.Empty(t, notifier.observed())
}

func TestScheduler_FailedLoadKeepsSnapshotAndRetries(t *testing.T) {
	// Arrange: the first load fails
	provider := &fakeProvider{err: errors.New("clone failed")}
	notifier := &recordingNotifier{}
	scheduler, store := newTestScheduler(t, provider, newFakeConfig(0), notifier)
	before := store.Read()

	// Act
	require.True(t, scheduler.Tick(context.Background()))
	require.Eventually(t, func() bool { return provider.loadCalls() == 1 },
		time.Second, time.Millisecond)

	// Assert: nothing published, nothing announced
	assert.Same(t, before, store.Read())
	assert.Empty(t, notifier.observed())

	// Recovery: once the sources load again, the next free tick
	// publishes as usual.
	provider.set(sourceFiles("seed", "extra"), nil)
	require.Eventually(t, func() bool { return scheduler.Tick(context.Background()) },
		time.Second, time.Millisecond)
	require.Eventually(t, func() bool { return store.Version() == 1 },
		time.Second, time.Millisecond)
}

func TestScheduler_ConfigChangeNotAcknowledgedOnFailure(t *testing.T) {
	provider := &fakeProvider{err: errors.New("boom")}
	config := newFakeConfig(time.Hour)
	scheduler, _ := newTestScheduler(t, provider, config, &recordingNotifier{})

	config.gen.Add(1)

	require.True(t, scheduler.Tick(context.Background()))
	require.Eventually(t, func() bool { return provider.loadCalls() == 1 },
		time.Second, time.Millisecond)

	// The failed rebuild left the generation unacknowledged. Even with
	// the interval far away, the next free tick retries.
	assert.Eventually(t, func() bool { return scheduler.Tick(context.Background()) },
		time.Second, time.Millisecond)
}

func TestScheduler_RunStopsOnContextCancel(t *testing.T) {
	provider := &fakeProvider{files: sourceFiles("seed")}
	scheduler, _ := newTestScheduler(t, provider, newFakeConfig(time.Hour), &recordingNotifier{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- scheduler.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
