package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/walkable-stations/internal/domain"
	"github.com/couchcryptid/walkable-stations/internal/observability"
	"github.com/couchcryptid/walkable-stations/internal/pipeline"
	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBatchSize = 10

// --- mocks ---

type mockExtractor struct {
	batches [][]domain.RawEvent
	index   atomic.Int64
	err     error
}

func (m *mockExtractor) ExtractBatch(ctx context.Context, _ int) ([]domain.RawEvent, error) {
	if m.err != nil {
		return nil, m.err
	}
	i := int(m.index.Add(1) - 1)
	if i >= len(m.batches) {
		// block until context cancelled to simulate waiting for messages
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return m.batches[i], nil
}

type mockTransformer struct {
	err error
}

func (m *mockTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.LookupResponse, error) {
	if m.err != nil {
		return domain.LookupResponse{}, m.err
	}
	return domain.LookupResponse{RequestID: string(raw.Key), Status: domain.StatusOK}, nil
}

type mockLoader struct {
	mu     sync.Mutex
	loaded []domain.LookupResponse
	err    error
}

func (m *mockLoader) LoadBatch(_ context.Context, responses []domain.LookupResponse) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.loaded = append(m.loaded, responses...)
	return nil
}

type mockFinder struct {
	lookup domain.Lookup
	err    error
	calls  []string
	bounds [][2]int
}

func (m *mockFinder) Lookup(_ context.Context, address string, maxWalkMin, maxCandidates int) (domain.Lookup, error) {
	m.calls = append(m.calls, address)
	m.bounds = append(m.bounds, [2]int{maxWalkMin, maxCandidates})
	return m.lookup, m.err
}

func newTestMetrics() *observability.Metrics {
	// Use a fresh registry to avoid "already registered" panics in tests.
	return observability.NewMetricsForTesting()
}

// --- pipeline tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	raw := makeRequest(t, "req-1", "仙台市青葉区中央")

	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	ldr := &mockLoader{}
	metrics := newTestMetrics()

	p := pipeline.New(ext, &mockTransformer{}, ldr, slog.Default(), metrics, testBatchSize, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := p.Run(ctx)
	require.NoError(t, err)
	require.Len(t, ldr.loaded, 1)
	assert.Equal(t, "req-1", ldr.loaded[0].RequestID)
	assert.True(t, p.Ready())
	require.NoError(t, p.CheckReadiness(ctx))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.MessagesConsumed))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.MessagesProduced))
	assert.Zero(t, testutil.ToFloat64(metrics.PipelineRunning))
}

// slowTransformer answers later messages faster and records peak parallelism.
type slowTransformer struct {
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (s *slowTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.LookupResponse, error) {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(time.Duration(10-raw.Offset) * 5 * time.Millisecond)
	return domain.LookupResponse{RequestID: string(raw.Key), Status: domain.StatusOK}, nil
}

func TestPipeline_Run_ConcurrentLookupsKeepOrder(t *testing.T) {
	batch := make([]domain.RawEvent, 8)
	for i := range batch {
		batch[i] = makeRequest(t, fmt.Sprintf("req-%d", i), "仙台市")
		batch[i].Offset = int64(i)
	}

	ext := &mockExtractor{batches: [][]domain.RawEvent{batch}}
	ldr := &mockLoader{}
	tfm := &slowTransformer{}

	p := pipeline.New(ext, tfm, ldr, slog.Default(), newTestMetrics(), testBatchSize, 3)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	require.Len(t, ldr.loaded, len(batch))
	for i, resp := range ldr.loaded {
		assert.Equal(t, fmt.Sprintf("req-%d", i), resp.RequestID)
	}
	assert.LessOrEqual(t, tfm.peak.Load(), int32(3))
	assert.Greater(t, tfm.peak.Load(), int32(1))
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	ext := &mockExtractor{} // no batches, will block
	ldr := &mockLoader{}

	p := pipeline.New(ext, &mockTransformer{}, ldr, slog.Default(), newTestMetrics(), testBatchSize, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	err := p.Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, ldr.loaded)
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_TransformErrorSkipsAndCommits(t *testing.T) {
	var commits atomic.Int32
	raw := makeRequest(t, "req-2", "仙台市")
	raw.Commit = func(context.Context) error {
		commits.Add(1)
		return nil
	}

	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	ldr := &mockLoader{}
	metrics := newTestMetrics()

	p := pipeline.New(ext, &mockTransformer{err: errors.New("bad data")}, ldr, slog.Default(), metrics, testBatchSize, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := p.Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, ldr.loaded)
	assert.False(t, p.Ready())
	assert.Equal(t, int32(1), commits.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.TransformErrors))
}

func TestPipeline_Run_CommitsAfterLoad(t *testing.T) {
	var commits atomic.Int32
	batch := make([]domain.RawEvent, 0, 3)
	for i := range 3 {
		raw := makeRequest(t, fmt.Sprintf("req-%d", i), "仙台市")
		raw.Topic = "station-lookup-requests"
		raw.Commit = func(context.Context) error {
			commits.Add(1)
			return nil
		}
		batch = append(batch, raw)
	}

	ext := &mockExtractor{batches: [][]domain.RawEvent{batch}}
	ldr := &mockLoader{}

	p := pipeline.New(ext, &mockTransformer{}, ldr, slog.Default(), newTestMetrics(), testBatchSize, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	assert.Len(t, ldr.loaded, 3)
	assert.Equal(t, int32(3), commits.Load())
}

func TestPipeline_Run_LoadFailureDoesNotCommit(t *testing.T) {
	var commits atomic.Int32
	raw := makeRequest(t, "req-3", "仙台市")
	raw.Commit = func(context.Context) error {
		commits.Add(1)
		return nil
	}

	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	ldr := &mockLoader{err: errors.New("broker down")}

	p := pipeline.New(ext, &mockTransformer{}, ldr, slog.Default(), newTestMetrics(), testBatchSize, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	assert.Zero(t, commits.Load())
	assert.False(t, p.Ready())
}

func TestPipeline_Run_ExtractErrorBacksOff(t *testing.T) {
	ext := &mockExtractor{err: errors.New("coordinator not available")}
	ldr := &mockLoader{}

	p := pipeline.New(ext, &mockTransformer{}, ldr, slog.Default(), newTestMetrics(), testBatchSize, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	assert.Empty(t, ldr.loaded)
}

// --- transformer tests ---

func TestLookupTransformer_Success(t *testing.T) {
	fakeClock := clockwork.NewFakeClockAt(time.Date(2024, time.April, 26, 15, 10, 0, 0, time.UTC))
	domain.SetClock(fakeClock)
	t.Cleanup(func() {
		domain.SetClock(nil)
	})

	finder := &mockFinder{lookup: domain.Lookup{
		Origin: domain.Coordinate{X: 140.882438, Y: 38.26092},
		Stations: []domain.StationResult{
			{StationName: "広瀬通", Prefecture: "宮城県", Lines: []string{"仙台市地下鉄南北線"}, WalkMinutes: 3, DistanceM: 210},
		},
	}}
	metrics := newTestMetrics()
	tfm := pipeline.NewTransformer(finder, domain.DefaultBounds(), slog.Default(), metrics)

	raw := domain.RawEvent{Key: []byte("req-9"), Value: []byte(`{"address":"〒９８０ー００２１　仙台市青葉区中央","max_walk_min":10}`)}
	resp, err := tfm.Transform(context.Background(), raw)
	require.NoError(t, err)

	expected := domain.LookupResponse{
		RequestID:     "req-9",
		Address:       "〒980-0021 仙台市青葉区中央",
		MaxWalkMin:    10,
		MaxCandidates: 3,
		Status:        domain.StatusOK,
		Origin:        &domain.Coordinate{X: 140.882438, Y: 38.26092},
		Stations:      finder.lookup.Stations,
		ProcessedAt:   fakeClock.Now(),
	}
	if diff := cmp.Diff(expected, resp); diff != "" {
		t.Fatalf("response mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"〒980-0021 仙台市青葉区中央"}, finder.calls)
	assert.Equal(t, [][2]int{{10, 3}}, finder.bounds)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Lookups.WithLabelValues("kafka", "ok")))
}

func TestLookupTransformer_LookupFailureIsAResponse(t *testing.T) {
	finder := &mockFinder{err: fmt.Errorf("%w: nothing matched", domain.ErrGeocodeFailure)}
	metrics := newTestMetrics()
	tfm := pipeline.NewTransformer(finder, domain.DefaultBounds(), slog.Default(), metrics)

	resp, err := tfm.Transform(context.Background(), makeRequest(t, "req-4", "どこか"))
	require.NoError(t, err)

	assert.Equal(t, domain.StatusFailed, resp.Status)
	assert.Equal(t, "geocode_failure", resp.ErrorKind)
	assert.Nil(t, resp.Origin)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Lookups.WithLabelValues("kafka", "geocode_failure")))
}

func TestLookupTransformer_MalformedRequest(t *testing.T) {
	finder := &mockFinder{}
	tfm := pipeline.NewTransformer(finder, domain.DefaultBounds(), slog.Default(), newTestMetrics())

	_, err := tfm.Transform(context.Background(), domain.RawEvent{Value: []byte("not json")})
	require.Error(t, err)
	assert.Empty(t, finder.calls)
}

// --- helpers ---

func makeRequest(t *testing.T, id, address string) domain.RawEvent {
	t.Helper()
	data, err := json.Marshal(domain.LookupRequest{ID: id, Address: address})
	require.NoError(t, err)
	return domain.RawEvent{
		Key:   []byte(id),
		Value: data,
	}
}
