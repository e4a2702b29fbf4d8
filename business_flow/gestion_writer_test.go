package businessflow

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turnixpro/turnix/config"
)

// scriptedRowStore is an in-memory id column whose reads and appends can be steered per call
type scriptedRowStore struct {
	mu sync.Mutex

	column []string
	rows   [][]string

	reads   int
	appends int

	// beforeRead runs with the lock held before read number n (1-based) is served
	beforeRead func(n int, s *scriptedRowStore)
	// dropAppend makes append number n (1-based) acknowledge without persisting
	dropAppend map[int]bool

	readErr   error
	appendErr error
}

func newScriptedRowStore(ids ...string) *scriptedRowStore {
	return &scriptedRowStore{column: append([]string{"ID"}, ids...)}
}

func (s *scriptedRowStore) ReadIDColumn(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.readErr != nil {
		return nil, s.readErr
	}
	if s.beforeRead != nil {
		s.beforeRead(s.reads, s)
	}
	out := make([]string, len(s.column))
	copy(out, s.column)
	return out, nil
}

func (s *scriptedRowStore) AppendRow(ctx context.Context, row []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appends++
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.appendErr != nil {
		return s.appendErr
	}
	if s.dropAppend[s.appends] {
		return nil
	}
	s.column = append(s.column, row[0])
	s.rows = append(s.rows, row)
	return nil
}

type sleepRecorder struct {
	delays []time.Duration
	err    error
}

func (r *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return r.err
}

func testAllocationConfig() config.AllocationConfig {
	return config.AllocationConfig{
		Attempts:         3,
		CollisionDelay:   150 * time.Millisecond,
		UnconfirmedDelay: 200 * time.Millisecond,
		Timeout:          5 * time.Second,
	}
}

func newTestWriter(store GestionRowStore, cfg config.AllocationConfig) (*GestionWriterImpl, *sleepRecorder) {
	rec := &sleepRecorder{}
	w := NewGestionWriter(store, cfg, log.New(io.Discard, "", 0)).(*GestionWriterImpl)
	w.sleep = rec.sleep
	return w, rec
}

func rowFor(id string) []string {
	return []string{id, "Ana", "Lopez", "F", "", "", "", "", "", "Pendiente", "2026-01-01T08:00:00-06:00", ""}
}

func TestGestionWriter_FirstAttemptConfirmed(t *testing.T) {
	store := newScriptedRowStore()
	w, rec := newTestWriter(store, testAllocationConfig())

	id, err := w.Write(context.Background(), rowFor)
	require.NoError(t, err)

	assert.Equal(t, "A001", id)
	assert.Empty(t, rec.delays)
	assert.Equal(t, 1, store.appends)
	assert.Equal(t, 3, store.reads) // read, probe, re-probe
	require.Len(t, store.rows, 1)
	assert.Equal(t, "A001", store.rows[0][0])
}

func TestGestionWriter_SuccessorOfExistingMax(t *testing.T) {
	store := newScriptedRowStore("A001", "A002", "B001")
	w, _ := newTestWriter(store, testAllocationConfig())

	id, err := w.Write(context.Background(), rowFor)
	require.NoError(t, err)
	assert.Equal(t, "B002", id)
}

func TestGestionWriter_NormalizesColumnBeforeAllocating(t *testing.T) {
	store := newScriptedRowStore(" a010 ", "A003")
	w, _ := newTestWriter(store, testAllocationConfig())

	id, err := w.Write(context.Background(), rowFor)
	require.NoError(t, err)
	assert.Equal(t, "A011", id)
}

func TestGestionWriter_CollisionRetriesWithNextCandidate(t *testing.T) {
	store := newScriptedRowStore()
	// another writer lands A001 between our read and our probe
	store.beforeRead = func(n int, s *scriptedRowStore) {
		if n == 2 {
			s.column = append(s.column, "A001")
		}
	}
	w, rec := newTestWriter(store, testAllocationConfig())

	id, err := w.Write(context.Background(), rowFor)
	require.NoError(t, err)

	assert.Equal(t, "A002", id)
	assert.Equal(t, []time.Duration{150 * time.Millisecond}, rec.delays)
	assert.Equal(t, 1, store.appends)
}

func TestGestionWriter_UnconfirmedAppendsAreRetried(t *testing.T) {
	store := newScriptedRowStore()
	store.dropAppend = map[int]bool{1: true, 2: true}
	w, rec := newTestWriter(store, testAllocationConfig())

	id, err := w.Write(context.Background(), rowFor)
	require.NoError(t, err)

	assert.Equal(t, "A001", id)
	assert.Equal(t, []time.Duration{200 * time.Millisecond, 200 * time.Millisecond}, rec.delays)
	assert.Equal(t, 3, store.appends)
	assert.Len(t, store.rows, 1)
}

func TestGestionWriter_DroppedAppendWhileOthersAdvance(t *testing.T) {
	store := newScriptedRowStore()
	store.dropAppend = map[int]bool{1: true, 2: true}
	// other writers confirm A001 and A002 while our first two appends vanish
	store.beforeRead = func(n int, s *scriptedRowStore) {
		switch n {
		case 4:
			s.column = append(s.column, "A001")
		case 7:
			s.column = append(s.column, "A002")
		}
	}
	w, rec := newTestWriter(store, testAllocationConfig())

	id, err := w.Write(context.Background(), rowFor)
	require.NoError(t, err)

	assert.Equal(t, "A003", id)
	assert.Equal(t, []time.Duration{200 * time.Millisecond, 200 * time.Millisecond}, rec.delays)
	assert.Equal(t, 3, store.appends)
	require.Len(t, store.rows, 1)
	assert.Equal(t, "A003", store.rows[0][0])
}

func TestGestionWriter_ExhaustsBudgetOnPersistentCollisions(t *testing.T) {
	store := newScriptedRowStore()
	// every probe finds the candidate already claimed
	store.beforeRead = func(n int, s *scriptedRowStore) {
		if n%2 == 0 {
			next, err := NextGestionID(s.column)
			require.NoError(t, err)
			s.column = append(s.column, next)
		}
	}
	w, rec := newTestWriter(store, testAllocationConfig())

	id, err := w.Write(context.Background(), rowFor)
	require.Error(t, err)

	assert.Empty(t, id)
	assert.True(t, IsAllocationConflict(err))
	assert.True(t, IsRetryable(err))
	assert.Equal(t, CodeAllocationConflict, ErrorCode(err))
	assert.Equal(t, 0, store.appends)
	assert.Equal(t, 6, store.reads)
	// no pause after the final attempt
	assert.Equal(t, []time.Duration{150 * time.Millisecond, 150 * time.Millisecond}, rec.delays)
}

func TestGestionWriter_ExhaustsBudgetOnUnconfirmedAppends(t *testing.T) {
	store := newScriptedRowStore()
	store.dropAppend = map[int]bool{1: true, 2: true, 3: true}
	w, rec := newTestWriter(store, testAllocationConfig())

	_, err := w.Write(context.Background(), rowFor)
	require.Error(t, err)

	assert.True(t, IsAllocationConflict(err))
	assert.Equal(t, 3, store.appends)
	assert.Len(t, rec.delays, 2)
}

func TestGestionWriter_ReadErrorPropagatesImmediately(t *testing.T) {
	store := newScriptedRowStore()
	store.readErr = errors.New("quota exceeded")
	w, rec := newTestWriter(store, testAllocationConfig())

	_, err := w.Write(context.Background(), rowFor)
	require.Error(t, err)

	assert.True(t, IsBackingStoreError(err))
	assert.Equal(t, CodeBackingStore, ErrorCode(err))
	assert.ErrorIs(t, err, store.readErr)
	assert.Equal(t, 1, store.reads)
	assert.Equal(t, 0, store.appends)
	assert.Empty(t, rec.delays)
}

func TestGestionWriter_AppendErrorPropagatesImmediately(t *testing.T) {
	store := newScriptedRowStore("A001")
	store.appendErr = errors.New("permission denied")
	w, rec := newTestWriter(store, testAllocationConfig())

	_, err := w.Write(context.Background(), rowFor)
	require.Error(t, err)

	assert.True(t, IsBackingStoreError(err))
	assert.False(t, IsAllocationConflict(err))
	assert.Equal(t, 1, store.appends)
	assert.Equal(t, 2, store.reads)
	assert.Empty(t, rec.delays)
}

func TestGestionWriter_AllocatesLastIDThenReportsExhaustion(t *testing.T) {
	ids := make([]string, 0, maxGestionIndex)
	for i := 0; i < maxGestionIndex; i++ {
		id, err := GestionIDFromIndex(i)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	store := newScriptedRowStore(ids...)
	w, _ := newTestWriter(store, testAllocationConfig())

	id, err := w.Write(context.Background(), rowFor)
	require.NoError(t, err)
	assert.Equal(t, "Z999", id)

	appendsBefore := store.appends
	_, err = w.Write(context.Background(), rowFor)
	require.Error(t, err)
	assert.True(t, IsSpaceExhausted(err))
	assert.False(t, IsRetryable(err))
	assert.Equal(t, CodeSpaceExhausted, ErrorCode(err))
	assert.Equal(t, appendsBefore, store.appends)
}

func TestGestionWriter_CancelledContextIsTimeout(t *testing.T) {
	store := newScriptedRowStore()
	w, _ := newTestWriter(store, testAllocationConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := w.Write(ctx, rowFor)
	require.Error(t, err)
	assert.True(t, IsAllocationTimeout(err))
	assert.False(t, IsBackingStoreError(err))
	assert.Equal(t, 0, store.appends)
}

func TestGestionWriter_DeadlineDuringPause(t *testing.T) {
	store := newScriptedRowStore()
	store.dropAppend = map[int]bool{1: true}
	w, rec := newTestWriter(store, testAllocationConfig())
	rec.err = context.DeadlineExceeded

	_, err := w.Write(context.Background(), rowFor)
	require.Error(t, err)
	assert.True(t, IsAllocationTimeout(err))
	assert.Equal(t, CodeAllocationTimeout, ErrorCode(err))
	assert.Equal(t, 1, store.appends)
}

func TestGestionWriter_SequentialWritesAreDense(t *testing.T) {
	store := newScriptedRowStore()
	w, _ := newTestWriter(store, testAllocationConfig())

	for i := 0; i < 50; i++ {
		id, err := w.Write(context.Background(), rowFor)
		require.NoError(t, err)
		want, err := GestionIDFromIndex(i)
		require.NoError(t, err)
		require.Equal(t, want, id)
	}
	assert.Len(t, store.rows, 50)
}

func TestGestionWriter_ZeroAttemptsStillTriesOnce(t *testing.T) {
	store := newScriptedRowStore()
	cfg := testAllocationConfig()
	cfg.Attempts = 0
	w, _ := newTestWriter(store, cfg)

	id, err := w.Write(context.Background(), rowFor)
	require.NoError(t, err)
	assert.Equal(t, "A001", id)
}

func TestSleepContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
	assert.NoError(t, sleepContext(context.Background(), time.Millisecond))
	assert.NoError(t, sleepContext(context.Background(), 0))
}
