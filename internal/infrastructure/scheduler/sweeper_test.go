package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisdb "github.com/Matfen2/daftlink-demo/internal/infrastructure/db/redis"
)

type stubEngine struct {
	mu    sync.Mutex
	calls []time.Time
	n     int64
	err   error
}

func (e *stubEngine) SweepExpired(_ context.Context, now time.Time) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, now)
	return e.n, e.err
}

func (e *stubEngine) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.calls)
}

func newTestLocker(t *testing.T) (*redisdb.Locker, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := redisdb.Connect(context.Background(), redisdb.Config{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return redisdb.NewLocker(client), mr
}

var testCfg = Config{Schedule: "@every 1h", LockTTL: time.Minute}

func TestNewSweeper_RejectsBadSchedule(t *testing.T) {
	_, err := NewSweeper(&stubEngine{}, nil, Config{Schedule: "every now and then"}, zerolog.Nop())
	assert.Error(t, err)
}

func TestSweeper_RunOnce_PassesClock(t *testing.T) {
	engine := &stubEngine{n: 3}
	s, err := NewSweeper(engine, nil, testCfg, zerolog.Nop())
	require.NoError(t, err)

	fixed := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	n, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	require.Len(t, engine.calls, 1)
	assert.Equal(t, fixed, engine.calls[0])
}

func TestSweeper_RunOnce_PropagatesError(t *testing.T) {
	engine := &stubEngine{err: errors.New("mongo down")}
	s, err := NewSweeper(engine, nil, testCfg, zerolog.Nop())
	require.NoError(t, err)

	_, err = s.RunOnce(context.Background())
	assert.EqualError(t, err, "mongo down")
}

func TestSweeper_RunOnce_SkipsWhenLockHeld(t *testing.T) {
	locker, mr := newTestLocker(t)
	engine := &stubEngine{n: 1}
	s, err := NewSweeper(engine, locker, testCfg, zerolog.Nop())
	require.NoError(t, err)

	held, err := locker.TryAcquire(context.Background(), sweepLockName, time.Minute)
	require.NoError(t, err)
	require.NotNil(t, held)

	n, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, engine.callCount())

	require.NoError(t, held.Release(context.Background()))

	n, err = s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 1, engine.callCount())
	assert.False(t, mr.Exists("lock:"+sweepLockName), "lock released after the sweep")
}

func TestSweeper_StartSweepsImmediately(t *testing.T) {
	engine := &stubEngine{}
	s, err := NewSweeper(engine, nil, testCfg, zerolog.Nop())
	require.NoError(t, err)

	s.Start(context.Background())
	s.Stop()

	assert.Equal(t, 1, engine.callCount())
}
