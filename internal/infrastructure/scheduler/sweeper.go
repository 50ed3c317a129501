package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/Matfen2/daftlink-demo/internal/api/metrics"
	redisdb "github.com/Matfen2/daftlink-demo/internal/infrastructure/db/redis"
)

const sweepLockName = "chains:expiry-sweep"

// ExpirySweeper is the engine operation run on every tick.
type ExpirySweeper interface {
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
}

// Config controls the sweep cadence.
type Config struct {
	// Schedule is a cron spec or descriptor such as "@every 5m".
	Schedule string
	// LockTTL bounds how long one instance may hold the sweep lock.
	LockTTL time.Duration
}

// Sweeper periodically expires overdue chains. With a Locker, only one API
// instance sweeps per tick; without one, every instance sweeps.
type Sweeper struct {
	cron    *cron.Cron
	engine  ExpirySweeper
	locker  *redisdb.Locker
	lockTTL time.Duration
	log     zerolog.Logger
	now     func() time.Time

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// NewSweeper validates the schedule and prepares the cron runner. locker may be nil.
func NewSweeper(engine ExpirySweeper, locker *redisdb.Locker, cfg Config, log zerolog.Logger) (*Sweeper, error) {
	s := &Sweeper{
		engine:  engine,
		locker:  locker,
		lockTTL: cfg.LockTTL,
		log:     log,
		now:     time.Now,
		ctx:     context.Background(),
	}
	cl := cronLogger{log: log}
	s.cron = cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))

	if _, err := s.cron.AddFunc(cfg.Schedule, s.tick); err != nil {
		return nil, fmt.Errorf("sweeper: schedule %q: %w", cfg.Schedule, err)
	}
	return s, nil
}

// Start runs one sweep immediately and then follows the schedule until ctx
// is cancelled or Stop is called.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.tick()
	s.cron.Start()
	s.log.Info().Msg("expiry sweeper started")
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()
	s.log.Info().Msg("expiry sweeper stopped")
}

func (s *Sweeper) tick() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	if _, err := s.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
		s.log.Error().Err(err).Msg("expiry sweep failed")
	}
}

// RunOnce performs one sweep under the distributed lock. It reports the
// number of chains expired; a tick skipped because another instance holds
// the lock returns (0, nil).
func (s *Sweeper) RunOnce(ctx context.Context) (int64, error) {
	start := time.Now()
	defer func() { metrics.SweepDuration.Observe(time.Since(start).Seconds()) }()

	if s.locker != nil {
		lease, err := s.locker.TryAcquire(ctx, sweepLockName, s.lockTTL)
		if err != nil {
			metrics.SweepRunsTotal.WithLabelValues("error").Inc()
			return 0, err
		}
		if lease == nil {
			metrics.SweepRunsTotal.WithLabelValues("skipped").Inc()
			s.log.Debug().Msg("expiry sweep skipped, lock held elsewhere")
			return 0, nil
		}
		defer func() {
			if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
				s.log.Warn().Err(err).Msg("failed to release sweep lock")
			}
		}()
	}

	n, err := s.engine.SweepExpired(ctx, s.now())
	if err != nil {
		metrics.SweepRunsTotal.WithLabelValues("error").Inc()
		return 0, err
	}
	metrics.SweepRunsTotal.WithLabelValues("ok").Inc()
	metrics.ChainsExpiredTotal.Add(float64(n))
	return n, nil
}

// cronLogger routes cron's internal logging through zerolog.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
