// Package notify delivers order confirmations outside the request path.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/sdk/zctx"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/order"
)

var _ order.Scheduler = (*Scheduler)(nil)

type pendingJob struct {
	name  string
	timer *time.Timer
	job   order.Job
}

// Scheduler runs jobs on timers. Failures are logged and not retried.
// Close runs every job still waiting, so a shutdown does not drop work.
type Scheduler struct {
	lg      *zap.Logger
	timeout time.Duration

	mu      sync.Mutex
	pending map[string]*pendingJob
	closed  bool
	wg      sync.WaitGroup
}

// NewScheduler creates a Scheduler. Each job gets timeout to finish.
func NewScheduler(lg *zap.Logger, timeout time.Duration) *Scheduler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Scheduler{
		lg:      lg,
		timeout: timeout,
		pending: make(map[string]*pendingJob),
	}
}

// Schedule runs job after delay. It never blocks. After Close the job runs
// immediately.
func (s *Scheduler) Schedule(name string, delay time.Duration, job order.Job) {
	id := ulid.Make().String()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.wg.Add(1)
	if s.closed {
		go s.run(id, name, job)
		return
	}
	p := &pendingJob{name: name, job: job}
	p.timer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		_, ok := s.pending[id]
		delete(s.pending, id)
		s.mu.Unlock()
		if ok {
			s.run(id, name, job)
		}
	})
	s.pending[id] = p
	s.lg.Debug("Job scheduled",
		zap.String("job_id", id),
		zap.String("job", name),
		zap.Duration("delay", delay),
	)
}

func (s *Scheduler) run(id, name string, job order.Job) {
	defer s.wg.Done()
	lg := s.lg.With(zap.String("job_id", id), zap.String("job", name))
	defer func() {
		if r := recover(); r != nil {
			lg.Error("Job panicked", zap.Any("panic", r), zap.Stack("stack"))
		}
	}()

	ctx, cancel := context.WithTimeout(zctx.Base(context.Background(), lg), s.timeout)
	defer cancel()

	start := time.Now()
	if err := job(ctx); err != nil {
		lg.Error("Job failed", zap.Error(err), zap.Duration("duration", time.Since(start)))
		return
	}
	lg.Info("Job done", zap.Duration("duration", time.Since(start)))
}

// Pending returns the number of jobs waiting for their timer.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Close fires all waiting jobs and waits until every job finished or ctx is
// done.
func (s *Scheduler) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	for id, p := range s.pending {
		// A timer that already fired is left to its own callback.
		if p.timer.Stop() {
			delete(s.pending, id)
			go s.run(id, p.name, p.job)
		}
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
