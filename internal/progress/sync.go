package progress

import (
	"context"
	"fmt"
	"sync"
	"time"

	"academy/internal/telemetry"
)

type Op string

const (
	OpUpsert Op = "upsert"
	OpDelete Op = "delete"
)

// Job is one remote write. Jobs run one at a time in enqueue order.
type Job struct {
	Op     Op
	UserID string
	Record Record

	barrier chan struct{}
}

// SyncPolicy bounds remote writes. A job is attempted 1+Retries times and
// then dropped with an error log.
type SyncPolicy struct {
	Retries   int
	Backoff   time.Duration
	Timeout   time.Duration
	QueueSize int
}

func DefaultSyncPolicy() SyncPolicy {
	return SyncPolicy{
		Retries:   0,
		Backoff:   500 * time.Millisecond,
		Timeout:   10 * time.Second,
		QueueSize: 64,
	}
}

type SyncStatus struct {
	LastSynced time.Time
	LastError  string
	Dropped    int
	Pending    int
}

// Syncer owns every write to the remote progress table.
type Syncer struct {
	remote Remote
	logger *telemetry.Logger
	policy SyncPolicy

	queue   chan Job
	quit    chan struct{}
	stopped chan struct{}

	mu      sync.Mutex
	started bool
	closed  bool
	status  SyncStatus
}

func NewSyncer(remote Remote, logger *telemetry.Logger, policy SyncPolicy) *Syncer {
	def := DefaultSyncPolicy()
	if policy.Retries < 0 {
		policy.Retries = 0
	}
	if policy.Backoff <= 0 {
		policy.Backoff = def.Backoff
	}
	if policy.Timeout <= 0 {
		policy.Timeout = def.Timeout
	}
	if policy.QueueSize <= 0 {
		policy.QueueSize = def.QueueSize
	}
	return &Syncer{
		remote:  remote,
		logger:  logger,
		policy:  policy,
		queue:   make(chan Job, policy.QueueSize),
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Start launches the worker. It returns once; later calls are no-ops.
func (s *Syncer) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.closed {
		return
	}
	s.started = true
	go s.loop(ctx)
}

// Enqueue hands a job to the worker without blocking. It reports false when
// the job was dropped because the queue is full or the syncer is closed.
func (s *Syncer) Enqueue(job Job) bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	select {
	case s.queue <- job:
		s.status.Pending++
		s.mu.Unlock()
		return true
	default:
		s.status.Dropped++
		s.mu.Unlock()
		s.logger.Error("progress.sync_queue_full", map[string]any{"op": string(job.Op), "user": job.UserID})
		return false
	}
}

// Flush waits until every job enqueued before the call has been handled.
func (s *Syncer) Flush(ctx context.Context) error {
	if s == nil {
		return nil
	}
	barrier := make(chan struct{})
	select {
	case s.queue <- Job{barrier: barrier}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-barrier:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting jobs, drains the queue and waits for the worker.
func (s *Syncer) Close() {
	if s == nil {
		return
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	started := s.started
	close(s.quit)
	s.mu.Unlock()
	if started {
		<-s.stopped
	}
}

func (s *Syncer) Status() SyncStatus {
	if s == nil {
		return SyncStatus{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Syncer) loop(ctx context.Context) {
	defer close(s.stopped)
	for {
		select {
		case job := <-s.queue:
			s.handle(ctx, job)
		case <-s.quit:
			for {
				select {
				case job := <-s.queue:
					s.handle(ctx, job)
				default:
					return
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

func (s *Syncer) handle(ctx context.Context, job Job) {
	if job.barrier != nil {
		close(job.barrier)
		return
	}
	defer func() {
		s.mu.Lock()
		s.status.Pending--
		s.mu.Unlock()
	}()

	var err error
	for attempt := 0; attempt <= s.policy.Retries; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(s.policy.Backoff)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				s.drop(job, ctx.Err())
				return
			}
		}
		callCtx, cancel := context.WithTimeout(ctx, s.policy.Timeout)
		err = s.apply(callCtx, job)
		cancel()
		if err == nil {
			s.mu.Lock()
			s.status.LastSynced = time.Now()
			s.status.LastError = ""
			s.mu.Unlock()
			s.logger.Debug("progress.sync_ok", map[string]any{"op": string(job.Op), "user": job.UserID})
			return
		}
		s.logger.Warn("progress.sync_attempt_failed", map[string]any{
			"op":      string(job.Op),
			"user":    job.UserID,
			"attempt": attempt + 1,
			"error":   err.Error(),
		})
	}
	s.drop(job, err)
}

func (s *Syncer) drop(job Job, err error) {
	s.mu.Lock()
	s.status.Dropped++
	if err != nil {
		s.status.LastError = err.Error()
	}
	s.mu.Unlock()
	fields := map[string]any{"op": string(job.Op), "user": job.UserID}
	if err != nil {
		fields["error"] = err.Error()
	}
	s.logger.Error("progress.sync_dropped", fields)
}

func (s *Syncer) apply(ctx context.Context, job Job) error {
	switch job.Op {
	case OpUpsert:
		return s.remote.Upsert(ctx, job.UserID, job.Record)
	case OpDelete:
		return s.remote.Delete(ctx, job.UserID)
	default:
		return fmt.Errorf("unknown sync op %q", job.Op)
	}
}
