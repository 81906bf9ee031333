package task

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/limaJavier/allocation/pkg/allocation"
	"github.com/limaJavier/allocation/pkg/model"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

func (status Status) Terminal() bool {
	return status == StatusCompleted || status == StatusFailed || status == StatusCancelled
}

var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrTaskFinished    = errors.New("task already finished")
	ErrTaskNotFinished = errors.New("task not finished")
)

// Snapshot is a point-in-time copy of a task
type Snapshot struct {
	Id          uuid.UUID           `json:"id"`
	Algorithm   string              `json:"algorithm"`
	Status      Status              `json:"status"`
	Progress    allocation.Progress `json:"progress"`
	Error       string              `json:"error,omitempty"`
	SubmittedAt time.Time           `json:"submittedAt"`
	StartedAt   time.Time           `json:"startedAt,omitzero"`
	FinishedAt  time.Time           `json:"finishedAt,omitzero"`
}

type task struct {
	mu       sync.Mutex
	snapshot Snapshot
	outcomes []model.AllocationOutcome
	cancel   context.CancelFunc
	done     chan struct{}
}

func (t *task) read() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshot
}

func (t *task) update(apply func(snapshot *Snapshot)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	apply(&t.snapshot)
}

// Manager runs allocations on background goroutines and tracks them by id
type Manager struct {
	logger        *zap.Logger
	metrics       *Metrics
	progressRate  rate.Limit
	progressBurst int

	mu    sync.RWMutex
	tasks map[uuid.UUID]*task
	order []uuid.UUID
	wg    sync.WaitGroup
}

type ManagerOption func(*Manager)

// WithProgressRate limits progress log lines per task; the snapshot is updated on every report regardless
func WithProgressRate(perSecond float64, burst int) ManagerOption {
	return func(manager *Manager) {
		manager.progressRate = rate.Limit(perSecond)
		manager.progressBurst = burst
	}
}

// NewManager accepts a nil logger or nil metrics
func NewManager(logger *zap.Logger, metrics *Metrics, opts ...ManagerOption) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}

	manager := &Manager{
		logger:        logger,
		metrics:       metrics,
		progressRate:  rate.Limit(2),
		progressBurst: 1,
		tasks:         make(map[uuid.UUID]*task),
	}
	for _, opt := range opts {
		opt(manager)
	}
	return manager
}

// Submit registers a pending task and starts it. Cancelling ctx cancels the task as well.
func (manager *Manager) Submit(ctx context.Context, allocator allocation.Allocator, modelInput model.ModelInput) (uuid.UUID, error) {
	if allocator == nil {
		return uuid.Nil, errors.New("allocator cannot be nil")
	}

	id := uuid.New()
	taskCtx, cancel := context.WithCancel(ctx)
	t := &task{
		snapshot: Snapshot{
			Id:          id,
			Algorithm:   allocator.Metadata().Id,
			Status:      StatusPending,
			Progress:    allocation.Progress{Total: len(modelInput.Residents)},
			SubmittedAt: time.Now(),
		},
		cancel: cancel,
		done:   make(chan struct{}),
	}

	manager.mu.Lock()
	manager.tasks[id] = t
	manager.order = append(manager.order, id)
	manager.mu.Unlock()

	manager.logger.Info("task submitted",
		zap.Stringer("task_id", id),
		zap.String("algorithm", allocator.Metadata().Id),
		zap.Int("residents", len(modelInput.Residents)),
	)

	manager.wg.Add(1)
	go manager.run(taskCtx, t, allocator, modelInput)

	return id, nil
}

func (manager *Manager) run(ctx context.Context, t *task, allocator allocation.Allocator, modelInput model.ModelInput) {
	defer manager.wg.Done()
	defer close(t.done)
	defer t.cancel()

	snapshot := t.read()
	logger := manager.logger.With(zap.Stringer("task_id", snapshot.Id), zap.String("algorithm", snapshot.Algorithm))

	if ctx.Err() != nil {
		manager.finish(logger, t, nil, ctx.Err(), 0)
		return
	}

	t.update(func(snapshot *Snapshot) {
		snapshot.Status = StatusRunning
		snapshot.StartedAt = time.Now()
	})
	logger.Info("task running")

	manager.metrics.TasksRunning.Inc()
	defer manager.metrics.TasksRunning.Dec()

	limiter := rate.NewLimiter(manager.progressRate, manager.progressBurst)
	sink := func(progress allocation.Progress) {
		t.update(func(snapshot *Snapshot) { snapshot.Progress = progress })
		if limiter.Allow() {
			logger.Info("task progress",
				zap.Int("processed", progress.Processed),
				zap.Int("total", progress.Total),
				zap.Int("succeeded", progress.Succeeded),
				zap.Int("failed", progress.Failed),
				zap.String("message", progress.Message),
			)
		}
	}

	start := time.Now()
	outcomes, err := allocator.Allocate(ctx, modelInput, sink)
	manager.finish(logger, t, outcomes, err, time.Since(start))
}

// finish maps the run result onto a terminal status: cancellation keeps partial outcomes, any other
// error discards them
func (manager *Manager) finish(logger *zap.Logger, t *task, outcomes []model.AllocationOutcome, err error, duration time.Duration) {
	status := StatusCompleted
	switch {
	case err == nil:
	case allocation.IsCancellation(err):
		status = StatusCancelled
	default:
		status = StatusFailed
		outcomes = nil
	}

	succeeded := lo.CountBy(outcomes, func(outcome model.AllocationOutcome) bool { return outcome.Success })
	failed := len(outcomes) - succeeded

	t.mu.Lock()
	t.outcomes = outcomes
	t.snapshot.Status = status
	t.snapshot.FinishedAt = time.Now()
	if status == StatusFailed {
		t.snapshot.Error = err.Error()
	} else {
		t.snapshot.Progress.Processed = len(outcomes)
		t.snapshot.Progress.Succeeded = succeeded
		t.snapshot.Progress.Failed = failed
	}
	algorithm := t.snapshot.Algorithm
	t.mu.Unlock()

	manager.metrics.RunsTotal.WithLabelValues(algorithm, string(status)).Inc()
	manager.metrics.RunDuration.WithLabelValues(algorithm).Observe(duration.Seconds())
	if status != StatusFailed {
		manager.metrics.PlacementsTotal.WithLabelValues(algorithm, "success").Add(float64(succeeded))
		manager.metrics.PlacementsTotal.WithLabelValues(algorithm, "failure").Add(float64(failed))
	}

	fields := []zap.Field{
		zap.String("status", string(status)),
		zap.Duration("duration", duration),
		zap.Int("succeeded", succeeded),
		zap.Int("failed", failed),
	}
	if status == StatusFailed {
		logger.Error("task finished", append(fields, zap.Error(err))...)
	} else {
		logger.Info("task finished", fields...)
	}
}

func (manager *Manager) lookup(id uuid.UUID) (*task, error) {
	manager.mu.RLock()
	defer manager.mu.RUnlock()

	t, ok := manager.tasks[id]
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrTaskNotFound, id)
	}
	return t, nil
}

func (manager *Manager) Get(id uuid.UUID) (Snapshot, error) {
	t, err := manager.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}
	return t.read(), nil
}

// Cancel requests cooperative cancellation of a pending or running task
func (manager *Manager) Cancel(id uuid.UUID) error {
	t, err := manager.lookup(id)
	if err != nil {
		return err
	}
	if t.read().Status.Terminal() {
		return fmt.Errorf("%w: %v", ErrTaskFinished, id)
	}

	t.cancel()
	manager.logger.Info("task cancellation requested", zap.Stringer("task_id", id))
	return nil
}

// Wait blocks until the task reaches a terminal status or ctx is done
func (manager *Manager) Wait(ctx context.Context, id uuid.UUID) (Snapshot, error) {
	t, err := manager.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}

	select {
	case <-t.done:
		return t.read(), nil
	case <-ctx.Done():
		return t.read(), ctx.Err()
	}
}

// Results returns the outcomes of a finished task; failed tasks have none
func (manager *Manager) Results(id uuid.UUID) ([]model.AllocationOutcome, error) {
	t, err := manager.lookup(id)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.snapshot.Status.Terminal() {
		return nil, fmt.Errorf("%w: %v is %v", ErrTaskNotFinished, id, t.snapshot.Status)
	}
	return t.outcomes, nil
}

// List returns every task in submission order
func (manager *Manager) List() []Snapshot {
	manager.mu.RLock()
	defer manager.mu.RUnlock()

	return lo.Map(manager.order, func(id uuid.UUID, _ int) Snapshot { return manager.tasks[id].read() })
}

// Close cancels every unfinished task and waits for all workers to return
func (manager *Manager) Close() {
	manager.mu.RLock()
	for _, t := range manager.tasks {
		t.cancel()
	}
	manager.mu.RUnlock()

	manager.wg.Wait()
}
