package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

var ErrQueueFull = errors.New("task queue is full")

// TaskFactory builds the next run, typically after reloading the profile.
type TaskFactory func() (TaskInterface, error)

// Scheduler runs tasks on a single worker so runs never overlap.
type Scheduler struct {
	factory    TaskFactory
	interval   time.Duration
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	taskQueue  chan TaskInterface
	mu         sync.RWMutex
	lastResult *Result
}

func NewScheduler(factory TaskFactory, interval time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		factory:   factory,
		interval:  interval,
		ctx:       ctx,
		cancel:    cancel,
		taskQueue: make(chan TaskInterface, 1),
	}
}

func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.worker()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueNext()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueNext()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
	}

	select {
	case s.taskQueue <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// Refresh queues an immediate run.
func (s *Scheduler) Refresh() error {
	task, err := s.factory()
	if err != nil {
		return fmt.Errorf("failed to build task: %w", err)
	}
	return s.EnqueueTask(task)
}

func (s *Scheduler) LastResult() *Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastResult
}

func (s *Scheduler) enqueueNext() {
	task, err := s.factory()
	if err != nil {
		slog.Error("Failed to build task", "error", err)
		s.recordResult(&Result{StartedAt: time.Now(), FinishedAt: time.Now(), Err: err})
		return
	}

	if err := s.EnqueueTask(task); err != nil {
		slog.Warn("Failed to enqueue task", "type", string(task.GetType()), "feed", task.GetFeedName(), "error", err)
	}
}

func (s *Scheduler) worker() {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	if err := task.Execute(taskCtx); err != nil {
		slog.Debug("Worker task execution failed", "type", string(task.GetType()), "id", task.GetID(), "error", err)
	}

	if result := task.GetResult(); result != nil {
		s.recordResult(result)
	}
}

func (s *Scheduler) recordResult(result *Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastResult = result
}
