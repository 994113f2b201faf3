// internal/scheduler/scheduler.go
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JobFunc – периодическая задача. Контекст отменяется при Cancel/Shutdown.
type JobFunc func(ctx context.Context) error

// Options задаёт поведение одной задачи.
type Options struct {
	// RunImmediately запускает задачу сразу после постановки.
	RunImmediately bool
}

// Scheduler держит не более одной задачи на каждое имя (concern).
// Повторный Schedule с тем же именем сначала снимает прежнюю задачу.
type Scheduler struct {
	cron   gocron.Scheduler
	logger *zap.Logger

	mu   sync.Mutex
	jobs map[string]scheduledJob
}

type scheduledJob struct {
	id     uuid.UUID
	cancel context.CancelFunc
}

func New(logger *zap.Logger) (*Scheduler, error) {
	logger = logger.Named("scheduler")
	cron, err := gocron.NewScheduler(gocron.WithLogger(newGocronLoggerAdapter(logger)))
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	cron.Start()
	return &Scheduler{
		cron:   cron,
		logger: logger,
		jobs:   make(map[string]scheduledJob),
	}, nil
}

// Schedule ставит задачу name с периодом every.
func (s *Scheduler) Schedule(ctx context.Context, name string, every time.Duration, fn JobFunc, opts Options) error {
	if every <= 0 {
		return fmt.Errorf("invalid interval %s for job %s", every, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeLocked(name)

	jobCtx, cancel := context.WithCancel(ctx)
	jobOpts := []gocron.JobOption{
		gocron.WithName(name),
		gocron.WithContext(jobCtx),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	}
	if opts.RunImmediately {
		jobOpts = append(jobOpts, gocron.WithStartAt(gocron.WithStartImmediately()))
	}

	job, err := s.cron.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(func(ctx context.Context) {
			if err := fn(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warn("Job execution failed", zap.String("job", name), zap.Error(err))
			}
		}),
		jobOpts...,
	)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to create scheduled job %s: %w", name, err)
	}

	s.jobs[name] = scheduledJob{id: job.ID(), cancel: cancel}
	s.logger.Debug("Job scheduled", zap.String("job", name), zap.Duration("every", every))
	return nil
}

// RunNow выполняет задачу вне расписания.
func (s *Scheduler) RunNow(name string) error {
	s.mu.Lock()
	sj, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("job %s is not scheduled", name)
	}
	for _, j := range s.cron.Jobs() {
		if j.ID() == sj.id {
			return j.RunNow()
		}
	}
	return fmt.Errorf("job %s is not scheduled", name)
}

// Cancel снимает задачу и отменяет её контекст.
func (s *Scheduler) Cancel(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(name)
}

// Scheduled сообщает, стоит ли задача в расписании.
func (s *Scheduler) Scheduled(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.jobs[name]
	return ok
}

func (s *Scheduler) removeLocked(name string) {
	sj, ok := s.jobs[name]
	if !ok {
		return
	}
	sj.cancel()
	if err := s.cron.RemoveJob(sj.id); err != nil {
		s.logger.Debug("Remove job", zap.String("job", name), zap.Error(err))
	}
	delete(s.jobs, name)
	s.logger.Debug("Job cancelled", zap.String("job", name))
}

// Shutdown останавливает все задачи.
func (s *Scheduler) Shutdown() error {
	s.mu.Lock()
	for name, sj := range s.jobs {
		sj.cancel()
		delete(s.jobs, name)
	}
	s.mu.Unlock()
	s.logger.Info("Stopping scheduler")
	return s.cron.Shutdown()
}

// gocronLoggerAdapter адаптирует zap к gocron.Logger.
type gocronLoggerAdapter struct {
	logger *zap.SugaredLogger
}

func newGocronLoggerAdapter(logger *zap.Logger) gocron.Logger {
	return &gocronLoggerAdapter{logger: logger.Sugar()}
}

func (a *gocronLoggerAdapter) Debug(msg string, args ...any) { a.logger.Debugw(msg, args...) }
func (a *gocronLoggerAdapter) Info(msg string, args ...any)  { a.logger.Infow(msg, args...) }
func (a *gocronLoggerAdapter) Warn(msg string, args ...any)  { a.logger.Warnw(msg, args...) }
func (a *gocronLoggerAdapter) Error(msg string, args ...any) { a.logger.Errorw(msg, args...) }
