package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Service runs background jobs one at a time on a single worker. Scheduled
// jobs are enqueued by their own tickers; a tick that finds the queue full
// is dropped.
type Service struct {
	queue     chan job
	schedules []schedule
	logger    *slog.Logger
}

type job struct {
	Type string
	Run  func(context.Context) (any, error)
}

type schedule struct {
	job      job
	interval time.Duration
}

func New(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		queue:  make(chan job, 128),
		logger: logger,
	}
}

// Every registers a recurring job. It must be called before Run.
func (s *Service) Every(jobType string, interval time.Duration, run func(context.Context) (any, error)) {
	if interval <= 0 {
		return
	}
	s.schedules = append(s.schedules, schedule{job: job{Type: jobType, Run: run}, interval: interval})
}

// Run starts the schedulers and the worker and blocks until ctx is done.
func (s *Service) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for _, sc := range s.schedules {
		wg.Add(1)
		go func(sc schedule) {
			defer wg.Done()
			s.schedule(ctx, sc)
		}(sc)
	}
	s.worker(ctx)
	wg.Wait()
	return nil
}

func (s *Service) Enqueue(jobType string, run func(context.Context) (any, error)) {
	select {
	case s.queue <- job{Type: jobType, Run: run}:
	default:
		s.logger.Warn("job queue full", "jobType", jobType)
	}
}

func (s *Service) RunNow(ctx context.Context, jobType string, run func(context.Context) (any, error)) (any, error) {
	return s.runJob(ctx, job{Type: jobType, Run: run})
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				s.logger.Warn("job run failed", "jobType", j.Type, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	started := time.Now()
	details, err := j.Run(ctx)
	status := "completed"
	if err != nil {
		status = "failed"
	}
	s.logger.Debug("job run", "jobType", j.Type, "status", status, "details", details, "duration", time.Since(started))
	return details, err
}

func (s *Service) schedule(ctx context.Context, sc schedule) {
	ticker := time.NewTicker(sc.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Enqueue(sc.job.Type, sc.job.Run)
		}
	}
}
