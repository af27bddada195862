package schedule

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// Job is a named unit of background work driven by the scheduler.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// CronScheduler fires jobs on standard 5-field cron expressions. Each job
// is serialized with itself: a tick that arrives while the previous run is
// still in flight is dropped.
type CronScheduler struct {
	cron *cron.Cron
	ctx  atomic.Pointer[context.Context]
}

func NewCronScheduler() *CronScheduler {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	return &CronScheduler{cron: cron.New(cron.WithParser(parser))}
}

func (s *CronScheduler) AddJob(job Job, spec string) error {
	var busy atomic.Bool
	if _, err := s.cron.AddFunc(spec, func() {
		if !busy.CompareAndSwap(false, true) {
			s.logger(job).Info("tick dropped: previous run still in flight")
			return
		}
		defer busy.Store(false)
		s.execute(job)
	}); err != nil {
		return err
	}
	s.logger(job).Info("job scheduled", zap.String("cron", spec))
	return nil
}

func (s *CronScheduler) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	s.ctx.Store(&ctx)
	s.cron.Start()
}

// Stop halts scheduling and waits for in-flight runs to return.
func (s *CronScheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *CronScheduler) execute(job Job) {
	ctx := context.Background()
	if p := s.ctx.Load(); p != nil {
		ctx = *p
	}
	logger := s.logger(job)
	start := time.Now()
	if err := job.Run(ctx); err != nil {
		logger.Error("job run failed", zap.Duration("cost", time.Since(start)), zap.Error(err))
		return
	}
	logger.Info("job run finished", zap.Duration("cost", time.Since(start)))
}

func (s *CronScheduler) logger(job Job) *zap.Logger {
	return logutil.GetLogger(context.Background()).With(zap.String("job", job.Name()))
}
