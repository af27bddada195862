package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/Beeta/pynotex/internal/repo"
)

// JobSweep drops terminal transformation jobs older than maxAge. The note
// holding a job's output survives; only the job bookkeeping row goes.
type JobSweep struct {
	jobs   *repo.JobRepo
	maxAge time.Duration
}

func NewJobSweep(jobs *repo.JobRepo, maxAge time.Duration) *JobSweep {
	return &JobSweep{jobs: jobs, maxAge: maxAge}
}

func (j *JobSweep) Name() string {
	return "transformation_job_sweep"
}

func (j *JobSweep) Run(ctx context.Context) error {
	if j.jobs == nil {
		return nil
	}
	maxAge := j.maxAge
	if maxAge <= 0 {
		maxAge = 72 * time.Hour
	}
	cutoff := time.Now().Add(-maxAge).Unix()
	removed, err := j.jobs.DeleteTerminalBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	if removed > 0 {
		logutil.GetLogger(ctx).Info("stale jobs removed", zap.Int64("count", removed))
	}
	return nil
}
