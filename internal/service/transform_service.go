package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/Beeta/pynotex/internal/agent"
	"github.com/Beeta/pynotex/internal/model"
	appErr "github.com/Beeta/pynotex/internal/pkg/errors"
	"github.com/Beeta/pynotex/internal/pkg/ids"
	"github.com/Beeta/pynotex/internal/pkg/timeutil"
	"github.com/Beeta/pynotex/internal/prompt"
	"github.com/Beeta/pynotex/internal/repo"
)

const (
	defaultCacheSize = 1024
	defaultCacheTTL  = 2 * time.Hour
)

type TransformService struct {
	notebooks *repo.NotebookRepo
	sources   *repo.SourceRepo
	notes     *repo.NoteRepo
	jobs      *repo.JobRepo
	ingest    *SourceService
	agent     *agent.Agent
	cache     *expirable.LRU[string, string]
}

func NewTransformService(notebooks *repo.NotebookRepo, sources *repo.SourceRepo, notes *repo.NoteRepo, jobs *repo.JobRepo, ingest *SourceService, ag *agent.Agent, cacheSize int, cacheTTL time.Duration) *TransformService {
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}
	return &TransformService{
		notebooks: notebooks,
		sources:   sources,
		notes:     notes,
		jobs:      jobs,
		ingest:    ingest,
		agent:     ag,
		cache:     expirable.NewLRU[string, string](cacheSize, nil, cacheTTL),
	}
}

// Start creates a pending job and runs it in the background. The returned
// job is a snapshot; poll Get for progress.
func (s *TransformService) Start(ctx context.Context, notebookID, kindName string, sourceIDs []string, extra string) (*model.TransformationJob, error) {
	kind, err := prompt.ParseKind(kindName)
	if err != nil {
		return nil, err
	}
	nb, err := s.notebooks.GetByID(ctx, notebookID)
	if err != nil {
		return nil, err
	}
	sources, err := s.resolveSources(ctx, notebookID, sourceIDs)
	if err != nil {
		return nil, err
	}

	now := timeutil.NowUnix()
	job := &model.TransformationJob{
		ID:         ids.New(),
		NotebookID: notebookID,
		Kind:       string(kind),
		SourceIDs:  sourceIDs,
		Status:     model.JobStatusPending,
		Ctime:      now,
		Mtime:      now,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, err
	}

	snapshot := *job
	go s.run(context.WithoutCancel(ctx), job, *nb, kind, sources, extra)
	return &snapshot, nil
}

func (s *TransformService) run(ctx context.Context, job *model.TransformationJob, nb model.Notebook, kind prompt.Kind, sources []model.Source, extra string) {
	logger := logutil.GetLogger(ctx).With(zap.String("job_id", job.ID), zap.String("kind", job.Kind))

	running := *job
	running.Status = model.JobStatusRunning
	running.Mtime = timeutil.NowUnix()
	if err := s.jobs.Save(ctx, &running, model.JobStatusPending); err != nil {
		logger.Error("mark job running failed", zap.Error(err))
		return
	}

	cacheKey := ""
	if !kind.HasImageAssets() {
		cacheKey = transformCacheKey(kind, sources, extra)
		if cached, ok := s.cache.Get(cacheKey); ok {
			logger.Info("transformation served from cache")
			if err := advancePair(job); err != nil {
				logger.Error("cached job transition failed", zap.Error(err))
				return
			}
			job.Output = cached
			if err := s.jobs.Save(ctx, job, model.JobStatusRunning); err != nil {
				logger.Error("persist cached job failed", zap.Error(err))
				return
			}
			s.finish(ctx, logger, job, nb, kind)
			return
		}
	}

	err := s.agent.Run(ctx, job, nb, sources, extra)
	if saveErr := s.jobs.Save(ctx, job, model.JobStatusRunning); saveErr != nil {
		logger.Error("persist job result failed", zap.Error(saveErr))
		return
	}
	if err != nil {
		return
	}
	if cacheKey != "" {
		s.cache.Add(cacheKey, job.Output)
	}
	s.finish(ctx, logger, job, nb, kind)
}

// finish stores the output as a note and, for insight reports, feeds the
// report back into the notebook as a new source.
func (s *TransformService) finish(ctx context.Context, logger *zap.Logger, job *model.TransformationJob, nb model.Notebook, kind prompt.Kind) {
	title := kind.Title() + ": " + nb.Name
	note := &model.Note{
		ID:         ids.New(),
		NotebookID: nb.ID,
		Title:      title,
		Content:    job.Output,
		Type:       job.Kind,
		SourceIDs:  job.SourceIDs,
		Metadata:   map[string]string{"job_id": job.ID},
		Ctime:      timeutil.NowUnix(),
	}
	if err := s.notes.Create(ctx, note); err != nil {
		logger.Error("store transformation note failed", zap.Error(err))
	}
	if kind == prompt.KindInsight {
		if _, err := s.ingest.AddInsight(ctx, nb.ID, title, job.Output); err != nil {
			logger.Error("ingest insight report failed", zap.Error(err))
		}
	}
}

func (s *TransformService) Get(ctx context.Context, notebookID, jobID string) (*model.TransformationJob, error) {
	return s.jobs.GetByID(ctx, notebookID, jobID)
}

func (s *TransformService) List(ctx context.Context, notebookID string) ([]model.TransformationJob, error) {
	if _, err := s.notebooks.GetByID(ctx, notebookID); err != nil {
		return nil, err
	}
	return s.jobs.ListByNotebook(ctx, notebookID)
}

// Kinds lists the supported transformation kinds for discovery endpoints.
func (s *TransformService) Kinds() []string {
	out := make([]string, 0, len(prompt.Kinds))
	for _, kind := range prompt.Kinds {
		out = append(out, string(kind))
	}
	return out
}

func (s *TransformService) resolveSources(ctx context.Context, notebookID string, sourceIDs []string) ([]model.Source, error) {
	all, err := s.sources.ListByNotebook(ctx, notebookID)
	if err != nil {
		return nil, err
	}
	if len(sourceIDs) == 0 {
		if len(all) == 0 {
			return nil, appErr.ErrInvalid
		}
		return all, nil
	}
	byID := make(map[string]model.Source, len(all))
	for _, src := range all {
		byID[src.ID] = src
	}
	picked := make([]model.Source, 0, len(sourceIDs))
	for _, id := range sourceIDs {
		src, ok := byID[id]
		if !ok {
			return nil, appErr.ErrNotFound
		}
		picked = append(picked, src)
	}
	return picked, nil
}

func advancePair(job *model.TransformationJob) error {
	for _, next := range []string{model.JobStatusRunning, model.JobStatusDone} {
		if err := agent.Advance(job, next); err != nil {
			return err
		}
	}
	return nil
}

func transformCacheKey(kind prompt.Kind, sources []model.Source, extra string) string {
	h := sha256.New()
	h.Write([]byte(kind))
	h.Write([]byte{0})
	for _, src := range sources {
		h.Write([]byte(src.ID))
		h.Write([]byte{0})
		h.Write([]byte(src.Content))
		h.Write([]byte{0})
	}
	h.Write([]byte(extra))
	return hex.EncodeToString(h.Sum(nil))
}
