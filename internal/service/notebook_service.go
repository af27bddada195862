package service

import (
	"context"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/Beeta/pynotex/internal/index"
	"github.com/Beeta/pynotex/internal/model"
	appErr "github.com/Beeta/pynotex/internal/pkg/errors"
	"github.com/Beeta/pynotex/internal/pkg/ids"
	"github.com/Beeta/pynotex/internal/pkg/timeutil"
	"github.com/Beeta/pynotex/internal/repo"
)

const maxNotebookNameChars = 200

type NotebookService struct {
	notebooks *repo.NotebookRepo
	sources   *repo.SourceRepo
	notes     *repo.NoteRepo
	chats     *repo.ChatRepo
	jobs      *repo.JobRepo
	indexes   *index.Registry
}

func NewNotebookService(notebooks *repo.NotebookRepo, sources *repo.SourceRepo, notes *repo.NoteRepo, chats *repo.ChatRepo, jobs *repo.JobRepo, indexes *index.Registry) *NotebookService {
	return &NotebookService{notebooks: notebooks, sources: sources, notes: notes, chats: chats, jobs: jobs, indexes: indexes}
}

func (s *NotebookService) Create(ctx context.Context, name, description string) (*model.Notebook, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxNotebookNameChars {
		return nil, appErr.ErrInvalid
	}
	now := timeutil.NowUnix()
	nb := &model.Notebook{
		ID:          ids.New(),
		Name:        name,
		Description: strings.TrimSpace(description),
		Ctime:       now,
		Mtime:       now,
	}
	if err := s.notebooks.Create(ctx, nb); err != nil {
		return nil, err
	}
	return nb, nil
}

func (s *NotebookService) Get(ctx context.Context, id string) (*model.Notebook, error) {
	return s.notebooks.GetByID(ctx, id)
}

func (s *NotebookService) List(ctx context.Context) ([]model.Notebook, error) {
	return s.notebooks.List(ctx)
}

func (s *NotebookService) Update(ctx context.Context, id, name, description string) (*model.Notebook, error) {
	nb, err := s.notebooks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if name = strings.TrimSpace(name); name != "" {
		if len(name) > maxNotebookNameChars {
			return nil, appErr.ErrInvalid
		}
		nb.Name = name
	}
	if description != "" {
		nb.Description = strings.TrimSpace(description)
	}
	nb.Mtime = timeutil.NowUnix()
	if err := s.notebooks.Update(ctx, nb); err != nil {
		return nil, err
	}
	return nb, nil
}

// Delete removes the notebook and everything hanging off it. The in-memory
// index is dropped last so readers racing the delete still see a full
// snapshot, never a partial one.
func (s *NotebookService) Delete(ctx context.Context, id string) error {
	if err := s.notebooks.Delete(ctx, id); err != nil {
		return err
	}
	logger := logutil.GetLogger(ctx).With(zap.String("notebook_id", id))
	if err := s.sources.DeleteByNotebook(ctx, id); err != nil {
		logger.Error("delete notebook sources failed", zap.Error(err))
	}
	if err := s.notes.DeleteByNotebook(ctx, id); err != nil {
		logger.Error("delete notebook notes failed", zap.Error(err))
	}
	if err := s.chats.DeleteByNotebook(ctx, id); err != nil {
		logger.Error("delete notebook chats failed", zap.Error(err))
	}
	if err := s.jobs.DeleteByNotebook(ctx, id); err != nil {
		logger.Error("delete notebook jobs failed", zap.Error(err))
	}
	s.indexes.Drop(id)
	return nil
}
