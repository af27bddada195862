package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Beeta/pynotex/internal/extractor"
	"github.com/Beeta/pynotex/internal/filestore"
	"github.com/Beeta/pynotex/internal/index"
	"github.com/Beeta/pynotex/internal/model"
	appErr "github.com/Beeta/pynotex/internal/pkg/errors"
	"github.com/Beeta/pynotex/internal/pkg/ids"
	"github.com/Beeta/pynotex/internal/pkg/timeutil"
	"github.com/Beeta/pynotex/internal/repo"
)

const (
	urlFetchTimeout   = 30 * time.Second
	restoreParallel   = 4
	maxURLBodyBytes   = 10 << 20
	maxSourceNameRune = 300
)

type SourceService struct {
	notebooks *repo.NotebookRepo
	sources   *repo.SourceRepo
	extractor extractor.Extractor
	indexes   *index.Registry
	files     filestore.Store
	maxUpload int64
	client    *http.Client
}

func NewSourceService(notebooks *repo.NotebookRepo, sources *repo.SourceRepo, ext extractor.Extractor, indexes *index.Registry, files filestore.Store, maxUpload int64) *SourceService {
	return &SourceService{
		notebooks: notebooks,
		sources:   sources,
		extractor: ext,
		indexes:   indexes,
		files:     files,
		maxUpload: maxUpload,
		client:    &http.Client{Timeout: urlFetchTimeout},
	}
}

func (s *SourceService) AddText(ctx context.Context, notebookID, name, content string) (*model.Source, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, appErr.ErrInvalid
	}
	return s.add(ctx, &model.Source{
		NotebookID: notebookID,
		Name:       name,
		Type:       model.SourceTypeText,
		Content:    content,
	})
}

// Upload stores the raw file, extracts its text and ingests the result.
// The extension drives the extraction format.
func (s *SourceService) Upload(ctx context.Context, notebookID, fileName string, r io.ReadSeeker, size int64) (*model.Source, error) {
	if fileName == "" || size <= 0 {
		return nil, appErr.ErrInvalid
	}
	if s.maxUpload > 0 && size > s.maxUpload {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", appErr.ErrInvalid, s.maxUpload)
	}
	raw, err := io.ReadAll(io.LimitReader(r, size))
	if err != nil {
		return nil, err
	}
	text, err := s.extractor.Extract(ctx, raw, strings.TrimPrefix(path.Ext(fileName), "."))
	if err != nil {
		return nil, err
	}

	fileKey := ids.New() + path.Ext(fileName)
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	if err := s.files.Save(ctx, fileKey, r, size); err != nil {
		return nil, err
	}
	return s.add(ctx, &model.Source{
		NotebookID: notebookID,
		Name:       fileName,
		Type:       model.SourceTypeFile,
		Content:    text,
		FileName:   fileKey,
		FileSize:   size,
	})
}

// AddURL fetches the page body and ingests it as text. Only textual
// content types are accepted.
func (s *SourceService) AddURL(ctx context.Context, notebookID, rawURL string) (*model.Source, error) {
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return nil, appErr.ErrInvalid
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
	}
	contentType := resp.Header.Get("Content-Type")
	hint := "txt"
	switch {
	case strings.Contains(contentType, "markdown"):
		hint = "md"
	case strings.Contains(contentType, "text/"), strings.Contains(contentType, "json"), contentType == "":
	default:
		return nil, fmt.Errorf("%w: content type %s", appErr.ErrUnsupportedFormat, contentType)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxURLBodyBytes))
	if err != nil {
		return nil, err
	}
	text, err := s.extractor.Extract(ctx, raw, hint)
	if err != nil {
		return nil, err
	}
	return s.add(ctx, &model.Source{
		NotebookID: notebookID,
		Name:       rawURL,
		Type:       model.SourceTypeURL,
		Content:    text,
	})
}

// AddInsight stores a generated insight report back as a retrievable
// source, so later questions can cite it.
func (s *SourceService) AddInsight(ctx context.Context, notebookID, title, content string) (*model.Source, error) {
	return s.add(ctx, &model.Source{
		NotebookID: notebookID,
		Name:       title,
		Type:       model.SourceTypeInsight,
		Content:    content,
	})
}

func (s *SourceService) add(ctx context.Context, src *model.Source) (*model.Source, error) {
	if _, err := s.notebooks.GetByID(ctx, src.NotebookID); err != nil {
		return nil, err
	}
	src.ID = ids.New()
	src.Name = clipName(src.Name)
	src.Ctime = timeutil.NowUnix()
	if err := s.sources.Create(ctx, src); err != nil {
		return nil, err
	}
	src.ChunkCount = s.indexes.Append(src.NotebookID, *src)
	if err := s.sources.UpdateChunkCount(ctx, src.ID, src.ChunkCount); err != nil {
		logutil.GetLogger(ctx).Warn("update chunk count failed", zap.String("source_id", src.ID), zap.Error(err))
	}
	logutil.GetLogger(ctx).Info("source ingested",
		zap.String("notebook_id", src.NotebookID),
		zap.String("source_id", src.ID),
		zap.String("type", src.Type),
		zap.Int("chunks", src.ChunkCount))
	return src, nil
}

func (s *SourceService) Get(ctx context.Context, notebookID, id string) (*model.Source, error) {
	return s.sources.GetByID(ctx, notebookID, id)
}

func (s *SourceService) List(ctx context.Context, notebookID string) ([]model.Source, error) {
	if _, err := s.notebooks.GetByID(ctx, notebookID); err != nil {
		return nil, err
	}
	return s.sources.ListByNotebook(ctx, notebookID)
}

func (s *SourceService) Delete(ctx context.Context, notebookID, id string) error {
	if err := s.sources.Delete(ctx, notebookID, id); err != nil {
		return err
	}
	s.indexes.RemoveSource(notebookID, id)
	return nil
}

// RestoreIndexes rebuilds the in-memory index of every notebook from the
// stored sources. Called once on startup; notebooks rebuild in parallel
// but each notebook's chunk walk stays sequential so ids are stable.
func (s *SourceService) RestoreIndexes(ctx context.Context) error {
	notebooks, err := s.notebooks.List(ctx)
	if err != nil {
		return err
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(restoreParallel)
	for _, nb := range notebooks {
		g.Go(func() error {
			sources, err := s.sources.ListByNotebook(gctx, nb.ID)
			if err != nil {
				return fmt.Errorf("restore notebook %s: %w", nb.ID, err)
			}
			idx := s.indexes.Rebuild(nb.ID, sources)
			logutil.GetLogger(gctx).Info("index restored",
				zap.String("notebook_id", nb.ID),
				zap.Int("sources", len(sources)),
				zap.Int("chunks", idx.Len()))
			return nil
		})
	}
	return g.Wait()
}

func clipName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "untitled"
	}
	runes := []rune(name)
	if len(runes) > maxSourceNameRune {
		return string(runes[:maxSourceNameRune])
	}
	return name
}
