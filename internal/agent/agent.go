// Package agent drives one transformation job through its state machine:
// pending -> running -> done or failed. A provider failure goes straight to
// failed with the classified reason; structured post-processing (slides,
// figures, mind-map markup) runs on the done path with local recovery.
package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Beeta/pynotex/internal/ai"
	"github.com/Beeta/pynotex/internal/model"
	appErr "github.com/Beeta/pynotex/internal/pkg/errors"
	"github.com/Beeta/pynotex/internal/pkg/timeutil"
	"github.com/Beeta/pynotex/internal/prompt"
)

const (
	DefaultMaxSlides     = 20
	DefaultImageParallel = 2
)

// ImageSink stores generated image bytes and returns a public URL.
type ImageSink interface {
	SaveImage(ctx context.Context, name string, data []byte) (string, error)
}

type Config struct {
	Timeout       time.Duration
	MaxSlides     int
	ImageParallel int
}

type Agent struct {
	gen       ai.IGenerator
	images    ai.IImageGenerator
	sink      ImageSink
	assembler *prompt.Assembler
	cfg       Config
}

// New builds an agent. images and sink may be nil: without a configured
// image provider the image sub-step is skipped, not failed.
func New(gen ai.IGenerator, images ai.IImageGenerator, sink ImageSink, assembler *prompt.Assembler, cfg Config) *Agent {
	if cfg.MaxSlides <= 0 {
		cfg.MaxSlides = DefaultMaxSlides
	}
	if cfg.ImageParallel <= 0 {
		cfg.ImageParallel = DefaultImageParallel
	}
	return &Agent{gen: gen, images: images, sink: sink, assembler: assembler, cfg: cfg}
}

// Advance enforces the job state machine: pending may only start running,
// running may only finish, and done/failed are terminal.
func Advance(job *model.TransformationJob, next string) error {
	valid := false
	switch job.Status {
	case model.JobStatusPending:
		valid = next == model.JobStatusRunning
	case model.JobStatusRunning:
		valid = next == model.JobStatusDone || next == model.JobStatusFailed
	}
	if !valid {
		return fmt.Errorf("%w: job %s cannot move %s -> %s", appErr.ErrConflict, job.ID, job.Status, next)
	}
	job.Status = next
	job.Mtime = timeutil.NowUnix()
	return nil
}

// Run executes a pending job to a terminal state. The returned error is
// also recorded on the job as the failure reason.
func (a *Agent) Run(ctx context.Context, job *model.TransformationJob, nb model.Notebook, sources []model.Source, extra string) error {
	logger := logutil.GetLogger(ctx).With(zap.String("job_id", job.ID), zap.String("kind", job.Kind))
	if err := Advance(job, model.JobStatusRunning); err != nil {
		return err
	}

	kind := prompt.Kind(job.Kind)
	output, err := a.generate(ctx, a.assembler.Transformation(kind, nb, sources, extra))
	if err == nil && kind == prompt.KindInsight {
		// insight runs a second, deeper pass over its own summary
		output, err = a.generate(ctx, a.assembler.InsightReport(output))
	}
	if err != nil {
		return a.fail(job, logger, err)
	}

	switch kind {
	case prompt.KindMindmap:
		markup, perr := extractMindmap(output)
		if perr != nil {
			// malformed markup degrades to the raw text, not a failed job
			logger.Warn("mindmap markup malformed, keeping raw output", zap.Error(perr))
		} else {
			output = markup
		}
	case prompt.KindPPT:
		slides := parseSlides(output)
		job.Assets = a.generateSlideImages(ctx, logger, slides)
		if len(slides) > a.cfg.MaxSlides {
			job.ImageError = fmt.Sprintf("deck has %d slides, over the %d cap; image generation skipped", len(slides), a.cfg.MaxSlides)
		}
	case prompt.KindInfograph:
		job.Assets = []model.JobAsset{a.generateFigureImage(ctx, logger, output)}
	}

	job.Output = output
	if err := Advance(job, model.JobStatusDone); err != nil {
		return err
	}
	logger.Info("transformation done", zap.Int("assets", len(job.Assets)))
	return nil
}

func (a *Agent) fail(job *model.TransformationJob, logger *zap.Logger, err error) error {
	reason := err.Error()
	if pe, ok := appErr.AsProviderError(err); ok {
		reason = fmt.Sprintf("%s: %v", pe.Kind, pe.Err)
	}
	job.FailReason = reason
	if terr := Advance(job, model.JobStatusFailed); terr != nil {
		return terr
	}
	logger.Error("transformation failed", zap.Error(err))
	return err
}

func (a *Agent) generate(ctx context.Context, p string) (string, error) {
	if a.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Timeout)
		defer cancel()
	}
	out, err := a.gen.Generate(ctx, p)
	if err != nil {
		return "", err
	}
	if out == "" {
		return "", fmt.Errorf("empty provider response")
	}
	return out, nil
}

// generateSlideImages runs the per-slide image sub-calls with bounded
// parallelism. A failed slide records its error on that asset only.
func (a *Agent) generateSlideImages(ctx context.Context, logger *zap.Logger, slides []Slide) []model.JobAsset {
	assets := make([]model.JobAsset, len(slides))
	for i, slide := range slides {
		assets[i] = model.JobAsset{Seq: i, Content: slide.Content}
	}
	if a.images == nil || a.sink == nil || len(slides) > a.cfg.MaxSlides {
		return assets
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.ImageParallel)
	for i := range slides {
		g.Go(func() error {
			p := fmt.Sprintf("Style: %s\n\nSlide content: %s", slides[i].Style, slides[i].Content)
			url, err := a.renderImage(gctx, fmt.Sprintf("slide_%d", i+1), p)
			if err != nil {
				logger.Warn("slide image failed", zap.Int("slide", i+1), zap.Error(err))
				assets[i].ImageError = err.Error()
				return nil
			}
			assets[i].ImageURL = url
			return nil
		})
	}
	_ = g.Wait()
	return assets
}

func (a *Agent) generateFigureImage(ctx context.Context, logger *zap.Logger, brief string) model.JobAsset {
	asset := model.JobAsset{Seq: 0, Content: brief}
	if a.images == nil || a.sink == nil {
		return asset
	}
	url, err := a.renderImage(ctx, "infograph", brief)
	if err != nil {
		logger.Warn("infographic image failed", zap.Error(err))
		asset.ImageError = err.Error()
		return asset
	}
	asset.ImageURL = url
	return asset
}

func (a *Agent) renderImage(ctx context.Context, name, p string) (string, error) {
	if a.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Timeout)
		defer cancel()
	}
	data, err := a.images.GenerateImage(ctx, p)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("%s_%d.png", name, timeutil.NowMilli())
	return a.sink.SaveImage(ctx, key, data)
}
