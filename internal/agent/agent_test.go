package agent

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Beeta/pynotex/internal/model"
	appErr "github.com/Beeta/pynotex/internal/pkg/errors"
	"github.com/Beeta/pynotex/internal/prompt"
)

type scriptedGen struct {
	outputs []string
	errs    []error
	calls   int
}

func (g *scriptedGen) Generate(ctx context.Context, p string) (string, error) {
	i := g.calls
	g.calls++
	var err error
	if i < len(g.errs) {
		err = g.errs[i]
	}
	var out string
	if i < len(g.outputs) {
		out = g.outputs[i]
	}
	return out, err
}

type fakeImages struct {
	failOn map[int]bool
	calls  int
}

func (f *fakeImages) GenerateImage(ctx context.Context, p string) ([]byte, error) {
	f.calls++
	if f.failOn[f.calls] {
		return nil, appErr.NewProviderError("gemini", appErr.ProviderTransient, fmt.Errorf("render failed"))
	}
	return []byte{0x89, 0x50}, nil
}

type memSink struct{}

func (memSink) SaveImage(ctx context.Context, name string, data []byte) (string, error) {
	return "/uploads/" + name, nil
}

func newJob(kind prompt.Kind) *model.TransformationJob {
	return &model.TransformationJob{
		ID:         "job-1",
		NotebookID: "nb-1",
		Kind:       string(kind),
		SourceIDs:  []string{"src-1"},
		Status:     model.JobStatusPending,
	}
}

func testSources() []model.Source {
	return []model.Source{{ID: "src-1", Name: "notes.txt", Content: "The deadline is March 5."}}
}

func TestAdvanceTransitions(t *testing.T) {
	job := newJob(prompt.KindSummary)
	require.NoError(t, Advance(job, model.JobStatusRunning))
	require.NoError(t, Advance(job, model.JobStatusDone))

	// done is terminal
	require.Error(t, Advance(job, model.JobStatusRunning))
	require.Error(t, Advance(job, model.JobStatusFailed))
	require.Equal(t, model.JobStatusDone, job.Status)

	// pending cannot skip straight to done or failed
	job2 := newJob(prompt.KindSummary)
	require.Error(t, Advance(job2, model.JobStatusDone))
	require.Error(t, Advance(job2, model.JobStatusFailed))
	require.Equal(t, model.JobStatusPending, job2.Status)

	job3 := newJob(prompt.KindSummary)
	require.NoError(t, Advance(job3, model.JobStatusRunning))
	require.NoError(t, Advance(job3, model.JobStatusFailed))
	require.Error(t, Advance(job3, model.JobStatusRunning))
}

func TestRunSummaryHappyPath(t *testing.T) {
	a := New(&scriptedGen{outputs: []string{"a concise summary"}}, nil, nil, prompt.NewAssembler(0), Config{})
	job := newJob(prompt.KindSummary)
	require.NoError(t, a.Run(context.Background(), job, model.Notebook{Name: "nb"}, testSources(), ""))
	require.Equal(t, model.JobStatusDone, job.Status)
	require.Equal(t, "a concise summary", job.Output)
	require.Empty(t, job.FailReason)
}

func TestRunProviderErrorFailsJob(t *testing.T) {
	perr := appErr.NewProviderError("openai", appErr.ProviderRateLimited, fmt.Errorf("429"))
	a := New(&scriptedGen{errs: []error{perr}}, nil, nil, prompt.NewAssembler(0), Config{})
	job := newJob(prompt.KindSummary)
	err := a.Run(context.Background(), job, model.Notebook{Name: "nb"}, testSources(), "")
	require.Error(t, err)
	require.Equal(t, model.JobStatusFailed, job.Status)
	require.Contains(t, job.FailReason, "rate_limited")

	// failed is terminal: a rerun is rejected without touching the reason
	require.Error(t, a.Run(context.Background(), job, model.Notebook{Name: "nb"}, testSources(), ""))
	require.Equal(t, model.JobStatusFailed, job.Status)
}

func TestRunMindmapValidMarkup(t *testing.T) {
	markup := "```mermaid\nmindmap\n  root((Topic))\n    Child A\n    Child B\n```"
	a := New(&scriptedGen{outputs: []string{markup}}, nil, nil, prompt.NewAssembler(0), Config{})
	job := newJob(prompt.KindMindmap)
	require.NoError(t, a.Run(context.Background(), job, model.Notebook{Name: "nb"}, testSources(), ""))
	require.Equal(t, model.JobStatusDone, job.Status)
	require.Equal(t, "mindmap\n  root((Topic))\n    Child A\n    Child B", job.Output)
}

func TestRunMindmapMalformedDegradesToRawText(t *testing.T) {
	raw := "sorry, here is a list instead:\n- a\n- b"
	a := New(&scriptedGen{outputs: []string{raw}}, nil, nil, prompt.NewAssembler(0), Config{})
	job := newJob(prompt.KindMindmap)
	require.NoError(t, a.Run(context.Background(), job, model.Notebook{Name: "nb"}, testSources(), ""))
	require.Equal(t, model.JobStatusDone, job.Status)
	require.Equal(t, raw, job.Output)
}

const deckOutput = `<STYLE_INSTRUCTIONS>flat, blue palette</STYLE_INSTRUCTIONS>
Slide 1: Opening
Narrative goal: set the scene
Key content: deadline overview
Slide 2: Detail
Narrative goal: the plan
Key content: project schedule
Slide 3: Close
Narrative goal: wrap up
Key content: next steps
`

func TestRunPPTPartialImageFailure(t *testing.T) {
	images := &fakeImages{failOn: map[int]bool{2: true}}
	a := New(&scriptedGen{outputs: []string{deckOutput}}, images, memSink{}, prompt.NewAssembler(0), Config{ImageParallel: 1})
	job := newJob(prompt.KindPPT)
	require.NoError(t, a.Run(context.Background(), job, model.Notebook{Name: "nb"}, testSources(), ""))

	require.Equal(t, model.JobStatusDone, job.Status, "per-asset failures must not fail the job")
	require.Len(t, job.Assets, 3)
	failed := 0
	succeeded := 0
	for _, asset := range job.Assets {
		if asset.ImageError != "" {
			failed++
			require.Empty(t, asset.ImageURL)
		} else {
			succeeded++
			require.Contains(t, asset.ImageURL, "/uploads/")
		}
	}
	require.Equal(t, 1, failed)
	require.Equal(t, 2, succeeded)
}

func TestRunPPTSlideCapSkipsImages(t *testing.T) {
	images := &fakeImages{}
	a := New(&scriptedGen{outputs: []string{deckOutput}}, images, memSink{}, prompt.NewAssembler(0), Config{MaxSlides: 2})
	job := newJob(prompt.KindPPT)
	require.NoError(t, a.Run(context.Background(), job, model.Notebook{Name: "nb"}, testSources(), ""))
	require.Equal(t, model.JobStatusDone, job.Status)
	require.Zero(t, images.calls)
	require.NotEmpty(t, job.ImageError)
	require.Len(t, job.Assets, 3)
}

func TestRunPPTWithoutImageProvider(t *testing.T) {
	a := New(&scriptedGen{outputs: []string{deckOutput}}, nil, nil, prompt.NewAssembler(0), Config{})
	job := newJob(prompt.KindPPT)
	require.NoError(t, a.Run(context.Background(), job, model.Notebook{Name: "nb"}, testSources(), ""))
	require.Equal(t, model.JobStatusDone, job.Status)
	for _, asset := range job.Assets {
		require.Empty(t, asset.ImageURL)
		require.Empty(t, asset.ImageError)
	}
}

func TestRunInfographSingleFigure(t *testing.T) {
	a := New(&scriptedGen{outputs: []string{"figure brief"}}, &fakeImages{}, memSink{}, prompt.NewAssembler(0), Config{})
	job := newJob(prompt.KindInfograph)
	require.NoError(t, a.Run(context.Background(), job, model.Notebook{Name: "nb"}, testSources(), ""))
	require.Len(t, job.Assets, 1)
	require.Contains(t, job.Assets[0].ImageURL, "/uploads/infograph")
}

func TestRunInsightSecondPass(t *testing.T) {
	gen := &scriptedGen{outputs: []string{"analysis summary", "deep insight report"}}
	a := New(gen, nil, nil, prompt.NewAssembler(0), Config{})
	job := newJob(prompt.KindInsight)
	require.NoError(t, a.Run(context.Background(), job, model.Notebook{Name: "nb"}, testSources(), ""))
	require.Equal(t, 2, gen.calls)
	require.Equal(t, "deep insight report", job.Output)
}

func TestRunInsightSecondPassFailure(t *testing.T) {
	perr := appErr.NewProviderError("openai", appErr.ProviderTimeout, context.DeadlineExceeded)
	gen := &scriptedGen{outputs: []string{"analysis summary", ""}, errs: []error{nil, perr}}
	a := New(gen, nil, nil, prompt.NewAssembler(0), Config{})
	job := newJob(prompt.KindInsight)
	require.Error(t, a.Run(context.Background(), job, model.Notebook{Name: "nb"}, testSources(), ""))
	require.Equal(t, model.JobStatusFailed, job.Status)
	require.Contains(t, job.FailReason, "timeout")
}
