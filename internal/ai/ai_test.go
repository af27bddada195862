package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	appErr "github.com/Beeta/pynotex/internal/pkg/errors"
)

func TestClassifyKinds(t *testing.T) {
	tests := []struct {
		name   string
		status int
		err    error
		want   appErr.ProviderKind
	}{
		{"auth", http.StatusUnauthorized, errors.New("bad key"), appErr.ProviderAuth},
		{"forbidden", http.StatusForbidden, errors.New("no access"), appErr.ProviderAuth},
		{"rate", http.StatusTooManyRequests, errors.New("slow down"), appErr.ProviderRateLimited},
		{"gateway timeout", http.StatusGatewayTimeout, errors.New("late"), appErr.ProviderTimeout},
		{"deadline", 0, context.DeadlineExceeded, appErr.ProviderTimeout},
		{"other", http.StatusInternalServerError, errors.New("boom"), appErr.ProviderTransient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify("test", tt.status, tt.err)
			pe, ok := appErr.AsProviderError(err)
			require.True(t, ok)
			require.Equal(t, tt.want, pe.Kind)
			require.Equal(t, "test", pe.Provider)
		})
	}
	require.NoError(t, classify("test", 0, nil))
}

func TestCollectBuffersUntilTerminal(t *testing.T) {
	ch := make(chan Delta, 4)
	ch <- Delta{Text: "hello "}
	ch <- Delta{Text: "world"}
	close(ch)
	out, err := Collect(ch)
	require.NoError(t, err)
	require.Equal(t, "hello world", out)
}

func TestCollectSurfacesErrorDelta(t *testing.T) {
	ch := make(chan Delta, 2)
	ch <- Delta{Text: "partial"}
	ch <- Delta{Err: errors.New("stream broke")}
	close(ch)
	_, err := Collect(ch)
	require.Error(t, err)
}

type fakeGenerator struct {
	out string
	err error
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return f.out, f.err
}

func TestGroupGeneratorFallsBack(t *testing.T) {
	g := NewGroupGenerator([]GeneratorEntry{
		{Name: "broken", Generator: &fakeGenerator{err: fmt.Errorf("down")}},
		{Name: "working", Generator: &fakeGenerator{out: "answer"}},
	})
	out, err := g.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	require.Equal(t, "answer", out)
}

func TestGroupGeneratorAllFail(t *testing.T) {
	g := NewGroupGenerator([]GeneratorEntry{
		{Name: "a", Generator: &fakeGenerator{err: fmt.Errorf("a down")}},
		{Name: "b", Generator: &fakeGenerator{err: fmt.Errorf("b down")}},
	})
	_, err := g.Generate(context.Background(), "prompt")
	require.ErrorContains(t, err, "b down")
}

func TestNewProviderUnknown(t *testing.T) {
	_, err := NewProvider("nope", map[string]string{})
	require.Error(t, err)
	_, err = NewProvider("", nil)
	require.Error(t, err)
}

func TestOpenAIProviderRequiresKey(t *testing.T) {
	p, err := NewProvider("openai", map[string]string{})
	require.NoError(t, err)
	_, err = p.Generate(context.Background(), "gpt-4o-mini", "hi")
	require.ErrorIs(t, err, ErrUnavailable)
}
