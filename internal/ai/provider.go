// Package ai abstracts the language-model and image providers behind small
// call contracts. Concrete providers register themselves by name; the rest
// of the system only sees IGenerator and IImageGenerator.
package ai

import (
	"context"
	"fmt"
	"strings"
)

type IProvider interface {
	Name() string
	Generate(ctx context.Context, model string, prompt string) (string, error)
}

// IStreamProvider is implemented by providers that can deliver the response
// as a lazy, finite sequence of text deltas. The sequence is not
// restartable; consumers buffer it with Collect before structured
// post-processing.
type IStreamProvider interface {
	GenerateStream(ctx context.Context, model string, prompt string) (<-chan Delta, error)
}

type IImageProvider interface {
	Name() string
	GenerateImage(ctx context.Context, model string, prompt string) ([]byte, error)
}

type IGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type IImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)
}

// Delta is one streamed fragment. A Delta with Err set terminates the
// sequence; the channel is closed after the terminal signal.
type Delta struct {
	Text string
	Err  error
}

// Collect buffers a delta sequence until its terminal signal.
func Collect(ch <-chan Delta) (string, error) {
	var sb strings.Builder
	for d := range ch {
		if d.Err != nil {
			return "", d.Err
		}
		sb.WriteString(d.Text)
	}
	return sb.String(), nil
}

type generator struct {
	provider IProvider
	model    string
}

func NewGenerator(p IProvider, model string) IGenerator {
	return &generator{provider: p, model: model}
}

// Generate prefers the delta stream when the provider offers one, buffering
// it to a full response before any structured post-processing happens.
func (g *generator) Generate(ctx context.Context, prompt string) (string, error) {
	if sp, ok := g.provider.(IStreamProvider); ok {
		ch, err := sp.GenerateStream(ctx, g.model, prompt)
		if err != nil {
			return "", err
		}
		return Collect(ch)
	}
	return g.provider.Generate(ctx, g.model, prompt)
}

type imageGenerator struct {
	provider IImageProvider
	model    string
}

func NewImageGenerator(p IImageProvider, model string) IImageGenerator {
	return &imageGenerator{provider: p, model: model}
}

func (g *imageGenerator) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	return g.provider.GenerateImage(ctx, g.model, prompt)
}

type ProviderFactory func(args interface{}) (IProvider, error)

type ImageFactory func(args interface{}) (IImageProvider, error)

var (
	registry      = map[string]ProviderFactory{}
	imageRegistry = map[string]ImageFactory{}
)

func Register(name string, factory ProviderFactory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registry[key] = factory
}

func RegisterImage(name string, factory ImageFactory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	imageRegistry[key] = factory
}

func NewProvider(name string, args interface{}) (IProvider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	factory := registry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported ai provider: %s", name)
	}
	return factory(args)
}

func NewImageProvider(name string, args interface{}) (IImageProvider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("image provider name is required")
	}
	factory := imageRegistry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported image provider: %s", name)
	}
	return factory(args)
}
