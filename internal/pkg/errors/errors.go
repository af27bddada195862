package errors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalid           = errors.New("invalid")
	ErrConflict          = errors.New("conflict")
	ErrInternal          = errors.New("internal")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrSessionBusy       = errors.New("session busy")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalid)
}

// ProviderKind classifies a failed language-model or image provider call.
type ProviderKind string

const (
	ProviderAuth        ProviderKind = "auth"
	ProviderRateLimited ProviderKind = "rate_limited"
	ProviderTimeout     ProviderKind = "timeout"
	ProviderTransient   ProviderKind = "transient"
)

// ProviderError carries the classification of a provider failure so callers can
// decide whether a resubmit makes sense. Timeout and rate_limited are retryable.
type ProviderError struct {
	Kind     ProviderKind
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func (e *ProviderError) Retryable() bool {
	return e.Kind == ProviderTimeout || e.Kind == ProviderRateLimited || e.Kind == ProviderTransient
}

func NewProviderError(provider string, kind ProviderKind, err error) *ProviderError {
	return &ProviderError{Kind: kind, Provider: provider, Err: err}
}

func AsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// ParseError marks structured provider output that could not be decoded
// (slide lists, diagram markup). Some kinds recover from it locally.
type ParseError struct {
	Kind string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s output: %v", e.Kind, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
