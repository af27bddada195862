package filestore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/Beeta/pynotex/internal/config"
)

// Store persists binary blobs: uploaded source files and generated images.
type Store interface {
	Save(ctx context.Context, key string, r io.ReadSeeker, size int64) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	URL(key, baseURL string) string
}

type Factory func(args interface{}) (Store, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func Register(name string, factory Factory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registryMu.Lock()
	registry[key] = factory
	registryMu.Unlock()
}

func New(cfg config.FileStoreConfig) (Store, error) {
	key := strings.ToLower(strings.TrimSpace(cfg.Type))
	if key == "" {
		return nil, fmt.Errorf("file_store.type is required")
	}
	registryMu.RLock()
	factory := registry[key]
	registryMu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("unsupported file store type: %s", cfg.Type)
	}
	var args interface{}
	switch key {
	case "local":
		args = localConfig{Dir: cfg.Dir, PublicURL: cfg.PublicURL}
	case "s3":
		args = cfg.S3
	}
	return factory(args)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("store config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode store config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode store config: %w", err)
	}
	return nil
}

// ImageSaver adapts a Store to the byte-slice interface the transformation
// agent saves generated images through.
type ImageSaver struct {
	store   Store
	baseURL string
}

func NewImageSaver(store Store, baseURL string) *ImageSaver {
	return &ImageSaver{store: store, baseURL: baseURL}
}

func (s *ImageSaver) SaveImage(ctx context.Context, name string, data []byte) (string, error) {
	if err := s.store.Save(ctx, name, bytes.NewReader(data), int64(len(data))); err != nil {
		return "", err
	}
	return s.store.URL(name, s.baseURL), nil
}
