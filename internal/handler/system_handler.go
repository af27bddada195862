package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Beeta/pynotex/internal/config"
	"github.com/Beeta/pynotex/internal/pkg/response"
	"github.com/Beeta/pynotex/internal/prompt"
)

// SystemHandler exposes liveness and the non-secret parts of the runtime
// configuration for frontends.
type SystemHandler struct {
	cfg *config.Config
}

func NewSystemHandler(cfg *config.Config) *SystemHandler {
	return &SystemHandler{cfg: cfg}
}

func (h *SystemHandler) Health(c *gin.Context) {
	response.Success(c, gin.H{"status": "ok"})
}

func (h *SystemHandler) Config(c *gin.Context) {
	kinds := make([]string, 0, len(prompt.Kinds))
	for _, k := range prompt.Kinds {
		kinds = append(kinds, string(k))
	}
	providers := make([]string, 0, len(h.cfg.Providers))
	for _, p := range h.cfg.Providers {
		providers = append(providers, p.Name)
	}
	response.Success(c, gin.H{
		"kinds":            kinds,
		"providers":        providers,
		"chunk_size":       h.cfg.Chunk.Size,
		"chunk_overlap":    h.cfg.Chunk.Overlap,
		"retrieve_top_k":   h.cfg.Retrieve.TopK,
		"upload_max_bytes": h.cfg.Upload.MaxBytes,
	})
}
