package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Beeta/pynotex/internal/pkg/errcode"
	"github.com/Beeta/pynotex/internal/pkg/response"
	"github.com/Beeta/pynotex/internal/service"
)

type SourceHandler struct {
	sources   *service.SourceService
	maxUpload int64
}

func NewSourceHandler(sources *service.SourceService, maxUpload int64) *SourceHandler {
	return &SourceHandler{sources: sources, maxUpload: maxUpload}
}

type addSourceRequest struct {
	Name    string `json:"name"`
	Content string `json:"content"`
	URL     string `json:"url"`
}

// Add ingests a text or url source depending on which field is set.
func (h *SourceHandler) Add(c *gin.Context) {
	var req addSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	notebookID := c.Param("id")
	if req.URL != "" {
		src, err := h.sources.AddURL(c.Request.Context(), notebookID, req.URL)
		if err != nil {
			handleError(c, err)
			return
		}
		response.Success(c, src)
		return
	}
	src, err := h.sources.AddText(c.Request.Context(), notebookID, req.Name, req.Content)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, src)
}

func (h *SourceHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, errcode.ErrInvalid, "file field is required")
		return
	}
	if h.maxUpload > 0 && fileHeader.Size > h.maxUpload {
		response.Error(c, errcode.ErrUploadFailed, "file too large")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, errcode.ErrUploadFailed, "open upload failed")
		return
	}
	defer file.Close()

	src, err := h.sources.Upload(c.Request.Context(), c.Param("id"), fileHeader.Filename, file, fileHeader.Size)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, src)
}

func (h *SourceHandler) List(c *gin.Context) {
	list, err := h.sources.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, list)
}

func (h *SourceHandler) Get(c *gin.Context) {
	src, err := h.sources.Get(c.Request.Context(), c.Param("id"), c.Param("sid"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, src)
}

func (h *SourceHandler) Delete(c *gin.Context) {
	if err := h.sources.Delete(c.Request.Context(), c.Param("id"), c.Param("sid")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}
