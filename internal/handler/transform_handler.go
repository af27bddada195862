package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Beeta/pynotex/internal/pkg/errcode"
	"github.com/Beeta/pynotex/internal/pkg/response"
	"github.com/Beeta/pynotex/internal/service"
)

type TransformHandler struct {
	transform *service.TransformService
}

func NewTransformHandler(transform *service.TransformService) *TransformHandler {
	return &TransformHandler{transform: transform}
}

type transformRequest struct {
	Kind      string   `json:"kind"`
	SourceIDs []string `json:"source_ids"`
	Extra     string   `json:"extra"`
}

func (h *TransformHandler) Start(c *gin.Context) {
	var req transformRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	job, err := h.transform.Start(c.Request.Context(), c.Param("id"), req.Kind, req.SourceIDs, req.Extra)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, job)
}

func (h *TransformHandler) Get(c *gin.Context) {
	job, err := h.transform.Get(c.Request.Context(), c.Param("id"), c.Param("jid"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, job)
}

func (h *TransformHandler) List(c *gin.Context) {
	list, err := h.transform.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, list)
}

func (h *TransformHandler) Kinds(c *gin.Context) {
	response.Success(c, gin.H{"kinds": h.transform.Kinds()})
}
