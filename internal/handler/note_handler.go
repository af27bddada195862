package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Beeta/pynotex/internal/pkg/response"
	"github.com/Beeta/pynotex/internal/repo"
)

type NoteHandler struct {
	notes *repo.NoteRepo
}

func NewNoteHandler(notes *repo.NoteRepo) *NoteHandler {
	return &NoteHandler{notes: notes}
}

func (h *NoteHandler) List(c *gin.Context) {
	list, err := h.notes.ListByNotebook(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, list)
}

func (h *NoteHandler) Get(c *gin.Context) {
	note, err := h.notes.GetByID(c.Request.Context(), c.Param("id"), c.Param("nid"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, note)
}

func (h *NoteHandler) Delete(c *gin.Context) {
	if err := h.notes.Delete(c.Request.Context(), c.Param("id"), c.Param("nid")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}
