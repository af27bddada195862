package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Beeta/pynotex/internal/pkg/errcode"
	"github.com/Beeta/pynotex/internal/pkg/response"
	"github.com/Beeta/pynotex/internal/service"
)

type ChatHandler struct {
	chats *service.ChatService
}

func NewChatHandler(chats *service.ChatService) *ChatHandler {
	return &ChatHandler{chats: chats}
}

type createSessionRequest struct {
	Title string `json:"title"`
}

func (h *ChatHandler) CreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	session, err := h.chats.CreateSession(c.Request.Context(), c.Param("id"), req.Title)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, session)
}

func (h *ChatHandler) ListSessions(c *gin.Context) {
	list, err := h.chats.ListSessions(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, list)
}

func (h *ChatHandler) GetSession(c *gin.Context) {
	session, err := h.chats.GetSession(c.Request.Context(), c.Param("id"), c.Param("sid"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, session)
}

func (h *ChatHandler) DeleteSession(c *gin.Context) {
	if err := h.chats.DeleteSession(c.Request.Context(), c.Param("id"), c.Param("sid")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}

type askRequest struct {
	Question string `json:"question"`
}

func (h *ChatHandler) Ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	answer, err := h.chats.Ask(c.Request.Context(), c.Param("id"), c.Param("sid"), req.Question)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, answer)
}
