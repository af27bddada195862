package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/Beeta/pynotex/internal/ai"
	"github.com/Beeta/pynotex/internal/pkg/errcode"
	appErr "github.com/Beeta/pynotex/internal/pkg/errors"
	"github.com/Beeta/pynotex/internal/pkg/response"
)

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err))
	switch {
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, errcode.ErrNotFound, "not found")
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, errcode.ErrInvalid, "invalid request")
	case errors.Is(err, appErr.ErrConflict):
		response.Error(c, errcode.ErrConflict, "conflict")
	case errors.Is(err, appErr.ErrSessionBusy):
		response.Error(c, errcode.ErrSessionBusy, "a turn is already in flight for this session")
	case errors.Is(err, appErr.ErrUnsupportedFormat):
		response.Error(c, errcode.ErrUnsupportedFormat, "unsupported source format")
	case errors.Is(err, ai.ErrUnavailable):
		response.Error(c, errcode.ErrProviderUnavailable, "no provider available")
	default:
		if pe, ok := appErr.AsProviderError(err); ok {
			response.Error(c, errcode.ErrProviderFailed, "provider error: "+string(pe.Kind))
			return
		}
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}
