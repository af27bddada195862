// Package response writes the API envelope: {"code": 0, ...} on success,
// a non-zero errcode plus message on failure, always with HTTP 200.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/webapi/proxyutil"
)

// apiError satisfies the coded-error shape proxyutil picks the envelope
// code from.
type apiError struct {
	code    int
	message string
}

func (e apiError) Error() string { return e.message }

func (e apiError) Code() uint32 { return uint32(e.code) }

func Success(c *gin.Context, data interface{}) {
	proxyutil.SuccessJson(c, data)
}

func Error(c *gin.Context, code int, message string) {
	proxyutil.FailJson(c, http.StatusOK, apiError{code: code, message: message})
}
