package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	corsMethods = "GET, POST, PUT, DELETE, OPTIONS"
	corsHeaders = "Content-Type, X-Request-Id"
)

// CORS answers cross-origin requests. An empty allowlist opens the API to
// any origin; otherwise only listed origins get the grant headers.
func CORS(allowlist []string) gin.HandlerFunc {
	allowed := make(map[string]struct{})
	for _, origin := range allowlist {
		if o := strings.TrimSpace(origin); o != "" {
			allowed[o] = struct{}{}
		}
	}
	return func(c *gin.Context) {
		h := c.Writer.Header()
		if len(allowed) == 0 {
			grant(h, "*")
		} else if origin := c.GetHeader("Origin"); origin != "" {
			h.Set("Vary", "Origin")
			if _, ok := allowed[origin]; ok {
				grant(h, origin)
			}
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func grant(h http.Header, origin string) {
	h.Set("Access-Control-Allow-Origin", origin)
	h.Set("Access-Control-Allow-Methods", corsMethods)
	h.Set("Access-Control-Allow-Headers", corsHeaders)
}
