package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"community_hub/internal/pkg"
)

const (
	CSRFCookieName = "csrf_token"
	CSRFHeaderName = "X-CSRFToken"
)

// CSRF 非安全方法需要携带与 cookie 一致的 X-CSRFToken，exempt 中的路径跳过
func CSRF(issuer *pkg.CSRFIssuer, exempt ...string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(exempt))
	for _, p := range exempt {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
			c.Next()
			return
		}
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		cookie, _ := c.Cookie(CSRFCookieName)
		if err := issuer.Verify(c.GetHeader(CSRFHeaderName), cookie); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		c.Next()
	}
}
