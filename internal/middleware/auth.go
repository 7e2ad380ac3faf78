package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"community_hub/internal/session"
)

const (
	ContextUserIDKey  = "user_id"
	ContextSessionKey = "session_token"
	SessionCookieName = "session_id"
)

// Session 解析会话 cookie，有效时注入 user_id；无会话不拦截，由 RequireLogin 决定
func Session(store session.Store, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(SessionCookieName)
		if err != nil || token == "" {
			c.Next()
			return
		}

		userID, err := store.Get(c.Request.Context(), token)
		switch {
		case err == nil:
			c.Set(ContextUserIDKey, userID)
			c.Set(ContextSessionKey, token)
		case errors.Is(err, session.ErrSessionNotFound):
			// 过期或伪造的 cookie，按未登录处理
		default:
			// 存储故障不能当成未登录，否则会表现为大面积掉线
			log.WithError(err).Error("session lookup failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "session store unavailable"})
			return
		}
		c.Next()
	}
}

// RequireLogin 统一的登录校验
func RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := UserID(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "User is not logged in"})
			return
		}
		c.Next()
	}
}

func UserID(c *gin.Context) (uint64, bool) {
	if v, ok := c.Get(ContextUserIDKey); ok {
		if id, ok2 := v.(uint64); ok2 {
			return id, true
		}
	}
	return 0, false
}

func SessionToken(c *gin.Context) string {
	return c.GetString(ContextSessionKey)
}
