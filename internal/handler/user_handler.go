package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"community_hub/internal/middleware"
	"community_hub/internal/pkg"
	"community_hub/internal/service"
)

// CookieOptions 会话/CSRF cookie 的公共属性
type CookieOptions struct {
	Secure     bool
	SessionTTL time.Duration
}

func (o CookieOptions) sameSite() http.SameSite {
	// 前端跨站部署时浏览器要求 SameSite=None 必须配合 Secure
	if o.Secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

type UserHandler struct {
	svc     *service.UserService
	csrf    *pkg.CSRFIssuer
	cookies CookieOptions
	log     logrus.FieldLogger
}

type RegisterReq struct {
	Username string `json:"username"`
	UserID   string `json:"user_id"`
	Password string `json:"password"`
}

type LoginReq struct {
	UserID   string `json:"user_id"`
	Password string `json:"password"`
}

func NewUserHandler(svc *service.UserService, csrf *pkg.CSRFIssuer, cookies CookieOptions, log logrus.FieldLogger) *UserHandler {
	return &UserHandler{svc: svc, csrf: csrf, cookies: cookies, log: log}
}

// Register 注册
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid params"})
		return
	}

	if err := h.svc.Register(c.Request.Context(), req.Username, req.UserID, req.Password); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Account created successfully"})
}

// Login 登录成功后下发 session cookie
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid params"})
		return
	}

	token, _, err := h.svc.Login(c.Request.Context(), req.UserID, req.Password)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.SetSameSite(h.cookies.sameSite())
	c.SetCookie(middleware.SessionCookieName, token, int(h.cookies.SessionTTL.Seconds()), "/", "", h.cookies.Secure, true)
	c.JSON(http.StatusOK, gin.H{"message": "Login successful"})
}

// Logout 删除服务端会话并清理 cookie
func (h *UserHandler) Logout(c *gin.Context) {
	if err := h.svc.Logout(c.Request.Context(), middleware.SessionToken(c)); err != nil {
		writeError(c, h.log, err)
		return
	}

	c.SetSameSite(h.cookies.sameSite())
	c.SetCookie(middleware.SessionCookieName, "", -1, "/", "", h.cookies.Secure, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logout successful"})
}

func (h *UserHandler) CheckLogin(c *gin.Context) {
	user, err := h.svc.Current(c.Request.Context(), currentUserID(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	ext := ""
	if user.ExternalID != nil {
		ext = *user.ExternalID
	}
	c.JSON(http.StatusOK, gin.H{"message": "User is logged in", "user": ext})
}

// CSRFToken 前端需要读取 cookie 中的 token，因此不设置 HttpOnly
func (h *UserHandler) CSRFToken(c *gin.Context) {
	token, err := h.csrf.Generate()
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.SetSameSite(h.cookies.sameSite())
	c.SetCookie(middleware.CSRFCookieName, token, int(h.csrf.TTL().Seconds()), "/", "", h.cookies.Secure, false)
	c.JSON(http.StatusOK, gin.H{"csrf_token": token})
}
