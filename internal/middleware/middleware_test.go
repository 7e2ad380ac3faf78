package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"community_hub/internal/pkg"
	"community_hub/internal/session"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestSessionAndRequireLogin(t *testing.T) {
	log, _ := test.NewNullLogger()
	store := session.NewMemoryStore(time.Hour)
	token, err := store.Create(context.Background(), 42)
	require.NoError(t, err)

	r := gin.New()
	r.Use(Session(store, log))
	r.GET("/me", RequireLogin(), func(c *gin.Context) {
		id, _ := UserID(c)
		c.JSON(http.StatusOK, gin.H{"id": id, "token": SessionToken(c)})
	})

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "unknown"})
	assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	rec = serve(r, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":42,"token":"`+token+`"}`, rec.Body.String())
}

// brokenStore 模拟会话存储故障
type brokenStore struct{ session.Store }

func (brokenStore) Get(context.Context, string) (uint64, error) {
	return 0, errors.New("connection refused")
}

func TestSessionStoreFailureIsServerError(t *testing.T) {
	log, hook := test.NewNullLogger()
	r := gin.New()
	r.Use(Session(brokenStore{}, log))
	r.GET("/me", RequireLogin(), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/public", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "tok"})
	rec := serve(r, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"session store unavailable"}`, rec.Body.String())
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)

	// 没有 cookie 时不访问存储
	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/public", nil)).Code)
}

func TestCSRFMiddleware(t *testing.T) {
	issuer := pkg.NewCSRFIssuer("secret", time.Hour)
	token, err := issuer.Generate()
	require.NoError(t, err)

	r := gin.New()
	r.Use(CSRF(issuer, "/login"))
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	r.GET("/read", ok)
	r.POST("/write", ok)
	r.POST("/login", ok)

	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/read", nil)).Code)
	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodPost, "/login", nil)).Code)
	assert.Equal(t, http.StatusBadRequest, serve(r, httptest.NewRequest(http.MethodPost, "/write", nil)).Code)

	req := httptest.NewRequest(http.MethodPost, "/write", nil)
	req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: token})
	req.Header.Set(CSRFHeaderName, token)
	assert.Equal(t, http.StatusOK, serve(r, req).Code)

	other, err := pkg.NewCSRFIssuer("other", time.Hour).Generate()
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodPost, "/write", nil)
	req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: other})
	req.Header.Set(CSRFHeaderName, other)
	assert.Equal(t, http.StatusBadRequest, serve(r, req).Code)
}

func TestRateLimiterPerClient(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	r := gin.New()
	r.POST("/login", rl.Handler(), func(c *gin.Context) { c.Status(http.StatusOK) })

	newReq := func(ip string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = ip + ":1234"
		return req
	}

	assert.Equal(t, http.StatusOK, serve(r, newReq("10.0.0.1")).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(r, newReq("10.0.0.1")).Code)
	assert.Equal(t, http.StatusOK, serve(r, newReq("10.0.0.2")).Code)
}

func TestLoggerFields(t *testing.T) {
	log, hook := test.NewNullLogger()
	r := gin.New()
	r.Use(Logger(log))
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })
	r.GET("/fine", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(r, httptest.NewRequest(http.MethodGet, "/fine", nil))
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)
	assert.Equal(t, "/fine", hook.LastEntry().Data["path"])
	assert.Equal(t, http.StatusOK, hook.LastEntry().Data["status"])

	serve(r, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}
