package router

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"community_hub/internal/config"
	"community_hub/internal/middleware"
	"community_hub/internal/pkg"
	"community_hub/internal/repository/database/dbtest"
	"community_hub/internal/session"
)

// client 保存 cookie，并在非安全请求上自动带上 X-CSRFToken
type client struct {
	r       *gin.Engine
	cookies map[string]*http.Cookie
}

func testConfig() *config.Config {
	return &config.Config{
		GinMode:         gin.TestMode,
		SessionTTL:      time.Hour,
		CSRFEnabled:     true,
		CSRFSecret:      "test-secret",
		CSRFTTL:         time.Hour,
		CORSOrigins:     []string{"http://localhost:3000"},
		MaxIconBytes:    1024,
		LoginRatePerSec: 100,
		LoginBurst:      100,
	}
}

func newClient(t *testing.T, mutate func(*config.Config)) *client {
	t.Helper()
	cfg := testConfig()
	if mutate != nil {
		mutate(cfg)
	}
	log, _ := test.NewNullLogger()
	r := InitRouter(Deps{
		Config:   cfg,
		DB:       dbtest.New(t),
		Sessions: session.NewMemoryStore(cfg.SessionTTL),
		Metrics:  pkg.NewMetrics(),
		Log:      log,
	})
	return &client{r: r, cookies: map[string]*http.Cookie{}}
}

func (c *client) send(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	if req.Method != http.MethodGet && req.Header.Get(middleware.CSRFHeaderName) == "" {
		if ck, ok := c.cookies[middleware.CSRFCookieName]; ok {
			req.Header.Set(middleware.CSRFHeaderName, ck.Value)
		}
	}

	rec := httptest.NewRecorder()
	c.r.ServeHTTP(rec, req)

	for _, ck := range rec.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck
	}
	return rec
}

func (c *client) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(t, req)
}

func (c *client) createCommunity(t *testing.T, fields map[string]string, icon []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if icon != nil {
		fw, err := w.CreateFormFile("icon", "icon.png")
		require.NoError(t, err)
		_, err = fw.Write(icon)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/create_communities", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return c.send(t, req)
}

func (c *client) csrf(t *testing.T) {
	t.Helper()
	rec := c.do(t, http.MethodGet, "/get_csrf_token", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, c.cookies, middleware.CSRFCookieName)
}

func (c *client) signup(t *testing.T, name string) {
	t.Helper()
	c.csrf(t)
	rec := c.do(t, http.MethodPost, "/register", gin.H{"username": name, "user_id": name + "-id", "password": "secret"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = c.do(t, http.MethodPost, "/login", gin.H{"user_id": name + "-id", "password": "secret"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestAccountFlow(t *testing.T) {
	c := newClient(t, nil)

	rec := c.do(t, http.MethodGet, "/get_csrf_token", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, c.cookies[middleware.CSRFCookieName].Value, body["csrf_token"])
	assert.False(t, c.cookies[middleware.CSRFCookieName].HttpOnly)

	rec = c.do(t, http.MethodPost, "/register", gin.H{"username": "alice", "user_id": "alice-id", "password": "secret"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Account created successfully", decode[map[string]string](t, rec)["message"])
	assert.NotContains(t, rec.Body.String(), "secret")

	rec = c.do(t, http.MethodPost, "/register", gin.H{"username": "alice2", "user_id": "alice-id", "password": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = c.do(t, http.MethodPost, "/register", gin.H{"username": "", "user_id": "bob-id", "password": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = c.do(t, http.MethodPost, "/login", gin.H{"user_id": "alice-id", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotContains(t, c.cookies, middleware.SessionCookieName)

	rec = c.do(t, http.MethodGet, "/check_login", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "User is not logged in", decode[map[string]string](t, rec)["message"])

	rec = c.do(t, http.MethodPost, "/login", gin.H{"user_id": "alice-id", "password": "secret"})
	require.Equal(t, http.StatusOK, rec.Code)
	sess := c.cookies[middleware.SessionCookieName]
	require.NotNil(t, sess)
	assert.True(t, sess.HttpOnly)
	assert.NotEmpty(t, sess.Value)

	rec = c.do(t, http.MethodGet, "/check_login", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]string{"message": "User is logged in", "user": "alice-id"}, decode[map[string]string](t, rec))

	rec = c.do(t, http.MethodPost, "/logout", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, c.cookies, middleware.SessionCookieName)

	// 旧 cookie 也不再有效
	c.cookies[middleware.SessionCookieName] = sess
	rec = c.do(t, http.MethodGet, "/check_login", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCSRFProtection(t *testing.T) {
	c := newClient(t, nil)
	c.signup(t, "alice")

	req := httptest.NewRequest(http.MethodPost, "/api/community/1/join", nil)
	req.Header.Set(middleware.CSRFHeaderName, "forged")
	rec := c.send(t, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, pkg.ErrCSRFMismatch.Error(), decode[map[string]string](t, rec)["message"])

	delete(c.cookies, middleware.CSRFCookieName)
	rec = c.do(t, http.MethodPost, "/logout", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, pkg.ErrCSRFMissing.Error(), decode[map[string]string](t, rec)["message"])

	// register / login 不校验 CSRF
	rec = c.do(t, http.MethodPost, "/login", gin.H{"user_id": "alice-id", "password": "secret"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCSRFDisabled(t *testing.T) {
	c := newClient(t, func(cfg *config.Config) { cfg.CSRFEnabled = false })
	c.signup(t, "alice")
	delete(c.cookies, middleware.CSRFCookieName)

	rec := c.createCommunity(t, map[string]string{"name": "go", "description": "d", "rules": "r"}, nil)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCommunityFlow(t *testing.T) {
	c := newClient(t, nil)
	c.signup(t, "alice")

	icon := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a}
	rec := c.createCommunity(t, map[string]string{"name": "Gophers", "description": "all things go", "rules": "be kind"}, icon)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[map[string]any](t, rec)
	assert.Equal(t, "Community created successfully", created["message"])
	id := int(created["id"].(float64))
	base := "/api/community/" + strconv.Itoa(id)

	rec = c.createCommunity(t, map[string]string{"name": "Gophers", "description": "again", "rules": "r"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = c.createCommunity(t, map[string]string{"name": "Rustaceans", "description": "crabs"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = c.createCommunity(t, map[string]string{"name": "Big", "description": "d", "rules": "r"}, make([]byte, 2048))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = c.do(t, http.MethodGet, "/api/get_communities", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]map[string]any](t, rec)
	require.Len(t, list, 1)
	assert.NotContains(t, list[0], "members")
	assert.NotContains(t, list[0], "posts")

	rec = c.do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decode[map[string]any](t, rec)
	assert.Equal(t, base64.StdEncoding.EncodeToString(icon), detail["icon"])
	assert.Equal(t, "alice", detail["creator"].(map[string]any)["username"])
	assert.Equal(t, []any{}, detail["members"])
	assert.Equal(t, []any{}, detail["posts"])

	rec = c.do(t, http.MethodGet, base+"/membership", nil)
	assert.Equal(t, map[string]bool{"is_member": false}, decode[map[string]bool](t, rec))

	rec = c.do(t, http.MethodPost, base+"/join", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "You have successfully joined the community", decode[map[string]string](t, rec)["message"])

	rec = c.do(t, http.MethodPost, base+"/join", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = c.do(t, http.MethodGet, base+"/membership", nil)
	assert.Equal(t, map[string]bool{"is_member": true}, decode[map[string]bool](t, rec))

	rec = c.do(t, http.MethodPost, base+"/posts", gin.H{"content": "hello gophers"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	post := decode[map[string]any](t, rec)
	assert.Equal(t, "hello gophers", post["content"])
	assert.Equal(t, "alice", post["author"])
	_, err := time.Parse(time.RFC3339Nano, post["timestamp"].(string))
	assert.NoError(t, err)

	rec = c.do(t, http.MethodPost, base+"/posts", gin.H{"content": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Content is required", decode[map[string]string](t, rec)["message"])

	rec = c.do(t, http.MethodPost, base+"/posts", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Content is required", decode[map[string]string](t, rec)["message"])

	rec = c.do(t, http.MethodPost, base+"/posts", gin.H{"content": 5})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid params", decode[map[string]string](t, rec)["message"])

	rec = c.do(t, http.MethodGet, base, nil)
	detail = decode[map[string]any](t, rec)
	assert.Len(t, detail["members"], 1)
	assert.Len(t, detail["posts"], 1)

	rec = c.do(t, http.MethodGet, base+"?include_posts=false", nil)
	detail = decode[map[string]any](t, rec)
	assert.Contains(t, detail, "members")
	assert.NotContains(t, detail, "posts")

	rec = c.do(t, http.MethodGet, base+"?include_members=false&include_posts=true", nil)
	detail = decode[map[string]any](t, rec)
	assert.NotContains(t, detail, "members")
	assert.NotContains(t, detail, "posts")

	rec = c.do(t, http.MethodGet, base+"?include_members=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = c.do(t, http.MethodGet, "/api/community/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = c.do(t, http.MethodGet, "/api/community/999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = c.do(t, http.MethodPost, "/api/community/999/join", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = c.do(t, http.MethodPost, "/api/community/999/posts", gin.H{"content": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = c.do(t, http.MethodGet, "/api/search_communities?q=%20GOPH%20", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 1)

	rec = c.do(t, http.MethodGet, "/api/search_communities?q=rust", nil)
	assert.Len(t, decode[[]map[string]any](t, rec), 0)

	rec = c.do(t, http.MethodGet, "/api/my_communities", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 1)

	rec = c.do(t, http.MethodGet, "/api/notifications", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	notes := decode[[]map[string]any](t, rec)
	require.Len(t, notes, 1)
	assert.Equal(t, "Gophers", notes[0]["community_name"])
	assert.Equal(t, "hello gophers", notes[0]["content"])
}

func TestProtectedRoutesRequireLogin(t *testing.T) {
	c := newClient(t, nil)
	c.csrf(t)

	routes := []struct{ method, path string }{
		{http.MethodGet, "/check_login"},
		{http.MethodPost, "/logout"},
		{http.MethodPost, "/api/create_communities"},
		{http.MethodPost, "/api/community/1/posts"},
		{http.MethodPost, "/api/community/1/join"},
		{http.MethodGet, "/api/community/1/membership"},
		{http.MethodGet, "/api/my_communities"},
		{http.MethodGet, "/api/notifications"},
	}
	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			rec := c.do(t, rt.method, rt.path, nil)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}

	c.cookies[middleware.SessionCookieName] = &http.Cookie{Name: middleware.SessionCookieName, Value: "bogus"}
	rec := c.do(t, http.MethodGet, "/api/notifications", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginRateLimited(t *testing.T) {
	c := newClient(t, func(cfg *config.Config) {
		cfg.LoginRatePerSec = 0.001
		cfg.LoginBurst = 2
	})

	for i := 0; i < 2; i++ {
		rec := c.do(t, http.MethodPost, "/login", gin.H{"user_id": "nobody", "password": "x"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	rec := c.do(t, http.MethodPost, "/login", gin.H{"user_id": "nobody", "password": "x"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	c := newClient(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/create_communities", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := c.send(t, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestHealthzAndMetrics(t *testing.T) {
	c := newClient(t, nil)

	rec := c.do(t, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, rec)["status"])

	c.do(t, http.MethodGet, "/api/get_communities", nil)
	rec = c.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `http_requests_total{method="GET",path="/api/get_communities",status="200"} 1`)
}
