package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"taskboard/internal/domain"
	"taskboard/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRedisRateLimitFallsBackToLocal(t *testing.T) {
	SetRedisClient(nil)
	r := gin.New()
	r.POST("/login", RedisRateLimit(2, time.Minute), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	codes := []int{}
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{204, 204, 429}, codes)

	// another client has its own budget
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestUserRateLimitKeysOnSession(t *testing.T) {
	SetRedisClient(nil)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		SetSession(c, &domain.Session{ID: c.GetHeader("X-User")})
		c.Next()
	})
	r.POST("/tasks", UserRateLimit("tasks", 1, time.Minute), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	do := func(user string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/tasks", nil)
		req.Header.Set("X-User", user)
		r.ServeHTTP(w, req)
		return w.Code
	}
	assert.Equal(t, http.StatusNoContent, do("u1"))
	assert.Equal(t, http.StatusTooManyRequests, do("u1"))
	assert.Equal(t, http.StatusNoContent, do("u2"))
}

func TestRequireRole(t *testing.T) {
	store := session.NewCookieStore("secret", session.Options{})
	r := gin.New()
	r.Use(LoadSession(store))
	r.GET("/admin", RequireRole(domain.RoleAdmin), func(c *gin.Context) { c.String(http.StatusOK, "admin") })
	r.GET("/dashboard", RequireRole(""), func(c *gin.Context) { c.String(http.StatusOK, "dash") })

	get := func(path string, sess *domain.Session) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if sess != nil {
			rec := httptest.NewRecorder()
			require.NoError(t, store.Set(rec, req, sess))
			for _, c := range rec.Result().Cookies() {
				req.AddCookie(c)
			}
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := get("/dashboard", nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	user := &domain.Session{ID: "u1", Role: domain.RoleUser}
	w = get("/admin", user)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/dashboard", w.Header().Get("Location"))

	w = get("/dashboard", user)
	assert.Equal(t, http.StatusOK, w.Code)

	w = get("/admin", &domain.Session{ID: "a1", Role: domain.RoleAdmin})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestIDEchoesOrGenerates(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), AccessLog())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, RequestIDFrom(c)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, w.Header().Get("X-Request-ID"), 36)
	assert.Equal(t, w.Header().Get("X-Request-ID"), w.Body.String())

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Body.String())
}
