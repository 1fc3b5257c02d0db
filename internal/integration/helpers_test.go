package integration

import (
	"bytes"
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"taskboard/internal/dataclient"
	"taskboard/internal/dataclient/datatest"
	"taskboard/internal/domain"
	httpserver "taskboard/internal/http"
	"taskboard/internal/http/handlers"
	"taskboard/internal/migrations"
	"taskboard/internal/repository"
	"taskboard/internal/service"
	"taskboard/internal/session"
	"taskboard/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
	domain.PasswordCost = bcrypt.MinCost
}

type stack struct {
	data *datatest.Server
	hub  *ws.Hub
	srv  *httptest.Server
}

// startStack runs the whole application against an in-memory data server.
// A nil pool leaves the audit trail off.
func startStack(t *testing.T, pool *pgxpool.Pool) *stack {
	t.Helper()
	data := datatest.Start(t)
	client := dataclient.New(data.URL(), 5*time.Second)
	users, tasks := client.Users(), client.Tasks()

	var store service.AuditStore
	if pool != nil {
		store = repository.NewAuditRepository(pool)
	}
	audit := service.NewAuditService(store)
	hub := ws.NewHub()
	t.Cleanup(hub.Close)

	sessions := session.NewCookieStore("integration-secret", session.Options{TTL: time.Hour})
	h := handlers.NewHandler(
		sessions,
		service.NewAuthService(users, audit, hub),
		service.NewTaskService(users, tasks, hub),
		service.NewAdminService(users, tasks, audit, hub),
		service.NewProfileService(users, tasks, audit, hub),
	)

	r := gin.New()
	require.NoError(t, httpserver.RegisterRoutes(r, httpserver.Deps{
		Handler:        h,
		Health:         handlers.NewHealthHandler(client, pool, nil, "integration"),
		Hub:            hub,
		Sessions:       sessions,
		AuthRateLimit:  50,
		AuthRateWindow: time.Minute,
		TaskRateLimit:  50,
		TaskRateWindow: time.Minute,
	}))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &stack{data: data, hub: hub, srv: srv}
}

func (s *stack) client(t *testing.T) *http.Client {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar, Timeout: 5 * time.Second}
}

func (s *stack) post(t *testing.T, c *http.Client, path string, form url.Values) string {
	t.Helper()
	resp, err := c.PostForm(s.srv.URL+path, form)
	require.NoError(t, err)
	defer resp.Body.Close()
	var b bytes.Buffer
	_, err = b.ReadFrom(resp.Body)
	require.NoError(t, err)
	return b.String()
}

func (s *stack) get(t *testing.T, c *http.Client, path string) string {
	t.Helper()
	resp, err := c.Get(s.srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	var b bytes.Buffer
	_, err = b.ReadFrom(resp.Body)
	require.NoError(t, err)
	return b.String()
}

// cookieHeader renders the client's cookies for a websocket handshake.
func (s *stack) cookieHeader(t *testing.T, c *http.Client) http.Header {
	u, err := url.Parse(s.srv.URL)
	require.NoError(t, err)
	var parts []string
	for _, ck := range c.Jar.Cookies(u) {
		parts = append(parts, ck.Name+"="+ck.Value)
	}
	return http.Header{"Cookie": {strings.Join(parts, "; ")}}
}

func (s *stack) seedAdmin(t *testing.T, email, password string) {
	t.Helper()
	u := domain.User{ID: "admin1", Name: "Root", Email: email, Role: domain.RoleAdmin, RegisteredAt: time.Now().UTC()}
	require.NoError(t, u.SetPassword(password))
	s.data.Seed(dataclient.CollectionUsers, u)
}

// openDB connects to DATABASE_URL and applies the embedded migrations, or skips the test.
func openDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	migs, err := migrations.All()
	require.NoError(t, err)
	for _, m := range migs {
		_, err := pool.Exec(context.Background(), m.SQL)
		require.NoError(t, err, "apply migration %s", m.Name)
	}
	return pool
}
