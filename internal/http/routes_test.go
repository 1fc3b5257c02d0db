package http_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"taskboard/internal/dataclient"
	"taskboard/internal/dataclient/datatest"
	"taskboard/internal/domain"
	httpserver "taskboard/internal/http"
	"taskboard/internal/http/handlers"
	"taskboard/internal/service"
	"taskboard/internal/session"
	"taskboard/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
	domain.PasswordCost = bcrypt.MinCost
}

type app struct {
	data *datatest.Server
	srv  *httptest.Server
}

func newApp(t *testing.T) *app {
	t.Helper()
	return newAppWith(t, session.NewCookieStore("test-secret", session.Options{}))
}

func newAppWith(t *testing.T, sessions session.Store) *app {
	t.Helper()
	data := datatest.Start(t)
	client := dataclient.New(data.URL(), 5*time.Second)
	users, tasks := client.Users(), client.Tasks()

	hub := ws.NewHub()
	t.Cleanup(hub.Close)
	audit := service.NewAuditService(nil)

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
		Health:         handlers.NewHealthHandler(client, nil, nil, "test"),
		Hub:            hub,
		Sessions:       sessions,
		AuthRateLimit:  100,
		AuthRateWindow: time.Minute,
		TaskRateLimit:  100,
		TaskRateWindow: time.Minute,
	}))

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &app{data: data, srv: srv}
}

func (a *app) seedUser(t *testing.T, id, name, email, password string, role domain.Role) {
	t.Helper()
	u := domain.User{ID: id, Name: name, Email: email, Role: role, RegisteredAt: time.Now().UTC()}
	require.NoError(t, u.SetPassword(password))
	a.data.Seed(dataclient.CollectionUsers, u)
}

// browser keeps cookies across requests and follows redirects.
type browser struct {
	t      *testing.T
	base   string
	client *http.Client
}

func (a *app) browser(t *testing.T) *browser {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &browser{t: t, base: a.srv.URL, client: &http.Client{Jar: jar}}
}

// noFollow returns a browser sharing the cookies that stops at the first redirect.
func (b *browser) noFollow() *browser {
	c := *b.client
	c.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }
	return &browser{t: b.t, base: b.base, client: &c}
}

func (b *browser) get(path string) (int, string) {
	b.t.Helper()
	resp, err := b.client.Get(b.base + path)
	require.NoError(b.t, err)
	return read(b.t, resp)
}

func (b *browser) post(path string, form url.Values) (int, string) {
	b.t.Helper()
	resp, err := b.client.PostForm(b.base+path, form)
	require.NoError(b.t, err)
	return read(b.t, resp)
}

func (b *browser) location(method, path string, form url.Values) string {
	b.t.Helper()
	nf := b.noFollow()
	var (
		resp *http.Response
		err  error
	)
	if method == http.MethodPost {
		resp, err = nf.client.PostForm(b.base+path, form)
	} else {
		resp, err = nf.client.Get(b.base + path)
	}
	require.NoError(b.t, err)
	defer resp.Body.Close()
	require.Equal(b.t, http.StatusSeeOther, resp.StatusCode)
	return resp.Header.Get("Location")
}

func (b *browser) login(email, password string) string {
	b.t.Helper()
	_, body := b.post("/login", url.Values{"email": {email}, "password": {password}})
	return body
}

func read(t *testing.T, resp *http.Response) (int, string) {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(b)
}

// memSessions keeps sessions server-side keyed by the cookie value, like RedisStore.
type memSessions struct {
	mu   sync.Mutex
	next int
	byID map[string]domain.Session
}

func newMemSessions() *memSessions {
	return &memSessions{byID: make(map[string]domain.Session)}
}

func (m *memSessions) Get(r *http.Request) (*domain.Session, error) {
	c, err := r.Cookie(session.CookieName)
	if err != nil {
		return nil, session.ErrNoSession
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[c.Value]
	if !ok {
		return nil, session.ErrNoSession
	}
	return &s, nil
}

func (m *memSessions) Set(w http.ResponseWriter, r *http.Request, s *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var id string
	if c, err := r.Cookie(session.CookieName); err == nil {
		id = c.Value
	} else {
		id = m.mint()
	}
	m.put(w, id, s)
	return nil
}

func (m *memSessions) Rotate(w http.ResponseWriter, r *http.Request, s *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, err := r.Cookie(session.CookieName); err == nil {
		delete(m.byID, c.Value)
	}
	m.put(w, m.mint(), s)
	return nil
}

func (m *memSessions) Clear(w http.ResponseWriter, r *http.Request) error {
	http.SetCookie(w, &http.Cookie{Name: session.CookieName, Path: "/", MaxAge: -1})
	if c, err := r.Cookie(session.CookieName); err == nil {
		m.mu.Lock()
		delete(m.byID, c.Value)
		m.mu.Unlock()
	}
	return nil
}

func (m *memSessions) mint() string {
	m.next++
	return fmt.Sprintf("sid-%d", m.next)
}

func (m *memSessions) put(w http.ResponseWriter, id string, s *domain.Session) {
	m.byID[id] = *s
	http.SetCookie(w, &http.Cookie{Name: session.CookieName, Value: id, Path: "/", HttpOnly: true})
}

func (m *memSessions) has(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.byID[id]
	return ok
}

func (b *browser) cookie(name string) string {
	u, err := url.Parse(b.base)
	require.NoError(b.t, err)
	for _, c := range b.client.Jar.Cookies(u) {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

func (a *app) tasks(t *testing.T) []domain.Task {
	var out []domain.Task
	a.data.Records(dataclient.CollectionTasks, &out)
	return out
}

func TestAnonymousVisitorIsSentToLogin(t *testing.T) {
	a := newApp(t)
	b := a.browser(t)

	for _, path := range []string{"/", "/dashboard", "/profile", "/admin"} {
		assert.Equal(t, "/login", b.location(http.MethodGet, path, nil), path)
	}
}

func TestRegisterLoginAndManageTasks(t *testing.T) {
	a := newApp(t)
	b := a.browser(t)

	status, body := b.post("/register", url.Values{
		"name": {"Ana Lima"}, "email": {"ana@example.com"}, "password": {"secret123"},
	})
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Registration successful")

	body = b.login("ana@example.com", "secret123")
	assert.Contains(t, body, "Welcome, Ana Lima!")
	assert.Contains(t, body, "No tasks to show")

	_, body = b.post("/tasks", url.Values{
		"title": {"  Write report "}, "dueDate": {"2024-05-01"}, "priority": {"high"}, "description": {"Q2"},
	})
	assert.Contains(t, body, "Task created.")
	assert.Contains(t, body, "Write report")
	assert.Contains(t, body, "01/05/2024")

	stored := a.tasks(t)
	require.Len(t, stored, 1)
	assert.Equal(t, "Write report", stored[0].Title)
	assert.Equal(t, domain.StatusPending, stored[0].Status)

	_, body = b.post("/tasks/"+stored[0].ID+"/toggle", url.Values{"filter": {"completed"}})
	assert.Contains(t, body, "Task completed.")
	assert.Equal(t, domain.StatusCompleted, a.tasks(t)[0].Status)

	_, body = b.get("/dashboard?filter=pending")
	assert.Contains(t, body, "No tasks to show")

	_, body = b.get("/dashboard?q=REPORT")
	assert.Contains(t, body, "Write report")

	_, body = b.post("/tasks/"+stored[0].ID+"/delete", url.Values{"confirm": {"yes"}})
	assert.Contains(t, body, "Task deleted.")
	assert.Empty(t, a.tasks(t))
}

func TestCreateTaskValidationKeepsForm(t *testing.T) {
	a := newApp(t)
	a.seedUser(t, "u1", "Ana", "ana@example.com", "secret123", domain.RoleUser)
	b := a.browser(t)
	b.login("ana@example.com", "secret123")

	status, body := b.post("/tasks", url.Values{"title": {"Plan"}, "dueDate": {"01/05/2024"}, "description": {"keep me"}})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, body, "Invalid date format, use YYYY-MM-DD.")
	assert.Contains(t, body, "keep me")
	assert.Empty(t, a.tasks(t))
}

func TestLoginErrors(t *testing.T) {
	a := newApp(t)
	a.seedUser(t, "u1", "Ana", "ana@example.com", "secret123", domain.RoleUser)
	b := a.browser(t)

	status, body := b.post("/login", url.Values{"email": {"nobody@example.com"}, "password": {"secret123"}})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, body, "Email not registered.")

	status, body = b.post("/login", url.Values{"email": {"ana@example.com"}, "password": {"wrong-one"}})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, body, "Incorrect password.")
	assert.Contains(t, body, `value="ana@example.com"`)
}

func TestRoleRouting(t *testing.T) {
	a := newApp(t)
	a.seedUser(t, "u1", "Ana", "ana@example.com", "secret123", domain.RoleUser)
	a.seedUser(t, "a1", "Root", "root@example.com", "secret123", domain.RoleAdmin)

	user := a.browser(t)
	user.login("ana@example.com", "secret123")
	assert.Equal(t, "/dashboard", user.location(http.MethodGet, "/admin", nil))
	assert.Equal(t, "/dashboard", user.location(http.MethodGet, "/login", nil))

	admin := a.browser(t)
	body := admin.login("root@example.com", "secret123")
	assert.Contains(t, body, "Welcome, Root!")
	assert.Contains(t, body, "Recent activity")
	assert.Contains(t, body, "ana@example.com")
	assert.Equal(t, "/admin", admin.location(http.MethodGet, "/", nil))
}

func TestLoginIssuesFreshSessionID(t *testing.T) {
	sessions := newMemSessions()
	a := newAppWith(t, sessions)
	a.seedUser(t, "u1", "Ana", "ana@example.com", "secret123", domain.RoleUser)
	b := a.browser(t)

	// an id chosen by someone else and planted in the victim's browser
	planted := "sid-planted"
	u, err := url.Parse(b.base)
	require.NoError(t, err)
	b.client.Jar.SetCookies(u, []*http.Cookie{{Name: session.CookieName, Value: planted, Path: "/"}})

	body := b.login("ana@example.com", "secret123")
	assert.Contains(t, body, "Welcome, Ana!")

	first := b.cookie(session.CookieName)
	assert.NotEmpty(t, first)
	assert.NotEqual(t, planted, first)
	assert.False(t, sessions.has(planted))
	assert.True(t, sessions.has(first))

	// a second login rotates again
	b.login("ana@example.com", "secret123")
	second := b.cookie(session.CookieName)
	assert.NotEqual(t, first, second)
	assert.False(t, sessions.has(first))
}

func TestCookieSessionChangesAcrossLogin(t *testing.T) {
	a := newApp(t)
	a.seedUser(t, "u1", "Ana", "ana@example.com", "secret123", domain.RoleUser)
	b := a.browser(t)
	u, err := url.Parse(b.base)
	require.NoError(t, err)
	b.client.Jar.SetCookies(u, []*http.Cookie{{Name: session.CookieName, Value: "planted", Path: "/"}})

	b.login("ana@example.com", "secret123")
	assert.NotEqual(t, "planted", b.cookie(session.CookieName))
	assert.Equal(t, "/dashboard", b.location(http.MethodGet, "/", nil))
}

func TestStaleSessionCannotCreateTasks(t *testing.T) {
	a := newApp(t)
	a.seedUser(t, "u1", "Ana", "ana@example.com", "secret123", domain.RoleUser)
	b := a.browser(t)
	b.login("ana@example.com", "secret123")

	// the account disappears while the browser still holds a valid session
	users := dataclient.New(a.data.URL(), 5*time.Second).Users()
	require.NoError(t, users.Delete(context.Background(), "u1"))

	assert.Equal(t, "/login", b.location(http.MethodPost, "/tasks", url.Values{"title": {"Orphan"}, "dueDate": {"2024-05-01"}}))
	assert.Empty(t, a.tasks(t))
	assert.Equal(t, "/login", b.location(http.MethodGet, "/dashboard", nil))
}

func TestAdminFiltersSurviveUserSearch(t *testing.T) {
	a := newApp(t)
	a.seedUser(t, "u1", "Ana", "ana@example.com", "secret123", domain.RoleUser)
	a.seedUser(t, "a1", "Root", "root@example.com", "secret123", domain.RoleAdmin)
	admin := a.browser(t)
	admin.login("root@example.com", "secret123")

	_, body := admin.get("/admin?owner=u1&status=pending&q=ana")
	assert.Contains(t, body, "Tasks of Ana")
	// both the user search and the task filter forms carry the owner forward
	assert.Equal(t, 2, strings.Count(body, `<input type="hidden" name="owner" value="u1">`))
	assert.Contains(t, body, `<input type="hidden" name="q" value="ana">`)
	// no audit store configured
	assert.NotContains(t, body, "Audit trail")
}

func TestLogoutClearsSession(t *testing.T) {
	a := newApp(t)
	a.seedUser(t, "u1", "Ana", "ana@example.com", "secret123", domain.RoleUser)
	b := a.browser(t)
	b.login("ana@example.com", "secret123")

	_, body := b.post("/logout", nil)
	assert.Contains(t, body, "You have been logged out.")
	assert.Equal(t, "/login", b.location(http.MethodGet, "/dashboard", nil))
}

func TestAdminDeletesUserWithTasks(t *testing.T) {
	a := newApp(t)
	a.seedUser(t, "u1", "Ana", "ana@example.com", "secret123", domain.RoleUser)
	a.seedUser(t, "u2", "Bea", "bea@example.com", "secret123", domain.RoleUser)
	a.seedUser(t, "a1", "Root", "root@example.com", "secret123", domain.RoleAdmin)
	for _, task := range []domain.Task{
		{ID: "t1", Title: "Ana one", DueDate: "2024-01-01", Priority: domain.PriorityLow, Status: domain.StatusPending, OwnerUserID: "u1"},
		{ID: "t2", Title: "Ana two", DueDate: "2024-01-02", Priority: domain.PriorityLow, Status: domain.StatusCompleted, OwnerUserID: "u1"},
		{ID: "t3", Title: "Bea one", DueDate: "2024-01-03", Priority: domain.PriorityLow, Status: domain.StatusPending, OwnerUserID: "u2"},
	} {
		a.data.Seed(dataclient.CollectionTasks, task)
	}

	admin := a.browser(t)
	admin.login("root@example.com", "secret123")

	_, body := admin.get("/admin?owner=u1")
	assert.Contains(t, body, "Tasks of Ana")
	assert.Contains(t, body, "Ana two")
	assert.NotContains(t, body, "Bea one")

	_, body = admin.get("/admin/users/u1/delete")
	assert.Contains(t, body, "ana@example.com")

	_, body = admin.post("/admin/users/u1/delete", url.Values{"confirm": {"yes"}})
	assert.Contains(t, body, "User deleted together with 2 task(s).")

	remaining := a.tasks(t)
	require.Len(t, remaining, 1)
	assert.Equal(t, "t3", remaining[0].ID)

	// admins cannot be removed from the dashboard
	_, body = admin.get("/admin/users/a1/delete")
	assert.Contains(t, body, "Admin accounts cannot be deleted here.")
}

func TestAdminDeleteKeepsUserOnPartialFailure(t *testing.T) {
	a := newApp(t)
	a.seedUser(t, "u1", "Ana", "ana@example.com", "secret123", domain.RoleUser)
	a.seedUser(t, "a1", "Root", "root@example.com", "secret123", domain.RoleAdmin)
	a.data.Seed(dataclient.CollectionTasks, domain.Task{ID: "t1", Title: "One", DueDate: "2024-01-01", Status: domain.StatusPending, OwnerUserID: "u1"})
	a.data.Seed(dataclient.CollectionTasks, domain.Task{ID: "t2", Title: "Two", DueDate: "2024-01-01", Status: domain.StatusPending, OwnerUserID: "u1"})

	admin := a.browser(t)
	admin.login("root@example.com", "secret123")
	a.data.Fail(http.MethodDelete, dataclient.CollectionTasks, "t2", 1)

	_, body := admin.post("/admin/users/u1/delete", url.Values{"confirm": {"yes"}})
	assert.Contains(t, body, "1 task(s) could not be deleted, so the user was kept.")

	var users []domain.User
	a.data.Records(dataclient.CollectionUsers, &users)
	assert.Len(t, users, 2)
	assert.Len(t, a.tasks(t), 1)
}

func TestProfileUpdateRefreshesHeader(t *testing.T) {
	a := newApp(t)
	a.seedUser(t, "u1", "Ana", "ana@example.com", "secret123", domain.RoleUser)
	b := a.browser(t)
	b.login("ana@example.com", "secret123")

	status, body := b.post("/profile", url.Values{
		"name": {"Ana Maria"}, "email": {"ana@example.com"}, "currentPassword": {"secret123"},
	})
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Profile updated.")
	assert.Contains(t, body, `<span class="who">Ana Maria</span>`)

	status, body = b.post("/profile", url.Values{
		"name": {"Ana Maria"}, "email": {"ana@example.com"},
		"currentPassword": {"nope"}, "newPassword": {"another123"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, body, "Current password is incorrect.")
}

func TestDeleteOwnAccount(t *testing.T) {
	a := newApp(t)
	a.seedUser(t, "u1", "Ana", "ana@example.com", "secret123", domain.RoleUser)
	a.data.Seed(dataclient.CollectionTasks, domain.Task{ID: "t1", Title: "One", DueDate: "2024-01-01", Status: domain.StatusPending, OwnerUserID: "u1"})
	b := a.browser(t)
	b.login("ana@example.com", "secret123")

	status, body := b.post("/profile/delete", url.Values{"confirm": {"yes"}, "email": {"other@example.com"}})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, body, "Email does not match.")

	_, body = b.post("/profile/delete", url.Values{"confirm": {"yes"}, "email": {"ana@example.com"}})
	assert.Contains(t, body, "Your account has been deleted.")
	assert.Empty(t, a.tasks(t))
	assert.Equal(t, "/login", b.location(http.MethodGet, "/dashboard", nil))
}

func TestDataServerDownShowsConnectionError(t *testing.T) {
	a := newApp(t)
	a.seedUser(t, "u1", "Ana", "ana@example.com", "secret123", domain.RoleUser)
	b := a.browser(t)
	b.login("ana@example.com", "secret123")

	a.data.Fail(http.MethodGet, dataclient.CollectionTasks, "", 1)
	status, body := b.get("/dashboard")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Contains(t, body, "Connection error. Please try again.")
}

func TestHealthEndpoints(t *testing.T) {
	a := newApp(t)
	b := a.browser(t)

	status, _ := b.get("/healthz")
	assert.Equal(t, http.StatusOK, status)

	status, body := b.get("/readyz")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `"data_api":"healthy"`)

	a.data.Close()
	status, _ = b.get("/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	status, _ = b.get("/health")
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestStaticAndMetrics(t *testing.T) {
	a := newApp(t)
	b := a.browser(t)

	status, body := b.get("/static/app.css")
	assert.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, strings.TrimSpace(body))

	status, body = b.get("/metrics")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "http_requests_total")
}
