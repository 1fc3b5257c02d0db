package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"taskboard/internal/dataclient"
	"taskboard/internal/domain"
)

// Route targets used by the guard.
const (
	PathLogin     = "/login"
	PathDashboard = "/dashboard"
	PathAdmin     = "/admin"
)

// HomeFor is the landing page for a role.
func HomeFor(role domain.Role) string {
	if role == domain.RoleAdmin {
		return PathAdmin
	}
	return PathDashboard
}

// Decision is the outcome of Authorize: Allowed or Redirect.
type Decision interface {
	isDecision()
}

type Allowed struct{}

type Redirect struct {
	Target string
}

func (Allowed) isDecision()  {}
func (Redirect) isDecision() {}

// Authorize guards a page. An empty required role admits any logged-in user.
func Authorize(sess *domain.Session, required domain.Role) Decision {
	if sess == nil {
		return Redirect{Target: PathLogin}
	}
	if required != "" && sess.Role != required {
		return Redirect{Target: HomeFor(sess.Role)}
	}
	return Allowed{}
}

type AuthService struct {
	users    dataclient.Store[domain.User]
	audit    *AuditService
	notifier Notifier
	now      func() time.Time
}

func NewAuthService(users dataclient.Store[domain.User], audit *AuditService, notifier Notifier) *AuthService {
	return &AuthService{
		users:    users,
		audit:    audit,
		notifier: notifierOrNop(notifier),
		now:      time.Now,
	}
}

// Login checks the credentials and returns the Session to store.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	email = strings.TrimSpace(email)
	password = strings.TrimSpace(password)
	if email == "" || password == "" {
		return nil, domain.NewValidationError("", "please fill in all fields")
	}

	found, err := s.users.List(ctx, dataclient.Where("email", email))
	if err != nil {
		return nil, fmt.Errorf("login lookup: %w", err)
	}
	if len(found) == 0 {
		s.audit.Log(ctx, "", domain.AuditActionLoginFailed, domain.AuditCategoryAuth, map[string]any{"email": email, "reason": "unknown_email"})
		return nil, fmt.Errorf("%w: email not registered", domain.ErrNotFound)
	}

	u := &found[0]
	if !u.CheckPassword(password) {
		s.audit.Log(ctx, u.ID, domain.AuditActionLoginFailed, domain.AuditCategoryAuth, map[string]any{"reason": "bad_password"})
		return nil, fmt.Errorf("%w: incorrect password", domain.ErrInvalidCredential)
	}

	sess := domain.NewSession(u, s.now())
	s.audit.Log(ctx, u.ID, domain.AuditActionLogin, domain.AuditCategoryAuth, map[string]any{"role": string(u.Role)})
	return sess, nil
}

// Register creates a role-user account. The caller redirects to the login page.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	password = strings.TrimSpace(password)

	if name == "" || email == "" || password == "" {
		return nil, domain.NewValidationError("", "all fields are required")
	}
	if !domain.ValidEmail(email) {
		return nil, domain.NewValidationError("email", "enter a valid email address")
	}
	if len(password) < domain.MinPasswordLength {
		return nil, domain.NewValidationError("password", fmt.Sprintf("password must be at least %d characters", domain.MinPasswordLength))
	}

	existing, err := s.users.List(ctx, dataclient.Where("email", email))
	if err != nil {
		return nil, fmt.Errorf("register lookup: %w", err)
	}
	if len(existing) > 0 {
		return nil, fmt.Errorf("%w: email already registered", domain.ErrConflict)
	}

	u, err := domain.NewUser(name, email, password, s.now())
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	created, err := s.users.Create(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.audit.Log(ctx, created.ID, domain.AuditActionRegister, domain.AuditCategoryAuth, nil)
	s.notifier.Notify(EventUserCreated, created.Name+" registered")
	return created, nil
}

// Logout records the event; clearing the Session Store is the caller's job.
func (s *AuthService) Logout(ctx context.Context, sess *domain.Session) {
	if sess == nil {
		return
	}
	s.audit.Log(ctx, sess.ID, domain.AuditActionLogout, domain.AuditCategoryAuth, nil)
}
