package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"taskboard/internal/dataclient"
	"taskboard/internal/dataclient/datatest"
	"taskboard/internal/domain"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	domain.PasswordCost = bcrypt.MinCost
}

type fixture struct {
	srv    *datatest.Server
	client *dataclient.Client
	audit  *memAudit
	events *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	srv := datatest.Start(t)
	return &fixture{
		srv:    srv,
		client: dataclient.New(srv.URL(), 5*time.Second),
		audit:  &memAudit{},
		events: &recordingNotifier{},
	}
}

func (f *fixture) seedUser(t *testing.T, id, name, email, password string, role domain.Role) domain.User {
	t.Helper()
	u := domain.User{ID: id, Name: name, Email: email, Role: role, RegisteredAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, u.SetPassword(password))
	f.srv.Seed(dataclient.CollectionUsers, u)
	return u
}

func (f *fixture) seedTask(id, owner, title string, status domain.Status, created time.Time) domain.Task {
	task := domain.Task{
		ID: id, Title: title, DueDate: "2025-03-01", Priority: domain.PriorityMedium,
		Status: status, OwnerUserID: owner, CreatedAt: created,
	}
	f.srv.Seed(dataclient.CollectionTasks, task)
	return task
}

func (f *fixture) tasks() []domain.Task {
	var out []domain.Task
	f.srv.Records(dataclient.CollectionTasks, &out)
	return out
}

func (f *fixture) users() []domain.User {
	var out []domain.User
	f.srv.Records(dataclient.CollectionUsers, &out)
	return out
}

func (f *fixture) auditService() *AuditService {
	return NewAuditService(f.audit)
}

func sessionOf(u domain.User) *domain.Session {
	return domain.NewSession(&u, time.Now())
}

type recordingNotifier struct {
	mu    sync.Mutex
	kinds []string
}

func (n *recordingNotifier) Notify(kind, _ string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.kinds = append(n.kinds, kind)
}

func (n *recordingNotifier) Kinds() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.kinds...)
}

type memAudit struct {
	mu   sync.Mutex
	logs []*domain.AuditLog
}

func (m *memAudit) Create(_ context.Context, log *domain.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	log.ID = int64(len(m.logs) + 1)
	log.CreatedAt = time.Now()
	m.logs = append(m.logs, log)
	return nil
}

func (m *memAudit) GetRecent(_ context.Context, limit int) ([]*domain.AuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.AuditLog
	for i := len(m.logs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.logs[i])
	}
	return out, nil
}

func (m *memAudit) GetByActor(_ context.Context, actorID string, limit int) ([]*domain.AuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.AuditLog
	for i := len(m.logs) - 1; i >= 0 && len(out) < limit; i-- {
		if m.logs[i].ActorID == actorID {
			out = append(out, m.logs[i])
		}
	}
	return out, nil
}

func (m *memAudit) GetByCategory(_ context.Context, category string, limit int) ([]*domain.AuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.AuditLog
	for i := len(m.logs) - 1; i >= 0 && len(out) < limit; i-- {
		if m.logs[i].Category == category {
			out = append(out, m.logs[i])
		}
	}
	return out, nil
}

func (m *memAudit) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, l := range m.logs {
		out = append(out, l.Action)
	}
	return out
}
