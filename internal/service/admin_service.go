package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"taskboard/internal/dataclient"
	"taskboard/internal/domain"

	"golang.org/x/sync/errgroup"
)

const (
	recentActivityLimit = 10
	auditTrailLimit     = 20

	unknownOwner  = "Unknown"
	anonymousUser = "User"
)

// AdminStats are the headline numbers of the admin dashboard.
type AdminStats struct {
	TotalUsers     int
	TotalTasks     int
	CompletedTasks int
	CompletionRate int
}

// TaskRow is a task joined with its owner's name.
type TaskRow struct {
	domain.Task
	OwnerName string
}

// AdminQuery carries the admin dashboard's filters as they come from the URL.
type AdminQuery struct {
	Status        domain.StatusFilter
	Owner         string
	Search        string
	AuditCategory string
}

// AdminState is everything the admin dashboard renders.
type AdminState struct {
	Session       *domain.Session
	Stats         AdminStats
	Users         []domain.User
	Tasks         []TaskRow
	Activity      []Activity
	Audit         []*domain.AuditLog
	AuditEnabled  bool
	AuditCategory string
	Status        domain.StatusFilter
	OwnerFilter   string
	OwnerName     string
	Search        string
}

// Activity is one line of the recent activity feed.
type Activity struct {
	Message   string
	CreatedAt string
}

// AdminData is one snapshot of both collections.
type AdminData struct {
	Users []domain.User
	Tasks []domain.Task
}

func (d *AdminData) userByID(id string) *domain.User {
	for i := range d.Users {
		if d.Users[i].ID == id {
			return &d.Users[i]
		}
	}
	return nil
}

type AdminService struct {
	users    dataclient.Store[domain.User]
	tasks    dataclient.Store[domain.Task]
	audit    *AuditService
	notifier Notifier
}

func NewAdminService(users dataclient.Store[domain.User], tasks dataclient.Store[domain.Task], audit *AuditService, notifier Notifier) *AdminService {
	return &AdminService{
		users:    users,
		tasks:    tasks,
		audit:    audit,
		notifier: notifierOrNop(notifier),
	}
}

// LoadAll fetches users and tasks concurrently; either failure fails the load.
func (s *AdminService) LoadAll(ctx context.Context) (*AdminData, error) {
	var data AdminData
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		users, err := s.users.List(gctx)
		if err != nil {
			return fmt.Errorf("load users: %w", err)
		}
		data.Users = users
		return nil
	})
	g.Go(func() error {
		tasks, err := s.tasks.List(gctx)
		if err != nil {
			return fmt.Errorf("load tasks: %w", err)
		}
		data.Tasks = tasks
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &data, nil
}

// Stats counts role-user accounts only; admins are not part of the user base.
func Stats(data *AdminData) AdminStats {
	st := AdminStats{TotalTasks: len(data.Tasks)}
	for i := range data.Users {
		if data.Users[i].Role == domain.RoleUser {
			st.TotalUsers++
		}
	}
	for i := range data.Tasks {
		if data.Tasks[i].Completed() {
			st.CompletedTasks++
		}
	}
	st.CompletionRate = domain.CompletionRate(st.CompletedTasks, st.TotalTasks)
	return st
}

// UsersTable lists non-admin accounts whose name or email contains term.
func UsersTable(users []domain.User, term string) []domain.User {
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]domain.User, 0, len(users))
	for _, u := range users {
		if u.IsAdmin() {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(u.Name), term) &&
			!strings.Contains(strings.ToLower(u.Email), term) {
			continue
		}
		out = append(out, u)
	}
	return out
}

// TasksTable filters by status and, when owner is set, by owner id.
func TasksTable(data *AdminData, status domain.StatusFilter, owner string) []TaskRow {
	out := make([]TaskRow, 0, len(data.Tasks))
	for _, t := range data.Tasks {
		if !status.Match(t.Status) {
			continue
		}
		if owner != "" && t.OwnerUserID != owner {
			continue
		}
		out = append(out, TaskRow{Task: t, OwnerName: ownerName(data, t.OwnerUserID, unknownOwner)})
	}
	return out
}

// RecentActivity describes the newest task creations, newest first.
func RecentActivity(data *AdminData) []Activity {
	tasks := make([]domain.Task, len(data.Tasks))
	copy(tasks, data.Tasks)
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
	if len(tasks) > recentActivityLimit {
		tasks = tasks[:recentActivityLimit]
	}

	out := make([]Activity, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, Activity{
			Message:   fmt.Sprintf("%s created task %q", ownerName(data, t.OwnerUserID, anonymousUser), t.Title),
			CreatedAt: t.CreatedAt.Format("02/01/2006"),
		})
	}
	return out
}

func ownerName(data *AdminData, id, fallback string) string {
	if u := data.userByID(id); u != nil {
		return u.Name
	}
	return fallback
}

// Dashboard builds the admin page for the given filters.
func (s *AdminService) Dashboard(ctx context.Context, sess *domain.Session, q AdminQuery) (*AdminState, error) {
	data, err := s.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	status := q.Status
	if status == "" {
		status = domain.FilterAll
	}

	st := &AdminState{
		Session:       sess,
		Stats:         Stats(data),
		Users:         UsersTable(data.Users, q.Search),
		Tasks:         TasksTable(data, status, q.Owner),
		Activity:      RecentActivity(data),
		AuditEnabled:  s.audit.Enabled(),
		AuditCategory: domain.ParseAuditCategory(q.AuditCategory),
		Status:        status,
		OwnerFilter:   q.Owner,
		Search:        q.Search,
	}
	if q.Owner != "" {
		st.OwnerName = ownerName(data, q.Owner, unknownOwner)
	}

	// the audit trail is optional decoration; a database hiccup must not hide the dashboard
	if logs, err := s.auditTrail(ctx, st.AuditCategory); err == nil {
		st.Audit = logs
	}
	return st, nil
}

func (s *AdminService) auditTrail(ctx context.Context, category string) ([]*domain.AuditLog, error) {
	if category == "" {
		return s.audit.Recent(ctx, auditTrailLimit)
	}
	return s.audit.ByCategory(ctx, category, auditTrailLimit)
}

// TaskDetail returns one task with its owner's name.
func (s *AdminService) TaskDetail(ctx context.Context, id string) (*TaskRow, error) {
	t, err := s.tasks.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get task %s: %w", id, err)
	}
	row := &TaskRow{Task: *t, OwnerName: unknownOwner}
	if u, err := s.users.Get(ctx, t.OwnerUserID); err == nil {
		row.OwnerName = u.Name
	}
	return row, nil
}

// GetUser is used by the delete confirmation page.
func (s *AdminService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	return u, nil
}

// DeleteUser removes a role-user account and its tasks. Admin accounts are refused.
func (s *AdminService) DeleteUser(ctx context.Context, actor *domain.Session, id string, confirmed bool) (*CascadeResult, error) {
	if !confirmed {
		return nil, domain.NewValidationError("confirm", "deletion was not confirmed")
	}
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.IsAdmin() {
		return nil, domain.NewValidationError("user", "admin accounts cannot be deleted here")
	}

	res, err := cascadeDelete(ctx, s.users, s.tasks, id)
	s.audit.LogAdminAction(ctx, actor.ID, domain.AuditActionAdminDeleteUser, id, map[string]any{
		"email":         u.Email,
		"deleted_tasks": len(res.DeletedTasks),
		"failed_tasks":  res.FailedTasks,
		"user_deleted":  res.UserDeleted,
	})
	if len(res.DeletedTasks) > 0 || res.UserDeleted {
		s.notifier.Notify(EventUserDeleted, fmt.Sprintf("admin removed %s", u.Name))
	}
	return res, err
}
