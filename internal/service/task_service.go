package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskboard/internal/dataclient"
	"taskboard/internal/domain"
	"taskboard/internal/logger"
)

// DashboardState is everything the task dashboard renders.
type DashboardState struct {
	Session  *domain.Session
	Tasks    []domain.Task // after filter and search
	Counters domain.Counters
	Filter   domain.StatusFilter
	Search   string
}

// Empty reports whether the filtered view has no rows.
func (d *DashboardState) Empty() bool {
	return len(d.Tasks) == 0
}

// ErrAccountRemoved means the session outlived the user it belongs to.
var ErrAccountRemoved = fmt.Errorf("%w: account no longer exists", domain.ErrNotFound)

type TaskService struct {
	users    dataclient.Store[domain.User]
	tasks    dataclient.Store[domain.Task]
	notifier Notifier
	now      func() time.Time
}

func NewTaskService(users dataclient.Store[domain.User], tasks dataclient.Store[domain.Task], notifier Notifier) *TaskService {
	return &TaskService{
		users:    users,
		tasks:    tasks,
		notifier: notifierOrNop(notifier),
		now:      time.Now,
	}
}

// Load lists the session user's tasks and their counters.
func (s *TaskService) Load(ctx context.Context, sess *domain.Session) ([]domain.Task, domain.Counters, error) {
	tasks, err := s.tasks.List(ctx, dataclient.Where("ownerUserId", sess.ID))
	if err != nil {
		return nil, domain.Counters{}, fmt.Errorf("load tasks: %w", err)
	}
	return tasks, domain.CountTasks(tasks), nil
}

// Dashboard loads and applies the status filter and search term. Counters cover all tasks.
func (s *TaskService) Dashboard(ctx context.Context, sess *domain.Session, filter domain.StatusFilter, term string) (*DashboardState, error) {
	tasks, counters, err := s.Load(ctx, sess)
	if err != nil {
		return nil, err
	}
	if filter == "" {
		filter = domain.FilterAll
	}
	return &DashboardState{
		Session:  sess,
		Tasks:    domain.FilterTasks(tasks, filter, term),
		Counters: counters,
		Filter:   filter,
		Search:   term,
	}, nil
}

func (s *TaskService) Create(ctx context.Context, sess *domain.Session, fields domain.TaskFields) (*domain.Task, error) {
	f, err := fields.Normalize()
	if err != nil {
		return nil, err
	}
	if _, err := s.users.Get(ctx, sess.ID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrAccountRemoved
		}
		return nil, fmt.Errorf("check owner %s: %w", sess.ID, err)
	}

	t := &domain.Task{
		ID:          domain.NewID(),
		Status:      domain.StatusPending,
		OwnerUserID: sess.ID,
		CreatedAt:   s.now().UTC(),
	}
	t.Apply(f)

	created, err := s.tasks.Create(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	s.notifier.Notify(EventTaskCreated, fmt.Sprintf("%s created task %q", sess.Name, created.Title))
	return created, nil
}

// Get returns a task only when the session user owns it.
func (s *TaskService) Get(ctx context.Context, sess *domain.Session, id string) (*domain.Task, error) {
	t, err := s.tasks.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get task %s: %w", id, err)
	}
	if t.OwnerUserID != sess.ID {
		return nil, fmt.Errorf("%w: task %s", domain.ErrNotFound, id)
	}
	return t, nil
}

// Update replaces the editable fields, keeping id, owner, status and createdAt.
func (s *TaskService) Update(ctx context.Context, sess *domain.Session, id string, fields domain.TaskFields) (*domain.Task, error) {
	f, err := fields.Normalize()
	if err != nil {
		return nil, err
	}
	t, err := s.Get(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	t.Apply(f)

	updated, err := s.tasks.Replace(ctx, id, t)
	if err != nil {
		if errors.Is(err, domain.ErrNetwork) {
			logger.WithContext(ctx).Error("task update failed", "task_id", id, "error", err)
		}
		return nil, fmt.Errorf("update task %s: %w", id, err)
	}
	s.notifier.Notify(EventTaskUpdated, fmt.Sprintf("%s updated task %q", sess.Name, updated.Title))
	return updated, nil
}

// Toggle flips pending and completed with a partial update.
func (s *TaskService) Toggle(ctx context.Context, sess *domain.Session, id string) (*domain.Task, error) {
	t, err := s.Get(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	updated, err := s.tasks.Patch(ctx, id, map[string]any{"status": t.Status.Toggled()})
	if err != nil {
		return nil, fmt.Errorf("toggle task %s: %w", id, err)
	}
	s.notifier.Notify(EventTaskUpdated, fmt.Sprintf("%s marked %q %s", sess.Name, updated.Title, updated.Status))
	return updated, nil
}

// Delete removes an owned task. An unconfirmed request changes nothing.
func (s *TaskService) Delete(ctx context.Context, sess *domain.Session, id string, confirmed bool) error {
	if !confirmed {
		return domain.NewValidationError("confirm", "deletion was not confirmed")
	}
	t, err := s.Get(ctx, sess, id)
	if err != nil {
		return err
	}
	if err := s.tasks.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	s.notifier.Notify(EventTaskDeleted, fmt.Sprintf("%s deleted task %q", sess.Name, t.Title))
	return nil
}
