package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"taskboard/internal/dataclient"
	"taskboard/internal/domain"
	"taskboard/internal/logger"
)

const accountActivityLimit = 10

// ProfileState is what the profile page renders. The user record and the
// counters load independently, so either can be missing.
type ProfileState struct {
	Session          *domain.Session
	Name             string
	Email            string
	RegisteredAt     string
	Counters         domain.Counters
	Activity         []*domain.AuditLog
	UserUnavailable  bool
	StatsUnavailable bool
}

// ProfileUpdate is the submitted profile form.
type ProfileUpdate struct {
	Name            string
	Email           string
	CurrentPassword string
	NewPassword     string
}

type ProfileService struct {
	users    dataclient.Store[domain.User]
	tasks    dataclient.Store[domain.Task]
	audit    *AuditService
	notifier Notifier
}

func NewProfileService(users dataclient.Store[domain.User], tasks dataclient.Store[domain.Task], audit *AuditService, notifier Notifier) *ProfileService {
	return &ProfileService{
		users:    users,
		tasks:    tasks,
		audit:    audit,
		notifier: notifierOrNop(notifier),
	}
}

func (s *ProfileService) Load(ctx context.Context, sess *domain.Session) (*ProfileState, error) {
	st := &ProfileState{Session: sess, Name: sess.Name, Email: sess.Email}

	u, userErr := s.users.Get(ctx, sess.ID)
	if userErr != nil {
		logger.WithContext(ctx).Warn("profile: user load failed", "user_id", sess.ID, "error", userErr)
		st.UserUnavailable = true
	} else {
		st.Name = u.Name
		st.Email = u.Email
		st.RegisteredAt = u.RegisteredAt.Format("02/01/2006")
	}

	tasks, statsErr := s.tasks.List(ctx, dataclient.Where("ownerUserId", sess.ID))
	if statsErr != nil {
		logger.WithContext(ctx).Warn("profile: stats load failed", "user_id", sess.ID, "error", statsErr)
		st.StatsUnavailable = true
	} else {
		st.Counters = domain.CountTasks(tasks)
	}

	if userErr != nil && statsErr != nil {
		return nil, fmt.Errorf("load profile: %w", userErr)
	}

	if logs, err := s.audit.ForActor(ctx, sess.ID, accountActivityLimit); err == nil {
		st.Activity = logs
	}
	return st, nil
}

// Save applies the profile form and returns the Session with the new name and email.
func (s *ProfileService) Save(ctx context.Context, sess *domain.Session, upd ProfileUpdate) (*domain.Session, error) {
	name := strings.TrimSpace(upd.Name)
	email := strings.TrimSpace(upd.Email)
	// passwords are trimmed exactly as Login trims them
	current := strings.TrimSpace(upd.CurrentPassword)
	newPassword := strings.TrimSpace(upd.NewPassword)
	if name == "" || email == "" {
		return nil, domain.NewValidationError("", "name and email are required")
	}
	if !domain.ValidEmail(email) {
		return nil, domain.NewValidationError("email", "enter a valid email address")
	}
	if newPassword != "" && len(newPassword) < domain.MinPasswordLength {
		return nil, domain.NewValidationError("newPassword", fmt.Sprintf("password must be at least %d characters", domain.MinPasswordLength))
	}

	u, err := s.users.Get(ctx, sess.ID)
	if err != nil {
		return nil, fmt.Errorf("load user %s: %w", sess.ID, err)
	}
	if !u.CheckPassword(current) {
		return nil, fmt.Errorf("%w: current password is incorrect", domain.ErrInvalidCredential)
	}

	emailChanged := !strings.EqualFold(email, u.Email)
	if emailChanged {
		others, err := s.users.List(ctx, dataclient.Where("email", email))
		if err != nil {
			return nil, fmt.Errorf("check email: %w", err)
		}
		for _, o := range others {
			if o.ID != u.ID {
				return nil, fmt.Errorf("%w: email already registered", domain.ErrConflict)
			}
		}
	}

	u.Name = name
	u.Email = email
	if newPassword != "" {
		if err := u.SetPassword(newPassword); err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
	}
	if _, err := s.users.Replace(ctx, u.ID, u); err != nil {
		return nil, fmt.Errorf("update user %s: %w", u.ID, err)
	}

	s.audit.Log(ctx, u.ID, domain.AuditActionProfileUpdate, domain.AuditCategoryAccount, map[string]any{
		"email_changed":    emailChanged,
		"password_changed": newPassword != "",
	})
	s.notifier.Notify(EventUserUpdated, name+" updated their profile")

	updated := *sess
	updated.Name = name
	updated.Email = email
	return &updated, nil
}

// DeleteAccount needs both the confirmation and the account email typed back.
func (s *ProfileService) DeleteAccount(ctx context.Context, sess *domain.Session, confirmed bool, typedEmail string) (*CascadeResult, error) {
	if !confirmed {
		return nil, domain.NewValidationError("confirm", "deletion was not confirmed")
	}
	if strings.TrimSpace(typedEmail) != sess.Email {
		return nil, domain.NewValidationError("email", "email does not match")
	}

	res, err := cascadeDelete(ctx, s.users, s.tasks, sess.ID)
	s.audit.Log(ctx, sess.ID, domain.AuditActionDeleteAccount, domain.AuditCategoryAccount, map[string]any{
		"deleted_tasks": len(res.DeletedTasks),
		"failed_tasks":  res.FailedTasks,
		"user_deleted":  res.UserDeleted,
	})
	if err != nil {
		if errors.Is(err, domain.ErrPartialFailure) {
			logger.WithContext(ctx).Error("account delete incomplete", "user_id", sess.ID, "failed_tasks", res.FailedTasks)
		}
		return res, err
	}
	s.notifier.Notify(EventUserDeleted, sess.Name+" closed their account")
	return res, nil
}
