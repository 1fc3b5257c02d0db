package service

import (
	"context"

	"taskboard/internal/domain"
	"taskboard/internal/logger"
)

// AuditStore persists audit entries. repository.AuditRepository implements it.
type AuditStore interface {
	Create(ctx context.Context, log *domain.AuditLog) error
	GetRecent(ctx context.Context, limit int) ([]*domain.AuditLog, error)
	GetByActor(ctx context.Context, actorID string, limit int) ([]*domain.AuditLog, error)
	GetByCategory(ctx context.Context, category string, limit int) ([]*domain.AuditLog, error)
}

// AuditService handles audit logging. With a nil store it only writes to the log.
type AuditService struct {
	repo AuditStore
}

// NewAuditService creates a new audit service
func NewAuditService(repo AuditStore) *AuditService {
	return &AuditService{repo: repo}
}

type requestMetaKey struct{}

type requestMeta struct {
	ip        string
	userAgent string
}

// WithRequestMeta attaches the caller's IP and User-Agent so audit entries can record them.
func WithRequestMeta(ctx context.Context, ip, userAgent string) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, requestMeta{ip: ip, userAgent: userAgent})
}

// Log creates a new audit log entry, taking IP and User-Agent from ctx when present
func (s *AuditService) Log(ctx context.Context, actorID, action, category string, details map[string]any) {
	meta, _ := ctx.Value(requestMetaKey{}).(requestMeta)
	s.LogWithRequest(ctx, actorID, action, category, meta.ip, meta.userAgent, details)
}

// LogWithRequest creates an audit log with request info (IP, User-Agent)
func (s *AuditService) LogWithRequest(ctx context.Context, actorID, action, category, ip, userAgent string, details map[string]any) {
	logger.Info("audit", "actor_id", actorID, "action", action, "category", category, "ip", ip)
	if s == nil || s.repo == nil {
		return
	}

	log := &domain.AuditLog{
		ActorID:   actorID,
		Action:    action,
		Category:  category,
		Details:   details,
		IP:        ip,
		UserAgent: userAgent,
	}

	// audit failures never fail the user's request
	if err := s.repo.Create(context.WithoutCancel(ctx), log); err != nil {
		logger.Error("failed to create audit log", "error", err, "action", action, "actor_id", actorID)
	}
}

// LogAdminAction logs an admin action against another account
func (s *AuditService) LogAdminAction(ctx context.Context, adminID, action, targetUserID string, details map[string]any) {
	if details == nil {
		details = make(map[string]any)
	}
	details["admin_id"] = adminID
	details["target_user_id"] = targetUserID

	s.Log(ctx, adminID, action, domain.AuditCategoryAdmin, details)
}

// Recent returns the most recent audit logs, or nothing when auditing is disabled
func (s *AuditService) Recent(ctx context.Context, limit int) ([]*domain.AuditLog, error) {
	if s == nil || s.repo == nil {
		return nil, nil
	}
	return s.repo.GetRecent(ctx, limit)
}

// ForActor returns audit logs for one user id
func (s *AuditService) ForActor(ctx context.Context, actorID string, limit int) ([]*domain.AuditLog, error) {
	if s == nil || s.repo == nil {
		return nil, nil
	}
	return s.repo.GetByActor(ctx, actorID, limit)
}

// ByCategory returns the newest entries of one category.
func (s *AuditService) ByCategory(ctx context.Context, category string, limit int) ([]*domain.AuditLog, error) {
	if s == nil || s.repo == nil {
		return nil, nil
	}
	return s.repo.GetByCategory(ctx, category, limit)
}

// Enabled reports whether entries are persisted and can be listed.
func (s *AuditService) Enabled() bool {
	return s != nil && s.repo != nil
}
