package service

import (
	"context"
	"errors"
	"fmt"

	"taskboard/internal/dataclient"
	"taskboard/internal/domain"
	"taskboard/internal/logger"
)

// CascadeResult reports what a user deletion removed.
type CascadeResult struct {
	UserID       string
	DeletedTasks []string
	FailedTasks  []string
	UserDeleted  bool
}

// cascadeDelete removes every task owned by userID, one at a time, then the user.
// A failed task deletion does not stop the loop, but it keeps the user record
// so the owner of the leftover tasks still exists; the error wraps ErrPartialFailure.
func cascadeDelete(ctx context.Context, users dataclient.Store[domain.User], tasks dataclient.Store[domain.Task], userID string) (*CascadeResult, error) {
	res := &CascadeResult{UserID: userID}

	owned, err := tasks.List(ctx, dataclient.Where("ownerUserId", userID))
	if err != nil {
		return res, fmt.Errorf("list tasks of %s: %w", userID, err)
	}

	for _, t := range owned {
		err := tasks.Delete(ctx, t.ID)
		switch {
		case err == nil, errors.Is(err, domain.ErrNotFound):
			res.DeletedTasks = append(res.DeletedTasks, t.ID)
		default:
			logger.WithContext(ctx).Warn("cascade: task delete failed", "user_id", userID, "task_id", t.ID, "error", err)
			res.FailedTasks = append(res.FailedTasks, t.ID)
		}
	}

	if len(res.FailedTasks) > 0 {
		return res, fmt.Errorf("%w: %d of %d tasks of %s could not be deleted", domain.ErrPartialFailure, len(res.FailedTasks), len(owned), userID)
	}

	if err := users.Delete(ctx, userID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return res, fmt.Errorf("%w: tasks removed but user %s remains: %v", domain.ErrPartialFailure, userID, err)
	}
	res.UserDeleted = true
	return res, nil
}
