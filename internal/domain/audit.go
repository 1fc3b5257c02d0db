package domain

import "time"

// AuditLog represents an audit log entry for tracking important actions
type AuditLog struct {
	ID        int64          `db:"id" json:"id"`
	ActorID   string         `db:"actor_id" json:"actor_id"`
	Action    string         `db:"action" json:"action"`
	Category  string         `db:"category" json:"category"`
	Details   map[string]any `db:"details" json:"details"`
	IP        string         `db:"ip" json:"ip,omitempty"`
	UserAgent string         `db:"user_agent" json:"user_agent,omitempty"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}

// Audit action categories
const (
	AuditCategoryAuth    = "auth"
	AuditCategoryAccount = "account"
	AuditCategoryAdmin   = "admin"
)

// ParseAuditCategory returns the known category named by s, or "" for all categories.
func ParseAuditCategory(s string) string {
	switch s {
	case AuditCategoryAuth, AuditCategoryAccount, AuditCategoryAdmin:
		return s
	}
	return ""
}

// Audit actions
const (
	AuditActionLogin         = "login"
	AuditActionLoginFailed   = "login_failed"
	AuditActionLogout        = "logout"
	AuditActionRegister      = "register"
	AuditActionProfileUpdate = "profile_update"
	AuditActionDeleteAccount = "delete_account"

	AuditActionAdminDeleteUser = "admin_delete_user"
)
