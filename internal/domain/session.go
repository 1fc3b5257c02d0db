package domain

import "time"

// Session mirrors the logged-in user. It is the only source of identity and role for a request.
type Session struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	Timestamp int64  `json:"timestamp"` // unix millis of the login
}

func NewSession(u *User, now time.Time) *Session {
	return &Session{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		Timestamp: now.UnixMilli(),
	}
}

func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == RoleAdmin
}

func (s *Session) Initials() string {
	return Initials(s.Name)
}
