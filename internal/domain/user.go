package domain

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// PasswordCost is the bcrypt cost used for new hashes. Tests lower it.
var PasswordCost = bcrypt.DefaultCost

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	Role         Role      `json:"role"`
	RegisteredAt time.Time `json:"registeredAt"`
}

// NewUser builds a role-user account with a fresh id and hashed password.
func NewUser(name, email, password string, now time.Time) (*User, error) {
	u := &User{
		ID:           NewID(),
		Name:         name,
		Email:        email,
		Role:         RoleUser,
		RegisteredAt: now.UTC(),
	}
	if err := u.SetPassword(password); err != nil {
		return nil, err
	}
	return u, nil
}

func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

func (u *User) CheckPassword(password string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) Initials() string {
	return Initials(u.Name)
}

// Initials takes the first letter of the first two words, uppercased. An empty name yields "U".
func Initials(name string) string {
	words := strings.Fields(name)
	if len(words) == 0 {
		return "U"
	}
	if len(words) > 2 {
		words = words[:2]
	}
	var b strings.Builder
	for _, w := range words {
		b.WriteRune([]rune(w)[0])
	}
	return strings.ToUpper(b.String())
}
