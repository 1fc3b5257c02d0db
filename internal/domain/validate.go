package domain

import (
	"crypto/rand"
	"regexp"
)

const MinPasswordLength = 8

var (
	emailPattern   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	dueDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// ValidEmail performs the basic shape check used at registration and on profile edits.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidDueDate accepts YYYY-MM-DD only. It checks the shape, not the calendar.
func ValidDueDate(date string) bool {
	return dueDatePattern.MatchString(date)
}

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

const idLength = 9

// NewID returns a random base-36 identifier for users and tasks.
func NewID() string {
	b := make([]byte, idLength)
	if _, err := rand.Read(b); err != nil {
		panic("domain: crypto/rand failed: " + err.Error())
	}
	for i := range b {
		b[i] = idAlphabet[int(b[i])%len(idAlphabet)]
	}
	return string(b)
}
