package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"taskboard/internal/dataclient"
	"taskboard/internal/domain"

	"github.com/joho/godotenv"
)

// create_admin adds an administrator to the data server. Registration only ever creates role-user accounts.
func main() {
	_ = godotenv.Load()

	name := flag.String("name", envOr("ADMIN_NAME", "Administrator"), "display name")
	email := flag.String("email", os.Getenv("ADMIN_EMAIL"), "login email")
	password := flag.String("password", os.Getenv("ADMIN_PASSWORD"), "initial password")
	apiURL := flag.String("api", envOr("DATA_API_URL", "http://localhost:3000"), "data server base URL")
	flag.Parse()

	u, err := newAdmin(*name, *email, *password, time.Now())
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	users := dataclient.New(*apiURL, 10*time.Second).Users()

	existing, err := users.List(ctx, dataclient.Where("email", u.Email))
	if err != nil {
		log.Fatalf("lookup failed: %v", err)
	}
	if len(existing) > 0 {
		u := existing[0]
		log.Printf("user already exists id=%s role=%s\n", u.ID, u.Role)
		return
	}

	created, err := users.Create(ctx, u)
	if err != nil {
		log.Fatalf("create admin failed: %v", err)
	}
	log.Printf("admin created id=%s email=%s\n", created.ID, created.Email)
}

// newAdmin trims the inputs the same way the login form does, so the stored
// hash matches what the admin will type.
func newAdmin(name, email, password string, now time.Time) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	password = strings.TrimSpace(password)
	if email == "" || password == "" {
		return nil, errors.New("email and password are required (-email/-password or ADMIN_EMAIL/ADMIN_PASSWORD)")
	}
	if !domain.ValidEmail(email) {
		return nil, fmt.Errorf("invalid email %q", email)
	}
	if len(password) < domain.MinPasswordLength {
		return nil, fmt.Errorf("password must be at least %d characters", domain.MinPasswordLength)
	}
	u, err := domain.NewUser(name, email, password, now)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u.Role = domain.RoleAdmin
	return u, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
