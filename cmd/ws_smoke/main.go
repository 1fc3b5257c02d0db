package main

import (
	"fmt"
	"log"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"taskboard/internal/session"
	"taskboard/internal/ws"
)

// ws_smoke logs in as an admin, subscribes to the activity feed, creates a
// task as that admin and waits for the matching event.
func main() {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		log.Fatal("ADMIN_EMAIL and ADMIN_PASSWORD must be set")
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}
	// use 127.0.0.1 to prefer IPv4 (avoid resolving to [::1])
	base := fmt.Sprintf("http://127.0.0.1:%s", port)

	jar, _ := cookiejar.New(nil)
	client := &http.Client{
		Jar:     jar,
		Timeout: 5 * time.Second,
		// stop at the login redirect so a failed login is visible
		CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
	}

	resp, err := client.PostForm(base+"/login", url.Values{"email": {email}, "password": {password}})
	if err != nil {
		log.Fatalf("login: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/admin" {
		log.Fatalf("login did not reach the admin dashboard: status=%d location=%q", resp.StatusCode, resp.Header.Get("Location"))
	}

	u, _ := url.Parse(base)
	var cookie string
	for _, c := range jar.Cookies(u) {
		if c.Name == session.CookieName {
			cookie = c.Name + "=" + c.Value
		}
	}

	wsURL := "ws" + strings.TrimPrefix(base, "http") + "/ws/activity"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, http.Header{"Cookie": {cookie}})
	if err != nil {
		log.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	readEvent := func() (ws.Event, error) {
		var ev ws.Event
		_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		err := conn.ReadJSON(&ev)
		return ev, err
	}

	if ev, err := readEvent(); err != nil || ev.Type != "ready" {
		log.Fatalf("expected ready event, got %+v (%v)", ev, err)
	}

	title := "smoke " + time.Now().Format(time.RFC3339)
	resp, err = client.PostForm(base+"/tasks", url.Values{
		"title":    {title},
		"dueDate":  {time.Now().Format("2006-01-02")},
		"priority": {"low"},
	})
	if err != nil {
		log.Fatalf("create task: %v", err)
	}
	resp.Body.Close()

	ev, err := readEvent()
	if err != nil {
		log.Fatalf("read event: %v", err)
	}
	log.Printf("got %s: %s", ev.Type, ev.Message)
	if !strings.Contains(ev.Message, title) {
		log.Fatalf("event does not mention the new task")
	}

	log.Println("smoke test finished; remember to delete the smoke task")
}
