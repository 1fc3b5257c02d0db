// Package dataclient talks to the REST data server that stores users and tasks.
// The server follows the json-server conventions: collections at /<name>, records at
// /<name>/<id>, and exact-match filtering with ?field=value.
package dataclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"taskboard/internal/domain"
)

const (
	CollectionUsers = "users"
	CollectionTasks = "tasks"
)

// Client is a REST data server client
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the data server at baseURL
func New(baseURL string, timeout time.Duration) *Client {
	return NewWithHTTPClient(baseURL, &http.Client{Timeout: timeout})
}

// NewWithHTTPClient is New with a caller-supplied http.Client (tests use httptest's).
func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: hc,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Users() *Collection[domain.User] {
	return &Collection[domain.User]{client: c, name: CollectionUsers}
}

func (c *Client) Tasks() *Collection[domain.Task] {
	return &Collection[domain.Task]{client: c, name: CollectionTasks}
}

// Ping checks the data server answers on the users collection.
func (c *Client) Ping(ctx context.Context) error {
	q := url.Values{"_limit": []string{"1"}}
	var out []json.RawMessage
	return c.do(ctx, http.MethodGet, "/"+CollectionUsers, q, nil, &out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("%w: build %s %s: %v", domain.ErrNetwork, method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	collection := collectionOf(path)
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		observe(collection, method, "error", start)
		return fmt.Errorf("%w: %s %s: %v", domain.ErrNetwork, method, path, err)
	}
	defer resp.Body.Close()
	observe(collection, method, strconv.Itoa(resp.StatusCode), start)

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s %s", domain.ErrNotFound, method, path)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: API error: %s - %s", domain.ErrNetwork, resp.Status, strings.TrimSpace(string(msg)))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s %s: %v", domain.ErrNetwork, method, path, err)
	}
	return nil
}

func collectionOf(path string) string {
	p := strings.TrimPrefix(path, "/")
	if i := strings.IndexByte(p, '/'); i >= 0 {
		p = p[:i]
	}
	return p
}
