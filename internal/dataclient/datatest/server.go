// Package datatest provides an in-memory stand-in for the json-server style data server.
package datatest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
)

type record = map[string]any

// Server keeps collections in insertion order and answers the REST contract used by dataclient.
type Server struct {
	mu          sync.Mutex
	collections map[string][]record
	failures    map[string]int
	seq         int
	requests    int

	ts *httptest.Server
}

func New(collections ...string) *Server {
	s := &Server{
		collections: make(map[string][]record),
		failures:    make(map[string]int),
	}
	for _, c := range collections {
		s.collections[c] = nil
	}
	return s
}

// Start runs a Server with the users and tasks collections until the test ends.
func Start(t testing.TB) *Server {
	t.Helper()
	s := New("users", "tasks")
	s.ts = httptest.NewServer(s)
	t.Cleanup(s.ts.Close)
	return s
}

func (s *Server) URL() string {
	return s.ts.URL
}

// Close stops the listener so that later requests fail at the transport level.
func (s *Server) Close() {
	s.ts.Close()
}

// Seed stores v (any JSON-encodable value) in the collection.
func (s *Server) Seed(collection string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	var rec record
	if err := json.Unmarshal(b, &rec); err != nil {
		panic(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insert(collection, rec)
}

// Fail makes the next n requests with this method on collection/id answer 500.
// An empty id matches the collection path itself.
func (s *Server) Fail(method, collection, id string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[failKey(method, collection, id)] = n
}

// Records returns a copy of the collection decoded into out (a pointer to a slice).
func (s *Server) Records(collection string, out any) {
	s.mu.Lock()
	b, err := json.Marshal(s.collections[collection])
	s.mu.Unlock()
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		panic(err)
	}
}

func (s *Server) Count(collection string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.collections[collection])
}

// Requests reports how many requests the server has answered.
func (s *Server) Requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests++

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	collection := parts[0]
	id := ""
	if len(parts) > 1 {
		id = parts[1]
	}
	if len(parts) > 2 {
		http.NotFound(w, r)
		return
	}

	key := failKey(r.Method, collection, id)
	if n := s.failures[key]; n > 0 {
		s.failures[key] = n - 1
		http.Error(w, "injected failure", http.StatusInternalServerError)
		return
	}

	items, ok := s.collections[collection]
	if !ok {
		http.NotFound(w, r)
		return
	}

	if id == "" {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, filter(items, r))
		case http.MethodPost:
			rec, err := decode(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			writeJSON(w, http.StatusCreated, s.insert(collection, rec))
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	idx := indexOf(items, id)
	if idx < 0 {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, items[idx])
	case http.MethodPut:
		rec, err := decode(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		rec["id"] = id
		items[idx] = rec
		writeJSON(w, http.StatusOK, rec)
	case http.MethodPatch:
		rec, err := decode(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		for k, v := range rec {
			if k != "id" {
				items[idx][k] = v
			}
		}
		writeJSON(w, http.StatusOK, items[idx])
	case http.MethodDelete:
		removed := items[idx]
		s.collections[collection] = append(items[:idx:idx], items[idx+1:]...)
		writeJSON(w, http.StatusOK, removed)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) insert(collection string, rec record) record {
	if id, _ := rec["id"].(string); id == "" {
		s.seq++
		rec["id"] = strconv.Itoa(s.seq)
	}
	s.collections[collection] = append(s.collections[collection], rec)
	return rec
}

func filter(items []record, r *http.Request) []record {
	out := make([]record, 0, len(items))
	q := r.URL.Query()
	limit := -1
	if v := q.Get("_limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	for _, rec := range items {
		matched := true
		for field, values := range q {
			if strings.HasPrefix(field, "_") {
				continue
			}
			if fmt.Sprint(rec[field]) != values[0] {
				matched = false
				break
			}
		}
		if matched {
			out = append(out, rec)
		}
		if limit >= 0 && len(out) >= limit {
			break
		}
	}
	return out
}

func indexOf(items []record, id string) int {
	for i, rec := range items {
		if fmt.Sprint(rec["id"]) == id {
			return i
		}
	}
	return -1
}

func decode(r *http.Request) (record, error) {
	var rec record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		return nil, err
	}
	if rec == nil {
		rec = record{}
	}
	return rec, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func failKey(method, collection, id string) string {
	return method + " " + collection + "/" + id
}
