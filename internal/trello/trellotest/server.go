// Package trellotest provides an in-memory Trello boards API for tests.
package trellotest

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
)

var boardIDPattern = regexp.MustCompile(`^[0-9a-f]{24}$`)

// Server is a fake /1/boards endpoint backed by a map.
type Server struct {
	*httptest.Server

	Key   string
	Token string

	mu     sync.Mutex
	boards map[string]map[string]string
	calls  []string
	// forceStatus, when non-zero, is returned by every request.
	forceStatus int
}

// NewServer starts a fake API that accepts the given credentials.
func NewServer(key, token string) *Server {
	s := &Server{
		Key:    key,
		Token:  token,
		boards: make(map[string]map[string]string),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// ForceStatus makes every subsequent request answer with status.
func (s *Server) ForceStatus(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forceStatus = status
}

// Calls returns "METHOD /path" for each request received.
func (s *Server) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// BoardCount returns the number of boards currently stored.
func (s *Server) BoardCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.boards)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, r.Method+" "+r.URL.Path)

	if s.forceStatus != 0 {
		http.Error(w, "forced", s.forceStatus)
		return
	}

	q := r.URL.Query()
	if q.Get("key") != s.Key || q.Get("token") != s.Token {
		http.Error(w, "invalid key", http.StatusUnauthorized)
		return
	}

	if r.URL.Path == "/1/boards" || r.URL.Path == "/1/boards/" {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		name := q.Get("name")
		if strings.TrimSpace(name) == "" {
			http.Error(w, "invalid value for name", http.StatusBadRequest)
			return
		}
		id := newID()
		s.boards[id] = map[string]string{
			"id":   id,
			"name": name,
			"url":  "https://trello.com/b/" + id[:8] + "/" + strings.ToLower(name),
		}
		writeJSON(w, s.boards[id])
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/1/boards/")
	if !boardIDPattern.MatchString(id) {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	board, ok := s.boards[id]
	if !ok {
		http.Error(w, "The requested resource was not found.", http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, board)
	case http.MethodPut:
		if name := q.Get("name"); name != "" {
			board["name"] = name
		}
		writeJSON(w, board)
	case http.MethodDelete:
		delete(s.boards, id)
		writeJSON(w, map[string]interface{}{"_value": nil})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newID() string {
	b := make([]byte, 12)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
