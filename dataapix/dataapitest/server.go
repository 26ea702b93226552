// Package dataapitest provides an in-memory Data API server for tests.
package dataapitest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/tidwall/gjson"

	"github.com/clinia/dataapi/jsonx"
)

const (
	DefaultPageSize = 20
	apiPrefix       = "/api/json/v1/"
)

// Request is a command received by the server.
type Request struct {
	Keyspace   string
	Collection string
	Command    string
	Body       json.RawMessage
	Headers    http.Header
	StatusCode int
	Written    int64
	Duration   time.Duration
}

type failure struct {
	status int
	body   string
	// applied runs the command before answering with the failure
	applied bool
}

// Server stores documents per keyspace and collection. Collections are created on first use.
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	collections map[string]*collection
	requests    []Request
	failures    []failure
	pageSize    int
	token       string
	latency     time.Duration

	inflight    atomic.Int32
	maxInflight atomic.Int32
}

type Option func(*Server)

// WithPageSize sets how many documents updateMany and deleteMany process per command.
func WithPageSize(n int) Option {
	return func(s *Server) {
		s.pageSize = n
	}
}

// WithToken rejects commands without this token.
func WithToken(token string) Option {
	return func(s *Server) {
		s.token = token
	}
}

// WithLatency delays every response.
func WithLatency(d time.Duration) Option {
	return func(s *Server) {
		s.latency = d
	}
}

// NewServer starts a server closed when the test ends.
func NewServer(t testing.TB, opts ...Option) *Server {
	t.Helper()

	s := &Server{
		collections: map[string]*collection{},
		pageSize:    DefaultPageSize,
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/json/v1/{keyspace}/{collection}", s.handleCommand)

	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))

		m := httpsnoop.CaptureMetrics(mux, w, r)
		keyspace, name := splitPath(r.URL.Path)

		s.mu.Lock()
		defer s.mu.Unlock()
		s.requests = append(s.requests, Request{
			Keyspace:   keyspace,
			Collection: name,
			Command:    commandName(body),
			Body:       recordedBody(body),
			Headers:    r.Header.Clone(),
			StatusCode: m.Code,
			Written:    m.Written,
			Duration:   m.Duration,
		})
	}))
	t.Cleanup(s.Close)

	return s
}

// FailNext answers the next n commands with status and a server error.
func (s *Server) FailNext(n int, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for range n {
		s.failures = append(s.failures, failure{
			status: status,
			body:   `{"errors":[{"errorCode":"SERVER_UNAVAILABLE","message":"server unavailable","family":"SERVER"}]}`,
		})
	}
}

// LoseNext applies the next n commands but answers them with status and a server error, as
// when a response is lost on its way back to the client.
func (s *Server) LoseNext(n int, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for range n {
		s.failures = append(s.failures, failure{
			status:  status,
			body:    `{"errors":[{"errorCode":"SERVER_TIMEOUT","message":"server timed out","family":"SERVER"}]}`,
			applied: true,
		})
	}
}

// Requests returns the commands received so far, in arrival order.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Commands returns the names of the commands received so far.
func (s *Server) Commands() []string {
	reqs := s.Requests()
	out := make([]string, len(reqs))
	for i, r := range reqs {
		out[i] = r.Command
	}
	return out
}

// MaxInflight returns the highest number of commands handled at once.
func (s *Server) MaxInflight() int {
	return int(s.maxInflight.Load())
}

// Seed stores documents as is. Documents without an _id are not reachable by id.
func (s *Server) Seed(keyspace, name string, docs ...map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.collection(keyspace, name)
	for _, d := range docs {
		c.docs = append(c.docs, normalize(d))
	}
}

// Documents returns a copy of the stored documents, in insertion order.
func (s *Server) Documents(keyspace, name string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.collection(keyspace, name)
	out := make([]map[string]any, len(c.docs))
	for i, d := range c.docs {
		out[i] = clone(d)
	}
	return out
}

func (s *Server) collection(keyspace, name string) *collection {
	key := keyspace + "/" + name
	c, ok := s.collections[key]
	if !ok {
		c = &collection{}
		s.collections[key] = c
	}
	return c
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	n := s.inflight.Add(1)
	defer s.inflight.Add(-1)
	for {
		m := s.maxInflight.Load()
		if n <= m || s.maxInflight.CompareAndSwap(m, n) {
			break
		}
	}

	if s.latency > 0 {
		select {
		case <-r.Context().Done():
			return
		case <-time.After(s.latency):
		}
	}

	w.Header().Set("Content-Type", "application/json")

	if s.token != "" && r.Header.Get("Token") != s.token {
		writeJSON(w, http.StatusUnauthorized, response{Errors: []apiError{{
			ErrorCode: "UNAUTHENTICATED_REQUEST",
			Message:   "invalid token",
			Family:    "REQUEST",
		}}})
		return
	}

	var f *failure
	s.mu.Lock()
	if len(s.failures) > 0 {
		next := s.failures[0]
		s.failures = s.failures[1:]
		f = &next
	}
	s.mu.Unlock()
	if f != nil && !f.applied {
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte(f.body))
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil || !gjson.ValidBytes(body) {
		writeJSON(w, http.StatusBadRequest, response{Errors: []apiError{{
			ErrorCode: "INVALID_REQUEST",
			Message:   "request body is not valid JSON",
			Family:    "REQUEST",
		}}})
		return
	}

	name := commandName(body)
	payload := gjson.GetBytes(body, gjson.Escape(name))

	s.mu.Lock()
	c := s.collection(r.PathValue("keyspace"), r.PathValue("collection"))
	resp := c.run(name, payload, s.pageSize)
	s.mu.Unlock()

	if f != nil {
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte(f.body))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// recordedBody normalizes valid bodies so that tests can compare them with jsonx.MustNormalize.
func recordedBody(body []byte) json.RawMessage {
	if norm, err := jsonx.Normalize(body); err == nil {
		return norm
	}
	return body
}

func splitPath(p string) (keyspace, collection string) {
	parts := strings.Split(strings.TrimPrefix(p, apiPrefix), "/")
	if len(parts) != 2 {
		return "", ""
	}
	return parts[0], parts[1]
}

func commandName(body []byte) string {
	name := ""
	gjson.ParseBytes(body).ForEach(func(key, _ gjson.Result) bool {
		name = key.String()
		return false
	})
	return name
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
