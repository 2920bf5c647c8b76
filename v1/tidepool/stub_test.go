package tidepool

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
)

// recordedRequest is what a stub backend saw.
type recordedRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   map[string]any
}

// stubBackend is an httptest server routed with gorilla/mux that records
// every matched request.
type stubBackend struct {
	*httptest.Server
	Router *mux.Router

	mu       sync.Mutex
	requests []recordedRequest
}

func newStubBackend(t *testing.T) *stubBackend {
	t.Helper()

	s := &stubBackend{Router: mux.NewRouter()}
	s.Router.Use(s.record)
	s.Server = httptest.NewServer(s.Router)
	t.Cleanup(s.Close)
	return s
}

func (s *stubBackend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Header: r.Header.Clone(),
		}
		if data, err := io.ReadAll(r.Body); err == nil && len(data) > 0 {
			_ = json.Unmarshal(data, &req.Body)
		}

		s.mu.Lock()
		s.requests = append(s.requests, req)
		s.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (s *stubBackend) Requests() []recordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]recordedRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

func (s *stubBackend) Last(t *testing.T) recordedRequest {
	t.Helper()
	reqs := s.Requests()
	require.NotEmpty(t, reqs, "backend received no requests")
	return reqs[len(reqs)-1]
}

// Reply registers a handler answering method+path with a fixed JSON body.
func (s *stubBackend) Reply(method, path string, status int, body any) {
	s.Router.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, status, body)
	}).Methods(method)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

// newTestClient builds a client against the two stubs with the default
// namespace "default".
func newTestClient(t *testing.T, query, ingest *stubBackend) *Client {
	t.Helper()

	cfg := FromURLs(query.URL, ingest.URL).WithTimeout(2 * time.Second)
	client, err := NewClient(*cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}
