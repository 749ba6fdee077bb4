package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// Response is a canned reply
type Response struct {
	Status int
	Body   interface{}
}

// RecordedRequest is a request the fake server received
type RecordedRequest struct {
	Method        string
	Path          string
	Authorization string
	ContentType   string
	Body          []byte
}

// FakeAPI is an httptest server that answers from canned responses keyed by
// "METHOD /path". A route registered with several responses replays them in
// order and repeats the last one. Unknown routes answer 404.
type FakeAPI struct {
	*httptest.Server

	mu       sync.Mutex
	routes   map[string][]Response
	handlers map[string]http.HandlerFunc
	requests []RecordedRequest
}

// NewFakeAPI starts a fake server closed at test cleanup
func NewFakeAPI(t *testing.T) *FakeAPI {
	t.Helper()
	f := &FakeAPI{
		routes:   make(map[string][]Response),
		handlers: make(map[string]http.HandlerFunc),
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Close)
	return f
}

// Reply registers responses for method and path
func (f *FakeAPI) Reply(method, path string, responses ...Response) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[method+" "+path] = responses
}

// Handle registers a custom handler for method and path
func (f *FakeAPI) Handle(method, path string, h http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[method+" "+path] = h
}

// Requests returns a copy of everything received so far
func (f *FakeAPI) Requests() []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]RecordedRequest, len(f.requests))
	copy(out, f.requests)
	return out
}

// Count returns how many requests hit method and path
func (f *FakeAPI) Count(method, path string) int {
	n := 0
	for _, r := range f.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

func (f *FakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	key := r.Method + " " + r.URL.Path

	f.mu.Lock()
	f.requests = append(f.requests, RecordedRequest{
		Method:        r.Method,
		Path:          r.URL.Path,
		Authorization: r.Header.Get("Authorization"),
		ContentType:   r.Header.Get("Content-Type"),
		Body:          body,
	})
	handler := f.handlers[key]
	var resp *Response
	if queue := f.routes[key]; len(queue) > 0 {
		first := queue[0]
		resp = &first
		if len(queue) > 1 {
			f.routes[key] = queue[1:]
		}
	}
	f.mu.Unlock()

	switch {
	case handler != nil:
		handler(w, r)
	case resp != nil:
		writeJSON(w, resp.Status, resp.Body)
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not Found"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}
