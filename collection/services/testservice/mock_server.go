package testservice

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sipb/hydrant/collection/services"
	log "github.com/sirupsen/logrus"
)

// Route is a canned response, Pattern uses http.ServeMux syntax
// such as "GET /courses/all".
type Route struct {
	Pattern     string
	ContentType string
	Status      int
	Body        []byte
}

func HTML(pattern string, body string) Route {
	return Route{Pattern: pattern, ContentType: "text/html; charset=utf-8", Body: []byte(body)}
}

func JSON(pattern string, body string) Route {
	return Route{Pattern: pattern, ContentType: "application/json", Body: []byte(body)}
}

// File serves a fixture from disk, failing the test if it can't be read.
func File(t testing.TB, pattern string, contentType string, path string) Route {
	t.Helper()
	body, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("could not read fixture %s: %v", path, err)
	}
	return Route{Pattern: pattern, ContentType: contentType, Body: body}
}

func Status(pattern string, status int) Route {
	return Route{Pattern: pattern, Status: status}
}

type MockServer struct {
	*httptest.Server
	logger    *log.Entry
	hits      map[string]int
	hitsMutex sync.Mutex
}

func (m *MockServer) handle(route Route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m.hitsMutex.Lock()
		m.hits[route.Pattern]++
		m.hitsMutex.Unlock()

		if route.Status != 0 && route.Status != http.StatusOK {
			m.logger.Debugf("failing %s with %d", r.URL, route.Status)
			http.Error(w, http.StatusText(route.Status), route.Status)
			return
		}
		if route.ContentType != "" {
			w.Header().Set("Content-Type", route.ContentType)
		}
		w.WriteHeader(http.StatusOK)
		w.Write(route.Body)
	}
}

// Hits is how many requests a route has answered.
func (m *MockServer) Hits(pattern string) int {
	m.hitsMutex.Lock()
	defer m.hitsMutex.Unlock()
	return m.hits[pattern]
}

// returns a new server which is closed when the test ends
func NewMockServer(t testing.TB, logger *log.Entry, routes ...Route) *MockServer {
	m := &MockServer{logger: logger, hits: map[string]int{}}
	mux := http.NewServeMux()
	for _, route := range routes {
		mux.HandleFunc(route.Pattern, m.handle(route))
	}
	m.Server = httptest.NewServer(mux)
	t.Cleanup(m.Server.Close)
	return m
}

// NewLogger logs everything into the returned buffer.
func NewLogger() (*log.Entry, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := log.New()
	logger.SetOutput(&buf)
	logger.SetLevel(log.DebugLevel)
	return log.NewEntry(logger), &buf
}

func DiscardLogger() *log.Entry {
	logger := log.New()
	logger.SetOutput(io.Discard)
	return log.NewEntry(logger)
}

// NewClient gives up on the first failure so failing routes don't slow tests down.
func NewClient(logger *log.Entry) *resty.Client {
	return services.NewClient(logger, services.ClientConfig{
		RetryMax:     0,
		RetryWaitMin: time.Millisecond,
		RetryWaitMax: time.Millisecond,
		Timeout:      5 * time.Second,
		Limiter:      services.NewAdaptiveRateLimiter(1000, 100, 100),
	})
}
