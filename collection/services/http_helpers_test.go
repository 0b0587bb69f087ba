package services

import (
	"context"
	"errors"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	classentry "github.com/sipb/hydrant/data/class-entry"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

func testClientConfig() ClientConfig {
	return ClientConfig{
		RetryMax:     1,
		RetryWaitMin: time.Millisecond,
		RetryWaitMax: time.Millisecond,
		Timeout:      5 * time.Second,
		Limiter:      NewAdaptiveRateLimiter(1000, 100, 100),
	}
}

func discardLogger() *log.Entry {
	logger := log.New()
	logger.SetOutput(io.Discard)
	return log.NewEntry(logger)
}

func closeTo(a, b rate.Limit) bool {
	return math.Abs(float64(a-b)) < 1e-9
}

func TestAdaptiveRateLimiter(t *testing.T) {
	limiter := NewAdaptiveRateLimiter(10, 1, 5)
	limiter.Fail()
	if got := limiter.Limit(); !closeTo(got, 2) {
		t.Fatalf("limit after failure %v", got)
	}
	limiter.Fail()
	if got := limiter.Limit(); !closeTo(got, minLimit) {
		t.Fatalf("limit should not drop below the minimum, got %v", got)
	}
	limiter.Succeed()
	if got := limiter.Limit(); !closeTo(got, 1.2) {
		t.Fatalf("limit after success %v", got)
	}
}

func TestRespOrStatusErr(t *testing.T) {
	if err := RespOrStatusErr(&http.Response{StatusCode: 204}, nil); err != nil {
		t.Fatal(err)
	}
	if err := RespOrStatusErr(&http.Response{StatusCode: 404}, nil); !errors.Is(err, ErrTemporaryNetworkFailure) {
		t.Fatalf("got %v", err)
	}
	if err := RespOrStatusErr(nil, errors.New("refused")); !errors.Is(err, ErrTemporaryNetworkFailure) {
		t.Fatalf("got %v", err)
	}
}

func TestGet(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			if r.Header.Get("User-Agent") != UserAgent {
				http.Error(w, "no user agent", http.StatusForbidden)
				return
			}
			w.Header().Set("Content-Type", "text/plain")
			w.Write([]byte("hello"))
		case "/flaky":
			attempts++
			if attempts == 1 {
				http.Error(w, "try again", http.StatusServiceUnavailable)
				return
			}
			w.Write([]byte("second time"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := NewClient(discardLogger(), testClientConfig())
	ctx := context.Background()

	body, contentType, err := Get(ctx, client, server.URL+"/ok")
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != "hello" || contentType != "text/plain" {
		t.Fatalf("got %q %q", body, contentType)
	}

	body, _, err = Get(ctx, client, server.URL+"/flaky")
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != "second time" {
		t.Fatalf("retry did not happen, got %q", body)
	}

	_, _, err = Get(ctx, client, server.URL+"/missing")
	if !errors.Is(err, ErrTemporaryNetworkFailure) {
		t.Fatalf("expected a network failure got %v", err)
	}

	server.Close()
	_, _, err = Get(ctx, client, server.URL+"/ok")
	if !errors.Is(err, ErrTemporaryNetworkFailure) {
		t.Fatalf("expected a network failure got %v", err)
	}
}

func TestNewTarget(t *testing.T) {
	latest := classentry.LatestTerm{
		Semester:    classentry.TermInfo{UrlName: "f25"},
		PreSemester: classentry.TermInfo{UrlName: "m25"},
	}
	kind, err := ParseTermKind("presem")
	if err != nil {
		t.Fatal(err)
	}
	target, err := NewTarget(latest, kind)
	if err != nil {
		t.Fatal(err)
	}
	if target.Term.Season != classentry.SeasonEnumSummer || target.Info.UrlName != "m25" {
		t.Fatalf("got %+v", target)
	}

	target, err = NewTarget(latest, Semester)
	if err != nil {
		t.Fatal(err)
	}
	if target.Term != (classentry.Term{Season: classentry.SeasonEnumFall, Year: 2025}) {
		t.Fatalf("got %+v", target.Term)
	}

	if _, err := ParseTermKind("winter"); err == nil {
		t.Fatal("expected an error")
	}
}
