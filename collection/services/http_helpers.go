package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	decreaseFactor = 0.8 // Reduce aggressively on failure
	increaseFactor = 0.2 // Increase conservatively on success
	minLimit       = 1   // Minimum requests per second
)

const UserAgent = "hydrant-scrapers (https://github.com/sipb/hydrant)"

type AdaptiveRateLimiter struct {
	mu          sync.Mutex
	limit       rate.Limit
	burst       int
	limiter     *rate.Limiter
	maxIncrease rate.Limit
}

func (a *AdaptiveRateLimiter) Fail() {
	a.mu.Lock()
	defer a.mu.Unlock()

	newLimit := max(rate.Limit(float64(a.limit)*(1-decreaseFactor)), minLimit)
	a.setLimit(newLimit)
}

func (a *AdaptiveRateLimiter) Succeed() {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Increase limit more conservatively, up to maxIncrease
	newLimit := min(rate.Limit(float64(a.limit)*(1+increaseFactor)), a.limit+a.maxIncrease)

	a.setLimit(newLimit)
}

func (a *AdaptiveRateLimiter) Wait(ctx context.Context) error {
	return a.limiter.Wait(ctx)
}

func (a *AdaptiveRateLimiter) Limit() rate.Limit {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.limit
}

func (a *AdaptiveRateLimiter) setLimit(newLimit rate.Limit) {
	a.limit = newLimit
	a.limiter.SetLimit(a.limit)
}

func NewAdaptiveRateLimiter(startingLimit rate.Limit, startingBurst int, maxIncrease rate.Limit) *AdaptiveRateLimiter {
	return &AdaptiveRateLimiter{
		limit:       startingLimit,
		burst:       startingBurst,
		limiter:     rate.NewLimiter(startingLimit, startingBurst),
		mu:          sync.Mutex{},
		maxIncrease: maxIncrease,
	}
}

type RateLimiter interface {
	Succeed()
	Fail()
	Wait(context.Context) error
}

type rateLimitedRoundTripper struct {
	transport http.RoundTripper
	limiter   RateLimiter
}

func (rt *rateLimitedRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := rt.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}

	resp, err := rt.transport.RoundTrip(req)
	if err != nil {
		rt.limiter.Fail()
		return nil, err
	}

	if resp.StatusCode >= 400 {
		rt.limiter.Fail()
	} else {
		rt.limiter.Succeed()
	}

	return resp, nil
}

func addRateLimiter(client *http.Client, limiter RateLimiter) {
	rt := &rateLimitedRoundTripper{
		limiter: limiter,
	}
	if client.Transport == nil {
		rt.transport = http.DefaultTransport
	} else {
		rt.transport = client.Transport
	}
	client.Transport = rt
}

// retryablehttp hands hooks its own wrapper of the leveled logger, so the
// hooks close over the entry instead
func retryLog(logger *log.Entry) retryablehttp.RequestLogHook {
	return func(_ retryablehttp.Logger, req *http.Request, retryCount int) {
		if retryCount == 0 {
			return
		}
		logger.Warnf("try %d for %s: %s", retryCount, req.Method, req.URL)
	}
}

func responseLog(logger *log.Entry) retryablehttp.ResponseLogHook {
	return func(_ retryablehttp.Logger, res *http.Response) {
		logger.Tracef("%s: %s", res.Status, res.Request.URL)
	}
}

type ClientConfig struct {
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	Timeout      time.Duration
	// nil gets a fresh adaptive limiter
	Limiter RateLimiter
}

var DefaultClientConfig = ClientConfig{
	RetryMax:     4,
	RetryWaitMin: time.Second,
	RetryWaitMax: 30 * time.Second,
	Timeout:      30 * time.Second,
}

func NewRetryClientWithLimiter(logger *log.Entry, config ClientConfig) *http.Client {
	client := retryablehttp.NewClient()
	var l retryablehttp.LeveledLogger = LogrusLogger{Entry: logger}
	client.Logger = l
	client.RetryMax = config.RetryMax
	client.RetryWaitMin = config.RetryWaitMin
	client.RetryWaitMax = config.RetryWaitMax

	client.ResponseLogHook = responseLog(logger)
	client.RequestLogHook = retryLog(logger)
	stdClient := client.StandardClient()
	stdClient.Timeout = config.Timeout

	limiter := config.Limiter
	if limiter == nil {
		limiter = NewAdaptiveRateLimiter(10, 5, 5)
	}
	addRateLimiter(stdClient, limiter)
	AddHttpReporting(stdClient, logger)
	return stdClient
}

// NewClient is what every fetcher uses: resty on top of the retrying, rate
// limited client.
func NewClient(logger *log.Entry, config ClientConfig) *resty.Client {
	client := resty.NewWithClient(NewRetryClientWithLimiter(logger, config))
	client.SetHeader("User-Agent", UserAgent)
	return client
}

// shorthand to check if a response is within 200-299
func IsOk(r *http.Response) bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// returns a ErrTemporaryNetworkFailure wrapped error of either
// the respErr if not nill or status code if non "Ok"
func RespOrStatusErr(r *http.Response, respErr error) error {
	if respErr != nil {
		return errors.Join(ErrTemporaryNetworkFailure, respErr)
	}
	if !IsOk(r) {
		return fmt.Errorf(
			"%w Got status code %d",
			ErrTemporaryNetworkFailure,
			r.StatusCode,
		)
	}
	return nil
}

// Get fetches url and returns the body, any failure to get a 2xx response is
// a ErrTemporaryNetworkFailure.
func Get(ctx context.Context, client *resty.Client, url string) ([]byte, string, error) {
	resp, err := client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, "", RespOrStatusErr(nil, fmt.Errorf("GET %s: %w", url, err))
	}
	if err := RespOrStatusErr(resp.RawResponse, nil); err != nil {
		return nil, "", fmt.Errorf("GET %s: %w", url, err)
	}
	return resp.Body(), resp.Header().Get("Content-Type"), nil
}
