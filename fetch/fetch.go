// Package fetch retrieves JSON resources through a CORS proxy with caching,
// a fallback proxy, bounded retries and a per-attempt timeout.
package fetch

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	// DefaultPrimaryProxy is the proxy used by the first attempt
	DefaultPrimaryProxy = "https://cors-anywhere.herokuapp.com/"
	// DefaultFallbackProxy is the proxy alternated with the primary one
	DefaultFallbackProxy = "https://api.allorigins.win/raw?url="
	// DefaultRetries is the retry budget of a fetch, on top of the first attempt
	DefaultRetries = 3
	// DefaultTimeout bounds a single attempt
	DefaultTimeout = 10 * time.Second
	// DefaultRetryDelay is the pause between two attempts
	DefaultRetryDelay = time.Second
)

// Proxy identifies which proxy prefix an attempt goes through
type Proxy int

const (
	// Primary is the main proxy
	Primary Proxy = iota
	// Fallback is the alternative proxy
	Fallback
)

func (p Proxy) String() string {
	if p == Fallback {
		return "fallback"
	}
	return "primary"
}

func (p Proxy) toggle() Proxy {
	if p == Fallback {
		return Primary
	}
	return Fallback
}

// Cache is the key-value store consulted before going to the network
type Cache interface {
	Key(url string) string
	Get(key string) (json.RawMessage, bool)
	Set(key string, data json.RawMessage)
}

// Doer issues HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config represents a fetcher config
type Config struct {
	PrimaryProxy  string
	FallbackProxy string
	// Origin is sent as the Origin header when set
	Origin     string
	Retries    int
	Timeout    time.Duration
	RetryDelay time.Duration
}

// DefaultConfig returns the config used when nothing is overridden
func DefaultConfig() *Config {
	return &Config{
		PrimaryProxy:  DefaultPrimaryProxy,
		FallbackProxy: DefaultFallbackProxy,
		Retries:       DefaultRetries,
		Timeout:       DefaultTimeout,
		RetryDelay:    DefaultRetryDelay,
	}
}

// Attempt describes one in-flight request of a fetch
type Attempt struct {
	// Number is the 1-indexed attempt number
	Number      int
	URL         string
	Proxy       Proxy
	RetriesLeft int
}

// Option configures optional collaborators of a Fetcher
type Option func(*Fetcher)

// WithSignal sets the loading signal raised around every fetch
func WithSignal(s Signal) Option {
	return func(f *Fetcher) {
		if s != nil {
			f.signal = s
		}
	}
}

// WithMetrics sets the collectors updated by the fetcher
func WithMetrics(m *Metrics) Option {
	return func(f *Fetcher) {
		f.metrics = m
	}
}

// New creates a new fetcher
func New(c *Config, cache Cache, doer Doer, opts ...Option) (*Fetcher, error) {
	if c == nil {
		c = DefaultConfig()
	}
	if c.PrimaryProxy == "" || c.FallbackProxy == "" {
		return nil, errors.New("both a primary and a fallback proxy are required")
	}
	if c.Retries < 0 {
		return nil, errors.Errorf("invalid retry budget %d", c.Retries)
	}
	if c.Timeout <= 0 {
		return nil, errors.Errorf("invalid timeout %s", c.Timeout)
	}
	if cache == nil {
		return nil, errors.New("no cache provided")
	}
	if doer == nil {
		doer = &http.Client{}
	}

	f := &Fetcher{
		c:      c,
		cache:  cache,
		doer:   doer,
		signal: nopSignal{},
		sleep:  sleep,
	}
	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

// Fetcher represents a fetch pipeline instance
type Fetcher struct {
	c       *Config
	cache   Cache
	doer    Doer
	signal  Signal
	metrics *Metrics
	sleep   func(ctx context.Context, d time.Duration) error
}

// Config returns the fetcher config
func (f *Fetcher) Config() Config {
	return *f.c
}

// Fetch returns the JSON document at url using the configured retry budget,
// starting with the primary proxy.
func (f *Fetcher) Fetch(ctx context.Context, url string) (json.RawMessage, error) {
	return f.FetchWith(ctx, url, f.c.Retries, false)
}

// FetchWith returns the JSON document at url.
// A cached copy is returned without touching the network. Otherwise up to
// retries+1 attempts are made, switching proxy on every retry, and the last
// error is returned as an *Error once the budget is spent.
func (f *Fetcher) FetchWith(ctx context.Context, url string, retries int, useFallback bool) (data json.RawMessage, err error) {
	f.signal.Start()
	defer f.signal.Settle()

	key := f.cache.Key(url)
	if data, ok := f.cache.Get(key); ok {
		log.Debugf("Using cached data for %s", url)
		f.metrics.cacheHit()
		return data, nil
	}
	f.metrics.cacheMiss()
	defer func() { f.metrics.settled(err) }()

	if retries < 0 {
		retries = 0
	}
	a := &Attempt{
		URL:         url,
		Proxy:       Primary,
		RetriesLeft: retries,
	}
	if useFallback {
		a.Proxy = Fallback
	}

	for {
		a.Number++
		data, err := f.attempt(ctx, a)
		if err == nil {
			f.cache.Set(key, data)
			return data, nil
		}

		log.WithFields(log.Fields{
			"url":          url,
			"proxy":        f.proxyURL(a.Proxy),
			"attempt":      a.Number,
			"retries_left": a.RetriesLeft,
		}).Warnf("Fetch error: %s", err)

		if a.RetriesLeft == 0 || ctx.Err() != nil {
			return nil, f.failure(a, err)
		}
		if serr := f.sleep(ctx, f.c.RetryDelay); serr != nil {
			return nil, f.failure(a, err)
		}
		a.RetriesLeft--
		a.Proxy = a.Proxy.toggle()
	}
}

// attempt performs a single request bounded by its own timeout
func (f *Fetcher) attempt(ctx context.Context, a *Attempt) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, f.c.Timeout)
	defer cancel()

	start := time.Now()
	data, err := f.do(ctx, f.proxyURL(a.Proxy)+a.URL)
	f.metrics.attempt(a.Proxy, err, time.Since(start))

	return data, err
}

func (f *Fetcher) do(ctx context.Context, target string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &NetworkError{Err: errors.Wrap(err, "failed to create request")}
	}
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Accept", "application/json")
	if f.c.Origin != "" {
		req.Header.Set("Origin", f.c.Origin)
	}

	res, err := f.doer.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer res.Body.Close()

	return readResponse(res)
}

func (f *Fetcher) proxyURL(p Proxy) string {
	if p == Fallback {
		return f.c.FallbackProxy
	}
	return f.c.PrimaryProxy
}

func (f *Fetcher) failure(a *Attempt, err error) *Error {
	return &Error{
		URL:      a.URL,
		Proxy:    a.Proxy,
		ProxyURL: f.proxyURL(a.Proxy),
		Attempts: a.Number,
		Err:      err,
	}
}

// sleep waits for d or until ctx is done
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
