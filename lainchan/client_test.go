package lainchan

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user7210unix/lainchan/cache"
	"github.com/user7210unix/lainchan/fetch"
)

type fakeFetcher struct {
	docs map[string]string
	err  error
	urls []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (json.RawMessage, error) {
	f.urls = append(f.urls, url)
	if f.err != nil {
		return nil, f.err
	}
	doc, ok := f.docs[url]
	if !ok {
		return nil, &fetch.Error{URL: url, Err: &fetch.HTTPError{StatusCode: 404}}
	}
	return json.RawMessage(doc), nil
}

func (f *fakeFetcher) Config() fetch.Config {
	return *fetch.DefaultConfig()
}

func TestClientCatalog(t *testing.T) {
	assert := assert.New(t)
	f := &fakeFetcher{docs: map[string]string{
		"https://lainchan.org/g/catalog.json": catalogJSON,
	}}
	c := NewClient("", f)

	catalog, err := c.Catalog(context.Background(), "g")
	require.NoError(t, err)
	assert.Len(catalog, 2)
	assert.Len(catalog.Threads(), 3)
	assert.Nil(c.LastFailure())
	assert.Equal(DefaultAPIBase, c.APIBase())
}

func TestClientNoBoard(t *testing.T) {
	f := &fakeFetcher{}
	c := NewClient("", f)

	_, err := c.Catalog(context.Background(), "")
	assert.Equal(t, ErrNoBoard, err)
	_, err = c.Thread(context.Background(), "", 1)
	assert.Equal(t, ErrNoBoard, err)
	_, err = c.Thread(context.Background(), "g", 0)
	assert.Error(t, err)
	assert.Empty(t, f.urls)
}

func TestClientThread(t *testing.T) {
	assert := assert.New(t)
	f := &fakeFetcher{docs: map[string]string{
		"https://lainchan.org/g/res/7.json": `{"posts":[{"no":7,"sub":"OP"},{"no":8,"resto":7,"com":"&gt;&gt;7 nice"}]}`,
	}}
	c := NewClient("", f)

	th, err := c.Thread(context.Background(), "g", 7)
	require.NoError(t, err)
	assert.Equal("OP", th.Title(7))
	assert.Len(th.Posts, 2)
	assert.Equal([]int64{7}, th.Posts[1].Quotes())
}

func TestClientRecordsFailure(t *testing.T) {
	assert := assert.New(t)
	f := &fakeFetcher{err: &fetch.Error{
		URL:      "https://lainchan.org/g/catalog.json",
		Proxy:    fetch.Fallback,
		ProxyURL: fetch.DefaultFallbackProxy,
		Attempts: 4,
		Err:      &fetch.HTTPError{StatusCode: 503, Body: "down"},
	}}
	c := NewClient("", f)
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	c.now = func() time.Time { return now }

	_, err := c.Catalog(context.Background(), "g")
	assert.EqualError(err, "HTTP 503: down")

	d := c.LastFailure()
	require.NotNil(t, d)
	assert.Equal("https://lainchan.org/g/catalog.json", d.URL)
	assert.Equal(fetch.DefaultPrimaryProxy, d.PrimaryProxy)
	assert.Equal(fetch.DefaultFallbackProxy, d.FallbackProxy)
	assert.Equal(fetch.DefaultFallbackProxy, d.LastProxy)
	assert.Equal(4, d.Attempts)
	assert.Equal("HTTP 503: down", d.LastError)
	assert.Equal(now, d.Timestamp)
	assert.Contains(d.String(), "Last Error: HTTP 503: down")
	assert.Contains(d.String(), "Timestamp: 2024-01-02T03:04:05Z")
}

func TestClientDecodeFailure(t *testing.T) {
	f := &fakeFetcher{docs: map[string]string{
		"https://lainchan.org/g/catalog.json": `{"not":"a catalog"}`,
	}}
	c := NewClient("", f)

	_, err := c.Catalog(context.Background(), "g")
	assert.Error(t, err)
	require.NotNil(t, c.LastFailure())
	assert.Contains(t, c.LastFailure().LastError, "failed to decode")
}

func TestDebugInfoUnknownError(t *testing.T) {
	d := newDebugInfo("u", *fetch.DefaultConfig(), nil, time.Now())
	assert.Equal(t, "Unknown", d.LastError)

	d = newDebugInfo("u", *fetch.DefaultConfig(), errors.New("boom"), time.Now())
	assert.Equal(t, "boom", d.LastError)
	assert.Empty(t, d.LastProxy)
}

// TestClientThroughPipeline drives a real fetcher and cache through an
// httptest proxy that fails once before answering.
func TestClientThroughPipeline(t *testing.T) {
	assert := assert.New(t)
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		assert.True(strings.HasSuffix(r.URL.Query().Get("url"), "/g/catalog.json"))
		io.WriteString(w, catalogJSON)
	}))
	defer srv.Close()

	kv, err := cache.New(cache.NewMemoryBackend(), 0, "")
	require.NoError(t, err)
	f, err := fetch.New(&fetch.Config{
		PrimaryProxy:  srv.URL + "/",
		FallbackProxy: srv.URL + "/raw?url=",
		Retries:       3,
		Timeout:       time.Second,
	}, kv, srv.Client())
	require.NoError(t, err)
	c := NewClient(DefaultAPIBase, f)

	catalog, err := c.Catalog(context.Background(), "g")
	require.NoError(t, err)
	assert.Len(catalog.Threads(), 3)
	assert.Equal(int32(2), calls.Load())

	_, err = c.Catalog(context.Background(), "g")
	require.NoError(t, err)
	assert.Equal(int32(2), calls.Load())
}
