// Package lainchan loads board catalogs and threads from the lainchan JSON API.
package lainchan

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/user7210unix/lainchan/fetch"
)

var (
	// ErrNoBoard is returned when no board was selected
	ErrNoBoard = errors.New("no board selected")
)

// Fetcher retrieves JSON resources
type Fetcher interface {
	Fetch(ctx context.Context, url string) (json.RawMessage, error)
	Config() fetch.Config
}

// NewClient returns a client reading from apiBase through f
func NewClient(apiBase string, f Fetcher) *Client {
	if apiBase == "" {
		apiBase = DefaultAPIBase
	}
	return &Client{
		apiBase: apiBase,
		f:       f,
		now:     time.Now,
		m:       &sync.Mutex{},
	}
}

// Client represents an imageboard client instance
type Client struct {
	apiBase string
	f       Fetcher
	now     func() time.Time
	m       *sync.Mutex
	last    *DebugInfo
}

// APIBase returns the root of the JSON API
func (c *Client) APIBase() string {
	return c.apiBase
}

// Catalog loads the thread listing of board
func (c *Client) Catalog(ctx context.Context, board string) (Catalog, error) {
	if board == "" {
		return nil, ErrNoBoard
	}

	url := CatalogURL(c.apiBase, board)
	var catalog Catalog
	err := c.load(ctx, url, &catalog)
	if err != nil {
		return nil, err
	}

	return catalog, nil
}

// Thread loads the posts of thread no on board
func (c *Client) Thread(ctx context.Context, board string, no int64) (*Thread, error) {
	if board == "" {
		return nil, ErrNoBoard
	}
	if no <= 0 {
		return nil, errors.Errorf("invalid thread number %d", no)
	}

	url := ThreadURL(c.apiBase, board, no)
	thread := &Thread{}
	err := c.load(ctx, url, thread)
	if err != nil {
		return nil, err
	}

	return thread, nil
}

// LastFailure returns the debug info of the most recent failed load, nil if
// nothing failed yet
func (c *Client) LastFailure() *DebugInfo {
	c.m.Lock()
	defer c.m.Unlock()

	if c.last == nil {
		return nil
	}
	d := *c.last
	return &d
}

func (c *Client) load(ctx context.Context, url string, dst interface{}) error {
	data, err := c.f.Fetch(ctx, url)
	if err != nil {
		c.recordFailure(url, err)
		return err
	}

	err = json.Unmarshal(data, dst)
	if err != nil {
		err = errors.Wrapf(err, "failed to decode %s", url)
		c.recordFailure(url, err)
		return err
	}

	return nil
}

func (c *Client) recordFailure(url string, err error) {
	d := newDebugInfo(url, c.f.Config(), err, c.now())
	log.Debugf("Recorded failure for %s: %s", url, err)

	c.m.Lock()
	c.last = d
	c.m.Unlock()
}
