package lainchan

import (
	"fmt"
	"strings"
	"time"

	"github.com/user7210unix/lainchan/fetch"
)

// DebugInfo describes a failed load so it can be shown to the user
type DebugInfo struct {
	URL           string    `json:"url"`
	PrimaryProxy  string    `json:"primary_proxy"`
	FallbackProxy string    `json:"fallback_proxy"`
	LastProxy     string    `json:"last_proxy,omitempty"`
	Attempts      int       `json:"attempts,omitempty"`
	LastError     string    `json:"last_error"`
	Timestamp     time.Time `json:"timestamp"`
}

func newDebugInfo(url string, c fetch.Config, err error, now time.Time) *DebugInfo {
	d := &DebugInfo{
		URL:           url,
		PrimaryProxy:  c.PrimaryProxy,
		FallbackProxy: c.FallbackProxy,
		LastError:     "Unknown",
		Timestamp:     now.UTC(),
	}
	if err != nil {
		d.LastError = err.Error()
	}
	if fe, ok := err.(*fetch.Error); ok {
		d.LastProxy = fe.ProxyURL
		d.Attempts = fe.Attempts
	}
	return d
}

func (d *DebugInfo) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "URL: %s\n", d.URL)
	fmt.Fprintf(&b, "Primary Proxy: %s\n", d.PrimaryProxy)
	fmt.Fprintf(&b, "Fallback Proxy: %s\n", d.FallbackProxy)
	if d.LastProxy != "" {
		fmt.Fprintf(&b, "Last Proxy: %s (%d attempts)\n", d.LastProxy, d.Attempts)
	}
	fmt.Fprintf(&b, "Last Error: %s\n", d.LastError)
	fmt.Fprintf(&b, "Timestamp: %s\n", d.Timestamp.Format(time.RFC3339))
	return b.String()
}
