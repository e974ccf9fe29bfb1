package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Config represents a diagnostics server config
type Config struct {
	ListenAddr string
	// Gatherer is scraped on /metrics, the default registry when nil
	Gatherer prometheus.Gatherer
}
