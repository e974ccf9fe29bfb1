package server

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/user7210unix/lainchan/lainchan"
)

// FailureSource exposes the last failed load
type FailureSource interface {
	LastFailure() *lainchan.DebugInfo
}

func newHandlers(failures FailureSource) *handlers {
	return &handlers{failures: failures}
}

type handlers struct {
	failures FailureSource
}

func (h *handlers) HealthHandler(res http.ResponseWriter, req *http.Request) {
	res.Header().Set("Content-Type", "text/plain; charset=utf-8")
	res.WriteHeader(http.StatusOK)
	res.Write([]byte("ok\n"))
}

func (h *handlers) LastErrorHandler(res http.ResponseWriter, req *http.Request) {
	d := h.failures.LastFailure()
	if d == nil {
		res.WriteHeader(http.StatusNoContent)
		return
	}

	res.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(res).Encode(d)
	if err != nil {
		log.Errorf("failed to write debug info: %s", err)
	}
}
