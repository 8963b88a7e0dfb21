package health

import (
	"net/http"
	"sync/atomic"
)

// Healthz returns 200 "ok\n" unconditionally.
func Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok\n"))
}

// Readiness gates /readyz on startup completion: the element cache and
// fallback table must have finished loading before the service takes
// traffic.
type Readiness struct {
	ready atomic.Bool
}

// SetReady marks startup as complete.
func (rd *Readiness) SetReady() {
	rd.ready.Store(true)
}

// Readyz returns 200 "ready\n" once SetReady has been called, 503 before.
func (rd *Readiness) Readyz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	if !rd.ready.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("starting\n"))
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready\n"))
}
