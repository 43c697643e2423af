package httpapi

import (
	"net/http"

	"github.com/warwick-one-metre/rg11d/internal/utils"
)

type healthchecker interface {
	handleHealthz(w http.ResponseWriter, r *http.Request)
}

type healthcheckerImpl struct {
	link LinkStatus
}

func NewHealthchecker(link LinkStatus) healthchecker {
	return &healthcheckerImpl{link: link}
}

// handleHealthz reports liveness plus whether the multiplexer link is
// currently up. A daemon in a reconnect streak is still healthy; the
// device_connected flag is informational.
func (h *healthcheckerImpl) handleHealthz(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"status":           "ok",
		"device_connected": h.link.Connected(),
	})
}

func registerHealthcheck(mux *http.ServeMux, link LinkStatus) {
	healthchecker := NewHealthchecker(link)
	mux.HandleFunc("GET /healthz", healthchecker.handleHealthz)
}
