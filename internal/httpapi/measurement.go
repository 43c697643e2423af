package httpapi

import (
	"net/http"

	"github.com/warwick-one-metre/rg11d/internal/publisher"
	"github.com/warwick-one-metre/rg11d/internal/utils"
)

type measurementHandler struct {
	pub *publisher.Publisher
}

// handleMeasurement serves the latest reading. No data yet is not an
// error: callers get an empty object and must treat transport-level
// failures, not this, as communication problems.
func (h *measurementHandler) handleMeasurement(w http.ResponseWriter, r *http.Request) {
	m, ok := h.pub.Latest()
	if !ok {
		utils.WriteJSON(w, http.StatusOK, map[string]any{})
		return
	}
	utils.WriteJSON(w, http.StatusOK, m)
}

func registerMeasurement(mux *http.ServeMux, pub *publisher.Publisher) {
	h := &measurementHandler{pub: pub}
	mux.HandleFunc("GET /measurement", h.handleMeasurement)
}
