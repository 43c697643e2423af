package httpapi

import (
	"net/http"

	"github.com/warwick-one-metre/rg11d/internal/publisher"
)

// LinkStatus is implemented by the watcher; healthz reports it.
type LinkStatus interface {
	Connected() bool
}

func NewMux(pub *publisher.Publisher, link LinkStatus) *http.ServeMux {
	mux := http.NewServeMux()
	registerHealthcheck(mux, link)
	registerMeasurement(mux, pub)
	return mux
}
