// Package client queries rg11d daemons over their HTTP API and formats
// the results for the rg11 command line tool.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client queries one or more rg11d daemons.
type Client struct {
	http *http.Client
}

func New(timeout time.Duration) *Client {
	return &Client{http: &http.Client{Timeout: timeout}}
}

// Record is the measurement as served by the daemon.
type Record struct {
	Date            string `json:"date"`
	SoftwareVersion string `json:"software_version"`
	UnsafeSensors   int    `json:"unsafe_sensors"`
	TotalSensors    int    `json:"total_sensors"`
	Bitfield        string `json:"bitfield"`
}

// LastMeasurement fetches the daemon's current reading. ok is false when
// the daemon is up but has no data; any returned error means the daemon
// could not be reached or answered garbage, which callers must report
// rather than treat as no-data.
func (c *Client) LastMeasurement(ctx context.Context, station Station) (rec Record, ok bool, err error) {
	url := strings.TrimRight(station.URL, "/") + "/measurement"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Record{}, false, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Record{}, false, fmt.Errorf("query %s: %w", station.ID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Record{}, false, fmt.Errorf("query %s: unexpected status %d", station.ID, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Record{}, false, fmt.Errorf("query %s: read body: %w", station.ID, err)
	}

	// An empty object means "no data yet", a normal condition.
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return Record{}, false, fmt.Errorf("query %s: invalid response: %w", station.ID, err)
	}
	if len(raw) == 0 {
		return Record{}, false, nil
	}

	if err := json.Unmarshal(body, &rec); err != nil {
		return Record{}, false, fmt.Errorf("query %s: invalid response: %w", station.ID, err)
	}
	return rec, true, nil
}

// FormatStatus renders the human-readable status line.
func FormatStatus(rec Record) string {
	return fmt.Sprintf("%d of %d sensors report rain or faults (as of %s)",
		rec.UnsafeSensors, rec.TotalSensors, rec.Date)
}
