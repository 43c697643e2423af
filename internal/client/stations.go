package client

import (
	"encoding/json"
	"fmt"
	"os"
)

// Station is one rg11d daemon a client can query.
type Station struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	URL  string `json:"url"`
}

// DefaultStationsPath is used when neither the -config flag nor the
// RG11_CONFIG variable is set.
const DefaultStationsPath = "/etc/rg11/stations.json"

type stationsFile struct {
	Stations []Station `json:"stations"`
}

// LoadStations reads and validates the stations config file.
func LoadStations(path string) ([]Station, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stations config: %w", err)
	}

	var f stationsFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse stations config %s: %w", path, err)
	}
	if len(f.Stations) == 0 {
		return nil, fmt.Errorf("stations config %s: no stations defined", path)
	}

	seen := make(map[string]bool, len(f.Stations))
	for _, s := range f.Stations {
		if s.ID == "" {
			return nil, fmt.Errorf("stations config %s: station with empty id", path)
		}
		if s.URL == "" {
			return nil, fmt.Errorf("stations config %s: station %q has no url", path, s.ID)
		}
		if seen[s.ID] {
			return nil, fmt.Errorf("stations config %s: duplicate station id %q", path, s.ID)
		}
		seen[s.ID] = true
	}
	return f.Stations, nil
}

// FindStation resolves id against the configured stations. An empty id
// selects the only station when exactly one is configured.
func FindStation(stations []Station, id string) (Station, error) {
	if id == "" {
		if len(stations) == 1 {
			return stations[0], nil
		}
		return Station{}, fmt.Errorf("station id required (%d stations configured)", len(stations))
	}
	for _, s := range stations {
		if s.ID == id {
			return s, nil
		}
	}
	return Station{}, fmt.Errorf("unknown station %q", id)
}
