package measurement

import (
	"encoding/json"
	"time"
)

// Measurement is one decoded status line from the rain multiplexer.
// Each character of Bitfield is the state of one sensor channel; '0'
// means safe, anything else (including fault codes) counts unsafe.
type Measurement struct {
	Date            time.Time
	SoftwareVersion string
	UnsafeSensors   int
	TotalSensors    int
	Bitfield        string
}

// New builds a Measurement from a decoded line by a linear scan of its
// characters. The timestamp is truncated to whole seconds and stored UTC.
func New(line string, version string, now time.Time) Measurement {
	unsafe := 0
	for i := 0; i < len(line); i++ {
		if line[i] != '0' {
			unsafe++
		}
	}
	return Measurement{
		Date:            now.UTC().Truncate(time.Second),
		SoftwareVersion: version,
		UnsafeSensors:   unsafe,
		TotalSensors:    len(line),
		Bitfield:        line,
	}
}

type wire struct {
	Date            string `json:"date"`
	SoftwareVersion string `json:"software_version"`
	UnsafeSensors   int    `json:"unsafe_sensors"`
	TotalSensors    int    `json:"total_sensors"`
	Bitfield        string `json:"bitfield"`
}

// MarshalJSON serializes the date as whole-second ISO-8601 UTC with a Z
// suffix, matching what the query clients expect.
func (m Measurement) MarshalJSON() ([]byte, error) {
	return json.Marshal(wire{
		Date:            m.Date.UTC().Format("2006-01-02T15:04:05Z"),
		SoftwareVersion: m.SoftwareVersion,
		UnsafeSensors:   m.UnsafeSensors,
		TotalSensors:    m.TotalSensors,
		Bitfield:        m.Bitfield,
	})
}

func (m *Measurement) UnmarshalJSON(data []byte) error {
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	t, err := time.Parse("2006-01-02T15:04:05Z", w.Date)
	if err != nil {
		t, err = time.Parse(time.RFC3339, w.Date)
		if err != nil {
			return err
		}
	}
	m.Date = t.UTC()
	m.SoftwareVersion = w.SoftwareVersion
	m.UnsafeSensors = w.UnsafeSensors
	m.TotalSensors = w.TotalSensors
	m.Bitfield = w.Bitfield
	return nil
}
