package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLastMeasurement(t *testing.T) {
	t.Run("returns the record", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/measurement" {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"date":"2025-06-01T08:00:02Z","software_version":"2.1","unsafe_sensors":1,"total_sensors":4,"bitfield":"0010"}`))
		}))
		defer srv.Close()

		c := New(time.Second)
		rec, ok, err := c.LastMeasurement(context.Background(), Station{ID: "onemetre", URL: srv.URL})
		if err != nil {
			t.Fatalf("err = %v; want nil", err)
		}
		if !ok {
			t.Fatal("ok = false; want true")
		}
		if rec.Bitfield != "0010" || rec.UnsafeSensors != 1 || rec.TotalSensors != 4 {
			t.Errorf("rec = %+v", rec)
		}
		if rec.Date != "2025-06-01T08:00:02Z" {
			t.Errorf("date = %q", rec.Date)
		}
	})

	t.Run("empty object means no data, not an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{}`))
		}))
		defer srv.Close()

		c := New(time.Second)
		_, ok, err := c.LastMeasurement(context.Background(), Station{ID: "onemetre", URL: srv.URL})
		if err != nil {
			t.Fatalf("err = %v; want nil", err)
		}
		if ok {
			t.Fatal("ok = true; want false for empty object")
		}
	})

	t.Run("unreachable daemon is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close() // shut down before querying

		c := New(time.Second)
		_, _, err := c.LastMeasurement(context.Background(), Station{ID: "onemetre", URL: srv.URL})
		if err == nil {
			t.Fatal("err = nil; want communication error")
		}
	})

	t.Run("unexpected status is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer srv.Close()

		c := New(time.Second)
		_, _, err := c.LastMeasurement(context.Background(), Station{ID: "onemetre", URL: srv.URL})
		if err == nil {
			t.Fatal("err = nil; want error on 500")
		}
	})

	t.Run("invalid body is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		}))
		defer srv.Close()

		c := New(time.Second)
		_, _, err := c.LastMeasurement(context.Background(), Station{ID: "onemetre", URL: srv.URL})
		if err == nil {
			t.Fatal("err = nil; want error on invalid body")
		}
	})
}

func TestFormatStatus(t *testing.T) {
	rec := Record{
		Date:          "2025-06-01T08:00:02Z",
		UnsafeSensors: 2,
		TotalSensors:  4,
	}
	got := FormatStatus(rec)
	want := "2 of 4 sensors report rain or faults (as of 2025-06-01T08:00:02Z)"
	if got != want {
		t.Errorf("FormatStatus() = %q; want %q", got, want)
	}
}
