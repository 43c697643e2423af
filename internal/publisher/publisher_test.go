package publisher

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/warwick-one-metre/rg11d/internal/measurement"
)

func TestLatest_AbsentUntilFirstUpdate(t *testing.T) {
	p := New()
	if _, ok := p.Latest(); ok {
		t.Fatal("Latest() ok = true on a fresh publisher; want false")
	}
}

func TestUpdate_LastValueWins(t *testing.T) {
	p := New()
	first := measurement.New("0000", "dev", time.Now())
	second := measurement.New("0110", "dev", time.Now())

	p.Update(first)
	p.Update(second)

	got, ok := p.Latest()
	if !ok {
		t.Fatal("Latest() ok = false after Update")
	}
	if got.Bitfield != "0110" || got.UnsafeSensors != 2 {
		t.Errorf("Latest() = %+v; want the second measurement", got)
	}
}

func TestClear(t *testing.T) {
	p := New()
	p.Update(measurement.New("1111", "dev", time.Now()))
	p.Clear()
	if _, ok := p.Latest(); ok {
		t.Fatal("Latest() ok = true after Clear; want false")
	}
}

// A reader must only ever observe a complete measurement: every field of a
// snapshot has to belong to the same update, never a mix of two.
func TestConcurrentReadersNeverSeeTornRecord(t *testing.T) {
	p := New()

	const updates = 500
	const readers = 8

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for r := 0; r < readers; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				m, ok := p.Latest()
				if !ok {
					continue
				}
				// Each update writes bitfield "<i>" with version "<i>",
				// so a consistent snapshot has matching fields.
				if m.Bitfield != m.SoftwareVersion {
					t.Errorf("torn read: bitfield %q, version %q", m.Bitfield, m.SoftwareVersion)
					return
				}
				if m.TotalSensors != len(m.Bitfield) {
					t.Errorf("torn read: total %d, bitfield %q", m.TotalSensors, m.Bitfield)
					return
				}
			}
		}()
	}

	for i := 0; i < updates; i++ {
		tag := fmt.Sprintf("%d", i)
		p.Update(measurement.New(tag, tag, time.Now()))
	}
	close(stop)
	wg.Wait()
}
