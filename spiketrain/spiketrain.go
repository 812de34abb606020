// Package spiketrain loads retinal ganglion cell recordings and bins spike
// event timestamps onto the uniform time base of the stimulus.
package spiketrain

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"github.com/goccy/go-json"
)

var (
	ErrNoStimulus       = errors.New("no stimulus samples")
	ErrTimesLenMismatch = errors.New("stimulus times have a different length than the stimulus")
	ErrNonMonotonic     = errors.New("timestamps are not monotonically increasing")
	ErrNonUniform       = errors.New("stimulus times are not uniformly spaced")
	ErrUnknownCell      = errors.New("unknown cell identifier")
	ErrInvalidBinWidth  = errors.New("bin width must be positive")
	ErrInvalidBinCount  = errors.New("bin count must be positive")
)

// relative tolerance when checking the stimulus sample interval
const uniformTol = 1e-6

// Dataset represents a recording of a full field stimulus along with the
// spike event timestamps of every recorded cell. All times are in seconds
// relative to the start of the recording.
type Dataset struct {
	Stim       []float64            `json:"stim"`
	StimTimes  []float64            `json:"stim_times"`
	SpikeTimes map[string][]float64 `json:"spike_times"`
}

// Load decodes and validates a dataset from a JSON stream
func Load(r io.Reader) (*Dataset, error) {
	var d Dataset
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, fmt.Errorf("unable to decode dataset, %w", err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// LoadFile decodes and validates a dataset from a JSON file
func LoadFile(path string) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open dataset, %w", err)
	}
	defer file.Close()

	return Load(file)
}

// Validate checks that the stimulus has a uniform monotonic time base and
// that every cell's spike timestamps are ordered
func (d *Dataset) Validate() error {
	if len(d.Stim) < 2 {
		return ErrNoStimulus
	}
	if len(d.StimTimes) != len(d.Stim) {
		return fmt.Errorf(
			"stimulus has %d samples, but stimulus times has %d, %w",
			len(d.Stim), len(d.StimTimes), ErrTimesLenMismatch,
		)
	}

	dt := d.StimTimes[1] - d.StimTimes[0]
	if dt <= 0 {
		return fmt.Errorf("at sample 1, %w", ErrNonMonotonic)
	}
	for i := 1; i < len(d.StimTimes); i++ {
		diff := d.StimTimes[i] - d.StimTimes[i-1]
		if diff <= 0 {
			return fmt.Errorf("at sample %d, %w", i, ErrNonMonotonic)
		}
		if math.Abs(diff-dt) > uniformTol*dt {
			return fmt.Errorf("at sample %d, %w", i, ErrNonUniform)
		}
	}

	for cell, events := range d.SpikeTimes {
		for i := 1; i < len(events); i++ {
			if events[i] < events[i-1] {
				return fmt.Errorf("cell %s at event %d, %w", cell, i, ErrNonMonotonic)
			}
		}
	}
	return nil
}

// Dt returns the stimulus sample interval
func (d *Dataset) Dt() float64 {
	if len(d.StimTimes) < 2 {
		return 0.0
	}
	return d.StimTimes[1] - d.StimTimes[0]
}

// Cells returns the sorted cell identifiers present in the recording
func (d *Dataset) Cells() []string {
	cells := make([]string, 0, len(d.SpikeTimes))
	for cell := range d.SpikeTimes {
		cells = append(cells, cell)
	}
	sort.Strings(cells)
	return cells
}

// BinnedCounts histograms the spike events of a cell into one count per
// stimulus time bin
func (d *Dataset) BinnedCounts(cell string) ([]float64, error) {
	events, exists := d.SpikeTimes[cell]
	if !exists {
		return nil, fmt.Errorf("%s, %w", cell, ErrUnknownCell)
	}
	return BinCounts(events, len(d.Stim), d.Dt())
}

// BinCounts histograms event timestamps into nBins bins of width dt starting
// at time 0. Events outside the covered interval are dropped.
func BinCounts(events []float64, nBins int, dt float64) ([]float64, error) {
	if nBins <= 0 {
		return nil, ErrInvalidBinCount
	}
	if dt <= 0 {
		return nil, ErrInvalidBinWidth
	}

	counts := make([]float64, nBins)
	for _, ev := range events {
		if ev < 0 {
			continue
		}
		idx := int(math.Floor(ev / dt))
		if idx >= nBins {
			continue
		}
		counts[idx] += 1
	}
	return counts, nil
}
