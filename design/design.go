// Package design builds lagged design matrices from causal 1-D sequences
// using a sliding window (Hankel) embedding. Row t of the embedding holds the
// trailing window of samples ending at t, oldest sample first, with zeros
// where the window extends before the start of the recording.
package design

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrInvalidWindow  = errors.New("window length must be positive and smaller than the sequence length")
	ErrLengthMismatch = errors.New("stimulus and spike count sequences have different lengths")
	ErrNoSequence     = errors.New("no input sequence")
)

// Options configures the construction of a combined design matrix from a
// stimulus sequence and an optional binned spike count sequence.
type Options struct {
	// Window is the number of stimulus lags per row including the current bin.
	Window int

	// HistoryWindow is the number of spike history lags per row. The history
	// block is shifted by one bin so row t only references counts before t.
	// A value of 0 disables the history block.
	HistoryWindow int

	// Bias prepends a constant 1.0 column for an additive offset term.
	Bias bool
}

// Validate runs basic validation on the design options against the sequence length.
func (o *Options) Validate(n int) error {
	if o == nil {
		return errors.New("no design options")
	}
	if o.Window <= 0 || o.Window >= n {
		return fmt.Errorf("stimulus window of %d with %d samples, %w", o.Window, n, ErrInvalidWindow)
	}
	if o.HistoryWindow < 0 || o.HistoryWindow >= n {
		return fmt.Errorf("history window of %d with %d samples, %w", o.HistoryWindow, n, ErrInvalidWindow)
	}
	return nil
}

// Hankel embeds the causal sequence s into an (N, window) matrix where row t,
// column k holds s[t-window+1+k]. Samples before time 0 are zero, so each row
// depends only on s at times less than or equal to its own.
func Hankel(s []float64, window int) (*mat.Dense, error) {
	if len(s) == 0 {
		return nil, ErrNoSequence
	}
	if window <= 0 || window >= len(s) {
		return nil, fmt.Errorf("window of %d with %d samples, %w", window, len(s), ErrInvalidWindow)
	}

	n := len(s)
	x := mat.NewDense(n, window, nil)
	for t := 0; t < n; t++ {
		row := x.RawRowView(t)
		for k := 0; k < window; k++ {
			idx := t - window + 1 + k
			if idx < 0 {
				continue
			}
			row[k] = s[idx]
		}
	}
	return x, nil
}

// History embeds the binned spike count sequence into an (N, window) matrix
// shifted by one bin: row t, column k holds counts[t-window+k] so the last
// history column of row t references the count at t-1 and never the count at
// t itself.
func History(counts []float64, window int) (*mat.Dense, error) {
	if len(counts) == 0 {
		return nil, ErrNoSequence
	}
	if window <= 0 || window >= len(counts) {
		return nil, fmt.Errorf("history window of %d with %d samples, %w", window, len(counts), ErrInvalidWindow)
	}

	n := len(counts)
	x := mat.NewDense(n, window, nil)
	for t := 0; t < n; t++ {
		row := x.RawRowView(t)
		for k := 0; k < window; k++ {
			idx := t - window + k
			if idx < 0 {
				continue
			}
			row[k] = counts[idx]
		}
	}
	return x, nil
}

// Matrix builds the full design matrix for the given stimulus and binned
// spike count sequences following the provided options. The column layout is
// an optional bias column, followed by the stimulus lag block, followed by
// the spike history block if a history window is set.
func Matrix(stim, counts []float64, opt *Options) (*mat.Dense, error) {
	if err := opt.Validate(len(stim)); err != nil {
		return nil, err
	}
	if opt.HistoryWindow > 0 && len(counts) != len(stim) {
		return nil, fmt.Errorf(
			"stimulus has %d samples and spike counts has %d samples, %w",
			len(stim), len(counts), ErrLengthMismatch,
		)
	}

	x, err := Hankel(stim, opt.Window)
	if err != nil {
		return nil, err
	}

	if opt.HistoryWindow > 0 {
		hist, err := History(counts, opt.HistoryWindow)
		if err != nil {
			return nil, err
		}
		var combined mat.Dense
		combined.Augment(x, hist)
		x = &combined
	}

	if opt.Bias {
		x = WithBias(x)
	}
	return x, nil
}

// WithBias returns a copy of x with a constant 1.0 column prepended.
func WithBias(x mat.Matrix) *mat.Dense {
	m, _ := x.Dims()
	ones := make([]float64, m)
	floats.AddConst(1.0, ones)

	var res mat.Dense
	res.Augment(mat.NewDense(m, 1, ones), x)
	return &res
}
