package design

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestHankel(t *testing.T) {
	stim := make([]float64, 100)
	for i := range stim {
		stim[i] = float64(i % 2)
	}

	window := 5
	x, err := Hankel(stim, window)
	require.Nil(t, err)

	m, n := x.Dims()
	assert.Equal(t, 100, m)
	assert.Equal(t, window, n)

	// leading rows are zero padded where the window extends before time 0
	assert.Equal(t, []float64{0, 0, 0, 0, stim[0]}, x.RawRowView(0))
	assert.Equal(t, []float64{0, 0, 0, stim[0], stim[1]}, x.RawRowView(1))

	// row 4 is the first fully populated window, oldest sample first
	assert.Equal(t, []float64{stim[0], stim[1], stim[2], stim[3], stim[4]}, x.RawRowView(4))

	// last row holds the trailing window ending at the final sample
	assert.Equal(t, []float64{stim[95], stim[96], stim[97], stim[98], stim[99]}, x.RawRowView(99))
}

func TestHankelInvalid(t *testing.T) {
	testData := map[string]struct {
		s      []float64
		window int
		err    error
	}{
		"empty sequence":         {nil, 3, ErrNoSequence},
		"zero window":            {[]float64{1, 2, 3}, 0, ErrInvalidWindow},
		"negative window":        {[]float64{1, 2, 3}, -1, ErrInvalidWindow},
		"window equals sequence": {[]float64{1, 2, 3}, 3, ErrInvalidWindow},
		"window exceeds":         {[]float64{1, 2, 3}, 4, ErrInvalidWindow},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			_, err := Hankel(td.s, td.window)
			assert.ErrorIs(t, err, td.err)
		})
	}
}

func TestHistory(t *testing.T) {
	counts := []float64{2, 0, 1, 3, 0}

	x, err := History(counts, 3)
	require.Nil(t, err)

	m, n := x.Dims()
	assert.Equal(t, 5, m)
	assert.Equal(t, 3, n)

	// row t may only reference counts before t
	assert.Equal(t, []float64{0, 0, 0}, x.RawRowView(0))
	assert.Equal(t, []float64{0, 0, counts[0]}, x.RawRowView(1))
	assert.Equal(t, []float64{0, counts[0], counts[1]}, x.RawRowView(2))
	assert.Equal(t, []float64{counts[0], counts[1], counts[2]}, x.RawRowView(3))
	assert.Equal(t, []float64{counts[1], counts[2], counts[3]}, x.RawRowView(4))
}

func TestHistoryCausality(t *testing.T) {
	counts := []float64{2, 0, 1, 3, 0, 1, 1, 0}
	x, err := History(counts, 3)
	require.Nil(t, err)

	// perturbing the count at time t must not change row t
	for i := range counts {
		perturbed := make([]float64, len(counts))
		copy(perturbed, counts)
		perturbed[i] += 100.0

		xp, err := History(perturbed, 3)
		require.Nil(t, err)
		assert.Equal(t, x.RawRowView(i), xp.RawRowView(i), "row %d changed by its own bin", i)
	}
}

func TestMatrix(t *testing.T) {
	stim := []float64{0.5, -1.0, 1.0, -0.5, 0.25, 1.5}
	counts := []float64{1, 0, 2, 0, 1, 0}

	testData := map[string]struct {
		opt  *Options
		cols int
	}{
		"stimulus only":       {&Options{Window: 3}, 3},
		"with bias":           {&Options{Window: 3, Bias: true}, 4},
		"with history":        {&Options{Window: 3, HistoryWindow: 2}, 5},
		"bias and history":    {&Options{Window: 3, HistoryWindow: 2, Bias: true}, 6},
		"full window history": {&Options{Window: 4, HistoryWindow: 5}, 9},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			x, err := Matrix(stim, counts, td.opt)
			require.Nil(t, err)

			m, n := x.Dims()
			assert.Equal(t, len(stim), m)
			assert.Equal(t, td.cols, n)

			if td.opt.Bias {
				bias := mat.Col(nil, 0, x)
				for _, v := range bias {
					assert.Equal(t, 1.0, v)
				}
			}
		})
	}
}

func TestMatrixLayout(t *testing.T) {
	stim := []float64{0.5, -1.0, 1.0, -0.5, 0.25}
	counts := []float64{1, 0, 2, 0, 1}

	x, err := Matrix(stim, counts, &Options{Window: 2, HistoryWindow: 2, Bias: true})
	require.Nil(t, err)

	// row 3: bias, stim lags [stim[2], stim[3]], history [counts[1], counts[2]]
	assert.Equal(t, []float64{1.0, stim[2], stim[3], counts[1], counts[2]}, x.RawRowView(3))
}

func TestMatrixInvalid(t *testing.T) {
	stim := []float64{0.5, -1.0, 1.0, -0.5, 0.25}

	testData := map[string]struct {
		stim   []float64
		counts []float64
		opt    *Options
		err    error
	}{
		"mismatched lengths": {
			stim, []float64{1, 0}, &Options{Window: 2, HistoryWindow: 2}, ErrLengthMismatch,
		},
		"window too large": {
			stim, stim, &Options{Window: 5}, ErrInvalidWindow,
		},
		"history too large": {
			stim, stim, &Options{Window: 2, HistoryWindow: 5}, ErrInvalidWindow,
		},
		"non-positive window": {
			stim, stim, &Options{Window: 0}, ErrInvalidWindow,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			_, err := Matrix(td.stim, td.counts, td.opt)
			assert.ErrorIs(t, err, td.err)
		})
	}
}
