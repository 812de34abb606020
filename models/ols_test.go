package models

import (
	"testing"

	mat_ "github.com/aouyang1/go-spikeglm/mat"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestOLSRegression(t *testing.T) {
	// y = 2 + 3*x0 + 4*x1
	tol := 1e-8
	testData := map[string]struct {
		x         [][]float64
		y         []float64
		opt       *OLSOptions
		intercept float64
		coef      []float64
	}{
		"model intercept": {
			x: [][]float64{
				{0, 0},
				{3, 5},
				{9, 20},
				{12, 6},
				{15, 10},
			},
			y:         []float64{2, 31, 109, 62, 87},
			opt:       NewDefaultOLSOptions(),
			intercept: 2.0,
			coef:      []float64{3.0, 4.0},
		},
		"model no intercept": {
			x: [][]float64{
				{1, 0, 0},
				{1, 3, 5},
				{1, 9, 20},
				{1, 12, 6},
				{1, 15, 10},
			},
			y:         []float64{2, 31, 109, 62, 87},
			opt:       &OLSOptions{FitIntercept: false},
			intercept: 0.0,
			coef:      []float64{2.0, 3.0, 4.0},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			x, err := mat_.NewDenseFromArray(td.x)
			require.Nil(t, err)
			y := mat.NewDense(len(td.y), 1, td.y)

			model, err := NewOLSRegression(td.opt)
			require.Nil(t, err)

			err = model.Fit(x, y)
			require.Nil(t, err)

			assert.InDelta(t, td.intercept, model.Intercept(), tol)
			assert.InDeltaSlice(t, td.coef, model.Coef(), tol)

			r2, err := model.Score(x, y)
			require.Nil(t, err)
			assert.InDelta(t, 1.0, r2, tol)
		})
	}
}

func TestOLSRegressionSingular(t *testing.T) {
	// second column is a scalar multiple of the first making X'X non-invertible
	x, err := mat_.NewDenseFromArray([][]float64{
		{1, 2},
		{2, 4},
		{3, 6},
		{4, 8},
	})
	require.Nil(t, err)
	y := mat.NewDense(4, 1, []float64{1, 2, 3, 4})

	model, err := NewOLSRegression(nil)
	require.Nil(t, err)

	err = model.Fit(x, y)
	assert.ErrorIs(t, err, ErrSingularMatrix)
}

func TestOLSRegressionValidate(t *testing.T) {
	x, err := mat_.NewDenseFromArray([][]float64{{1, 2}, {3, 4}})
	require.Nil(t, err)
	y := mat.NewDense(2, 1, []float64{1, 2})

	model, err := NewOLSRegression(nil)
	require.Nil(t, err)

	testData := map[string]struct {
		x   mat.Matrix
		y   mat.Matrix
		err error
	}{
		"no training matrix": {nil, y, ErrNoTrainingMatrix},
		"no target matrix":   {x, nil, ErrNoTargetMatrix},
		"row mismatch":       {x, mat.NewDense(3, 1, []float64{1, 2, 3}), ErrTargetLenMismatch},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			err := model.Fit(td.x, td.y)
			assert.ErrorIs(t, err, td.err)
		})
	}
}

func TestOLSRegressionPredictMismatch(t *testing.T) {
	x, err := mat_.NewDenseFromArray([][]float64{
		{0, 0},
		{3, 5},
		{9, 20},
	})
	require.Nil(t, err)
	y := mat.NewDense(3, 1, []float64{2, 31, 109})

	model, err := NewOLSRegression(nil)
	require.Nil(t, err)
	require.Nil(t, model.Fit(x, y))

	wide, err := mat_.NewDenseFromArray([][]float64{{1, 2, 3}})
	require.Nil(t, err)
	_, err = model.Predict(wide)
	assert.ErrorIs(t, err, ErrFeatureLenMismatch)
}
