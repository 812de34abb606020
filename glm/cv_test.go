package glm

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestKFold(t *testing.T) {
	testData := map[string]struct {
		n     int
		folds int
		err   error
	}{
		"even split":      {10, 5, nil},
		"uneven split":    {11, 3, nil},
		"one fold":        {10, 1, ErrInvalidFolds},
		"too few samples": {3, 5, ErrInsufficientSamples},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			folds, err := KFold(td.n, td.folds)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			require.Len(t, folds, td.folds)

			seen := make(map[int]int)
			for _, fold := range folds {
				assert.Equal(t, td.n, len(fold.TrainIdx)+len(fold.TestIdx))
				for _, idx := range fold.TestIdx {
					seen[idx] += 1
				}
			}

			// every row is held out exactly once
			require.Len(t, seen, td.n)
			for idx, cnt := range seen {
				assert.Equal(t, 1, cnt, "row %d", idx)
			}
		})
	}
}

func TestCVOptionsValidate(t *testing.T) {
	opt, err := (*CVOptions)(nil).Validate()
	require.Nil(t, err)
	assert.Equal(t, NewDefaultCVOptions(), opt)

	_, err = (&CVOptions{Folds: 1}).Validate()
	assert.ErrorIs(t, err, ErrInvalidFolds)
}

func TestCrossValidate(t *testing.T) {
	rnd := rand.New(rand.NewPCG(53, 59))
	m, n := 400, 4
	x := testDesign(rnd, m, n)

	beta := []float64{1.0, -0.5, 0, 0}
	z := linearPredictor(x, 0.2, beta)
	y := mat.NewDense(m, 1, nil)
	for i := 0; i < m; i++ {
		y.Set(i, 0, z[i]+0.1*rnd.NormFloat64())
	}

	opt := &Options{
		Distribution: Gaussian,
		Alpha:        1.0,
		Lambdas:      []float64{1.0, 0.1, 0.01},
		LearningRate: 0.2,
		Iterations:   2000,
		Tolerance:    1e-8,
	}

	res, err := CrossValidate(opt, &CVOptions{Folds: 4, Parallelization: 2}, x, y)
	require.Nil(t, err)
	require.NotNil(t, res.Model)

	assert.Len(t, res.MeanScores, 3)

	// heavy regularization can't beat a light one on a strong linear signal
	assert.Less(t, res.Lambda, 1.0)

	score, err := res.Model.Score(x, y)
	require.Nil(t, err)
	assert.Greater(t, score, 0.9)
}

func TestCrossValidateValidation(t *testing.T) {
	x := mat.NewDense(10, 2, nil)
	y := mat.NewDense(10, 1, nil)

	_, err := CrossValidate(NewDefaultOptions(), NewDefaultCVOptions(), nil, y)
	assert.ErrorIs(t, err, ErrNoTrainingMatrix)

	_, err = CrossValidate(NewDefaultOptions(), NewDefaultCVOptions(), x, nil)
	assert.ErrorIs(t, err, ErrNoTargetMatrix)

	_, err = CrossValidate(NewDefaultOptions(), NewDefaultCVOptions(), x, mat.NewDense(5, 1, nil))
	assert.ErrorIs(t, err, ErrTargetLenMismatch)
}
