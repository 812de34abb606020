// Package stats provides goodness of fit metrics for spike count predictions.
package stats

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

var (
	ErrResLenMismatch = errors.New("predicted and actual have different lengths")
	ErrConstantSeries = errors.New("observed series is constant so the null model has zero error")
)

// Scores tracks the fit scores of a prediction against the observed counts
type Scores struct {
	MSE      float64 `json:"mean_squared_error"`
	PseudoR2 float64 `json:"pseudo_r_squared"`
}

// NewScores calculates the fit scores given the predicted and observed input slice
// values. A constant observed series makes the pseudo r-squared undefined and is
// reported as NaN.
func NewScores(predicted, actual []float64) (*Scores, error) {
	mse, err := MSE(predicted, actual)
	if err != nil {
		return nil, fmt.Errorf("unable to compute mean squared error, %w", err)
	}
	pr2, err := PseudoR2(predicted, actual)
	if err != nil && !errors.Is(err, ErrConstantSeries) {
		return nil, fmt.Errorf("unable to compute pseudo r-squared, %w", err)
	}

	return &Scores{
		MSE:      mse,
		PseudoR2: pr2,
	}, nil
}

// MSE computes the mean squared error between the predicted and actual values.
// A score of 0 means a perfect match with no errors.
func MSE(predicted, actual []float64) (float64, error) {
	if len(predicted) != len(actual) {
		return 0, fmt.Errorf("expected %d, but got %d, %w", len(actual), len(predicted), ErrResLenMismatch)
	}

	mse := 0.0
	for i := 0; i < len(actual); i++ {
		if math.IsNaN(actual[i]) || math.IsNaN(predicted[i]) {
			continue
		}
		mse += math.Pow(actual[i]-predicted[i], 2.0)
	}
	mse /= float64(len(actual))
	return mse, nil
}

// PseudoR2 computes 1 - MSE(model)/MSE(null) where the null model predicts the
// observed mean for every bin. A value of 1.0 means the predictions exactly
// match the observations and 0.0 means the model does no better than the mean.
// The metric is undefined for a constant observed series and returns NaN along
// with ErrConstantSeries rather than dividing by zero.
func PseudoR2(predicted, actual []float64) (float64, error) {
	if len(predicted) != len(actual) {
		return 0, fmt.Errorf("expected %d, but got %d, %w", len(actual), len(predicted), ErrResLenMismatch)
	}

	mean := stat.Mean(actual, nil)
	null := 0.0
	for i := 0; i < len(actual); i++ {
		if math.IsNaN(actual[i]) {
			continue
		}
		null += math.Pow(actual[i]-mean, 2.0)
	}
	null /= float64(len(actual))

	if null == 0 {
		return math.NaN(), ErrConstantSeries
	}

	mse, err := MSE(predicted, actual)
	if err != nil {
		return 0, err
	}
	return 1.0 - mse/null, nil
}
