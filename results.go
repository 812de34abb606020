package spikeglm

import (
	"github.com/aouyang1/go-spikeglm/stats"
)

// Strategy identifies one of the prediction strategies run by a Fitter
type Strategy string

const (
	// StrategyLinear is the closed form linear-Gaussian fit with an offset term
	StrategyLinear Strategy = "linear_gaussian"

	// StrategyPoisson is the regularized Poisson GLM over stimulus lags
	StrategyPoisson Strategy = "poisson"

	// StrategyPoissonHist augments the Poisson GLM with causally shifted
	// spike history
	StrategyPoissonHist Strategy = "poisson_history"
)

// StrategyResult tracks the fitted parameters, prediction series, and fit
// scores of a single prediction strategy
type StrategyResult struct {
	Strategy  Strategy      `json:"strategy"`
	Intercept float64       `json:"intercept"`
	Coef      []float64     `json:"coefficients"`
	Predicted []float64     `json:"predicted"`
	Scores    *stats.Scores `json:"scores"`
}

// Results tracks the observed binned spike counts along with the outcome of
// every prediction strategy
type Results struct {
	Observed []float64 `json:"observed"`

	Linear      *StrategyResult `json:"linear_gaussian"`
	Poisson     *StrategyResult `json:"poisson"`
	PoissonHist *StrategyResult `json:"poisson_history"`
}

// Strategies returns the per strategy results in a stable order skipping any
// strategy that was not run
func (r *Results) Strategies() []*StrategyResult {
	if r == nil {
		return nil
	}
	res := make([]*StrategyResult, 0, 3)
	for _, sr := range []*StrategyResult{r.Linear, r.Poisson, r.PoissonHist} {
		if sr != nil {
			res = append(res, sr)
		}
	}
	return res
}
