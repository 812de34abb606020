// Package spikeglm fits linear-Gaussian and regularized Poisson generalized
// linear models to binned spike train recordings. A stimulus sequence is
// embedded into a lagged design matrix, optionally augmented with causally
// shifted spike history, and three prediction strategies are fit and scored
// against the observed counts.
package spikeglm

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-echarts/go-echarts/v2/components"

	"github.com/aouyang1/go-spikeglm/design"
	"github.com/aouyang1/go-spikeglm/glm"
	"github.com/aouyang1/go-spikeglm/mat"
	"github.com/aouyang1/go-spikeglm/models"
	"github.com/aouyang1/go-spikeglm/stats"

	gmat "gonum.org/v1/gonum/mat"
)

var (
	ErrLengthMismatch  = errors.New("stimulus and spike count sequences have different lengths")
	ErrUntrainedFitter = errors.New("fitter has not been trained yet")
)

// Fitter fits the prediction strategies for a single cell recording and can
// be used to inspect predictions, fitted stimulus filters, and fit scores
type Fitter struct {
	opt *Options

	stim   []float64
	counts []float64

	linear      *models.OLSRegression
	poisson     *glm.GLM
	poissonHist *glm.GLM

	fitResults *Results
}

// New creates a new instance of a Fitter using the provided options. If no
// options are provided a default is used.
func New(opt *Options) (*Fitter, error) {
	if opt == nil {
		opt = NewDefaultOptions()
	}
	return &Fitter{opt: opt}, nil
}

// Fit builds the design matrices from the stimulus and binned spike counts
// and fits all three prediction strategies
func (f *Fitter) Fit(stim, counts []float64) error {
	if len(stim) != len(counts) {
		return fmt.Errorf(
			"stimulus has %d samples and spike counts has %d samples, %w",
			len(stim), len(counts), ErrLengthMismatch,
		)
	}

	opt, err := f.opt.Validate(len(stim))
	if err != nil {
		return err
	}
	f.opt = opt

	f.stim = make([]float64, len(stim))
	copy(f.stim, stim)
	f.counts = make([]float64, len(counts))
	copy(f.counts, counts)

	xStim, err := design.Hankel(f.stim, f.opt.Window)
	if err != nil {
		return fmt.Errorf("unable to build stimulus design matrix, %w", err)
	}

	xHist, err := design.Matrix(f.stim, f.counts, &design.Options{
		Window:        f.opt.Window,
		HistoryWindow: f.opt.HistoryWindow,
	})
	if err != nil {
		return fmt.Errorf("unable to build history augmented design matrix, %w", err)
	}

	y := mat.NewColumn(f.counts)

	linearRes, err := f.fitLinear(xStim, y)
	if err != nil {
		return err
	}
	poissonRes, err := f.fitPoisson(StrategyPoisson, xStim, y)
	if err != nil {
		return err
	}
	histRes, err := f.fitPoisson(StrategyPoissonHist, xHist, y)
	if err != nil {
		return err
	}

	f.fitResults = &Results{
		Observed:    f.counts,
		Linear:      linearRes,
		Poisson:     poissonRes,
		PoissonHist: histRes,
	}
	return nil
}

// fitLinear computes the closed form linear-Gaussian fit with an offset term.
// The fitted lag coefficients are the whitened spike triggered average.
func (f *Fitter) fitLinear(x gmat.Matrix, y gmat.Matrix) (*StrategyResult, error) {
	linear, err := models.NewOLSRegression(nil)
	if err != nil {
		return nil, err
	}
	if err := linear.Fit(x, y); err != nil {
		return nil, fmt.Errorf("unable to fit linear-Gaussian model, %w", err)
	}
	f.linear = linear

	predicted, err := linear.Predict(x)
	if err != nil {
		return nil, fmt.Errorf("unable to predict with linear-Gaussian model, %w", err)
	}

	scores, err := stats.NewScores(predicted, f.counts)
	if err != nil {
		return nil, err
	}

	return &StrategyResult{
		Strategy:  StrategyLinear,
		Intercept: linear.Intercept(),
		Coef:      linear.Coef(),
		Predicted: predicted,
		Scores:    scores,
	}, nil
}

func (f *Fitter) fitPoisson(strategy Strategy, x gmat.Matrix, y gmat.Matrix) (*StrategyResult, error) {
	g, err := glm.New(f.opt.GLM)
	if err != nil {
		return nil, err
	}
	if err := g.Fit(x, y); err != nil {
		return nil, fmt.Errorf("unable to fit %s model, %w", strategy, err)
	}

	predicted, err := g.Predict(x)
	if err != nil {
		return nil, fmt.Errorf("unable to predict with %s model, %w", strategy, err)
	}

	scores, err := stats.NewScores(predicted, f.counts)
	if err != nil {
		return nil, err
	}

	switch strategy {
	case StrategyPoissonHist:
		f.poissonHist = g
	default:
		f.poisson = g
	}

	return &StrategyResult{
		Strategy:  strategy,
		Intercept: g.Intercept(),
		Coef:      g.Coef(),
		Predicted: predicted,
		Scores:    scores,
	}, nil
}

// Results returns the outcome of the fit which includes the per strategy
// predictions and fit scores
func (f *Fitter) Results() (*Results, error) {
	if f.fitResults == nil {
		return nil, ErrUntrainedFitter
	}
	return f.fitResults, nil
}

// StimulusFilter returns the fitted stimulus lag coefficients of the given
// strategy ordered oldest lag first
func (f *Fitter) StimulusFilter(strategy Strategy) ([]float64, error) {
	if f.fitResults == nil {
		return nil, ErrUntrainedFitter
	}

	switch strategy {
	case StrategyLinear:
		return f.linear.Coef(), nil
	case StrategyPoisson:
		return f.poisson.Coef(), nil
	case StrategyPoissonHist:
		return f.poissonHist.Coef()[:f.opt.Window], nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", strategy)
	}
}

// HistoryFilter returns the fitted spike history coefficients of the history
// augmented strategy ordered oldest lag first
func (f *Fitter) HistoryFilter() ([]float64, error) {
	if f.fitResults == nil {
		return nil, ErrUntrainedFitter
	}
	return f.poissonHist.Coef()[f.opt.Window:], nil
}

// PlotFit uses the Apache Echarts library to generate an html file showing the
// observed spike counts with the predicted rates of every strategy, the fitted
// stimulus and history filters, and the leading rows of the history augmented
// design matrix. sampleBins limits how many bins of the fit are drawn.
func (f *Fitter) PlotFit(path string, sampleBins int) error {
	res, err := f.Results()
	if err != nil {
		return err
	}

	filters := make(map[Strategy][]float64, 3)
	for _, strategy := range []Strategy{StrategyLinear, StrategyPoisson, StrategyPoissonHist} {
		coef, err := f.StimulusFilter(strategy)
		if err != nil {
			return err
		}
		filters[strategy] = coef
	}

	histCoef, err := f.HistoryFilter()
	if err != nil {
		return err
	}

	xHist, err := f.DesignMatrix(StrategyPoissonHist)
	if err != nil {
		return err
	}

	page := components.NewPage()
	page.AddCharts(
		LineFit(res, sampleBins),
		LineFilters("Stimulus Filters", filters, f.opt.Window),
		LineFilters(
			"Spike History Filter",
			map[Strategy][]float64{StrategyPoissonHist: histCoef},
			f.opt.HistoryWindow,
		),
		HeatMapDesign("Design Matrix", xHist, 50),
	)
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	return page.Render(io.MultiWriter(file))
}

// DesignMatrix rebuilds the design matrix used by the given strategy. This is
// mainly useful for visualization.
func (f *Fitter) DesignMatrix(strategy Strategy) (gmat.Matrix, error) {
	if f.fitResults == nil {
		return nil, ErrUntrainedFitter
	}

	switch strategy {
	case StrategyLinear, StrategyPoisson:
		return design.Hankel(f.stim, f.opt.Window)
	case StrategyPoissonHist:
		return design.Matrix(f.stim, f.counts, &design.Options{
			Window:        f.opt.Window,
			HistoryWindow: f.opt.HistoryWindow,
		})
	default:
		return nil, fmt.Errorf("unknown strategy %q", strategy)
	}
}
