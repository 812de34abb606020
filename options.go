package spikeglm

import (
	"github.com/aouyang1/go-spikeglm/design"
	"github.com/aouyang1/go-spikeglm/glm"
)

const (
	DefaultWindow        = 25
	DefaultHistoryWindow = 20
)

// Options configures a Fitter run covering the design matrix construction and
// the regularized GLM fits
type Options struct {
	// Window is the number of stimulus lags per design matrix row including
	// the current bin
	Window int

	// HistoryWindow is the number of causally shifted spike history lags
	// appended to the history augmented design matrix
	HistoryWindow int

	// GLM configures the regularized Poisson solver. The solver manages its
	// own intercept so no bias column is added for the GLM strategies.
	GLM *glm.Options
}

// NewDefaultOptions returns a default set of fit options for a retinal
// ganglion cell recording binned at the stimulus frame rate
func NewDefaultOptions() *Options {
	glmOpt := glm.NewDefaultOptions()
	glmOpt.Alpha = 0.05
	glmOpt.Lambdas = []float64{1e-7}
	glmOpt.Eta = 4.0

	return &Options{
		Window:        DefaultWindow,
		HistoryWindow: DefaultHistoryWindow,
		GLM:           glmOpt,
	}
}

// Validate runs basic validation on the fit options against the number of
// samples in the recording
func (o *Options) Validate(n int) (*Options, error) {
	if o == nil {
		o = NewDefaultOptions()
	}

	designOpt := &design.Options{
		Window:        o.Window,
		HistoryWindow: o.HistoryWindow,
	}
	if err := designOpt.Validate(n); err != nil {
		return nil, err
	}

	glmOpt, err := o.GLM.Validate()
	if err != nil {
		return nil, err
	}
	o.GLM = glmOpt
	return o, nil
}
