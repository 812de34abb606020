// Package glm fits elastic net regularized generalized linear models using
// batch proximal gradient descent. A fit covers a descending regularization
// path with warm starts, producing one fitted model per lambda.
package glm

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	DefaultAlpha        = 0.5
	DefaultLearningRate = 0.2
	DefaultIterations   = 1000
	DefaultTolerance    = 1e-6
	DefaultEta          = 2.0

	defaultLambdaMax   = 0.5
	defaultLambdaMin   = 0.01
	defaultLambdaCount = 10
)

var (
	ErrInvalidAlpha         = errors.New("alpha must be between 0 and 1")
	ErrNegativeLambda       = errors.New("negative lambda")
	ErrNoLambdas            = errors.New("no lambdas provided to fit with")
	ErrNegativeIterations   = errors.New("negative iterations")
	ErrNegativeTolerance    = errors.New("negative tolerance")
	ErrInvalidLearningRate  = errors.New("learning rate must be positive")
	ErrUnknownMetric        = errors.New("unknown score metric")
	ErrUntrainedModel       = errors.New("model has not been fit yet")
	ErrNoTrainingMatrix     = errors.New("no training matrix")
	ErrNoTargetMatrix       = errors.New("no target matrix")
	ErrNoDesignMatrix       = errors.New("no design matrix for inference")
	ErrTargetLenMismatch    = errors.New("target length does not match training rows")
	ErrFeatureLenMismatch   = errors.New("number of features does not match number of model coefficients")
	ErrCoefficientLenZero   = errors.New("no coefficients provided")
	ErrNegativeMeanResponse = errors.New("simulated mean response is negative")
)

// Metric selects the goodness of fit measure reported by Score.
type Metric string

const (
	// MetricDeviance reports the mean unit deviance, lower is better
	MetricDeviance Metric = "deviance"

	// MetricPseudoR2 reports 1 - deviance(model)/deviance(null), higher is better
	MetricPseudoR2 Metric = "pseudo_r2"
)

// Options represents input options to fit a regularized GLM
type Options struct {
	// Distribution picks the response distribution and inverse link
	Distribution Distribution

	// Alpha is the elastic net mix. 1.0 is a pure L1 penalty and 0.0 a pure
	// L2 penalty.
	Alpha float64

	// Lambdas is the regularization path. Values are fit in descending order
	// with each solution warm starting the next.
	Lambdas []float64

	// LearningRate scales the gradient step of each iteration
	LearningRate float64

	// Iterations is the maximum number of gradient steps per lambda
	Iterations int

	// Tolerance is the smallest relative coefficient change used to determine
	// when to stop iterating
	Tolerance float64

	// Eta is the linearization threshold of the PoissonExp inverse link
	Eta float64

	// Metric selects the score reported by Score
	Metric Metric
}

// NewDefaultOptions returns a default set of GLM fit options
func NewDefaultOptions() *Options {
	return &Options{
		Distribution: Poisson,
		Alpha:        DefaultAlpha,
		Lambdas:      DefaultLambdaPath(),
		LearningRate: DefaultLearningRate,
		Iterations:   DefaultIterations,
		Tolerance:    DefaultTolerance,
		Eta:          DefaultEta,
		Metric:       MetricPseudoR2,
	}
}

// DefaultLambdaPath returns a log spaced descending regularization path
func DefaultLambdaPath() []float64 {
	lambdas := make([]float64, defaultLambdaCount)
	start := math.Log10(defaultLambdaMax)
	end := math.Log10(defaultLambdaMin)
	step := (end - start) / float64(defaultLambdaCount-1)
	for i := range lambdas {
		lambdas[i] = math.Pow(10, start+float64(i)*step)
	}
	return lambdas
}

// Validate runs basic validation on GLM options
func (o *Options) Validate() (*Options, error) {
	if o == nil {
		o = NewDefaultOptions()
	}

	if _, err := newFamily(o.Distribution); err != nil {
		return nil, err
	}
	if o.Alpha < 0 || o.Alpha > 1 {
		return nil, ErrInvalidAlpha
	}
	if len(o.Lambdas) == 0 {
		return nil, ErrNoLambdas
	}
	for _, lambda := range o.Lambdas {
		if lambda < 0 {
			return nil, ErrNegativeLambda
		}
	}
	if o.LearningRate <= 0 {
		return nil, ErrInvalidLearningRate
	}
	if o.Iterations < 0 {
		return nil, ErrNegativeIterations
	}
	if o.Tolerance < 0 {
		return nil, ErrNegativeTolerance
	}
	switch o.Metric {
	case MetricDeviance, MetricPseudoR2:
	case "":
		o.Metric = MetricPseudoR2
	default:
		return nil, fmt.Errorf("%q, %w", o.Metric, ErrUnknownMetric)
	}
	return o, nil
}

// GLM fits an elastic net regularized generalized linear model over a
// descending regularization path. The model manages its own intercept so the
// design matrix must not carry a bias column.
type GLM struct {
	opt  *Options
	fam  *family
	path *Path
}

// New initializes a GLM ready for fitting
func New(opt *Options) (*GLM, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	fam, err := newFamily(opt.Distribution)
	if err != nil {
		return nil, err
	}
	return &GLM{
		opt: opt,
		fam: fam,
	}, nil
}

// Fit runs proximal gradient descent for every lambda on the regularization
// path in descending order, warm starting each fit from the previous solution.
func (g *GLM) Fit(x, y mat.Matrix) error {
	x, yArr, err := g.fitValidate(x, y)
	if err != nil {
		return err
	}
	m, n := x.Dims()

	lambdas := make([]float64, len(g.opt.Lambdas))
	copy(lambdas, g.opt.Lambdas)
	for i := 1; i < len(lambdas); i++ {
		if lambdas[i] > lambdas[i-1] {
			floats.Reverse(lambdas)
			break
		}
	}

	beta := make([]float64, n)
	intercept := 0.0

	models := make([]*Model, 0, len(lambdas))
	for _, lambda := range lambdas {
		intercept = g.fitSingle(x, yArr, m, n, lambda, intercept, beta)

		coef := make([]float64, n)
		copy(coef, beta)
		models = append(models, &Model{
			Lambda:    lambda,
			intercept: intercept,
			coef:      coef,
			fam:       g.fam,
			opt:       g.opt,
		})
	}

	g.path = &Path{models: models}
	return nil
}

// fitSingle minimizes the penalized loss for one lambda, updating beta in
// place and returning the fitted intercept.
func (g *GLM) fitSingle(x mat.Matrix, y []float64, m, n int, lambda, intercept float64, beta []float64) float64 {
	l1Pen := lambda * g.opt.Alpha
	l2Pen := lambda * (1.0 - g.opt.Alpha)
	lr := g.opt.LearningRate

	grad := make([]float64, n)
	for i := 0; i < g.opt.Iterations; i++ {
		grad0 := g.gradients(x, y, intercept, beta, l2Pen, grad)

		maxCoef := 0.0
		maxUpdate := 0.0

		interceptNext := intercept - lr*grad0
		maxCoef = math.Abs(interceptNext)
		maxUpdate = math.Abs(interceptNext - intercept)
		intercept = interceptNext

		for j := 0; j < n; j++ {
			betaNext := SoftThreshold(beta[j]-lr*grad[j], lr*l1Pen)

			maxCoef = math.Max(maxCoef, math.Abs(betaNext))
			maxUpdate = math.Max(maxUpdate, math.Abs(betaNext-beta[j]))
			beta[j] = betaNext
		}

		// break early if we've achieved the desired tolerance
		if maxUpdate <= g.opt.Tolerance*math.Max(maxCoef, 1.0) {
			break
		}
	}
	return intercept
}

// gradients fills grad with the gradient of the smooth penalized loss with
// respect to the coefficients and returns the intercept gradient.
func (g *GLM) gradients(x mat.Matrix, y []float64, intercept float64, beta []float64, l2Pen float64, grad []float64) float64 {
	m, n := x.Dims()

	z := make([]float64, m)
	zVec := mat.NewVecDense(m, z)
	zVec.MulVec(x, mat.NewVecDense(n, beta))
	floats.AddConst(intercept, z)

	dz := make([]float64, m)
	grad0 := 0.0
	for i := 0; i < m; i++ {
		dz[i] = g.fam.nllGrad(y[i], z[i], g.opt.Eta) / float64(m)
		grad0 += dz[i]
	}

	gradVec := mat.NewVecDense(n, grad)
	gradVec.MulVec(x.T(), mat.NewVecDense(m, dz))
	floats.AddScaled(grad, l2Pen, beta)
	return grad0
}

func (g *GLM) fitValidate(x, y mat.Matrix) (mat.Matrix, []float64, error) {
	if x == nil {
		return nil, nil, ErrNoTrainingMatrix
	}
	if y == nil {
		return nil, nil, ErrNoTargetMatrix
	}

	m, _ := x.Dims()
	ym, _ := y.Dims()
	if ym != m {
		return nil, nil, fmt.Errorf("training data has %d rows and target has %d rows, %w", m, ym, ErrTargetLenMismatch)
	}
	return x, mat.Col(nil, 0, y), nil
}

// Path returns the fitted regularization path
func (g *GLM) Path() (*Path, error) {
	if g.path == nil {
		return nil, ErrUntrainedModel
	}
	return g.path, nil
}

// Final returns the fitted model at the smallest lambda on the path
func (g *GLM) Final() (*Model, error) {
	if g.path == nil {
		return nil, ErrUntrainedModel
	}
	return g.path.At(g.path.Len() - 1)
}

// Predict computes the predicted response of the final path model
func (g *GLM) Predict(x mat.Matrix) ([]float64, error) {
	final, err := g.Final()
	if err != nil {
		return nil, err
	}
	return final.Predict(x)
}

// Score computes the configured metric of the final path model
func (g *GLM) Score(x, y mat.Matrix) (float64, error) {
	final, err := g.Final()
	if err != nil {
		return 0.0, err
	}
	return final.Score(x, y)
}

// Intercept returns the fitted intercept of the final path model. Defaults to
// 0.0 before fitting.
func (g *GLM) Intercept() float64 {
	final, err := g.Final()
	if err != nil {
		return 0.0
	}
	return final.Intercept()
}

// Coef returns the fitted coefficients of the final path model in the same
// order as the training feature matrix by column
func (g *GLM) Coef() []float64 {
	final, err := g.Final()
	if err != nil {
		return nil
	}
	return final.Coef()
}

// GradL2Loss returns the gradient of the smooth part of the objective, the
// mean negative log-likelihood plus the L2 penalty, with respect to the
// intercept and coefficients. The L1 penalty is handled by the proximal step
// and is not part of this gradient.
func (g *GLM) GradL2Loss(intercept float64, coef []float64, l2Penalty float64, x, y mat.Matrix) (float64, []float64, error) {
	x, yArr, err := g.fitValidate(x, y)
	if err != nil {
		return 0.0, nil, err
	}
	_, n := x.Dims()
	if len(coef) != n {
		return 0.0, nil, fmt.Errorf("got %d coefficients for %d features, %w", len(coef), n, ErrFeatureLenMismatch)
	}
	if l2Penalty < 0 {
		return 0.0, nil, ErrNegativeLambda
	}

	grad := make([]float64, n)
	grad0 := g.gradients(x, yArr, intercept, coef, l2Penalty, grad)
	return grad0, grad, nil
}

// Simulate draws a response sample for every design matrix row under the
// configured distribution given an intercept and coefficients
func (g *GLM) Simulate(intercept float64, coef []float64, x mat.Matrix) ([]float64, error) {
	if x == nil {
		return nil, ErrNoDesignMatrix
	}
	if len(coef) == 0 {
		return nil, ErrCoefficientLenZero
	}
	m, n := x.Dims()
	if len(coef) != n {
		return nil, fmt.Errorf("got %d coefficients for %d features, %w", len(coef), n, ErrFeatureLenMismatch)
	}

	z := make([]float64, m)
	zVec := mat.NewVecDense(m, z)
	zVec.MulVec(x, mat.NewVecDense(n, coef))
	floats.AddConst(intercept, z)

	res := make([]float64, m)
	for i := 0; i < m; i++ {
		mu := g.fam.mean(z[i], g.opt.Eta)
		switch g.fam.name {
		case Gaussian:
			res[i] = distuv.Normal{Mu: mu, Sigma: 1.0}.Rand()
		case Binomial:
			res[i] = distuv.Bernoulli{P: mu}.Rand()
		default:
			if mu < 0 {
				return nil, ErrNegativeMeanResponse
			}
			res[i] = distuv.Poisson{Lambda: mu}.Rand()
		}
	}
	return res, nil
}

// SoftThreshold shrinks the value towards zero by gamma, returning 0.0 if the
// magnitude is less than or equal to gamma
func SoftThreshold(x, gamma float64) float64 {
	res := math.Max(0, math.Abs(x)-gamma)
	if math.Signbit(x) {
		return -res
	}
	return res
}
