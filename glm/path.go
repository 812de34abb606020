package glm

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrPathIndexOutOfBounds = errors.New("path index is out of bounds")
	ErrInvalidPathSlice     = errors.New("invalid path slice bounds")
	ErrEmptyPath            = errors.New("path has no fitted models")
)

// Model is a single fitted model on a regularization path
type Model struct {
	Lambda float64

	intercept float64
	coef      []float64
	fam       *family
	opt       *Options
}

// Predict computes the predicted response by applying the inverse link to the
// linear prediction of every design matrix row
func (m *Model) Predict(x mat.Matrix) ([]float64, error) {
	if x == nil {
		return nil, ErrNoDesignMatrix
	}

	rows, cols := x.Dims()
	if cols != len(m.coef) {
		return nil, fmt.Errorf("got %d features in design matrix, but expected %d, %w", cols, len(m.coef), ErrFeatureLenMismatch)
	}

	z := make([]float64, rows)
	zVec := mat.NewVecDense(rows, z)
	zVec.MulVec(x, mat.NewVecDense(cols, m.coef))
	floats.AddConst(m.intercept, z)

	res := make([]float64, rows)
	for i := 0; i < rows; i++ {
		res[i] = m.fam.mean(z[i], m.opt.Eta)
	}
	return res, nil
}

// Score computes the configured goodness of fit metric of the model
// predictions against the observed responses
func (m *Model) Score(x, y mat.Matrix) (float64, error) {
	if x == nil {
		return 0.0, ErrNoDesignMatrix
	}
	if y == nil {
		return 0.0, ErrNoTargetMatrix
	}

	rows, _ := x.Dims()
	ym, _ := y.Dims()
	if rows != ym {
		return 0.0, fmt.Errorf("design matrix has %d rows and target has %d rows, %w", rows, ym, ErrTargetLenMismatch)
	}

	mu, err := m.Predict(x)
	if err != nil {
		return 0.0, err
	}
	yArr := mat.Col(nil, 0, y)

	dev := m.fam.meanDeviance(yArr, mu)
	if m.opt.Metric == MetricDeviance {
		return dev, nil
	}

	// null model predicts the observed mean for every row
	mean := stat.Mean(yArr, nil)
	null := make([]float64, len(yArr))
	floats.AddConst(mean, null)
	nullDev := m.fam.meanDeviance(yArr, null)
	if nullDev == 0 {
		return math.NaN(), nil
	}
	return 1.0 - dev/nullDev, nil
}

// Intercept returns the fitted intercept
func (m *Model) Intercept() float64 {
	return m.intercept
}

// Coef returns a slice of the fitted coefficients in the same order of the
// training feature matrix by column
func (m *Model) Coef() []float64 {
	c := make([]float64, len(m.coef))
	copy(c, m.coef)
	return c
}

// Path is an ordered collection of fitted models, one per lambda on the
// regularization path in the order they were fit. Selecting a single index
// yields exactly one Model while slicing yields a reduced Path, keeping the
// two result shapes distinct.
type Path struct {
	models []*Model
}

// Len returns the number of fitted models on the path
func (p *Path) Len() int {
	if p == nil {
		return 0
	}
	return len(p.models)
}

// Lambdas returns the lambda of every fitted model in path order
func (p *Path) Lambdas() []float64 {
	lambdas := make([]float64, 0, p.Len())
	for _, m := range p.models {
		lambdas = append(lambdas, m.Lambda)
	}
	return lambdas
}

// At selects exactly one fitted model from the path
func (p *Path) At(i int) (*Model, error) {
	if i < 0 || i >= p.Len() {
		return nil, fmt.Errorf("index %d with %d models, %w", i, p.Len(), ErrPathIndexOutOfBounds)
	}
	return p.models[i], nil
}

// Slice returns the sub path covering [lo, hi)
func (p *Path) Slice(lo, hi int) (*Path, error) {
	if lo < 0 || hi > p.Len() || lo > hi {
		return nil, fmt.Errorf("bounds [%d, %d) with %d models, %w", lo, hi, p.Len(), ErrInvalidPathSlice)
	}
	models := make([]*Model, hi-lo)
	copy(models, p.models[lo:hi])
	return &Path{models: models}, nil
}

// Predict computes the predicted response of every model on the path,
// returning one series per lambda
func (p *Path) Predict(x mat.Matrix) ([][]float64, error) {
	if p.Len() == 0 {
		return nil, ErrEmptyPath
	}
	res := make([][]float64, 0, p.Len())
	for _, m := range p.models {
		pred, err := m.Predict(x)
		if err != nil {
			return nil, err
		}
		res = append(res, pred)
	}
	return res, nil
}
