package glm

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrInsufficientSamples = errors.New("insufficient samples for the requested folds")
	ErrInvalidFolds        = errors.New("need at least 2 folds")
)

// Fold holds the row indices of one train/test split
type Fold struct {
	TrainIdx []int
	TestIdx  []int
}

// KFold splits n row indices into contiguous test blocks with the remaining
// rows used for training
func KFold(n, folds int) ([]Fold, error) {
	if folds < 2 {
		return nil, ErrInvalidFolds
	}
	foldSamp := n / folds
	if foldSamp == 0 {
		return nil, fmt.Errorf("%d samples with %d folds, %w", n, folds, ErrInsufficientSamples)
	}

	res := make([]Fold, folds)
	for i := 0; i < folds; i++ {
		start := i * foldSamp
		end := start + foldSamp
		if i == folds-1 {
			end = n
		}

		test := make([]int, 0, end-start)
		train := make([]int, 0, n-(end-start))
		for j := 0; j < n; j++ {
			if j >= start && j < end {
				test = append(test, j)
				continue
			}
			train = append(train, j)
		}
		res[i] = Fold{TrainIdx: train, TestIdx: test}
	}
	return res, nil
}

// CVOptions represents input options to run cross-validated lambda selection
type CVOptions struct {
	// Folds is the number of cross-validation folds
	Folds int

	// Parallelization sets how many fold fits to run in parallel. More will
	// increase memory and compute usage.
	Parallelization int
}

// Validate runs basic validation on cross-validation options
func (o *CVOptions) Validate() (*CVOptions, error) {
	if o == nil {
		o = NewDefaultCVOptions()
	}
	if o.Folds < 2 {
		return nil, ErrInvalidFolds
	}
	if o.Parallelization <= 0 || o.Parallelization > o.Folds {
		o.Parallelization = 1
	}
	return o, nil
}

// NewDefaultCVOptions returns a default set of cross-validation options
func NewDefaultCVOptions() *CVOptions {
	return &CVOptions{
		Folds:           5,
		Parallelization: 1,
	}
}

// CVResult tracks the outcome of a cross-validated fit
type CVResult struct {
	// Model is refit on the full data at the selected lambda
	Model *Model

	// Lambda is the selected regularization strength
	Lambda float64

	// MeanScores holds the held-out score per path lambda averaged across folds
	MeanScores []float64
}

// CrossValidate fits the regularization path on every training fold, scores
// each path model on the held-out fold, selects the lambda with the best mean
// held-out score, and refits at that lambda on the full data.
func CrossValidate(opt *Options, cvOpt *CVOptions, x, y mat.Matrix) (*CVResult, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	cvOpt, err = cvOpt.Validate()
	if err != nil {
		return nil, err
	}
	if x == nil {
		return nil, ErrNoTrainingMatrix
	}
	if y == nil {
		return nil, ErrNoTargetMatrix
	}

	m, _ := x.Dims()
	ym, _ := y.Dims()
	if ym != m {
		return nil, fmt.Errorf("training data has %d rows and target has %d rows, %w", m, ym, ErrTargetLenMismatch)
	}

	folds, err := KFold(m, cvOpt.Folds)
	if err != nil {
		return nil, err
	}

	nLambdas := len(opt.Lambdas)
	scoreSums := make([]float64, nLambdas)
	scoreCnts := make([]int, nLambdas)
	var scoreMu sync.Mutex

	sem := make(chan struct{}, cvOpt.Parallelization)
	var wg sync.WaitGroup
	for _, fold := range folds {
		sem <- struct{}{}
		wg.Add(1)

		go func(fold Fold) {
			defer func() {
				wg.Done()
				<-sem
			}()

			trainX, trainY := subset(x, y, fold.TrainIdx)
			testX, testY := subset(x, y, fold.TestIdx)

			g, err := New(opt)
			if err != nil {
				slog.Error("unable to initialize glm for fold", "error", err.Error())
				return
			}
			if err := g.Fit(trainX, trainY); err != nil {
				slog.Error("unable to fit glm fold", "error", err.Error())
				return
			}
			path, err := g.Path()
			if err != nil {
				slog.Error("unable to fetch fitted path for fold", "error", err.Error())
				return
			}

			for i := 0; i < path.Len(); i++ {
				model, err := path.At(i)
				if err != nil {
					slog.Error("unable to fetch fitted path model", "error", err.Error())
					return
				}
				score, err := model.Score(testX, testY)
				if err != nil {
					slog.Error("unable to score held-out fold", "error", err.Error())
					return
				}
				if math.IsNaN(score) {
					continue
				}
				scoreMu.Lock()
				scoreSums[i] += score
				scoreCnts[i] += 1
				scoreMu.Unlock()
			}
		}(fold)
	}
	wg.Wait()

	bestIdx := -1
	bestScore := math.Inf(-1)
	if opt.Metric == MetricDeviance {
		bestScore = math.Inf(1)
	}
	meanScores := make([]float64, nLambdas)
	for i := 0; i < nLambdas; i++ {
		if scoreCnts[i] == 0 {
			meanScores[i] = math.NaN()
			continue
		}
		meanScores[i] = scoreSums[i] / float64(scoreCnts[i])

		better := meanScores[i] > bestScore
		if opt.Metric == MetricDeviance {
			better = meanScores[i] < bestScore
		}
		if better {
			bestScore = meanScores[i]
			bestIdx = i
		}
	}
	if bestIdx < 0 {
		return nil, ErrEmptyPath
	}

	// lambdas are fit in descending order so index the sorted path
	g, err := New(opt)
	if err != nil {
		return nil, err
	}
	if err := g.Fit(x, y); err != nil {
		return nil, fmt.Errorf("unable to refit on full data, %w", err)
	}
	path, err := g.Path()
	if err != nil {
		return nil, err
	}
	best, err := path.At(bestIdx)
	if err != nil {
		return nil, err
	}

	return &CVResult{
		Model:      best,
		Lambda:     best.Lambda,
		MeanScores: meanScores,
	}, nil
}

// subset extracts the given rows of the design and target matrices
func subset(x, y mat.Matrix, idx []int) (mat.Matrix, mat.Matrix) {
	_, n := x.Dims()
	subX := mat.NewDense(len(idx), n, nil)
	subY := mat.NewDense(len(idx), 1, nil)
	for i, rowIdx := range idx {
		for j := 0; j < n; j++ {
			subX.Set(i, j, x.At(rowIdx, j))
		}
		subY.Set(i, 0, y.At(rowIdx, 0))
	}
	return subX, subY
}
