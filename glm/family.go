package glm

import (
	"errors"
	"fmt"
	"math"
)

// Distribution selects the response distribution and inverse link of a GLM.
type Distribution string

const (
	// Gaussian models a real valued response with an identity link
	Gaussian Distribution = "gaussian"

	// Poisson models a count response with a softplus inverse link which keeps
	// the conditional intensity positive without the blow-up of an exponential
	Poisson Distribution = "poisson"

	// PoissonExp models a count response with an exponential inverse link,
	// linearized above the Eta threshold to keep gradients bounded
	PoissonExp Distribution = "poissonexp"

	// Binomial models a binary response with a logistic inverse link
	Binomial Distribution = "binomial"
)

var ErrUnknownDistribution = errors.New("unknown distribution")

// minMu keeps logs and quotients defined when the conditional mean underflows.
const minMu = 1e-10

// family bundles the inverse link, its derivative, and the unit deviance for
// a response distribution. The eta argument only applies to PoissonExp where
// it sets the linearization threshold of the exponential inverse link.
type family struct {
	name Distribution

	// mean maps the linear predictor to the conditional mean
	mean func(z, eta float64) float64

	// meanDeriv is the derivative of mean with respect to the linear predictor
	meanDeriv func(z, eta float64) float64

	// deviance is the unit deviance of an observation against its mean
	deviance func(y, mu float64) float64
}

func newFamily(d Distribution) (*family, error) {
	switch d {
	case Gaussian:
		return &gaussianFamily, nil
	case Poisson:
		return &poissonFamily, nil
	case PoissonExp:
		return &poissonExpFamily, nil
	case Binomial:
		return &binomialFamily, nil
	default:
		return nil, fmt.Errorf("%q, %w", d, ErrUnknownDistribution)
	}
}

var gaussianFamily = family{
	name: Gaussian,
	mean: func(z, _ float64) float64 {
		return z
	},
	meanDeriv: func(_, _ float64) float64 {
		return 1.0
	},
	deviance: func(y, mu float64) float64 {
		return (y - mu) * (y - mu)
	},
}

var poissonFamily = family{
	name:      Poisson,
	mean:      func(z, _ float64) float64 { return softplus(z) },
	meanDeriv: func(z, _ float64) float64 { return sigmoid(z) },
	deviance:  poissonDeviance,
}

var poissonExpFamily = family{
	name: PoissonExp,
	mean: func(z, eta float64) float64 {
		if z <= eta {
			return math.Exp(z)
		}
		return math.Exp(eta) * (1.0 + z - eta)
	},
	meanDeriv: func(z, eta float64) float64 {
		if z <= eta {
			return math.Exp(z)
		}
		return math.Exp(eta)
	},
	deviance: poissonDeviance,
}

var binomialFamily = family{
	name:      Binomial,
	mean:      func(z, _ float64) float64 { return sigmoid(z) },
	meanDeriv: func(z, _ float64) float64 { s := sigmoid(z); return s * (1.0 - s) },
	deviance: func(y, mu float64) float64 {
		mu = math.Min(math.Max(mu, minMu), 1.0-minMu)
		d := 0.0
		if y > 0 {
			d += y * math.Log(y/mu)
		}
		if y < 1 {
			d += (1.0 - y) * math.Log((1.0-y)/(1.0-mu))
		}
		return 2.0 * d
	},
}

func poissonDeviance(y, mu float64) float64 {
	mu = math.Max(mu, minMu)
	d := mu - y
	if y > 0 {
		d += y * math.Log(y/mu)
	}
	return 2.0 * d
}

func softplus(z float64) float64 {
	// exact to double precision in either tail
	if z > 35 {
		return z
	}
	if z < -35 {
		return math.Exp(z)
	}
	return math.Log1p(math.Exp(z))
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}

// nllGrad is the derivative of the mean scaled negative log-likelihood with
// respect to the linear predictor of a single observation.
func (f *family) nllGrad(y, z, eta float64) float64 {
	switch f.name {
	case Gaussian:
		return z - y
	case Binomial:
		return f.mean(z, eta) - y
	default:
		mu := math.Max(f.mean(z, eta), minMu)
		dmu := f.meanDeriv(z, eta)
		return dmu - y*dmu/mu
	}
}

// meanDeviance computes the average unit deviance of predictions against
// observations.
func (f *family) meanDeviance(y, mu []float64) float64 {
	dev := 0.0
	for i := range y {
		dev += f.deviance(y[i], mu[i])
	}
	return dev / float64(len(y))
}
