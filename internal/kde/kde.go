// Package kde implements weighted one-dimensional Gaussian kernel density
// estimation for the non-parametric emission model.
package kde

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
)

const (
	// Density floor applied before taking logs.
	epsilon = 1e-10

	// 1/sqrt(2*pi)
	invSqrt2Pi = 0.3989422804014327

	// Bandwidths below this collapse the kernel into a spike.
	minBandwidth = 1e-6
)

// Density is a fitted weighted Gaussian KDE. It is immutable once built;
// estimators replace the whole object instead of mutating it.
type Density struct {
	samples   []float64
	weights   []float64
	bandwidth float64
}

// New fits a KDE over the samples with Silverman's rule-of-thumb bandwidth.
// A nil weights slice means uniform weighting; otherwise weights are
// normalized to sum to one.
func New(samples, weights []float64) (*Density, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("kde: no samples")
	}
	if weights != nil && len(weights) != len(samples) {
		return nil, fmt.Errorf("kde: %d weights for %d samples", len(weights), len(samples))
	}

	d := &Density{
		samples: append([]float64(nil), samples...),
		weights: make([]float64, len(samples)),
	}

	if weights == nil {
		uniform := 1.0 / float64(len(samples))
		for i := range d.weights {
			d.weights[i] = uniform
		}
	} else {
		var total float64
		for _, w := range weights {
			total += w
		}
		if total <= 0 {
			uniform := 1.0 / float64(len(samples))
			for i := range d.weights {
				d.weights[i] = uniform
			}
		} else {
			for i, w := range weights {
				d.weights[i] = w / total
			}
		}
	}

	sigma, err := stats.StandardDeviation(stats.Float64Data(d.samples))
	if err != nil || sigma < minBandwidth {
		sigma = minBandwidth
	}
	n := float64(len(d.samples))
	d.bandwidth = sigma * math.Pow(4.0/(3.0*n), 0.2)
	if d.bandwidth < minBandwidth {
		d.bandwidth = minBandwidth
	}
	return d, nil
}

// Evaluate returns the density at x.
func (d *Density) Evaluate(x float64) float64 {
	var sum float64
	for i, xi := range d.samples {
		u := (x - xi) / d.bandwidth
		sum += d.weights[i] * invSqrt2Pi * math.Exp(-0.5*u*u) / d.bandwidth
	}
	return sum
}

// LogPDF returns the floored log density at x. The floor keeps degenerate
// evaluations from producing -Inf inside the likelihood accumulation.
func (d *Density) LogPDF(x float64) float64 {
	return math.Log(math.Max(d.Evaluate(x), epsilon))
}

// Bandwidth returns the fitted kernel bandwidth.
func (d *Density) Bandwidth() float64 {
	return d.bandwidth
}

// Weights returns the normalized sample weights.
func (d *Density) Weights() []float64 {
	return d.weights
}

// Samples returns the sample points the density was fitted on.
func (d *Density) Samples() []float64 {
	return d.samples
}

// MeanAbsWeightDelta measures how far a candidate weight vector has drifted
// from this density's weights. Estimators use it to skip a refit when the
// stage posteriors have barely moved.
func (d *Density) MeanAbsWeightDelta(candidate []float64) float64 {
	if len(candidate) != len(d.weights) {
		return math.Inf(1)
	}
	var sum float64
	for i, w := range candidate {
		sum += math.Abs(w - d.weights[i])
	}
	return sum / float64(len(candidate))
}
