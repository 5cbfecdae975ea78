package ebm

import (
	"fmt"
)

// StagePriorKind selects how prior mass is spread over the diseased stages.
type StagePriorKind string

const (
	// PriorUniform weights every diseased stage 1..N equally.
	PriorUniform StagePriorKind = "uniform"
	// PriorDirichlet weights diseased stages by the mean of a Dirichlet with
	// the configured concentration vector. A symmetric vector reduces to
	// uniform; an asymmetric one encodes that stages are not a priori
	// equally likely.
	PriorDirichlet StagePriorKind = "dirichlet"
)

// StagePrior is the shared prior over a participant's latent stage. Stage 0
// (normal for all biomarkers) is implicit: healthy participants are pinned to
// it and diseased participants marginalize over stages 1..N, so the prior
// weights cover the diseased stages only.
type StagePrior struct {
	kind   StagePriorKind
	alphas []float64
}

// NewUniformPrior builds the uniform stage prior.
func NewUniformPrior() StagePrior {
	return StagePrior{kind: PriorUniform}
}

// NewDirichletPrior builds a Dirichlet-mean stage prior from concentration
// parameters, one per diseased stage. All alphas must be positive.
func NewDirichletPrior(alphas []float64) (StagePrior, error) {
	if len(alphas) == 0 {
		return StagePrior{}, fmt.Errorf("dirichlet prior needs at least one concentration parameter")
	}
	for i, a := range alphas {
		if a <= 0 {
			return StagePrior{}, fmt.Errorf("dirichlet alpha[%d] = %v must be positive", i, a)
		}
	}
	cp := make([]float64, len(alphas))
	copy(cp, alphas)
	return StagePrior{kind: PriorDirichlet, alphas: cp}, nil
}

// Weights returns the normalized prior probability of each diseased stage
// 1..n, indexed 0..n-1.
func (sp StagePrior) Weights(n int) ([]float64, error) {
	if n <= 0 {
		return nil, fmt.Errorf("stage count must be positive, got %d", n)
	}
	w := make([]float64, n)
	switch sp.kind {
	case PriorDirichlet:
		if len(sp.alphas) != n {
			return nil, fmt.Errorf("dirichlet prior has %d alphas for %d stages", len(sp.alphas), n)
		}
		var total float64
		for _, a := range sp.alphas {
			total += a
		}
		for i, a := range sp.alphas {
			w[i] = a / total
		}
	default:
		for i := range w {
			w[i] = 1.0 / float64(n)
		}
	}
	return w, nil
}

// Kind returns the prior kind.
func (sp StagePrior) Kind() StagePriorKind {
	if sp.kind == "" {
		return PriorUniform
	}
	return sp.kind
}
