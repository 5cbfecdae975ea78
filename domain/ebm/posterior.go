package ebm

// StagePosteriors maps each participant to their posterior distribution over
// latent stages. Each vector has length N+1, indexed by stage 0..N. Healthy
// participants carry full mass at index 0; diseased participants carry zero
// mass at index 0 and normalized mass over 1..N.
//
// Posteriors are recomputed every iteration and never persisted across
// iterations except implicitly through the accepted order and parameters.
type StagePosteriors map[int][]float64

// Clone deep-copies the posterior vectors.
func (sp StagePosteriors) Clone() StagePosteriors {
	cp := make(StagePosteriors, len(sp))
	for pid, probs := range sp {
		cp[pid] = append([]float64(nil), probs...)
	}
	return cp
}
