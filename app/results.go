package app

import (
	"encoding/json"
	"os"
	"path/filepath"

	"goebm/domain/ebm"
	"goebm/internal/errors"
)

// thetaPhiExport is the serializable view of one biomarker's fitted
// distribution pair. Non-parametric fits report a density summary instead of
// raw samples.
type thetaPhiExport struct {
	ThetaMean float64 `json:"theta_mean"`
	ThetaStd  float64 `json:"theta_std"`
	PhiMean   float64 `json:"phi_mean"`
	PhiStd    float64 `json:"phi_std"`

	ThetaDensity *densityExport `json:"theta_kde,omitempty"`
	PhiDensity   *densityExport `json:"phi_kde,omitempty"`
}

type densityExport struct {
	Bandwidth float64 `json:"bandwidth"`
	NSamples  int     `json:"n_samples"`
}

type densitySummary interface {
	Bandwidth() float64
	Samples() []float64
}

type resultsFile struct {
	*ebm.RunResult
	ThetaPhi map[string]thetaPhiExport `json:"theta_phi_params"`
}

// WriteResults serializes the run artifact as pretty-printed JSON under dir,
// named by algorithm so sweeps over variants do not clobber each other.
func WriteResults(dir string, result *ebm.RunResult) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "creating results directory")
	}
	out := resultsFile{
		RunResult: result,
		ThetaPhi:  exportThetaPhi(result.FinalThetaPhi),
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding results")
	}
	path := filepath.Join(dir, "results_"+result.Algorithm+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "writing results file")
	}
	return nil
}

func exportThetaPhi(params ebm.ThetaPhi) map[string]thetaPhiExport {
	out := make(map[string]thetaPhiExport, len(params))
	for bm, fit := range params {
		e := thetaPhiExport{
			ThetaMean: fit.Theta.Mean,
			ThetaStd:  fit.Theta.Std,
			PhiMean:   fit.Phi.Mean,
			PhiStd:    fit.Phi.Std,
		}
		if d, ok := fit.Theta.Density.(densitySummary); ok {
			e.ThetaDensity = &densityExport{Bandwidth: d.Bandwidth(), NSamples: len(d.Samples())}
		}
		if d, ok := fit.Phi.Density.(densitySummary); ok {
			e.PhiDensity = &densityExport{Bandwidth: d.Bandwidth(), NSamples: len(d.Samples())}
		}
		out[string(bm)] = e
	}
	return out
}
