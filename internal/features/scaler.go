package features

import (
	"fmt"

	"github.com/lucerovega/mirada/server/domain/repositories"
)

// Scaler standardizes raw action-unit vectors with a persisted (mean, scale)
// pair. A nil-params Scaler is the identity transform: when no scaler
// artifact exists the pipeline proceeds on raw features, which is a
// documented fallback rather than a defect.
type Scaler struct {
	mean  []float64
	scale []float64
}

// NewScaler builds a scaler from persisted parameters. Passing nil yields
// the identity scaler. A scale entry of exactly 0 is treated as 1 so the
// transform can never divide by zero.
func NewScaler(params *repositories.ScalerParams) (*Scaler, error) {
	if params == nil {
		return &Scaler{}, nil
	}
	if len(params.Mean) != len(params.Scale) {
		return nil, fmt.Errorf("scaler dimensions disagree: mean=%d scale=%d", len(params.Mean), len(params.Scale))
	}
	scale := make([]float64, len(params.Scale))
	for i, s := range params.Scale {
		if s == 0 {
			s = 1
		}
		scale[i] = s
	}
	mean := make([]float64, len(params.Mean))
	copy(mean, params.Mean)
	return &Scaler{mean: mean, scale: scale}, nil
}

// Identity reports whether this scaler passes features through unchanged.
func (s *Scaler) Identity() bool { return len(s.mean) == 0 }

// Transform returns (raw[i]-mean[i])/scale[i] elementwise. The input is not
// mutated.
func (s *Scaler) Transform(raw []float64) ([]float64, error) {
	out := make([]float64, len(raw))
	if s.Identity() {
		copy(out, raw)
		return out, nil
	}
	if len(raw) != len(s.mean) {
		return nil, fmt.Errorf("feature vector has %d dims, scaler expects %d", len(raw), len(s.mean))
	}
	for i, v := range raw {
		out[i] = (v - s.mean[i]) / s.scale[i]
	}
	return out, nil
}
