package audio

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lucerovega/mirada/server/domain/entities"
	"github.com/lucerovega/mirada/server/domain/repositories"
)

// audioFeatureDim is the summary-statistics vector fed to the audio model:
// mean, stddev, RMS, peak, zero-crossing rate, and low/mid/high-band energy
// ratios computed over the prepared window.
const audioFeatureDim = 8

// EmotionPredictor estimates an emotion vector from a prepared waveform.
// When no model artifact exists it falls back to a deterministic statistical
// heuristic; that output is tagged SourceHeuristic so fusion and reporting
// can discount or exclude it rather than treat it as model-grade.
type EmotionPredictor struct {
	store       repositories.ModelStore
	modelName   string
	loadTimeout time.Duration
	logger      *zap.Logger

	mu      sync.Mutex
	loading chan struct{}
	model   *repositories.DenseModel
	loadErr error
	done    bool
}

// NewEmotionPredictor wires the predictor to a model store.
func NewEmotionPredictor(store repositories.ModelStore, modelName string, loadTimeout time.Duration, logger *zap.Logger) *EmotionPredictor {
	return &EmotionPredictor{
		store:       store,
		modelName:   modelName,
		loadTimeout: loadTimeout,
		logger:      logger,
	}
}

// Available probes the store; it never errors.
func (p *EmotionPredictor) Available(ctx context.Context) bool {
	return p.store.Exists(ctx, p.modelName)
}

// Predict runs model inference when the artifact exists, otherwise the
// heuristic. An empty buffer is an error: there is nothing to estimate.
func (p *EmotionPredictor) Predict(ctx context.Context, buffer entities.AudioBuffer) (entities.Prediction, error) {
	if len(buffer.Samples) == 0 {
		return entities.Prediction{}, fmt.Errorf("%w: empty audio buffer", repositories.ErrModelUnavailable)
	}
	if !p.Available(ctx) {
		p.logger.Warn("audio emotion model absent, using statistical heuristic",
			zap.String("model", p.modelName))
		return heuristicPrediction(buffer), nil
	}
	if err := p.ensureLoaded(ctx); err != nil {
		// Loading failed even though the probe succeeded; degrade the
		// same way and keep the provenance honest.
		p.logger.Error("audio model load failed, using statistical heuristic", zap.Error(err))
		return heuristicPrediction(buffer), nil
	}
	feats := summaryFeatures(buffer)
	out, err := forwardDense(p.model, feats)
	if err != nil {
		p.logger.Error("audio inference failed", zap.Error(err))
		return entities.Prediction{}, fmt.Errorf("%w: %v", repositories.ErrModelUnavailable, err)
	}
	var v entities.EmotionVector
	for i, e := range entities.EmotionOrder {
		if i < len(out) {
			v.Set(e, out[i]*entities.EmotionScaleMax)
		}
	}
	return entities.Prediction{Vector: v.Clamped(), Source: entities.SourceModel}, nil
}

func (p *EmotionPredictor) ensureLoaded(ctx context.Context) error {
	p.mu.Lock()
	if p.done {
		err := p.loadErr
		p.mu.Unlock()
		return err
	}
	if p.loading != nil {
		ch := p.loading
		p.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
		p.mu.Lock()
		err := p.loadErr
		p.mu.Unlock()
		return err
	}
	ch := make(chan struct{})
	p.loading = ch
	p.mu.Unlock()

	loadCtx, cancel := context.WithTimeout(ctx, p.loadTimeout)
	defer cancel()
	model, err := p.store.LoadDenseModel(loadCtx, p.modelName)
	if err != nil {
		err = fmt.Errorf("%w: %v", repositories.ErrModelUnavailable, err)
	} else if model.InputDim != audioFeatureDim {
		err = fmt.Errorf("%w: audio model expects %d inputs, want %d", repositories.ErrModelUnavailable, model.InputDim, audioFeatureDim)
		model = nil
	}

	p.mu.Lock()
	p.model = model
	p.loadErr = err
	p.done = true
	p.loading = nil
	close(ch)
	p.mu.Unlock()
	return err
}

// forwardDense runs the persisted network on one feature vector.
func forwardDense(m *repositories.DenseModel, in []float64) ([]float64, error) {
	if len(in) != m.InputDim {
		return nil, fmt.Errorf("input has %d dims, model expects %d", len(in), m.InputDim)
	}
	x := in
	for _, layer := range m.Layers {
		out := make([]float64, len(layer.Biases))
		copy(out, layer.Biases)
		for i, v := range x {
			if v == 0 {
				continue
			}
			for j, w := range layer.Weights[i] {
				out[j] += v * w
			}
		}
		switch layer.Activation {
		case "relu":
			for j, v := range out {
				if v < 0 {
					out[j] = 0
				}
			}
		case "sigmoid":
			for j, v := range out {
				out[j] = 1 / (1 + math.Exp(-v))
			}
		case "", "linear":
		default:
			return nil, fmt.Errorf("unknown activation %q", layer.Activation)
		}
		x = out
	}
	return x, nil
}

// summaryFeatures condenses the window into the fixed statistics vector.
func summaryFeatures(buffer entities.AudioBuffer) []float64 {
	samples := buffer.Samples
	n := float64(len(samples))

	var sum, sumSq, peak float64
	crossings := 0
	for i, s := range samples {
		sum += s
		sumSq += s * s
		if a := math.Abs(s); a > peak {
			peak = a
		}
		if i > 0 && (s >= 0) != (samples[i-1] >= 0) {
			crossings++
		}
	}
	mean := sum / n
	variance := sumSq/n - mean*mean
	if variance < 0 {
		variance = 0
	}
	std := math.Sqrt(variance)
	rms := math.Sqrt(sumSq / n)
	zcr := float64(crossings) / n

	// Coarse band energies from thirds of the window. Crude, but the model
	// was trained against the same definition.
	third := len(samples) / 3
	bandEnergy := func(lo, hi int) float64 {
		var e float64
		for _, s := range samples[lo:hi] {
			e += s * s
		}
		if sumSq == 0 {
			return 0
		}
		return e / sumSq
	}
	return []float64{
		mean, std, rms, peak, zcr,
		bandEnergy(0, third),
		bandEnergy(third, 2*third),
		bandEnergy(2*third, len(samples)),
	}
}

// heuristicPrediction derives a deliberately conservative estimate from the
// sample mean and standard deviation. High variance reads as arousal
// (anger/fear/anxiety), low variance with non-trivial energy as calmer
// affect. It is a placeholder, tagged as such, never presented as
// model-grade output.
func heuristicPrediction(buffer entities.AudioBuffer) entities.Prediction {
	samples := buffer.Samples
	n := float64(len(samples))
	var sum, sumSq float64
	for _, s := range samples {
		sum += s
		sumSq += s * s
	}
	mean := sum / n
	variance := sumSq/n - mean*mean
	if variance < 0 {
		variance = 0
	}
	std := math.Sqrt(variance)

	// std of normalized speech rarely exceeds ~0.3; map onto [0,1].
	arousal := math.Min(1, std/0.3)
	energy := math.Min(1, math.Sqrt(sumSq/n)/0.3)

	var v entities.EmotionVector
	v.Anger = arousal * 0.6 * entities.EmotionScaleMax
	v.Anxiety = arousal * 0.5 * entities.EmotionScaleMax
	v.Fear = arousal * 0.3 * entities.EmotionScaleMax
	v.Sadness = (1 - arousal) * energy * 0.4 * entities.EmotionScaleMax
	v.Happiness = energy * (1 - arousal) * 0.5 * entities.EmotionScaleMax
	v.Guilt = 0
	return entities.Prediction{Vector: v.Clamped(), Source: entities.SourceHeuristic}
}
