package video

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lucerovega/mirada/server/domain/entities"
	"github.com/lucerovega/mirada/server/domain/repositories"
	"github.com/lucerovega/mirada/server/internal/features"
)

// Predictor runs per-frame and whole-clip emotion inference over action-unit
// vectors using a dense network from the model store. Loading is lazy,
// memoized and at-most-once-concurrent: simultaneous callers wait on the same
// in-flight load.
type Predictor struct {
	store       repositories.ModelStore
	modelName   string
	scalerName  string
	loadTimeout time.Duration
	logger      *zap.Logger

	mu      sync.Mutex
	loading chan struct{}
	model   *repositories.DenseModel
	scaler  *features.Scaler
	loadErr error
	done    bool
}

// NewPredictor wires a predictor to a model store. Nothing is loaded until
// the first prediction call.
func NewPredictor(store repositories.ModelStore, modelName, scalerName string, loadTimeout time.Duration, logger *zap.Logger) *Predictor {
	return &Predictor{
		store:       store,
		modelName:   modelName,
		scalerName:  scalerName,
		loadTimeout: loadTimeout,
		logger:      logger,
	}
}

// Available probes the store for the model artifact. It never errors;
// absence is an expected state the pipeline degrades around.
func (p *Predictor) Available(ctx context.Context) bool {
	return p.store.Exists(ctx, p.modelName)
}

// ensureLoaded brings the predictor to the ready state, deduplicating
// concurrent loads. The outcome, success or failure, is memoized.
func (p *Predictor) ensureLoaded(ctx context.Context) error {
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
	model, scaler, err := p.load(loadCtx)

	p.mu.Lock()
	p.model = model
	p.scaler = scaler
	p.loadErr = err
	p.done = true
	p.loading = nil
	close(ch)
	p.mu.Unlock()
	return err
}

func (p *Predictor) load(ctx context.Context) (*repositories.DenseModel, *features.Scaler, error) {
	if !p.store.Exists(ctx, p.modelName) {
		return nil, nil, fmt.Errorf("%w: %q not in store", repositories.ErrModelUnavailable, p.modelName)
	}
	model, err := p.store.LoadDenseModel(ctx, p.modelName)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", repositories.ErrModelUnavailable, err)
	}

	// The scaler is optional: without one the predictor runs on raw
	// features, which is the documented identity fallback.
	var params *repositories.ScalerParams
	if p.store.Exists(ctx, p.scalerName) {
		params, err = p.store.LoadScaler(ctx, p.scalerName)
		if err != nil {
			p.logger.Warn("scaler present but unreadable, proceeding without normalization",
				zap.String("scaler", p.scalerName), zap.Error(err))
			params = nil
		}
	} else {
		p.logger.Info("no scaler artifact, using identity normalization",
			zap.String("scaler", p.scalerName))
	}
	scaler, err := features.NewScaler(params)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", repositories.ErrModelUnavailable, err)
	}
	return model, scaler, nil
}

// PredictFrame infers one emotion vector from a single frame's features.
func (p *Predictor) PredictFrame(ctx context.Context, rawFeatures []float64) (entities.Prediction, error) {
	out, err := p.predictBatch(ctx, [][]float64{rawFeatures})
	if err != nil {
		return entities.Prediction{}, err
	}
	return entities.Prediction{Vector: scaleOutputs(out[0]), Source: entities.SourceModel}, nil
}

// PredictClip batches every frame through one inference pass and mean-pools
// the raw sigmoid outputs per emotion before scaling, so the aggregate
// reflects typical rather than peak expression.
func (p *Predictor) PredictClip(ctx context.Context, frames []entities.FrameObservation) (entities.Prediction, error) {
	if len(frames) == 0 {
		return entities.Prediction{}, fmt.Errorf("%w: clip has no frames", repositories.ErrModelUnavailable)
	}
	batch := make([][]float64, len(frames))
	for i, f := range frames {
		batch[i] = f.Features
	}
	outputs, err := p.predictBatch(ctx, batch)
	if err != nil {
		return entities.Prediction{}, err
	}
	pooled := make([]float64, len(outputs[0]))
	for _, row := range outputs {
		for i, v := range row {
			pooled[i] += v
		}
	}
	for i := range pooled {
		pooled[i] /= float64(len(outputs))
	}
	return entities.Prediction{Vector: scaleOutputs(pooled), Source: entities.SourceModel}, nil
}

// PredictFrames infers one vector per frame in a single batched pass, for
// the segmentation engine.
func (p *Predictor) PredictFrames(ctx context.Context, frames []entities.FrameObservation) ([]entities.EmotionVector, error) {
	if len(frames) == 0 {
		return []entities.EmotionVector{}, nil
	}
	batch := make([][]float64, len(frames))
	for i, f := range frames {
		batch[i] = f.Features
	}
	outputs, err := p.predictBatch(ctx, batch)
	if err != nil {
		return nil, err
	}
	vectors := make([]entities.EmotionVector, len(outputs))
	for i, row := range outputs {
		vectors[i] = scaleOutputs(row)
	}
	return vectors, nil
}

func (p *Predictor) predictBatch(ctx context.Context, batch [][]float64) ([][]float64, error) {
	if err := p.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	outputs := make([][]float64, len(batch))
	for i, raw := range batch {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		scaled, err := p.scaler.Transform(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", repositories.ErrModelUnavailable, err)
		}
		out, err := forward(p.model, scaled)
		if err != nil {
			p.logger.Error("inference failed", zap.Int("frame", i), zap.Error(err))
			return nil, fmt.Errorf("%w: %v", repositories.ErrModelUnavailable, err)
		}
		outputs[i] = out
	}
	return outputs, nil
}

// forward runs the dense network on one input vector.
func forward(m *repositories.DenseModel, in []float64) ([]float64, error) {
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
			row := layer.Weights[i]
			for j, w := range row {
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
	if len(x) != len(entities.EmotionOrder) {
		return nil, fmt.Errorf("model emits %d outputs, want %d", len(x), len(entities.EmotionOrder))
	}
	return x, nil
}

// scaleOutputs maps sigmoid outputs in [0,1] onto the [0,5] emotion scale
// and clamps.
func scaleOutputs(out []float64) entities.EmotionVector {
	var v entities.EmotionVector
	for i, e := range entities.EmotionOrder {
		if i < len(out) {
			v.Set(e, out[i]*entities.EmotionScaleMax)
		}
	}
	return v.Clamped()
}
