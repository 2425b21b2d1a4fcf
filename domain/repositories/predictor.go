package repositories

import (
	"context"
	"errors"

	"github.com/lucerovega/mirada/server/domain/entities"
)

// ErrModelUnavailable signals that a prediction model could not be loaded or
// failed at inference time. It is an expected condition: callers treat the
// modality as absent instead of substituting a zero-filled vector.
var ErrModelUnavailable = errors.New("prediction model unavailable")

// VideoPredictor runs emotion inference over action-unit feature vectors.
type VideoPredictor interface {
	// Available probes for the model artifact. It never returns an error;
	// absence is a normal state, not a failure.
	Available(ctx context.Context) bool
	// PredictFrame infers one emotion vector from a single frame's features.
	PredictFrame(ctx context.Context, features []float64) (entities.Prediction, error)
	// PredictClip batches all frames through one inference pass and
	// mean-pools per emotion before scaling, so the aggregate reflects
	// typical rather than peak expression.
	PredictClip(ctx context.Context, frames []entities.FrameObservation) (entities.Prediction, error)
	// PredictFrames infers one vector per frame in a single batched pass.
	PredictFrames(ctx context.Context, frames []entities.FrameObservation) ([]entities.EmotionVector, error)
}

// AudioPredictor estimates an emotion vector from a prepared waveform.
// Implementations may fall back to a deterministic statistical heuristic when
// no model artifact exists; such output carries SourceHeuristic.
type AudioPredictor interface {
	Available(ctx context.Context) bool
	Predict(ctx context.Context, buffer entities.AudioBuffer) (entities.Prediction, error)
}
