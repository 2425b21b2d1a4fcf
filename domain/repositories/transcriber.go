package repositories

import (
	"context"

	"github.com/lucerovega/mirada/server/domain/entities"
)

// ProgressFunc receives transcription progress in [0,100]. Values are
// monotonically non-decreasing over the lifetime of one call.
type ProgressFunc func(percent float64)

// Transcriber converts a prepared waveform to text in a target language.
// Transcription is long-running and blocking by design; the caller opts in.
// Empty audio or empty model output yields an empty-text result, not an error.
type Transcriber interface {
	Transcribe(ctx context.Context, buffer entities.AudioBuffer, language string, onProgress ProgressFunc) (*entities.TranscriptionResult, error)
}
