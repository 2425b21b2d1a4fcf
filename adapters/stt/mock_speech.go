package stt

import (
	"context"

	"go.uber.org/zap"

	"github.com/lucerovega/mirada/server/domain/entities"
	"github.com/lucerovega/mirada/server/domain/repositories"
)

// MockTranscriber is a placeholder Transcriber for development and tests.
// It reports the same progress shape as the real adapter and returns a
// canned transcript sized to the audio it was given.
type MockTranscriber struct {
	logger *zap.Logger
}

// NewMockTranscriber creates a mock transcriber.
func NewMockTranscriber(logger *zap.Logger) repositories.Transcriber {
	return &MockTranscriber{logger: logger}
}

// Transcribe returns canned Spanish text proportional to the buffer length.
func (m *MockTranscriber) Transcribe(ctx context.Context, buffer entities.AudioBuffer, language string, onProgress repositories.ProgressFunc) (*entities.TranscriptionResult, error) {
	if onProgress == nil {
		onProgress = func(float64) {}
	}
	m.logger.Info("mock transcription",
		zap.Int("samples", len(buffer.Samples)),
		zap.String("language", language))

	result := &entities.TranscriptionResult{
		Segments: []entities.TranscriptSegment{},
		Language: language,
	}
	if len(buffer.Samples) == 0 {
		onProgress(100)
		return result, nil
	}

	onProgress(0)
	var text string
	switch {
	case buffer.DurationSec > 5:
		text = "Hoy en el colegio me sentí muy contento porque jugué con mis amigos."
	case buffer.DurationSec > 1:
		text = "Me sentí un poco triste por la mañana."
	default:
		text = "Hola."
	}
	onProgress(50)
	result.Text = text
	result.Segments = append(result.Segments, entities.TranscriptSegment{
		Start: 0,
		End:   buffer.DurationSec,
		Text:  text,
	})
	onProgress(100)
	return result, nil
}
