package entities

import (
	"time"

	"github.com/google/uuid"
)

// PredictionSource records how an emotion estimate was produced, so fusion
// and reporting can treat heuristic stand-ins with reduced trust.
type PredictionSource string

const (
	SourceModel     PredictionSource = "model"
	SourceHeuristic PredictionSource = "heuristic"
)

// Prediction is one modality's emotion estimate together with its provenance.
type Prediction struct {
	Vector EmotionVector    `json:"vector" bson:"vector"`
	Source PredictionSource `json:"source" bson:"source"`
}

// FusedEmotionProfile is the weighted combination of the video and audio
// aggregates. A nil field means neither a fused value could be computed for
// that emotion; it is never coerced to zero, so a true zero reading remains
// distinguishable from a missing one.
type FusedEmotionProfile struct {
	Anger     *float64 `json:"anger,omitempty" bson:"anger,omitempty"`
	Sadness   *float64 `json:"sadness,omitempty" bson:"sadness,omitempty"`
	Anxiety   *float64 `json:"anxiety,omitempty" bson:"anxiety,omitempty"`
	Fear      *float64 `json:"fear,omitempty" bson:"fear,omitempty"`
	Happiness *float64 `json:"happiness,omitempty" bson:"happiness,omitempty"`
	Guilt     *float64 `json:"guilt,omitempty" bson:"guilt,omitempty"`
}

// Field returns a pointer slot for the named emotion.
func (p *FusedEmotionProfile) Field(e Emotion) **float64 {
	switch e {
	case EmotionAnger:
		return &p.Anger
	case EmotionSadness:
		return &p.Sadness
	case EmotionAnxiety:
		return &p.Anxiety
	case EmotionFear:
		return &p.Fear
	case EmotionHappiness:
		return &p.Happiness
	case EmotionGuilt:
		return &p.Guilt
	}
	return nil
}

// AnalysisReport is the terminal payload of one analysis run. It marks
// explicitly which modalities produced usable output; absent modalities stay
// nil rather than being filled with zeros.
type AnalysisReport struct {
	ID          string               `json:"id" bson:"_id"`
	ChildID     string               `json:"child_id" bson:"child_id"`
	GeneratedAt time.Time            `json:"generated_at" bson:"generated_at"`
	Video       *Prediction          `json:"video,omitempty" bson:"video,omitempty"`
	Audio       *Prediction          `json:"audio,omitempty" bson:"audio,omitempty"`
	Segments    []EmotionSegment     `json:"segments" bson:"segments"`
	Transcript  *TranscriptionResult `json:"transcript,omitempty" bson:"transcript,omitempty"`
	Sentiment   *SentimentResult     `json:"sentiment,omitempty" bson:"sentiment,omitempty"`
	Fused       *FusedEmotionProfile `json:"fused,omitempty" bson:"fused,omitempty"`
	Assessment  *int                 `json:"assessment_score,omitempty" bson:"assessment_score,omitempty"`
}

// NewAnalysisReport allocates a report with a fresh identifier.
func NewAnalysisReport(childID string) *AnalysisReport {
	return &AnalysisReport{
		ID:          uuid.NewString(),
		ChildID:     childID,
		GeneratedAt: time.Now(),
		Segments:    []EmotionSegment{},
	}
}
