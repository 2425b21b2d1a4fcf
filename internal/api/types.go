package api

import "github.com/lucerovega/mirada/server/domain/entities"

// FramePayload is one row of extracted action-unit intensities.
type FramePayload struct {
	Frame        int       `json:"frame"`
	TimestampSec float64   `json:"timestamp_sec"`
	Features     []float64 `json:"features" validate:"required"`
}

// AnalyzeRequest is the payload for starting an analysis run. AudioWAV is
// the base64-encoded recording; either frames or audio may be absent.
type AnalyzeRequest struct {
	ChildID  string                     `json:"child_id" validate:"required"`
	FPS      float64                    `json:"fps"`
	Frames   []FramePayload             `json:"frames"`
	AudioWAV string                     `json:"audio_wav"`
	Language string                     `json:"language"`
	Answers  []entities.AssessmentAnswer `json:"answers"`
}

// ScoreRequest is the payload for scoring a questionnaire on its own.
type ScoreRequest struct {
	Answers             []entities.AssessmentAnswer `json:"answers" validate:"required"`
	MaxScorePerQuestion int                         `json:"max_score_per_question"`
}

// ScoreResponse carries the questionnaire percentage. Defined is false when
// no answers were submitted.
type ScoreResponse struct {
	Percentage int  `json:"percentage"`
	Defined    bool `json:"defined"`
}

// LoginRequest represents the request payload for dashboard authentication
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse represents the response payload for dashboard authentication
type LoginResponse struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
