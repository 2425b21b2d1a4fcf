package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func TestScoreAssessment(t *testing.T) {
	e := echo.New()
	body := `{"answers":[{"question_index":0,"score":4},{"question_index":1,"score":2}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/assessments/score", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := scoreAssessment(c, zap.NewNop()); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp ScoreResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Defined {
		t.Error("score should be defined for answered items")
	}
	// (4+2) out of 2*4 possible points.
	if resp.Percentage != 75 {
		t.Errorf("expected 75, got %d", resp.Percentage)
	}
}

func TestScoreAssessmentNoAnswers(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/assessments/score", strings.NewReader(`{"answers":[]}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := scoreAssessment(c, zap.NewNop()); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	var resp ScoreResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Defined {
		t.Error("no answers means no score, not 0%")
	}
}

func TestStartAnalysisRejectsEmptyRequest(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses", strings.NewReader(`{"child_id":"c1"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := startAnalysis(c, nil, zap.NewNop()); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a run with no inputs, got %d", rec.Code)
	}
}

func TestStartAnalysisRejectsBadFrameWidth(t *testing.T) {
	e := echo.New()
	body := `{"child_id":"c1","frames":[{"frame":0,"timestamp_sec":0,"features":[1,2,3]}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := startAnalysis(c, nil, zap.NewNop()); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for wrong feature width, got %d", rec.Code)
	}
}

func TestStartAnalysisRejectsBadBase64(t *testing.T) {
	e := echo.New()
	body := `{"child_id":"c1","audio_wav":"%%%not-base64%%%"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := startAnalysis(c, nil, zap.NewNop()); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid base64, got %d", rec.Code)
	}
}

func TestWebsocketRejectsMissingToken(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := websocketWithAuth(nil, c, zap.NewNop()); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without a token, got %d", rec.Code)
	}
}

func TestWebsocketRejectsInvalidToken(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := websocketWithAuth(nil, c, zap.NewNop()); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for a bad token, got %d", rec.Code)
	}
}
