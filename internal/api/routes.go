package api

import (
	"encoding/base64"
	"errors"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/lucerovega/mirada/server/domain/entities"
	"github.com/lucerovega/mirada/server/domain/repositories"
	"github.com/lucerovega/mirada/server/internal/assessment"
	"github.com/lucerovega/mirada/server/internal/auth"
	"github.com/lucerovega/mirada/server/internal/websocket"
	"github.com/lucerovega/mirada/server/usecase"
)

// InitRoutes initializes all API routes
func InitRoutes(
	e *echo.Echo,
	hub *websocket.Hub,
	analysis *usecase.AnalysisService,
	reports repositories.ReportRepository,
	logger *zap.Logger,
) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "mirada-server",
		})
	})

	// API v1 routes
	v1 := e.Group("/api/v1")

	// User Management APIs
	v1.POST("/users/login", func(c echo.Context) error {
		return userLogin(c, logger)
	})

	// Analysis APIs
	v1.POST("/analyses", func(c echo.Context) error {
		return startAnalysis(c, analysis, logger)
	})

	// Report APIs
	v1.GET("/reports/:id", func(c echo.Context) error {
		return getReport(c, reports, logger)
	})
	v1.GET("/children/:id/reports", func(c echo.Context) error {
		return listChildReports(c, reports, logger)
	})

	// Assessment APIs
	v1.POST("/assessments/score", func(c echo.Context) error {
		return scoreAssessment(c, logger)
	})

	// WebSocket endpoint with JWT validation
	e.GET("/ws", func(c echo.Context) error {
		return websocketWithAuth(hub, c, logger)
	})
}

func userLogin(c echo.Context, logger *zap.Logger) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Failed to bind login request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "Username and password are required",
		})
	}

	// Single dashboard account, provisioned through the environment.
	// TODO: replace with a user store once multi-guardian accounts land
	if req.Username != os.Getenv("DASHBOARD_USER") || req.Password != os.Getenv("DASHBOARD_PASSWORD") {
		logger.Warn("Login failed", zap.String("username", req.Username))
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "authentication_failed",
			Message: "Invalid credentials",
		})
	}

	token, err := auth.GenerateUserToken(req.Username, "guardian")
	if err != nil {
		logger.Error("Failed to generate user token", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to generate authentication token",
		})
	}

	return c.JSON(http.StatusOK, LoginResponse{Token: token, Role: "guardian"})
}

func startAnalysis(c echo.Context, analysis *usecase.AnalysisService, logger *zap.Logger) error {
	var req AnalyzeRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Failed to bind analysis request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}
	if req.ChildID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "child_id is required",
		})
	}
	if len(req.Frames) == 0 && req.AudioWAV == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "At least one of frames or audio_wav is required",
		})
	}

	frames := make([]entities.FrameObservation, len(req.Frames))
	for i, f := range req.Frames {
		if len(f.Features) != entities.FeatureDim {
			return c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_frames",
				Message: "Each frame needs one intensity per action unit",
			})
		}
		frames[i] = entities.FrameObservation{
			Frame:        f.Frame,
			TimestampSec: f.TimestampSec,
			Features:     f.Features,
		}
	}

	var audio []byte
	if req.AudioWAV != "" {
		decoded, err := base64.StdEncoding.DecodeString(req.AudioWAV)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_audio",
				Message: "audio_wav must be base64-encoded WAV data",
			})
		}
		audio = decoded
	}

	report, err := analysis.Analyze(c.Request().Context(), usecase.AnalysisRequest{
		ChildID:  req.ChildID,
		Frames:   frames,
		FPS:      req.FPS,
		AudioWAV: audio,
		Language: req.Language,
		Answers:  req.Answers,
	})
	if err != nil {
		if errors.Is(err, usecase.ErrRunSuperseded) {
			return c.JSON(http.StatusConflict, ErrorResponse{
				Error:   "run_superseded",
				Message: "A newer analysis run replaced this one",
			})
		}
		logger.Error("Analysis run failed", zap.String("child_id", req.ChildID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "analysis_failed",
			Message: "Analysis run failed",
		})
	}

	return c.JSON(http.StatusOK, report)
}

func getReport(c echo.Context, reports repositories.ReportRepository, logger *zap.Logger) error {
	id := c.Param("id")
	report, err := reports.GetByID(c.Request().Context(), id)
	if err != nil {
		logger.Warn("Report lookup failed", zap.String("report_id", id), zap.Error(err))
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Report not found",
		})
	}
	return c.JSON(http.StatusOK, report)
}

func listChildReports(c echo.Context, reports repositories.ReportRepository, logger *zap.Logger) error {
	childID := c.Param("id")
	list, err := reports.ListByChild(c.Request().Context(), childID)
	if err != nil {
		logger.Error("Report listing failed", zap.String("child_id", childID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to list reports",
		})
	}
	return c.JSON(http.StatusOK, list)
}

func scoreAssessment(c echo.Context, logger *zap.Logger) error {
	var req ScoreRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Failed to bind score request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}
	max := req.MaxScorePerQuestion
	if max == 0 {
		max = assessment.DefaultMaxScorePerQuestion
	}
	pct, ok, err := assessment.Score(req.Answers, max)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
	}
	return c.JSON(http.StatusOK, ScoreResponse{Percentage: pct, Defined: ok})
}

// websocketWithAuth handles WebSocket connections with JWT authentication
func websocketWithAuth(hub *websocket.Hub, c echo.Context, logger *zap.Logger) error {
	// Extract JWT token from Authorization header only
	var token string
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader != "" && len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		token = authHeader[7:]
	}

	if token == "" {
		logger.Warn("WebSocket connection rejected: missing token")
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "missing_token",
			Message: "JWT token is required in Authorization header",
		})
	}

	// Validate JWT token
	claims, err := auth.ValidateToken(token)
	if err != nil {
		logger.Warn("WebSocket connection rejected: invalid token", zap.Error(err))
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_token",
			Message: "Invalid or expired JWT token",
		})
	}

	if claims.UserID == "" {
		logger.Error("WebSocket connection rejected: missing user ID in token")
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_token_claims",
			Message: "User ID not found in token",
		})
	}

	logger.Info("WebSocket connection authenticated",
		zap.String("user_id", claims.UserID),
		zap.String("role", claims.Role))

	return websocket.HandleWebSocketWithAuth(hub, c, claims.UserID, logger)
}
