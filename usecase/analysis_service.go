package usecase

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lucerovega/mirada/server/domain/entities"
	"github.com/lucerovega/mirada/server/domain/repositories"
	"github.com/lucerovega/mirada/server/internal/assessment"
	"github.com/lucerovega/mirada/server/internal/fusion"
	"github.com/lucerovega/mirada/server/internal/segmentation"
)

// ErrRunSuperseded reports that a newer analysis run started before this one
// finished; its results are discarded rather than merged into current state.
var ErrRunSuperseded = errors.New("analysis run superseded")

// AudioPreparer turns raw WAV bytes into the canonical analysis buffer.
type AudioPreparer interface {
	Prepare(data []byte) (entities.AudioBuffer, error)
}

// AnalysisRequest carries everything one run consumes. Frames come from the
// external action-unit extractor; AudioWAV is the session recording.
type AnalysisRequest struct {
	ChildID  string
	Frames   []entities.FrameObservation
	FPS      float64
	AudioWAV []byte
	Language string
	Answers  []entities.AssessmentAnswer
}

// AnalysisService orchestrates one analysis run: the video track (clip
// prediction and segmentation) and the audio track (preparation, prediction,
// transcription, sentiment) run concurrently, then fuse into one report.
// Stage-local failures never abort the run; the report marks which
// modalities succeeded.
type AnalysisService struct {
	videoPredictor repositories.VideoPredictor
	audioPredictor repositories.AudioPredictor
	preparer       AudioPreparer
	transcriber    repositories.Transcriber
	sentiment      repositories.SentimentAnalyzer
	reports        repositories.ReportRepository
	progress       repositories.ProgressSink
	segmenter      *segmentation.Engine
	weights        fusion.Weights
	defaultFPS     float64
	inferTimeout   time.Duration
	language       string
	logger         *zap.Logger

	generation atomic.Uint64
}

// NewAnalysisService wires the pipeline together.
func NewAnalysisService(
	videoPredictor repositories.VideoPredictor,
	audioPredictor repositories.AudioPredictor,
	preparer AudioPreparer,
	transcriber repositories.Transcriber,
	sentiment repositories.SentimentAnalyzer,
	reports repositories.ReportRepository,
	progress repositories.ProgressSink,
	segmenter *segmentation.Engine,
	weights fusion.Weights,
	defaultFPS float64,
	inferTimeout time.Duration,
	language string,
	logger *zap.Logger,
) *AnalysisService {
	return &AnalysisService{
		videoPredictor: videoPredictor,
		audioPredictor: audioPredictor,
		preparer:       preparer,
		transcriber:    transcriber,
		sentiment:      sentiment,
		reports:        reports,
		progress:       progress,
		segmenter:      segmenter,
		weights:        weights,
		defaultFPS:     defaultFPS,
		inferTimeout:   inferTimeout,
		language:       language,
		logger:         logger,
	}
}

// Invalidate supersedes any in-flight run. Late results from older runs are
// discarded at publish time.
func (s *AnalysisService) Invalidate() {
	s.generation.Add(1)
}

type videoTrack struct {
	prediction *entities.Prediction
	segments   []entities.EmotionSegment
}

type audioTrack struct {
	prediction *entities.Prediction
	transcript *entities.TranscriptionResult
	sentiment  *entities.SentimentResult
}

// Analyze runs the full pipeline and persists the report. The returned
// report marks absent modalities as nil; it never substitutes zeros.
func (s *AnalysisService) Analyze(ctx context.Context, req AnalysisRequest) (*entities.AnalysisReport, error) {
	gen := s.generation.Add(1)
	runID := uuid.NewString()
	s.logger.Info("starting analysis run",
		zap.String("run_id", runID),
		zap.String("child_id", req.ChildID),
		zap.Int("frames", len(req.Frames)),
		zap.Int("audio_bytes", len(req.AudioWAV)))

	var video videoTrack
	var audio audioTrack

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		video = s.runVideoTrack(gctx, runID, req)
		return nil
	})
	g.Go(func() error {
		audio = s.runAudioTrack(gctx, runID, req)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.generation.Load() != gen {
		s.logger.Info("discarding superseded run", zap.String("run_id", runID))
		return nil, ErrRunSuperseded
	}

	report := entities.NewAnalysisReport(req.ChildID)
	report.Video = video.prediction
	if video.segments != nil {
		report.Segments = video.segments
	}
	report.Audio = audio.prediction
	report.Transcript = audio.transcript
	report.Sentiment = audio.sentiment

	s.progress.Progress(runID, "fusion", 0)
	report.Fused = fusion.Fuse(fusableVector(video.prediction), fusableVector(audio.prediction), s.weights)
	s.progress.Progress(runID, "fusion", 100)

	if len(req.Answers) > 0 {
		pct, ok, err := assessment.Score(req.Answers, assessment.DefaultMaxScorePerQuestion)
		if err != nil {
			return nil, err
		}
		if ok {
			report.Assessment = &pct
		}
	}

	if err := s.reports.Save(ctx, report); err != nil {
		s.progress.Finished(runID, "", err)
		return nil, err
	}
	s.progress.Finished(runID, report.ID, nil)
	s.logger.Info("analysis run finished",
		zap.String("run_id", runID),
		zap.String("report_id", report.ID),
		zap.Bool("video", report.Video != nil),
		zap.Bool("audio", report.Audio != nil))
	return report, nil
}

// fusableVector extracts the vector handed to fusion. Heuristic estimates
// are excluded: a statistical stand-in must not masquerade as a
// model-confirmed modality inside the fused profile.
func fusableVector(p *entities.Prediction) *entities.EmotionVector {
	if p == nil || p.Source != entities.SourceModel {
		return nil
	}
	v := p.Vector
	return &v
}

func (s *AnalysisService) runVideoTrack(ctx context.Context, runID string, req AnalysisRequest) videoTrack {
	var out videoTrack
	if len(req.Frames) == 0 {
		return out
	}
	fps := req.FPS
	if fps <= 0 {
		fps = s.defaultFPS
	}
	s.progress.Progress(runID, "video", 0)

	// Inference must not hang the run; past the timeout the modality is
	// reported unavailable.
	ictx := ctx
	if s.inferTimeout > 0 {
		var cancel context.CancelFunc
		ictx, cancel = context.WithTimeout(ctx, s.inferTimeout)
		defer cancel()
	}

	clip, err := s.videoPredictor.PredictClip(ictx, req.Frames)
	if err != nil {
		// Expected degradation: the modality is simply absent.
		s.logger.Warn("video prediction unavailable", zap.String("run_id", runID), zap.Error(err))
		return out
	}
	out.prediction = &clip
	s.progress.Progress(runID, "video", 50)

	vectors, err := s.videoPredictor.PredictFrames(ictx, req.Frames)
	if err != nil {
		s.logger.Warn("per-frame prediction failed, skipping segmentation",
			zap.String("run_id", runID), zap.Error(err))
		s.progress.Progress(runID, "video", 100)
		return out
	}
	timestamps := make([]float64, len(req.Frames))
	for i, f := range req.Frames {
		timestamps[i] = f.TimestampSec
	}
	segments, err := s.segmenter.Segment(vectors, timestamps, fps)
	if err != nil {
		s.logger.Error("segmentation failed", zap.String("run_id", runID), zap.Error(err))
		s.progress.Progress(runID, "video", 100)
		return out
	}
	out.segments = segments
	s.progress.Progress(runID, "video", 100)
	return out
}

func (s *AnalysisService) runAudioTrack(ctx context.Context, runID string, req AnalysisRequest) audioTrack {
	var out audioTrack
	if len(req.AudioWAV) == 0 {
		return out
	}
	s.progress.Progress(runID, "audio", 0)

	buffer, err := s.preparer.Prepare(req.AudioWAV)
	if err != nil {
		s.logger.Warn("audio preparation failed", zap.String("run_id", runID), zap.Error(err))
		return out
	}
	s.progress.Progress(runID, "audio", 30)

	pred, err := s.audioPredictor.Predict(ctx, buffer)
	if err != nil {
		s.logger.Warn("audio prediction unavailable", zap.String("run_id", runID), zap.Error(err))
	} else {
		out.prediction = &pred
	}
	s.progress.Progress(runID, "audio", 100)

	language := req.Language
	if language == "" {
		language = s.language
	}
	transcript, err := s.transcriber.Transcribe(ctx, buffer, language, func(pct float64) {
		s.progress.Progress(runID, "transcription", pct)
	})
	if err != nil {
		s.logger.Warn("transcription failed", zap.String("run_id", runID), zap.Error(err))
		return out
	}
	out.transcript = transcript

	s.progress.Progress(runID, "sentiment", 0)
	sentiment, err := s.sentiment.Analyze(ctx, transcript.Text)
	if err != nil {
		s.logger.Warn("sentiment analysis failed", zap.String("run_id", runID), zap.Error(err))
		s.progress.Progress(runID, "sentiment", 100)
		return out
	}
	out.sentiment = &sentiment
	s.progress.Progress(runID, "sentiment", 100)
	return out
}
