package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/lucerovega/mirada/server/domain/entities"
	"github.com/lucerovega/mirada/server/domain/repositories"
	"github.com/lucerovega/mirada/server/internal/fusion"
	"github.com/lucerovega/mirada/server/internal/segmentation"
)

type stubVideoPredictor struct {
	clip        entities.Prediction
	frames      []entities.EmotionVector
	err         error
	sawDeadline bool
}

func (s *stubVideoPredictor) Available(ctx context.Context) bool { return s.err == nil }

func (s *stubVideoPredictor) PredictFrame(ctx context.Context, features []float64) (entities.Prediction, error) {
	if s.err != nil {
		return entities.Prediction{}, s.err
	}
	return s.clip, nil
}

func (s *stubVideoPredictor) PredictClip(ctx context.Context, frames []entities.FrameObservation) (entities.Prediction, error) {
	_, s.sawDeadline = ctx.Deadline()
	if s.err != nil {
		return entities.Prediction{}, s.err
	}
	return s.clip, nil
}

func (s *stubVideoPredictor) PredictFrames(ctx context.Context, frames []entities.FrameObservation) ([]entities.EmotionVector, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.frames, nil
}

type stubAudioPredictor struct {
	pred entities.Prediction
	err  error
}

func (s *stubAudioPredictor) Available(ctx context.Context) bool { return s.err == nil }

func (s *stubAudioPredictor) Predict(ctx context.Context, buffer entities.AudioBuffer) (entities.Prediction, error) {
	if s.err != nil {
		return entities.Prediction{}, s.err
	}
	return s.pred, nil
}

type stubPreparer struct{}

func (stubPreparer) Prepare(data []byte) (entities.AudioBuffer, error) {
	return entities.NewAudioBuffer(make([]float64, 16000), 16000), nil
}

type stubTranscriber struct {
	text   string
	onCall func()
}

func (s *stubTranscriber) Transcribe(ctx context.Context, buffer entities.AudioBuffer, language string, onProgress repositories.ProgressFunc) (*entities.TranscriptionResult, error) {
	if s.onCall != nil {
		s.onCall()
	}
	if onProgress != nil {
		onProgress(0)
		onProgress(100)
	}
	return &entities.TranscriptionResult{Text: s.text, Segments: []entities.TranscriptSegment{}, Language: language}, nil
}

type stubSentiment struct{}

func (stubSentiment) Analyze(ctx context.Context, text string) (entities.SentimentResult, error) {
	return entities.NeutralSentiment(), nil
}

type memReports struct {
	mu    sync.Mutex
	saved []*entities.AnalysisReport
}

func (m *memReports) Save(ctx context.Context, report *entities.AnalysisReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, report)
	return nil
}

func (m *memReports) GetByID(ctx context.Context, id string) (*entities.AnalysisReport, error) {
	return nil, errors.New("not implemented")
}

func (m *memReports) ListByChild(ctx context.Context, childID string) ([]*entities.AnalysisReport, error) {
	return nil, errors.New("not implemented")
}

type recordSink struct {
	mu       sync.Mutex
	events   []string
	percents map[string][]float64
	finished []error
}

func newRecordSink() *recordSink {
	return &recordSink{percents: map[string][]float64{}}
}

func (r *recordSink) Progress(runID, stage string, percent float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, stage)
	r.percents[stage] = append(r.percents[stage], percent)
}

func (r *recordSink) Finished(runID, reportID string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = append(r.finished, err)
}

func modelPrediction(e entities.Emotion, value float64) entities.Prediction {
	var v entities.EmotionVector
	v.Set(e, value)
	return entities.Prediction{Vector: v, Source: entities.SourceModel}
}

func frames(n int, fps float64) []entities.FrameObservation {
	out := make([]entities.FrameObservation, n)
	for i := range out {
		out[i] = entities.FrameObservation{
			Frame:        i,
			TimestampSec: float64(i) / fps,
			Features:     make([]float64, entities.FeatureDim),
		}
	}
	return out
}

func newService(video repositories.VideoPredictor, audio repositories.AudioPredictor, transcriber repositories.Transcriber, reports *memReports, sink *recordSink) *AnalysisService {
	return NewAnalysisService(
		video, audio, stubPreparer{}, transcriber, stubSentiment{},
		reports, sink,
		segmentation.New(0),
		fusion.Weights{Video: 0.6, Audio: 0.4},
		30,
		10*time.Second,
		"es-ES",
		zap.NewNop(),
	)
}

func TestAnalyzeFullRun(t *testing.T) {
	video := &stubVideoPredictor{
		clip: modelPrediction(entities.EmotionHappiness, 3),
		frames: []entities.EmotionVector{
			{Happiness: 3}, {Happiness: 3}, {Anger: 4},
		},
	}
	audio := &stubAudioPredictor{pred: modelPrediction(entities.EmotionHappiness, 2)}
	reports := &memReports{}
	sink := newRecordSink()
	svc := newService(video, audio, &stubTranscriber{text: "hoy estoy feliz"}, reports, sink)

	report, err := svc.Analyze(context.Background(), AnalysisRequest{
		ChildID:  "child-1",
		Frames:   frames(3, 30),
		FPS:      30,
		AudioWAV: []byte{1, 2, 3},
	})
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if report.Video == nil || report.Audio == nil {
		t.Fatal("both modalities should be present")
	}
	if len(report.Segments) != 2 {
		t.Errorf("expected 2 segments, got %d", len(report.Segments))
	}
	if report.Transcript == nil || report.Transcript.Text != "hoy estoy feliz" {
		t.Error("transcript missing or wrong")
	}
	if report.Sentiment == nil {
		t.Error("sentiment missing")
	}
	if report.Fused == nil || report.Fused.Happiness == nil {
		t.Fatal("fused profile must be defined when both modalities are model-grade")
	}
	want := 0.6*3 + 0.4*2
	if *report.Fused.Happiness != want {
		t.Errorf("fused happiness: got %f, want %f", *report.Fused.Happiness, want)
	}
	if len(reports.saved) != 1 {
		t.Errorf("expected 1 saved report, got %d", len(reports.saved))
	}
	if len(sink.finished) != 1 || sink.finished[0] != nil {
		t.Errorf("expected one successful terminal event, got %v", sink.finished)
	}
}

func TestAnalyzeVideoUnavailableStillReports(t *testing.T) {
	video := &stubVideoPredictor{err: repositories.ErrModelUnavailable}
	audio := &stubAudioPredictor{pred: modelPrediction(entities.EmotionSadness, 1)}
	reports := &memReports{}
	sink := newRecordSink()
	svc := newService(video, audio, &stubTranscriber{text: ""}, reports, sink)

	report, err := svc.Analyze(context.Background(), AnalysisRequest{
		ChildID:  "child-1",
		Frames:   frames(3, 30),
		FPS:      30,
		AudioWAV: []byte{1},
	})
	if err != nil {
		t.Fatalf("a missing modality must not abort the run: %v", err)
	}
	if report.Video != nil {
		t.Error("video must be marked absent, not zero-filled")
	}
	if report.Audio == nil {
		t.Error("audio modality should still be present")
	}
	// One modality: the profile exists but every field is undefined.
	if report.Fused == nil {
		t.Fatal("expected a profile with undefined fields, not nil")
	}
	if report.Fused.Sadness != nil {
		t.Error("fused field must stay undefined with a single modality")
	}
}

func TestHeuristicAudioExcludedFromFusion(t *testing.T) {
	video := &stubVideoPredictor{
		clip:   modelPrediction(entities.EmotionAnger, 2),
		frames: []entities.EmotionVector{{Anger: 2}},
	}
	heuristic := entities.Prediction{Vector: entities.EmotionVector{Anger: 5}, Source: entities.SourceHeuristic}
	audio := &stubAudioPredictor{pred: heuristic}
	reports := &memReports{}
	svc := newService(video, audio, &stubTranscriber{}, reports, newRecordSink())

	report, err := svc.Analyze(context.Background(), AnalysisRequest{
		ChildID:  "child-1",
		Frames:   frames(1, 30),
		FPS:      30,
		AudioWAV: []byte{1},
	})
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if report.Audio == nil || report.Audio.Source != entities.SourceHeuristic {
		t.Fatal("heuristic audio must still be reported with its provenance")
	}
	if report.Fused == nil {
		t.Fatal("expected a fused profile")
	}
	if report.Fused.Anger != nil {
		t.Error("heuristic audio must not contribute to fusion")
	}
}

func TestSupersededRunIsDiscarded(t *testing.T) {
	video := &stubVideoPredictor{err: repositories.ErrModelUnavailable}
	audio := &stubAudioPredictor{pred: modelPrediction(entities.EmotionFear, 1)}
	reports := &memReports{}
	svc := newService(video, audio, nil, reports, newRecordSink())
	// The transcriber fires Invalidate mid-run, simulating the user
	// replacing the input file.
	svc.transcriber = &stubTranscriber{text: "x", onCall: svc.Invalidate}

	_, err := svc.Analyze(context.Background(), AnalysisRequest{
		ChildID:  "child-1",
		AudioWAV: []byte{1},
	})
	if !errors.Is(err, ErrRunSuperseded) {
		t.Fatalf("expected ErrRunSuperseded, got %v", err)
	}
	if len(reports.saved) != 0 {
		t.Error("a superseded run must not persist its report")
	}
}

func TestAssessmentScoreAttached(t *testing.T) {
	video := &stubVideoPredictor{err: repositories.ErrModelUnavailable}
	audio := &stubAudioPredictor{err: repositories.ErrModelUnavailable}
	reports := &memReports{}
	svc := newService(video, audio, &stubTranscriber{}, reports, newRecordSink())

	answers := make([]entities.AssessmentAnswer, 5)
	for i := range answers {
		answers[i] = entities.AssessmentAnswer{QuestionIndex: i, Score: 4}
	}
	report, err := svc.Analyze(context.Background(), AnalysisRequest{
		ChildID: "child-1",
		Answers: answers,
	})
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if report.Assessment == nil || *report.Assessment != 100 {
		t.Errorf("expected assessment 100, got %v", report.Assessment)
	}
	// No frames and no audio: fusion has nothing to work with.
	if report.Fused != nil {
		t.Error("fused profile must be nil when no modality produced output")
	}
}

func TestZeroFPSFallsBackToDefault(t *testing.T) {
	video := &stubVideoPredictor{
		clip: modelPrediction(entities.EmotionHappiness, 3),
		frames: []entities.EmotionVector{
			{Happiness: 3}, {Anger: 4},
		},
	}
	audio := &stubAudioPredictor{err: repositories.ErrModelUnavailable}
	reports := &memReports{}
	svc := newService(video, audio, &stubTranscriber{}, reports, newRecordSink())

	report, err := svc.Analyze(context.Background(), AnalysisRequest{
		ChildID: "child-1",
		Frames:  frames(2, 30),
		// FPS deliberately omitted; the configured default applies.
	})
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if len(report.Segments) != 2 {
		t.Fatalf("expected 2 segments with the default fps, got %d", len(report.Segments))
	}
	if !video.sawDeadline {
		t.Error("clip inference should run under the configured timeout")
	}
}

func TestTranscriptionProgressMonotone(t *testing.T) {
	video := &stubVideoPredictor{err: repositories.ErrModelUnavailable}
	audio := &stubAudioPredictor{pred: modelPrediction(entities.EmotionFear, 1)}
	sink := newRecordSink()
	svc := newService(video, audio, &stubTranscriber{text: "hola"}, &memReports{}, sink)

	if _, err := svc.Analyze(context.Background(), AnalysisRequest{ChildID: "c", AudioWAV: []byte{1}}); err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	pcts := sink.percents["transcription"]
	for i := 1; i < len(pcts); i++ {
		if pcts[i] < pcts[i-1] {
			t.Fatalf("transcription progress regressed: %v", pcts)
		}
	}
}
