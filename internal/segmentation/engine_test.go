package segmentation

import (
	"math"
	"testing"

	"github.com/lucerovega/mirada/server/domain/entities"
)

func vec(e entities.Emotion, value float64) entities.EmotionVector {
	var v entities.EmotionVector
	v.Set(e, value)
	return v
}

func TestSegmentEmptyInput(t *testing.T) {
	eng := New(0)
	segs, err := eng.Segment(nil, nil, 30)
	if err != nil {
		t.Fatalf("Segment returned error: %v", err)
	}
	if segs == nil {
		t.Fatal("expected empty non-nil slice for empty input")
	}
	if len(segs) != 0 {
		t.Errorf("expected 0 segments, got %d", len(segs))
	}
}

func TestSegmentRequiresFPS(t *testing.T) {
	eng := New(0)
	if _, err := eng.Segment([]entities.EmotionVector{vec(entities.EmotionAnger, 1)}, nil, 0); err == nil {
		t.Error("expected error for fps=0")
	}
}

func TestSegmentThreeFramesTwoSegments(t *testing.T) {
	// anger, anger, happiness at 30 fps: [0, 2/30) anger then [2/30, 3/30) happiness.
	eng := New(0)
	vectors := []entities.EmotionVector{
		vec(entities.EmotionAnger, 3),
		vec(entities.EmotionAnger, 1),
		vec(entities.EmotionHappiness, 4),
	}
	segs, err := eng.Segment(vectors, nil, 30)
	if err != nil {
		t.Fatalf("Segment returned error: %v", err)
	}
	if len(segs) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segs))
	}
	if segs[0].DominantEmotion != entities.EmotionAnger {
		t.Errorf("segment 0: got %s, want anger", segs[0].DominantEmotion)
	}
	if segs[1].DominantEmotion != entities.EmotionHappiness {
		t.Errorf("segment 1: got %s, want happiness", segs[1].DominantEmotion)
	}
	if segs[0].StartTime != 0 || math.Abs(segs[0].EndTime-2.0/30.0) > 1e-12 {
		t.Errorf("segment 0 bounds [%f, %f], want [0, %f]", segs[0].StartTime, segs[0].EndTime, 2.0/30.0)
	}
	if math.Abs(segs[1].StartTime-2.0/30.0) > 1e-12 || math.Abs(segs[1].EndTime-3.0/30.0) > 1e-12 {
		t.Errorf("segment 1 bounds [%f, %f], want [%f, %f]", segs[1].StartTime, segs[1].EndTime, 2.0/30.0, 3.0/30.0)
	}
	// Mean pooling over the anger run: (3+1)/2.
	if segs[0].DominantValue != 2 {
		t.Errorf("segment 0 dominant value: got %f, want 2", segs[0].DominantValue)
	}
}

func TestSegmentsTileTheSpan(t *testing.T) {
	eng := New(0)
	emotions := []entities.Emotion{
		entities.EmotionSadness, entities.EmotionSadness,
		entities.EmotionFear,
		entities.EmotionHappiness, entities.EmotionHappiness, entities.EmotionHappiness,
		entities.EmotionGuilt,
	}
	vectors := make([]entities.EmotionVector, len(emotions))
	for i, e := range emotions {
		vectors[i] = vec(e, 2)
	}
	fps := 25.0
	segs, err := eng.Segment(vectors, nil, fps)
	if err != nil {
		t.Fatalf("Segment returned error: %v", err)
	}
	if len(segs) != 4 {
		t.Fatalf("expected 4 segments, got %d", len(segs))
	}
	if segs[0].StartTime != 0 {
		t.Errorf("first segment starts at %f, want 0", segs[0].StartTime)
	}
	for i := 1; i < len(segs); i++ {
		if segs[i-1].EndTime != segs[i].StartTime {
			t.Errorf("gap or overlap between segments %d and %d", i-1, i)
		}
	}
	last := segs[len(segs)-1]
	wantEnd := float64(len(emotions)) / fps
	if math.Abs(last.EndTime-wantEnd) > 1e-12 {
		t.Errorf("last segment ends at %f, want %f", last.EndTime, wantEnd)
	}
}

func TestDominantTieBreakIsDeterministic(t *testing.T) {
	var v entities.EmotionVector
	v.Set(entities.EmotionFear, 2)
	v.Set(entities.EmotionSadness, 2)
	dom, val := v.Dominant()
	if dom != entities.EmotionSadness {
		t.Errorf("tie between sadness and fear must resolve to sadness, got %s", dom)
	}
	if val != 2 {
		t.Errorf("dominant value: got %f, want 2", val)
	}
}

func TestShortSegmentAbsorbedIntoPredecessor(t *testing.T) {
	// 10 anger frames, 1 fear frame, 10 anger frames at 10 fps with a
	// 0.5 s minimum: the single-frame fear segment (0.1 s) is absorbed.
	var vectors []entities.EmotionVector
	for i := 0; i < 10; i++ {
		vectors = append(vectors, vec(entities.EmotionAnger, 3))
	}
	vectors = append(vectors, vec(entities.EmotionFear, 4))
	for i := 0; i < 10; i++ {
		vectors = append(vectors, vec(entities.EmotionAnger, 3))
	}

	eng := New(0.5)
	segs, err := eng.Segment(vectors, nil, 10)
	if err != nil {
		t.Fatalf("Segment returned error: %v", err)
	}
	if len(segs) != 1 {
		t.Fatalf("expected 1 segment after absorption, got %d", len(segs))
	}
	if segs[0].DominantEmotion != entities.EmotionAnger {
		t.Errorf("merged segment dominant: got %s, want anger", segs[0].DominantEmotion)
	}
	if segs[0].StartTime != 0 || math.Abs(segs[0].EndTime-2.1) > 1e-9 {
		t.Errorf("merged bounds [%f, %f], want [0, 2.1]", segs[0].StartTime, segs[0].EndTime)
	}
}

func TestShortLeadingSegmentMergesForward(t *testing.T) {
	vectors := []entities.EmotionVector{
		vec(entities.EmotionGuilt, 5),
	}
	for i := 0; i < 10; i++ {
		vectors = append(vectors, vec(entities.EmotionHappiness, 2))
	}
	eng := New(0.5)
	segs, err := eng.Segment(vectors, nil, 10)
	if err != nil {
		t.Fatalf("Segment returned error: %v", err)
	}
	if len(segs) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segs))
	}
	if segs[0].DominantEmotion != entities.EmotionHappiness {
		t.Errorf("got %s, want happiness", segs[0].DominantEmotion)
	}
	if segs[0].StartTime != 0 {
		t.Errorf("merged segment must start at 0, got %f", segs[0].StartTime)
	}
}

func TestAlternatingEmotionsTileExactly(t *testing.T) {
	// Alternating dominant emotions produce one segment per frame; every
	// boundary must match its neighbor exactly, including the ones where
	// float division by fps rounds (5/30 + 1/30 vs 6/30).
	eng := New(0)
	vectors := make([]entities.EmotionVector, 60)
	for i := range vectors {
		if i%2 == 0 {
			vectors[i] = vec(entities.EmotionAnger, 2)
		} else {
			vectors[i] = vec(entities.EmotionHappiness, 2)
		}
	}
	segs, err := eng.Segment(vectors, nil, 30)
	if err != nil {
		t.Fatalf("Segment returned error: %v", err)
	}
	if len(segs) != 60 {
		t.Fatalf("expected 60 segments, got %d", len(segs))
	}
	for i := 1; i < len(segs); i++ {
		if segs[i-1].EndTime != segs[i].StartTime {
			t.Fatalf("segments %d and %d are not contiguous: %v != %v",
				i-1, i, segs[i-1].EndTime, segs[i].StartTime)
		}
	}
}

func TestJitteredTimestampsTileExactly(t *testing.T) {
	// Real extractor timestamps drift off the frame/fps grid; boundaries
	// must still tile without gaps.
	eng := New(0)
	vectors := []entities.EmotionVector{
		vec(entities.EmotionAnger, 2),
		vec(entities.EmotionSadness, 3),
		vec(entities.EmotionAnger, 2),
		vec(entities.EmotionFear, 1),
	}
	timestamps := []float64{0, 0.034, 0.066, 0.101}
	segs, err := eng.Segment(vectors, timestamps, 30)
	if err != nil {
		t.Fatalf("Segment returned error: %v", err)
	}
	if len(segs) != 4 {
		t.Fatalf("expected 4 segments, got %d", len(segs))
	}
	for i := 1; i < len(segs); i++ {
		if segs[i-1].EndTime != segs[i].StartTime {
			t.Fatalf("segments %d and %d are not contiguous: %v != %v",
				i-1, i, segs[i-1].EndTime, segs[i].StartTime)
		}
	}
	if segs[1].StartTime != 0.034 || segs[1].EndTime != 0.066 {
		t.Errorf("segment 1 bounds [%f, %f], want [0.034, 0.066]",
			segs[1].StartTime, segs[1].EndTime)
	}
	last := segs[len(segs)-1]
	if math.Abs(last.EndTime-(0.101+1.0/30.0)) > 1e-12 {
		t.Errorf("last segment ends at %f, want %f", last.EndTime, 0.101+1.0/30.0)
	}
}

func TestSegmentWithExplicitTimestamps(t *testing.T) {
	eng := New(0)
	vectors := []entities.EmotionVector{
		vec(entities.EmotionAnxiety, 1),
		vec(entities.EmotionAnxiety, 2),
	}
	timestamps := []float64{1.0, 1.5}
	segs, err := eng.Segment(vectors, timestamps, 2)
	if err != nil {
		t.Fatalf("Segment returned error: %v", err)
	}
	if len(segs) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segs))
	}
	if segs[0].StartTime != 1.0 || segs[0].EndTime != 2.0 {
		t.Errorf("bounds [%f, %f], want [1.0, 2.0]", segs[0].StartTime, segs[0].EndTime)
	}
}
