package segmentation

import (
	"fmt"

	"github.com/lucerovega/mirada/server/domain/entities"
)

// Engine turns a per-frame emotion time series into contiguous
// dominant-emotion segments.
type Engine struct {
	// MinSegmentSec is the minimum segment duration. Shorter segments are
	// absorbed into their preceding neighbor (the first segment, having no
	// predecessor, merges forward). Attaching backwards keeps the earlier
	// context stable while the tail of a transition is still settling; it
	// is a display policy, not a physical constraint, and is tunable.
	MinSegmentSec float64
}

// New builds an engine with the given minimum segment duration. A zero or
// negative minimum disables absorption.
func New(minSegmentSec float64) *Engine {
	return &Engine{MinSegmentSec: minSegmentSec}
}

// Segment walks ordered per-frame vectors and their timestamps, opening a new
// segment whenever the dominant emotion changes. fps is required: it supplies
// the duration of the final frame and fills in timestamps when the caller has
// none (frame/fps). Empty input yields an empty, non-nil slice.
func (e *Engine) Segment(vectors []entities.EmotionVector, timestamps []float64, fps float64) ([]entities.EmotionSegment, error) {
	if fps <= 0 {
		return nil, fmt.Errorf("fps must be positive, got %f", fps)
	}
	if len(vectors) == 0 {
		return []entities.EmotionSegment{}, nil
	}
	if timestamps == nil {
		timestamps = make([]float64, len(vectors))
		for i := range timestamps {
			timestamps[i] = float64(i) / fps
		}
	}
	if len(timestamps) != len(vectors) {
		return nil, fmt.Errorf("got %d timestamps for %d vectors", len(timestamps), len(vectors))
	}

	frameDur := 1.0 / fps
	var segments []entities.EmotionSegment
	runStart := 0
	runEmotion, _ := vectors[0].Dominant()

	flush := func(start, end int) {
		// end is exclusive. A segment runs until the next segment's opening
		// frame, so boundaries share the exact timestamp even when the
		// extractor's clock jitters; only the final frame extends by one
		// frame duration.
		endTime := timestamps[end-1] + frameDur
		if end < len(vectors) {
			endTime = timestamps[end]
		}
		pooled := entities.MeanVector(vectors[start:end])
		seg := entities.EmotionSegment{
			StartTime:       timestamps[start],
			EndTime:         endTime,
			DominantEmotion: runEmotion,
			DominantValue:   pooled.Get(runEmotion),
			Emotions:        pooled,
		}
		seg.Duration = seg.EndTime - seg.StartTime
		segments = append(segments, seg)
	}

	for i := 1; i < len(vectors); i++ {
		dom, _ := vectors[i].Dominant()
		if dom != runEmotion {
			flush(runStart, i)
			runStart = i
			runEmotion = dom
		}
	}
	flush(runStart, len(vectors))

	segments = e.absorbShort(segments)
	if err := validate(segments); err != nil {
		return nil, err
	}
	return segments, nil
}

// absorbShort merges segments shorter than MinSegmentSec into their
// preceding neighbor, keeping the neighbor's dominant emotion. The merged
// vector is duration-weighted so pooled values stay means over frames.
func (e *Engine) absorbShort(segments []entities.EmotionSegment) []entities.EmotionSegment {
	if e.MinSegmentSec <= 0 || len(segments) < 2 {
		return segments
	}
	out := segments[:0]
	for _, seg := range segments {
		if seg.Duration >= e.MinSegmentSec || len(out) == 0 {
			out = append(out, seg)
			continue
		}
		prev := &out[len(out)-1]
		merged := mergeInto(*prev, seg)
		*prev = merged
	}
	// A short leading segment has no predecessor; fold it forward instead.
	if len(out) >= 2 && out[0].Duration < e.MinSegmentSec {
		merged := mergeInto(out[1], out[0])
		out = append([]entities.EmotionSegment{merged}, out[2:]...)
	}
	return coalesce(out)
}

// coalesce joins adjacent segments left with the same dominant emotion after
// absorption.
func coalesce(segments []entities.EmotionSegment) []entities.EmotionSegment {
	if len(segments) < 2 {
		return segments
	}
	out := segments[:1]
	for _, seg := range segments[1:] {
		prev := &out[len(out)-1]
		if seg.DominantEmotion == prev.DominantEmotion {
			*prev = mergeInto(*prev, seg)
			continue
		}
		out = append(out, seg)
	}
	return out
}

// mergeInto extends keeper to cover absorbed, duration-weighting the pooled
// vectors and preserving keeper's dominant emotion.
func mergeInto(keeper, absorbed entities.EmotionSegment) entities.EmotionSegment {
	total := keeper.Duration + absorbed.Duration
	var pooled entities.EmotionVector
	if total > 0 {
		for _, em := range entities.EmotionOrder {
			v := (keeper.Emotions.Get(em)*keeper.Duration + absorbed.Emotions.Get(em)*absorbed.Duration) / total
			pooled.Set(em, v)
		}
	}
	out := keeper
	if absorbed.StartTime < out.StartTime {
		out.StartTime = absorbed.StartTime
	}
	if absorbed.EndTime > out.EndTime {
		out.EndTime = absorbed.EndTime
	}
	out.Duration = out.EndTime - out.StartTime
	out.Emotions = pooled
	out.DominantValue = pooled.Get(out.DominantEmotion)
	return out
}

// validate enforces the ordering and contiguity invariants. A violation here
// means a bug upstream, never bad user input, so it fails loudly.
func validate(segments []entities.EmotionSegment) error {
	for i, s := range segments {
		if s.EndTime < s.StartTime {
			return fmt.Errorf("segment %d ends before it starts: [%f, %f]", i, s.StartTime, s.EndTime)
		}
		if i > 0 && segments[i-1].EndTime != s.StartTime {
			return fmt.Errorf("segments %d and %d are not contiguous: %f != %f", i-1, i, segments[i-1].EndTime, s.StartTime)
		}
	}
	return nil
}
