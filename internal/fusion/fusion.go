package fusion

import (
	"github.com/lucerovega/mirada/server/domain/entities"
)

// Weights are the per-modality coefficients of the merge. They come from
// configuration; recalibration must not require a code change.
type Weights struct {
	Video float64
	Audio float64
}

// DefaultWeights mirrors the shipped configuration.
var DefaultWeights = Weights{Video: 0.6, Audio: 0.4}

// Fuse combines the video and audio aggregates emotion by emotion. A fused
// field is defined only when both modalities contributed: with exactly one
// modality present every field stays nil, signalling "insufficient
// modalities" instead of fabricating confidence from a single source. With
// no usable modality at all the profile itself is nil.
func Fuse(video, audio *entities.EmotionVector, w Weights) *entities.FusedEmotionProfile {
	if video == nil && audio == nil {
		return nil
	}
	profile := &entities.FusedEmotionProfile{}
	if video == nil || audio == nil {
		return profile
	}
	for _, e := range entities.EmotionOrder {
		fused := w.Video*video.Get(e) + w.Audio*audio.Get(e)
		*profile.Field(e) = &fused
	}
	return profile
}
