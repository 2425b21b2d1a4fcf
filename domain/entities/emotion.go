package entities

// Emotion identifies one of the six tracked emotion dimensions.
type Emotion string

const (
	EmotionAnger     Emotion = "anger"
	EmotionSadness   Emotion = "sadness"
	EmotionAnxiety   Emotion = "anxiety"
	EmotionFear      Emotion = "fear"
	EmotionHappiness Emotion = "happiness"
	EmotionGuilt     Emotion = "guilt"
)

// EmotionOrder is the canonical field order. It doubles as the tie-break
// priority when two fields share the maximum value, so dominant-emotion
// computation stays deterministic.
var EmotionOrder = []Emotion{
	EmotionAnger,
	EmotionSadness,
	EmotionAnxiety,
	EmotionFear,
	EmotionHappiness,
	EmotionGuilt,
}

// EmotionScaleMax is the upper bound of every emotion field. Model outputs
// in [0,1] are scaled onto [0,EmotionScaleMax] before being reported.
const EmotionScaleMax = 5.0

// EmotionVector holds one intensity per emotion, each in [0,5]. The fields
// are independent; they are not required to sum to anything.
type EmotionVector struct {
	Anger     float64 `json:"anger" bson:"anger"`
	Sadness   float64 `json:"sadness" bson:"sadness"`
	Anxiety   float64 `json:"anxiety" bson:"anxiety"`
	Fear      float64 `json:"fear" bson:"fear"`
	Happiness float64 `json:"happiness" bson:"happiness"`
	Guilt     float64 `json:"guilt" bson:"guilt"`
}

// Get returns the value of the named field. Unknown names return 0.
func (v EmotionVector) Get(e Emotion) float64 {
	switch e {
	case EmotionAnger:
		return v.Anger
	case EmotionSadness:
		return v.Sadness
	case EmotionAnxiety:
		return v.Anxiety
	case EmotionFear:
		return v.Fear
	case EmotionHappiness:
		return v.Happiness
	case EmotionGuilt:
		return v.Guilt
	}
	return 0
}

// Set assigns the named field. Unknown names are ignored.
func (v *EmotionVector) Set(e Emotion, value float64) {
	switch e {
	case EmotionAnger:
		v.Anger = value
	case EmotionSadness:
		v.Sadness = value
	case EmotionAnxiety:
		v.Anxiety = value
	case EmotionFear:
		v.Fear = value
	case EmotionHappiness:
		v.Happiness = value
	case EmotionGuilt:
		v.Guilt = value
	}
}

// Clamped returns a copy with every field clamped to [0, EmotionScaleMax].
func (v EmotionVector) Clamped() EmotionVector {
	out := v
	for _, e := range EmotionOrder {
		val := out.Get(e)
		if val < 0 {
			out.Set(e, 0)
		} else if val > EmotionScaleMax {
			out.Set(e, EmotionScaleMax)
		}
	}
	return out
}

// Dominant returns the emotion with the maximum value. Ties resolve to the
// field that appears first in EmotionOrder.
func (v EmotionVector) Dominant() (Emotion, float64) {
	best := EmotionOrder[0]
	bestVal := v.Get(best)
	for _, e := range EmotionOrder[1:] {
		if val := v.Get(e); val > bestVal {
			best = e
			bestVal = val
		}
	}
	return best, bestVal
}

// MeanVector mean-pools a set of vectors field by field. An empty input
// yields the zero vector.
func MeanVector(vs []EmotionVector) EmotionVector {
	var out EmotionVector
	if len(vs) == 0 {
		return out
	}
	for _, v := range vs {
		for _, e := range EmotionOrder {
			out.Set(e, out.Get(e)+v.Get(e))
		}
	}
	n := float64(len(vs))
	for _, e := range EmotionOrder {
		out.Set(e, out.Get(e)/n)
	}
	return out
}
