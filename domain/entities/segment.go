package entities

// EmotionSegment is a maximal contiguous time interval sharing one dominant
// emotion. Segments produced for a clip are ordered by StartTime and tile the
// analyzed span without gaps or overlaps.
type EmotionSegment struct {
	StartTime       float64       `json:"start_time" bson:"start_time"`
	EndTime         float64       `json:"end_time" bson:"end_time"`
	Duration        float64       `json:"duration" bson:"duration"`
	DominantEmotion Emotion       `json:"dominant_emotion" bson:"dominant_emotion"`
	DominantValue   float64       `json:"dominant_value" bson:"dominant_value"`
	Emotions        EmotionVector `json:"emotions" bson:"emotions"`
}
