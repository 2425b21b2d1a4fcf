package entities

// TranscriptSegment is one transcribed span with its time bounds in seconds.
type TranscriptSegment struct {
	Start float64 `json:"start" bson:"start"`
	End   float64 `json:"end" bson:"end"`
	Text  string  `json:"text" bson:"text"`
}

// TranscriptionResult is the full transcript of a prepared waveform.
// Text is empty (never an error) when the audio contained no speech.
type TranscriptionResult struct {
	Text     string              `json:"text" bson:"text"`
	Segments []TranscriptSegment `json:"segments" bson:"segments"`
	Language string              `json:"language" bson:"language"`
}
