package entities

// Sentiment is the overall polarity of a transcript.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// EmotionPhrase is a span of the original transcript tagged with an emotion.
// StartIndex/EndIndex are byte offsets into the exact text that was analyzed,
// so the UI can highlight the span without re-tokenizing.
type EmotionPhrase struct {
	Text       string  `json:"text" bson:"text"`
	Emotion    Emotion `json:"emotion" bson:"emotion"`
	Confidence float64 `json:"confidence" bson:"confidence"`
	StartIndex int     `json:"start_index" bson:"start_index"`
	EndIndex   int     `json:"end_index" bson:"end_index"`
}

// KeyPhrase is a sentiment-bearing phrase with a relevance weight.
type KeyPhrase struct {
	Text      string    `json:"text" bson:"text"`
	Sentiment Sentiment `json:"sentiment" bson:"sentiment"`
	Relevance float64   `json:"relevance" bson:"relevance"`
}

// SentimentResult is the outcome of analyzing a transcript. Empty or very
// short input yields a neutral result with zero score and empty phrase lists.
type SentimentResult struct {
	OverallSentiment Sentiment       `json:"overall_sentiment" bson:"overall_sentiment"`
	SentimentScore   float64         `json:"sentiment_score" bson:"sentiment_score"`
	EmotionPhrases   []EmotionPhrase `json:"emotion_phrases" bson:"emotion_phrases"`
	KeyPhrases       []KeyPhrase     `json:"key_phrases" bson:"key_phrases"`
}

// NeutralSentiment is the result used for input too short to analyze.
func NeutralSentiment() SentimentResult {
	return SentimentResult{
		OverallSentiment: SentimentNeutral,
		SentimentScore:   0,
		EmotionPhrases:   []EmotionPhrase{},
		KeyPhrases:       []KeyPhrase{},
	}
}
