package sentiment

import (
	"context"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/lucerovega/mirada/server/domain/entities"
)

// minAnalyzableLength is the shortest text worth scoring. Anything below it
// returns the neutral zero-confidence result.
const minAnalyzableLength = 3

// Polarity weights for common Spanish sentiment-bearing words.
var positiveWords = map[string]float64{
	"feliz": 1.0, "contento": 1.0, "contenta": 1.0, "alegre": 0.9,
	"bien": 0.6, "divertido": 0.8, "divertida": 0.8, "genial": 0.9,
	"bueno": 0.6, "buena": 0.6, "tranquilo": 0.5, "tranquila": 0.5,
	"gusta": 0.6, "encanta": 0.9, "amigos": 0.4, "amigas": 0.4,
	"jugar": 0.4, "reír": 0.8, "sonreír": 0.8,
}

var negativeWords = map[string]float64{
	"triste": 1.0, "mal": 0.7, "miedo": 0.9, "enojado": 0.9,
	"enojada": 0.9, "enfadado": 0.9, "enfadada": 0.9, "asustado": 0.9,
	"asustada": 0.9, "solo": 0.5, "sola": 0.5, "llorar": 0.9,
	"malo": 0.6, "mala": 0.6, "nervioso": 0.7, "nerviosa": 0.7,
	"preocupado": 0.7, "preocupada": 0.7, "culpa": 0.8, "culpable": 0.8,
	"rabia": 0.9, "susto": 0.8, "odio": 1.0, "gritar": 0.6,
}

// emotionWords tags words with the emotion they most directly express, with
// a confidence for the association.
var emotionWords = map[string]struct {
	emotion    entities.Emotion
	confidence float64
}{
	"enojado":     {entities.EmotionAnger, 0.9},
	"enojada":     {entities.EmotionAnger, 0.9},
	"enfadado":    {entities.EmotionAnger, 0.9},
	"enfadada":    {entities.EmotionAnger, 0.9},
	"rabia":       {entities.EmotionAnger, 0.85},
	"furioso":     {entities.EmotionAnger, 0.9},
	"furiosa":     {entities.EmotionAnger, 0.9},
	"odio":        {entities.EmotionAnger, 0.8},
	"triste":      {entities.EmotionSadness, 0.9},
	"llorar":      {entities.EmotionSadness, 0.8},
	"pena":        {entities.EmotionSadness, 0.7},
	"solo":        {entities.EmotionSadness, 0.5},
	"sola":        {entities.EmotionSadness, 0.5},
	"nervioso":    {entities.EmotionAnxiety, 0.85},
	"nerviosa":    {entities.EmotionAnxiety, 0.85},
	"preocupado":  {entities.EmotionAnxiety, 0.8},
	"preocupada":  {entities.EmotionAnxiety, 0.8},
	"inquieto":    {entities.EmotionAnxiety, 0.7},
	"inquieta":    {entities.EmotionAnxiety, 0.7},
	"miedo":       {entities.EmotionFear, 0.9},
	"asustado":    {entities.EmotionFear, 0.9},
	"asustada":    {entities.EmotionFear, 0.9},
	"susto":       {entities.EmotionFear, 0.8},
	"temor":       {entities.EmotionFear, 0.8},
	"feliz":       {entities.EmotionHappiness, 0.9},
	"contento":    {entities.EmotionHappiness, 0.9},
	"contenta":    {entities.EmotionHappiness, 0.9},
	"alegre":      {entities.EmotionHappiness, 0.85},
	"divertido":   {entities.EmotionHappiness, 0.7},
	"divertida":   {entities.EmotionHappiness, 0.7},
	"culpa":       {entities.EmotionGuilt, 0.85},
	"culpable":    {entities.EmotionGuilt, 0.9},
	"perdón":      {entities.EmotionGuilt, 0.6},
	"arrepentido": {entities.EmotionGuilt, 0.85},
	"arrepentida": {entities.EmotionGuilt, 0.85},
}

// LexiconAnalyzer is a deterministic Spanish sentiment analyzer backed by
// word lexicons. It needs no network and is the default analyzer; the
// Gemini-backed one is opt-in.
type LexiconAnalyzer struct {
	logger *zap.Logger
}

// NewLexiconAnalyzer creates the analyzer.
func NewLexiconAnalyzer(logger *zap.Logger) *LexiconAnalyzer {
	return &LexiconAnalyzer{logger: logger}
}

// token is a word with its byte offsets into the original text.
type token struct {
	lower string
	start int
	end   int
}

// tokenize splits text into letter runs, keeping byte offsets into the
// original string so phrase spans survive any later highlighting.
func tokenize(text string) []token {
	var tokens []token
	start := -1
	for i, r := range text {
		if unicode.IsLetter(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			tokens = append(tokens, token{lower: strings.ToLower(text[start:i]), start: start, end: i})
			start = -1
		}
	}
	if start >= 0 {
		tokens = append(tokens, token{lower: strings.ToLower(text[start:]), start: start, end: len(text)})
	}
	return tokens
}

// Analyze scores the transcript. Phrase offsets index into text exactly as
// given and come out sorted by start index.
func (a *LexiconAnalyzer) Analyze(ctx context.Context, text string) (entities.SentimentResult, error) {
	if len(strings.TrimSpace(text)) < minAnalyzableLength {
		return entities.NeutralSentiment(), nil
	}

	tokens := tokenize(text)
	result := entities.SentimentResult{
		EmotionPhrases: []entities.EmotionPhrase{},
		KeyPhrases:     []entities.KeyPhrase{},
	}

	var posSum, negSum float64
	for i, tok := range tokens {
		if w, ok := positiveWords[tok.lower]; ok {
			posSum += w
			result.KeyPhrases = append(result.KeyPhrases, entities.KeyPhrase{
				Text:      phraseAround(text, tokens, i),
				Sentiment: entities.SentimentPositive,
				Relevance: w,
			})
		}
		if w, ok := negativeWords[tok.lower]; ok {
			negSum += w
			result.KeyPhrases = append(result.KeyPhrases, entities.KeyPhrase{
				Text:      phraseAround(text, tokens, i),
				Sentiment: entities.SentimentNegative,
				Relevance: w,
			})
		}
		if tag, ok := emotionWords[tok.lower]; ok {
			result.EmotionPhrases = append(result.EmotionPhrases, entities.EmotionPhrase{
				Text:       text[tok.start:tok.end],
				Emotion:    tag.emotion,
				Confidence: tag.confidence,
				StartIndex: tok.start,
				EndIndex:   tok.end,
			})
		}
	}

	// Tokens are scanned left to right, so emotion phrases are already
	// ordered by start index.
	if total := posSum + negSum; total > 0 {
		result.SentimentScore = (posSum - negSum) / total
	}
	switch {
	case result.SentimentScore > 0.1:
		result.OverallSentiment = entities.SentimentPositive
	case result.SentimentScore < -0.1:
		result.OverallSentiment = entities.SentimentNegative
	default:
		result.OverallSentiment = entities.SentimentNeutral
	}
	return result, nil
}

// phraseAround slices a window of one neighbor on each side of token i,
// giving key phrases a little context.
func phraseAround(text string, tokens []token, i int) string {
	lo := i - 1
	if lo < 0 {
		lo = 0
	}
	hi := i + 1
	if hi >= len(tokens) {
		hi = len(tokens) - 1
	}
	return text[tokens[lo].start:tokens[hi].end]
}
