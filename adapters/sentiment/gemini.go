package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/lucerovega/mirada/server/domain/entities"
)

const (
	geminiModel          = "gemini-2.0-flash"
	geminiTimeoutSeconds = 30
)

const geminiPrompt = `Analiza el sentimiento del siguiente texto de un niño.
Responde SOLO con JSON: {"overall_sentiment":"positive|negative|neutral",
"sentiment_score":-1..1,"key_phrases":[{"text":"...","sentiment":"positive|negative|neutral","relevance":0..1}]}.
Texto: %s`

// GeminiAnalyzer asks Gemini for overall sentiment and key phrases, while
// emotion-phrase spans still come from the local lexicon so character
// offsets are guaranteed to index the original text. Any API failure falls
// back to the lexicon analyzer entirely.
type GeminiAnalyzer struct {
	client  *genai.Client
	lexicon *LexiconAnalyzer
	logger  *zap.Logger
}

// NewGeminiAnalyzer creates the analyzer. GEMINI_API_KEY must be set.
func NewGeminiAnalyzer(logger *zap.Logger) (*GeminiAnalyzer, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiAnalyzer{
		client:  client,
		lexicon: NewLexiconAnalyzer(logger),
		logger:  logger,
	}, nil
}

type geminiSentimentPayload struct {
	OverallSentiment string  `json:"overall_sentiment"`
	SentimentScore   float64 `json:"sentiment_score"`
	KeyPhrases       []struct {
		Text      string  `json:"text"`
		Sentiment string  `json:"sentiment"`
		Relevance float64 `json:"relevance"`
	} `json:"key_phrases"`
}

// Analyze combines the model's judgment with lexicon-derived offsets.
func (a *GeminiAnalyzer) Analyze(ctx context.Context, text string) (entities.SentimentResult, error) {
	if len(strings.TrimSpace(text)) < minAnalyzableLength {
		return entities.NeutralSentiment(), nil
	}

	// The lexicon pass always runs: its emotion phrases carry the exact
	// offsets the UI highlights with.
	base, err := a.lexicon.Analyze(ctx, text)
	if err != nil {
		return entities.SentimentResult{}, err
	}

	payload, err := a.generate(ctx, text)
	if err != nil {
		a.logger.Warn("gemini sentiment failed, using lexicon result", zap.Error(err))
		return base, nil
	}

	result := base
	switch payload.OverallSentiment {
	case string(entities.SentimentPositive), string(entities.SentimentNegative), string(entities.SentimentNeutral):
		result.OverallSentiment = entities.Sentiment(payload.OverallSentiment)
	}
	if payload.SentimentScore >= -1 && payload.SentimentScore <= 1 {
		result.SentimentScore = payload.SentimentScore
	}
	if len(payload.KeyPhrases) > 0 {
		result.KeyPhrases = result.KeyPhrases[:0]
		for _, kp := range payload.KeyPhrases {
			s := entities.Sentiment(kp.Sentiment)
			if s != entities.SentimentPositive && s != entities.SentimentNegative {
				s = entities.SentimentNeutral
			}
			result.KeyPhrases = append(result.KeyPhrases, entities.KeyPhrase{
				Text:      kp.Text,
				Sentiment: s,
				Relevance: kp.Relevance,
			})
		}
		sort.SliceStable(result.KeyPhrases, func(i, j int) bool {
			return result.KeyPhrases[i].Relevance > result.KeyPhrases[j].Relevance
		})
	}
	return result, nil
}

func (a *GeminiAnalyzer) generate(ctx context.Context, text string) (*geminiSentimentPayload, error) {
	ctx, cancel := context.WithTimeout(ctx, geminiTimeoutSeconds*time.Second)
	defer cancel()

	contents := []*genai.Content{
		genai.NewContentFromText(fmt.Sprintf(geminiPrompt, text), genai.RoleUser),
	}
	response, err := a.client.Models.GenerateContent(ctx, geminiModel, contents, &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(0)),
	})
	if err != nil {
		return nil, err
	}
	if len(response.Candidates) == 0 || response.Candidates[0].Content == nil || len(response.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty response")
	}
	var raw string
	for _, part := range response.Candidates[0].Content.Parts {
		if part.Text != "" {
			raw += part.Text
		}
	}
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var payload geminiSentimentPayload
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &payload); err != nil {
		return nil, fmt.Errorf("unparseable sentiment payload: %w", err)
	}
	return &payload, nil
}
