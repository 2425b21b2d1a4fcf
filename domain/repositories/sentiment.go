package repositories

import (
	"context"

	"github.com/lucerovega/mirada/server/domain/entities"
)

// SentimentAnalyzer derives sentiment and emotion phrases from a transcript.
// Phrase offsets index into the exact text passed in, sorted by start index.
type SentimentAnalyzer interface {
	Analyze(ctx context.Context, text string) (entities.SentimentResult, error)
}
