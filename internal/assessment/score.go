package assessment

import (
	"fmt"
	"math"

	"github.com/lucerovega/mirada/server/domain/entities"
)

// DefaultMaxScorePerQuestion is the maximum points a single item can award
// in the shipped questionnaire set.
const DefaultMaxScorePerQuestion = 4

// Score converts answered questionnaire items into a percentage. ok is false
// for an empty answer list: no answers means no score, never 0%.
func Score(answers []entities.AssessmentAnswer, maxScorePerQuestion int) (percentage int, ok bool, err error) {
	if maxScorePerQuestion <= 0 {
		return 0, false, fmt.Errorf("maxScorePerQuestion must be positive, got %d", maxScorePerQuestion)
	}
	if len(answers) == 0 {
		return 0, false, nil
	}
	sum := 0
	for _, a := range answers {
		sum += a.Score
	}
	pct := 100 * float64(sum) / float64(len(answers)*maxScorePerQuestion)
	return int(math.Round(pct)), true, nil
}
