package assessment

import (
	"testing"

	"github.com/lucerovega/mirada/server/domain/entities"
)

func answers(scores ...int) []entities.AssessmentAnswer {
	out := make([]entities.AssessmentAnswer, len(scores))
	for i, s := range scores {
		out[i] = entities.AssessmentAnswer{QuestionIndex: i, Score: s}
	}
	return out
}

func TestScoreEmptyIsUndefined(t *testing.T) {
	_, ok, err := Score(nil, DefaultMaxScorePerQuestion)
	if err != nil {
		t.Fatalf("Score returned error: %v", err)
	}
	if ok {
		t.Error("empty answer list must yield no score, not 0%")
	}
}

func TestScoreFullMarks(t *testing.T) {
	pct, ok, err := Score(answers(4, 4, 4, 4, 4), 4)
	if err != nil {
		t.Fatalf("Score returned error: %v", err)
	}
	if !ok {
		t.Fatal("expected a defined score")
	}
	if pct != 100 {
		t.Errorf("got %d, want 100", pct)
	}
}

func TestScoreRounds(t *testing.T) {
	// 1+2+2 of 12 is 41.66..%, rounding to 42.
	pct, ok, err := Score(answers(1, 2, 2), 4)
	if err != nil {
		t.Fatalf("Score returned error: %v", err)
	}
	if !ok {
		t.Fatal("expected a defined score")
	}
	if pct != 42 {
		t.Errorf("got %d, want 42", pct)
	}
}

func TestScoreRejectsNonPositiveMax(t *testing.T) {
	if _, _, err := Score(answers(1), 0); err == nil {
		t.Error("expected error for maxScorePerQuestion=0")
	}
}
