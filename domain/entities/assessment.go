package entities

// AssessmentAnswer is one answered questionnaire item. Score is the discrete
// points awarded for the chosen answer.
type AssessmentAnswer struct {
	PhaseID       string `json:"phase_id" bson:"phase_id"`
	TestID        string `json:"test_id" bson:"test_id"`
	QuestionIndex int    `json:"question_index" bson:"question_index"`
	Answer        string `json:"answer" bson:"answer"`
	Score         int    `json:"score" bson:"score"`
}
