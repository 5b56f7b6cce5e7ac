package model

// AssessmentClassification is the overall verdict for a session.
type AssessmentClassification string

// Closed set of overall verdicts.
const (
	AssessmentExcellent        AssessmentClassification = "Excellent"
	AssessmentGood             AssessmentClassification = "Good"
	AssessmentNeedsImprovement AssessmentClassification = "Needs Improvement"
)

// Valid reports whether the verdict is one of the three closed values.
func (a AssessmentClassification) Valid() bool {
	switch a {
	case AssessmentExcellent, AssessmentGood, AssessmentNeedsImprovement:
		return true
	default:
		return false
	}
}

// Material is one externally supplied learning resource. Title is the
// catalog's natural key.
type Material struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Link        string `json:"link"`
	Thumbnail   string `json:"thumbnail"`
}

// OverallAssessment is the validated, catalog-filtered result of the
// natural-language assessment. Immutable once accepted.
type OverallAssessment struct {
	Classification AssessmentClassification `json:"classification"`
	Feedbacks      []string                 `json:"feedbacks"`
	Materials      []Material               `json:"materials"`
}
