package engine

import "readiness/internal/schema"

// QuestionResult is one question's evaluated state in a run report.
// Score is the raw scoring fraction in [0,1]; it is nil whenever the
// question was excluded from aggregation.
type QuestionResult struct {
	ID     string        `json:"id"`
	Status Status        `json:"status"`
	Answer schema.Token  `json:"answer,omitempty"`
	Score  *float64      `json:"score,omitempty"`
	Flags  []schema.Flag `json:"flags,omitempty"`
}

// SectionScore is a section's weighted rollup. Score is nil when no
// question in the section was scored; such sections are excluded from
// their dimension's rollup rather than counted as zero.
type SectionScore struct {
	ID                string   `json:"id"`
	Label             string   `json:"label"`
	Score             *float64 `json:"score,omitempty"`
	QuestionsTotal    int      `json:"questions_total"`
	QuestionsAnswered int      `json:"questions_answered"`
	ReviewCount       int      `json:"review_count,omitempty"`
}

// DimensionScore is a dimension's weighted rollup over its scored
// sections, nil when every section was excluded.
type DimensionScore struct {
	ID    string   `json:"id"`
	Label string   `json:"label"`
	Score *float64 `json:"score,omitempty"`
}

// Report is the complete result of one evaluation pass. It is a pure
// value derived from (schema, answers, profile) and is regenerated from
// scratch whenever answers change. Section, dimension, and overall scores
// are percentages in [0,100].
type Report struct {
	AssessmentID       string              `json:"assessment_id"`
	Version            string              `json:"version"`
	Questions          []QuestionResult    `json:"questions"`
	Sections           []SectionScore      `json:"sections"`
	Dimensions         []DimensionScore    `json:"dimensions"`
	OverallScore       float64             `json:"overall_score"`
	Band               string              `json:"band"`
	Progress           float64             `json:"progress"`
	PendingQuestionIDs []string            `json:"pending_question_ids"`
	FlagsSummary       map[schema.Flag]int `json:"flags_summary"`
}
