// Package schema models the immutable assessment schema document:
// dimensions, weighted sections, conditionally applicable questions,
// profile and soft gates, answer scoring, and score bands. A document is
// parsed and validated once per version and is read-only afterwards.
package schema

import "readiness/internal/expr"

// Token is one of the closed set of answer values a question can store.
type Token string

const (
	TokenYes     Token = "yes"
	TokenPartial Token = "partial"
	TokenNo      Token = "no"
	TokenNotSure Token = "not_sure"
	TokenNA      Token = "na"
)

// Flag is orthogonal per-question metadata raised during evaluation.
// Flags never change a score; they tell the caller why a question was
// excluded or deserves another look.
type Flag string

const (
	// FlagNotApplicable marks a question excluded by a profile gate.
	FlagNotApplicable Flag = "not_applicable"
	// FlagFollowUp marks a question excluded by a definitive negative
	// upstream answer, or answered with the na token.
	FlagFollowUp Flag = "follow_up"
	// FlagReview marks an answer the user was unsure about.
	FlagReview Flag = "review"
	// FlagRisk is reserved by the flags config for risk-bearing tokens.
	FlagRisk Flag = "risk"
	// FlagInvalidAnswer marks an answer that matched none of the
	// question's options; the question is treated as unanswered.
	FlagInvalidAnswer Flag = "invalid_answer"
)

// GateResultAsk and GateResultNA are the declarable gate rule results.
const (
	GateResultAsk = "ask"
	GateResultNA  = "na"
)

// Dimension is a top-level scoring category.
type Dimension struct {
	ID    string `yaml:"id" json:"id"`
	Label string `yaml:"label" json:"label"`
}

// Section is a weighted group of questions inside a dimension. Weight is
// the section's relative contribution to its dimension rollup.
type Section struct {
	ID        string  `yaml:"id" json:"id"`
	Label     string  `yaml:"label" json:"label"`
	Dimension string  `yaml:"dimension" json:"dimension"`
	Weight    float64 `yaml:"weight" json:"weight"`
}

// Option is one selectable answer. Value is the token stored; ScoreValue,
// when set, is the token looked up in AnswerScoring instead, which lets
// two literal choices share a scoring bucket (or an inverted question map
// its "yes" to a zero score).
type Option struct {
	Value      string `yaml:"value" json:"value"`
	Label      string `yaml:"label" json:"label"`
	ScoreValue string `yaml:"score_value,omitempty" json:"score_value,omitempty"`
}

// Question is one scored item. AppliesIf is the static visibility
// predicate, compiled at load time into Predicate. SystemNA questions are
// auto-resolved by the engine and never shown when their condition is
// false.
type Question struct {
	ID        string   `yaml:"id" json:"id"`
	ItemID    string   `yaml:"item_id" json:"item_id"`
	SectionID string   `yaml:"section_id" json:"section_id"`
	Dimension string   `yaml:"dimension" json:"dimension"`
	Weight    int      `yaml:"weight" json:"weight"`
	Prompt    string   `yaml:"prompt" json:"prompt"`
	Type      string   `yaml:"type" json:"type"`
	Options   []Option `yaml:"options" json:"options"`
	AppliesIf string   `yaml:"applies_if" json:"applies_if"`
	SystemNA  bool     `yaml:"system_na" json:"system_na,omitempty"`

	Predicate *expr.Predicate `yaml:"-" json:"-"`
}

// Option returns the option matching the stored answer value.
func (q *Question) Option(value string) (Option, bool) {
	for _, opt := range q.Options {
		if opt.Value == value {
			return opt, true
		}
	}
	return Option{}, false
}

// ScoreToken resolves the scoring token for a stored answer value,
// falling back to the value itself when no score_value indirection is set.
func (o Option) ScoreToken() Token {
	if o.ScoreValue != "" {
		return Token(o.ScoreValue)
	}
	return Token(o.Value)
}

// ProfileQuestion is a preliminary yes/no question producing a named
// boolean fact used only inside gate and condition predicates.
type ProfileQuestion struct {
	ID       string          `yaml:"id" json:"id"`
	Field    string          `yaml:"field" json:"field"`
	Prompt   string          `yaml:"prompt" json:"prompt"`
	Type     string          `yaml:"type" json:"type"`
	Options  []Option        `yaml:"options" json:"options"`
	ValueMap map[string]bool `yaml:"value_map" json:"value_map"`
}

// ProfileGate forces every listed question to NA when its predicate holds.
// Profile-level exclusion is authoritative and wins over soft gates.
type ProfileGate struct {
	When      string   `yaml:"when" json:"when"`
	Questions []string `yaml:"questions" json:"questions"`
	Result    string   `yaml:"result" json:"result"`
	Flag      Flag     `yaml:"flag" json:"flag"`

	Predicate *expr.Predicate `yaml:"-" json:"-"`
}

// SoftGate is one half of an ask/na pair for a target question: the ask
// rule's predicate makes the question meaningful, the na rule's predicate
// is the definitive opposite. When neither holds the question stays
// pending.
type SoftGate struct {
	When      string   `yaml:"when" json:"when"`
	Questions []string `yaml:"questions" json:"questions"`
	Result    string   `yaml:"result" json:"result"`
	Flag      Flag     `yaml:"flag,omitempty" json:"flag,omitempty"`

	Predicate *expr.Predicate `yaml:"-" json:"-"`
}

// Band is a labeled, inclusive score range over [0,100].
type Band struct {
	Min   float64 `yaml:"min" json:"min"`
	Max   float64 `yaml:"max" json:"max"`
	Label string  `yaml:"label" json:"label"`
}

// FlagsConfig lists the answer tokens that raise each flag.
type FlagsConfig struct {
	ReviewOn   []Token `yaml:"review_on" json:"review_on"`
	FollowUpOn []Token `yaml:"follow_up_on" json:"follow_up_on"`
	RiskOn     []Token `yaml:"risk_on" json:"risk_on"`
}

func contains(tokens []Token, t Token) bool {
	for _, candidate := range tokens {
		if candidate == t {
			return true
		}
	}
	return false
}

// Review reports whether answering with t raises the review flag.
func (f FlagsConfig) Review(t Token) bool { return contains(f.ReviewOn, t) }

// FollowUp reports whether answering with t raises the follow_up flag.
func (f FlagsConfig) FollowUp(t Token) bool { return contains(f.FollowUpOn, t) }

// Risk reports whether answering with t raises the risk flag.
func (f FlagsConfig) Risk(t Token) bool { return contains(f.RiskOn, t) }

// Schema is one validated assessment schema version.
type Schema struct {
	AssessmentID     string             `yaml:"assessment_id" json:"assessment_id"`
	Version          string             `yaml:"version" json:"version"`
	Dimensions       []Dimension        `yaml:"dimensions" json:"dimensions"`
	Sections         []Section          `yaml:"sections" json:"sections"`
	ProfileQuestions []ProfileQuestion  `yaml:"profile_questions" json:"profile_questions"`
	ProfileGates     []ProfileGate      `yaml:"profile_gates" json:"profile_gates"`
	SoftGates        []SoftGate         `yaml:"soft_gates" json:"soft_gates"`
	AnswerScoring    map[Token]*float64 `yaml:"answer_scoring" json:"answer_scoring"`
	Flags            FlagsConfig        `yaml:"flags" json:"flags"`
	ScoreBands       []Band             `yaml:"score_bands" json:"score_bands"`
	Questions        []*Question        `yaml:"questions" json:"questions"`

	questionIndex  map[string]*Question
	questionOrder  map[string]int
	sectionIndex   map[string]*Section
	dimensionIndex map[string]*Dimension
	profileFields  map[string]struct{}
}

// Question returns the question with the given id.
func (s *Schema) Question(id string) (*Question, bool) {
	q, ok := s.questionIndex[id]
	return q, ok
}

// Section returns the section with the given id.
func (s *Schema) Section(id string) (*Section, bool) {
	sec, ok := s.sectionIndex[id]
	return sec, ok
}

// QuestionOrder returns the evaluation-order index of a question id.
func (s *Schema) QuestionOrder(id string) (int, bool) {
	i, ok := s.questionOrder[id]
	return i, ok
}

// HasProfileField reports whether the dotted field is declared by a
// profile question.
func (s *Schema) HasProfileField(field string) bool {
	_, ok := s.profileFields[field]
	return ok
}

func (s *Schema) buildIndexes() {
	s.questionIndex = make(map[string]*Question, len(s.Questions))
	s.questionOrder = make(map[string]int, len(s.Questions))
	for i, q := range s.Questions {
		s.questionIndex[q.ID] = q
		s.questionOrder[q.ID] = i
	}
	s.sectionIndex = make(map[string]*Section, len(s.Sections))
	for i := range s.Sections {
		s.sectionIndex[s.Sections[i].ID] = &s.Sections[i]
	}
	s.dimensionIndex = make(map[string]*Dimension, len(s.Dimensions))
	for i := range s.Dimensions {
		s.dimensionIndex[s.Dimensions[i].ID] = &s.Dimensions[i]
	}
	s.profileFields = make(map[string]struct{}, len(s.ProfileQuestions))
	for _, pq := range s.ProfileQuestions {
		s.profileFields[pq.Field] = struct{}{}
	}
}
