package schema

import (
	"sort"

	"readiness/internal/expr"
)

// compile turns every predicate string in the document into an executable
// program. Malformed predicates surface here, never during a run.
func (s *Schema) compile() error {
	for _, q := range s.Questions {
		p, err := expr.Compile(q.AppliesIf)
		if err != nil {
			return invalid(q.ID, "applies_if: %v", err)
		}
		q.Predicate = p
	}
	for i := range s.ProfileGates {
		g := &s.ProfileGates[i]
		p, err := expr.Compile(g.When)
		if err != nil {
			return invalid(gateID("profile_gate", g.Questions), "when: %v", err)
		}
		g.Predicate = p
	}
	for i := range s.SoftGates {
		g := &s.SoftGates[i]
		p, err := expr.Compile(g.When)
		if err != nil {
			return invalid(gateID("soft_gate", g.Questions), "when: %v", err)
		}
		g.Predicate = p
	}
	return nil
}

func gateID(kind string, questions []string) string {
	if len(questions) == 0 {
		return kind
	}
	return kind + " " + questions[0]
}

// validate checks the structural invariants of the document: unique ids,
// resolvable references, no forward or circular applies_if references,
// consistent scoring configuration, and exhaustive disjoint score bands.
func (s *Schema) validate() error {
	if s.AssessmentID == "" {
		return invalid("", "assessment_id must be set")
	}
	if s.Version == "" {
		return invalid("", "version must be set")
	}

	if err := s.validateStructure(); err != nil {
		return err
	}
	if err := s.validateQuestions(); err != nil {
		return err
	}
	if err := s.validateGates(); err != nil {
		return err
	}
	return s.validateBands()
}

func (s *Schema) validateStructure() error {
	if len(s.Dimensions) == 0 {
		return invalid("", "at least one dimension is required")
	}
	seenDims := make(map[string]bool, len(s.Dimensions))
	for _, d := range s.Dimensions {
		if d.ID == "" {
			return invalid("", "dimension id must be set")
		}
		if seenDims[d.ID] {
			return invalid(d.ID, "duplicate dimension id")
		}
		seenDims[d.ID] = true
	}

	if len(s.Sections) == 0 {
		return invalid("", "at least one section is required")
	}
	seenSections := make(map[string]bool, len(s.Sections))
	for _, sec := range s.Sections {
		if sec.ID == "" {
			return invalid("", "section id must be set")
		}
		if seenSections[sec.ID] {
			return invalid(sec.ID, "duplicate section id")
		}
		seenSections[sec.ID] = true
		if !seenDims[sec.Dimension] {
			return invalid(sec.ID, "unknown dimension %q", sec.Dimension)
		}
		if sec.Weight < 0 {
			return invalid(sec.ID, "section weight must be non-negative")
		}
	}

	seenFields := make(map[string]bool, len(s.ProfileQuestions))
	for _, pq := range s.ProfileQuestions {
		if pq.Field == "" {
			return invalid(pq.ID, "profile question field must be set")
		}
		if seenFields[pq.Field] {
			return invalid(pq.ID, "duplicate profile field %q", pq.Field)
		}
		seenFields[pq.Field] = true
	}

	if len(s.AnswerScoring) == 0 {
		return invalid("", "answer_scoring must be set")
	}
	for token, value := range s.AnswerScoring {
		if value != nil && (*value < 0 || *value > 1) {
			return invalid(string(token), "answer score must be in [0,1] or null")
		}
	}
	return nil
}

func (s *Schema) validateQuestions() error {
	seen := make(map[string]bool, len(s.Questions))
	for i, q := range s.Questions {
		if q.ID == "" {
			return invalid("", "question id must be set")
		}
		if seen[q.ID] {
			return invalid(q.ID, "duplicate question id")
		}
		seen[q.ID] = true

		sec, ok := s.sectionIndex[q.SectionID]
		if !ok {
			return invalid(q.ID, "unknown section %q", q.SectionID)
		}
		if q.Dimension == "" {
			q.Dimension = sec.Dimension
		} else if q.Dimension != sec.Dimension {
			return invalid(q.ID, "dimension %q does not match section %q dimension %q", q.Dimension, sec.ID, sec.Dimension)
		}
		if q.Weight <= 0 {
			return invalid(q.ID, "question weight must be positive")
		}
		if len(q.Options) == 0 {
			return invalid(q.ID, "question must have options")
		}

		seenValues := make(map[string]bool, len(q.Options))
		for _, opt := range q.Options {
			if opt.Value == "" {
				return invalid(q.ID, "option value must be set")
			}
			if seenValues[opt.Value] {
				return invalid(q.ID, "duplicate option value %q", opt.Value)
			}
			seenValues[opt.Value] = true
			if _, ok := s.AnswerScoring[opt.ScoreToken()]; !ok {
				return invalid(q.ID, "option %q scores as %q which is absent from answer_scoring", opt.Value, opt.ScoreToken())
			}
		}

		if err := s.validateRefs(q.ID, q.Predicate, i); err != nil {
			return err
		}
	}
	return nil
}

// validateRefs checks a predicate's variables against the schema. Answer
// references must name existing questions; when maxOrder is non-negative
// they must additionally be strictly earlier in evaluation order, which
// rules out forward and circular dependencies.
func (s *Schema) validateRefs(id string, p *expr.Predicate, maxOrder int) error {
	refs := p.References()
	for _, ref := range refs.Answers {
		order, ok := s.questionOrder[ref]
		if !ok {
			return invalid(id, "predicate references unknown question %q", ref)
		}
		if maxOrder >= 0 && order >= maxOrder {
			return invalid(id, "predicate references question %q which is not earlier in evaluation order", ref)
		}
	}
	for _, field := range refs.Profile {
		if !s.HasProfileField(field) {
			return invalid(id, "predicate references unknown profile field %q", field)
		}
	}
	return nil
}

func (s *Schema) validateGates() error {
	for i := range s.ProfileGates {
		g := &s.ProfileGates[i]
		if g.Result != GateResultNA {
			return invalid(gateID("profile_gate", g.Questions), "result must be %q", GateResultNA)
		}
		if g.Flag == "" {
			g.Flag = FlagNotApplicable
		}
		if err := s.validateGateTargets(g.Questions, g.Predicate, "profile_gate", false); err != nil {
			return err
		}
	}

	// One ask and at most one na rule per target question.
	askSeen := make(map[string]bool)
	naSeen := make(map[string]bool)
	for i := range s.SoftGates {
		g := &s.SoftGates[i]
		switch g.Result {
		case GateResultAsk:
		case GateResultNA:
			if g.Flag == "" {
				g.Flag = FlagFollowUp
			}
		default:
			return invalid(gateID("soft_gate", g.Questions), "result must be %q or %q", GateResultAsk, GateResultNA)
		}
		for _, target := range g.Questions {
			seen := askSeen
			if g.Result == GateResultNA {
				seen = naSeen
			}
			if seen[target] {
				return invalid(target, "multiple soft gate %q rules for one question", g.Result)
			}
			seen[target] = true
		}
		if err := s.validateGateTargets(g.Questions, g.Predicate, "soft_gate", true); err != nil {
			return err
		}
	}
	return nil
}

// validateGateTargets checks that gate targets exist and that the gate's
// predicate references resolve. Soft gates additionally require their
// answer references to come before every target question, mirroring the
// applies_if ordering rule.
func (s *Schema) validateGateTargets(targets []string, p *expr.Predicate, kind string, ordered bool) error {
	if len(targets) == 0 {
		return invalid(kind, "gate must list target questions")
	}
	for _, target := range targets {
		order, ok := s.questionOrder[target]
		if !ok {
			return invalid(gateID(kind, targets), "unknown question %q", target)
		}
		maxOrder := -1
		if ordered {
			maxOrder = order
		}
		if err := s.validateRefs(gateID(kind, targets), p, maxOrder); err != nil {
			return err
		}
	}
	return nil
}

// validateBands requires the bands to partition [0,100]: sorted, min<=max,
// starting at 0, ending at 100, each band starting at the previous max
// (shared boundary) or one past it (integer partition).
func (s *Schema) validateBands() error {
	if len(s.ScoreBands) == 0 {
		return invalid("", "score_bands must be set")
	}
	bands := make([]Band, len(s.ScoreBands))
	copy(bands, s.ScoreBands)
	sort.Slice(bands, func(i, j int) bool { return bands[i].Min < bands[j].Min })

	for _, b := range bands {
		if b.Label == "" {
			return invalid("", "score band label must be set")
		}
		if b.Min > b.Max {
			return invalid(b.Label, "band min exceeds max")
		}
	}
	if bands[0].Min != 0 {
		return invalid(bands[0].Label, "lowest band must start at 0")
	}
	if bands[len(bands)-1].Max != 100 {
		return invalid(bands[len(bands)-1].Label, "highest band must end at 100")
	}
	for i := 1; i < len(bands); i++ {
		gap := bands[i].Min - bands[i-1].Max
		if gap != 0 && gap != 1 {
			return invalid(bands[i].Label, "bands must cover [0,100] without gaps or overlap")
		}
	}
	return nil
}
