package engine

import (
	"readiness/internal/expr"
	"readiness/internal/schema"
)

// Status is the final per-question visibility decision for one pass.
type Status string

const (
	// StatusHidden means applies_if is definitively false for a regular
	// question: not asked this round, no score, no flag.
	StatusHidden Status = "hidden"
	// StatusNASystem means the engine marked the question not applicable
	// without user input; excluded from scoring but recorded with a flag.
	StatusNASystem Status = "na_system"
	// StatusPending means a prerequisite is unanswered; the question must
	// not be shown yet and must not be treated as NA.
	StatusPending Status = "pending"
	// StatusActive means the question is shown if unanswered and scored
	// if answered.
	StatusActive Status = "active"
)

// resolveStatus merges a question's applies_if result with its gate
// outcome. A forced NA from a gate is authoritative. For system_na
// questions a false condition auto-resolves to na_system rather than
// hidden, since the NA itself is the derived answer.
func resolveStatus(q *schema.Question, appliesIf expr.Tristate, gate GateOutcome) (Status, schema.Flag) {
	if gate.Kind == GateForcedNA {
		flag := gate.Flag
		if flag == "" {
			flag = schema.FlagNotApplicable
		}
		return StatusNASystem, flag
	}

	switch appliesIf {
	case expr.False:
		if q.SystemNA {
			return StatusNASystem, schema.FlagFollowUp
		}
		return StatusHidden, ""
	case expr.Indeterminate:
		return StatusPending, ""
	}

	if gate.Kind == GatePending {
		return StatusPending, ""
	}
	return StatusActive, ""
}
