package engine

import (
	"readiness/internal/expr"
	"readiness/internal/schema"
)

// GateKind is the gate resolver's verdict for one question.
type GateKind int8

const (
	// GateAsk means the question may be presented (subject to applies_if).
	GateAsk GateKind = iota
	// GateForcedNA means a gate definitively excluded the question.
	GateForcedNA
	// GatePending means a gate's predicate is still indeterminate; the
	// question must be neither shown nor marked NA yet.
	GatePending
)

// GateOutcome carries the verdict plus the flag to record on a forced NA.
type GateOutcome struct {
	Kind GateKind
	Flag schema.Flag
}

// resolveGates evaluates every gate fresh against the current context and
// returns an outcome per gated question; ungated questions default to ask.
//
// Soft gates resolve first: the ask rule wins when true, otherwise a true
// na rule forces NA, otherwise the question is pending. Profile gates are
// applied last as unconditional overrides: a firing profile gate beats
// any soft-gate verdict, and a profile gate whose predicate is still
// indeterminate downgrades anything short of a forced NA to pending, so a
// question is never shown while its profile prerequisite is unknown.
func resolveGates(s *schema.Schema, ctx expr.Context) map[string]GateOutcome {
	outcomes := make(map[string]GateOutcome)

	type pair struct {
		ask *schema.SoftGate
		na  *schema.SoftGate
	}
	pairs := make(map[string]*pair)
	for i := range s.SoftGates {
		g := &s.SoftGates[i]
		for _, target := range g.Questions {
			p := pairs[target]
			if p == nil {
				p = &pair{}
				pairs[target] = p
			}
			if g.Result == schema.GateResultAsk {
				p.ask = g
			} else {
				p.na = g
			}
		}
	}

	for target, p := range pairs {
		switch {
		case p.ask != nil && p.ask.Predicate.Eval(ctx) == expr.True:
			outcomes[target] = GateOutcome{Kind: GateAsk}
		case p.na != nil && p.na.Predicate.Eval(ctx) == expr.True:
			outcomes[target] = GateOutcome{Kind: GateForcedNA, Flag: p.na.Flag}
		default:
			outcomes[target] = GateOutcome{Kind: GatePending}
		}
	}

	for i := range s.ProfileGates {
		g := &s.ProfileGates[i]
		switch g.Predicate.Eval(ctx) {
		case expr.True:
			for _, target := range g.Questions {
				outcomes[target] = GateOutcome{Kind: GateForcedNA, Flag: g.Flag}
			}
		case expr.Indeterminate:
			for _, target := range g.Questions {
				if outcomes[target].Kind != GateForcedNA {
					outcomes[target] = GateOutcome{Kind: GatePending}
				}
			}
		}
	}

	return outcomes
}
