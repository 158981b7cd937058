// Package engine evaluates one assessment run: it resolves gates and
// applicability for every question, scores answered active questions,
// and aggregates weighted section, dimension, and overall readiness
// scores into a run report.
package engine

import (
	"log/slog"

	"readiness/internal/expr"
	"readiness/internal/schema"
)

// Engine evaluates runs against one validated schema version. It holds no
// per-run state: Evaluate is a pure function of (schema, answers,
// profile), so one Engine serves any number of concurrent runs.
type Engine struct {
	schema *schema.Schema
}

// New creates an engine for a schema that has already passed validation.
func New(s *schema.Schema) *Engine {
	return &Engine{schema: s}
}

// Schema returns the schema version this engine evaluates against.
func (e *Engine) Schema() *schema.Schema { return e.schema }

// Evaluate performs one full synchronous pass and returns a fresh report.
// It is safely re-entrant: calling it again after more answers arrive
// recomputes everything from the new snapshot.
//
// Per-question problems never abort the pass. An answer naming an
// unknown question is logged and ignored; an answer naming no option of
// its question is logged, flagged invalid_answer, and treated as
// unanswered.
func (e *Engine) Evaluate(answers AnswerSet, profile ProfileFacts) *Report {
	s := e.schema

	effective := make(map[string]string, len(answers))
	invalid := make(map[string]bool)
	for id, token := range answers {
		q, ok := s.Question(id)
		if !ok {
			slog.Warn("answer for unknown question", "assessment", s.AssessmentID, "question", id)
			continue
		}
		if _, ok := q.Option(string(token)); !ok {
			slog.Warn("unknown answer token", "assessment", s.AssessmentID, "question", id, "token", token)
			invalid[id] = true
			continue
		}
		effective[id] = string(token)
	}

	ctx := expr.Context{Answers: effective, Profile: profile}
	gates := resolveGates(s, ctx)

	accums := make(map[string]*sectionAccum, len(s.Sections))
	for _, sec := range s.Sections {
		accums[sec.ID] = &sectionAccum{}
	}

	results := make([]QuestionResult, 0, len(s.Questions))
	pending := make([]string, 0)
	flagsSummary := make(map[schema.Flag]int)
	var activeTotal, activeAnswered int

	for _, q := range s.Questions {
		status, naFlag := resolveStatus(q, q.Predicate.Eval(ctx), gates[q.ID])
		res := QuestionResult{ID: q.ID, Status: status}
		acc := accums[q.SectionID]

		switch status {
		case StatusActive:
			acc.total++
			activeTotal++
			if raw, ok := effective[q.ID]; ok {
				res.Answer = schema.Token(raw)
				acc.answered++
				activeAnswered++
				opt, _ := q.Option(raw)
				scoreToken := opt.ScoreToken()
				if entry := s.AnswerScoring[scoreToken]; entry != nil {
					value := *entry
					res.Score = &value
					acc.add(q.Weight, value)
				}
				if s.Flags.Review(scoreToken) {
					res.Flags = append(res.Flags, schema.FlagReview)
					acc.review++
				}
				if s.Flags.FollowUp(scoreToken) {
					res.Flags = append(res.Flags, schema.FlagFollowUp)
				}
				if s.Flags.Risk(scoreToken) {
					res.Flags = append(res.Flags, schema.FlagRisk)
				}
			} else {
				if invalid[q.ID] {
					res.Flags = append(res.Flags, schema.FlagInvalidAnswer)
				}
				// Active but unanswered: the run is not fully resolved.
				pending = append(pending, q.ID)
			}
		case StatusNASystem:
			res.Answer = schema.TokenNA
			res.Flags = append(res.Flags, naFlag)
		case StatusPending:
			pending = append(pending, q.ID)
		}

		for _, f := range res.Flags {
			flagsSummary[f]++
		}
		results = append(results, res)
	}

	sections, dimensions, overall := aggregate(s, accums)

	var progress float64
	if activeTotal > 0 {
		progress = roundScore(float64(activeAnswered) / float64(activeTotal) * 100)
	}

	return &Report{
		AssessmentID:       s.AssessmentID,
		Version:            s.Version,
		Questions:          results,
		Sections:           sections,
		Dimensions:         dimensions,
		OverallScore:       overall,
		Band:               bandFor(s.ScoreBands, overall),
		Progress:           progress,
		PendingQuestionIDs: pending,
		FlagsSummary:       flagsSummary,
	}
}
