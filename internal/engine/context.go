package engine

import "readiness/internal/schema"

// AnswerSet maps question id to the stored answer token. It is built
// incrementally by the caller; the engine only ever reads a snapshot.
type AnswerSet map[string]schema.Token

// Clone returns an independent copy of the answer set.
func (a AnswerSet) Clone() AnswerSet {
	out := make(AnswerSet, len(a))
	for id, token := range a {
		out[id] = token
	}
	return out
}

// ProfileFacts maps a dotted profile field to its boolean fact. Facts are
// collected once, early, and read-only afterwards.
type ProfileFacts map[string]bool

// Clone returns an independent copy of the profile facts.
func (p ProfileFacts) Clone() ProfileFacts {
	out := make(ProfileFacts, len(p))
	for field, value := range p {
		out[field] = value
	}
	return out
}
