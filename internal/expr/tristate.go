package expr

// Tristate is the result of evaluating a predicate over a partially
// answered assessment. Indeterminate means the predicate touched at least
// one unanswered question or unset profile fact and its outcome could not
// be decided either way.
type Tristate int8

const (
	False Tristate = iota
	True
	Indeterminate
)

// String returns a readable name for logging.
func (t Tristate) String() string {
	switch t {
	case False:
		return "false"
	case True:
		return "true"
	default:
		return "indeterminate"
	}
}
