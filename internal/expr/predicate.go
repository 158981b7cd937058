// Package expr compiles the schema's conditional predicates into CEL
// programs and evaluates them with three-valued semantics over partial
// answer and profile contexts.
package expr

import (
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"
)

// Always is the constant-true predicate used by questions without a
// condition of their own.
const Always = "always"

// Context carries the variables visible to a predicate during one
// evaluation pass. Only answered questions and set profile facts are
// present; a reference to a missing entry yields Indeterminate.
type Context struct {
	// Answers maps question id to the stored answer token.
	Answers map[string]string
	// Profile maps a dotted profile field (e.g. "pets.has_pets") to its
	// boolean fact.
	Profile map[string]bool
}

// Predicate is a schema condition compiled once at load time. The zero
// program (the "always" literal) evaluates to True without touching CEL.
type Predicate struct {
	source  string
	refs    Refs
	program cel.Program
}

// Compile translates the predicate source into CEL, checks it against the
// fixed answers/profile environment, and builds the executable program.
// Any syntax error, type error, or non-boolean result type is reported
// here so that evaluation can never fail on malformed input.
func Compile(source string) (*Predicate, error) {
	trimmed := strings.TrimSpace(source)
	if trimmed == "" || trimmed == Always {
		return &Predicate{source: Always}, nil
	}

	translated, refs, err := translate(trimmed)
	if err != nil {
		return nil, fmt.Errorf("predicate %q: %w", source, err)
	}

	env, err := newEnv()
	if err != nil {
		return nil, err
	}
	ast, iss := env.Parse(translated)
	if iss.Err() != nil {
		return nil, fmt.Errorf("predicate %q: %w", source, iss.Err())
	}
	checked, iss := env.Check(ast)
	if iss.Err() != nil {
		return nil, fmt.Errorf("predicate %q: %w", source, iss.Err())
	}
	if !checked.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("predicate %q: must evaluate to a boolean, got %s", source, checked.OutputType())
	}
	program, err := env.Program(checked)
	if err != nil {
		return nil, fmt.Errorf("predicate %q: %w", source, err)
	}

	return &Predicate{source: source, refs: refs, program: program}, nil
}

// MustCompile is Compile for statically known predicates in tests.
func MustCompile(source string) *Predicate {
	p, err := Compile(source)
	if err != nil {
		panic(err)
	}
	return p
}

// Eval runs the compiled predicate against the given context.
//
// The three-valued semantics ride on CEL's absorbing logical operators: a
// lookup of an unanswered question or unset profile fact is a CEL
// evaluation error, "false && error" is false, "true || error" is true,
// and any error that survives the combinators surfaces here and is mapped
// to Indeterminate. Evaluation itself never fails the run.
func (p *Predicate) Eval(ctx Context) Tristate {
	if p.program == nil {
		return True
	}

	answers := ctx.Answers
	if answers == nil {
		answers = map[string]string{}
	}
	out, _, err := p.program.Eval(map[string]any{
		"answers": answers,
		"profile": nestProfile(ctx.Profile),
	})
	if err != nil {
		return Indeterminate
	}
	b, ok := out.Value().(bool)
	if !ok {
		return Indeterminate
	}
	if b {
		return True
	}
	return False
}

// Source returns the original predicate text as authored in the schema.
func (p *Predicate) Source() string { return p.source }

// References returns the variables the predicate reads, for load-time
// validation of dangling and forward references.
func (p *Predicate) References() Refs { return p.refs }

// IsAlways reports whether the predicate is the constant-true literal.
func (p *Predicate) IsAlways() bool { return p.program == nil }

func newEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("answers", cel.MapType(cel.StringType, cel.StringType)),
		cel.Variable("profile", cel.MapType(cel.StringType, cel.DynType)),
	)
}

// nestProfile expands dotted profile fields into nested maps so that the
// select syntax profile.pets.has_pets resolves naturally in CEL.
func nestProfile(profile map[string]bool) map[string]any {
	root := make(map[string]any, len(profile))
	for field, value := range profile {
		segs := strings.Split(field, ".")
		node := root
		for _, seg := range segs[:len(segs)-1] {
			child, ok := node[seg].(map[string]any)
			if !ok {
				child = make(map[string]any)
				node[seg] = child
			}
			node = child
		}
		node[segs[len(segs)-1]] = value
	}
	return root
}
