package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ValidationError reports a schema invariant violation found at load
// time. ID names the offending entity when one can be singled out. A
// schema that fails validation must not be used for any run.
type ValidationError struct {
	ID      string
	Message string
}

func (e *ValidationError) Error() string {
	if e.ID == "" {
		return "schema: " + e.Message
	}
	return fmt.Sprintf("schema: %s: %s", e.ID, e.Message)
}

func invalid(id, format string, args ...any) *ValidationError {
	return &ValidationError{ID: id, Message: fmt.Sprintf(format, args...)}
}

// Parse unmarshals a schema document (YAML or JSON, which YAML subsumes),
// compiles every predicate, and validates all invariants. The returned
// schema is ready for evaluation and must be treated as read-only.
func Parse(doc []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(doc, &s); err != nil {
		return nil, fmt.Errorf("schema: unmarshal: %w", err)
	}
	s.buildIndexes()
	if err := s.compile(); err != nil {
		return nil, err
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadFromFile reads and parses a schema document from disk.
func LoadFromFile(path string) (*Schema, error) {
	doc, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(doc)
}
