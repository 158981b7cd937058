package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testDoc is a small but complete schema document exercising every
// construct: two dimensions, a profile gate, an ask/na soft gate pair, and
// conditional system_na questions.
const testDoc = `
assessment_id: test_v1
version: v1
dimensions:
  - { id: D1, label: First }
  - { id: D2, label: Second }
sections:
  - { id: s1, label: Section One, dimension: D1, weight: 2 }
  - { id: s2, label: Section Two, dimension: D2, weight: 1 }
profile_questions:
  - id: profile.pets.has_pets
    field: pets.has_pets
    prompt: Do you have pets?
    type: single_select
    options:
      - { value: "yes", label: "Yes" }
      - { value: "no", label: "No" }
    value_map: { "yes": true, "no": false }
profile_gates:
  - when: profile.pets.has_pets == false
    questions: [q3]
    result: na
soft_gates:
  - when: "answers['q1'] in ['yes','partial']"
    questions: [q2]
    result: ask
  - when: "answers['q1'] in ['no','not_sure']"
    questions: [q2]
    result: na
answer_scoring: { "yes": 1.0, partial: 0.5, "no": 0.0, not_sure: 0.25, na: null }
flags:
  review_on: [not_sure]
  follow_up_on: [na]
  risk_on: []
score_bands:
  - { min: 60, max: 100, label: High }
  - { min: 0, max: 59, label: Low }
questions:
  - id: q1
    item_id: test.q1
    section_id: s1
    weight: 1
    prompt: First?
    type: single_select
    options:
      - { value: "yes", label: "Yes" }
      - { value: partial, label: Partially }
      - { value: "no", label: "No" }
      - { value: not_sure, label: Not sure }
    applies_if: always
  - id: q2
    item_id: test.q2
    section_id: s1
    weight: 2
    prompt: Second?
    type: single_select
    options:
      - { value: "yes", label: "Yes" }
      - { value: "no", label: "No" }
      - { value: na, label: Not applicable }
    applies_if: "answers['q1'] in ['yes','partial']"
    system_na: true
  - id: q3
    item_id: test.q3
    section_id: s2
    weight: 1
    prompt: Pet plan?
    type: single_select
    options:
      - { value: "yes", label: "Yes" }
      - { value: inverted, label: Inverted, score_value: "no" }
      - { value: not_sure, label: Not sure }
    applies_if: profile.pets.has_pets == true
    system_na: true
  - id: q4
    item_id: test.q4
    section_id: s2
    weight: 1
    prompt: Fourth?
    type: single_select
    options:
      - { value: "yes", label: "Yes" }
      - { value: "no", label: "No" }
    applies_if: always
`

// mutate returns the test document with one exact substring replaced,
// failing the test if the needle is absent.
func mutate(t *testing.T, old, new string) []byte {
	t.Helper()
	require.Contains(t, testDoc, old)
	return []byte(strings.Replace(testDoc, old, new, 1))
}

// TestParse_ValidDocument verifies that a well-formed document parses,
// compiles, and indexes.
func TestParse_ValidDocument(t *testing.T) {
	s, err := Parse([]byte(testDoc))
	require.NoError(t, err)

	assert.Equal(t, "test_v1", s.AssessmentID)
	assert.Equal(t, "v1", s.Version)
	assert.Len(t, s.Questions, 4)

	q2, ok := s.Question("q2")
	require.True(t, ok)
	assert.NotNil(t, q2.Predicate, "predicates should be compiled")
	assert.True(t, q2.SystemNA)
	assert.Equal(t, "D1", q2.Dimension, "dimension should be derived from the section")

	order, ok := s.QuestionOrder("q3")
	require.True(t, ok)
	assert.Equal(t, 2, order)

	assert.True(t, s.HasProfileField("pets.has_pets"))
	assert.False(t, s.HasProfileField("pets.unknown"))

	sec, ok := s.Section("s1")
	require.True(t, ok)
	assert.Equal(t, 2.0, sec.Weight)
}

// TestParse_GateDefaults verifies the default flags assigned during
// validation: not_applicable for profile gates, follow_up for na soft
// gates.
func TestParse_GateDefaults(t *testing.T) {
	s, err := Parse([]byte(testDoc))
	require.NoError(t, err)

	require.Len(t, s.ProfileGates, 1)
	assert.Equal(t, FlagNotApplicable, s.ProfileGates[0].Flag)

	for _, g := range s.SoftGates {
		if g.Result == GateResultNA {
			assert.Equal(t, FlagFollowUp, g.Flag)
		}
	}
}

// TestParse_ScoreValueIndirection verifies that an option scoring under
// another token resolves through answer_scoring.
func TestParse_ScoreValueIndirection(t *testing.T) {
	s, err := Parse([]byte(testDoc))
	require.NoError(t, err)

	q3, ok := s.Question("q3")
	require.True(t, ok)
	opt, ok := q3.Option("inverted")
	require.True(t, ok)
	assert.Equal(t, TokenNo, opt.ScoreToken())

	plain, ok := q3.Option("yes")
	require.True(t, ok)
	assert.Equal(t, TokenYes, plain.ScoreToken())
}

// TestParse_StructuralErrors verifies rejection of broken documents. Each
// case mutates one aspect of the valid document.
func TestParse_StructuralErrors(t *testing.T) {
	cases := []struct {
		name string
		doc  []byte
	}{
		{"missing assessment id", mutate(t, "assessment_id: test_v1", "assessment_id: ''")},
		{"duplicate dimension", mutate(t, "{ id: D2, label: Second }", "{ id: D1, label: Second }")},
		{"section with unknown dimension", mutate(t, "dimension: D2, weight: 1", "dimension: D9, weight: 1")},
		{"duplicate question id", mutate(t, "id: q4", "id: q1")},
		{"question in unknown section", mutate(t, "section_id: s2\n    weight: 1\n    prompt: Fourth?", "section_id: s9\n    weight: 1\n    prompt: Fourth?")},
		{"non-positive question weight", mutate(t, "weight: 2\n    prompt: Second?", "weight: 0\n    prompt: Second?")},
		{"duplicate option value", mutate(t, `{ value: partial, label: Partially }`, `{ value: "yes", label: Partially }`)},
		{"score token missing from scoring", mutate(t, `score_value: "no"`, `score_value: never`)},
		{"score out of range", mutate(t, `partial: 0.5`, `partial: 1.5`)},
		{"malformed predicate", mutate(t, "applies_if: always\n  - id: q2", "applies_if: \"answers['q1'] ==\"\n  - id: q2")},
	}
	for _, tc := range cases {
		_, err := Parse(tc.doc)
		assert.Error(t, err, tc.name)
	}
}

// TestParse_ReferenceErrors verifies that dangling, forward, and self
// references in predicates are rejected at load time.
func TestParse_ReferenceErrors(t *testing.T) {
	cases := []struct {
		name string
		doc  []byte
	}{
		{"dangling answer reference", mutate(t, `applies_if: "answers['q1'] in ['yes','partial']"`, `applies_if: "answers['q9'] == 'yes'"`)},
		{"forward answer reference", mutate(t, `applies_if: "answers['q1'] in ['yes','partial']"`, `applies_if: "answers['q3'] == 'yes'"`)},
		{"self reference", mutate(t, `applies_if: "answers['q1'] in ['yes','partial']"`, `applies_if: "answers['q2'] == 'yes'"`)},
		{"unknown profile field", mutate(t, "applies_if: profile.pets.has_pets == true", "applies_if: profile.pets.count == true")},
		{"soft gate forward reference", mutate(t, `when: "answers['q1'] in ['yes','partial']"`, `when: "answers['q4'] == 'yes'"`)},
	}
	for _, tc := range cases {
		_, err := Parse(tc.doc)
		assert.Error(t, err, tc.name)
	}
}

// TestParse_GateErrors verifies gate declaration invariants.
func TestParse_GateErrors(t *testing.T) {
	cases := []struct {
		name string
		doc  []byte
	}{
		{"profile gate must force na", mutate(t, "questions: [q3]\n    result: na", "questions: [q3]\n    result: ask")},
		{"gate targeting unknown question", mutate(t, "questions: [q3]", "questions: [q9]")},
		{"duplicate ask rule", mutate(t, "questions: [q2]\n    result: na", "questions: [q2]\n    result: ask")},
	}
	for _, tc := range cases {
		_, err := Parse(tc.doc)
		assert.Error(t, err, tc.name)
	}
}

// TestParse_BandErrors verifies that the bands must partition [0,100].
func TestParse_BandErrors(t *testing.T) {
	cases := []struct {
		name string
		doc  []byte
	}{
		{"gap between bands", mutate(t, "{ min: 0, max: 59, label: Low }", "{ min: 0, max: 49, label: Low }")},
		{"overlap between bands", mutate(t, "{ min: 0, max: 59, label: Low }", "{ min: 0, max: 70, label: Low }")},
		{"not starting at 0", mutate(t, "{ min: 0, max: 59, label: Low }", "{ min: 10, max: 59, label: Low }")},
		{"not ending at 100", mutate(t, "{ min: 60, max: 100, label: High }", "{ min: 60, max: 90, label: High }")},
		{"unlabeled band", mutate(t, "label: Low }", "label: '' }")},
		{"min above max", mutate(t, "{ min: 60, max: 100, label: High }", "{ min: 101, max: 100, label: High }")},
	}
	for _, tc := range cases {
		_, err := Parse(tc.doc)
		assert.Error(t, err, tc.name)
	}
}

// TestLoadFromFile_BundledSchema verifies that the schema document shipped
// with the application passes full validation.
func TestLoadFromFile_BundledSchema(t *testing.T) {
	s, err := LoadFromFile("../../schema/readiness_v1.yaml")
	require.NoError(t, err)

	assert.Equal(t, "readiness_v1", s.AssessmentID)
	assert.Len(t, s.Dimensions, 11)
	assert.Len(t, s.Sections, 11)
	assert.NotEmpty(t, s.Questions)
	assert.NotEmpty(t, s.ProfileGates)
	assert.NotEmpty(t, s.SoftGates)
}
