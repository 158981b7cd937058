package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTranslate_Operators verifies the lexical rewrite of the word
// combinators into CEL operators.
func TestTranslate_Operators(t *testing.T) {
	out, _, err := translate("answers['1.1'] == 'yes' and not (profile.pets.has_pets == true or answers['1.2'] == 'no')")
	require.NoError(t, err)
	assert.Equal(t, "answers['1.1'] == 'yes' && ! (profile.pets.has_pets == true || answers['1.2'] == 'no')", out)
}

// TestTranslate_QuotedLiteralsUntouched verifies that words inside string
// literals are copied verbatim even when they collide with keywords.
func TestTranslate_QuotedLiteralsUntouched(t *testing.T) {
	out, _, err := translate("answers['and.or.not'] == 'not_sure'")
	require.NoError(t, err)
	assert.Equal(t, "answers['and.or.not'] == 'not_sure'", out)
}

// TestTranslate_CollectsReferences verifies that answer and profile
// references are collected for load-time validation.
func TestTranslate_CollectsReferences(t *testing.T) {
	_, refs, err := translate("answers['2.1'] in ['yes','partial'] or profile.home.owns_real_property == true")
	require.NoError(t, err)
	assert.Equal(t, []string{"2.1"}, refs.Answers)
	assert.Equal(t, []string{"home.owns_real_property"}, refs.Profile)
}

// TestTranslate_Malformed verifies errors on broken references.
func TestTranslate_Malformed(t *testing.T) {
	cases := []string{
		"answers['1.1' == 'yes'",
		"answers[1] == 'yes'",
		"answers['' ] == 'yes'",
		"profile == true",
		"answers['1.1'] == 'yes",
	}
	for _, src := range cases {
		_, _, err := translate(src)
		assert.Error(t, err, src)
	}
}
