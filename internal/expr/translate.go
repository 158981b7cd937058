package expr

import (
	"fmt"
	"strings"
)

// Refs lists the variables a predicate reads: answered question ids via
// answers['id'] and profile facts via profile.group.field.
type Refs struct {
	Answers []string
	Profile []string
}

// translate rewrites a schema predicate into CEL syntax and collects its
// variable references. The schema grammar is CEL except for the word
// combinators, so the rewrite is purely lexical: "and" becomes "&&", "or"
// becomes "||", "not" becomes "!". Quoted literals are copied verbatim so
// tokens like 'not_sure' are never touched.
func translate(src string) (string, Refs, error) {
	var out strings.Builder
	var refs Refs

	i, n := 0, len(src)
	for i < n {
		c := src[i]
		switch {
		case c == '\'':
			j := i + 1
			for j < n && src[j] != '\'' {
				j++
			}
			if j >= n {
				return "", refs, fmt.Errorf("unterminated string literal")
			}
			out.WriteString(src[i : j+1])
			i = j + 1

		case isIdentStart(c):
			j := i
			for j < n && isIdentPart(src[j]) {
				j++
			}
			word := src[i:j]
			switch word {
			case "and":
				out.WriteString("&&")
			case "or":
				out.WriteString("||")
			case "not":
				out.WriteString("!")
			case "answers":
				id, consumed, err := scanAnswerIndex(src[j:])
				if err != nil {
					return "", refs, err
				}
				refs.Answers = append(refs.Answers, id)
				out.WriteString(src[i : j+consumed])
				j += consumed
			case "profile":
				field, consumed, err := scanProfilePath(src[j:])
				if err != nil {
					return "", refs, err
				}
				refs.Profile = append(refs.Profile, field)
				out.WriteString(src[i : j+consumed])
				j += consumed
			default:
				out.WriteString(word)
			}
			i = j

		default:
			out.WriteByte(c)
			i++
		}
	}
	return out.String(), refs, nil
}

// scanAnswerIndex consumes ['<id>'] following the answers keyword and
// returns the referenced question id and the number of bytes consumed.
func scanAnswerIndex(src string) (string, int, error) {
	i := skipSpaces(src, 0)
	if i >= len(src) || src[i] != '[' {
		return "", 0, fmt.Errorf("answers must be indexed with ['question_id']")
	}
	i = skipSpaces(src, i+1)
	if i >= len(src) || src[i] != '\'' {
		return "", 0, fmt.Errorf("answers index must be a quoted question id")
	}
	j := i + 1
	for j < len(src) && src[j] != '\'' {
		j++
	}
	if j >= len(src) {
		return "", 0, fmt.Errorf("unterminated answers index")
	}
	id := src[i+1 : j]
	j = skipSpaces(src, j+1)
	if j >= len(src) || src[j] != ']' {
		return "", 0, fmt.Errorf("unterminated answers index")
	}
	if id == "" {
		return "", 0, fmt.Errorf("empty answers index")
	}
	return id, j + 1, nil
}

// scanProfilePath consumes .seg(.seg)* following the profile keyword and
// returns the dotted field name and the number of bytes consumed.
func scanProfilePath(src string) (string, int, error) {
	var segs []string
	i := 0
	for i < len(src) && src[i] == '.' {
		i++
		start := i
		for i < len(src) && isIdentPart(src[i]) {
			i++
		}
		if start == i {
			return "", 0, fmt.Errorf("malformed profile reference")
		}
		segs = append(segs, src[start:i])
	}
	if len(segs) == 0 {
		return "", 0, fmt.Errorf("profile must be read as profile.field")
	}
	return strings.Join(segs, "."), i, nil
}

func skipSpaces(src string, i int) int {
	for i < len(src) && (src[i] == ' ' || src[i] == '\t' || src[i] == '\n' || src[i] == '\r') {
		i++
	}
	return i
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
