package query

import (
	"strings"
)

// enhanceName splits a full name into components and generates the
// variant forms used for fuzzy matching: original, spaces removed,
// reversed token order, lower case, upper case, plus phonetic codes.
func enhanceName(name string) (map[string]any, error) {
	derived := make(map[string]any)

	tokens := strings.Fields(name)
	if len(tokens) >= 2 {
		derived["first_name"] = tokens[0]
		derived["last_name"] = tokens[len(tokens)-1]
		if len(tokens) > 2 {
			middle := make([]string, len(tokens)-2)
			copy(middle, tokens[1:len(tokens)-1])
			derived["middle_names"] = middle
		}
	}

	reversed := make([]string, len(tokens))
	for i, tok := range tokens {
		reversed[len(tokens)-1-i] = tok
	}

	derived["name_variations"] = []string{
		name,
		strings.ReplaceAll(name, " ", ""),
		strings.Join(reversed, " "),
		strings.ToLower(name),
		strings.ToUpper(name),
	}

	phonetic := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if code := Soundex(tok); code != "" {
			phonetic = append(phonetic, code)
		}
	}
	if len(phonetic) > 0 {
		derived["phonetic_variations"] = phonetic
	}

	return derived, nil
}

// Soundex computes the classic four-character Soundex code for a word.
// Applied consistently on both query and candidate fields, any standard
// phonetic encoding works for matching; Soundex is the simplest.
func Soundex(word string) string {
	word = strings.ToUpper(strings.TrimSpace(word))

	// Strip non-letters
	var letters []byte
	for i := 0; i < len(word); i++ {
		c := word[i]
		if c >= 'A' && c <= 'Z' {
			letters = append(letters, c)
		}
	}
	if len(letters) == 0 {
		return ""
	}

	code := []byte{letters[0]}
	prev := soundexDigit(letters[0])

	for _, c := range letters[1:] {
		d := soundexDigit(c)
		if d == 0 {
			// H and W do not reset the previous code; vowels do.
			if c != 'H' && c != 'W' {
				prev = 0
			}
			continue
		}
		if d != prev {
			code = append(code, '0'+d)
			if len(code) == 4 {
				break
			}
		}
		prev = d
	}

	for len(code) < 4 {
		code = append(code, '0')
	}

	return string(code)
}

func soundexDigit(c byte) byte {
	switch c {
	case 'B', 'F', 'P', 'V':
		return 1
	case 'C', 'G', 'J', 'K', 'Q', 'S', 'X', 'Z':
		return 2
	case 'D', 'T':
		return 3
	case 'L':
		return 4
	case 'M', 'N':
		return 5
	case 'R':
		return 6
	default:
		return 0
	}
}
