package assembler

import (
	"slices"
	"strconv"
	"strings"
	"unicode"
)

// LexLine splits a source line into an optional label and its argument tokens.
//
// Comments start at '#'. Commas, whitespace and parentheses separate tokens,
// so "lw a0, 4(sp)" yields "lw", "a0", "4", "sp". Quoted strings, character
// literals, $(...) expressions and %op(...) relocation operators are each
// kept as a single token.
func LexLine(line string) (label string, args []string, err error) {
	runes := []rune(line)

	var token []rune
	flush := func() {
		if len(token) > 0 {
			args = append(args, string(token))
			token = token[:0]
		}
	}

	for n := 0; n < len(runes); n++ {
		c := runes[n]
		switch {
		case c == '#':
			n = len(runes)
		case c == '"' || c == '\'':
			end := closingQuote(runes, n)
			if end < 0 {
				err = ErrLexUnterminated
				return
			}
			token = append(token, runes[n:end+1]...)
			n = end
		case (c == '$' || c == '%') && len(token) == 0 && opensGroup(runes, n):
			end := closingParen(runes, n)
			if end < 0 {
				err = ErrLexUnterminated
				return
			}
			token = append(token, runes[n:end+1]...)
			n = end
		case unicode.IsSpace(c) || c == ',' || c == '(' || c == ')':
			flush()
		default:
			token = append(token, c)
		}
	}
	flush()

	if len(args) > 0 && strings.HasSuffix(args[0], ":") {
		label = strings.TrimSuffix(args[0], ":")
		if !isSymbolName(label) {
			err = ErrLabelInvalid
			return
		}
		args = args[1:]
		if len(args) == 0 {
			args = nil
		}
	}

	return
}

// LexAsciiz extracts the first quoted string literal from a line. A string
// after the start of a comment does not count.
func LexAsciiz(line string) (str string, ok bool) {
	runes := []rune(line)
	start := slices.IndexFunc(runes, func(c rune) bool { return c == '"' || c == '#' })
	if start < 0 || runes[start] == '#' {
		return
	}

	end := closingQuote(runes, start)
	if end < 0 {
		return
	}

	str, err := strconv.Unquote(string(runes[start : end+1]))
	if err != nil {
		return
	}

	return str, true
}

// hasBaseOperand reports if the line has an offset(base) memory operand,
// as opposed to a $(...) or %op(...) group.
func hasBaseOperand(line string) bool {
	runes := []rune(line)
	for n := 0; n < len(runes); n++ {
		switch c := runes[n]; {
		case c == '#':
			return false
		case c == '"' || c == '\'':
			end := closingQuote(runes, n)
			if end < 0 {
				return false
			}
			n = end
		case (c == '$' || c == '%') && opensGroup(runes, n):
			end := closingParen(runes, n)
			if end < 0 {
				return false
			}
			n = end
		case c == '(':
			return true
		}
	}
	return false
}

// closingQuote finds the matching quote for runes[start], honoring escapes.
func closingQuote(runes []rune, start int) int {
	quote := runes[start]
	for n := start + 1; n < len(runes); n++ {
		switch runes[n] {
		case '\\':
			n++
		case quote:
			return n
		}
	}
	return -1
}

// opensGroup reports if runes[start] begins a "$(" or "%name(" group.
func opensGroup(runes []rune, start int) bool {
	n := start + 1
	if runes[start] == '%' {
		for n < len(runes) && (unicode.IsLetter(runes[n]) || runes[n] == '_') {
			n++
		}
	}
	return n < len(runes) && runes[n] == '('
}

// closingParen finds the parenthesis closing the group opened at or after start.
func closingParen(runes []rune, start int) int {
	depth := 0
	for n := start; n < len(runes); n++ {
		switch runes[n] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return n
			}
		case '"', '\'':
			end := closingQuote(runes, n)
			if end < 0 {
				return -1
			}
			n = end
		}
	}
	return -1
}

// isSymbolName reports if word can name a label.
func isSymbolName(word string) bool {
	if len(word) == 0 {
		return false
	}
	for n, c := range word {
		switch {
		case c == '_' || c == '.' || c == '$':
		case unicode.IsLetter(c):
		case unicode.IsDigit(c) && n > 0:
		default:
			return false
		}
	}
	return true
}
