package index

import (
	"fmt"
	"strings"
	"unicode"
)

// MatchMode decides how the terms of a query are combined.
type MatchMode string

const (
	// MatchAny ranks fragments containing any query term.
	MatchAny MatchMode = "any"
	// MatchAll requires every query term.
	MatchAll MatchMode = "all"
)

// ParseMatchMode validates a configured match mode.
func ParseMatchMode(s string) (MatchMode, error) {
	switch MatchMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", MatchAny:
		return MatchAny, nil
	case MatchAll:
		return MatchAll, nil
	default:
		return "", fmt.Errorf("unknown match mode %q (want %q or %q)", s, MatchAny, MatchAll)
	}
}

// maxTerms bounds the size of the generated expression.
const maxTerms = 64

// MatchExpression turns raw user text into an FTS5 expression in which every
// term is a quoted string literal. Operators, quotes, parentheses and column
// filters in the input are never interpreted. Returns "" when the text has no
// searchable term.
func MatchExpression(query string, mode MatchMode) string {
	terms := literalTerms(query)
	if len(terms) == 0 {
		return ""
	}
	sep := " OR "
	if mode == MatchAll {
		sep = " "
	}
	return strings.Join(terms, sep)
}

func literalTerms(query string) []string {
	query = strings.ToValidUTF8(query, "")
	fields := strings.FieldsFunc(query, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r)
	})

	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if !hasWordRune(f) {
			continue
		}
		terms = append(terms, `"`+strings.ReplaceAll(f, `"`, `""`)+`"`)
		if len(terms) == maxTerms {
			break
		}
	}
	return terms
}

// hasWordRune reports whether the tokenizer would see at least one token in s.
func hasWordRune(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			return true
		}
	}
	return false
}
