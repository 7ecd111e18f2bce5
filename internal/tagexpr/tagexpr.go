// Package tagexpr parses +tag and +~tag tokens out of free text and matches
// the resulting expression against a record's tags.
package tagexpr

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var ErrMalformed = errors.New("malformed tag token")

// TokenError names the offending token. It satisfies errors.Is(err, ErrMalformed).
type TokenError struct {
	Token  string
	Reason string
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("malformed tag token %q: %s", e.Token, e.Reason)
}

func (e *TokenError) Is(target error) bool {
	return target == ErrMalformed
}

// Expr is a pair of required and excluded tag sets. The zero Expr matches everything.
type Expr struct {
	Required []string
	Excluded []string
}

func (e Expr) Empty() bool {
	return len(e.Required) == 0 && len(e.Excluded) == 0
}

// Match reports whether tags hold every required tag and no excluded one.
func (e Expr) Match(tags []string) bool {
	if e.Empty() {
		return true
	}
	have := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		have[t] = struct{}{}
	}
	for _, t := range e.Required {
		if _, ok := have[t]; !ok {
			return false
		}
	}
	for _, t := range e.Excluded {
		if _, ok := have[t]; ok {
			return false
		}
	}
	return true
}

// String renders the expression in its token syntax.
func (e Expr) String() string {
	parts := make([]string, 0, len(e.Required)+len(e.Excluded))
	for _, t := range e.Required {
		parts = append(parts, "+"+t)
	}
	for _, t := range e.Excluded {
		parts = append(parts, "+~"+t)
	}
	return strings.Join(parts, " ")
}

// Parse strips tag tokens from text. It returns the remaining words joined
// by single spaces and the expression the tokens describe.
func Parse(text string) (string, Expr, error) {
	var (
		rest []string
		expr Expr
		seen = map[string]bool{}
	)
	for _, word := range strings.Fields(text) {
		if !strings.HasPrefix(word, "+") {
			rest = append(rest, word)
			continue
		}
		name, negated, err := parseToken(word)
		if err != nil {
			return "", Expr{}, err
		}
		key := name
		if negated {
			key = "~" + name
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		if negated {
			expr.Excluded = append(expr.Excluded, name)
		} else {
			expr.Required = append(expr.Required, name)
		}
	}
	return strings.Join(rest, " "), expr, nil
}

func parseToken(word string) (string, bool, error) {
	name := strings.TrimPrefix(word, "+")
	negated := strings.HasPrefix(name, "~")
	if negated {
		name = strings.TrimPrefix(name, "~")
	}
	if name == "" {
		return "", false, &TokenError{Token: word, Reason: "empty tag name"}
	}
	for _, r := range name {
		if r == '+' || r == '~' || unicode.IsSpace(r) || unicode.IsControl(r) {
			return "", false, &TokenError{Token: word, Reason: fmt.Sprintf("invalid character %q", r)}
		}
	}
	return name, negated, nil
}
