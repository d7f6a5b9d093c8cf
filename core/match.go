package core

import (
	"regexp"
	"strings"

	"github.com/truora/miniql/condition"
	"github.com/truora/miniql/query"
	"github.com/truora/miniql/types"
)

// matcher evaluates one condition over rows, LIKE patterns are compiled once
type matcher struct {
	cond     *condition.Condition
	patterns map[string]*regexp.Regexp
}

// newMatcher prepares cond before any row is read, a LIKE pattern that is not
// a string is rejected here. A nil condition matches every row.
func newMatcher(cond *condition.Condition) (*matcher, error) {
	m := &matcher{cond: cond, patterns: map[string]*regexp.Regexp{}}

	if cond == nil {
		return m, nil
	}

	var err error

	cond.Walk(func(c condition.Condition) {
		if err != nil || c.Operator() != condition.LIKE {
			return
		}

		p, ok := c.Value().Text()
		if !ok {
			err = types.NewInvalidArgumentError("LIKE expects a string pattern, got %s", c.Value())
			return
		}

		if _, ok := m.patterns[p]; !ok {
			m.patterns[p] = regexp.MustCompile(likeToRegexp(p))
		}
	})

	return m, err
}

func (m *matcher) match(row types.Value) (bool, error) {
	if m.cond == nil {
		return true, nil
	}

	return m.eval(row, *m.cond)
}

//gocyclo:ignore
func (m *matcher) eval(row types.Value, c condition.Condition) (bool, error) {
	switch c.Operator() {
	case condition.AND:
		for _, child := range c.Children() {
			ok, err := m.eval(row, child)
			if err != nil || !ok {
				return false, err
			}
		}

		return true, nil
	case condition.OR:
		for _, child := range c.Children() {
			ok, err := m.eval(row, child)
			if err != nil {
				return false, err
			}

			if ok {
				return true, nil
			}
		}

		return false, nil
	case condition.NOT:
		ok, err := m.eval(row, c.Children()[0])

		return !ok, err
	}

	actual, found := query.Lookup(row, c.Field())
	if !found {
		return false, nil
	}

	expected := c.Value()

	switch c.Operator() {
	case condition.EQ:
		return types.Equal(actual, expected), nil
	case condition.GT:
		return compare(actual, expected, func(n int) bool { return n > 0 }), nil
	case condition.GTE:
		return compare(actual, expected, func(n int) bool { return n >= 0 }), nil
	case condition.LT:
		return compare(actual, expected, func(n int) bool { return n < 0 }), nil
	case condition.LTE:
		return compare(actual, expected, func(n int) bool { return n <= 0 }), nil
	case condition.BETWEEN:
		bounds := expected.Elements()

		return compare(actual, bounds[0], func(n int) bool { return n >= 0 }) &&
			compare(actual, bounds[1], func(n int) bool { return n <= 0 }), nil
	case condition.IN:
		for _, e := range expected.Elements() {
			if types.Equal(actual, e) {
				return true, nil
			}
		}

		return false, nil
	case condition.LIKE:
		return m.like(actual, expected), nil
	}

	return false, types.NewQueryError("unsupported operator %q", c.Operator())
}

func compare(a, b types.Value, accept func(int) bool) bool {
	n, ok := types.Compare(a, b)

	return ok && accept(n)
}

func (m *matcher) like(actual, pattern types.Value) bool {
	s, ok := actual.Text()
	if !ok {
		return false
	}

	p, _ := pattern.Text()

	return m.patterns[p].MatchString(s)
}

// likeToRegexp translates % and _ wildcards into an anchored expression
func likeToRegexp(pattern string) string {
	var sb strings.Builder

	sb.WriteString("(?s)^")

	for _, r := range pattern {
		switch r {
		case '%':
			sb.WriteString(".*")
		case '_':
			sb.WriteString(".")
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}

	sb.WriteString("$")

	return sb.String()
}
