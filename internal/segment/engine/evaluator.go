// Package engine evaluates segment rule sets against customers and resolves audiences.
package engine

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	customerdomain "crm-campaigns/backend/internal/customer/domain"
	"crm-campaigns/backend/internal/segment/domain"
)

// ErrInvalidLogic is returned when a rule set's logic is neither AND nor OR.
var ErrInvalidLogic = errors.New("logic must be AND or OR")

// InvalidRuleError names the rule that could not be evaluated. A single invalid rule
// aborts evaluation of the whole rule set.
type InvalidRuleError struct {
	Index  int
	Rule   domain.Rule
	Reason string
}

func (e *InvalidRuleError) Error() string {
	return fmt.Sprintf("invalid rule %d (%s %s %q): %s", e.Index, e.Rule.Field, e.Rule.Operator, e.Rule.Value, e.Reason)
}

type fieldKind int

const (
	kindNumber fieldKind = iota
	kindDate
	kindString
)

type field struct {
	kind fieldKind
	num  func(*customerdomain.Customer) float64
	date func(*customerdomain.Customer) time.Time
	str  func(*customerdomain.Customer) string
}

// fields is the registry of rule fields; adding a field is one entry.
var fields = map[string]field{
	"totalSpend": {kind: kindNumber, num: func(c *customerdomain.Customer) float64 { return c.TotalSpend }},
	"visits":     {kind: kindNumber, num: func(c *customerdomain.Customer) float64 { return float64(c.Visits) }},
	"lastActive": {kind: kindDate, date: func(c *customerdomain.Customer) time.Time { return c.LastActive }},
	"name":       {kind: kindString, str: func(c *customerdomain.Customer) string { return c.Name }},
	"email":      {kind: kindString, str: func(c *customerdomain.Customer) string { return c.Email }},
	"phone":      {kind: kindString, str: func(c *customerdomain.Customer) string { return c.Phone }},
}

type predicate func(*customerdomain.Customer) bool

// Matcher is a compiled, validated rule set. Safe for concurrent use.
type Matcher struct {
	logic domain.Logic
	preds []predicate
}

// Compile validates every rule and returns a Matcher. Validation covers the whole rule
// set up front so a malformed rule cannot be skipped by short-circuiting.
func Compile(rules []domain.Rule, logic domain.Logic) (*Matcher, error) {
	if logic != domain.LogicAnd && logic != domain.LogicOr {
		return nil, ErrInvalidLogic
	}
	preds := make([]predicate, 0, len(rules))
	for i, r := range rules {
		p, err := compileRule(r)
		if err != nil {
			return nil, &InvalidRuleError{Index: i, Rule: r, Reason: err.Error()}
		}
		preds = append(preds, p)
	}
	return &Matcher{logic: logic, preds: preds}, nil
}

// Match reports whether c belongs to the audience. An empty rule set matches everyone.
func (m *Matcher) Match(c *customerdomain.Customer) bool {
	if len(m.preds) == 0 {
		return true
	}
	if m.logic == domain.LogicAnd {
		for _, p := range m.preds {
			if !p(c) {
				return false
			}
		}
		return true
	}
	for _, p := range m.preds {
		if p(c) {
			return true
		}
	}
	return false
}

// Matches compiles rules and evaluates them against c.
func Matches(c *customerdomain.Customer, rules []domain.Rule, logic domain.Logic) (bool, error) {
	m, err := Compile(rules, logic)
	if err != nil {
		return false, err
	}
	return m.Match(c), nil
}

func compileRule(r domain.Rule) (predicate, error) {
	f, ok := fields[r.Field]
	if !ok {
		return nil, fmt.Errorf("unknown field %q", r.Field)
	}
	cmp, ok := operators[r.Operator]
	if !ok {
		return nil, fmt.Errorf("unknown operator %q", r.Operator)
	}
	raw := strings.TrimSpace(r.Value)

	switch f.kind {
	case kindNumber:
		want, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(want) || math.IsInf(want, 0) {
			return nil, fmt.Errorf("value %q is not a number", r.Value)
		}
		return func(c *customerdomain.Customer) bool {
			return cmp(compareFloat(f.num(c), want))
		}, nil
	case kindDate:
		want, dayOnly, err := parseDate(raw)
		if err != nil {
			return nil, fmt.Errorf("value %q is not a date", r.Value)
		}
		return func(c *customerdomain.Customer) bool {
			got := f.date(c).UTC()
			if dayOnly {
				got = time.Date(got.Year(), got.Month(), got.Day(), 0, 0, 0, 0, time.UTC)
			}
			return cmp(got.Compare(want))
		}, nil
	default:
		if r.Operator != "=" {
			return nil, fmt.Errorf("operator %q not supported for field %q", r.Operator, r.Field)
		}
		return func(c *customerdomain.Customer) bool {
			return strings.EqualFold(f.str(c), raw)
		}, nil
	}
}

var operators = map[string]func(int) bool{
	">":  func(c int) bool { return c > 0 },
	"<":  func(c int) bool { return c < 0 },
	">=": func(c int) bool { return c >= 0 },
	"<=": func(c int) bool { return c <= 0 },
	"=":  func(c int) bool { return c == 0 },
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// parseDate accepts RFC3339 timestamps or YYYY-MM-DD. Date-only values compare by UTC day.
func parseDate(s string) (time.Time, bool, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), false, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}
