package engine

import (
	"errors"
	"testing"
	"time"

	customerdomain "crm-campaigns/backend/internal/customer/domain"
	"crm-campaigns/backend/internal/segment/domain"
)

func customer(spend float64, visits int, lastActive time.Time) *customerdomain.Customer {
	return &customerdomain.Customer{
		ID:         "c",
		Name:       "Asha",
		Email:      "asha@example.com",
		Phone:      "555",
		TotalSpend: spend,
		Visits:     visits,
		LastActive: lastActive,
	}
}

var may1 = time.Date(2024, 5, 1, 15, 30, 0, 0, time.UTC)

func TestMatches_SingleRule(t *testing.T) {
	testCases := []struct {
		name string
		c    *customerdomain.Customer
		rule domain.Rule
		want bool
	}{
		{"spend above threshold", customer(600, 0, may1), domain.Rule{"totalSpend", ">", "500"}, true},
		{"spend below threshold", customer(400, 0, may1), domain.Rule{"totalSpend", ">", "500"}, false},
		{"spend equal is not greater", customer(500, 0, may1), domain.Rule{"totalSpend", ">", "500"}, false},
		{"spend equal with >=", customer(500, 0, may1), domain.Rule{"totalSpend", ">=", "500"}, true},
		{"visits less than", customer(0, 2, may1), domain.Rule{"visits", "<", "3"}, true},
		{"visits <= boundary", customer(0, 3, may1), domain.Rule{"visits", "<=", "3"}, true},
		{"visits equal", customer(0, 3, may1), domain.Rule{"visits", "=", "3"}, true},
		{"visits padded value", customer(0, 6, may1), domain.Rule{"visits", ">", " 5 "}, true},
		{"last active after timestamp", customer(0, 0, may1), domain.Rule{"lastActive", ">", "2024-04-30T00:00:00Z"}, true},
		{"last active before timestamp", customer(0, 0, may1), domain.Rule{"lastActive", "<", "2024-04-30T00:00:00Z"}, false},
		{"last active same day", customer(0, 0, may1), domain.Rule{"lastActive", "=", "2024-05-01"}, true},
		{"last active not after same day", customer(0, 0, may1), domain.Rule{"lastActive", ">", "2024-05-01"}, false},
		{"name equality ignores case", customer(0, 0, may1), domain.Rule{"name", "=", "asha"}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Matches(tc.c, []domain.Rule{tc.rule}, domain.LogicAnd)
			if err != nil {
				t.Fatalf("Matches: %v", err)
			}
			if got != tc.want {
				t.Errorf("Matches = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestMatches_EmptyRulesMatchEveryone(t *testing.T) {
	for _, logic := range []domain.Logic{domain.LogicAnd, domain.LogicOr} {
		for _, c := range []*customerdomain.Customer{customer(0, 0, may1), customer(1e6, 100, time.Time{})} {
			got, err := Matches(c, nil, logic)
			if err != nil {
				t.Fatalf("Matches(%s): %v", logic, err)
			}
			if !got {
				t.Errorf("empty rule set under %s should match", logic)
			}
		}
	}
}

func TestMatches_AndOr(t *testing.T) {
	rules := []domain.Rule{
		{Field: "visits", Operator: ">", Value: "3"},
		{Field: "totalSpend", Operator: ">", Value: "1000"},
	}
	testCases := []struct {
		name    string
		c       *customerdomain.Customer
		wantAnd bool
		wantOr  bool
	}{
		{"both", customer(1500, 5, may1), true, true},
		{"visits only", customer(100, 5, may1), false, true},
		{"spend only", customer(1500, 1, may1), false, true},
		{"neither", customer(100, 1, may1), false, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			and, err := Matches(tc.c, rules, domain.LogicAnd)
			if err != nil {
				t.Fatalf("AND: %v", err)
			}
			or, err := Matches(tc.c, rules, domain.LogicOr)
			if err != nil {
				t.Fatalf("OR: %v", err)
			}
			if and != tc.wantAnd {
				t.Errorf("AND = %v, want %v", and, tc.wantAnd)
			}
			if or != tc.wantOr {
				t.Errorf("OR = %v, want %v", or, tc.wantOr)
			}
		})
	}
}

func TestMatches_Deterministic(t *testing.T) {
	rules := []domain.Rule{{Field: "totalSpend", Operator: ">=", Value: "250.5"}}
	c := customer(250.5, 2, may1)
	first, err := Matches(c, rules, domain.LogicOr)
	if err != nil {
		t.Fatalf("Matches: %v", err)
	}
	for i := 0; i < 100; i++ {
		got, _ := Matches(c, rules, domain.LogicOr)
		if got != first {
			t.Fatalf("call %d returned %v, first call returned %v", i, got, first)
		}
	}
}

func TestCompile_InvalidRules(t *testing.T) {
	testCases := []struct {
		name  string
		rules []domain.Rule
		index int
	}{
		{"unknown field", []domain.Rule{{"age", ">", "30"}}, 0},
		{"unknown operator", []domain.Rule{{"visits", "!=", "3"}}, 0},
		{"non numeric value", []domain.Rule{{"totalSpend", ">", "lots"}}, 0},
		{"NaN equality", []domain.Rule{{"totalSpend", "=", "NaN"}}, 0},
		{"NaN at least", []domain.Rule{{"totalSpend", ">=", "nan"}}, 0},
		{"NaN at most", []domain.Rule{{"visits", "<=", "NaN"}}, 0},
		{"positive infinity", []domain.Rule{{"totalSpend", "<", "+Inf"}}, 0},
		{"negative infinity", []domain.Rule{{"visits", ">", "-Infinity"}}, 0},
		{"bad date", []domain.Rule{{"lastActive", ">", "yesterday"}}, 0},
		{"ordering on string field", []domain.Rule{{"email", ">", "a"}}, 0},
		{"second rule invalid", []domain.Rule{{"visits", ">", "3"}, {"visits", "~", "3"}}, 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Compile(tc.rules, domain.LogicAnd)
			var ruleErr *InvalidRuleError
			if !errors.As(err, &ruleErr) {
				t.Fatalf("Compile error = %v, want *InvalidRuleError", err)
			}
			if ruleErr.Index != tc.index {
				t.Errorf("Index = %d, want %d", ruleErr.Index, tc.index)
			}
			if ruleErr.Error() == "" {
				t.Error("error message should not be empty")
			}
		})
	}
}

func TestCompile_InvalidRuleNotMaskedByOr(t *testing.T) {
	// The first rule alone would satisfy OR; the second must still be rejected.
	rules := []domain.Rule{{"visits", ">", "0"}, {"unknown", "=", "x"}}
	if _, err := Matches(customer(0, 10, may1), rules, domain.LogicOr); err == nil {
		t.Fatal("expected error for malformed rule under OR")
	}
}

func TestCompile_InvalidLogic(t *testing.T) {
	for _, logic := range []domain.Logic{"", "and", "XOR"} {
		if _, err := Compile(nil, logic); !errors.Is(err, ErrInvalidLogic) {
			t.Errorf("Compile(logic=%q) = %v, want ErrInvalidLogic", logic, err)
		}
	}
}

func TestMatches_NonFiniteValueNeverMatches(t *testing.T) {
	c := &customerdomain.Customer{TotalSpend: 10}
	for _, op := range []string{"=", ">=", "<="} {
		ok, err := Matches(c, []domain.Rule{{"totalSpend", op, "NaN"}}, domain.LogicAnd)
		var ruleErr *InvalidRuleError
		if ok || !errors.As(err, &ruleErr) {
			t.Errorf("Matches(totalSpend %s NaN) = %v, %v; want false, *InvalidRuleError", op, ok, err)
		}
	}
}
