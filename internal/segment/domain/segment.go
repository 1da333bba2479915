package domain

import "time"

// Logic combines the results of a segment's rules.
type Logic string

const (
	LogicAnd Logic = "AND"
	LogicOr  Logic = "OR"
)

// Rule is a single {field, operator, value} condition. Value is kept as text and
// coerced to the field's type at evaluation time.
type Rule struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

// Segment is an immutable rule set defining an audience.
type Segment struct {
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	Rules     []Rule    `json:"rules"`
	Logic     Logic     `json:"logic"`
	CreatedAt time.Time `json:"createdAt"`
}
