package engine

import (
	"context"

	customerdomain "crm-campaigns/backend/internal/customer/domain"
	"crm-campaigns/backend/internal/segment/domain"
)

// CustomerSource streams the customer population. Implemented by the customer repository.
type CustomerSource interface {
	ForEach(ctx context.Context, fn func(*customerdomain.Customer) error) error
}

// Mode selects how an audience is resolved.
type Mode string

const (
	// ModeRules keeps the customers matched by the segment's rules.
	ModeRules Mode = "rules"
	// ModeAll targets every customer regardless of rules. Rules are still validated.
	ModeAll Mode = "all"
)

// Audience is the set of customers matched by a rule set at a point in time.
type Audience struct {
	Count   int
	Members []*customerdomain.Customer
}

// Resolver applies a rule set across the customer population.
type Resolver struct {
	source CustomerSource
	mode   Mode
}

// NewResolver returns a Resolver over source. An empty mode means ModeRules.
func NewResolver(source CustomerSource, mode Mode) *Resolver {
	if mode == "" {
		mode = ModeRules
	}
	return &Resolver{source: source, mode: mode}
}

// Mode returns the resolution mode in effect.
func (r *Resolver) Mode() Mode {
	return r.mode
}

// Resolve returns the audience for rules combined by logic. Members are collected only when
// withMembers is true. A malformed rule set fails before any customer is read.
func (r *Resolver) Resolve(ctx context.Context, rules []domain.Rule, logic domain.Logic, withMembers bool) (Audience, error) {
	m, err := Compile(rules, logic)
	if err != nil {
		return Audience{}, err
	}
	var a Audience
	err = r.source.ForEach(ctx, func(c *customerdomain.Customer) error {
		if r.mode == ModeRules && !m.Match(c) {
			return nil
		}
		a.Count++
		if withMembers {
			a.Members = append(a.Members, c)
		}
		return nil
	})
	if err != nil {
		return Audience{}, err
	}
	return a, nil
}
