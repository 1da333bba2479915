// Package service implements segment creation, audience preview and the optional
// campaign auto-launch that follows creation of a named segment.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"crm-campaigns/backend/internal/segment/domain"
	"crm-campaigns/backend/internal/segment/engine"
	"crm-campaigns/backend/internal/segment/repository"
)

// CreateInput is the request to create a segment.
type CreateInput struct {
	Name  string
	Rules []domain.Rule
	Logic domain.Logic
}

// Result is a created segment and its audience size at creation time.
type Result struct {
	Segment      *domain.Segment
	AudienceSize int
	// CampaignID is set when a campaign was auto-launched for the segment.
	CampaignID string
}

// Service creates segments and resolves their audiences.
type Service struct {
	repo     repository.Repository
	resolver *engine.Resolver
	now      func() time.Time
}

// NewService returns a segment service backed by repo and resolver.
func NewService(repo repository.Repository, resolver *engine.Resolver) *Service {
	return &Service{repo: repo, resolver: resolver, now: func() time.Time { return time.Now().UTC() }}
}

// Create validates the rule set, persists the segment and computes its audience size.
// Invalid rules fail with *engine.InvalidRuleError or engine.ErrInvalidLogic before anything is stored.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Result, error) {
	if _, err := engine.Compile(in.Rules, in.Logic); err != nil {
		return nil, err
	}
	seg := &domain.Segment{
		ID:        uuid.New().String(),
		Name:      in.Name,
		Rules:     in.Rules,
		Logic:     in.Logic,
		CreatedAt: s.now(),
	}
	if seg.Rules == nil {
		seg.Rules = []domain.Rule{}
	}
	if err := s.repo.Create(ctx, seg); err != nil {
		return nil, err
	}
	audience, err := s.resolver.Resolve(ctx, seg.Rules, seg.Logic, false)
	if err != nil {
		return nil, err
	}
	return &Result{Segment: seg, AudienceSize: audience.Count}, nil
}

// Preview returns the audience size for a rule set without persisting anything.
func (s *Service) Preview(ctx context.Context, rules []domain.Rule, logic domain.Logic) (int, error) {
	audience, err := s.resolver.Resolve(ctx, rules, logic, false)
	if err != nil {
		return 0, err
	}
	return audience.Count, nil
}

// Get returns the segment for id, or nil if it does not exist.
func (s *Service) Get(ctx context.Context, id string) (*domain.Segment, error) {
	return s.repo.GetByID(ctx, id)
}
