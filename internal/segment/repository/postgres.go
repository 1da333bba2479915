package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"crm-campaigns/backend/internal/segment/domain"
)

const (
	insertSegmentSQL = `INSERT INTO segments (id, name, rules, logic, created_at) VALUES ($1, $2, $3, $4, $5)`
	getSegmentSQL    = `SELECT id, name, rules, logic, created_at FROM segments WHERE id = $1`
)

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a segment repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the segment with its rules as JSONB.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Segment) error {
	rules := s.Rules
	if rules == nil {
		rules = []domain.Rule{}
	}
	raw, err := json.Marshal(rules)
	if err != nil {
		return fmt.Errorf("encode rules: %w", err)
	}
	name := sql.NullString{String: s.Name, Valid: s.Name != ""}
	_, err = r.db.ExecContext(ctx, insertSegmentSQL, s.ID, name, raw, string(s.Logic), s.CreatedAt)
	return err
}

// GetByID returns the segment for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Segment, error) {
	var (
		s     domain.Segment
		name  sql.NullString
		raw   []byte
		logic string
	)
	err := r.db.QueryRowContext(ctx, getSegmentSQL, id).Scan(&s.ID, &name, &raw, &logic, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(raw, &s.Rules); err != nil {
		return nil, fmt.Errorf("decode rules for segment %s: %w", id, err)
	}
	s.Name = name.String
	s.Logic = domain.Logic(logic)
	return &s, nil
}
