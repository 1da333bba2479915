package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"crm-campaigns/backend/internal/campaign/domain"
)

const campaignColumns = "id, name, segment_id, message, tags, stats, created_at"

const (
	insertCampaignSQL = `INSERT INTO campaigns (` + campaignColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	getCampaignSQL    = `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1`
	listCampaignsSQL  = `SELECT ` + campaignColumns + ` FROM campaigns ORDER BY created_at DESC, id`
)

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a campaign repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the campaign with its launch stats.
func (r *PostgresRepository) Create(ctx context.Context, c *domain.Campaign) error {
	tags := c.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}
	statsJSON, err := json.Marshal(c.Stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}
	_, err = r.db.ExecContext(ctx, insertCampaignSQL,
		c.ID, c.Name, c.SegmentID, c.Message, tagsJSON, statsJSON, c.CreatedAt)
	return err
}

// GetByID returns the campaign for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Campaign, error) {
	c, err := scanCampaign(r.db.QueryRowContext(ctx, getCampaignSQL, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

// List returns all campaigns, newest first.
func (r *PostgresRepository) List(ctx context.Context) ([]*domain.Campaign, error) {
	rows, err := r.db.QueryContext(ctx, listCampaignsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*domain.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCampaign(s rowScanner) (*domain.Campaign, error) {
	var (
		c         domain.Campaign
		tagsJSON  []byte
		statsJSON []byte
	)
	if err := s.Scan(&c.ID, &c.Name, &c.SegmentID, &c.Message, &tagsJSON, &statsJSON, &c.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(tagsJSON, &c.Tags); err != nil {
		return nil, fmt.Errorf("campaign %s: decode tags: %w", c.ID, err)
	}
	if err := json.Unmarshal(statsJSON, &c.Stats); err != nil {
		return nil, fmt.Errorf("campaign %s: decode stats: %w", c.ID, err)
	}
	return &c, nil
}
