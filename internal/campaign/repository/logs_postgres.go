package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"crm-campaigns/backend/internal/campaign/domain"
)

const logColumns = "id, campaign_id, customer_id, status, message, sent_at, created_at, updated_at"

const (
	insertLogsPrefix   = `INSERT INTO communication_logs (` + logColumns + `) VALUES `
	updateLogStatusSQL = `UPDATE communication_logs SET status = $1, updated_at = $2
		WHERE campaign_id = $3 AND customer_id = $4`
	listLogsByCampaignSQL = `SELECT l.id, l.campaign_id, l.customer_id, l.status, l.message, l.sent_at,
		l.created_at, l.updated_at, COALESCE(c.name, ''), COALESCE(c.email, '')
		FROM communication_logs l LEFT JOIN customers c ON c.id = l.customer_id
		WHERE l.campaign_id = $1 ORDER BY l.created_at, l.id`
	summarizeLogsSQL = `SELECT status, COUNT(*) FROM communication_logs WHERE campaign_id = $1 GROUP BY status`
)

const logArgCount = 8

// MaxLogBatch is the largest chunk CreateBatch sends: Postgres binds at most 65535 parameters per statement.
const MaxLogBatch = 65535 / logArgCount

// LogPostgresRepository implements LogRepository using PostgreSQL.
type LogPostgresRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewLogPostgresRepository returns a communication log repository that uses the given db.
func NewLogPostgresRepository(db *sql.DB) *LogPostgresRepository {
	return &LogPostgresRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// CreateBatch inserts logs with one multi-row INSERT per chunk of at most batchSize rows
// (capped at MaxLogBatch; <= 0 means as large as allowed). Chunks are not wrapped in a
// transaction; a failure leaves earlier chunks in place.
func (r *LogPostgresRepository) CreateBatch(ctx context.Context, logs []*domain.CommunicationLog, batchSize int) error {
	if batchSize <= 0 || batchSize > MaxLogBatch {
		batchSize = MaxLogBatch
	}
	for start := 0; start < len(logs); start += batchSize {
		end := min(start+batchSize, len(logs))
		query, args := buildLogInsert(logs[start:end])
		if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert communication logs %d-%d: %w", start, end, err)
		}
	}
	return nil
}

func buildLogInsert(logs []*domain.CommunicationLog) (string, []any) {
	var b strings.Builder
	b.WriteString(insertLogsPrefix)
	args := make([]any, 0, len(logs)*logArgCount)
	for i, l := range logs {
		if i > 0 {
			b.WriteString(", ")
		}
		n := i * logArgCount
		fmt.Fprintf(&b, "($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)", n+1, n+2, n+3, n+4, n+5, n+6, n+7, n+8)
		args = append(args, l.ID, l.CampaignID, l.CustomerID, string(l.Status), l.Message, l.SentAt, l.CreatedAt, l.UpdatedAt)
	}
	return b.String(), args
}

// UpdateStatus overwrites the log's status. Applying the same status twice is harmless.
func (r *LogPostgresRepository) UpdateStatus(ctx context.Context, campaignID, customerID string, status domain.Status) (int64, error) {
	res, err := r.db.ExecContext(ctx, updateLogStatusSQL, string(status), r.now(), campaignID, customerID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListByCampaign returns the campaign's logs with the targeted customer's name and email.
func (r *LogPostgresRepository) ListByCampaign(ctx context.Context, campaignID string) ([]*domain.LogEntry, error) {
	rows, err := r.db.QueryContext(ctx, listLogsByCampaignSQL, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*domain.LogEntry{}
	for rows.Next() {
		var (
			e      domain.LogEntry
			status string
			sentAt sql.NullTime
		)
		if err := rows.Scan(&e.ID, &e.CampaignID, &e.CustomerID, &status, &e.Message, &sentAt,
			&e.CreatedAt, &e.UpdatedAt, &e.CustomerName, &e.CustomerEmail); err != nil {
			return nil, err
		}
		e.Status = domain.Status(status)
		if sentAt.Valid {
			t := sentAt.Time
			e.SentAt = &t
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

// SummaryByStatus counts the campaign's logs by their current status.
func (r *LogPostgresRepository) SummaryByStatus(ctx context.Context, campaignID string) (domain.DeliverySummary, error) {
	var s domain.DeliverySummary
	rows, err := r.db.QueryContext(ctx, summarizeLogsSQL, campaignID)
	if err != nil {
		return s, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return s, err
		}
		switch domain.Status(status) {
		case domain.StatusPending:
			s.Pending = n
		case domain.StatusSent:
			s.Sent = n
		case domain.StatusFailed:
			s.Failed = n
		}
	}
	return s, rows.Err()
}
