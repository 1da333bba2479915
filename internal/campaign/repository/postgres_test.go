package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crm-campaigns/backend/internal/campaign/domain"
)

var campaignCols = []string{"id", "name", "segment_id", "message", "tags", "stats", "created_at"}

func TestPostgresRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO campaigns")).
		WithArgs("cmp-1", "Spring", "seg-1", "hello", []byte(`[]`),
			[]byte(`{"audienceSize":3,"sent":2,"failed":1}`), now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = NewPostgresRepository(db).Create(context.Background(), &domain.Campaign{
		ID: "cmp-1", Name: "Spring", SegmentID: "seg-1", Message: "hello",
		Stats: domain.Stats{AudienceSize: 3, Sent: 2, Failed: 1}, CreatedAt: now,
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta(getCampaignSQL)).
		WithArgs("cmp-1").
		WillReturnRows(sqlmock.NewRows(campaignCols).AddRow("cmp-1", "Spring", "seg-1", "hello",
			[]byte(`["promo"]`), []byte(`{"audienceSize":4,"sent":4,"failed":0}`), now))
	mock.ExpectQuery(regexp.QuoteMeta(getCampaignSQL)).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(campaignCols))

	repo := NewPostgresRepository(db)
	c, err := repo.GetByID(context.Background(), "cmp-1")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, []string{"promo"}, c.Tags)
	assert.Equal(t, domain.Stats{AudienceSize: 4, Sent: 4}, c.Stats)

	missing, err := repo.GetByID(context.Background(), "missing")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestPostgresRepository_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta(listCampaignsSQL)).
		WillReturnRows(sqlmock.NewRows(campaignCols).
			AddRow("cmp-2", "B", "seg-1", "m", []byte(`[]`), []byte(`{}`), now).
			AddRow("cmp-1", "A", "seg-1", "m", []byte(`[]`), []byte(`{}`), now.Add(-time.Hour)))

	list, err := NewPostgresRepository(db).List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "cmp-2", list[0].ID)
	assert.Equal(t, "cmp-1", list[1].ID)
}

func TestLogPostgresRepository_CreateBatchChunks(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	logs := make([]*domain.CommunicationLog, 5)
	for i := range logs {
		logs[i] = &domain.CommunicationLog{
			ID: string(rune('a' + i)), CampaignID: "cmp-1", CustomerID: string(rune('A' + i)),
			Status: domain.StatusSent, Message: "m", SentAt: &now, CreatedAt: now, UpdatedAt: now,
		}
	}
	// 5 rows in chunks of 2: 2 + 2 + 1 statements.
	for _, n := range []int{2, 2, 1} {
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO communication_logs")).
			WithArgs(anyArgs(n * logArgCount)...).
			WillReturnResult(sqlmock.NewResult(0, int64(n)))
	}

	err = NewLogPostgresRepository(db).CreateBatch(context.Background(), logs, 2)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogPostgresRepository_CreateBatchCapsChunkSize(t *testing.T) {
	for _, batchSize := range []int{0, MaxLogBatch + 1, 20000} {
		t.Run(fmt.Sprintf("batch %d", batchSize), func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			logs := make([]*domain.CommunicationLog, MaxLogBatch+2)
			for i := range logs {
				logs[i] = &domain.CommunicationLog{ID: fmt.Sprintf("log-%d", i), CampaignID: "cmp-1", Status: domain.StatusSent}
			}
			for _, n := range []int{MaxLogBatch, 2} {
				mock.ExpectExec(regexp.QuoteMeta("INSERT INTO communication_logs")).
					WithArgs(anyArgs(n * logArgCount)...).
					WillReturnResult(sqlmock.NewResult(0, int64(n)))
			}

			err = NewLogPostgresRepository(db).CreateBatch(context.Background(), logs, batchSize)
			assert.NoError(t, err)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestLogPostgresRepository_CreateBatchStopsOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	logs := []*domain.CommunicationLog{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO communication_logs")).
		WillReturnError(errors.New("connection reset"))

	err = NewLogPostgresRepository(db).CreateBatch(context.Background(), logs, 2)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogPostgresRepository_CreateBatchEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	assert.NoError(t, NewLogPostgresRepository(db).CreateBatch(context.Background(), nil, 500))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildLogInsert(t *testing.T) {
	query, args := buildLogInsert([]*domain.CommunicationLog{{ID: "a"}, {ID: "b"}})
	assert.Contains(t, query, "($1, $2, $3, $4, $5, $6, $7, $8), ($9, $10, $11, $12, $13, $14, $15, $16)")
	assert.Len(t, args, 16)
}

func TestLogPostgresRepository_UpdateStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE communication_logs")).
		WithArgs("FAILED", now, "cmp-1", "cust-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE communication_logs")).
		WithArgs("SENT", now, "cmp-1", "nobody").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewLogPostgresRepository(db)
	repo.now = func() time.Time { return now }

	n, err := repo.UpdateStatus(context.Background(), "cmp-1", "cust-1", domain.StatusFailed)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.UpdateStatus(context.Background(), "cmp-1", "nobody", domain.StatusSent)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogPostgresRepository_ListByCampaign(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	cols := []string{"id", "campaign_id", "customer_id", "status", "message", "sent_at",
		"created_at", "updated_at", "name", "email"}
	mock.ExpectQuery(regexp.QuoteMeta(listLogsByCampaignSQL)).
		WithArgs("cmp-1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("l1", "cmp-1", "cust-1", "SENT", "hi", now, now, now, "Ada", "ada@example.com").
			AddRow("l2", "cmp-1", "cust-2", "PENDING", "hi", nil, now, now, "", ""))

	entries, err := NewLogPostgresRepository(db).ListByCampaign(context.Background(), "cmp-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.StatusSent, entries[0].Status)
	assert.Equal(t, "Ada", entries[0].CustomerName)
	require.NotNil(t, entries[0].SentAt)
	assert.Nil(t, entries[1].SentAt)
}

func TestLogPostgresRepository_SummaryByStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(summarizeLogsSQL)).
		WithArgs("cmp-1").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("SENT", 7).AddRow("FAILED", 2).AddRow("PENDING", 1))

	s, err := NewLogPostgresRepository(db).SummaryByStatus(context.Background(), "cmp-1")
	require.NoError(t, err)
	assert.Equal(t, domain.DeliverySummary{Pending: 1, Sent: 7, Failed: 2}, s)
}

func anyArgs(n int) []driver.Value {
	out := make([]driver.Value, n)
	for i := range out {
		out[i] = sqlmock.AnyArg()
	}
	return out
}
