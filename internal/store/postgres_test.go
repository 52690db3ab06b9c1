package store

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra35/vanillacost/internal/model"
)

func newMockSink(t *testing.T) (*PostgresSink, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresFromPool(mock), mock
}

func TestPostgres_UpsertRecord_ReturnsRef(t *testing.T) {
	sink, mock := newMockSink(t)

	mock.ExpectQuery(`INSERT INTO cost_items`).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))

	id, err := sink.UpsertRecord(context.Background(), "FARMTEK_GT1220", "Greenhouse", 1, nil, "")
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_UpsertPrice_ReturnsRef(t *testing.T) {
	sink, mock := newMockSink(t)

	mock.ExpectQuery(`INSERT INTO cost_pricing`).
		WithArgs(int64(7), 2499.00, "each", "HIGH").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(12)))

	id, err := sink.UpsertPrice(context.Background(), 7, 2499.00, "each", model.TierHigh)
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_UpsertCitation(t *testing.T) {
	sink, mock := newMockSink(t)

	mock.ExpectExec(`INSERT INTO source_references`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := sink.UpsertCitation(context.Background(), 12, model.SourceCitation{
		Kind:         model.KindSupplierWebsite,
		SourceURL:    "https://www.farmtek.com/p/gt-1220",
		DateObserved: "2026-08-15",
		Verification: model.VerificationPending,
		Confidence:   0.95,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ResolveCategory_NotFound(t *testing.T) {
	sink, mock := newMockSink(t)

	mock.ExpectQuery(`SELECT id FROM cost_categories`).
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	id, ok, err := sink.ResolveCategory(context.Background(), "moon_bases")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ResolveCategory_Found(t *testing.T) {
	sink, mock := newMockSink(t)

	mock.ExpectQuery(`SELECT id FROM cost_categories`).
		WithArgs("operational_costs", "Operational Costs").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(3)))

	id, ok, err := sink.ResolveCategory(context.Background(), "Operational Costs")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(3), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_FinishSession_NotFound(t *testing.T) {
	sink, mock := newMockSink(t)

	mock.ExpectExec(`UPDATE collection_sessions`).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := sink.FinishSession(context.Background(), 999, &model.SessionReport{
		EndedAt: time.Now(),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_StartSession(t *testing.T) {
	sink, mock := newMockSink(t)

	mock.ExpectQuery(`INSERT INTO collection_sessions`).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(4)))

	id, err := sink.StartSession(context.Background(), "session-abc", "farmtek", time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(4), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}
