package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/streamcart/finance-ledger/internal/domain/idempotency"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdempotencyRepository_Acquire(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &IdempotencyRepository{querier: mock, logger: newTestLogger()}
	rec := &idempotency.Record{
		ChannelID:   "ch1",
		Scope:       "post_entry",
		Key:         "req-abc",
		RequestHash: "7f3a",
	}

	insert := `
		INSERT INTO idempotency_records \(channel_id, scope, key, request_hash, status, created_at, updated_at\)
		VALUES \(\$1, \$2, \$3, \$4, \$5, \$6, \$6\)
		ON CONFLICT \(channel_id, scope, key\) DO NOTHING
	`
	get := `
		SELECT channel_id, scope, key, request_hash, result, status, created_at, updated_at
		FROM idempotency_records
		WHERE channel_id = \$1 AND scope = \$2 AND key = \$3
	`
	reacquire := `
		UPDATE idempotency_records
		SET status = \$4, updated_at = \$5
		WHERE channel_id = \$1 AND scope = \$2 AND key = \$3 AND status = \$6
	`

	t.Run("first caller acquires", func(t *testing.T) {
		mock.ExpectExec(insert).
			WithArgs(rec.ChannelID, rec.Scope, rec.Key, rec.RequestHash, idempotency.StatusInProgress, pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		existing, acquired, err := repo.Acquire(ctx, rec)
		assert.NoError(t, err)
		assert.True(t, acquired)
		assert.Nil(t, existing)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate key returns existing record", func(t *testing.T) {
		now := time.Now().UTC()
		mock.ExpectExec(insert).
			WithArgs(rec.ChannelID, rec.Scope, rec.Key, rec.RequestHash, idempotency.StatusInProgress, pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 0))
		mock.ExpectQuery(get).
			WithArgs(rec.ChannelID, rec.Scope, rec.Key).
			WillReturnRows(pgxmock.NewRows([]string{"channel_id", "scope", "key", "request_hash", "result", "status", "created_at", "updated_at"}).
				AddRow(rec.ChannelID, rec.Scope, rec.Key, rec.RequestHash, []byte(`"e6b1"`), idempotency.StatusCompleted, now, now))

		existing, acquired, err := repo.Acquire(ctx, rec)
		assert.NoError(t, err)
		assert.False(t, acquired)
		require.NotNil(t, existing)
		assert.Equal(t, idempotency.StatusCompleted, existing.Status)
		assert.Equal(t, []byte(`"e6b1"`), existing.Result)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failed record is taken over in place", func(t *testing.T) {
		now := time.Now().UTC()
		mock.ExpectExec(insert).
			WithArgs(rec.ChannelID, rec.Scope, rec.Key, rec.RequestHash, idempotency.StatusInProgress, pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 0))
		mock.ExpectQuery(get).
			WithArgs(rec.ChannelID, rec.Scope, rec.Key).
			WillReturnRows(pgxmock.NewRows([]string{"channel_id", "scope", "key", "request_hash", "result", "status", "created_at", "updated_at"}).
				AddRow(rec.ChannelID, rec.Scope, rec.Key, rec.RequestHash, []byte(nil), idempotency.StatusFailed, now, now))
		mock.ExpectExec(reacquire).
			WithArgs(rec.ChannelID, rec.Scope, rec.Key, idempotency.StatusInProgress, pgxmock.AnyArg(), idempotency.StatusFailed).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		existing, acquired, err := repo.Acquire(ctx, rec)
		assert.NoError(t, err)
		assert.True(t, acquired, "a retry of a failed key acquires the record")
		assert.Nil(t, existing)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("concurrent retries of a failed key admit only one", func(t *testing.T) {
		now := time.Now().UTC()
		mock.ExpectExec(insert).
			WithArgs(rec.ChannelID, rec.Scope, rec.Key, rec.RequestHash, idempotency.StatusInProgress, pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 0))
		mock.ExpectQuery(get).
			WithArgs(rec.ChannelID, rec.Scope, rec.Key).
			WillReturnRows(pgxmock.NewRows([]string{"channel_id", "scope", "key", "request_hash", "result", "status", "created_at", "updated_at"}).
				AddRow(rec.ChannelID, rec.Scope, rec.Key, rec.RequestHash, []byte(nil), idempotency.StatusFailed, now, now))
		// The other retry flipped the record first; the status predicate
		// makes this update a no-op
		mock.ExpectExec(reacquire).
			WithArgs(rec.ChannelID, rec.Scope, rec.Key, idempotency.StatusInProgress, pgxmock.AnyArg(), idempotency.StatusFailed).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		existing, acquired, err := repo.Acquire(ctx, rec)
		assert.False(t, acquired)
		assert.Nil(t, existing)
		assert.ErrorIs(t, err, idempotency.ErrInProgress{Scope: rec.Scope, Key: rec.Key})
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("conflict then record vanishes", func(t *testing.T) {
		mock.ExpectExec(insert).
			WithArgs(rec.ChannelID, rec.Scope, rec.Key, rec.RequestHash, idempotency.StatusInProgress, pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 0))
		mock.ExpectQuery(get).
			WithArgs(rec.ChannelID, rec.Scope, rec.Key).
			WillReturnError(pgx.ErrNoRows)

		existing, acquired, err := repo.Acquire(ctx, rec)
		assert.Error(t, err)
		assert.False(t, acquired)
		assert.Nil(t, existing)
		var inProgress idempotency.ErrInProgress
		assert.ErrorAs(t, err, &inProgress)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		dbErr := errors.New("insert failed")
		mock.ExpectExec(insert).
			WithArgs(rec.ChannelID, rec.Scope, rec.Key, rec.RequestHash, idempotency.StatusInProgress, pgxmock.AnyArg()).
			WillReturnError(dbErr)

		existing, acquired, err := repo.Acquire(ctx, rec)
		assert.Error(t, err)
		assert.False(t, acquired)
		assert.Nil(t, existing)
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestIdempotencyRepository_Complete(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &IdempotencyRepository{querier: mock, logger: newTestLogger()}

	query := `
		UPDATE idempotency_records
		SET status = \$4, result = \$5, updated_at = \$6
		WHERE channel_id = \$1 AND scope = \$2 AND key = \$3
	`

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs("ch1", "post_entry", "req-abc", idempotency.StatusCompleted, []byte(`"e6b1"`), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repo.Complete(ctx, "ch1", "post_entry", "req-abc", []byte(`"e6b1"`))
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		dbErr := errors.New("update failed")
		mock.ExpectExec(query).
			WithArgs("ch1", "post_entry", "req-abc", idempotency.StatusCompleted, []byte(`"e6b1"`), pgxmock.AnyArg()).
			WillReturnError(dbErr)

		err := repo.Complete(ctx, "ch1", "post_entry", "req-abc", []byte(`"e6b1"`))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to complete idempotency record")
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestIdempotencyRepository_Fail(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &IdempotencyRepository{querier: mock, logger: newTestLogger()}

	query := `
		UPDATE idempotency_records
		SET status = \$4, updated_at = \$5
		WHERE channel_id = \$1 AND scope = \$2 AND key = \$3
	`

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs("ch1", "post_entry", "req-abc", idempotency.StatusFailed, pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repo.Fail(ctx, "ch1", "post_entry", "req-abc")
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		dbErr := errors.New("update failed")
		mock.ExpectExec(query).
			WithArgs("ch1", "post_entry", "req-abc", idempotency.StatusFailed, pgxmock.AnyArg()).
			WillReturnError(dbErr)

		err := repo.Fail(ctx, "ch1", "post_entry", "req-abc")
		assert.Error(t, err)
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
