package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/vikaskumar2611/streamly-sub001/pkg/errors"
)

func newSessionTestFixture(t *testing.T) (*SessionRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	repo := NewSessionRepository(mock)
	return repo, mock
}

// ---------------------------------------------------------------------------
// Upsert
// ---------------------------------------------------------------------------

func TestSessionRepository_Upsert_Success(t *testing.T) {
	repo, mock := newSessionTestFixture(t)
	defer mock.Close()

	expiresAt := time.Now().UTC().Add(168 * time.Hour)

	mock.ExpectExec("INSERT INTO sessions").
		WithArgs("u-1234", "jti-aaa", expiresAt, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Upsert(context.Background(), "u-1234", "jti-aaa", expiresAt)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_Upsert_StoreFailure(t *testing.T) {
	repo, mock := newSessionTestFixture(t)
	defer mock.Close()

	expiresAt := time.Now().UTC().Add(168 * time.Hour)

	mock.ExpectExec("INSERT INTO sessions").
		WithArgs("u-1234", "jti-aaa", expiresAt, pgxmock.AnyArg()).
		WillReturnError(fmt.Errorf("connection refused"))

	err := repo.Upsert(context.Background(), "u-1234", "jti-aaa", expiresAt)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrStoreUnavailable), "expected ErrStoreUnavailable, got: %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// Current
// ---------------------------------------------------------------------------

func TestSessionRepository_Current_Success(t *testing.T) {
	repo, mock := newSessionTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT refresh_token_id FROM sessions WHERE user_id =").
		WithArgs("u-1234").
		WillReturnRows(pgxmock.NewRows([]string{"refresh_token_id"}).AddRow("jti-aaa"))

	got, err := repo.Current(context.Background(), "u-1234")
	require.NoError(t, err)
	assert.Equal(t, "jti-aaa", got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_Current_NoSession(t *testing.T) {
	repo, mock := newSessionTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT refresh_token_id FROM sessions WHERE user_id =").
		WithArgs("u-absent").
		WillReturnError(pgx.ErrNoRows)

	got, err := repo.Current(context.Background(), "u-absent")
	assert.Empty(t, got)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound), "expected ErrNotFound, got: %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// Rotate
// ---------------------------------------------------------------------------

func TestSessionRepository_Rotate_Success(t *testing.T) {
	repo, mock := newSessionTestFixture(t)
	defer mock.Close()

	expiresAt := time.Now().UTC().Add(168 * time.Hour)

	mock.ExpectExec("UPDATE sessions").
		WithArgs("jti-bbb", expiresAt, pgxmock.AnyArg(), "u-1234", "jti-aaa").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.Rotate(context.Background(), "u-1234", "jti-aaa", "jti-bbb", expiresAt)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A rotation that matches no row means the presented issuance id was already
// replaced, i.e. the credential is being replayed.
func TestSessionRepository_Rotate_Superseded(t *testing.T) {
	repo, mock := newSessionTestFixture(t)
	defer mock.Close()

	expiresAt := time.Now().UTC().Add(168 * time.Hour)

	mock.ExpectExec("UPDATE sessions").
		WithArgs("jti-ccc", expiresAt, pgxmock.AnyArg(), "u-1234", "jti-aaa").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.Rotate(context.Background(), "u-1234", "jti-aaa", "jti-ccc", expiresAt)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized), "expected ErrUnauthorized, got: %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_Rotate_StoreFailure(t *testing.T) {
	repo, mock := newSessionTestFixture(t)
	defer mock.Close()

	expiresAt := time.Now().UTC().Add(168 * time.Hour)

	mock.ExpectExec("UPDATE sessions").
		WithArgs("jti-bbb", expiresAt, pgxmock.AnyArg(), "u-1234", "jti-aaa").
		WillReturnError(fmt.Errorf("connection refused"))

	err := repo.Rotate(context.Background(), "u-1234", "jti-aaa", "jti-bbb", expiresAt)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrStoreUnavailable), "expected ErrStoreUnavailable, got: %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// Clear
// ---------------------------------------------------------------------------

func TestSessionRepository_Clear_Success(t *testing.T) {
	repo, mock := newSessionTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM sessions WHERE user_id =").
		WithArgs("u-1234").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err := repo.Clear(context.Background(), "u-1234")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_Clear_AbsentRow(t *testing.T) {
	repo, mock := newSessionTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM sessions WHERE user_id =").
		WithArgs("u-absent").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := repo.Clear(context.Background(), "u-absent")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
