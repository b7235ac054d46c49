package postgres

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vikaskumar2611/streamly-sub001/internal/domain"
)

func newLikeTestFixture(t *testing.T) (*LikeRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	repo := NewLikeRepository(mock)
	return repo, mock
}

func TestLikeRepository_Add_New(t *testing.T) {
	repo, mock := newLikeTestFixture(t)
	defer mock.Close()

	like := &domain.Like{
		UserID:     "u-1234",
		TargetType: domain.LikeTargetVideo,
		TargetID:   "v-0001",
		CreatedAt:  time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO likes").
		WithArgs(like.UserID, like.TargetType, like.TargetID, like.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	created, err := repo.Add(context.Background(), like)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLikeRepository_Add_Duplicate(t *testing.T) {
	repo, mock := newLikeTestFixture(t)
	defer mock.Close()

	like := &domain.Like{
		UserID:     "u-1234",
		TargetType: domain.LikeTargetVideo,
		TargetID:   "v-0001",
		CreatedAt:  time.Now().UTC(),
	}

	// ON CONFLICT DO NOTHING reports zero rows for an existing like.
	mock.ExpectExec("INSERT INTO likes").
		WithArgs(like.UserID, like.TargetType, like.TargetID, like.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	created, err := repo.Add(context.Background(), like)
	require.NoError(t, err)
	assert.False(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLikeRepository_Remove(t *testing.T) {
	repo, mock := newLikeTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM likes").
		WithArgs("u-1234", domain.LikeTargetComment, "c-0001").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	existed, err := repo.Remove(context.Background(), "u-1234", domain.LikeTargetComment, "c-0001")
	require.NoError(t, err)
	assert.True(t, existed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLikeRepository_Count(t *testing.T) {
	repo, mock := newLikeTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT COUNT").
		WithArgs(domain.LikeTargetPost, "p-0001").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(7)))

	n, err := repo.Count(context.Background(), domain.LikeTargetPost, "p-0001")
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
