package userrepo_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sweetshop/internal/domain"
	apperror "sweetshop/internal/errors"
	"sweetshop/internal/pkg/logger"
	"sweetshop/internal/repository/userrepo"
)

func newRepo(t *testing.T) (*userrepo.UserRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return userrepo.NewUserRepository(db, 2*time.Second, logger.NewNopLogger()), mock
}

func TestSave_Success(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(sqlmock.AnyArg(), "ana", "ana@shop.com", "hash", true, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	saved, err := repo.Save(context.Background(), domain.User{Username: "ana", Email: "ana@shop.com", PasswordHash: "hash", IsAdmin: true})

	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.False(t, saved.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSave_DuplicateEmailIsConflict(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectExec(`INSERT INTO users`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})

	_, err := repo.Save(context.Background(), domain.User{Email: "ana@shop.com"})

	var conflict *apperror.ConflictError
	assert.ErrorAs(t, err, &conflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSave_DBFailureIsInternal(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectExec(`INSERT INTO users`).WillReturnError(errors.New("connection refused"))

	_, err := repo.Save(context.Background(), domain.User{Email: "ana@shop.com"})

	var internal *apperror.InternalError
	assert.ErrorAs(t, err, &internal)
}

func TestFindByEmail_Found(t *testing.T) {
	repo, mock := newRepo(t)
	now := time.Now()

	mock.ExpectQuery(`FROM users WHERE email = \$1`).WithArgs("ana@shop.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "is_admin", "created_at"}).
			AddRow("u-1", "ana", "ana@shop.com", "hash", false, now))

	user, err := repo.FindByEmail(context.Background(), "ana@shop.com")

	require.NoError(t, err)
	assert.Equal(t, "u-1", user.ID)
	assert.Equal(t, "hash", user.PasswordHash)
	assert.False(t, user.IsAdmin)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByEmail_NotFound(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectQuery(`FROM users WHERE email = \$1`).WithArgs("ghost@shop.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "is_admin", "created_at"}))

	_, err := repo.FindByEmail(context.Background(), "ghost@shop.com")

	var nf *apperror.NotFoundError
	assert.ErrorAs(t, err, &nf)
}
