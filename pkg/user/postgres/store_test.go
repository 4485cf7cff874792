package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trash2cash/station-platform/pkg/user"
)

var userColumns = []string{"id", "name", "email", "password_hash", "created_at"}

func newTestUser() *user.User {
	return &user.User{
		ID:           "user-1",
		Name:         "Budi",
		Email:        "budi@example.com",
		PasswordHash: "$2a$10$fakehashfakehashfakehash",
		CreatedAt:    time.Now().UTC(),
	}
}

func TestCreate_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	store := New(db)
	u := newTestUser()

	mock.ExpectExec("INSERT INTO users").WithArgs(
		u.ID, u.Name, u.Email, u.PasswordHash, u.CreatedAt,
	).WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, store.Create(context.Background(), u))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DuplicateEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	store := New(db)

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&pq.Error{Code: uniqueViolation})

	err = store.Create(context.Background(), newTestUser())
	assert.ErrorIs(t, err, user.ErrEmailTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DBError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	store := New(db)

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(errors.New("connection refused"))

	err = store.Create(context.Background(), newTestUser())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "inserting user")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByEmail_Found(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	store := New(db)
	u := newTestUser()

	rows := sqlmock.NewRows(userColumns).
		AddRow(u.ID, u.Name, u.Email, u.PasswordHash, u.CreatedAt)
	mock.ExpectQuery("SELECT .+ FROM users").WithArgs(u.Email).WillReturnRows(rows)

	got, err := store.GetByEmail(context.Background(), u.Email)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByEmail_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	store := New(db)

	mock.ExpectQuery("SELECT .+ FROM users").WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns))

	got, err := store.GetByEmail(context.Background(), "nobody@example.com")
	assert.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_Found(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	store := New(db)
	u := newTestUser()

	rows := sqlmock.NewRows(userColumns).
		AddRow(u.ID, u.Name, u.Email, u.PasswordHash, u.CreatedAt)
	mock.ExpectQuery("SELECT .+ FROM users").WithArgs(u.ID).WillReturnRows(rows)

	got, err := store.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.Email, got.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_DBError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	store := New(db)

	mock.ExpectQuery("SELECT .+ FROM users").
		WillReturnError(errors.New("db unavailable"))

	_, err = store.GetByID(context.Background(), "user-1")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "scanning user")
	assert.NoError(t, mock.ExpectationsWereMet())
}
