package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aanand-mishra/hostel-api/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockDB(t *testing.T) (*SQLite, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &SQLite{Db: db}, mock
}

func TestRegisterStudent_NoVacancyRollsBack(t *testing.T) {
	s, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("asha").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(`FROM rooms\s+WHERE occupied = 0`).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, _, err := s.RegisterStudent(context.Background(), newStudent("asha"))
	assert.ErrorIs(t, err, types.ErrNoVacancy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterStudent_ClaimFailureRollsBackInsert(t *testing.T) {
	s, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("asha").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(`FROM rooms\s+WHERE occupied = 0`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "number", "occupied", "student_id"}).
			AddRow(1, 101, false, nil))
	mock.ExpectExec(`INSERT INTO users`).
		WillReturnResult(sqlmock.NewResult(7, 1))
	// Somebody else took the room: the guarded UPDATE touches nothing.
	mock.ExpectExec(`UPDATE rooms SET occupied = 1`).
		WithArgs(int64(7), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, _, err := s.RegisterStudent(context.Background(), newStudent("asha"))
	assert.ErrorIs(t, err, types.ErrNoVacancy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseRoom_OutstandingBalanceRollsBack(t *testing.T) {
	s, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT role FROM users`).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("student"))
	mock.ExpectQuery(`FROM rent_charges`).
		WithArgs(int64(3), int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(int64(200000)))
	mock.ExpectRollback()

	_, err := s.ReleaseRoom(context.Background(), 3)
	assert.ErrorIs(t, err, types.ErrOutstandingBalance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddPayment_CommitFailureSurfaces(t *testing.T) {
	s, mock := setupMockDB(t)
	commitErr := errors.New("disk I/O error")

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT role FROM users`).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("student"))
	mock.ExpectExec(`INSERT INTO payments`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) FROM payments`).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(int64(100000)))
	mock.ExpectQuery(`FROM rent_charges WHERE student_id`).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "period", "amount", "status", "student_id", "created_at"}))
	mock.ExpectCommit().WillReturnError(commitErr)

	_, err := s.AddPayment(context.Background(), 3, types.Whole(1000), time.Now())
	assert.ErrorIs(t, err, commitErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}
