package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/resource-booking/internal/model"
)

func newRepo(t *testing.T) (*BookingRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewBookingRepo(db), mock
}

func bookingRows(id int64, status string) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "resource_id", "user_id", "start_time", "end_time",
		"total_price_cents", "status", "notes", "created_at", "updated_at",
	}).AddRow(id, int64(7), "user-1", now.Add(24*time.Hour), now.Add(26*time.Hour),
		int64(2000), status, nil, now, now)
}

func TestLockConflictDetection(t *testing.T) {
	assert.True(t, lockConflict(&mysql.MySQLError{Number: 1213}))
	assert.True(t, lockConflict(fmt.Errorf("insert booking: %w", &mysql.MySQLError{Number: 1205})))
	assert.False(t, lockConflict(&mysql.MySQLError{Number: 1062}))
	assert.False(t, lockConflict(sql.ErrNoRows))
	assert.False(t, lockConflict(nil))
}

func TestCreateBookingLockedCheckFindsOverlap(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM bookings").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(9)))
	mock.ExpectRollback()

	b := &model.Booking{ResourceID: 7, UserID: "user-1", Status: model.StatusConfirmed}
	err := repo.CreateBooking(context.Background(), b, nil)
	assert.ErrorIs(t, err, ErrOverlap)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Two creators racing on the same free range both pass the locked
// check on compatible gap locks and then deadlock on their inserts;
// InnoDB kills one with 1213.  The loser must see an overlap, not a
// raw driver error.
func TestCreateBookingDeadlockLoserSeesOverlap(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM bookings").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec("INSERT INTO bookings").
		WillReturnError(&mysql.MySQLError{Number: 1213, Message: "Deadlock found when trying to get lock"})
	mock.ExpectRollback()

	b := &model.Booking{ResourceID: 7, UserID: "user-1", Status: model.StatusConfirmed}
	err := repo.CreateBooking(context.Background(), b, nil)
	assert.ErrorIs(t, err, ErrOverlap)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingHookErrorRollsBack(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM bookings").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec("INSERT INTO bookings").
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectQuery("SELECT id, resource_id").
		WillReturnRows(bookingRows(42, "CONFIRMED"))
	mock.ExpectRollback()

	hookErr := errors.New("broker down")
	b := &model.Booking{ResourceID: 7, UserID: "user-1", Status: model.StatusConfirmed}
	err := repo.CreateBooking(context.Background(), b, func(*model.Booking) error { return hookErr })
	assert.ErrorIs(t, err, hookErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingCommits(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM bookings").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec("INSERT INTO bookings").
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectQuery("SELECT id, resource_id").
		WillReturnRows(bookingRows(42, "CONFIRMED"))
	mock.ExpectCommit()

	hookSeen := uint64(0)
	b := &model.Booking{ResourceID: 7, UserID: "user-1", Status: model.StatusConfirmed}
	err := repo.CreateBooking(context.Background(), b, func(created *model.Booking) error {
		hookSeen = created.ID
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, uint64(42), b.ID)
	assert.Equal(t, uint64(42), hookSeen)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// The guard in the UPDATE keeps a cancel that raced with an external
// completion from overwriting the terminal state.
func TestUpdateStatusGuardsTerminalRows(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectExec("UPDATE bookings SET status").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT id, resource_id").
		WillReturnRows(bookingRows(5, "COMPLETED"))

	_, err := repo.UpdateStatus(context.Background(), 5, model.StatusCancelled)
	assert.ErrorIs(t, err, ErrTerminalStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusMissingRow(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectExec("UPDATE bookings SET status").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT id, resource_id").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.UpdateStatus(context.Background(), 99, model.StatusCancelled)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusCancels(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectExec("UPDATE bookings SET status").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT id, resource_id").
		WillReturnRows(bookingRows(5, "CANCELLED"))

	b, err := repo.UpdateStatus(context.Background(), 5, model.StatusCancelled)
	assert.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, b.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
