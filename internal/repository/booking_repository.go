package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/resource-booking/internal/model"
)

// BookingRepo provides CRUD operations for the bookings table.  All
// timestamp columns are stored in UTC (the connection DSN pins
// parseTime and loc accordingly).
//
// Expected schema:
//
//	CREATE TABLE bookings (
//	    id                BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
//	    resource_id       BIGINT UNSIGNED NOT NULL,
//	    user_id           VARCHAR(128)    NOT NULL,
//	    start_time        DATETIME        NOT NULL,
//	    end_time          DATETIME        NOT NULL,
//	    total_price_cents BIGINT          NOT NULL,
//	    status            ENUM('PENDING','CONFIRMED','CANCELLED','COMPLETED') NOT NULL,
//	    notes             TEXT            NULL,
//	    created_at        DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
//	    updated_at        DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
//	    KEY idx_bookings_resource_time (resource_id, start_time, end_time),
//	    KEY idx_bookings_user (user_id)
//	) ENGINE=InnoDB;
//
// idx_bookings_resource_time is load-bearing: the locked conflict query
// in CreateBooking scans it, and under InnoDB REPEATABLE READ the
// SELECT ... FOR UPDATE takes next-key locks on the scanned index
// range, so two concurrent creators for the same resource and
// overlapping ranges cannot both pass the check.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `id, resource_id, user_id, start_time, end_time, total_price_cents, status, notes, created_at, updated_at`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(rs rowScanner) (*model.Booking, error) {
	var b model.Booking
	var notes sql.NullString
	var status string
	if err := rs.Scan(
		&b.ID, &b.ResourceID, &b.UserID, &b.StartTime, &b.EndTime,
		&b.TotalPrice, &status, &notes, &b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		return nil, err
	}
	b.Status = model.BookingStatus(status)
	if notes.Valid {
		n := notes.String
		b.Notes = &n
	}
	b.StartTime = b.StartTime.UTC()
	b.EndTime = b.EndTime.UTC()
	b.CreatedAt = b.CreatedAt.UTC()
	b.UpdatedAt = b.UpdatedAt.UTC()
	return &b, nil
}

// overlapCond matches bookings whose half-open [start_time, end_time)
// range intersects the bound [start, end) arguments.  The inequalities
// must stay identical to model.Interval.Overlaps: strictly-less on both
// sides, so boundary-touching bookings are not conflicts.
const overlapCond = `resource_id = ? AND status IN ('PENDING','CONFIRMED') AND start_time < ? AND end_time > ?`

// lockConflict reports whether err is an InnoDB deadlock (1213) or
// lock wait timeout (1205).  Two creators racing on the same free
// range take compatible gap locks during the SELECT ... FOR UPDATE
// scan and then collide on their insert-intention locks, so InnoDB
// kills the losing transaction with 1213 instead of letting it see
// the winner's committed row.  That loss is an overlap, not an
// internal failure.
func lockConflict(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && (me.Number == 1213 || me.Number == 1205)
}

// CreateBooking inserts a booking after re-verifying, under row locks,
// that no active booking overlaps the requested range.  The conflict
// check and the insert run in one transaction; a plain read-then-write
// outside a transaction would let two concurrent creators both pass
// the check.  On conflict it returns ErrOverlap and writes nothing.
//
// beforeCommit, when non-nil, runs inside the transaction after the
// row has been inserted and read back; returning an error rolls the
// insert back.  The service layer uses it to publish the creation
// notification so that a persisted booking without an emitted event
// can never be observed.
func (r *BookingRepo) CreateBooking(ctx context.Context, b *model.Booking, beforeCommit func(*model.Booking) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Lock the overlapping index range before deciding.
	var conflictID uint64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM bookings WHERE `+overlapCond+` LIMIT 1 FOR UPDATE`,
		b.ResourceID, b.EndTime, b.StartTime,
	).Scan(&conflictID)
	if err == nil {
		return ErrOverlap
	}
	if err != sql.ErrNoRows {
		if lockConflict(err) {
			return ErrOverlap
		}
		return err
	}

	var notes sql.NullString
	if b.Notes != nil {
		notes = sql.NullString{String: *b.Notes, Valid: true}
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO bookings (resource_id, user_id, start_time, end_time, total_price_cents, status, notes) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.ResourceID, b.UserID, b.StartTime, b.EndTime, int64(b.TotalPrice), string(b.Status), notes,
	)
	if err != nil {
		if lockConflict(err) {
			return ErrOverlap
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	// Read the row back to pick up DB-assigned timestamps.
	created, err := scanBooking(tx.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, uint64(id)))
	if err != nil {
		return err
	}
	*b = *created

	if beforeCommit != nil {
		if err := beforeCommit(b); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// FindConflicting returns the active bookings for a resource that
// overlap [start, end).  It takes no locks and is used for the pure
// availability query and the fast-path check before creation.
func (r *BookingRepo) FindConflicting(ctx context.Context, resourceID uint64, start, end time.Time) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE `+overlapCond,
		resourceID, end, start,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

// GetByID returns a booking by primary key.  sql.ErrNoRows is returned
// when the booking does not exist.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	return scanBooking(r.db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id))
}

// GetByIDForUser returns a booking only when it belongs to the given
// user.  A missing row and a row owned by someone else are both
// reported as sql.ErrNoRows so that callers cannot probe for foreign
// booking ids.
func (r *BookingRepo) GetByIDForUser(ctx context.Context, id uint64, userID string) (*model.Booking, error) {
	return scanBooking(r.db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = ? AND user_id = ?`, id, userID))
}

// ListByUser returns all bookings created by the given user, newest
// first.  When none exist an empty slice is returned.
func (r *BookingRepo) ListByUser(ctx context.Context, userID string) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

// ListByResource returns all bookings for a resource, newest first.
func (r *BookingRepo) ListByResource(ctx context.Context, resourceID uint64) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE resource_id = ? ORDER BY created_at DESC`, resourceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

// UpdateStatus sets the booking's status and returns the refreshed
// row.  The UPDATE itself refuses to touch rows already in a terminal
// state, so a transition racing with a concurrent completion or
// cancellation cannot overwrite it; such rows are reported as
// ErrTerminalStatus.  sql.ErrNoRows is returned when the booking does
// not exist.
func (r *BookingRepo) UpdateStatus(ctx context.Context, id uint64, status model.BookingStatus) (*model.Booking, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET status = ? WHERE id = ? AND status NOT IN ('CANCELLED','COMPLETED')`,
		string(status), id)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		// Missing, guarded out, or a no-op write of the current value.
		b, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if b.IsTerminal() {
			return nil, ErrTerminalStatus
		}
		return b, nil
	}
	return r.GetByID(ctx, id)
}

func collectBookings(rows *sql.Rows) ([]model.Booking, error) {
	out := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
