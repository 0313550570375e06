package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/cinema-ticket-system/internal/model"
)

// mysqlDupEntry is the MySQL error number raised when an insert violates
// a unique key (ER_DUP_ENTRY).
const mysqlDupEntry = 1062

// ReservationRepo provides data access to the reservations table.  The
// unique key on (screening_id, row_num, seat_number) is the single
// concurrency-control mechanism for seat ownership: of two concurrent
// inserts for the same seat exactly one commits, and the loser's
// duplicate-key error is translated into ErrSeatAlreadyReserved.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// Create inserts a reservation for the seat carried in r and populates
// the generated ID, version and creation timestamp.  An existing
// reservation for the same seat yields ErrSeatAlreadyReserved, whether it
// was present before the call or raced this one to the unique key: the
// pre-check below only exists to skip a doomed insert cheaply, the
// constraint is what actually decides.
func (r *ReservationRepo) Create(ctx context.Context, res *model.Reservation) error {
	const check = `SELECT 1 FROM reservations WHERE screening_id = ? AND row_num = ? AND seat_number = ? LIMIT 1`
	var one int
	err := r.db.QueryRowContext(ctx, check, res.ScreeningID, res.Row, res.Seat).Scan(&one)
	if err == nil {
		return ErrSeatAlreadyReserved
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	const ins = `INSERT INTO reservations (user_id, screening_id, row_num, seat_number) VALUES (?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, ins, res.UserID, res.ScreeningID, res.Row, res.Seat)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlDupEntry {
			// Lost the race: someone inserted the same seat between
			// the check and this write.
			return ErrSeatAlreadyReserved
		}
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	const sel = `SELECT id, user_id, screening_id, row_num, seat_number, paid, version, created_at FROM reservations WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, res.ID).Scan(
		&res.ID, &res.UserID, &res.ScreeningID, &res.Row, &res.Seat, &res.Paid, &res.Version, &res.CreatedAt,
	)
}

// Delete removes the reservation at (screeningID, row, seat) if it is
// owned by the caller.  A missing reservation and one owned by another
// user both return ErrReservationNotFound.  The freed seat simply becomes
// available again; nothing special-cases it.
func (r *ReservationRepo) Delete(ctx context.Context, userID, screeningID uint64, row, seat uint32) error {
	const del = `DELETE FROM reservations WHERE user_id = ? AND screening_id = ? AND row_num = ? AND seat_number = ?`
	res, err := r.db.ExecContext(ctx, del, userID, screeningID, row, seat)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrReservationNotFound
	}
	return nil
}

// ListByUser returns the user's reservations joined with their screening
// details, ordered by screening start time ascending.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]model.ReservationDetail, error) {
	const q = `SELECT r.id, r.user_id, r.screening_id, r.row_num, r.seat_number, r.paid, r.version, r.created_at,
                      s.title, s.starts_at, s.price_cents
               FROM reservations r
               JOIN screenings s ON s.id = r.screening_id
               WHERE r.user_id = ?
               ORDER BY s.starts_at ASC, r.id ASC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.ReservationDetail
	for rows.Next() {
		var d model.ReservationDetail
		if err := rows.Scan(
			&d.ID, &d.UserID, &d.ScreeningID, &d.Row, &d.Seat, &d.Paid, &d.Version, &d.CreatedAt,
			&d.ScreeningTitle, &d.StartsAt, &d.PriceCents,
		); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ListByScreening returns every reservation for a screening.  The
// inventory view feeds on this to mark seats RESERVED.
func (r *ReservationRepo) ListByScreening(ctx context.Context, screeningID uint64) ([]model.Reservation, error) {
	const q = `SELECT id, user_id, screening_id, row_num, seat_number, paid, version, created_at
               FROM reservations WHERE screening_id = ?`
	rows, err := r.db.QueryContext(ctx, q, screeningID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Reservation
	for rows.Next() {
		var res model.Reservation
		if err := rows.Scan(&res.ID, &res.UserID, &res.ScreeningID, &res.Row, &res.Seat, &res.Paid, &res.Version, &res.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// MarkPaid records the payment collaborator's confirmation on the user's
// reservation using an optimistic version check.  When the expected
// version is stale it returns UpdateVersionConflict with a nil error so
// callers branch on the result instead of catching; a reservation that
// does not exist for this user returns ErrReservationNotFound.
func (r *ReservationRepo) MarkPaid(ctx context.Context, userID, reservationID, expectedVersion uint64) (model.UpdateResult, error) {
	const upd = `UPDATE reservations SET paid = 1, version = version + 1 WHERE id = ? AND user_id = ? AND version = ?`
	res, err := r.db.ExecContext(ctx, upd, reservationID, userID, expectedVersion)
	if err != nil {
		return model.UpdateVersionConflict, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.UpdateVersionConflict, err
	}
	if n == 1 {
		return model.UpdateOK, nil
	}
	// Nothing changed: either the version was stale or the reservation
	// does not exist for this user.
	const sel = `SELECT 1 FROM reservations WHERE id = ? AND user_id = ? LIMIT 1`
	var one int
	if err := r.db.QueryRowContext(ctx, sel, reservationID, userID).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.UpdateVersionConflict, ErrReservationNotFound
		}
		return model.UpdateVersionConflict, err
	}
	return model.UpdateVersionConflict, nil
}
