package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/cinema-ticket-system/internal/model"
)

// SeatHoldRepo provides data access to the seat_holds table.  All
// timestamp comparisons happen in UTC against the database clock
// (UTC_TIMESTAMP()), matching how rows are written.
//
// Holds are soft state: nothing here deletes rows.  Release, batch
// rollback and the expiry sweep only flip the active flag so the table
// keeps a history of every hold ever taken.
type SeatHoldRepo struct {
	db *sql.DB
}

// NewSeatHoldRepo returns a new SeatHoldRepo bound to the provided database.
func NewSeatHoldRepo(db *sql.DB) *SeatHoldRepo { return &SeatHoldRepo{db: db} }

// CreateBatch attempts to hold every requested seat for the user, all or
// nothing.  Inside one transaction it locks the matching reservation and
// live-hold rows with FOR UPDATE, and if any requested seat is already
// reserved or held the transaction is rolled back and a
// *SeatUnavailableError listing the conflicting positions is returned.
// Otherwise one hold per seat is inserted, all sharing the same expiry,
// and the created holds are returned with their generated IDs.
//
// The caller is expected to have validated the positions against the
// venue geometry already; this method only arbitrates conflicts.
func (r *SeatHoldRepo) CreateBatch(ctx context.Context, userID, screeningID uint64, seats []model.SeatPosition, expiresAt time.Time) ([]model.SeatHold, error) {
	if len(seats) == 0 {
		return []model.SeatHold{}, nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	taken := make(map[model.SeatPosition]bool)

	// Lock committed reservations covering the requested seats.
	resQuery, args := seatFilterQuery(
		`SELECT row_num, seat_number FROM reservations WHERE screening_id = ? AND (row_num, seat_number) IN `,
		screeningID, seats,
	)
	if err := collectPositions(ctx, tx, resQuery+" FOR UPDATE", args, taken); err != nil {
		return nil, err
	}

	// Lock live holds covering the requested seats.  Expired rows are
	// ignored even when the reaper has not deactivated them yet.
	holdQuery, holdArgs := seatFilterQuery(
		`SELECT row_num, seat_number FROM seat_holds WHERE screening_id = ? AND active = 1 AND expires_at > UTC_TIMESTAMP() AND (row_num, seat_number) IN `,
		screeningID, seats,
	)
	if err := collectPositions(ctx, tx, holdQuery+" FOR UPDATE", holdArgs, taken); err != nil {
		return nil, err
	}

	if len(taken) > 0 {
		conflicts := make([]model.SeatPosition, 0, len(taken))
		for _, p := range seats {
			if taken[p] {
				conflicts = append(conflicts, p)
			}
		}
		return nil, &SeatUnavailableError{Seats: conflicts}
	}

	// Insert one row per seat.  Rows are inserted individually so each
	// generated ID can be captured; batches are small (one checkout).
	const ins = `INSERT INTO seat_holds (user_id, screening_id, row_num, seat_number, active, expires_at) VALUES (?, ?, ?, ?, 1, ?)`
	created := make([]model.SeatHold, 0, len(seats))
	now := time.Now().UTC()
	for _, p := range seats {
		res, err := tx.ExecContext(ctx, ins, userID, screeningID, p.Row, p.Seat, expiresAt.UTC())
		if err != nil {
			return nil, err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, err
		}
		created = append(created, model.SeatHold{
			ID:          uint64(id),
			UserID:      userID,
			ScreeningID: screeningID,
			Row:         p.Row,
			Seat:        p.Seat,
			Active:      true,
			HeldAt:      now,
			ExpiresAt:   expiresAt.UTC(),
		})
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return created, nil
}

// Deactivate releases the named holds on behalf of the user.  Every id
// must refer to an existing, still-active hold owned by the caller: a
// missing or already-released hold yields ErrHoldNotFound, a hold owned
// by someone else yields ErrForbidden, and in either case no hold in the
// batch is released.
func (r *SeatHoldRepo) Deactivate(ctx context.Context, userID uint64, holdIDs []uint64) error {
	if len(holdIDs) == 0 {
		return nil
	}
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

	query := `SELECT id, user_id, active FROM seat_holds WHERE id IN (`
	args := make([]interface{}, 0, len(holdIDs))
	for i, id := range holdIDs {
		if i > 0 {
			query += ","
		}
		query += "?"
		args = append(args, id)
	}
	query += ") FOR UPDATE"

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	type holdRow struct {
		owner  uint64
		active bool
	}
	found := make(map[uint64]holdRow, len(holdIDs))
	for rows.Next() {
		var id, owner uint64
		var active bool
		if scanErr := rows.Scan(&id, &owner, &active); scanErr != nil {
			rows.Close()
			return scanErr
		}
		found[id] = holdRow{owner: owner, active: active}
	}
	if err := rows.Close(); err != nil {
		return err
	}
	for _, id := range holdIDs {
		h, ok := found[id]
		if !ok || !h.active {
			return ErrHoldNotFound
		}
		if h.owner != userID {
			return ErrForbidden
		}
	}

	upd := `UPDATE seat_holds SET active = 0 WHERE id IN (`
	for i := range holdIDs {
		if i > 0 {
			upd += ","
		}
		upd += "?"
	}
	upd += ")"
	if _, err := tx.ExecContext(ctx, upd, args...); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// DeactivateAllForUser releases every active hold owned by the user and
// returns how many were released.  It is an idempotent no-op when the
// user holds nothing.
func (r *SeatHoldRepo) DeactivateAllForUser(ctx context.Context, userID uint64) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE seat_holds SET active = 0 WHERE user_id = ? AND active = 1`, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListActiveByUser returns the user's holds that are active and not yet
// expired, newest first.
func (r *SeatHoldRepo) ListActiveByUser(ctx context.Context, userID uint64) ([]model.SeatHold, error) {
	const q = `SELECT id, user_id, screening_id, row_num, seat_number, active, held_at, expires_at
               FROM seat_holds
               WHERE user_id = ? AND active = 1 AND expires_at > UTC_TIMESTAMP()
               ORDER BY held_at DESC, id DESC`
	return r.queryHolds(ctx, q, userID)
}

// ListActiveByScreening returns every active, unexpired hold for a
// screening.  The inventory view feeds on this to mark seats HELD.
func (r *SeatHoldRepo) ListActiveByScreening(ctx context.Context, screeningID uint64) ([]model.SeatHold, error) {
	const q = `SELECT id, user_id, screening_id, row_num, seat_number, active, held_at, expires_at
               FROM seat_holds
               WHERE screening_id = ? AND active = 1 AND expires_at > UTC_TIMESTAMP()`
	return r.queryHolds(ctx, q, screeningID)
}

// DeactivateExpired flips active to 0 on every hold whose expiry has
// passed and returns the number of rows affected.  This is the bulk
// operation behind the expiry reaper; correctness never depends on it
// because readers and conflict checks filter on expires_at themselves.
func (r *SeatHoldRepo) DeactivateExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE seat_holds SET active = 0 WHERE active = 1 AND expires_at <= UTC_TIMESTAMP()`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *SeatHoldRepo) queryHolds(ctx context.Context, query string, args ...interface{}) ([]model.SeatHold, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var holds []model.SeatHold
	for rows.Next() {
		var h model.SeatHold
		if err := rows.Scan(&h.ID, &h.UserID, &h.ScreeningID, &h.Row, &h.Seat, &h.Active, &h.HeldAt, &h.ExpiresAt); err != nil {
			return nil, err
		}
		holds = append(holds, h)
	}
	return holds, rows.Err()
}

// seatFilterQuery appends a row-constructor IN list for the given seat
// positions to the prefix and returns the full query plus its arguments.
func seatFilterQuery(prefix string, screeningID uint64, seats []model.SeatPosition) (string, []interface{}) {
	query := prefix + "("
	args := make([]interface{}, 0, 1+len(seats)*2)
	args = append(args, screeningID)
	for i, p := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?)"
		args = append(args, p.Row, p.Seat)
	}
	query += ")"
	return query, args
}

// collectPositions runs a (row, seat) query inside the transaction and
// records each returned position in the taken set.
func collectPositions(ctx context.Context, tx *sql.Tx, query string, args []interface{}, taken map[model.SeatPosition]bool) error {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	for rows.Next() {
		var p model.SeatPosition
		if scanErr := rows.Scan(&p.Row, &p.Seat); scanErr != nil {
			rows.Close()
			return scanErr
		}
		taken[p] = true
	}
	return rows.Close()
}
