// Package repository contains the MySQL data access layer. Each repository
// wraps a *sql.DB handle passed in at construction so components can be
// wired against a test database or swapped for in-memory fakes behind the
// handler-side store interfaces.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/cinema-ticket-system/internal/model"
)

// ScreeningRepo manages persistence for screenings and their venue
// geometry.  Deleting a screening cascades to its holds and reservations
// through the foreign keys declared in the schema.
type ScreeningRepo struct {
	db *sql.DB
}

// NewScreeningRepo constructs a ScreeningRepo with the given DB handle.
func NewScreeningRepo(db *sql.DB) *ScreeningRepo {
	return &ScreeningRepo{db: db}
}

const screeningColumns = `id, title, seat_rows, seats_per_row, starts_at, price_cents, created_at, updated_at`

func scanScreening(row interface{ Scan(...any) error }, s *model.Screening) error {
	return row.Scan(&s.ID, &s.Title, &s.SeatRows, &s.SeatsPerRow, &s.StartsAt, &s.PriceCents, &s.CreatedAt, &s.UpdatedAt)
}

// Create inserts a new screening and populates the generated ID and the
// DB-default timestamps on the passed struct.
func (r *ScreeningRepo) Create(ctx context.Context, s *model.Screening) error {
	const q = `INSERT INTO screenings (title, seat_rows, seats_per_row, starts_at, price_cents) VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, s.Title, s.SeatRows, s.SeatsPerRow, s.StartsAt.UTC(), s.PriceCents)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	const sel = `SELECT ` + screeningColumns + ` FROM screenings WHERE id = ?`
	return scanScreening(r.db.QueryRowContext(ctx, sel, s.ID), s)
}

// GetByID retrieves a screening by its ID.  It returns
// ErrScreeningNotFound when no matching row exists.
func (r *ScreeningRepo) GetByID(ctx context.Context, id uint64) (*model.Screening, error) {
	const q = `SELECT ` + screeningColumns + ` FROM screenings WHERE id = ?`
	var s model.Screening
	if err := scanScreening(r.db.QueryRowContext(ctx, q, id), &s); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrScreeningNotFound
		}
		return nil, err
	}
	return &s, nil
}

// ListAll returns every screening ordered by start time ascending.
func (r *ScreeningRepo) ListAll(ctx context.Context) ([]model.Screening, error) {
	const q = `SELECT ` + screeningColumns + ` FROM screenings ORDER BY starts_at ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Screening
	for rows.Next() {
		var s model.Screening
		if err := scanScreening(rows, &s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Update applies an administrative edit to a screening.  All editable
// fields are written; the updated_at column advances via the DB default.
// It returns ErrScreeningNotFound when the screening does not exist.
func (r *ScreeningRepo) Update(ctx context.Context, s *model.Screening) error {
	const q = `UPDATE screenings SET title = ?, seat_rows = ?, seats_per_row = ?, starts_at = ?, price_cents = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, s.Title, s.SeatRows, s.SeatsPerRow, s.StartsAt.UTC(), s.PriceCents, s.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Either the row is missing or the update was a no-op; a
		// follow-up read tells the two apart.
		const sel = `SELECT ` + screeningColumns + ` FROM screenings WHERE id = ?`
		var cur model.Screening
		if err := scanScreening(r.db.QueryRowContext(ctx, sel, s.ID), &cur); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrScreeningNotFound
			}
			return err
		}
		*s = cur
		return nil
	}
	const sel = `SELECT ` + screeningColumns + ` FROM screenings WHERE id = ?`
	return scanScreening(r.db.QueryRowContext(ctx, sel, s.ID), s)
}

// Delete removes a screening.  The foreign keys cascade the delete to the
// screening's holds and reservations.  It returns ErrScreeningNotFound
// when no row was deleted.
func (r *ScreeningRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM screenings WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrScreeningNotFound
	}
	return nil
}
