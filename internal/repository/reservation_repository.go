package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/dinner-theater-booking/internal/model"
)

// ErrReservationNotFound indicates that a reservation was not located.
var ErrReservationNotFound = errors.New("reservation not found")

// ReservationRepo provides CRUD operations for reservations.  Addons are
// stored as a JSON object in a TEXT column.  All timestamps are UTC.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = `id, show_date, name, email, phone, guests, package, status, checked_in,
	total_price_cents, addons, discount_code, notes, created_at, updated_at`

func scanReservation(row rowScanner) (model.Reservation, error) {
	var (
		r      model.Reservation
		addons string
	)
	err := row.Scan(&r.ID, &r.Date, &r.Name, &r.Email, &r.Phone, &r.Guests, &r.Package, &r.Status, &r.CheckedIn,
		&r.TotalPrice, &addons, &r.DiscountCode, &r.Notes, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return r, err
	}
	if addons != "" && addons != "{}" {
		if err := json.Unmarshal([]byte(addons), &r.Addons); err != nil {
			return r, fmt.Errorf("reservation %s addons: %w", r.ID, err)
		}
	}
	return r, nil
}

func encodeAddons(a map[string]int) (string, error) {
	if len(a) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(a)
	return string(b), err
}

func (r *ReservationRepo) list(ctx context.Context, q string, args ...any) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Reservation{}
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// Create inserts a reservation, assigning an ID and timestamps.  An
// empty status is stored as pending.
func (r *ReservationRepo) Create(ctx context.Context, res *model.Reservation) error {
	if res.ID == "" {
		res.ID = uuid.NewString()
	}
	if res.Status == "" {
		res.Status = model.StatusPending
	}
	addons, err := encodeAddons(res.Addons)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Truncate(time.Second)
	res.CreatedAt, res.UpdatedAt = now, now

	const q = `INSERT INTO reservations (` + reservationColumns + `)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, q, res.ID, res.Date, res.Name, res.Email, res.Phone, res.Guests, res.Package,
		res.Status, res.CheckedIn, res.TotalPrice, addons, res.DiscountCode, res.Notes, res.CreatedAt, res.UpdatedAt)
	if isDuplicate(err) {
		return ErrDuplicate
	}
	return err
}

// GetByID returns one reservation or ErrReservationNotFound.
func (r *ReservationRepo) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
	res, err := scanReservation(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// ListByDate returns every reservation for a show date, oldest first.
func (r *ReservationRepo) ListByDate(ctx context.Context, date string) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE show_date = ? ORDER BY created_at, id`
	return r.list(ctx, q, date)
}

// ListByMonth returns the reservations of a YYYY-MM month.
func (r *ReservationRepo) ListByMonth(ctx context.Context, month string) ([]model.Reservation, error) {
	first, last, err := model.MonthBounds(month)
	if err != nil {
		return nil, fmt.Errorf("invalid month %q: %w", month, err)
	}
	const q = `SELECT ` + reservationColumns + ` FROM reservations
               WHERE show_date BETWEEN ? AND ? ORDER BY show_date, created_at, id`
	return r.list(ctx, q, first, last)
}

// Update writes the editable booking fields.  Status and check-in have
// their own methods.
func (r *ReservationRepo) Update(ctx context.Context, res *model.Reservation) error {
	addons, err := encodeAddons(res.Addons)
	if err != nil {
		return err
	}
	res.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	const q = `UPDATE reservations
               SET show_date = ?, name = ?, email = ?, phone = ?, guests = ?, package = ?,
                   total_price_cents = ?, addons = ?, discount_code = ?, notes = ?, updated_at = ?
               WHERE id = ?`
	result, err := r.db.ExecContext(ctx, q, res.Date, res.Name, res.Email, res.Phone, res.Guests, res.Package,
		res.TotalPrice, addons, res.DiscountCode, res.Notes, res.UpdatedAt, res.ID)
	if err != nil {
		return err
	}
	return r.affectedOrMissing(ctx, result, res.ID)
}

// SetCheckedIn records whether the party has arrived.
func (r *ReservationRepo) SetCheckedIn(ctx context.Context, id string, checkedIn bool) error {
	const q = `UPDATE reservations SET checked_in = ?, updated_at = ? WHERE id = ?`
	result, err := r.db.ExecContext(ctx, q, checkedIn, time.Now().UTC().Truncate(time.Second), id)
	if err != nil {
		return err
	}
	return r.affectedOrMissing(ctx, result, id)
}

// SetStatus moves a reservation from one status to another.  The update
// only applies while the stored status is still from; otherwise
// ErrConflict is returned so concurrent transitions cannot both win.
func (r *ReservationRepo) SetStatus(ctx context.Context, id string, from, to model.ReservationStatus) error {
	const q = `UPDATE reservations SET status = ?, updated_at = ? WHERE id = ? AND status = ?`
	result, err := r.db.ExecContext(ctx, q, to, time.Now().UTC().Truncate(time.Second), id, from)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n > 0 {
		return nil
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return ErrConflict
}

// Delete removes a reservation.
func (r *ReservationRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrReservationNotFound
	}
	return nil
}

func (r *ReservationRepo) affectedOrMissing(ctx context.Context, result sql.Result, id string) error {
	if n, _ := result.RowsAffected(); n > 0 {
		return nil
	}
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM reservations WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrReservationNotFound
	}
	return err
}
