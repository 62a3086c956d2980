package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/dinner-theater-booking/internal/model"
)

// ErrWaitlistNotFound indicates that a waitlist entry was not located.
var ErrWaitlistNotFound = errors.New("waitlist entry not found")

// WaitlistRepo stores requests for seats on full or closed dates.
type WaitlistRepo struct {
	db *sql.DB
}

func NewWaitlistRepo(db *sql.DB) *WaitlistRepo { return &WaitlistRepo{db: db} }

const waitlistColumns = `id, show_date, name, email, phone, guests, status, accept_partial, source, created_at`

func scanWaitlist(row rowScanner) (model.WaitingListEntry, error) {
	var w model.WaitingListEntry
	err := row.Scan(&w.ID, &w.Date, &w.Name, &w.Email, &w.Phone, &w.Guests, &w.Status, &w.AcceptPartial, &w.Source, &w.CreatedAt)
	return w, err
}

// Create inserts an entry.  Empty status defaults to active.
func (r *WaitlistRepo) Create(ctx context.Context, w *model.WaitingListEntry) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	if w.Status == "" {
		w.Status = model.WaitlistActive
	}
	w.CreatedAt = time.Now().UTC().Truncate(time.Second)
	const q = `INSERT INTO waitlist_entries (` + waitlistColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, w.ID, w.Date, w.Name, w.Email, w.Phone, w.Guests, w.Status, w.AcceptPartial, w.Source, w.CreatedAt)
	if isDuplicate(err) {
		return ErrDuplicate
	}
	return err
}

func (r *WaitlistRepo) GetByID(ctx context.Context, id string) (*model.WaitingListEntry, error) {
	const q = `SELECT ` + waitlistColumns + ` FROM waitlist_entries WHERE id = ?`
	w, err := scanWaitlist(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrWaitlistNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// ListByDate returns the entries for a date in arrival order.
func (r *WaitlistRepo) ListByDate(ctx context.Context, date string) ([]model.WaitingListEntry, error) {
	const q = `SELECT ` + waitlistColumns + ` FROM waitlist_entries WHERE show_date = ? ORDER BY created_at, id`
	return r.list(ctx, q, date)
}

// ListByRange returns the entries between two date keys inclusive.
func (r *WaitlistRepo) ListByRange(ctx context.Context, from, to string) ([]model.WaitingListEntry, error) {
	const q = `SELECT ` + waitlistColumns + ` FROM waitlist_entries WHERE show_date BETWEEN ? AND ? ORDER BY show_date, created_at, id`
	return r.list(ctx, q, from, to)
}

func (r *WaitlistRepo) list(ctx context.Context, q string, args ...any) ([]model.WaitingListEntry, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.WaitingListEntry{}
	for rows.Next() {
		w, err := scanWaitlist(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// SetStatus moves an entry from one status to another, guarded like
// ReservationRepo.SetStatus.
func (r *WaitlistRepo) SetStatus(ctx context.Context, id string, from, to model.WaitlistStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE waitlist_entries SET status = ? WHERE id = ? AND status = ?`, to, id, from)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return ErrConflict
}

func (r *WaitlistRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM waitlist_entries WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrWaitlistNotFound
	}
	return nil
}
