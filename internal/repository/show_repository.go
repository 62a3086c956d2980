package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/dinner-theater-booking/internal/model"
)

// ErrShowNotFound indicates that a show was not located in the DB.
var ErrShowNotFound = errors.New("show not found")

// ShowRepo manages persistence for shows.  Dates are stored as
// YYYY-MM-DD strings and are unique: one show per date.
type ShowRepo struct {
	db *sql.DB
}

// NewShowRepo constructs a ShowRepo with the given DB handle.
func NewShowRepo(db *sql.DB) *ShowRepo {
	return &ShowRepo{db: db}
}

const showColumns = `id, show_date, name, show_type, capacity, is_closed, start_time, end_time, created_at, updated_at`

func scanShow(row rowScanner) (model.ShowEvent, error) {
	var s model.ShowEvent
	err := row.Scan(&s.ID, &s.Date, &s.Name, &s.Type, &s.Capacity, &s.IsClosed, &s.StartTime, &s.EndTime, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func collectShows(rows *sql.Rows) ([]model.ShowEvent, error) {
	defer rows.Close()
	result := []model.ShowEvent{}
	for rows.Next() {
		s, err := scanShow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Create inserts a new show.  An empty ID is replaced with a fresh uuid
// and the timestamps are set.  A second show on the same date returns
// ErrDuplicate.
func (r *ShowRepo) Create(ctx context.Context, s *model.ShowEvent) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	now := time.Now().UTC().Truncate(time.Second)
	s.CreatedAt, s.UpdatedAt = now, now

	const q = `INSERT INTO shows (` + showColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, s.ID, s.Date, s.Name, s.Type, s.Capacity, s.IsClosed, s.StartTime, s.EndTime, s.CreatedAt, s.UpdatedAt)
	if isDuplicate(err) {
		return fmt.Errorf("show on %s: %w", s.Date, ErrDuplicate)
	}
	return err
}

// GetByID retrieves a show by its ID.  It returns ErrShowNotFound if
// there is no matching row.
func (r *ShowRepo) GetByID(ctx context.Context, id string) (*model.ShowEvent, error) {
	const q = `SELECT ` + showColumns + ` FROM shows WHERE id = ?`
	s, err := scanShow(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrShowNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetByDate returns the show scheduled on date or ErrShowNotFound.
func (r *ShowRepo) GetByDate(ctx context.Context, date string) (*model.ShowEvent, error) {
	const q = `SELECT ` + showColumns + ` FROM shows WHERE show_date = ?`
	s, err := scanShow(r.db.QueryRowContext(ctx, q, date))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrShowNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListByMonth returns the shows of a YYYY-MM month ordered by date.
func (r *ShowRepo) ListByMonth(ctx context.Context, month string) ([]model.ShowEvent, error) {
	first, last, err := model.MonthBounds(month)
	if err != nil {
		return nil, fmt.Errorf("invalid month %q: %w", month, err)
	}
	const q = `SELECT ` + showColumns + ` FROM shows WHERE show_date BETWEEN ? AND ? ORDER BY show_date ASC`
	rows, err := r.db.QueryContext(ctx, q, first, last)
	if err != nil {
		return nil, err
	}
	return collectShows(rows)
}

// Update writes every mutable field of s.  The date is fixed once a show
// exists; reservations refer to it.
func (r *ShowRepo) Update(ctx context.Context, s *model.ShowEvent) error {
	s.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	const q = `UPDATE shows SET name = ?, show_type = ?, capacity = ?, is_closed = ?, start_time = ?, end_time = ?, updated_at = ?
               WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, s.Name, s.Type, s.Capacity, s.IsClosed, s.StartTime, s.EndTime, s.UpdatedAt, s.ID)
	if err != nil {
		return err
	}
	return r.affectedOrMissing(ctx, res, s.ID)
}

// SetClosed flips the waitlist-only flag of a show.
func (r *ShowRepo) SetClosed(ctx context.Context, id string, closed bool) error {
	const q = `UPDATE shows SET is_closed = ?, updated_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, closed, time.Now().UTC().Truncate(time.Second), id)
	if err != nil {
		return err
	}
	return r.affectedOrMissing(ctx, res, id)
}

// affectedOrMissing tells "no such row" apart from an UPDATE that
// matched but changed nothing (MySQL reports 0 affected rows then).
func (r *ShowRepo) affectedOrMissing(ctx context.Context, res sql.Result, id string) error {
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM shows WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrShowNotFound
	}
	return err
}

// openReservations counts pending and confirmed reservations on date.
func openReservations(ctx context.Context, q interface {
	QueryRowContext(context.Context, string, ...any) *sql.Row
}, date string) (int, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reservations WHERE show_date = ? AND status IN (?, ?)`,
		date, model.StatusPending, model.StatusConfirmed,
	).Scan(&n)
	return n, err
}

// Delete removes a show.  A show that still has pending or confirmed
// reservations is not deleted and ErrConflict is returned.
func (r *ShowRepo) Delete(ctx context.Context, id string) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	var date string
	err = tx.QueryRowContext(ctx, `SELECT show_date FROM shows WHERE id = ?`, id).Scan(&date)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrShowNotFound
	}
	if err != nil {
		return err
	}
	n, err := openReservations(ctx, tx, date)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrConflict
	}
	_, err = tx.ExecContext(ctx, `DELETE FROM shows WHERE id = ?`, id)
	return err
}

// DeleteCriteria selects shows for a bulk delete inside one month.  Empty
// fields do not filter; From and To bound the date range inclusively.
type DeleteCriteria struct {
	Month string `json:"month"`
	Name  string `json:"name,omitempty"`
	Type  string `json:"type,omitempty"`
	From  string `json:"from,omitempty"`
	To    string `json:"to,omitempty"`
}

// ErrNoCriteria is returned by DeleteByCriteria when nothing narrows the
// month down.
var ErrNoCriteria = errors.New("at least one of name, type or date range is required")

// BulkDeleteResult lists the dates removed and the dates kept because
// they still had open reservations.
type BulkDeleteResult struct {
	Deleted []string `json:"deleted"`
	Skipped []string `json:"skipped"`
}

// DeleteByCriteria removes every show in c.Month matching all given
// criteria.  Shows with open reservations are skipped, not deleted.
func (r *ShowRepo) DeleteByCriteria(ctx context.Context, c DeleteCriteria) (res BulkDeleteResult, err error) {
	first, last, err := model.MonthBounds(c.Month)
	if err != nil {
		return res, fmt.Errorf("invalid month %q: %w", c.Month, err)
	}
	if c.Name == "" && c.Type == "" && c.From == "" && c.To == "" {
		return res, ErrNoCriteria
	}
	if c.From != "" && c.From > first {
		first = c.From
	}
	if c.To != "" && c.To < last {
		last = c.To
	}

	where := []string{"show_date BETWEEN ? AND ?"}
	args := []any{first, last}
	if c.Name != "" {
		where = append(where, "name = ?")
		args = append(args, c.Name)
	}
	if c.Type != "" {
		where = append(where, "show_type = ?")
		args = append(args, c.Type)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return res, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	rows, err := tx.QueryContext(ctx, `SELECT id, show_date FROM shows WHERE `+strings.Join(where, " AND ")+` ORDER BY show_date`, args...)
	if err != nil {
		return res, err
	}
	type target struct{ id, date string }
	var targets []target
	for rows.Next() {
		var t target
		if err = rows.Scan(&t.id, &t.date); err != nil {
			rows.Close()
			return res, err
		}
		targets = append(targets, t)
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return res, err
	}

	res = BulkDeleteResult{Deleted: []string{}, Skipped: []string{}}
	for _, t := range targets {
		var n int
		if n, err = openReservations(ctx, tx, t.date); err != nil {
			return res, err
		}
		if n > 0 {
			res.Skipped = append(res.Skipped, t.date)
			continue
		}
		if _, err = tx.ExecContext(ctx, `DELETE FROM shows WHERE id = ?`, t.id); err != nil {
			return res, err
		}
		res.Deleted = append(res.Deleted, t.date)
	}
	return res, nil
}
