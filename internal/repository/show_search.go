package repository

import (
	"context"
	"strings"

	"github.com/iliyamo/dinner-theater-booking/internal/model"
)

// ShowSearchQuery defines filters & pagination for searching shows.
// From and To are inclusive date keys; empty fields do not filter.
type ShowSearchQuery struct {
	Name     string
	Type     string
	From     string
	To       string
	Closed   *bool
	Page     int
	PageSize int
}

// Search returns one page of shows matching q ordered by date, plus the
// total number of matches.
func (r *ShowRepo) Search(ctx context.Context, q ShowSearchQuery) ([]model.ShowEvent, int64, error) {
	where := []string{}
	args := []any{}

	if q.Name != "" {
		where = append(where, "LOWER(name) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Name)+"%")
	}
	if q.Type != "" {
		where = append(where, "show_type = ?")
		args = append(args, q.Type)
	}
	if q.From != "" {
		where = append(where, "show_date >= ?")
		args = append(args, q.From)
	}
	if q.To != "" {
		where = append(where, "show_date <= ?")
		args = append(args, q.To)
	}
	if q.Closed != nil {
		where = append(where, "is_closed = ?")
		args = append(args, *q.Closed)
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM shows WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	if q.PageSize <= 0 {
		q.PageSize = 50
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	dataSQL := `SELECT ` + showColumns + ` FROM shows WHERE ` + cond + ` ORDER BY show_date ASC LIMIT ? OFFSET ?`
	argsData := append(append([]any{}, args...), q.PageSize, (q.Page-1)*q.PageSize)

	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	out, err := collectShows(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
