package capacity

import (
	"time"

	"github.com/iliyamo/dinner-theater-booking/internal/model"
)

// Cell is one day of the admin calendar.
type Cell struct {
	Date      string           `json:"date"`
	Show      *model.ShowEvent `json:"show,omitempty"`
	Booked    int              `json:"booked"`
	Available int              `json:"available"`
	Level     Level            `json:"level"`
	Waitlist  int              `json:"waitlist"`
}

// BuildMonth produces one cell per day of month (YYYY-MM).  Available is
// the raw value so overbooking stays visible.  Waitlist counts the
// guests of active and notified entries.
func BuildMonth(month string, shows []model.ShowEvent, reservations []model.Reservation, waitlist []model.WaitingListEntry) ([]Cell, error) {
	start, err := time.Parse(model.MonthLayout, month)
	if err != nil {
		return nil, err
	}
	byDate := ShowsByDate(shows)
	booked := GuestCountByDate(reservations)
	waiting := make(map[string]int)
	for _, w := range waitlist {
		if w.Status == model.WaitlistActive || w.Status == model.WaitlistNotified {
			waiting[w.Date] += w.Guests
		}
	}

	var cells []Cell
	for d := start; d.Month() == start.Month(); d = d.AddDate(0, 0, 1) {
		key := d.Format(model.DateLayout)
		cell := Cell{Date: key, Booked: booked[key], Waitlist: waiting[key], Level: LevelNone}
		if s, ok := byDate[key]; ok {
			show := s
			cell.Show = &show
			cell.Available = show.Capacity - cell.Booked
			cell.Level = LevelFor(cell.Booked, show.Capacity)
			if show.IsClosed && cell.Level != LevelFull {
				cell.Level = LevelClosed
			}
		}
		cells = append(cells, cell)
	}
	return cells, nil
}
