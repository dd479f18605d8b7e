package usecase

import (
	"log"
	"sync"
	"time"

	"github.com/charityquest/quest-admin/schema"
)

// TableRow is one detail table row, dates and times already rendered as
// display text for the table widget.
type TableRow struct {
	Username string `json:"username"`
	UserID   string `json:"entityid"`
	Time     string `json:"time"`
	Date     string `json:"date"`
}

// Selection is the resolved result of a chart interaction: the selected
// calendar date and the log rows of that date, in original log order.
type Selection struct {
	Date string     `json:"date"`
	Rows []TableRow `json:"rows"`
}

// Reconciler maps chart clicks to a selected date and the matching detail
// rows. It has two states, no selection and selected, and a click never
// transitions back to no selection.
//
// The selection is held per server, not per viewer: every dashboard
// session shares it, which is acceptable for an internal admin page with
// a single operator.
type Reconciler struct {
	logger *log.Logger

	mu       sync.Mutex
	selected *time.Time
}

func NewReconciler(logger *log.Logger) *Reconciler {
	return &Reconciler{logger: logger}
}

// Resolve resolves the selected date for a click payload, nil when no
// interaction happened, and filters the log to that date.
//
// ok is false only when there is nothing to select at all: no prior
// selection, no click and an empty series. A click whose x value is not a
// plain date resolves to an empty row set, matching the original
// behaviour where a mistyped x silently matches nothing.
func (r *Reconciler) Resolve(click *schema.ClickEvent, series schema.DailySeries, dayLog []schema.UserDayRow) (Selection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if click != nil && len(click.Points) > 0 {
		x := click.Points[0].X
		date, err := schema.ParseDate(x)
		if err != nil {
			if r.logger != nil {
				r.logger.Printf("click x value %q is not a date, selection matches no rows", x)
			}
			return Selection{Date: x, Rows: []TableRow{}}, true
		}
		r.selected = &date
		return r.buildSelection(date, dayLog), true
	}

	if r.selected != nil {
		return r.buildSelection(*r.selected, dayLog), true
	}

	// No interaction yet: default to the most recent day of the series.
	date, ok := series.MaxDate()
	if !ok {
		return Selection{Rows: []TableRow{}}, false
	}
	return r.buildSelection(date, dayLog), true
}

func (r *Reconciler) buildSelection(date time.Time, dayLog []schema.UserDayRow) Selection {
	return Selection{Date: schema.FormatDate(date), Rows: BuildTableRows(date, dayLog)}
}

// BuildTableRows filters the log to one date, preserving the original row
// order, and renders the rows for the table widget.
func BuildTableRows(date time.Time, dayLog []schema.UserDayRow) []TableRow {
	rows := make([]TableRow, 0)
	for _, row := range dayLog {
		if row.Date.Equal(date) {
			rows = append(rows, TableRow{
				Username: row.Username,
				UserID:   row.UserID,
				Time:     row.LocalTime.Format("15:04:05"),
				Date:     schema.FormatDate(row.Date),
			})
		}
	}
	return rows
}
