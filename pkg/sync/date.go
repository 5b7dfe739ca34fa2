package sync

import (
	"time"

	"github.com/quentinwalden/thingsync/pkg/things"
)

// displayDate resolves the date a task should show on the remote side.
// The start date wins over the deadline; neither means the remote date must
// be cleared. Incomplete tasks surfaced in Today are redated to today when
// their date has slipped into the past, so the remote view matches what
// Things shows. A resolved task keeps its historical date untouched.
func displayDate(t things.Task, now time.Time) things.Date {
	d := t.StartDate
	if !d.Valid {
		d = t.Deadline
	}
	if !d.Valid {
		return things.Date{}
	}
	if t.Status != things.StatusIncomplete {
		return d
	}
	if t.Today {
		today := things.DateOf(now)
		if d.DateOnly().Before(today.Time) {
			return today
		}
	}
	return d
}
