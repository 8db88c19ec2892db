package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

type RecurrenceType string

const (
	RecurrenceNone    RecurrenceType = ""
	RecurrenceDaily   RecurrenceType = "daily"
	RecurrenceWeekly  RecurrenceType = "weekly"
	RecurrenceMonthly RecurrenceType = "monthly"
	RecurrenceCustom  RecurrenceType = "custom"
)

// Recurrence describes how an event repeats. Occurrence generation is a
// pure function of the descriptor and a date range.
type Recurrence struct {
	Type        RecurrenceType
	Weekdays    []time.Weekday // weekly
	DayOfMonth  int            // monthly
	CustomDates []time.Time    // custom
}

// PersistsParticipation reports whether per-user occurrence participation is
// stored. Daily recurrence is treated as always-active so we do not persist
// hundreds of future dates for it.
func (r Recurrence) PersistsParticipation() bool {
	return r.Type != RecurrenceNone && r.Type != RecurrenceDaily
}

// Occurrences returns the ordered occurrence dates within [start, end],
// both inclusive, normalized to midnight UTC.
func (r Recurrence) Occurrences(start, end time.Time) []time.Time {
	first := truncateDay(start)
	last := truncateDay(end)
	if last.Before(first) {
		return nil
	}

	switch r.Type {
	case RecurrenceDaily:
		var dates []time.Time
		for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
			dates = append(dates, d)
		}
		return dates

	case RecurrenceWeekly:
		allowed := make(map[time.Weekday]bool, len(r.Weekdays))
		for _, wd := range r.Weekdays {
			allowed[wd] = true
		}
		var dates []time.Time
		for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
			if allowed[d.Weekday()] {
				dates = append(dates, d)
			}
		}
		return dates

	case RecurrenceMonthly:
		if r.DayOfMonth < 1 || r.DayOfMonth > 31 {
			return nil
		}
		var dates []time.Time
		for y, m := first.Year(), first.Month(); ; {
			d := time.Date(y, m, r.DayOfMonth, 0, 0, 0, 0, time.UTC)
			// time.Date normalizes overflow, so day 31 in February lands
			// in March; a changed month means the day does not exist.
			if d.Month() == m && !d.Before(first) && !d.After(last) {
				dates = append(dates, d)
			}
			m++
			if m > time.December {
				m = time.January
				y++
			}
			if time.Date(y, m, 1, 0, 0, 0, 0, time.UTC).After(last) {
				break
			}
		}
		return dates

	case RecurrenceCustom:
		var dates []time.Time
		seen := make(map[time.Time]bool, len(r.CustomDates))
		for _, raw := range r.CustomDates {
			d := truncateDay(raw)
			if d.Before(first) || d.After(last) || seen[d] {
				continue
			}
			seen[d] = true
			dates = append(dates, d)
		}
		sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
		return dates
	}

	return nil
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// OccurrenceParticipation is one retained occurrence date for one user.
// Stored only for non-daily recurrence; past rows survive cancellation as a
// historical record while future ones are discarded.
type OccurrenceParticipation struct {
	ID      uuid.UUID
	EventID uuid.UUID
	UserID  uuid.UUID
	Date    time.Time
}

func NewOccurrenceParticipation(eventID, userID uuid.UUID, date time.Time) *OccurrenceParticipation {
	return &OccurrenceParticipation{
		ID:      uuid.New(),
		EventID: eventID,
		UserID:  userID,
		Date:    truncateDay(date),
	}
}
