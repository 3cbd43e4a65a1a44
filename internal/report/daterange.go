package report

import "time"

const dateLayout = "2006-01-02"

// DateRange is an inclusive calendar window. A zero bound is open.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// ParseDateRange reads YYYY-MM-DD bounds; empty strings stay open.
func ParseDateRange(start, end string) (DateRange, error) {
	var r DateRange
	var err error
	if start != "" {
		if r.Start, err = time.Parse(dateLayout, start); err != nil {
			return DateRange{}, err
		}
	}
	if end != "" {
		if r.End, err = time.Parse(dateLayout, end); err != nil {
			return DateRange{}, err
		}
	}
	return r, nil
}

func (r DateRange) Open() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

// Contains compares calendar dates only, so End covers the whole day.
func (r DateRange) Contains(t time.Time) bool {
	d := dayOf(t)
	if !r.Start.IsZero() && d.Before(dayOf(r.Start)) {
		return false
	}
	if !r.End.IsZero() && d.After(dayOf(r.End)) {
		return false
	}
	return true
}

func (r DateRange) String() string {
	var start, end string
	if !r.Start.IsZero() {
		start = r.Start.Format(dateLayout)
	}
	if !r.End.IsZero() {
		end = r.End.Format(dateLayout)
	}
	return start + ".." + end
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
