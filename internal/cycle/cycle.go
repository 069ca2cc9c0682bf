// Package cycle computes budget cycle windows anchored to a day of the month.
//
// A cycle starts on the user's anchor day and ends the day before the next
// cycle starts. When the anchor day does not exist in a month (31 in April,
// 30 in February) the start is clamped to the last day of that month, so
// consecutive windows always tile the calendar without gaps or overlaps.
package cycle

import "time"

const (
	// MinAnchorDay is the smallest valid anchor day.
	MinAnchorDay = 1
	// MaxAnchorDay is the largest valid anchor day.
	MaxAnchorDay = 31
	// DateLayout is the wire format for cycle dates.
	DateLayout = "2006-01-02"
)

// Window is an inclusive [Start, End] range of calendar dates. Both ends are
// UTC midnights.
type Window struct {
	Start time.Time
	End   time.Time
}

// ValidAnchorDay reports whether day is an acceptable anchor day.
func ValidAnchorDay(day int) bool {
	return day >= MinAnchorDay && day <= MaxAnchorDay
}

// Date strips the clock from t and returns the same calendar date at UTC
// midnight. The calendar date is read in t's own location.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// anchorIn returns the date the cycle starts on in the given month,
// clamping the anchor to the month's last day.
func anchorIn(year int, month time.Month, anchorDay int) time.Time {
	// time.Date normalises month overflow, so month may be 0 or 13 here.
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	day := min(anchorDay, DaysIn(first.Year(), first.Month()))
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}

func clampAnchor(anchorDay int) int {
	return max(MinAnchorDay, min(anchorDay, MaxAnchorDay))
}

// Compute returns the cycle window containing ref for the given anchor day.
// Anchor days outside 1..31 are clamped into range; callers are expected to
// validate user input with ValidAnchorDay first.
func Compute(anchorDay int, ref time.Time) Window {
	anchorDay = clampAnchor(anchorDay)
	ref = Date(ref)

	start := anchorIn(ref.Year(), ref.Month(), anchorDay)
	if ref.Before(start) {
		start = anchorIn(ref.Year(), ref.Month()-1, anchorDay)
	}
	next := anchorIn(start.Year(), start.Month()+1, anchorDay)

	return Window{Start: start, End: next.AddDate(0, 0, -1)}
}

// Next returns the window that immediately follows w for the given anchor day.
func (w Window) Next(anchorDay int) Window {
	return Compute(anchorDay, w.End.AddDate(0, 0, 1))
}

// Contains reports whether the calendar date of t falls inside w.
func (w Window) Contains(t time.Time) bool {
	d := Date(t)
	return !d.Before(w.Start) && !d.After(w.End)
}

// Overlaps reports whether the two windows share at least one day.
func (w Window) Overlaps(other Window) bool {
	return !w.Start.After(other.End) && !w.End.Before(other.Start)
}

// Equal reports whether both windows cover exactly the same days.
func (w Window) Equal(other Window) bool {
	return w.Start.Equal(other.Start) && w.End.Equal(other.End)
}

// Days returns the number of days in the window.
func (w Window) Days() int {
	return int(w.End.Sub(w.Start).Hours()/24) + 1
}

// String renders the window as "start..end".
func (w Window) String() string {
	return w.Start.Format(DateLayout) + ".." + w.End.Format(DateLayout)
}
