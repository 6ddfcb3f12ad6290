// internal/calendar/calendar.go
package calendar

import "time"

// Calendar is the single source of truth for day/week/month boundaries in
// the organization's business timezone. The zone is a fixed UTC offset, not
// a DST-aware location, so boundaries are stable year round. Every window
// the aggregator reports is derived from these functions; nothing else in
// the codebase recomputes a day or week boundary.
type Calendar struct {
	loc   *time.Location
	nowFn func() time.Time
}

// Option configures a Calendar.
type Option func(*Calendar)

// WithNow pins the calendar's notion of the current instant. Production code
// never uses this; tests do, so window math is deterministic.
func WithNow(fn func() time.Time) Option {
	return func(c *Calendar) {
		c.nowFn = fn
	}
}

// New builds a Calendar for a named fixed-offset zone, e.g.
// ("America/Lima", -5).
func New(zoneName string, offsetHours int, opts ...Option) *Calendar {
	c := &Calendar{
		loc:   time.FixedZone(zoneName, offsetHours*3600),
		nowFn: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Now returns the current instant localized to the business timezone.
func (c *Calendar) Now() time.Time {
	return c.nowFn().In(c.loc)
}

// TodayStart returns the instant of 00:00:00 local time on the current local
// date. The result is an absolute instant, directly comparable with the UTC
// timestamps stored on events.
func (c *Calendar) TodayStart() time.Time {
	now := c.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, c.loc)
}

// WeekStart returns Monday 00:00:00 local time of the current local week.
// Weeks run Monday through Sunday: on a Sunday this is the Monday six days
// prior, not the upcoming one.
func (c *Calendar) WeekStart() time.Time {
	now := c.Now()
	daysSinceMonday := (int(now.Weekday()) + 6) % 7
	monday := now.AddDate(0, 0, -daysSinceMonday)
	return time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, c.loc)
}

// PrevWeekStart returns Monday 00:00:00 local time of the week before the
// current one.
func (c *Calendar) PrevWeekStart() time.Time {
	return c.WeekStart().AddDate(0, 0, -7)
}

// YearStart returns January 1st 00:00:00 local time of the current local
// year, the lower bound for year-to-date windows.
func (c *Calendar) YearStart() time.Time {
	return time.Date(c.Now().Year(), time.January, 1, 0, 0, 0, 0, c.loc)
}

// YearEnd returns December 31st 00:00:00 local time of the current local
// year, the upper day of the heatmap range.
func (c *Calendar) YearEnd() time.Time {
	return time.Date(c.Now().Year(), time.December, 31, 0, 0, 0, 0, c.loc)
}

// ISOWeek returns the ISO-8601 week-numbering year and week for an instant,
// computed against the local calendar date. Monday starts the week and week 1
// is the one containing the year's first Thursday; the same rule applies at
// the week 52/53 and week 1 boundaries.
func (c *Calendar) ISOWeek(t time.Time) (year, week int) {
	return t.In(c.loc).ISOWeek()
}

// DayKey formats an instant as its local calendar date (YYYY-MM-DD).
func (c *Calendar) DayKey(t time.Time) string {
	return t.In(c.loc).Format("2006-01-02")
}

// OffsetHours is the zone's fixed offset from UTC, used to push local day
// bucketing into SQL.
func (c *Calendar) OffsetHours() int {
	_, offset := c.Now().Zone()
	return offset / 3600
}
