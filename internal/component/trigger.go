package component

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/gorhill/cronexpr"

	"github.com/gyaneshwarpardhi/watchsource/internal/doc"
	"github.com/gyaneshwarpardhi/watchsource/internal/watch"
)

const ScheduleType = "schedule"

// Schedule is a time-based trigger. Exactly one of interval, cron or hourly
// minutes is set.
type Schedule struct {
	interval time.Duration
	cron     string
	cronExpr *cronexpr.Expression
	minutes  []int
}

// IntervalSchedule fires every d.
func IntervalSchedule(d time.Duration) (*Schedule, error) {
	if d <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %s", d)
	}
	if d%time.Millisecond != 0 {
		return nil, fmt.Errorf("interval %s is finer than a millisecond", d)
	}
	return &Schedule{interval: d}, nil
}

// CronSchedule fires on a cron expression (5, 6 or 7 fields).
func CronSchedule(expr string) (*Schedule, error) {
	ce, err := cronexpr.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("cron %q: %w", expr, err)
	}
	return &Schedule{cron: expr, cronExpr: ce}, nil
}

// HourlySchedule fires every hour at the given minutes.
func HourlySchedule(minutes ...int) (*Schedule, error) {
	if len(minutes) == 0 {
		return nil, errors.New("hourly schedule needs at least one minute")
	}
	for _, m := range minutes {
		if m < 0 || m > 59 {
			return nil, fmt.Errorf("hourly minute %d out of range 0-59", m)
		}
	}
	sorted := slices.Clone(minutes)
	slices.Sort(sorted)
	return &Schedule{minutes: slices.Compact(sorted)}, nil
}

func newSchedule(params map[string]any) (watch.Component, error) {
	interval, hasInterval, err := durationParam(params, "interval")
	if err != nil {
		return nil, err
	}
	cron, err := stringParam(params, "cron", false)
	if err != nil {
		return nil, err
	}
	hourly, err := mapParam(params, "hourly")
	if err != nil {
		return nil, err
	}
	set := 0
	for _, ok := range []bool{hasInterval, cron != "", hourly != nil} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return nil, errors.New("exactly one of interval, cron or hourly is required")
	}
	switch {
	case hasInterval:
		return nonNil(IntervalSchedule(interval))
	case cron != "":
		return nonNil(CronSchedule(cron))
	default:
		minutes, err := intsParam(hourly, "minute")
		if err != nil {
			return nil, fmt.Errorf("hourly: %w", err)
		}
		return nonNil(HourlySchedule(minutes...))
	}
}

func (s *Schedule) Type() string { return ScheduleType }

func (s *Schedule) WriteBody(b *doc.Builder) error {
	b.StartObject()
	switch {
	case s.cronExpr != nil:
		b.KeyValue("cron", s.cron)
	case len(s.minutes) > 0:
		b.Field("hourly").StartObject().KeyValue("minute", s.minutes).EndObject()
	default:
		b.KeyValue("interval", exactInterval(s.interval))
	}
	b.EndObject()
	return b.Err()
}

// Next returns the first fire time strictly after from.
func (s *Schedule) Next(from time.Time) time.Time {
	switch {
	case s.cronExpr != nil:
		return s.cronExpr.Next(from)
	case len(s.minutes) > 0:
		base := from.Truncate(time.Hour)
		for h := 0; h < 2; h++ {
			hour := base.Add(time.Duration(h) * time.Hour)
			for _, m := range s.minutes {
				t := hour.Add(time.Duration(m) * time.Minute)
				if t.After(from) {
					return t
				}
			}
		}
		return time.Time{}
	default:
		return from.Add(s.interval)
	}
}

var intervalUnits = []struct {
	size   time.Duration
	suffix string
}{
	{24 * time.Hour, "d"},
	{time.Hour, "h"},
	{time.Minute, "m"},
	{time.Second, "s"},
	{time.Millisecond, "ms"},
}

// exactInterval renders d in the largest unit that divides it: 90s, 61m, 2d.
func exactInterval(d time.Duration) string {
	for _, u := range intervalUnits {
		if d%u.size == 0 {
			return fmt.Sprintf("%d%s", d/u.size, u.suffix)
		}
	}
	return fmt.Sprintf("%dms", d.Milliseconds())
}
