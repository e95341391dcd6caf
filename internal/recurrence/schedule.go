package recurrence

import (
	"sort"
	"time"
)

const day = 24 * time.Hour

// Schedule binds a parsed rule to the bounds of a concrete recurring rule.
// All dates are treated as UTC calendar days.
type Schedule struct {
	Rule       Rule
	Start      time.Time
	End        *time.Time
	Exceptions []time.Time
}

// Expansion is the result of expanding a schedule over a window.
// Exhausted is set when no occurrence exists at or after the window end.
type Expansion struct {
	Dates     []time.Time
	Exhausted bool
}

// Day truncates t to UTC midnight of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Between expands the schedule over the closed-open window [from, to).
func (s Schedule) Between(from, to time.Time) Expansion {
	exp := Expansion{Exhausted: s.ExhaustedAt(to)}
	s.each(Day(from), Day(to), func(d time.Time) bool {
		exp.Dates = append(exp.Dates, d)
		return true
	})
	return exp
}

// Next returns the first occurrence on or after the given day, searching up
// to (but excluding) limit.
func (s Schedule) Next(after, limit time.Time) (time.Time, bool) {
	var next time.Time
	found := false
	s.each(Day(after), Day(limit), func(d time.Time) bool {
		next, found = d, true
		return false
	})
	return next, found
}

// ExhaustedAt reports whether no occurrence exists on or after the given day.
// An unbounded schedule is never exhausted.
func (s Schedule) ExhaustedAt(at time.Time) bool {
	bound, ok := s.bound()
	if !ok {
		return false
	}
	_, found := s.Next(at, bound.Add(day))
	return !found
}

// bound is the last day an occurrence may fall on.
func (s Schedule) bound() (time.Time, bool) {
	var last time.Time
	ok := false
	if s.End != nil {
		last, ok = Day(*s.End), true
	}
	if s.Rule.Until != nil {
		until := Day(s.Rule.Until.UTC())
		if !ok || until.Before(last) {
			last, ok = until, true
		}
	}
	return last, ok
}

func (s Schedule) each(from, to time.Time, fn func(time.Time) bool) {
	start := Day(s.Start)
	lo := from
	if lo.Before(start) {
		lo = start
	}
	hi := to
	if last, ok := s.bound(); ok && last.Add(day).Before(hi) {
		hi = last.Add(day)
	}
	if !hi.After(lo) {
		return
	}

	excluded := make(map[time.Time]struct{}, len(s.Exceptions))
	for _, e := range s.Exceptions {
		excluded[Day(e)] = struct{}{}
	}

	var prev time.Time
	for k := s.firstPeriod(start, lo); ; k++ {
		ps := s.periodStart(start, k)
		if !ps.Before(hi) {
			return
		}
		// periods only move forward; anything else is arithmetic overflow
		if !prev.IsZero() && !ps.After(prev) {
			return
		}
		prev = ps
		for _, d := range s.candidates(start, k) {
			if d.Before(lo) {
				continue
			}
			if !d.Before(hi) {
				return
			}
			if _, skip := excluded[d]; skip {
				continue
			}
			if !fn(d) {
				return
			}
		}
	}
}

func (s Schedule) interval() int {
	if s.Rule.Interval < 1 {
		return 1
	}
	return min(s.Rule.Interval, MaxInterval)
}

// firstPeriod is the index of the earliest period that can contain lo.
func (s Schedule) firstPeriod(start, lo time.Time) int {
	var elapsed int
	switch s.Rule.Freq {
	case Daily:
		elapsed = daysBetween(start, lo)
	case Weekly:
		elapsed = daysBetween(weekStart(start), weekStart(lo)) / 7
	case Monthly:
		elapsed = (lo.Year()-start.Year())*12 + int(lo.Month()) - int(start.Month())
	case Yearly:
		elapsed = lo.Year() - start.Year()
	}
	if elapsed < 0 {
		return 0
	}
	return elapsed / s.interval()
}

func (s Schedule) periodStart(start time.Time, k int) time.Time {
	n := k * s.interval()
	switch s.Rule.Freq {
	case Daily:
		return start.AddDate(0, 0, n)
	case Weekly:
		return weekStart(start).AddDate(0, 0, 7*n)
	case Monthly:
		return time.Date(start.Year(), start.Month()+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(start.Year()+n, start.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
}

// candidates lists the sorted, unique days of period k before bounds and
// exceptions are applied.
func (s Schedule) candidates(start time.Time, k int) []time.Time {
	ps := s.periodStart(start, k)
	switch s.Rule.Freq {
	case Daily:
		if s.matchesFilters(ps) {
			return []time.Time{ps}
		}
		return nil
	case Weekly:
		out := make([]time.Time, 0, 7)
		for i := 0; i < 7; i++ {
			d := ps.AddDate(0, 0, i)
			if len(s.Rule.ByDay) == 0 && d.Weekday() != start.Weekday() {
				continue
			}
			if s.matchesFilters(d) {
				out = append(out, d)
			}
		}
		return out
	default:
		return s.monthDays(start, ps.Year(), ps.Month())
	}
}

// matchesFilters applies BYDAY (ordinals ignored) and BYMONTHDAY as plain
// filters, which is how they act on DAILY and WEEKLY rules.
func (s Schedule) matchesFilters(d time.Time) bool {
	if len(s.Rule.ByDay) > 0 {
		ok := false
		for _, wd := range s.Rule.ByDay {
			if wd.Weekday == d.Weekday() {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if len(s.Rule.ByMonthDay) > 0 {
		for _, md := range s.Rule.ByMonthDay {
			if md == d.Day() {
				return true
			}
		}
		return false
	}
	return true
}

func (s Schedule) monthDays(start time.Time, year int, month time.Month) []time.Time {
	last := daysIn(year, month)

	var byMonthDay, byDay map[int]bool
	if len(s.Rule.ByMonthDay) > 0 {
		byMonthDay = make(map[int]bool)
		for _, md := range s.Rule.ByMonthDay {
			byMonthDay[min(md, last)] = true
		}
	}
	if len(s.Rule.ByDay) > 0 {
		byDay = make(map[int]bool)
		for _, wd := range s.Rule.ByDay {
			if wd.Ordinal == 0 {
				for d := firstWeekday(year, month, wd.Weekday); d <= last; d += 7 {
					byDay[d] = true
				}
				continue
			}
			if d, ok := nthWeekday(year, month, wd.Weekday, wd.Ordinal); ok {
				byDay[d] = true
			}
		}
	}

	var days []int
	switch {
	case byMonthDay != nil && byDay != nil:
		for d := range byMonthDay {
			if byDay[d] {
				days = append(days, d)
			}
		}
	case byMonthDay != nil:
		for d := range byMonthDay {
			days = append(days, d)
		}
	case byDay != nil:
		for d := range byDay {
			days = append(days, d)
		}
	default:
		days = []int{min(start.Day(), last)}
	}
	sort.Ints(days)

	out := make([]time.Time, 0, len(days))
	for _, d := range days {
		out = append(out, time.Date(year, month, d, 0, 0, 0, 0, time.UTC))
	}
	return out
}

func daysBetween(a, b time.Time) int {
	return int(b.Sub(a) / day)
}

func weekStart(d time.Time) time.Time {
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func firstWeekday(year int, month time.Month, wd time.Weekday) int {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Weekday()
	return 1 + (int(wd)-int(first)+7)%7
}

func nthWeekday(year int, month time.Month, wd time.Weekday, n int) (int, bool) {
	last := daysIn(year, month)
	if n > 0 {
		d := firstWeekday(year, month, wd) + (n-1)*7
		return d, d <= last
	}
	lastWd := time.Date(year, month, last, 0, 0, 0, 0, time.UTC).Weekday()
	d := last - (int(lastWd)-int(wd)+7)%7 + (n+1)*7
	return d, d >= 1
}
