// Package recurrence parses and expands the compact recurrence descriptors
// (FREQ=..;INTERVAL=..;BYDAY=..;BYMONTHDAY=..;UNTIL=..) attached to
// recurring rules. Only this subset of RFC 5545 is supported.
package recurrence

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Frequency is the base period of a recurrence.
type Frequency string

const (
	Daily   Frequency = "DAILY"
	Weekly  Frequency = "WEEKLY"
	Monthly Frequency = "MONTHLY"
	Yearly  Frequency = "YEARLY"
)

// WeekdayNum is a BYDAY entry. Ordinal is 0 for "every such weekday";
// otherwise the nth (negative: from the end) weekday of the month.
type WeekdayNum struct {
	Ordinal int
	Weekday time.Weekday
}

// Rule is a parsed recurrence descriptor.
type Rule struct {
	Freq       Frequency
	Interval   int
	ByDay      []WeekdayNum
	ByMonthDay []int
	Until      *time.Time
}

// ValidationError reports a malformed descriptor token.
type ValidationError struct {
	Token  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid recurrence token %q: %s", e.Token, e.Reason)
}

var weekdayCodes = map[string]time.Weekday{
	"MO": time.Monday,
	"TU": time.Tuesday,
	"WE": time.Wednesday,
	"TH": time.Thursday,
	"FR": time.Friday,
	"SA": time.Saturday,
	"SU": time.Sunday,
}

var untilLayouts = []string{"20060102T150405Z", "20060102"}

// MaxInterval bounds INTERVAL so period arithmetic stays within calendar range.
const MaxInterval = 1000

// Parse validates a descriptor and returns the parsed rule.
func Parse(descriptor string) (Rule, error) {
	s := strings.ToUpper(strings.TrimSpace(descriptor))
	if !strings.HasPrefix(s, "FREQ=") {
		token, _, _ := strings.Cut(s, ";")
		return Rule{}, &ValidationError{Token: token, Reason: "descriptor must start with FREQ="}
	}

	rule := Rule{Interval: 1}
	seen := make(map[string]bool)
	s = strings.TrimSuffix(s, ";")
	for _, part := range strings.Split(s, ";") {
		key, value, ok := strings.Cut(part, "=")
		if !ok || key == "" || value == "" {
			return Rule{}, &ValidationError{Token: part, Reason: "expected KEY=VALUE"}
		}
		if seen[key] {
			return Rule{}, &ValidationError{Token: part, Reason: "duplicate key"}
		}
		seen[key] = true

		var err error
		switch key {
		case "FREQ":
			err = rule.parseFreq(value)
		case "INTERVAL":
			err = rule.parseInterval(value)
		case "BYDAY":
			err = rule.parseByDay(value)
		case "BYMONTHDAY":
			err = rule.parseByMonthDay(value)
		case "UNTIL":
			err = rule.parseUntil(value)
		default:
			err = &ValidationError{Token: part, Reason: "unsupported key"}
		}
		if err != nil {
			return Rule{}, err
		}
	}
	return rule, nil
}

func (r *Rule) parseFreq(value string) error {
	switch f := Frequency(value); f {
	case Daily, Weekly, Monthly, Yearly:
		r.Freq = f
		return nil
	}
	return &ValidationError{Token: "FREQ=" + value, Reason: "must be one of DAILY, WEEKLY, MONTHLY, YEARLY"}
}

func (r *Rule) parseInterval(value string) error {
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		return &ValidationError{Token: "INTERVAL=" + value, Reason: "must be a positive integer"}
	}
	if n > MaxInterval {
		return &ValidationError{Token: "INTERVAL=" + value, Reason: fmt.Sprintf("must not exceed %d", MaxInterval)}
	}
	r.Interval = n
	return nil
}

func (r *Rule) parseByDay(value string) error {
	for _, item := range strings.Split(value, ",") {
		if len(item) < 2 {
			return &ValidationError{Token: item, Reason: "invalid weekday code"}
		}
		code := item[len(item)-2:]
		wd, ok := weekdayCodes[code]
		if !ok {
			return &ValidationError{Token: item, Reason: "invalid weekday code"}
		}
		ordinal := 0
		if prefix := item[:len(item)-2]; prefix != "" {
			n, err := strconv.Atoi(prefix)
			if err != nil || n == 0 || n < -53 || n > 53 {
				return &ValidationError{Token: item, Reason: "invalid weekday ordinal"}
			}
			ordinal = n
		}
		r.ByDay = append(r.ByDay, WeekdayNum{Ordinal: ordinal, Weekday: wd})
	}
	return nil
}

func (r *Rule) parseByMonthDay(value string) error {
	for _, item := range strings.Split(value, ",") {
		n, err := strconv.Atoi(item)
		if err != nil || n < 1 || n > 31 {
			return &ValidationError{Token: item, Reason: "month day must be within 1..31"}
		}
		r.ByMonthDay = append(r.ByMonthDay, n)
	}
	return nil
}

func (r *Rule) parseUntil(value string) error {
	for _, layout := range untilLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			t = t.UTC()
			r.Until = &t
			return nil
		}
	}
	return &ValidationError{Token: "UNTIL=" + value, Reason: "expected YYYYMMDD or YYYYMMDDTHHMMSSZ"}
}

// String renders the rule back into canonical descriptor form.
func (r Rule) String() string {
	parts := []string{"FREQ=" + string(r.Freq)}
	if r.Interval > 1 {
		parts = append(parts, "INTERVAL="+strconv.Itoa(r.Interval))
	}
	if len(r.ByDay) > 0 {
		days := make([]string, 0, len(r.ByDay))
		for _, d := range r.ByDay {
			code := weekdayCode(d.Weekday)
			if d.Ordinal != 0 {
				code = strconv.Itoa(d.Ordinal) + code
			}
			days = append(days, code)
		}
		parts = append(parts, "BYDAY="+strings.Join(days, ","))
	}
	if len(r.ByMonthDay) > 0 {
		days := make([]string, 0, len(r.ByMonthDay))
		for _, d := range r.ByMonthDay {
			days = append(days, strconv.Itoa(d))
		}
		parts = append(parts, "BYMONTHDAY="+strings.Join(days, ","))
	}
	if r.Until != nil {
		parts = append(parts, "UNTIL="+r.Until.UTC().Format(untilLayouts[0]))
	}
	return strings.Join(parts, ";")
}

func weekdayCode(wd time.Weekday) string {
	for code, d := range weekdayCodes {
		if d == wd {
			return code
		}
	}
	return ""
}
