package forecast

import (
	"fmt"
	"time"
)

// Aggregate regroups the daily series. Weekly buckets follow ISO weeks and
// monthly buckets calendar months; each bucket reports its last day's
// balance and bounds plus every non-VARIABLE event inside it.
func Aggregate(points []DataPoint, g Granularity) []DataPoint {
	if g != GranularityWeekly && g != GranularityMonthly {
		return points
	}

	var out []DataPoint
	for _, p := range points {
		key := bucketKey(p.Date, g)
		if len(out) == 0 || out[len(out)-1].Period != key {
			out = append(out, DataPoint{Period: key, Events: []Event{}})
		}
		b := &out[len(out)-1]
		b.Date = p.Date
		b.Balance = p.Balance
		b.LowerBound = p.LowerBound
		b.UpperBound = p.UpperBound
		for _, e := range p.Events {
			if e.Kind != EventVariable {
				b.Events = append(b.Events, e)
			}
		}
	}
	return out
}

func bucketKey(d time.Time, g Granularity) string {
	if g == GranularityWeekly {
		year, week := d.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	}
	return d.Format("2006-01")
}
