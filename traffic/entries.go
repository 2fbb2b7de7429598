package traffic

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// Count is an entry counter as the backend serializes it: sometimes a JSON
// number, sometimes a numeric string. Anything non-numeric decodes as 0.
type Count int

func (c *Count) UnmarshalJSON(data []byte) error {
	*c = 0

	var num json.Number
	if err := json.Unmarshal(data, &num); err == nil {
		if i, err := num.Int64(); err == nil {
			*c = Count(i)
		} else if f, err := num.Float64(); err == nil {
			*c = Count(int(f))
		}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		s = strings.TrimSpace(s)
		if i, err := strconv.Atoi(s); err == nil {
			*c = Count(i)
		} else if f, err := strconv.ParseFloat(s, 64); err == nil {
			*c = Count(int(f))
		}
	}
	return nil
}

// TimeSpan is the measurement window of a single entry. StartTime is either
// a full timestamp ("2024-01-01T13:00:00") or a bare time of day ("13:00").
type TimeSpan struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime,omitempty"`
}

// Entry is one aggregated measurement from a store's cameras.
type Entry struct {
	TimeSpan   TimeSpan `json:"timeSpan"`
	EnterCount Count    `json:"enterCount"`
	ExitCount  Count    `json:"exitCount"`
}

// DayData maps an ISO date (YYYY-MM-DD) to that day's entries.
type DayData map[string][]Entry

// Dates returns the day keys in ascending order.
func (d DayData) Dates() []string {
	dates := make([]string, 0, len(d))
	for date := range d {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates
}

// DailyTotal is the per-day sum of enter counts.
type DailyTotal struct {
	Date  string `json:"date"`
	Total int    `json:"total"`
}

// DailyTotals sums EnterCount per day and returns the totals sorted
// ascending by date string.
func DailyTotals(data DayData) []DailyTotal {
	totals := make([]DailyTotal, 0, len(data))
	for date, entries := range data {
		total := 0
		for _, e := range entries {
			total += int(e.EnterCount)
		}
		totals = append(totals, DailyTotal{Date: date, Total: total})
	}
	sort.Slice(totals, func(i, j int) bool {
		return totals[i].Date < totals[j].Date
	})
	return totals
}
