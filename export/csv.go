package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/storecount/go-footfall-client/traffic"
)

// Write renders the raw per-day entry map as CSV: one row per entry with
// Date, Hour and Enter columns, days in ascending date order.
func Write(w io.Writer, data traffic.DayData) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Date", "Hour", "Enter"}); err != nil {
		return errors.Wrap(err, "[export.Write] header")
	}

	for _, date := range data.Dates() {
		for _, entry := range data[date] {
			row := []string{
				date,
				traffic.TimeOfDay(entry.TimeSpan.StartTime),
				strconv.Itoa(int(entry.EnterCount)),
			}
			if err := cw.Write(row); err != nil {
				return errors.Wrap(err, "[export.Write] row")
			}
		}
	}

	cw.Flush()
	return errors.Wrap(cw.Error(), "[export.Write] flush")
}

// Filename builds the export file name: the sanitized store name plus a
// suffix describing the query, with dates rendered DD.MM.YYYY.
func Filename(q traffic.Query, data traffic.DayData) string {
	name := sanitize(q.Store)

	switch q.Kind {
	case traffic.QueryToday, traffic.QuerySingleDay:
		name += "_" + formatDate(q.Date)
	case traffic.QueryPeriod:
		name += "_period_" + formatDate(q.StartDate) + "-" + formatDate(q.EndDate)
	case traffic.QuerySelectedDays:
		parts := make([]string, 0, len(data))
		for _, date := range data.Dates() {
			parts = append(parts, formatDate(date))
		}
		name += "_selectedDays_[" + strings.Join(parts, "-") + "]"
	}

	return name + ".csv"
}

// sanitize replaces every character outside [A-Za-z0-9_.-] with an
// underscore.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '_', r == '-', r == '.':
			return r
		}
		return '_'
	}, s)
}

// formatDate turns "YYYY-MM-DD" into "DD.MM.YYYY". Anything else passes
// through unchanged.
func formatDate(date string) string {
	parts := strings.SplitN(date, "-", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return date
	}
	return parts[2] + "." + parts[1] + "." + parts[0]
}
