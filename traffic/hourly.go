package traffic

import (
	"strconv"
	"strings"
)

// HourlyBucket aggregates the enter/exit counts of one hour of the day.
type HourlyBucket struct {
	Enter int
	Exit  int
}

// HourlyBuckets distributes entries into 24 buckets by the hour of their
// start time. Entries without a parsable start time are skipped.
func HourlyBuckets(entries []Entry) [24]HourlyBucket {
	var buckets [24]HourlyBucket
	for _, e := range entries {
		hour, ok := hourOf(e.TimeSpan.StartTime)
		if !ok {
			continue
		}
		buckets[hour].Enter += int(e.EnterCount)
		buckets[hour].Exit += int(e.ExitCount)
	}
	return buckets
}

// TimeOfDay strips the date part from a timestamp, leaving "HH:MM:SS" or
// whatever follows the 'T'. Bare times pass through unchanged.
func TimeOfDay(startTime string) string {
	if i := strings.IndexByte(startTime, 'T'); i >= 0 {
		return startTime[i+1:]
	}
	return startTime
}

func hourOf(startTime string) (int, bool) {
	t := TimeOfDay(startTime)
	if len(t) < 2 {
		return 0, false
	}
	hour, err := strconv.Atoi(t[:2])
	if err != nil || hour < 0 || hour > 23 {
		return 0, false
	}
	return hour, true
}
