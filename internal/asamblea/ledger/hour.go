package ledger

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var clockPattern = regexp.MustCompile(`(?i)^\s*(\d{1,2}):(\d{2})\s*(AM|PM)\s*$`)

// ParseHourBucket maps a 12-hour clock string such as "2:30PM" to its
// 24-hour bucket label ("14:00"). ok is false for anything that is not a
// valid H:MM AM/PM time; callers leave such entries out of their counts.
// Hour 0 is accepted for AM only ("0:30AM" is "00:00").
func ParseHourBucket(clock string) (bucket string, ok bool) {
	m := clockPattern.FindStringSubmatch(clock)
	if m == nil {
		return "", false
	}
	hour, err := strconv.Atoi(m[1])
	pm := strings.EqualFold(m[3], "PM")
	if err != nil || hour > 12 || (hour == 0 && pm) {
		return "", false
	}
	minute, err := strconv.Atoi(m[2])
	if err != nil || minute > 59 {
		return "", false
	}

	switch {
	case pm && hour != 12:
		hour += 12
	case !pm && hour == 12:
		hour = 0
	}
	return fmt.Sprintf("%02d:00", hour), true
}

// ClockString formats t the way the door desk records times ("3:04PM").
func ClockString(t time.Time) string {
	return t.Format("3:04PM")
}
