package utils

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"rango/models"
)

var ErrMalformedVisit = errors.New("malformed visit data")

// VisitInterval is how long a session must stay away before another visit
// is counted.
const VisitInterval = 24 * time.Hour

// older deployments wrote naive local timestamps, optionally followed by
// microseconds; time.Parse accepts the fraction without it being in the layout
const legacyVisitLayout = "2006-01-02 15:04:05"

func FormatVisitTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func ParseVisitTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(legacyVisitLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: last_visit %q", ErrMalformedVisit, s)
	}
	return t, nil
}

// VisitorCookieHandler updates the visit counter held in values. A visit is
// counted when at least VisitInterval has elapsed since last_visit; otherwise
// both keys keep their stored values. Missing keys start a fresh count of 1.
// On error values is left untouched.
func VisitorCookieHandler(values models.SessionValues, now time.Time) error {
	if values == nil {
		return errors.New("nil session values")
	}

	visits := 1
	if raw, ok := values[models.SessionKeyVisits]; ok {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return fmt.Errorf("%w: visits %q", ErrMalformedVisit, raw)
		}
		visits = n
	}

	lastVisitRaw, ok := values[models.SessionKeyLastVisit]
	if !ok {
		lastVisitRaw = FormatVisitTime(now)
	}
	lastVisit, err := ParseVisitTime(lastVisitRaw)
	if err != nil {
		return err
	}

	if now.Sub(lastVisit) >= VisitInterval {
		visits++
		values[models.SessionKeyLastVisit] = FormatVisitTime(now)
	} else {
		values[models.SessionKeyLastVisit] = lastVisitRaw
	}
	values[models.SessionKeyVisits] = strconv.Itoa(visits)

	return nil
}

// Visits reads the counter for display, falling back to 1.
func Visits(values models.SessionValues) int {
	n, err := strconv.Atoi(values[models.SessionKeyVisits])
	if err != nil || n < 1 {
		return 1
	}
	return n
}
