package service

import (
	"time"

	"github.com/nurpe/lease-renewals/internal/renewal"
)

type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in Location. Today is the calendar date there.
type SystemClock struct {
	Location *time.Location
}

func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now().UTC()
	}
	return time.Now().In(c.Location)
}

func today(clock Clock) time.Time {
	return renewal.DateOnly(clock.Now())
}
