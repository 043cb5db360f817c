package renewal

import "time"

type Status string

const (
	StatusNormal         Status = "NORMAL"
	StatusApproaching    Status = "APPROACHING"
	StatusOverdueRenewal Status = "OVERDUE_RENEWAL"
	StatusExpired        Status = "EXPIRED"
)

// ApproachingWindowDays is the number of days before the end date at which a lease counts as approaching.
const ApproachingWindowDays = 90

// Rank orders statuses the way they are reached as time passes for a fixed policy.
func (s Status) Rank() int {
	switch s {
	case StatusNormal:
		return 0
	case StatusApproaching:
		return 1
	case StatusOverdueRenewal:
		return 2
	case StatusExpired:
		return 3
	default:
		return -1
	}
}

func ParseStatus(raw string) (Status, bool) {
	switch s := Status(raw); s {
	case StatusNormal, StatusApproaching, StatusOverdueRenewal, StatusExpired:
		return s, true
	default:
		return "", false
	}
}

type Schedule struct {
	EndDate              time.Time
	OwnerNoticeDeadline  time.Time
	TenantNoticeDeadline time.Time
	RenewalNoticeStart   time.Time
	RenewalHardDeadline  time.Time
	DaysRemaining        int
	Status               Status
}

// Compute derives milestone dates and the status of a lease as of today.
// Milestones are plain calendar subtractions; weekends and holidays are not skipped.
func Compute(policy Policy, today time.Time) (Schedule, error) {
	if err := policy.Validate(); err != nil {
		return Schedule{}, err
	}

	end := DateOnly(policy.EndDate)
	today = DateOnly(today)

	schedule := Schedule{
		EndDate:              end,
		OwnerNoticeDeadline:  daysBefore(end, policy.OwnerNoticeDays),
		TenantNoticeDeadline: daysBefore(end, policy.TenantNoticeDays),
		RenewalNoticeStart:   daysBefore(end, policy.RenewalNoticeDays),
		RenewalHardDeadline:  daysBefore(end, policy.RenewalDeadlineDays),
		DaysRemaining:        daysBetween(today, end),
	}

	switch {
	case today.After(end):
		schedule.Status = StatusExpired
	case today.After(schedule.RenewalHardDeadline):
		schedule.Status = StatusOverdueRenewal
	case schedule.DaysRemaining <= ApproachingWindowDays:
		schedule.Status = StatusApproaching
	default:
		schedule.Status = StatusNormal
	}
	return schedule, nil
}

func daysBefore(date time.Time, days int) time.Time {
	return date.AddDate(0, 0, -days)
}

// daysBetween expects both dates at midnight UTC, so every day is exactly
// 86400 seconds. Unix seconds are used because time.Duration overflows past
// roughly 292 years.
func daysBetween(from, to time.Time) int {
	return int((to.Unix() - from.Unix()) / 86400)
}
