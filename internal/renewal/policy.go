package renewal

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidPolicy = errors.New("invalid renewal policy")

// InvalidPolicyError reports a policy field that cannot be used for date arithmetic.
type InvalidPolicyError struct {
	Field  string
	Reason string
}

func (e *InvalidPolicyError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidPolicy, e.Field, e.Reason)
}

func (e *InvalidPolicyError) Is(target error) bool {
	return target == ErrInvalidPolicy
}

// Policy holds the notice periods of a single lease, counted in days before EndDate.
type Policy struct {
	EndDate             time.Time
	OwnerNoticeDays     int
	TenantNoticeDays    int
	RenewalNoticeDays   int
	RenewalDeadlineDays int
}

type Defaults struct {
	OwnerNoticeDays     int
	TenantNoticeDays    int
	RenewalNoticeDays   int
	RenewalDeadlineDays int
}

func DefaultPolicyDefaults() Defaults {
	return Defaults{
		OwnerNoticeDays:     180,
		TenantNoticeDays:    30,
		RenewalNoticeDays:   60,
		RenewalDeadlineDays: 30,
	}
}

// RawPolicy is a lease record as read from storage or a request body.
// Nil day counts fall back to Defaults.
type RawPolicy struct {
	EndDate             string
	OwnerNoticeDays     *int
	TenantNoticeDays    *int
	RenewalNoticeDays   *int
	RenewalDeadlineDays *int
}

func NewPolicy(endDate time.Time, defaults Defaults) Policy {
	return Policy{
		EndDate:             DateOnly(endDate),
		OwnerNoticeDays:     defaults.OwnerNoticeDays,
		TenantNoticeDays:    defaults.TenantNoticeDays,
		RenewalNoticeDays:   defaults.RenewalNoticeDays,
		RenewalDeadlineDays: defaults.RenewalDeadlineDays,
	}
}

func ParsePolicy(raw RawPolicy, defaults Defaults) (Policy, error) {
	endDate, err := ParseDate(raw.EndDate)
	if err != nil {
		return Policy{}, &InvalidPolicyError{Field: "end_date", Reason: err.Error()}
	}

	policy := NewPolicy(endDate, defaults)
	if raw.OwnerNoticeDays != nil {
		policy.OwnerNoticeDays = *raw.OwnerNoticeDays
	}
	if raw.TenantNoticeDays != nil {
		policy.TenantNoticeDays = *raw.TenantNoticeDays
	}
	if raw.RenewalNoticeDays != nil {
		policy.RenewalNoticeDays = *raw.RenewalNoticeDays
	}
	if raw.RenewalDeadlineDays != nil {
		policy.RenewalDeadlineDays = *raw.RenewalDeadlineDays
	}

	if err := policy.Validate(); err != nil {
		return Policy{}, err
	}
	return policy, nil
}

// Validate checks presence of the end date and non-negative day counts.
// The relative order of the day counts is not checked.
func (p Policy) Validate() error {
	if p.EndDate.IsZero() {
		return &InvalidPolicyError{Field: "end_date", Reason: "is required"}
	}
	fields := []struct {
		name  string
		value int
	}{
		{"owner_notice_days", p.OwnerNoticeDays},
		{"tenant_notice_days", p.TenantNoticeDays},
		{"renewal_notice_days", p.RenewalNoticeDays},
		{"renewal_deadline_days", p.RenewalDeadlineDays},
	}
	for _, f := range fields {
		if f.value < 0 {
			return &InvalidPolicyError{Field: f.name, Reason: fmt.Sprintf("must not be negative, got %d", f.value)}
		}
	}
	return nil
}

// ParseDate accepts ISO-8601 dates with or without a time part and drops the time.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errors.New("is required")
	}
	layouts := []string{
		"2006-01-02",
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return DateOnly(parsed), nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as a date", raw)
}

// DateOnly keeps the calendar date of t as midnight UTC.
func DateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
