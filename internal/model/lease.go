package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/nurpe/lease-renewals/internal/renewal"
)

type Lease struct {
	ID                  uuid.UUID
	OrganizationID      uuid.UUID
	PropertyName        string
	UnitName            string
	TenantName          string
	StartDate           time.Time
	EndDate             time.Time
	OwnerNoticeDays     int
	TenantNoticeDays    int
	RenewalNoticeDays   int
	RenewalDeadlineDays int
	AutoCreateTasks     bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Label is the human readable name used in reminders and exports.
func (l Lease) Label() string {
	switch {
	case l.PropertyName != "" && l.UnitName != "":
		return l.PropertyName + " / " + l.UnitName
	case l.UnitName != "":
		return l.UnitName
	default:
		return l.PropertyName
	}
}

func (l Lease) Policy() renewal.Policy {
	return renewal.Policy{
		EndDate:             renewal.DateOnly(l.EndDate),
		OwnerNoticeDays:     l.OwnerNoticeDays,
		TenantNoticeDays:    l.TenantNoticeDays,
		RenewalNoticeDays:   l.RenewalNoticeDays,
		RenewalDeadlineDays: l.RenewalDeadlineDays,
	}
}

type LeaseSchedule struct {
	Lease    Lease
	Schedule renewal.Schedule
}

type RenewalReport struct {
	Organization uuid.UUID
	GeneratedOn  time.Time
	Leases       []LeaseSchedule
	Tasks        []Task
}
