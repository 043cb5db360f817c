package renewal

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

type TaskStatus string

const (
	TaskStatusPending TaskStatus = "PENDING"
	TaskStatusDone    TaskStatus = "DONE"
)

const (
	TitleRenewalNoticeStart  = "Renewal notice start"
	TitleRenewalHardDeadline = "Renewal hard deadline"
)

// ReminderTask is identified in the task store by (LeaseID, Title).
type ReminderTask struct {
	LeaseID     uuid.UUID
	Title       string
	Description string
	DueDate     time.Time
	Priority    Priority
	Status      TaskStatus
}

// BuildReminderTasks returns the notice-start and hard-deadline reminders for a lease.
// Both are returned even when their due dates are already in the past.
func BuildReminderTasks(policy Policy, leaseID uuid.UUID, leaseLabel string) ([]ReminderTask, error) {
	// today does not affect milestone dates
	schedule, err := Compute(policy, policy.EndDate)
	if err != nil {
		return nil, err
	}

	label := strings.TrimSpace(leaseLabel)
	if label == "" {
		label = leaseID.String()
	}
	endDate := schedule.EndDate.Format("2006-01-02")

	return []ReminderTask{
		{
			LeaseID:     leaseID,
			Title:       TitleRenewalNoticeStart,
			Description: fmt.Sprintf("Start renewal outreach for %s (lease ends %s)", label, endDate),
			DueDate:     schedule.RenewalNoticeStart,
			Priority:    PriorityMedium,
			Status:      TaskStatusPending,
		},
		{
			LeaseID:     leaseID,
			Title:       TitleRenewalHardDeadline,
			Description: fmt.Sprintf("Finalize renewal paperwork for %s (lease ends %s)", label, endDate),
			DueDate:     schedule.RenewalHardDeadline,
			Priority:    PriorityHigh,
			Status:      TaskStatusPending,
		},
	}, nil
}
