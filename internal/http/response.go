package http

import (
	"time"

	"github.com/nurpe/lease-renewals/internal/model"
	"github.com/nurpe/lease-renewals/internal/renewal"
)

type leaseResponse struct {
	ID                  string `json:"id"`
	Label               string `json:"label"`
	PropertyName        string `json:"property_name"`
	UnitName            string `json:"unit_name"`
	TenantName          string `json:"tenant_name"`
	StartDate           string `json:"start_date,omitempty"`
	EndDate             string `json:"end_date"`
	OwnerNoticeDays     int    `json:"owner_notice_days"`
	TenantNoticeDays    int    `json:"tenant_notice_days"`
	RenewalNoticeDays   int    `json:"renewal_notice_days"`
	RenewalDeadlineDays int    `json:"renewal_deadline_days"`
	AutoCreateTasks     bool   `json:"auto_create_tasks"`
}

type scheduleResponse struct {
	EndDate              string `json:"end_date"`
	OwnerNoticeDeadline  string `json:"owner_notice_deadline"`
	TenantNoticeDeadline string `json:"tenant_notice_deadline"`
	RenewalNoticeStart   string `json:"renewal_notice_start"`
	RenewalHardDeadline  string `json:"renewal_hard_deadline"`
	DaysRemaining        int    `json:"days_remaining"`
	Status               string `json:"status"`
}

type leaseScheduleResponse struct {
	Lease    leaseResponse    `json:"lease"`
	Schedule scheduleResponse `json:"schedule"`
}

type reminderResponse struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"due_date"`
	Priority    string `json:"priority"`
	Status      string `json:"status"`
}

type taskResponse struct {
	ID      string `json:"id"`
	LeaseID string `json:"lease_id"`
	reminderResponse
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func toLeaseResponse(lease model.Lease) leaseResponse {
	return leaseResponse{
		ID:                  lease.ID.String(),
		Label:               lease.Label(),
		PropertyName:        lease.PropertyName,
		UnitName:            lease.UnitName,
		TenantName:          lease.TenantName,
		StartDate:           formatDate(lease.StartDate),
		EndDate:             formatDate(lease.EndDate),
		OwnerNoticeDays:     lease.OwnerNoticeDays,
		TenantNoticeDays:    lease.TenantNoticeDays,
		RenewalNoticeDays:   lease.RenewalNoticeDays,
		RenewalDeadlineDays: lease.RenewalDeadlineDays,
		AutoCreateTasks:     lease.AutoCreateTasks,
	}
}

func toScheduleResponse(s renewal.Schedule) scheduleResponse {
	return scheduleResponse{
		EndDate:              formatDate(s.EndDate),
		OwnerNoticeDeadline:  formatDate(s.OwnerNoticeDeadline),
		TenantNoticeDeadline: formatDate(s.TenantNoticeDeadline),
		RenewalNoticeStart:   formatDate(s.RenewalNoticeStart),
		RenewalHardDeadline:  formatDate(s.RenewalHardDeadline),
		DaysRemaining:        s.DaysRemaining,
		Status:               string(s.Status),
	}
}

func toLeaseScheduleResponse(item model.LeaseSchedule) leaseScheduleResponse {
	return leaseScheduleResponse{
		Lease:    toLeaseResponse(item.Lease),
		Schedule: toScheduleResponse(item.Schedule),
	}
}

func toTaskResponse(task model.Task) taskResponse {
	return taskResponse{
		ID:      task.ID.String(),
		LeaseID: task.LeaseID.String(),
		reminderResponse: reminderResponse{
			Title:       task.Title,
			Description: task.Description,
			DueDate:     formatDate(task.DueDate),
			Priority:    string(task.Priority),
			Status:      string(task.Status),
		},
		CompletedAt: task.CompletedAt,
	}
}

func toTaskResponses(tasks []model.Task) []taskResponse {
	items := make([]taskResponse, 0, len(tasks))
	for _, task := range tasks {
		items = append(items, toTaskResponse(task))
	}
	return items
}
