package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/nurpe/lease-renewals/internal/renewal"
)

type Task struct {
	ID          uuid.UUID
	LeaseID     uuid.UUID
	Title       string
	Description string
	DueDate     time.Time
	Priority    renewal.Priority
	Status      renewal.TaskStatus
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
