package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/lease-renewals/internal/model"
	"github.com/nurpe/lease-renewals/internal/renewal"
)

const taskColumns = `
	id,
	lease_id,
	title,
	description,
	due_date,
	priority,
	status,
	completed_at,
	created_at,
	updated_at
`

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// UpsertReminders creates or updates tasks keyed by (lease_id, title).
// A completed task stays completed unless its due date moved.
func (r *TaskRepository) UpsertReminders(ctx context.Context, tasks []renewal.ReminderTask) error {
	if len(tasks) == 0 {
		return nil
	}
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, task := range tasks {
			if err := tx.Exec(`
				INSERT INTO reminder_tasks (`+taskColumns+`)
				VALUES (?, ?, ?, ?, ?, ?, ?, NULL, ?, ?)
				ON CONFLICT (lease_id, title) DO UPDATE SET
					description = excluded.description,
					priority = excluded.priority,
					status = CASE
						WHEN reminder_tasks.due_date <> excluded.due_date THEN excluded.status
						ELSE reminder_tasks.status
					END,
					completed_at = CASE
						WHEN reminder_tasks.due_date <> excluded.due_date THEN NULL
						ELSE reminder_tasks.completed_at
					END,
					due_date = excluded.due_date,
					updated_at = excluded.updated_at
			`,
				uuid.New(),
				task.LeaseID,
				task.Title,
				task.Description,
				task.DueDate,
				task.Priority,
				task.Status,
				now,
				now,
			).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *TaskRepository) Get(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).Raw(`
		SELECT `+taskColumns+`
		FROM reminder_tasks
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&task).Error; err != nil {
		return nil, err
	}
	if task.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &task, nil
}

func (r *TaskRepository) ListByLease(ctx context.Context, leaseID uuid.UUID) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Raw(`
		SELECT `+taskColumns+`
		FROM reminder_tasks
		WHERE lease_id = ?
		ORDER BY due_date ASC, title ASC
	`, leaseID).Scan(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListDue returns pending tasks of an organization due on or before until.
func (r *TaskRepository) ListDue(ctx context.Context, orgID uuid.UUID, until time.Time) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Raw(`
		SELECT
			t.id,
			t.lease_id,
			t.title,
			t.description,
			t.due_date,
			t.priority,
			t.status,
			t.completed_at,
			t.created_at,
			t.updated_at
		FROM reminder_tasks t
		JOIN leases l ON l.id = t.lease_id
		WHERE l.organization_id = ?
			AND t.status = ?
			AND t.due_date <= ?
		ORDER BY t.due_date ASC, t.title ASC
	`, orgID, renewal.TaskStatusPending, until).Scan(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *TaskRepository) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Raw(`
		SELECT
			t.id,
			t.lease_id,
			t.title,
			t.description,
			t.due_date,
			t.priority,
			t.status,
			t.completed_at,
			t.created_at,
			t.updated_at
		FROM reminder_tasks t
		JOIN leases l ON l.id = t.lease_id
		WHERE l.organization_id = ?
		ORDER BY t.due_date ASC, t.title ASC
	`, orgID).Scan(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// MarkDone reports whether the task changed state.
func (r *TaskRepository) MarkDone(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE reminder_tasks
		SET status = ?, completed_at = ?, updated_at = ?
		WHERE id = ? AND status <> ?
	`, renewal.TaskStatusDone, at, at, id, renewal.TaskStatusDone)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
