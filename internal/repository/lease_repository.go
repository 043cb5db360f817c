package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/lease-renewals/internal/model"
)

const leaseColumns = `
	id,
	organization_id,
	property_name,
	unit_name,
	tenant_name,
	start_date,
	end_date,
	owner_notice_days,
	tenant_notice_days,
	renewal_notice_days,
	renewal_deadline_days,
	auto_create_tasks,
	created_at,
	updated_at
`

type LeaseRepository struct {
	db *gorm.DB
}

func NewLeaseRepository(db *gorm.DB) *LeaseRepository {
	return &LeaseRepository{db: db}
}

// Transaction runs fn with lease and task repositories bound to a single
// database transaction. Any error returned by fn rolls both back.
func (r *LeaseRepository) Transaction(ctx context.Context, fn func(leases *LeaseRepository, tasks *TaskRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewLeaseRepository(tx), NewTaskRepository(tx))
	})
}

// leaseRow mirrors the leases table; start_date is nullable.
type leaseRow struct {
	ID                  uuid.UUID
	OrganizationID      uuid.UUID
	PropertyName        string
	UnitName            string
	TenantName          string
	StartDate           *time.Time
	EndDate             time.Time
	OwnerNoticeDays     int
	TenantNoticeDays    int
	RenewalNoticeDays   int
	RenewalDeadlineDays int
	AutoCreateTasks     bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (r leaseRow) toModel() model.Lease {
	lease := model.Lease{
		ID:                  r.ID,
		OrganizationID:      r.OrganizationID,
		PropertyName:        r.PropertyName,
		UnitName:            r.UnitName,
		TenantName:          r.TenantName,
		EndDate:             r.EndDate,
		OwnerNoticeDays:     r.OwnerNoticeDays,
		TenantNoticeDays:    r.TenantNoticeDays,
		RenewalNoticeDays:   r.RenewalNoticeDays,
		RenewalDeadlineDays: r.RenewalDeadlineDays,
		AutoCreateTasks:     r.AutoCreateTasks,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}
	if r.StartDate != nil {
		lease.StartDate = *r.StartDate
	}
	return lease
}

func toModels(rows []leaseRow) []model.Lease {
	leases := make([]model.Lease, 0, len(rows))
	for _, row := range rows {
		leases = append(leases, row.toModel())
	}
	return leases
}

func (r *LeaseRepository) Create(ctx context.Context, lease model.Lease) (*model.Lease, error) {
	if lease.ID == uuid.Nil {
		lease.ID = uuid.New()
	}
	now := time.Now().UTC()
	lease.CreatedAt = now
	lease.UpdatedAt = now

	var startDate *time.Time
	if !lease.StartDate.IsZero() {
		startDate = &lease.StartDate
	}

	err := r.db.WithContext(ctx).Exec(`
		INSERT INTO leases (`+leaseColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		lease.ID,
		lease.OrganizationID,
		lease.PropertyName,
		lease.UnitName,
		lease.TenantName,
		startDate,
		lease.EndDate,
		lease.OwnerNoticeDays,
		lease.TenantNoticeDays,
		lease.RenewalNoticeDays,
		lease.RenewalDeadlineDays,
		lease.AutoCreateTasks,
		lease.CreatedAt,
		lease.UpdatedAt,
	).Error
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, lease.ID)
}

func (r *LeaseRepository) Get(ctx context.Context, id uuid.UUID) (*model.Lease, error) {
	var row leaseRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+leaseColumns+`
		FROM leases
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	lease := row.toModel()
	return &lease, nil
}

func (r *LeaseRepository) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]model.Lease, error) {
	var rows []leaseRow
	if err := r.db.WithContext(ctx).Raw(`
		SELECT `+leaseColumns+`
		FROM leases
		WHERE organization_id = ?
		ORDER BY end_date ASC, id ASC
	`, orgID).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return toModels(rows), nil
}

// ListAutoCreate returns every lease that wants reminder tasks, across organizations.
func (r *LeaseRepository) ListAutoCreate(ctx context.Context) ([]model.Lease, error) {
	var rows []leaseRow
	if err := r.db.WithContext(ctx).Raw(`
		SELECT `+leaseColumns+`
		FROM leases
		WHERE auto_create_tasks = ?
		ORDER BY end_date ASC, id ASC
	`, true).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return toModels(rows), nil
}

func (r *LeaseRepository) UpdateEndDate(ctx context.Context, id uuid.UUID, endDate time.Time) error {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE leases
		SET end_date = ?, updated_at = ?
		WHERE id = ?
	`, endDate, time.Now().UTC(), id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *LeaseRepository) UpdatePolicy(ctx context.Context, lease model.Lease) error {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE leases
		SET
			owner_notice_days = ?,
			tenant_notice_days = ?,
			renewal_notice_days = ?,
			renewal_deadline_days = ?,
			auto_create_tasks = ?,
			updated_at = ?
		WHERE id = ?
	`,
		lease.OwnerNoticeDays,
		lease.TenantNoticeDays,
		lease.RenewalNoticeDays,
		lease.RenewalDeadlineDays,
		lease.AutoCreateTasks,
		time.Now().UTC(),
		lease.ID,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
