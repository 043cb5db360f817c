package db

import (
	"fmt"

	"gorm.io/gorm"
)

// Statements must stay valid for both Postgres and SQLite.
var migrationStatements = []string{
	`CREATE TABLE IF NOT EXISTS leases (
		id UUID PRIMARY KEY,
		organization_id UUID NOT NULL,
		property_name VARCHAR(255) NOT NULL DEFAULT '',
		unit_name VARCHAR(255) NOT NULL DEFAULT '',
		tenant_name VARCHAR(255) NOT NULL DEFAULT '',
		start_date DATE,
		end_date DATE NOT NULL,
		owner_notice_days INTEGER NOT NULL DEFAULT 180,
		tenant_notice_days INTEGER NOT NULL DEFAULT 30,
		renewal_notice_days INTEGER NOT NULL DEFAULT 60,
		renewal_deadline_days INTEGER NOT NULL DEFAULT 30,
		auto_create_tasks BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		CHECK (owner_notice_days >= 0),
		CHECK (tenant_notice_days >= 0),
		CHECK (renewal_notice_days >= 0),
		CHECK (renewal_deadline_days >= 0)
	);`,
	`CREATE INDEX IF NOT EXISTS idx_leases_organization_id ON leases (organization_id);`,
	`CREATE INDEX IF NOT EXISTS idx_leases_end_date ON leases (end_date);`,
	`CREATE TABLE IF NOT EXISTS reminder_tasks (
		id UUID PRIMARY KEY,
		lease_id UUID NOT NULL REFERENCES leases(id) ON DELETE CASCADE,
		title VARCHAR(255) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		due_date DATE NOT NULL,
		priority VARCHAR(16) NOT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'PENDING',
		completed_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_reminder_tasks_lease_title ON reminder_tasks (lease_id, title);`,
	`CREATE INDEX IF NOT EXISTS idx_reminder_tasks_due_date ON reminder_tasks (due_date);`,
	`CREATE INDEX IF NOT EXISTS idx_reminder_tasks_status ON reminder_tasks (status);`,
}

// Migrate applies the schema. Every statement is idempotent.
func Migrate(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
