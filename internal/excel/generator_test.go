package excel

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/nurpe/lease-renewals/internal/model"
	"github.com/nurpe/lease-renewals/internal/renewal"
)

func TestGenerator_Generate(t *testing.T) {
	end := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
	lease := model.Lease{ID: uuid.New(), PropertyName: "Maple St 12", UnitName: "4B", TenantName: "J. Doe", EndDate: end}
	policy := renewal.NewPolicy(end, renewal.DefaultPolicyDefaults())
	schedule, err := renewal.Compute(policy, time.Date(2025, 11, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	report := model.RenewalReport{
		GeneratedOn: time.Date(2025, 11, 15, 0, 0, 0, 0, time.UTC),
		Leases:      []model.LeaseSchedule{{Lease: lease, Schedule: schedule}},
		Tasks: []model.Task{{
			ID:       uuid.New(),
			LeaseID:  lease.ID,
			Title:    renewal.TitleRenewalHardDeadline,
			DueDate:  schedule.RenewalHardDeadline,
			Priority: renewal.PriorityHigh,
			Status:   renewal.TaskStatusPending,
		}},
	}

	content, err := NewGenerator().Generate(report)
	require.NoError(t, err)

	file, err := excelize.OpenReader(bytes.NewReader(content))
	require.NoError(t, err)
	defer file.Close()

	assert.Equal(t, []string{summarySheet, tasksSheet}, file.GetSheetList())

	cell := func(sheet, axis string) string {
		value, err := file.GetCellValue(sheet, axis)
		require.NoError(t, err)
		return value
	}
	assert.Equal(t, "2025-11-15", cell(summarySheet, "B1"))
	assert.Equal(t, "1", cell(summarySheet, "B2"))
	assert.Equal(t, "Maple St 12 / 4B", cell(summarySheet, "A9"))
	assert.Equal(t, "2025-07-04", cell(summarySheet, "D9"))
	assert.Equal(t, "2025-11-01", cell(summarySheet, "F9"))
	assert.Equal(t, "46", cell(summarySheet, "H9"))
	assert.Equal(t, "Approaching", cell(summarySheet, "I9"))

	assert.Equal(t, "Maple St 12 / 4B", cell(tasksSheet, "A2"))
	assert.Equal(t, renewal.TitleRenewalHardDeadline, cell(tasksSheet, "B2"))
	assert.Equal(t, "2025-12-01", cell(tasksSheet, "C2"))
	assert.Equal(t, "HIGH", cell(tasksSheet, "D2"))
}
