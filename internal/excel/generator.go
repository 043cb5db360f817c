package excel

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/nurpe/lease-renewals/internal/model"
	"github.com/nurpe/lease-renewals/internal/renewal"
)

const (
	summarySheet = "Renewals"
	tasksSheet   = "Reminders"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Generate(report model.RenewalReport) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if err := g.writeSummary(file, summarySheet, report); err != nil {
		return nil, err
	}

	if _, err := file.NewSheet(tasksSheet); err != nil {
		return nil, err
	}
	if err := g.writeTasks(file, tasksSheet, report); err != nil {
		return nil, err
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeSummary(file *excelize.File, sheet string, report model.RenewalReport) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Generated on")
	set("B1", formatDate(report.GeneratedOn))
	set("A2", "Leases")
	set("B2", len(report.Leases))

	counts := countStatuses(report.Leases)
	statuses := []renewal.Status{
		renewal.StatusExpired,
		renewal.StatusOverdueRenewal,
		renewal.StatusApproaching,
		renewal.StatusNormal,
	}
	for i, status := range statuses {
		row := 3 + i
		set(fmt.Sprintf("A%d", row), statusLabel(status))
		set(fmt.Sprintf("B%d", row), counts[status])
	}

	tableRow := 8
	headers := []string{
		"Lease",
		"Tenant",
		"End date",
		"Owner notice by",
		"Tenant notice by",
		"Renewal outreach from",
		"Renewal deadline",
		"Days remaining",
		"Status",
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, tableRow)
		set(cell, header)
	}

	for i, item := range report.Leases {
		row := tableRow + 1 + i
		s := item.Schedule
		set(fmt.Sprintf("A%d", row), leaseLabel(item.Lease))
		set(fmt.Sprintf("B%d", row), item.Lease.TenantName)
		set(fmt.Sprintf("C%d", row), formatDate(s.EndDate))
		set(fmt.Sprintf("D%d", row), formatDate(s.OwnerNoticeDeadline))
		set(fmt.Sprintf("E%d", row), formatDate(s.TenantNoticeDeadline))
		set(fmt.Sprintf("F%d", row), formatDate(s.RenewalNoticeStart))
		set(fmt.Sprintf("G%d", row), formatDate(s.RenewalHardDeadline))
		set(fmt.Sprintf("H%d", row), s.DaysRemaining)
		set(fmt.Sprintf("I%d", row), statusLabel(s.Status))
	}

	_ = file.SetColWidth(sheet, "A", "A", 40)
	_ = file.SetColWidth(sheet, "B", "B", 24)
	_ = file.SetColWidth(sheet, "C", "G", 18)
	_ = file.SetColWidth(sheet, "H", "H", 14)
	_ = file.SetColWidth(sheet, "I", "I", 18)
	return nil
}

func (g *Generator) writeTasks(file *excelize.File, sheet string, report model.RenewalReport) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	labels := make(map[uuid.UUID]string, len(report.Leases))
	for _, item := range report.Leases {
		labels[item.Lease.ID] = leaseLabel(item.Lease)
	}

	headers := []string{"Lease", "Task", "Due date", "Priority", "Status", "Description"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		set(cell, header)
	}

	for i, task := range report.Tasks {
		row := 2 + i
		label, ok := labels[task.LeaseID]
		if !ok {
			label = task.LeaseID.String()
		}
		set(fmt.Sprintf("A%d", row), label)
		set(fmt.Sprintf("B%d", row), task.Title)
		set(fmt.Sprintf("C%d", row), formatDate(task.DueDate))
		set(fmt.Sprintf("D%d", row), string(task.Priority))
		set(fmt.Sprintf("E%d", row), string(task.Status))
		set(fmt.Sprintf("F%d", row), task.Description)
	}

	_ = file.SetColWidth(sheet, "A", "A", 40)
	_ = file.SetColWidth(sheet, "B", "B", 24)
	_ = file.SetColWidth(sheet, "C", "E", 14)
	_ = file.SetColWidth(sheet, "F", "F", 60)
	return nil
}

func countStatuses(items []model.LeaseSchedule) map[renewal.Status]int {
	counts := make(map[renewal.Status]int, 4)
	for _, item := range items {
		counts[item.Schedule.Status]++
	}
	return counts
}

func statusLabel(status renewal.Status) string {
	switch status {
	case renewal.StatusExpired:
		return "Expired"
	case renewal.StatusOverdueRenewal:
		return "Renewal overdue"
	case renewal.StatusApproaching:
		return "Approaching"
	case renewal.StatusNormal:
		return "Normal"
	default:
		return string(status)
	}
}

func leaseLabel(lease model.Lease) string {
	label := strings.TrimSpace(lease.Label())
	if label == "" {
		return lease.ID.String()
	}
	return label
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
