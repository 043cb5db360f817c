package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/lease-renewals/internal/http/middleware"
	"github.com/nurpe/lease-renewals/internal/model"
	"github.com/nurpe/lease-renewals/internal/renewal"
	"github.com/nurpe/lease-renewals/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Handler struct {
	leases *service.LeaseService
	log    zerolog.Logger
}

func NewHandler(leases *service.LeaseService, log zerolog.Logger) *Handler {
	return &Handler{leases: leases, log: log}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	protected := router.Group("/")
	protected.Use(authMiddleware)

	protected.POST("/leases", h.createLease)
	protected.GET("/leases", h.listLeases)
	protected.GET("/leases/:id", h.getLease)
	protected.GET("/leases/:id/schedule", h.getSchedule)
	protected.POST("/leases/:id/renew", h.renewLease)
	protected.PUT("/leases/:id/policy", h.updatePolicy)
	protected.POST("/leases/:id/reminders/sync", h.syncReminders)
	protected.GET("/leases/:id/reminders", h.listReminders)

	protected.POST("/renewals/preview", h.previewSchedule)
	protected.GET("/renewals/upcoming", h.upcomingRenewals)
	protected.GET("/renewals/export", h.exportRenewals)

	protected.GET("/tasks/due", h.listDueTasks)
	protected.POST("/tasks/:id/complete", h.completeTask)
}

type policyRequest struct {
	EndDate             string `json:"end_date" binding:"required"`
	OwnerNoticeDays     *int   `json:"owner_notice_days"`
	TenantNoticeDays    *int   `json:"tenant_notice_days"`
	RenewalNoticeDays   *int   `json:"renewal_notice_days"`
	RenewalDeadlineDays *int   `json:"renewal_deadline_days"`
}

func (r policyRequest) raw() renewal.RawPolicy {
	return renewal.RawPolicy{
		EndDate:             r.EndDate,
		OwnerNoticeDays:     r.OwnerNoticeDays,
		TenantNoticeDays:    r.TenantNoticeDays,
		RenewalNoticeDays:   r.RenewalNoticeDays,
		RenewalDeadlineDays: r.RenewalDeadlineDays,
	}
}

type createLeaseRequest struct {
	policyRequest
	PropertyName    string `json:"property_name"`
	UnitName        string `json:"unit_name"`
	TenantName      string `json:"tenant_name"`
	StartDate       string `json:"start_date"`
	AutoCreateTasks bool   `json:"auto_create_tasks"`
}

type previewRequest struct {
	policyRequest
	Label string `json:"label"`
}

// updatePolicyRequest leaves omitted day counts at their stored values.
type updatePolicyRequest struct {
	EndDate             string `json:"end_date"`
	OwnerNoticeDays     *int   `json:"owner_notice_days"`
	TenantNoticeDays    *int   `json:"tenant_notice_days"`
	RenewalNoticeDays   *int   `json:"renewal_notice_days"`
	RenewalDeadlineDays *int   `json:"renewal_deadline_days"`
}

type renewLeaseRequest struct {
	EndDate string `json:"end_date" binding:"required"`
}

func (h *Handler) createLease(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req createLeaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lease, err := h.leases.CreateLease(c.Request.Context(), service.CreateLeaseInput{
		Principal:       principal,
		PropertyName:    req.PropertyName,
		UnitName:        req.UnitName,
		TenantName:      req.TenantName,
		StartDate:       req.StartDate,
		Policy:          req.raw(),
		AutoCreateTasks: req.AutoCreateTasks,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toLeaseResponse(*lease))
}

func (h *Handler) listLeases(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	leases, err := h.leases.ListLeases(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	items := make([]leaseResponse, 0, len(leases))
	for _, lease := range leases {
		items = append(items, toLeaseResponse(lease))
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) getLease(c *gin.Context) {
	principal, id, ok := h.principalAndID(c)
	if !ok {
		return
	}

	lease, err := h.leases.GetLease(c.Request.Context(), id, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toLeaseResponse(*lease))
}

func (h *Handler) getSchedule(c *gin.Context) {
	principal, id, ok := h.principalAndID(c)
	if !ok {
		return
	}

	result, err := h.leases.GetSchedule(c.Request.Context(), id, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toLeaseScheduleResponse(*result))
}

func (h *Handler) renewLease(c *gin.Context) {
	principal, id, ok := h.principalAndID(c)
	if !ok {
		return
	}

	var req renewLeaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	endDate, err := renewal.ParseDate(req.EndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end_date"})
		return
	}

	result, err := h.leases.RenewLease(c.Request.Context(), id, endDate, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toLeaseScheduleResponse(*result))
}

func (h *Handler) updatePolicy(c *gin.Context) {
	principal, id, ok := h.principalAndID(c)
	if !ok {
		return
	}

	var req updatePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.leases.UpdatePolicy(c.Request.Context(), id, renewal.RawPolicy{
		EndDate:             req.EndDate,
		OwnerNoticeDays:     req.OwnerNoticeDays,
		TenantNoticeDays:    req.TenantNoticeDays,
		RenewalNoticeDays:   req.RenewalNoticeDays,
		RenewalDeadlineDays: req.RenewalDeadlineDays,
	}, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toLeaseScheduleResponse(*result))
}

func (h *Handler) syncReminders(c *gin.Context) {
	principal, id, ok := h.principalAndID(c)
	if !ok {
		return
	}

	tasks, err := h.leases.SyncReminders(c.Request.Context(), id, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": toTaskResponses(tasks)})
}

func (h *Handler) listReminders(c *gin.Context) {
	principal, id, ok := h.principalAndID(c)
	if !ok {
		return
	}

	tasks, err := h.leases.ListTasks(c.Request.Context(), id, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": toTaskResponses(tasks)})
}

func (h *Handler) previewSchedule(c *gin.Context) {
	if _, ok := middleware.MustPrincipal(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req previewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	preview, err := h.leases.PreviewSchedule(req.raw(), req.Label)
	if err != nil {
		h.handleError(c, err)
		return
	}

	tasks := make([]reminderResponse, 0, len(preview.Tasks))
	for _, task := range preview.Tasks {
		tasks = append(tasks, reminderResponse{
			Title:       task.Title,
			Description: task.Description,
			DueDate:     formatDate(task.DueDate),
			Priority:    string(task.Priority),
			Status:      string(task.Status),
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"schedule": toScheduleResponse(preview.Schedule),
		"tasks":    tasks,
	})
}

func (h *Handler) upcomingRenewals(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	statuses, err := parseStatuses(c.QueryArray("status"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	results, err := h.leases.UpcomingRenewals(c.Request.Context(), principal, statuses)
	if err != nil {
		h.handleError(c, err)
		return
	}
	items := make([]leaseScheduleResponse, 0, len(results))
	for _, result := range results {
		items = append(items, toLeaseScheduleResponse(result))
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) exportRenewals(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	result, err := h.leases.ExportRenewals(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, xlsxContentType, result.Content)
}

func (h *Handler) listDueTasks(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	withinDays := 14
	if raw := strings.TrimSpace(c.Query("within_days")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid within_days"})
			return
		}
		withinDays = parsed
	}

	tasks, err := h.leases.ListDueTasks(c.Request.Context(), principal, withinDays)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": toTaskResponses(tasks)})
}

func (h *Handler) completeTask(c *gin.Context) {
	principal, id, ok := h.principalAndID(c)
	if !ok {
		return
	}

	task, err := h.leases.CompleteTask(c.Request.Context(), id, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTaskResponse(*task))
}

func (h *Handler) principalAndID(c *gin.Context) (model.Principal, uuid.UUID, bool) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return model.Principal{}, uuid.Nil, false
	}
	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return model.Principal{}, uuid.Nil, false
	}
	return principal, id, true
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrAutoTasksDisabled):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func parseStatuses(raw []string) ([]renewal.Status, error) {
	var statuses []renewal.Status
	for _, item := range raw {
		for _, part := range strings.Split(item, ",") {
			part = strings.ToUpper(strings.TrimSpace(part))
			if part == "" {
				continue
			}
			status, ok := renewal.ParseStatus(part)
			if !ok {
				return nil, service.ErrInvalidInput
			}
			statuses = append(statuses, status)
		}
	}
	return statuses, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
