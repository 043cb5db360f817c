package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/lease-renewals/internal/auth"
	"github.com/nurpe/lease-renewals/internal/excel"
	"github.com/nurpe/lease-renewals/internal/http/middleware"
	"github.com/nurpe/lease-renewals/internal/model"
	"github.com/nurpe/lease-renewals/internal/renewal"
	"github.com/nurpe/lease-renewals/internal/repository"
	"github.com/nurpe/lease-renewals/internal/service"
	"github.com/nurpe/lease-renewals/internal/testutil"
)

type stubClock struct{ now time.Time }

func (c stubClock) Now() time.Time { return c.now }

type testServer struct {
	router  *gin.Engine
	parser  *auth.Parser
	manager model.Principal
	viewer  model.Principal
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	database := testutil.NewDB(t)
	svc := service.NewLeaseService(
		repository.NewLeaseRepository(database),
		repository.NewTaskRepository(database),
		service.Options{
			Excel: excel.NewGenerator(),
			Clock: stubClock{now: time.Date(2025, 11, 15, 9, 0, 0, 0, time.UTC)},
			Log:   zerolog.Nop(),
		},
	)

	parser := auth.NewParser("handler-test-secret")
	router := NewRouter(NewHandler(svc, zerolog.Nop()), middleware.Auth(parser), "test", nil, zerolog.Nop())

	orgID := uuid.New()
	return &testServer{
		router:  router,
		parser:  parser,
		manager: model.Principal{UserID: uuid.New(), OrgID: orgID, Role: model.UserRoleManager},
		viewer:  model.Principal{UserID: uuid.New(), OrgID: orgID, Role: model.UserRoleViewer},
	}
}

func (s *testServer) do(t *testing.T, principal *model.Principal, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if principal != nil {
		token, err := s.parser.Issue(*principal, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))})
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealthzIsPublic(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, nil, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, nil, http.MethodGet, "/leases", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLeaseLifecycle(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, &s.manager, http.MethodPost, "/leases", map[string]interface{}{
		"property_name":     "Maple St 12",
		"unit_name":         "4B",
		"tenant_name":       "J. Doe",
		"end_date":          "2025-12-31",
		"auto_create_tasks": true,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	lease := decode[leaseResponse](t, rec)
	assert.Equal(t, "Maple St 12 / 4B", lease.Label)
	assert.Equal(t, 180, lease.OwnerNoticeDays)

	rec = s.do(t, &s.viewer, http.MethodGet, "/leases/"+lease.ID+"/schedule", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	schedule := decode[leaseScheduleResponse](t, rec)
	assert.Equal(t, "2025-07-04", schedule.Schedule.OwnerNoticeDeadline)
	assert.Equal(t, "2025-12-01", schedule.Schedule.RenewalHardDeadline)
	assert.Equal(t, 46, schedule.Schedule.DaysRemaining)
	assert.Equal(t, "APPROACHING", schedule.Schedule.Status)

	rec = s.do(t, &s.viewer, http.MethodGet, "/leases/"+lease.ID+"/reminders", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	reminders := decode[struct {
		Items []taskResponse `json:"items"`
	}](t, rec)
	require.Len(t, reminders.Items, 2)
	assert.Equal(t, "MEDIUM", reminders.Items[0].Priority)
	assert.Equal(t, "HIGH", reminders.Items[1].Priority)

	rec = s.do(t, &s.viewer, http.MethodPost, "/tasks/"+reminders.Items[0].ID+"/complete", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, &s.manager, http.MethodPost, "/tasks/"+reminders.Items[0].ID+"/complete", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "DONE", decode[taskResponse](t, rec).Status)

	rec = s.do(t, &s.viewer, http.MethodGet, "/tasks/due?within_days=30", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	due := decode[struct {
		Items []taskResponse `json:"items"`
	}](t, rec)
	require.Len(t, due.Items, 1)
	assert.Equal(t, renewal.TitleRenewalHardDeadline, due.Items[0].Title)

	rec = s.do(t, &s.manager, http.MethodPost, "/leases/"+lease.ID+"/renew", map[string]string{"end_date": "2026-12-31"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "NORMAL", decode[leaseScheduleResponse](t, rec).Schedule.Status)
}

func TestCreateLease_RejectsNegativeNotice(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, &s.manager, http.MethodPost, "/leases", map[string]interface{}{
		"unit_name":         "4B",
		"end_date":          "2025-12-31",
		"owner_notice_days": -5,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdatePolicy(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, &s.manager, http.MethodPost, "/leases", map[string]interface{}{
		"unit_name":         "4B",
		"end_date":          "2025-12-31",
		"auto_create_tasks": true,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	lease := decode[leaseResponse](t, rec)

	rec = s.do(t, &s.manager, http.MethodPut, "/leases/"+lease.ID+"/policy", map[string]interface{}{
		"renewal_notice_days": 90,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[leaseScheduleResponse](t, rec)
	assert.Equal(t, 90, updated.Lease.RenewalNoticeDays)
	assert.Equal(t, 180, updated.Lease.OwnerNoticeDays)
	assert.Equal(t, "2025-10-02", updated.Schedule.RenewalNoticeStart)

	rec = s.do(t, &s.viewer, http.MethodGet, "/leases/"+lease.ID+"/reminders", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	reminders := decode[struct {
		Items []taskResponse `json:"items"`
	}](t, rec)
	require.Len(t, reminders.Items, 2)
	assert.Equal(t, "2025-10-02", reminders.Items[0].DueDate)

	rec = s.do(t, &s.manager, http.MethodPut, "/leases/"+lease.ID+"/policy", map[string]interface{}{
		"renewal_deadline_days": -1,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, &s.viewer, http.MethodPut, "/leases/"+lease.ID+"/policy", map[string]interface{}{
		"renewal_notice_days": 30,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSyncReminders_DisabledLease(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, &s.manager, http.MethodPost, "/leases", map[string]interface{}{
		"unit_name": "4B",
		"end_date":  "2025-12-31",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	lease := decode[leaseResponse](t, rec)

	rec = s.do(t, &s.manager, http.MethodPost, "/leases/"+lease.ID+"/reminders/sync", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPreviewSchedule(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, &s.viewer, http.MethodPost, "/renewals/preview", map[string]interface{}{
		"end_date":              "2025-12-31",
		"renewal_notice_days":   30,
		"renewal_deadline_days": 60,
		"label":                 "Unit 9",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[struct {
		Schedule scheduleResponse   `json:"schedule"`
		Tasks    []reminderResponse `json:"tasks"`
	}](t, rec)
	assert.Equal(t, "2025-12-01", body.Schedule.RenewalNoticeStart)
	assert.Equal(t, "2025-11-01", body.Schedule.RenewalHardDeadline)
	assert.Equal(t, "OVERDUE_RENEWAL", body.Schedule.Status)
	require.Len(t, body.Tasks, 2)
	assert.Contains(t, body.Tasks[0].Description, "Unit 9")
}

func TestUpcomingRenewals_StatusFilter(t *testing.T) {
	s := newTestServer(t)
	for _, end := range []string{"2025-12-31", "2026-12-31"} {
		rec := s.do(t, &s.manager, http.MethodPost, "/leases", map[string]interface{}{"unit_name": end, "end_date": end})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := s.do(t, &s.viewer, http.MethodGet, "/renewals/upcoming?status=approaching", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct {
		Items []leaseScheduleResponse `json:"items"`
	}](t, rec)
	require.Len(t, body.Items, 1)
	assert.Equal(t, "2025-12-31", body.Items[0].Lease.EndDate)

	rec = s.do(t, &s.viewer, http.MethodGet, "/renewals/upcoming?status=soon", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportRenewals(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, &s.manager, http.MethodPost, "/leases", map[string]interface{}{"unit_name": "4B", "end_date": "2025-12-31"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, &s.viewer, http.MethodGet, "/renewals/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "renewals-20251115.xlsx")
	assert.NotEmpty(t, rec.Body.Bytes())
}

func TestInvalidID(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, &s.viewer, http.MethodGet, "/leases/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, &s.viewer, http.MethodGet, "/leases/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
