package dashboardHandler

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"PPEGuard/internal/api/dashboard"
	"PPEGuard/internal/entity"
	"PPEGuard/internal/middleware"
	jwtPkg "PPEGuard/pkg/jwt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

type stubService struct {
	org    string
	anchor time.Time
	topN   int
	email  string
}

func (s *stubService) Daily(_ context.Context, organizationID string, day time.Time) (dashboard.DailyDashboard, error) {
	s.org = organizationID
	s.anchor = day
	return dashboard.DailyDashboard{OrganizationID: organizationID, TotalEmployees: 4}, nil
}

func (s *stubService) Weekly(_ context.Context, organizationID string, anchor time.Time, topN int) (dashboard.WeeklyDashboard, error) {
	s.org = organizationID
	s.anchor = anchor
	s.topN = topN
	return dashboard.WeeklyDashboard{OrganizationID: organizationID}, nil
}

func (s *stubService) Monthly(_ context.Context, organizationID string, anchor time.Time, topN int) (dashboard.MonthlyDashboard, error) {
	s.org = organizationID
	s.anchor = anchor
	s.topN = topN
	return dashboard.MonthlyDashboard{OrganizationID: organizationID}, nil
}

func (s *stubService) Employee(_ context.Context, user entity.UserLoginData) (dashboard.EmployeeDashboard, error) {
	s.email = user.Email
	return dashboard.EmployeeDashboard{OrganizationID: user.OrganizationID}, nil
}

func newTestApp(t *testing.T, svc *stubService) *fiber.App {
	t.Helper()
	t.Setenv(jwtPkg.AccessTokenSecret, "test-secret")

	log := logrus.New()
	log.SetOutput(io.Discard)

	app := fiber.New()
	h := New(log, validator.New(), middleware.New(log), svc, time.UTC)
	h.Start(app.Group("/api/v1"))
	return app
}

func get(t *testing.T, app *fiber.App, role entity.Role, path string) (int, map[string]interface{}) {
	t.Helper()

	user := entity.UserLoginData{ID: "org-1", Email: "hse@acme.test", Role: role}
	if role == entity.RoleEmployee {
		user = entity.UserLoginData{ID: "emp-1", Email: "ayu@acme.test", Role: role, OrganizationID: "org-1"}
	}
	token, _, err := jwtPkg.SignUser(user, time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	req := httptest.NewRequest("GET", path, nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	body := map[string]interface{}{}
	raw, _ := io.ReadAll(resp.Body)
	_ = jsoniter.Unmarshal(raw, &body)
	return resp.StatusCode, body
}

func TestWeeklyPassesAnchorAndTop(t *testing.T) {
	svc := &stubService{}
	app := newTestApp(t, svc)

	status, body := get(t, app, entity.RoleCompany, "/api/v1/dashboard/weekly?anchor=2026-03-10&top=3")
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d %v", status, body)
	}
	if svc.org != "org-1" || svc.topN != 3 || entity.DateKey(svc.anchor) != "2026-03-10" {
		t.Fatalf("unexpected args %q %d %v", svc.org, svc.topN, svc.anchor)
	}
}

func TestMonthlyDefaultsAnchor(t *testing.T) {
	svc := &stubService{}
	app := newTestApp(t, svc)

	status, _ := get(t, app, entity.RoleCompany, "/api/v1/dashboard/monthly")
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if !svc.anchor.IsZero() || svc.topN != 0 {
		t.Fatalf("expected service defaults, got %v %d", svc.anchor, svc.topN)
	}
}

func TestPeriodQueryValidation(t *testing.T) {
	app := newTestApp(t, &stubService{})

	for _, path := range []string{
		"/api/v1/dashboard/weekly?top=500",
		"/api/v1/dashboard/weekly?top=-1",
		"/api/v1/dashboard/monthly?anchor=March",
		"/api/v1/dashboard/daily?date=10-03-2026",
	} {
		if status, _ := get(t, app, entity.RoleCompany, path); status != fiber.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", path, status)
		}
	}
}

func TestDashboardRoles(t *testing.T) {
	svc := &stubService{}
	app := newTestApp(t, svc)

	if status, _ := get(t, app, entity.RoleEmployee, "/api/v1/dashboard/daily"); status != fiber.StatusForbidden {
		t.Fatalf("expected 403 for employee on company view, got %d", status)
	}
	if status, _ := get(t, app, entity.RoleCompany, "/api/v1/dashboard/employee"); status != fiber.StatusForbidden {
		t.Fatalf("expected 403 for company on employee view, got %d", status)
	}

	status, body := get(t, app, entity.RoleEmployee, "/api/v1/dashboard/employee")
	if status != fiber.StatusOK || body["organization_id"] != "org-1" {
		t.Fatalf("unexpected %d %v", status, body)
	}
	if svc.email != "ayu@acme.test" {
		t.Fatalf("expected caller email, got %q", svc.email)
	}
}
