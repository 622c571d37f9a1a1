package accrual

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/jobflow/jobflow-backend/internal/timeentry"
	"github.com/jobflow/jobflow-backend/internal/user"
	"github.com/jobflow/jobflow-backend/internal/user/usertest"
	"github.com/jobflow/jobflow-backend/internal/workpattern"
)

func makeApp() (*fiber.App, *InMemoryRepository) {
	log := zap.NewNop().Sugar()
	userRepo := user.NewInMemoryRepository([]user.User{
		{ID: 1, Role: user.RoleManager, ContractType: user.ContractFixed, WeeklyHours: 40, Active: true},
		{ID: 2, Role: user.RoleEmployee, ContractType: user.ContractFlex, WeeklyHours: 10, Active: true},
	})
	users := user.NewService(userRepo)
	patterns := workpattern.NewService(workpattern.NewInMemoryRepository(nil), users)
	entries := timeentry.NewService(timeentry.NewInMemoryRepository([]timeentry.Entry{
		{ID: 1, UserID: 2, Date: "2025-01-06", Hours: 6, Status: timeentry.StatusApproved},
		{ID: 2, UserID: 2, Date: "2025-01-07", Hours: 6, Status: timeentry.StatusApproved},
		{ID: 3, UserID: 2, Date: "2025-01-08", Hours: 6, Status: timeentry.StatusPending},
	}))

	repo := NewInMemoryRepository()
	h := NewHandler(NewService(repo, users, patterns, entries, 1.0, log), log)

	app := fiber.New()
	app.Use(usertest.FakeAuth())
	h.RegisterProtectedRoutes(app)
	return app, repo
}

func get(t *testing.T, app *fiber.App, path, userID, role string) (int, []byte) {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	req.Header.Set("X-User-ID", userID)
	req.Header.Set("X-User-Role", role)
	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("GET %s failed: %v", path, err)
	}
	b, _ := io.ReadAll(res.Body)
	return res.StatusCode, b
}

func TestSummaryCountsApprovedOnly(t *testing.T) {
	app, _ := makeApp()

	status, body := get(t, app, "/api/v1/accrual/summary?from=2025-01-06&to=2025-01-12", "2", "employee")
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	var sum Summary
	if err := json.Unmarshal(body, &sum); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sum.WorkedHours != 12 || sum.PlannedHours != 10 || sum.OvertimeHours != 2 || sum.VacationHours != 0.96 {
		t.Fatalf("unexpected summary %+v", sum)
	}

	status, _ = get(t, app, "/api/v1/accrual/summary?userId=1", "2", "employee")
	if status != fiber.StatusForbidden {
		t.Fatalf("expected 403 for foreign summary, got %d", status)
	}

	status, _ = get(t, app, "/api/v1/accrual/summary?from=2025-01-12&to=2025-01-06", "2", "employee")
	if status != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for inverted period, got %d", status)
	}
}

func TestWeeklyOvertimeRoute(t *testing.T) {
	app, _ := makeApp()

	status, body := get(t, app, "/api/v1/accrual/weekly-overtime?userId=2&from=2025-01-06&to=2025-01-19", "1", "manager")
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	var resp struct {
		Weeks []WeekBalance `json:"weeks"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Weeks) != 2 || resp.Weeks[0].Overtime != 2 || resp.Weeks[1].Undertime != 10 {
		t.Fatalf("unexpected weeks %+v", resp.Weeks)
	}
}

func TestRunRequiresManager(t *testing.T) {
	app, repo := makeApp()

	req := httptest.NewRequest("POST", "/api/v1/accrual/run", strings.NewReader(`{"from":"2025-01-01","to":"2025-01-31"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "2")
	req.Header.Set("X-User-Role", "employee")
	res, _ := app.Test(req)
	if res.StatusCode != fiber.StatusForbidden {
		t.Fatalf("expected 403, got %d", res.StatusCode)
	}

	req = httptest.NewRequest("POST", "/api/v1/accrual/run", strings.NewReader(`{"from":"2025-01-01","to":"2025-01-31"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "1")
	req.Header.Set("X-User-Role", "manager")
	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("run request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	var result RunResult
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Processed != 2 {
		t.Fatalf("expected 2 users processed, got %+v", result)
	}

	records, _ := repo.ListByUser(t.Context(), 2)
	if len(records) != 1 || records[0].WorkedHours != 12 {
		t.Fatalf("unexpected records %+v", records)
	}

	status, body := get(t, app, "/api/v1/accrual/records", "2", "employee")
	if status != fiber.StatusOK || !strings.Contains(string(body), `"periodStart":"2025-01-01"`) {
		t.Fatalf("unexpected records response %d: %s", status, body)
	}
}
