package workpattern

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/jobflow/jobflow-backend/internal/user"
	"github.com/jobflow/jobflow-backend/internal/user/usertest"
)

func makeApp(t *testing.T) (*fiber.App, *InMemoryRepository) {
	t.Helper()
	users := user.NewInMemoryRepository([]user.User{
		{ID: 1, Email: "m@x", Role: user.RoleManager, ContractType: user.ContractFixed, WeeklyHours: 40, Active: true},
		{ID: 2, Email: "e@x", Role: user.RoleEmployee, ContractType: user.ContractFixed, WeeklyHours: 20, Active: true},
	})
	repo := NewInMemoryRepository(nil)
	h := NewHandler(NewService(repo, users), zap.NewNop().Sugar())

	app := fiber.New()
	app.Use(usertest.FakeAuth())
	h.RegisterProtectedRoutes(app)
	return app, repo
}

func TestGetFallsBackToContractHours(t *testing.T) {
	app, _ := makeApp(t)

	req := httptest.NewRequest("GET", "/api/v1/work-patterns/2", nil)
	req.Header.Set("X-User-ID", "2")
	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	var p Pattern
	if err := json.NewDecoder(res.Body).Decode(&p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Days["monday"].Hours != 4 {
		t.Fatalf("expected 4h on monday, got %v", p.Days["monday"].Hours)
	}

	req = httptest.NewRequest("GET", "/api/v1/work-patterns/1", nil)
	req.Header.Set("X-User-ID", "2")
	req.Header.Set("X-User-Role", "employee")
	res, _ = app.Test(req)
	if res.StatusCode != fiber.StatusForbidden {
		t.Fatalf("expected 403 reading another user's pattern, got %d", res.StatusCode)
	}
}

func TestPutAndPlannedHours(t *testing.T) {
	app, repo := makeApp(t)

	body := `{"days":{"monday":{"hours":8,"start":"07:00"},"tuesday":{"hours":8},"sunday":{"hours":5}}}`
	req := httptest.NewRequest("PUT", "/api/v1/work-patterns/2", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "1")
	req.Header.Set("X-User-Role", "manager")
	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusOK {
		b, _ := io.ReadAll(res.Body)
		t.Fatalf("expected 200, got %d: %s", res.StatusCode, b)
	}
	stored, err := repo.GetByUser(t.Context(), 2)
	if err != nil || len(stored.Days) != 7 {
		t.Fatalf("expected stored pattern with 7 days, got %+v (%v)", stored, err)
	}

	req = httptest.NewRequest("GET", "/api/v1/work-patterns/2/planned-hours?from=2025-01-06&to=2025-01-12", nil)
	req.Header.Set("X-User-ID", "2")
	res, _ = app.Test(req)
	b, _ := io.ReadAll(res.Body)
	if res.StatusCode != fiber.StatusOK || !strings.Contains(string(b), `"plannedHours":21`) {
		t.Fatalf("unexpected planned hours response %d: %s", res.StatusCode, b)
	}

	req = httptest.NewRequest("PUT", "/api/v1/work-patterns/2", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "2")
	req.Header.Set("X-User-Role", "employee")
	res, _ = app.Test(req)
	if res.StatusCode != fiber.StatusForbidden {
		t.Fatalf("expected 403 for employee edit, got %d", res.StatusCode)
	}
}
