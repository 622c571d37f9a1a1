package leave

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/jobflow/jobflow-backend/internal/user/usertest"
)

func makeApp() *fiber.App {
	svc := NewService(NewInMemoryRepository(nil), eightPerWeekday{}, fixedAccrual(24))
	h := NewHandler(svc, zap.NewNop().Sugar())

	app := fiber.New()
	app.Use(usertest.FakeAuth())
	h.RegisterProtectedRoutes(app)
	return app
}

func call(t *testing.T, app *fiber.App, method, path, body, userID, role string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", userID)
	req.Header.Set("X-User-Role", role)
	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	b, _ := io.ReadAll(res.Body)
	return res.StatusCode, b
}

func TestLeaveRoutes(t *testing.T) {
	app := makeApp()

	status, body := call(t, app, "POST", "/api/v1/leave", `{"type":"vacation","startDate":"2025-03-03","endDate":"2025-03-04"}`, "2", "employee")
	if status != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", status, body)
	}
	var created Request
	if err := json.Unmarshal(body, &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	status, _ = call(t, app, "POST", "/api/v1/leave", `{"type":"vacation","startDate":"2025-03-05","endDate":"2025-03-06"}`, "2", "employee")
	if status != fiber.StatusConflict {
		t.Fatalf("expected 409 for exhausted balance, got %d", status)
	}

	status, _ = call(t, app, "POST", "/api/v1/leave/1/approve", "", "2", "employee")
	if status != fiber.StatusForbidden {
		t.Fatalf("expected 403 for employee approval, got %d", status)
	}

	status, body = call(t, app, "POST", "/api/v1/leave/1/approve", "", "1", "manager")
	if status != fiber.StatusOK || !strings.Contains(string(body), `"status":"approved"`) {
		t.Fatalf("approve: unexpected %d %s", status, body)
	}

	status, body = call(t, app, "GET", "/api/v1/leave/balance", "", "2", "employee")
	if status != fiber.StatusOK {
		t.Fatalf("balance: expected 200, got %d", status)
	}
	var b Balance
	if err := json.Unmarshal(body, &b); err != nil {
		t.Fatalf("decode balance: %v", err)
	}
	if b.Taken != 16 || b.Available != 8 {
		t.Fatalf("unexpected balance %+v", b)
	}

	status, _ = call(t, app, "GET", "/api/v1/leave?userId=1", "", "2", "employee")
	if status != fiber.StatusForbidden {
		t.Fatalf("expected 403 listing other user's leave, got %d", status)
	}
}
