package contract

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
	h := NewHandler(newTestService(), zap.NewNop().Sugar())

	app := fiber.New()
	app.Use(usertest.FakeAuth())
	h.RegisterProtectedRoutes(app)
	return app
}

func call(t *testing.T, app *fiber.App, method, path, body, userID, role string) (*httpResult, error) {
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
		return nil, err
	}
	b, _ := io.ReadAll(res.Body)
	return &httpResult{status: res.StatusCode, contentType: res.Header.Get("Content-Type"), body: b}, nil
}

type httpResult struct {
	status      int
	contentType string
	body        []byte
}

func mustCall(t *testing.T, app *fiber.App, method, path, body, userID, role string) *httpResult {
	t.Helper()
	res, err := call(t, app, method, path, body, userID, role)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	return res
}

func TestContractRoutes(t *testing.T) {
	app := makeApp()

	res := mustCall(t, app, "POST", "/api/v1/contracts", `{"userId":2,"startDate":"2025-04-01","hourlyWage":21}`, "2", "employee")
	if res.status != fiber.StatusForbidden {
		t.Fatalf("expected 403 for employee generate, got %d", res.status)
	}

	res = mustCall(t, app, "POST", "/api/v1/contracts", `{"userId":2,"startDate":"2025-04-01","hourlyWage":21}`, "1", "manager")
	if res.status != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", res.status, res.body)
	}
	var created Contract
	if err := json.Unmarshal(res.body, &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	res = mustCall(t, app, "POST", "/api/v1/contracts/1/send", "", "1", "manager")
	if res.status != fiber.StatusOK {
		t.Fatalf("send: expected 200, got %d", res.status)
	}

	res = mustCall(t, app, "GET", "/api/v1/contracts/1", "", "3", "employee")
	if res.status != fiber.StatusForbidden {
		t.Fatalf("expected 403 for foreign contract, got %d", res.status)
	}

	res = mustCall(t, app, "POST", "/api/v1/contracts/1/sign", `{"name":"Ada Lovelace"}`, "2", "employee")
	if res.status != fiber.StatusOK || !strings.Contains(string(res.body), `"status":"signed"`) {
		t.Fatalf("sign: unexpected %d %s", res.status, res.body)
	}

	res = mustCall(t, app, "POST", "/api/v1/contracts/1/void", "", "1", "manager")
	if res.status != fiber.StatusConflict {
		t.Fatalf("expected 409 voiding a signed contract, got %d", res.status)
	}

	res = mustCall(t, app, "GET", "/api/v1/contracts/1/pdf", "", "2", "employee")
	if res.status != fiber.StatusOK || res.contentType != "application/pdf" || !strings.HasPrefix(string(res.body), "%PDF-") {
		t.Fatalf("pdf: unexpected %d %q", res.status, res.contentType)
	}

	res = mustCall(t, app, "GET", "/api/v1/contracts", "", "2", "employee")
	var mine []Contract
	if err := json.Unmarshal(res.body, &mine); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(mine) != 1 || mine[0].DocumentKey != created.DocumentKey {
		t.Fatalf("unexpected list %+v", mine)
	}
}
