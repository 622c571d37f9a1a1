package push

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/jobflow/jobflow-backend/internal/user/usertest"
)

func TestPushRoutes(t *testing.T) {
	h := NewHandler(NewService(NewInMemoryRepository(), nil, "BPubKey", zap.NewNop().Sugar()), zap.NewNop().Sugar())
	app := fiber.New()
	h.RegisterPublicRoutes(app)
	app.Use(usertest.FakeAuth())
	h.RegisterProtectedRoutes(app)

	do := func(method, path, body, userID string) (int, string) {
		var reader io.Reader
		if body != "" {
			reader = strings.NewReader(body)
		}
		req := httptest.NewRequest(method, path, reader)
		req.Header.Set("Content-Type", "application/json")
		if userID != "" {
			req.Header.Set("X-User-ID", userID)
		}
		res, err := app.Test(req)
		if err != nil {
			t.Fatalf("%s %s failed: %v", method, path, err)
		}
		b, _ := io.ReadAll(res.Body)
		return res.StatusCode, string(b)
	}

	status, body := do("GET", "/api/v1/push/vapid-key", "", "")
	if status != fiber.StatusOK || !strings.Contains(body, `"publicKey":"BPubKey"`) {
		t.Fatalf("vapid key: unexpected %d %s", status, body)
	}

	sub := `{"endpoint":"https://push.example.com/x","keys":{"p256dh":"BNc","auth":"tBH"}}`
	status, _ = do("POST", "/api/v1/push/subscriptions", sub, "")
	if status != fiber.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", status)
	}

	status, body = do("POST", "/api/v1/push/subscriptions", sub, "3")
	if status != fiber.StatusCreated || !strings.Contains(body, `"userId":3`) {
		t.Fatalf("subscribe: unexpected %d %s", status, body)
	}

	status, _ = do("DELETE", "/api/v1/push/subscriptions", `{"endpoint":"https://push.example.com/x"}`, "4")
	if status != fiber.StatusNotFound {
		t.Fatalf("expected 404 for foreign endpoint, got %d", status)
	}

	status, _ = do("DELETE", "/api/v1/push/subscriptions", `{"endpoint":"https://push.example.com/x"}`, "3")
	if status != fiber.StatusOK {
		t.Fatalf("unsubscribe: expected 200, got %d", status)
	}
}
