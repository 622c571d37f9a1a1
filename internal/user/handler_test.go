package user

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/jobflow/jobflow-backend/internal/user/usertest"
)

const testSecret = "test-secret"

func makeAppWithUserHandler(t *testing.T, seed []User) (*fiber.App, *InMemoryRepository) {
	t.Helper()
	repo := NewInMemoryRepository(seed)
	handler := NewHandler(NewService(repo), testSecret, time.Hour, zap.NewNop().Sugar())

	app := fiber.New()
	handler.RegisterPublicRoutes(app)
	app.Use(usertest.FakeAuth())
	handler.RegisterProtectedRoutes(app)
	return app, repo
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return string(h)
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any, headers map[string]string) (int, string) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	b, _ := io.ReadAll(res.Body)
	return res.StatusCode, string(b)
}

func TestProfileRoute_RegistrationAndAuth(t *testing.T) {
	seed := []User{{ID: 7, Email: "j@example.com", FirstName: "Jenny", LastName: "Test", Phone: "123", Role: RoleEmployee, ContractType: ContractFixed, WeeklyHours: 40, Active: true, Password: "secret-hash"}}
	app, _ := makeAppWithUserHandler(t, seed)

	routes := map[string]bool{}
	for _, grp := range app.Stack() {
		for _, r := range grp {
			routes[r.Path] = true
		}
	}
	if !routes["/api/v1/profile"] {
		t.Fatalf("expected route '/api/v1/profile' to be registered")
	}

	status, _ := doJSON(t, app, "GET", "/api/v1/profile", nil, nil)
	if status != fiber.StatusUnauthorized {
		t.Fatalf("expected unauthorized status, got %d", status)
	}

	status, body := doJSON(t, app, "GET", "/api/v1/profile", nil, map[string]string{"X-User-ID": "7"})
	if status != fiber.StatusOK {
		t.Fatalf("expected 200 OK for authorized profile, got %d", status)
	}
	if !strings.Contains(body, "j@example.com") {
		t.Fatalf("response body does not contain expected email, got %s", body)
	}
	if strings.Contains(body, "secret-hash") {
		t.Fatalf("password leaked in profile response: %s", body)
	}
}

func TestUpdateProfileKeepsEmployment(t *testing.T) {
	seed := []User{{ID: 3, Email: "a@example.com", FirstName: "Ann", LastName: "Lee", Role: RoleManager, ContractType: ContractFlex, WeeklyHours: 20, Active: true}}
	app, repo := makeAppWithUserHandler(t, seed)

	status, body := doJSON(t, app, "PATCH", "/api/v1/profile", map[string]any{"phone": "555"}, map[string]string{"X-User-ID": "3"})
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}

	got, _ := repo.GetByID(t.Context(), 3)
	if got.Phone != "555" {
		t.Fatalf("expected phone updated, got %q", got.Phone)
	}
	if got.Role != RoleManager || got.ContractType != ContractFlex || got.WeeklyHours != 20 || !got.Active {
		t.Fatalf("employment fields changed: %+v", got)
	}
}

func TestSignUpAndSignIn(t *testing.T) {
	app, _ := makeAppWithUserHandler(t, nil)

	status, body := doJSON(t, app, "POST", "/api/v1/sign-up", map[string]any{
		"email": "New@Example.com", "password": "pw123456", "firstName": "New", "lastName": "Hire",
	}, nil)
	if status != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", status, body)
	}
	if !strings.Contains(body, `"role":"employee"`) {
		t.Fatalf("expected employee role, got %s", body)
	}

	status, _ = doJSON(t, app, "POST", "/api/v1/sign-up", map[string]any{
		"email": "new@example.com", "password": "x", "firstName": "Dup", "lastName": "Dup",
	}, nil)
	if status != fiber.StatusConflict {
		t.Fatalf("expected 409 for duplicate email, got %d", status)
	}

	status, body = doJSON(t, app, "POST", "/api/v1/sign-in", map[string]any{"email": "new@example.com", "password": "pw123456"}, nil)
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal([]byte(body), &resp); err != nil || resp.Token == "" {
		t.Fatalf("expected token in response, got %s", body)
	}
	id, role, err := ParseToken(resp.Token, testSecret)
	if err != nil || id != 1 || role != RoleEmployee {
		t.Fatalf("unexpected token claims id=%d role=%q err=%v", id, role, err)
	}

	status, _ = doJSON(t, app, "POST", "/api/v1/sign-in", map[string]any{"email": "new@example.com", "password": "wrong"}, nil)
	if status != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %d", status)
	}
}

func TestSignInInactiveUser(t *testing.T) {
	seed := []User{{ID: 1, Email: "gone@example.com", Password: hashed(t, "pw"), Role: RoleEmployee, ContractType: ContractFixed}}
	app, _ := makeAppWithUserHandler(t, seed)

	status, _ := doJSON(t, app, "POST", "/api/v1/sign-in", map[string]any{"email": "gone@example.com", "password": "pw"}, nil)
	if status != fiber.StatusForbidden {
		t.Fatalf("expected 403 for deactivated user, got %d", status)
	}
}

func TestAdminRoutesRequireRole(t *testing.T) {
	seed := []User{
		{ID: 1, Email: "admin@example.com", Role: RoleAdmin, ContractType: ContractFixed, Active: true},
		{ID: 2, Email: "boss@example.com", Role: RoleManager, ContractType: ContractFixed, Active: true},
		{ID: 3, Email: "emp@example.com", Role: RoleEmployee, ContractType: ContractFixed, Active: true},
	}
	app, repo := makeAppWithUserHandler(t, seed)

	employee := map[string]string{"X-User-ID": "3", "X-User-Role": "employee"}
	manager := map[string]string{"X-User-ID": "2", "X-User-Role": "manager"}
	admin := map[string]string{"X-User-ID": "1", "X-User-Role": "admin"}

	if status, _ := doJSON(t, app, "GET", "/api/v1/users", nil, employee); status != fiber.StatusForbidden {
		t.Fatalf("employee listing users: expected 403, got %d", status)
	}
	if status, _ := doJSON(t, app, "GET", "/api/v1/users", nil, manager); status != fiber.StatusOK {
		t.Fatalf("manager listing users: expected 200, got %d", status)
	}

	newUser := map[string]any{"email": "flex@example.com", "password": "pw", "firstName": "Flo", "lastName": "Flex", "contractType": "flex", "weeklyHours": 12}
	if status, _ := doJSON(t, app, "POST", "/api/v1/users", newUser, manager); status != fiber.StatusForbidden {
		t.Fatalf("manager creating user: expected 403, got %d", status)
	}
	status, body := doJSON(t, app, "POST", "/api/v1/users", newUser, admin)
	if status != fiber.StatusCreated {
		t.Fatalf("admin creating user: expected 201, got %d: %s", status, body)
	}

	bad := map[string]any{"email": "x@example.com", "firstName": "X", "lastName": "Y", "weeklyHours": 200}
	if status, _ := doJSON(t, app, "POST", "/api/v1/users", bad, admin); status != fiber.StatusBadRequest {
		t.Fatalf("invalid weekly hours: expected 400, got %d", status)
	}

	status, _ = doJSON(t, app, "PUT", "/api/v1/users/3/active", map[string]any{"active": false}, admin)
	if status != fiber.StatusOK {
		t.Fatalf("deactivate: expected 200, got %d", status)
	}
	got, _ := repo.GetByID(t.Context(), 3)
	if got.Active {
		t.Fatalf("expected user 3 to be inactive")
	}

	if status, _ := doJSON(t, app, "DELETE", "/api/v1/users/99", nil, admin); status != fiber.StatusNotFound {
		t.Fatalf("delete missing user: expected 404, got %d", status)
	}
}
