package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-inventory-ledger/internal/events"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/internal/service"
	"go-inventory-ledger/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const testOffset = 9 * time.Hour

type testServer struct {
	app   *fiber.App
	store *repository.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := repository.NewStore(repository.NewTestDB(t))
	logger := zap.NewNop()
	tokens := jwt.NewManager("test-secret", "test", time.Hour)

	authService := service.NewAuthService(store.Users, tokens, logger)
	if _, err := authService.SeedAdmin(context.Background(), "admin", "admin1234"); err != nil {
		t.Fatalf("SeedAdmin: %v", err)
	}

	app := NewApp("test", logger)
	SetupRoutes(app, Handlers{
		Auth:      NewAuthHandler(authService),
		Inventory: NewInventoryHandler(service.NewInventoryService(store, events.Nop, logger), testOffset),
		Dashboard: NewDashboardHandler(service.NewDashboardService(store, 10)),
		Users:     NewUserHandler(service.NewUserService(store.Users, logger)),
		Roles:     NewRoleHandler(),
	}, authService)

	return &testServer{app: app, store: store}
}

// do sends a JSON request and decodes the JSON response body.
func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encoding request: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.send(t, req, token)
}

func (s *testServer) send(t *testing.T, req *http.Request, token string) (int, map[string]interface{}) {
	t.Helper()

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	out := map[string]interface{}{}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading response: %v", err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("%s %s: decoding %q: %v", req.Method, req.URL.Path, raw, err)
		}
	}
	return resp.StatusCode, out
}

func (s *testServer) login(t *testing.T, username, password string) string {
	t.Helper()
	status, body := s.do(t, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{Username: username, Password: password})
	if status != http.StatusOK {
		t.Fatalf("login %s: status %d: %v", username, status, body)
	}
	return body["token"].(string)
}

func dataOf(t *testing.T, body map[string]interface{}) map[string]interface{} {
	t.Helper()
	data, ok := body["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("response has no data object: %v", body)
	}
	return data
}

func TestItemLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "admin", "admin1234")

	status, body := s.do(t, http.MethodPost, "/api/v1/items", token, map[string]interface{}{"name": "Bolt", "spec": "M6", "quantity": 10})
	if status != http.StatusCreated {
		t.Fatalf("create: status %d: %v", status, body)
	}
	id := dataOf(t, body)["id"].(string)

	status, body = s.do(t, http.MethodPost, "/api/v1/items", token, map[string]interface{}{"name": "Bolt", "spec": "M6", "quantity": 3})
	if status != http.StatusOK || body["created"] != false {
		t.Errorf("duplicate create: status %d: %v", status, body)
	}

	status, body = s.do(t, http.MethodPost, "/api/v1/items/"+id+"/stock", token, map[string]interface{}{"change_type": "OUT", "quantity": 20, "manager": "alice"})
	if status != http.StatusConflict || body["error"] != CodeNotEnough {
		t.Errorf("oversized OUT: status %d: %v", status, body)
	}

	status, body = s.do(t, http.MethodPost, "/api/v1/items/"+id+"/stock", token, map[string]interface{}{"change_type": "OUT", "quantity": 3, "manager": "alice"})
	if status != http.StatusOK {
		t.Fatalf("OUT 3: status %d: %v", status, body)
	}
	if q := dataOf(t, body)["quantity"]; q != float64(7) {
		t.Errorf("expected quantity 7, got %v", q)
	}

	status, body = s.do(t, http.MethodDelete, "/api/v1/items/"+id, token, nil)
	if status != http.StatusConflict || body["error"] != CodeNotEmpty {
		t.Errorf("delete with stock: status %d: %v", status, body)
	}

	status, body = s.do(t, http.MethodGet, "/api/v1/items?name=bol&error=not_enough", token, nil)
	if status != http.StatusOK {
		t.Fatalf("list: status %d: %v", status, body)
	}
	items := body["data"].([]interface{})
	if len(items) != 1 {
		t.Errorf("expected 1 item, got %d", len(items))
	}
	if body["error"] != "not_enough" || body["filter"].(map[string]interface{})["name"] != "bol" {
		t.Errorf("filter and error code not echoed: %v", body)
	}

	status, body = s.do(t, http.MethodPost, "/api/v1/items/"+id+"/stock", token, map[string]interface{}{"change_type": "OUT", "quantity": 7})
	if status != http.StatusOK {
		t.Fatalf("OUT 7: status %d: %v", status, body)
	}
	status, body = s.do(t, http.MethodDelete, "/api/v1/items/"+id, token, nil)
	if status != http.StatusOK {
		t.Errorf("delete at zero: status %d: %v", status, body)
	}
}

func TestNudgeEndpoints(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "admin", "admin1234")

	_, body := s.do(t, http.MethodPost, "/api/v1/items", token, map[string]interface{}{"name": "Fuse", "spec": "5A"})
	id := dataOf(t, body)["id"].(string)

	status, body := s.do(t, http.MethodPost, "/api/v1/items/"+id+"/out", token, nil)
	if status != http.StatusOK || dataOf(t, body)["quantity"] != float64(0) {
		t.Errorf("out at zero: status %d: %v", status, body)
	}
	status, body = s.do(t, http.MethodPost, "/api/v1/items/"+id+"/in", token, nil)
	if status != http.StatusOK || dataOf(t, body)["quantity"] != float64(1) {
		t.Errorf("in: status %d: %v", status, body)
	}
}

func TestErrorMapping(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "admin", "admin1234")

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
		code   string
	}{
		{"blank name", http.MethodPost, "/api/v1/items", map[string]interface{}{"name": " ", "spec": "M6"}, http.StatusBadRequest, CodeValidation},
		{"bad id", http.MethodPut, "/api/v1/items/not-a-uuid", map[string]string{"name": "a", "spec": "b"}, http.StatusBadRequest, CodeValidation},
		{"unknown item", http.MethodPut, "/api/v1/items/6f1c1a8e-0b8e-4d7c-9d55-2b8f3f4f9a11", map[string]string{"name": "a", "spec": "b"}, http.StatusNotFound, CodeNotFound},
		{"unknown history", http.MethodGet, "/api/v1/items/6f1c1a8e-0b8e-4d7c-9d55-2b8f3f4f9a11/history", nil, http.StatusNotFound, CodeNotFound},
		{"bad change type", http.MethodPost, "/api/v1/items/6f1c1a8e-0b8e-4d7c-9d55-2b8f3f4f9a11/stock", map[string]interface{}{"change_type": "DELETE", "quantity": 1}, http.StatusBadRequest, CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := s.do(t, tt.method, tt.path, token, tt.body)
			if status != tt.status || body["error"] != tt.code {
				t.Errorf("expected %d %s, got %d %v", tt.status, tt.code, status, body)
			}
		})
	}
}

func TestHistoryShowsLocalTime(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "admin", "admin1234")

	if status, body := s.do(t, http.MethodPost, "/api/v1/items", token, map[string]interface{}{"name": "Bolt", "spec": "M6", "quantity": 4}); status != http.StatusCreated {
		t.Fatalf("create: status %d: %v", status, body)
	}

	status, body := s.do(t, http.MethodGet, "/api/v1/history", token, nil)
	if status != http.StatusOK {
		t.Fatalf("history: status %d: %v", status, body)
	}
	rows := body["data"].([]interface{})
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	row := rows[0].(map[string]interface{})

	created, err := time.Parse(time.RFC3339Nano, row["created_at"].(string))
	if err != nil {
		t.Fatalf("parsing created_at: %v", err)
	}
	want := created.UTC().Add(testOffset).Format(localTimeLayout)
	if row["created_at_local"] != want {
		t.Errorf("expected created_at_local %s, got %v", want, row["created_at_local"])
	}
	if row["change_type"] != "IN" || row["manager"] != "initial-registration" {
		t.Errorf("unexpected row %v", row)
	}
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	for name, token := range map[string]string{"missing": "", "garbage": "not-a-token"} {
		t.Run(name, func(t *testing.T) {
			status, body := s.do(t, http.MethodGet, "/api/v1/items", token, nil)
			if status != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d: %v", status, body)
			}
		})
	}
}

func TestApprovalFlowOverHTTP(t *testing.T) {
	s := newTestServer(t)
	adminToken := s.login(t, "admin", "admin1234")

	status, body := s.do(t, http.MethodPost, "/api/v1/auth/register", "", service.RegisterRequest{Username: "alice", Password: "pw1234"})
	if status != http.StatusCreated {
		t.Fatalf("register: status %d: %v", status, body)
	}
	aliceID := dataOf(t, body)["id"].(string)

	status, body = s.do(t, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{Username: "alice", Password: "pw1234"})
	if status != http.StatusForbidden || body["error"] != CodePendingApproval {
		t.Fatalf("login before approval: status %d: %v", status, body)
	}

	status, body = s.do(t, http.MethodPost, "/api/v1/admin/users/"+aliceID+"/approve", adminToken, nil)
	if status != http.StatusOK {
		t.Fatalf("approve: status %d: %v", status, body)
	}

	aliceToken := s.login(t, "alice", "pw1234")
	if status, body := s.do(t, http.MethodGet, "/api/v1/items", aliceToken, nil); status != http.StatusOK {
		t.Errorf("approved user listing items: status %d: %v", status, body)
	}
	if status, _ := s.do(t, http.MethodGet, "/api/v1/admin/users", aliceToken, nil); status != http.StatusForbidden {
		t.Errorf("user on admin route: expected 403, got %d", status)
	}

	status, body = s.do(t, http.MethodGet, "/api/v1/auth/me", aliceToken, nil)
	if status != http.StatusOK || body["user"].(map[string]interface{})["username"] != "alice" {
		t.Errorf("me: status %d: %v", status, body)
	}

	// Disabling ends the session on the next request.
	if status, body := s.do(t, http.MethodPost, "/api/v1/admin/users/"+aliceID+"/disable", adminToken, nil); status != http.StatusOK {
		t.Fatalf("disable: status %d: %v", status, body)
	}
	if status, _ := s.do(t, http.MethodGet, "/api/v1/items", aliceToken, nil); status != http.StatusForbidden {
		t.Errorf("disabled user: expected 403, got %d", status)
	}
}

func TestAdminCannotBeDeletedOverHTTP(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "admin", "admin1234")

	admin, err := s.store.Users.FindByUsername(context.Background(), "admin")
	if err != nil {
		t.Fatalf("FindByUsername: %v", err)
	}

	status, body := s.do(t, http.MethodDelete, "/api/v1/admin/users/"+admin.ID.String(), token, nil)
	if status != http.StatusForbidden || body["error"] != CodePermissionDenied {
		t.Errorf("expected 403 permission_denied, got %d %v", status, body)
	}
}

func TestLogoutEndsSession(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "admin", "admin1234")

	if status, body := s.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil); status != http.StatusOK {
		t.Fatalf("logout: status %d: %v", status, body)
	}
	if status, _ := s.do(t, http.MethodGet, "/api/v1/items", token, nil); status != http.StatusUnauthorized {
		t.Errorf("expected 401 after logout, got %d", status)
	}
}

func TestImportUpload(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "admin", "admin1234")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "items.csv")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := io.WriteString(part, "name,spec,quantity\nA,1,5\n,x,3\nB,2,x\n"); err != nil {
		t.Fatalf("writing part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("closing multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/items/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	status, body := s.send(t, req, token)
	if status != http.StatusOK {
		t.Fatalf("import: status %d: %v", status, body)
	}
	report := dataOf(t, body)
	if report["imported"] != float64(2) || report["skipped"] != float64(1) {
		t.Errorf("unexpected report %v", report)
	}

	b, err := s.store.Items.FindByNameSpec(context.Background(), "B", "2")
	if err != nil {
		t.Fatalf("FindByNameSpec: %v", err)
	}
	if b.Quantity != 0 {
		t.Errorf("expected B to be created with 0, got %d", b.Quantity)
	}
}

func TestDashboardStatsOverHTTP(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "admin", "admin1234")
	s.do(t, http.MethodPost, "/api/v1/items", token, map[string]interface{}{"name": "Bolt", "spec": "M6", "quantity": 4})

	status, body := s.do(t, http.MethodGet, "/api/v1/dashboard/stats", token, nil)
	if status != http.StatusOK {
		t.Fatalf("stats: status %d: %v", status, body)
	}
	if body["total_items"] != float64(1) || body["low_stock_count"] != float64(1) {
		t.Errorf("unexpected stats %v", body)
	}
}

func TestRoleCatalogue(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "admin", "admin1234")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/roles", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("GET /roles: %v", err)
	}
	defer resp.Body.Close()

	var roles []roleResponse
	if err := json.NewDecoder(resp.Body).Decode(&roles); err != nil {
		t.Fatalf("decoding roles: %v", err)
	}
	if len(roles) != 2 {
		t.Fatalf("expected 2 roles, got %+v", roles)
	}
	if len(roles[0].Privileges) <= len(roles[1].Privileges) {
		t.Errorf("admin should hold more privileges than user: %+v", roles)
	}
}
