package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"wallet-lifecycle-go/internal/api"
	"wallet-lifecycle-go/internal/database"
	"wallet-lifecycle-go/internal/models"
	"wallet-lifecycle-go/internal/rate"
	"wallet-lifecycle-go/internal/security"

	_ "github.com/mattn/go-sqlite3"
	"github.com/prometheus/client_golang/prometheus"
)

type testEnv struct {
	handler http.Handler
	svc     *api.LedgerService
	user    *api.Registration
}

func setupTestServer(t *testing.T) (*testEnv, func()) {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)
	dbService, err := database.NewServiceFromDB(db)
	if err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}

	svc := api.NewLedgerService(dbService, api.Dependencies{
		Hasher:       security.NewHasher(security.Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}),
		PinLimiter:   rate.NewMemory(5, 15*time.Minute),
		LoginLimiter: rate.NewMemory(10, 15*time.Minute),
		ResetLimiter: rate.NewMemory(3, time.Hour),
	}, api.Settings{})

	ctx := context.Background()
	user, err := svc.RegisterUser(ctx, api.NewUser{Email: "user@example.com", Name: "User", Password: "password123"})
	if err != nil {
		t.Fatalf("RegisterUser failed: %v", err)
	}
	if _, err := svc.RegisterUser(ctx, api.NewUser{Email: "admin@example.com", Name: "Admin", Password: "password123", IsAdmin: true}); err != nil {
		t.Fatalf("RegisterUser failed: %v", err)
	}

	srv := New(svc, prometheus.NewRegistry(), models.ServerConfig{Addr: ":0"})
	return &testEnv{handler: srv.Router(), svc: svc, user: user}, func() { db.Close() }
}

func (e *testEnv) do(t *testing.T, method, path, body, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) login(t *testing.T, email string) string {
	t.Helper()
	env := e.svc.Login(context.Background(), email, "password123")
	if !env.Success {
		t.Fatalf("Login failed: %s", env.Error)
	}
	return env.Data.Token
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("Failed to decode envelope %q: %v", rec.Body.String(), err)
	}
	return env
}

func TestLogin_SetsCookie(t *testing.T) {
	env, cleanup := setupTestServer(t)
	defer cleanup()

	rec := env.do(t, http.MethodPost, "/api/auth/login", `{"email":"user@example.com","password":"password123"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookie {
			cookie = c
		}
	}
	if cookie == nil || !cookie.HttpOnly {
		t.Fatalf("Expected http-only session cookie, got %+v", rec.Result().Cookies())
	}

	req := httptest.NewRequest(http.MethodGet, "/api/wallet", nil)
	req.AddCookie(cookie)
	wallet := httptest.NewRecorder()
	env.handler.ServeHTTP(wallet, req)
	if wallet.Code != http.StatusOK {
		t.Errorf("Expected wallet via cookie, got %d", wallet.Code)
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	env, cleanup := setupTestServer(t)
	defer cleanup()

	rec := env.do(t, http.MethodPost, "/api/auth/login", `{"email":"user@example.com","password":"nope"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", rec.Code)
	}
	if got := decodeEnvelope(t, rec); got.Success || got.Code != api.CodeNotAuthenticated {
		t.Errorf("Unexpected envelope %+v", got)
	}
}

func TestInvalidJson(t *testing.T) {
	env, cleanup := setupTestServer(t)
	defer cleanup()

	rec := env.do(t, http.MethodPost, "/api/auth/login", `{"email":`, "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422, got %d", rec.Code)
	}
	if got := decodeEnvelope(t, rec); got.Code != api.CodeValidationError {
		t.Errorf("Expected VALIDATION_ERROR, got %s", got.Code)
	}
}

func TestOversizedBody(t *testing.T) {
	env, cleanup := setupTestServer(t)
	defer cleanup()

	body := `{"email":"` + strings.Repeat("a", maxBodyBytes) + `@example.com","password":"x"}`
	rec := env.do(t, http.MethodPost, "/api/auth/login", body, "")
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("Expected 413, got %d", rec.Code)
	}
	if got := decodeEnvelope(t, rec); got.Code != api.CodeValidationError {
		t.Errorf("Expected VALIDATION_ERROR, got %s", got.Code)
	}
}

func TestAuthStatuses(t *testing.T) {
	env, cleanup := setupTestServer(t)
	defer cleanup()
	userToken := env.login(t, "user@example.com")

	if rec := env.do(t, http.MethodGet, "/api/wallet", "", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without token, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/admin/pending", "", userToken); rec.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for non-admin, got %d", rec.Code)
	}
}

func TestDepositLifecycleOverHttp(t *testing.T) {
	env, cleanup := setupTestServer(t)
	defer cleanup()
	userToken := env.login(t, "user@example.com")
	adminToken := env.login(t, "admin@example.com")

	rec := env.do(t, http.MethodPost, "/api/deposits", `{"symbol":"USDT","amount":"500","value":"500"}`, userToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var deposit models.Deposit
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &deposit); err != nil {
		t.Fatalf("Failed to decode deposit: %v", err)
	}

	path := "/api/admin/users/" + env.user.User.Id + "/deposits/" + deposit.Id + "/approve"
	if rec := env.do(t, http.MethodPost, path, "", adminToken); rec.Code != http.StatusOK {
		t.Fatalf("Expected approval 200, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = env.do(t, http.MethodPost, path, "", adminToken)
	if rec.Code != http.StatusConflict {
		t.Errorf("Expected 409 on second approval, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/wallet", "", userToken)
	var wallet models.WalletView
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &wallet); err != nil {
		t.Fatalf("Failed to decode wallet: %v", err)
	}
	if wallet.WalletBalance.String() != "500" {
		t.Errorf("Expected wallet balance 500, got %s", wallet.WalletBalance)
	}
}

func TestWithdrawal_InvalidPin(t *testing.T) {
	env, cleanup := setupTestServer(t)
	defer cleanup()
	userToken := env.login(t, "user@example.com")

	body := `{"symbol":"BTC","amount":"0.1","fee":"0","address":"bc1q","network":"bitcoin","tax_code_pin":"` +
		env.user.TaxCodePin + `","withdrawal_pin":"wrong"}`
	rec := env.do(t, http.MethodPost, "/api/withdrawals", body, userToken)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422, got %d", rec.Code)
	}
	if got := decodeEnvelope(t, rec); got.Code != api.CodeInvalidPin {
		t.Errorf("Expected INVALID_PIN, got %s", got.Code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	env, cleanup := setupTestServer(t)
	defer cleanup()

	if rec := env.do(t, http.MethodGet, "/healthz", "", ""); rec.Code != http.StatusOK {
		t.Errorf("Expected healthz 200, got %d", rec.Code)
	}
	rec := env.do(t, http.MethodGet, "/metrics", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected metrics 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `http_requests_total{method="GET",path="/healthz",status="200"}`) {
		t.Errorf("Expected request counter for /healthz in metrics output")
	}
}

func TestStatusFor(t *testing.T) {
	tests := map[string]int{
		api.CodeNotAuthenticated:    http.StatusUnauthorized,
		api.CodeNotAuthorized:       http.StatusForbidden,
		api.CodeNotFound:            http.StatusNotFound,
		api.CodeAlreadyProcessed:    http.StatusConflict,
		api.CodeInsufficientBalance: http.StatusUnprocessableEntity,
		api.CodeExpired:             http.StatusUnprocessableEntity,
		api.CodeTooManyAttempts:     http.StatusTooManyRequests,
		api.CodeRailError:           http.StatusBadGateway,
		api.CodePersistenceError:    http.StatusInternalServerError,
	}
	for code, want := range tests {
		if got := statusFor(code); got != want {
			t.Errorf("statusFor(%s) = %d, want %d", code, got, want)
		}
	}
}

func TestToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer abc")
	if got := token(req); got != "abc" {
		t.Errorf("Expected bearer token, got %q", got)
	}
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: "cookie"})
	if got := token(req); got != "cookie" {
		t.Errorf("Expected cookie to win, got %q", got)
	}
}
