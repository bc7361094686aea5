package http

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/networkhq/network-intake/internal/api/http/handlers"
	"github.com/networkhq/network-intake/internal/auth"
	"github.com/networkhq/network-intake/internal/config"
	"github.com/networkhq/network-intake/internal/domain"
	"github.com/networkhq/network-intake/internal/observability"
	"github.com/networkhq/network-intake/internal/ratelimit"
	"github.com/networkhq/network-intake/internal/repository"
	"github.com/networkhq/network-intake/internal/service"
)

type testServer struct {
	app  *fiber.App
	repo *repository.MemorySubmissionRepository
	now  time.Time
}

func (s *testServer) clock() time.Time { return s.now }

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithAdmin(t, true)
}

// newTestServerWithAdmin mirrors cmd/api: the admin routes exist only when a
// password hash is configured.
func newTestServerWithAdmin(t *testing.T, adminEnabled bool) *testServer {
	t.Helper()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	srv := &testServer{
		repo: repository.NewMemorySubmissionRepository(),
		now:  time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}


	intake := service.NewIntakeService(service.IntakeDependencies{
		Repo:    srv.repo,
		Logger:  logger,
		Metrics: metrics,
		Now:     srv.clock,
	})

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, "http://localhost:5173", time.Second)
	app.Get("/boom", func(*fiber.Ctx) error { panic("kaboom") })
	routes := RouteConfig{
		Health:          handlers.NewHealthHandler("Network Backend API", "test", map[string]handlers.Pinger{"store": srv.repo}),
		Submissions:     handlers.NewSubmissionsHandler(intake),
		WaitlistLimiter: ratelimit.NewWindow("waitlist", time.Minute, 10, ratelimit.WithClock(srv.clock)),
		PartnerLimiter:  ratelimit.NewWindow("partner", time.Minute, 5, ratelimit.WithClock(srv.clock)),
		Metrics:         metrics,
		Logger:          logger,
	}
	if adminEnabled {
		hash, err := auth.HashPassword("hunter2", bcrypt.MinCost)
		require.NoError(t, err)
		adminSvc := service.NewAdminService(config.AuthConfig{
			AdminUsername:     "admin",
			AdminPasswordHash: hash,
			JWTSecret:         "test",
		}, srv.repo)
		routes.Admin = handlers.NewAdminHandler(adminSvc)
		routes.AuthMiddleware = auth.NewAuthMiddleware(adminSvc.TokenManager())
	}
	RegisterRoutes(app, routes)
	srv.app = app
	return srv
}

func (s *testServer) do(t *testing.T, method, path, body string, headers ...string) (int, map[string]any, *rawResponse) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out, &rawResponse{header: resp.Header.Get, raw: string(raw)}
}

type rawResponse struct {
	header func(string) string
	raw    string
}

func TestWaitlistThenDuplicate(t *testing.T) {
	srv := newTestServer(t)

	status, body, _ := srv.do(t, fiber.MethodPost, "/api/waitlist", `{"email":"Test@Example.com "}`)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, service.MsgWaitlistCreated, body["message"])

	status, body, _ = srv.do(t, fiber.MethodPost, "/api/waitlist", `{"email":"Test@Example.com "}`)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, true, body["duplicate"])
	assert.Equal(t, service.MsgWaitlistDuplicate, body["error"])

	assert.Equal(t, 1, srv.repo.Writes())
}

func TestWaitlistValidation(t *testing.T) {
	srv := newTestServer(t)

	cases := map[string]string{
		`{}`:                   "Email is required",
		`{"email":"   "}`:      "Email is required",
		`{"email":"nope"}`:     "Please enter a valid email address",
		`{"email":"a@b.c0"}`:   "Please enter a valid email domain",
		`{"email":"a@b..com"}`: "Please enter a valid email domain",
	}
	for payload, want := range cases {
		status, body, _ := srv.do(t, fiber.MethodPost, "/api/waitlist", payload)
		assert.Equal(t, fiber.StatusBadRequest, status, payload)
		assert.Equal(t, want, body["error"], payload)
	}

	status, body, _ := srv.do(t, fiber.MethodPost, "/api/waitlist", `{"email":`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Invalid request body", body["error"])

	assert.Equal(t, 0, srv.repo.Writes())
}

func TestPartnerRejectsBadPhone(t *testing.T) {
	srv := newTestServer(t)

	status, body, _ := srv.do(t, fiber.MethodPost, "/api/partner",
		`{"organization":"Acme","contact":"Jane","email":"jane@acme.io","phone":"abc"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, body["error"], "phone number")
	assert.Equal(t, 0, srv.repo.Writes())
}

func TestPartnerRequiredFieldsInOrder(t *testing.T) {
	srv := newTestServer(t)

	cases := []struct {
		payload string
		want    string
	}{
		{`{"contact":"Jane","email":"j@a.io","phone":"0501234567"}`, "Organization name is required"},
		{`{"organization":"Acme","email":"j@a.io"}`, "Contact person name is required"},
		{`{"organization":"Acme","contact":"Jane","phone":"0501234567"}`, "Email is required"},
		{`{"organization":"Acme","contact":"Jane","email":"bad"}`, "Phone number is required"},
	}
	for _, tc := range cases {
		status, body, _ := srv.do(t, fiber.MethodPost, "/api/partner", tc.payload)
		assert.Equal(t, fiber.StatusBadRequest, status, tc.payload)
		assert.Equal(t, tc.want, body["error"], tc.payload)
	}
}

func TestPartnerSuccessAndDuplicate(t *testing.T) {
	srv := newTestServer(t)
	payload := `{"organization":"Acme","contact":"Jane","email":"Jane@Acme.io","phone":"+91 98765 43210"}`

	status, body, _ := srv.do(t, fiber.MethodPost, "/api/partner", payload)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, service.MsgPartnerCreated, body["message"])
	assert.NotEmpty(t, body["requestId"])

	status, body, _ = srv.do(t, fiber.MethodPost, "/api/partner", payload)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, service.MsgPartnerDuplicate, body["error"])
}

func TestWaitlistRateLimit(t *testing.T) {
	srv := newTestServer(t)

	for i := 0; i < 10; i++ {
		status, _, _ := srv.do(t, fiber.MethodPost, "/api/waitlist", `{"email":"nope"}`)
		require.Equal(t, fiber.StatusBadRequest, status)
		srv.now = srv.now.Add(time.Second)
	}

	status, body, resp := srv.do(t, fiber.MethodPost, "/api/waitlist", `{"email":"ok@example.com"}`)
	assert.Equal(t, fiber.StatusTooManyRequests, status)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, float64(50), body["retryAfter"])
	assert.Equal(t, "50", resp.header(fiber.HeaderRetryAfter))
	assert.Equal(t, "Too many requests. Please try again in 50 seconds.", body["error"])
	assert.Equal(t, 0, srv.repo.Writes())

	// The partnership limiter is independent.
	status, _, _ = srv.do(t, fiber.MethodPost, "/api/partner", `{}`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	srv.now = srv.now.Add(time.Minute)
	status, _, _ = srv.do(t, fiber.MethodPost, "/api/waitlist", `{"email":"ok@example.com"}`)
	assert.Equal(t, fiber.StatusOK, status)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	status, body, _ := srv.do(t, fiber.MethodGet, "/api/health", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "Network Backend API", body["service"])
	assert.NotEmpty(t, body["timestamp"])

	status, body, _ = srv.do(t, fiber.MethodGet, "/api/health/ready", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ready", body["status"])
}

func TestUnknownRouteAndPanic(t *testing.T) {
	srv := newTestServer(t)

	status, body, _ := srv.do(t, fiber.MethodGet, "/api/nothing", "")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Endpoint not found", body["error"])

	status, body, resp := srv.do(t, fiber.MethodGet, "/boom", "")
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "Internal server error", body["error"])
	assert.NotContains(t, resp.raw, "kaboom")
}

func TestAdminFlow(t *testing.T) {
	srv := newTestServer(t)
	_, _, _ = srv.do(t, fiber.MethodPost, "/api/waitlist", `{"email":"a@b.co"}`)

	status, _, _ := srv.do(t, fiber.MethodGet, "/api/admin/submissions", "")
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, body, _ := srv.do(t, fiber.MethodPost, "/api/admin/login", `{"username":"admin","password":"hunter2"}`)
	require.Equal(t, fiber.StatusOK, status)
	data, ok := body["data"].(map[string]any)
	require.True(t, ok)
	token, _ := data["token"].(string)
	require.NotEmpty(t, token)

	status, body, _ = srv.do(t, fiber.MethodGet, "/api/admin/submissions?kind=waitlist", "", fiber.HeaderAuthorization, "Bearer "+token)
	require.Equal(t, fiber.StatusOK, status)
	items, ok := body["data"].([]any)
	require.True(t, ok)
	assert.Len(t, items, 1)

	status, _, _ = srv.do(t, fiber.MethodPost, "/api/admin/login", `{"username":"admin","password":"nope"}`)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestAdminListReportsEffectivePage(t *testing.T) {
	srv := newTestServer(t)

	_, body, _ := srv.do(t, fiber.MethodPost, "/api/admin/login", `{"username":"admin","password":"hunter2"}`)
	data, ok := body["data"].(map[string]any)
	require.True(t, ok)
	token, _ := data["token"].(string)

	status, body, _ := srv.do(t, fiber.MethodGet, "/api/admin/submissions", "", fiber.HeaderAuthorization, "Bearer "+token)
	require.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 50, body["limit"])
	assert.EqualValues(t, 0, body["offset"])

	status, body, _ = srv.do(t, fiber.MethodGet, "/api/admin/submissions?limit=5&offset=-3", "", fiber.HeaderAuthorization, "Bearer "+token)
	require.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 5, body["limit"])
	assert.EqualValues(t, 0, body["offset"])
}

func TestAdminRoutesAbsentWithoutPasswordHash(t *testing.T) {
	srv := newTestServerWithAdmin(t, false)
	_, _, _ = srv.do(t, fiber.MethodPost, "/api/partner",
		`{"organization":"Corp","contact":"Jane","email":"victim@corp.com","phone":"+971501234567"}`)

	forged, _, err := auth.NewTokenManager("dev-secret", 60).GenerateToken("admin", domain.SubjectTypeAdmin)
	require.NoError(t, err)

	status, body, resp := srv.do(t, fiber.MethodGet, "/api/admin/submissions", "", fiber.HeaderAuthorization, "Bearer "+forged)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "Endpoint not found", body["error"])
	assert.NotContains(t, resp.raw, "victim@corp.com")

	status, _, _ = srv.do(t, fiber.MethodPost, "/api/admin/login", `{"username":"admin","password":"x"}`)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestBodyWithoutContentTypeIsDecodedAsJSON(t *testing.T) {
	srv := newTestServer(t)

	send := func(body string) (int, map[string]any) {
		req := httptest.NewRequest(fiber.MethodPost, "/api/waitlist", strings.NewReader(body))
		req.Header.Del(fiber.HeaderContentType)
		resp, err := srv.app.Test(req, -1)
		require.NoError(t, err)
		defer resp.Body.Close()
		out := map[string]any{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		return resp.StatusCode, out
	}

	status, body := send(`{"email":""}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Email is required", body["error"])

	status, body = send(`{"email":"plain@example.com"}`)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, service.MsgWaitlistCreated, body["message"])

	status, body = send(`{"email":`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Invalid request body", body["error"])
}

func TestWildcardOriginServesAnonymousCORS(t *testing.T) {
	app := fiber.New()
	require.NotPanics(t, func() {
		RegisterMiddlewares(app, zap.NewNop(), nil, "*", time.Second)
	})
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })

	req := httptest.NewRequest(fiber.MethodGet, "/ping", nil)
	req.Header.Set(fiber.HeaderOrigin, "https://anywhere.example")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get(fiber.HeaderAccessControlAllowOrigin))
	assert.Empty(t, resp.Header.Get(fiber.HeaderAccessControlAllowCredentials))
}

func TestExplicitOriginAllowsCredentials(t *testing.T) {
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), nil, "http://localhost:5173", time.Second)
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })

	req := httptest.NewRequest(fiber.MethodGet, "/ping", nil)
	req.Header.Set(fiber.HeaderOrigin, "http://localhost:5173")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "http://localhost:5173", resp.Header.Get(fiber.HeaderAccessControlAllowOrigin))
	assert.Equal(t, "true", resp.Header.Get(fiber.HeaderAccessControlAllowCredentials))
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	_, _, _ = srv.do(t, fiber.MethodPost, "/api/waitlist", `{"email":"a@b.co"}`)

	status, _, resp := srv.do(t, fiber.MethodGet, "/metrics", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, resp.raw, `intake_submissions_total{kind="waitlist",outcome="created"} 1`)
}

func TestWildcardOrigin(t *testing.T) {
	assert.True(t, wildcardOrigin("*"))
	assert.True(t, wildcardOrigin(" * "))
	assert.True(t, wildcardOrigin("http://a.example, *"))
	assert.False(t, wildcardOrigin("http://localhost:5173"))
	assert.False(t, wildcardOrigin("https://*.example.com"))
}
