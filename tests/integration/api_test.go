package integration

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	httpHandler "consignment-ledger/internal/adapter/http/handler"
	redisStorage "consignment-ledger/internal/adapter/storage/redis"
	"consignment-ledger/internal/core/ports"
	"consignment-ledger/internal/service"
	"consignment-ledger/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPassword = "hunter2"

// testApp builds the full application stack on in-memory storage:
// miniredis behind the rate limiter and health check, map-backed seller
// and trail repos behind the real services. It exercises the real HTTP
// layer, middleware, handlers and services end-to-end.

type testApp struct {
	server  *httptest.Server
	redis   *miniredis.Miniredis
	sellers *inMemorySellerRepo
	trail   *inMemoryTrailRepo
	worker  *service.TrailWorker
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	// Start miniredis
	mr, err := miniredis.Run()
	require.NoError(t, err)

	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})

	log := logger.New("error", false)

	// In-memory repos
	sellerRepo := newInMemorySellerRepo()
	trailRepo := newInMemoryTrailRepo()
	transactor := newInMemoryTransactor()

	// Core services with real implementations
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewBearerTokenService("integration-signing-secret")
	authSvc := service.NewAuthService(testPassword, "", hashSvc, tokenSvc)

	worker := service.NewTrailWorker(trailRepo, 64, log)
	worker.Start()

	ledgerSvc := service.NewLedgerService(sellerRepo, transactor, worker, log)
	exportSvc := service.NewCSVExportService(sellerRepo)

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:        authSvc,
		SellerSvc:      ledgerSvc,
		SettlementSvc:  ledgerSvc,
		ExportSvc:      exportSvc,
		TokenSvc:       tokenSvc,
		RateLimitStore: redisStorage.NewRateLimitStore(rdb),
		LoginLimit:     5,
		LoginWindow:    time.Minute,
		HealthCheckers: []ports.HealthChecker{redisStorage.NewHealthCheck(rdb)},
		Mode:           gin.TestMode,
		Logger:         log,
	})

	server := httptest.NewServer(router)

	return &testApp{
		server:  server,
		redis:   mr,
		sellers: sellerRepo,
		trail:   trailRepo,
		worker:  worker,
	}
}

func (a *testApp) close() {
	a.server.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = a.worker.Stop(ctx)
	a.redis.Close()
}

// login authenticates with the panel password and returns the token,
// which is the complete Authorization header value.
func (a *testApp) login(t *testing.T) string {
	t.Helper()
	resp, err := http.Post(a.server.URL+"/login", "text/plain", strings.NewReader(testPassword))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func (a *testApp) do(t *testing.T, method, path, token, body string) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, a.server.URL+path, rd)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

// --- Integration Tests ---

func TestIntegration_HealthCheck(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, err := http.Get(app.server.URL + "/health")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(readBody(t, resp)), &body))
	assert.Equal(t, "healthy", body["status"])

	deps := body["dependencies"].(map[string]interface{})
	redisDep := deps["redis"].(map[string]interface{})
	assert.Equal(t, "healthy", redisDep["status"])
}

func TestIntegration_Teapot(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, err := http.Get(app.server.URL + "/teapot")
	require.NoError(t, err)

	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
	assert.Equal(t, "I'm a teapot", readBody(t, resp))
}

func TestIntegration_LoginFlow(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	// Wrong password
	resp, err := http.Post(app.server.URL+"/login", "text/plain", strings.NewReader("not-the-password"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// Right password: the body is the ready-to-use Authorization value
	token := app.login(t)
	assert.True(t, strings.HasPrefix(token, "Bearer "), "token %q should carry the Bearer prefix", token)

	// The token opens authenticated routes
	resp = app.do(t, http.MethodGet, "/sellers", token, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// No token
	resp = app.do(t, http.MethodGet, "/sellers", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// Forged token
	resp = app.do(t, http.MethodGet, "/sellers", "Bearer forged.token.value", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestIntegration_LoginRateLimit(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	// The window allows 5 attempts per IP.
	for i := 0; i < 5; i++ {
		resp, err := http.Post(app.server.URL+"/login", "text/plain", strings.NewReader("wrong"))
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		resp.Body.Close()
	}

	resp, err := http.Post(app.server.URL+"/login", "text/plain", strings.NewReader("wrong"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
	resp.Body.Close()
}

func TestIntegration_SellerCRUD(t *testing.T) {
	app := newTestApp(t)
	defer app.close()
	token := app.login(t)

	// Create
	resp := app.do(t, http.MethodPost, "/seller", token, `{"id":"A","name":"Alice","rate":0.25}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.JSONEq(t, `{"id":"A","name":"Alice","balance":"0","rate":"0.25"}`, readBody(t, resp))

	// Duplicate id
	resp = app.do(t, http.MethodPost, "/seller", token, `{"id":"A","name":"Imposter","rate":0.5}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Get
	resp = app.do(t, http.MethodGet, "/sellers/A", token, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"id":"A","name":"Alice","balance":"0","rate":"0.25"}`, readBody(t, resp))

	// Patch name and rate
	resp = app.do(t, http.MethodPatch, "/seller/A", token, `{"name":"Alicia","rate":0.30}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"id":"A","name":"Alicia","balance":"0","rate":"0.30"}`, readBody(t, resp))

	// Patch must refuse unknown and immutable fields
	resp = app.do(t, http.MethodPatch, "/seller/A", token, `{"balance":"999"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "SELLER_004")

	// Patch must refuse out-of-range rates
	resp = app.do(t, http.MethodPatch, "/seller/A", token, `{"rate":1.5}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// Delete at zero balance returns the final view
	resp = app.do(t, http.MethodDelete, "/seller/A", token, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"id":"A","name":"Alicia","balance":"0","rate":"0.30"}`, readBody(t, resp))

	// Gone
	resp = app.do(t, http.MethodGet, "/sellers/A", token, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestIntegration_SettlementRejectsUnknownSeller(t *testing.T) {
	app := newTestApp(t)
	defer app.close()
	token := app.login(t)

	resp := app.do(t, http.MethodPost, "/seller", token, `{"id":"A","name":"Alice","rate":0.25}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// B does not exist: the whole batch is rejected and reported by index.
	resp = app.do(t, http.MethodPost, "/sell", token,
		`[{"sellerId":"A","price":10.50},{"sellerId":"B","price":5}]`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"1":[["sellerId"],["seller does not exist"]]}`, readBody(t, resp))

	// A's balance is untouched.
	resp = app.do(t, http.MethodGet, "/sellers/A", token, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"id":"A","name":"Alice","balance":"0","rate":"0.25"}`, readBody(t, resp))

	// Nothing reaches the trail for a rejected batch.
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, app.trail.all())
}

func TestIntegration_SettlementAppliesBatch(t *testing.T) {
	app := newTestApp(t)
	defer app.close()
	token := app.login(t)

	for _, body := range []string{
		`{"id":"A","name":"Alice","rate":0.25}`,
		`{"id":"B","name":"Bob","rate":0.30}`,
	} {
		resp := app.do(t, http.MethodPost, "/seller", token, body)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	// Two items for A collapse into one balance write.
	resp := app.do(t, http.MethodPost, "/sell", token,
		`[{"sellerId":"A","price":10.50},{"sellerId":"B","price":1},{"sellerId":"A","price":0.50}]`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[
		{"id":"A","name":"Alice","balance":"11.00","rate":"0.25"},
		{"id":"B","name":"Bob","balance":"1","rate":"0.30"}
	]`, readBody(t, resp))

	// The batch lands in the trail once, with all three items.
	require.Eventually(t, func() bool {
		return len(app.trail.all()) == 1
	}, time.Second, 10*time.Millisecond)
	entry := app.trail.all()[0]
	assert.Len(t, entry.Items, 3)
	assert.Equal(t, "10.50", entry.Items[0].Price.String())

	// An empty batch settles as a no-op but is still recorded.
	resp = app.do(t, http.MethodPost, "/sell", token, `[]`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, readBody(t, resp))

	require.Eventually(t, func() bool {
		return len(app.trail.all()) == 2
	}, time.Second, 10*time.Millisecond)
	assert.Empty(t, app.trail.all()[1].Items)
}

func TestIntegration_RefundToZeroThenDelete(t *testing.T) {
	app := newTestApp(t)
	defer app.close()
	token := app.login(t)

	resp := app.do(t, http.MethodPost, "/seller", token, `{"id":"A","name":"Alice","rate":0.25}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = app.do(t, http.MethodPost, "/sell", token, `[{"sellerId":"A","price":10.50}]`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Non-zero balance blocks deletion.
	resp = app.do(t, http.MethodDelete, "/seller/A", token, "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "SELLER_003")

	// Refund back to exactly zero.
	resp = app.do(t, http.MethodPost, "/sell", token, `[{"sellerId":"A","price":-10.50}]`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[{"id":"A","name":"Alice","balance":"0.00","rate":"0.25"}]`, readBody(t, resp))

	// Now deletion succeeds.
	resp = app.do(t, http.MethodDelete, "/seller/A", token, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestIntegration_ExportCSV(t *testing.T) {
	app := newTestApp(t)
	defer app.close()
	token := app.login(t)

	resp := app.do(t, http.MethodPost, "/seller", token, `{"id":"A","name":"Alice","rate":0.25}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = app.do(t, http.MethodPost, "/sell", token, `[{"sellerId":"A","price":100.00}]`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = app.do(t, http.MethodGet, "/exportcsv", token, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Equal(t, "attachment; filename=sellers.csv", resp.Header.Get("Content-Disposition"))

	body := readBody(t, resp)
	lines := strings.Split(strings.TrimRight(body, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Trader ID,Name,Sum of all Sales,Provision Rate,Total Provision,Trader earnings", lines[0])
	assert.Equal(t, "A,Alice,100.00,0.25,25.0000,75.0000", lines[1])
}
