package http

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/centralmei/backend/internal/auth"
	"github.com/centralmei/backend/internal/config"
	"github.com/centralmei/backend/internal/db"
	"github.com/centralmei/backend/internal/event"
	"github.com/centralmei/backend/internal/excel"
	"github.com/centralmei/backend/internal/http/middleware"
	"github.com/centralmei/backend/internal/mercadopago"
	"github.com/centralmei/backend/internal/model"
	"github.com/centralmei/backend/internal/pdf"
	"github.com/centralmei/backend/internal/repository"
	"github.com/centralmei/backend/internal/service"
)

const testWebhookSecret = "router-test-secret"

type routerEnv struct {
	router   *gin.Engine
	database *gorm.DB
	issuer   *auth.Issuer
	users    *repository.UserRepository
	requests *repository.RequestRepository
	gateway  *httptest.Server
}

func newRouterEnv(t *testing.T) *routerEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(database))

	mux := http.NewServeMux()
	mux.HandleFunc("/checkout/preferences", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(mercadopago.Preference{ID: "pref-1", InitPoint: "https://gateway.test/init"})
	})
	gatewayServer := httptest.NewServer(mux)
	t.Cleanup(gatewayServer.Close)

	cfg := &config.Config{
		Environment: "test",
		MercadoPago: config.MercadoPagoConfig{
			AccessToken:   "token",
			PublicKey:     "pk",
			WebhookSecret: testWebhookSecret,
			BaseURL:       gatewayServer.URL,
		},
		Ledger: config.LedgerConfig{
			CategoryName:    "MEI Services",
			SubcategoryName: "MEI Registration",
			ProductName:     "MEI Registration",
		},
	}

	log := zerolog.Nop()
	bus := event.NewBus(log)

	userRepo := repository.NewUserRepository(database)
	requestRepo := repository.NewRequestRepository(database)
	catalogRepo := repository.NewCatalogRepository(database)
	accountsRepo := repository.NewAccountsRepository(database)
	ledgerRepo := repository.NewLedgerRepository(database)
	paymentRepo := repository.NewPaymentRepository(database)

	issuer := auth.NewIssuer("router-test", time.Hour)
	parser := auth.NewParser("router-test")
	gateway := mercadopago.NewClient(gatewayServer.URL, cfg.MercadoPago.AccessToken)

	ledgerService := service.NewLedgerService(ledgerRepo, accountsRepo, userRepo, requestRepo, bus, cfg.Ledger, log)
	ledgerService.RegisterHandlers(bus)

	handler := NewHandler(
		service.NewAuthService(userRepo, issuer, log),
		service.NewCatalogService(catalogRepo),
		service.NewRequestService(requestRepo, bus, log),
		service.NewPaymentService(paymentRepo, requestRepo, gateway, cfg.MercadoPago, log),
		ledgerService,
		service.NewAccountsService(accountsRepo),
		service.NewReportService(ledgerRepo),
		excel.NewGenerator(),
		pdf.NewGenerator(),
		log,
	)

	router := NewRouter(handler, middleware.Auth(parser), middleware.OptionalAuth(parser), cfg)
	return &routerEnv{
		router:   router,
		database: database,
		issuer:   issuer,
		users:    userRepo,
		requests: requestRepo,
		gateway:  gatewayServer,
	}
}

func (env *routerEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	env.router.ServeHTTP(recorder, req)
	return recorder
}

func (env *routerEnv) staffToken(t *testing.T) string {
	t.Helper()
	user := &model.User{Email: "staff@centralmei.com.br", PasswordHash: "x", IsStaff: true}
	require.NoError(t, env.users.Create(context.Background(), user))
	token, err := env.issuer.Issue(user)
	require.NoError(t, err)
	return token
}

func (env *routerEnv) seedService(t *testing.T) {
	t.Helper()
	require.NoError(t, env.database.Create(&model.Service{
		Name:   "Abertura de MEI",
		Slug:   "abertura-de-mei",
		Type:   model.ServiceTypeOpenMEI,
		Price:  decimal.RequireFromString("97.00"),
		Active: true,
	}).Error)
}

func TestHealthz(t *testing.T) {
	env := newRouterEnv(t)
	resp := env.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestIntakeFlowAndAdminGuard(t *testing.T) {
	env := newRouterEnv(t)
	env.seedService(t)

	resp := env.do(t, http.MethodPost, "/api/requests", "", gin.H{
		"full_name":    "Maria da Silva",
		"cpf":          "52998224725",
		"email":        "maria@example.com",
		"primary_cnae": "6201-5/01",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var created model.ServiceRequest
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	assert.Equal(t, model.RequestStatusPending, created.Status)
	assert.True(t, created.ServiceValue.Equal(decimal.RequireFromString("97.00")))

	// Field-level validation errors come back as a map.
	resp = env.do(t, http.MethodPost, "/api/requests", "", gin.H{
		"full_name":    "X",
		"cpf":          "123",
		"email":        "bad",
		"primary_cnae": "zzz",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "fields")

	// The back office requires a staff token.
	resp = env.do(t, http.MethodGet, "/api/admin/requests", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	token := env.staffToken(t)
	resp = env.do(t, http.MethodGet, "/api/admin/requests", token, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "52998224725")

	// Completing the request through the admin endpoint runs the ledger
	// automation inline.
	resp = env.do(t, http.MethodPatch, "/api/admin/requests/"+created.ID.String()+"/status", token, gin.H{"status": "completed"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Contains(t, resp.Body.String(), `"sale_created":true`)

	resp = env.do(t, http.MethodGet, "/api/admin/sales", token, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), created.ID.String())
}

func TestNonStaffTokenIsForbidden(t *testing.T) {
	env := newRouterEnv(t)

	user := &model.User{Email: "cliente@example.com", PasswordHash: "x"}
	require.NoError(t, env.users.Create(context.Background(), user))
	token, err := env.issuer.Issue(user)
	require.NoError(t, err)

	resp := env.do(t, http.MethodGet, "/api/admin/requests", token, nil)
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestWebhookBadSignatureIsForbidden(t *testing.T) {
	env := newRouterEnv(t)

	body := []byte(`{"type":"payment","data":{"id":"1"}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/mercadopago", bytes.NewReader(body))
	req.Header.Set("x-signature", "ts=1,v1=deadbeef")
	req.Header.Set("x-request-id", "req-1")

	recorder := httptest.NewRecorder()
	env.router.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusForbidden, recorder.Code)
}

func TestWebhookIgnoredTopicIsAccepted(t *testing.T) {
	env := newRouterEnv(t)

	body := []byte(`{"type":"plan","data":{"id":"1"}}`)
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	payload := fmt.Sprintf("id:%s;request-id:%s;ts:%s;", body, "req-1", ts)
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	mac.Write([]byte(payload))
	signature := "ts=" + ts + ",v1=" + hex.EncodeToString(mac.Sum(nil))

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/mercadopago", bytes.NewReader(body))
	req.Header.Set("x-signature", signature)
	req.Header.Set("x-request-id", "req-1")

	recorder := httptest.NewRecorder()
	env.router.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestCheckoutThroughRouter(t *testing.T) {
	env := newRouterEnv(t)
	env.seedService(t)

	resp := env.do(t, http.MethodPost, "/api/requests", "", gin.H{
		"full_name":    "Maria da Silva",
		"cpf":          "52998224725",
		"email":        "maria@example.com",
		"primary_cnae": "6201-5/01",
	})
	require.Equal(t, http.StatusCreated, resp.Code)

	var created model.ServiceRequest
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))

	resp = env.do(t, http.MethodPost, "/api/payments/checkout", "", gin.H{"request_id": created.ID.String()})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	assert.Contains(t, resp.Body.String(), "pref-1")
	assert.True(t, strings.Contains(resp.Body.String(), "CMEI-"))
}

func TestReportExportDownloads(t *testing.T) {
	env := newRouterEnv(t)
	token := env.staffToken(t)

	resp := env.do(t, http.MethodGet, "/api/reports", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.Code) // outside /admin

	resp = env.do(t, http.MethodGet, "/api/admin/reports?period=last_7_days", token, nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = env.do(t, http.MethodGet, "/api/admin/reports/export?format=xlsx", token, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Header().Get("Content-Disposition"), ".xlsx")

	resp = env.do(t, http.MethodGet, "/api/admin/reports/export?format=pdf", token, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Header().Get("Content-Disposition"), ".pdf")
	assert.Equal(t, "application/pdf", resp.Header().Get("Content-Type"))
}
