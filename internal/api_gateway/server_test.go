package api_gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/crop-trade-ledger/internal/api_gateway/middleware"
	"github.com/crop-trade-ledger/internal/api_gateway/service"
	"github.com/crop-trade-ledger/internal/config"
	"github.com/crop-trade-ledger/internal/data/memory"
	"github.com/crop-trade-ledger/internal/posting"
	"github.com/crop-trade-ledger/internal/registry"
	"github.com/crop-trade-ledger/internal/reporting"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Application: config.ApplicationConfig{Env: "test"},
		Server: config.ServerConfig{
			Port:         0,
			WriteTimeout: time.Second,
		},
	}
}

// newTestServer wires the real orchestrator, registry and reporting over the in-memory store
func newTestServer(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store := memory.NewStore()
	reports := reporting.NewService(store, nil, logger)
	reg := registry.NewService(store, logger)
	_, err := reg.SeedChart(context.Background())
	require.NoError(t, err)

	rateLimiter, err := middleware.NewRateLimiter("1000-M", nil)
	require.NoError(t, err)

	srv := NewServer(logger, cfg, Services{
		Posting:   posting.NewOrchestrator(store, logger),
		Registry:  reg,
		Reporting: reports,
		Journal:   service.NewJournalService(logger, nil),
	}, rateLimiter)
	return srv.Handler()
}

func call(t *testing.T, h http.Handler, method, path, body string, headers map[string]string) (int, json.RawMessage) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if rr.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &envelope), rr.Body.String())
	}
	return rr.Code, envelope.Data
}

func TestServer_Health(t *testing.T) {
	h := newTestServer(t, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"ok"`)
	assert.NotEmpty(t, rr.Header().Get(middleware.CorrelationIDHeader))
}

func TestServer_PurchaseThenSaleFlow(t *testing.T) {
	h := newTestServer(t, testConfig())

	code, data := call(t, h, http.MethodPost, "/api/v1/items", `{"name":"Maize","unit":"kg"}`, nil)
	require.Equal(t, http.StatusCreated, code)
	var item struct{ ID int64 }
	require.NoError(t, json.Unmarshal(data, &item))

	code, data = call(t, h, http.MethodPost, "/api/v1/contacts", `{"name":"Hillside Co-op","is_supplier":true,"is_customer":true}`, nil)
	require.Equal(t, http.StatusCreated, code)
	var ct struct{ ID int64 }
	require.NoError(t, json.Unmarshal(data, &ct))

	purchase := map[string]interface{}{
		"contact_id": ct.ID, "item_id": item.ID,
		"quantity": "100", "unit_price": "10", "amount_paid": "400", "payment_account_id": 10101,
	}
	body, _ := json.Marshal(purchase)
	code, data = call(t, h, http.MethodPost, "/api/v1/purchases", string(body), nil)
	require.Equal(t, http.StatusCreated, code, string(data))

	sale := map[string]interface{}{
		"contact_id": ct.ID, "item_id": item.ID,
		"quantity": "150", "unit_price": "15", "amount_received": "0",
	}
	body, _ = json.Marshal(sale)
	code, _ = call(t, h, http.MethodPost, "/api/v1/sales", string(body), nil)
	assert.Equal(t, http.StatusConflict, code, "selling more than on hand is refused")

	sale["quantity"] = "60"
	body, _ = json.Marshal(sale)
	code, data = call(t, h, http.MethodPost, "/api/v1/sales", string(body), nil)
	require.Equal(t, http.StatusCreated, code)
	var posted struct {
		TransactionRef string `json:"transaction_ref"`
	}
	require.NoError(t, json.Unmarshal(data, &posted))

	code, data = call(t, h, http.MethodGet, "/api/v1/ledger/"+posted.TransactionRef, "", nil)
	require.Equal(t, http.StatusOK, code)
	var entries []struct {
		Debit  decimal.Decimal `json:"debit"`
		Credit decimal.Decimal `json:"credit"`
	}
	require.NoError(t, json.Unmarshal(data, &entries))
	debit, credit := decimal.Zero, decimal.Zero
	for _, e := range entries {
		debit = debit.Add(e.Debit)
		credit = credit.Add(e.Credit)
	}
	assert.True(t, debit.Equal(credit))

	code, data = call(t, h, http.MethodGet, "/api/v1/reports/trial-balance", "", nil)
	require.Equal(t, http.StatusOK, code)
	var tb reporting.TrialBalance
	require.NoError(t, json.Unmarshal(data, &tb))
	assert.True(t, tb.Balanced)

	code, data = call(t, h, http.MethodGet, "/api/v1/items/"+jsonID(item.ID)+"/position", "", nil)
	require.Equal(t, http.StatusOK, code)
	var pos struct {
		Quantity decimal.Decimal `json:"quantity"`
	}
	require.NoError(t, json.Unmarshal(data, &pos))
	assert.True(t, pos.Quantity.Equal(decimal.NewFromInt(40)))

	code, data = call(t, h, http.MethodGet, "/api/v1/audit?entity=sales", "", nil)
	require.Equal(t, http.StatusOK, code)
	var records []json.RawMessage
	require.NoError(t, json.Unmarshal(data, &records))
	assert.Len(t, records, 1)
}

func TestServer_AuthRequiredWhenConfigured(t *testing.T) {
	cfg := testConfig()
	cfg.Auth = config.AuthConfig{JWTSecret: "gateway-secret", JWTIssuer: "crop-trade-ledger"}
	h := newTestServer(t, cfg)

	code, _ := call(t, h, http.MethodGet, "/api/v1/accounts", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "bookkeeper",
		Issuer:    "crop-trade-ledger",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("gateway-secret"))
	require.NoError(t, err)

	code, data := call(t, h, http.MethodGet, "/api/v1/accounts?category=CASH", "", map[string]string{"Authorization": "Bearer " + token})
	require.Equal(t, http.StatusOK, code)
	var accounts []struct{ ID int64 }
	require.NoError(t, json.Unmarshal(data, &accounts))
	assert.NotEmpty(t, accounts)

	code, _ = call(t, h, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code, "health stays public")
}

func jsonID(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
