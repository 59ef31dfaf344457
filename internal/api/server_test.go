package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradevault/internal/analytics"
	"tradevault/internal/config"
	tverrors "tradevault/internal/errors"
	"tradevault/internal/journal"
	"tradevault/internal/models"
	"tradevault/internal/store"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	svc := journal.NewService(st, zerolog.Nop(), journal.Defaults{})
	return NewServer(svc, config.ServerConfig{Addr: "127.0.0.1:0"}, zerolog.Nop()).Handler()
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

func createAccount(t *testing.T, h http.Handler) models.Account {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/accounts", map[string]interface{}{"name": "Main", "initial_balance": 10000})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var a models.Account
	decode(t, rec, &a)
	return a
}

func tradeBody(accountID string, exit float64) map[string]interface{} {
	body := map[string]interface{}{
		"account_id":  accountID,
		"pair":        "EURUSD",
		"direction":   "Buy",
		"entry_price": 1.1,
		"stop_loss":   1.09,
		"take_profit": 1.13,
		"risk_amount": 100,
		"session":     "London",
		"strategy":    "Breakout",
		"date":        "2025-01-15",
	}
	if exit != 0 {
		body["exit_price"] = exit
	}
	return body
}

func TestHealth(t *testing.T) {
	h := newTestServer(t)
	rec := do(t, h, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestAccountLifecycle(t *testing.T) {
	h := newTestServer(t)
	a := createAccount(t, h)
	assert.Equal(t, "USD", a.Currency)

	rec := do(t, h, http.MethodPost, "/api/transactions", map[string]interface{}{"account_id": a.ID, "type": "deposit", "amount": 500})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/accounts/"+a.ID+"/balance", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var bal analytics.AccountBalance
	decode(t, rec, &bal)
	assert.Equal(t, 10500.0, bal.CurrentBalance)

	rec = do(t, h, http.MethodPut, "/api/accounts/"+a.ID, map[string]interface{}{"name": "Renamed"})
	require.Equal(t, http.StatusOK, rec.Code)
	var updated models.Account
	decode(t, rec, &updated)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, 10500.0, updated.CurrentBalance)

	rec = do(t, h, http.MethodGet, "/api/transactions?account_id="+a.ID, nil)
	var txs []models.Transaction
	decode(t, rec, &txs)
	assert.Len(t, txs, 1)

	rec = do(t, h, http.MethodDelete, "/api/accounts/"+a.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/accounts", nil)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestErrorMapping(t *testing.T) {
	h := newTestServer(t)
	a := createAccount(t, h)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		want   int
	}{
		{"validation", http.MethodPost, "/api/accounts", map[string]interface{}{"name": ""}, http.StatusBadRequest},
		{"missing account", http.MethodGet, "/api/accounts/nope", nil, http.StatusNotFound},
		{"missing trade", http.MethodGet, "/api/trades/nope", nil, http.StatusNotFound},
		{"bad dimension", http.MethodGet, "/api/analytics/breakdown?by=weekday", nil, http.StatusBadRequest},
		{"bad period", http.MethodGet, "/api/summaries?period=year", nil, http.StatusBadRequest},
		{"bad limit", http.MethodGet, "/api/trades?limit=x", nil, http.StatusBadRequest},
		{"bad amount", http.MethodPost, "/api/transactions", map[string]interface{}{"account_id": a.ID, "type": "deposit", "amount": -1}, http.StatusBadRequest},
		{"unknown route", http.MethodGet, "/api/nothing", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())

			var body errorBody
			decode(t, rec, &body)
			assert.Equal(t, tt.want, body.Code)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestStatusOf(t *testing.T) {
	cause := errors.New("disk I/O error")
	assert.Equal(t, http.StatusInternalServerError, statusOf(tverrors.NewDataError("trade", "acc-1", "saving imported trades", cause)))
	assert.Equal(t, http.StatusBadRequest, statusOf(tverrors.NewImportError(2, "invalid row", nil)))
	assert.Equal(t, http.StatusConflict, statusOf(tverrors.ErrTradeNotOpen))
	assert.Equal(t, http.StatusTeapot, statusOf(echo.NewHTTPError(http.StatusTeapot)))
}

func TestTradeFlowAndAnalytics(t *testing.T) {
	h := newTestServer(t)
	a := createAccount(t, h)

	rec := do(t, h, http.MethodPost, "/api/trades", tradeBody(a.ID, 1.12))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/trades", tradeBody(a.ID, 0))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var open models.Trade
	decode(t, rec, &open)
	assert.Equal(t, models.StatusOpen, open.Status)

	rec = do(t, h, http.MethodPost, "/api/trades/"+open.TradeCode+"/close", map[string]interface{}{"exit_price": 1.09})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/trades/"+open.ID+"/close", map[string]interface{}{"exit_price": 1.1})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/trades/"+open.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var detail journal.TradeDetail
	decode(t, rec, &detail)
	require.NotNil(t, detail.Outcome)
	assert.Equal(t, -1.0, detail.Outcome.RMultiple)

	rec = do(t, h, http.MethodGet, "/api/stats?account_id="+a.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var st analytics.Stats
	decode(t, rec, &st)
	assert.Equal(t, 2, st.TotalTrades)
	assert.Equal(t, 100.0, st.TotalPnL)
	assert.Equal(t, 2.0, st.ProfitFactor)

	rec = do(t, h, http.MethodGet, "/api/stats?pair=eurusd", nil)
	decode(t, rec, &st)
	assert.Equal(t, 2, st.TotalTrades)

	rec = do(t, h, http.MethodGet, "/api/stats?session=Asia", nil)
	decode(t, rec, &st)
	assert.Equal(t, 0, st.TotalTrades)

	rec = do(t, h, http.MethodGet, "/api/summaries?period=month", nil)
	var periods []analytics.PeriodSummary
	decode(t, rec, &periods)
	require.Len(t, periods, 1)
	assert.Equal(t, "2025-01", periods[0].Period)

	rec = do(t, h, http.MethodGet, "/api/analytics/equity", nil)
	var points []analytics.EquityPoint
	decode(t, rec, &points)
	require.Len(t, points, 2)
	assert.Equal(t, 100.0, points[1].Equity)

	rec = do(t, h, http.MethodGet, "/api/analytics/equity?pair=eurusd", nil)
	decode(t, rec, &points)
	assert.Len(t, points, 2)

	rec = do(t, h, http.MethodGet, "/api/analytics/strategies", nil)
	var ranking analytics.StrategyRanking
	decode(t, rec, &ranking)
	assert.Equal(t, "Breakout", ranking.Best)

	rec = do(t, h, http.MethodGet, "/api/trades/closed-summary?account_id="+a.ID, nil)
	var closed []journal.ClosedTrade
	decode(t, rec, &closed)
	assert.Len(t, closed, 2)

	rec = do(t, h, http.MethodGet, "/api/trades?status=Open", nil)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = do(t, h, http.MethodDelete, "/api/trades/"+open.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestExportImport(t *testing.T) {
	h := newTestServer(t)
	a := createAccount(t, h)
	rec := do(t, h, http.MethodPost, "/api/trades", tradeBody(a.ID, 1.12))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/export?account_id="+a.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "attachment")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "trade_id,date,"))

	b := createAccount(t, h)
	src := "symbol,type,price,s / l,close price,date\nGBPUSD,sell,1.27,1.28,1.26,2025-02-03\n"
	req := httptest.NewRequest(http.MethodPost, "/api/import?account_id="+b.ID, strings.NewReader(src))
	req.Header.Set(echo.HeaderContentType, "text/csv")
	out := httptest.NewRecorder()
	h.ServeHTTP(out, req)
	require.Equal(t, http.StatusOK, out.Code, out.Body.String())

	var res journal.ImportResult
	decode(t, out, &res)
	assert.Equal(t, 1, res.Imported)
	assert.Empty(t, res.Warnings)

	req = httptest.NewRequest(http.MethodPost, "/api/import", strings.NewReader(src))
	out = httptest.NewRecorder()
	h.ServeHTTP(out, req)
	assert.Equal(t, http.StatusBadRequest, out.Code)
}
