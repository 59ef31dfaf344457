package api

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"

	"tradevault/internal/analytics"
	tverrors "tradevault/internal/errors"
	"tradevault/internal/journal"
	"tradevault/internal/models"
	"tradevault/internal/store"
)

func (s *Server) registerRoutes(api *echo.Group) {
	api.GET("/health", s.healthCheck)

	accounts := api.Group("/accounts")
	accounts.GET("", s.listAccounts)
	accounts.POST("", s.createAccount)
	accounts.POST("/refresh", s.refreshBalances)
	accounts.GET("/:id", s.getAccount)
	accounts.PUT("/:id", s.updateAccount)
	accounts.DELETE("/:id", s.deleteAccount)
	accounts.GET("/:id/balance", s.accountBalance)

	api.GET("/transactions", s.listTransactions)
	api.POST("/transactions", s.addTransaction)

	trades := api.Group("/trades")
	trades.GET("", s.listTrades)
	trades.POST("", s.createTrade)
	trades.GET("/closed-summary", s.closedSummary)
	trades.GET("/:id", s.getTrade)
	trades.PUT("/:id", s.updateTrade)
	trades.DELETE("/:id", s.deleteTrade)
	trades.POST("/:id/close", s.closeTrade)

	api.GET("/stats", s.stats)
	api.GET("/summaries", s.summaries)

	an := api.Group("/analytics")
	an.GET("/breakdown", s.breakdown)
	an.GET("/equity", s.equity)
	an.GET("/distribution", s.distribution)
	an.GET("/strategies", s.strategies)
	an.GET("/report", s.report)

	api.GET("/export", s.exportCSV)
	api.POST("/import", s.importCSV)
}

// list turns a nil slice into an empty JSON array.
func list[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func bindJSON(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return nil
}

// scope reads the analytics account scope and filter from the query.
func scope(c echo.Context) (string, analytics.Filter, error) {
	var f analytics.Filter
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &f); err != nil {
		return "", f, echo.NewHTTPError(http.StatusBadRequest, "invalid filter")
	}
	f.Pair = strings.ToUpper(f.Pair)
	return c.QueryParam("account_id"), f, nil
}

func (s *Server) healthCheck(c echo.Context) error {
	report := s.checker.Run(c.Request().Context())
	if !report.Healthy() {
		return c.JSON(http.StatusServiceUnavailable, report)
	}
	return c.JSON(http.StatusOK, report)
}

// ============================================================================
// Accounts
// ============================================================================

func (s *Server) listAccounts(c echo.Context) error {
	accounts, err := s.svc.ListAccounts(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list(accounts))
}

func (s *Server) createAccount(c echo.Context) error {
	var in journal.AccountInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	a, err := s.svc.CreateAccount(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, a)
}

func (s *Server) getAccount(c echo.Context) error {
	a, err := s.svc.GetAccount(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

func (s *Server) updateAccount(c echo.Context) error {
	var in journal.AccountUpdate
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	a, err := s.svc.UpdateAccount(c.Request().Context(), c.Param("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

func (s *Server) deleteAccount(c echo.Context) error {
	if err := s.svc.DeleteAccount(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) accountBalance(c echo.Context) error {
	bal, err := s.svc.Balance(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, bal)
}

func (s *Server) refreshBalances(c echo.Context) error {
	balances, err := s.svc.RefreshBalances(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list(balances))
}

// ============================================================================
// Transactions
// ============================================================================

func (s *Server) listTransactions(c echo.Context) error {
	txs, err := s.svc.ListTransactions(c.Request().Context(), c.QueryParam("account_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list(txs))
}

func (s *Server) addTransaction(c echo.Context) error {
	var in journal.TransactionInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	tx, err := s.svc.AddTransaction(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, tx)
}

// ============================================================================
// Trades
// ============================================================================

func tradeFilter(c echo.Context) (store.TradeFilter, error) {
	f := store.TradeFilter{
		AccountID: c.QueryParam("account_id"),
		Pair:      strings.ToUpper(c.QueryParam("pair")),
		Direction: models.Direction(c.QueryParam("direction")),
		Status:    models.Status(c.QueryParam("status")),
	}
	if v := c.QueryParam("from"); v != "" {
		d, err := models.ParseDate(v)
		if err != nil {
			return f, tverrors.NewValidationError("from", v, "must be a yyyy-mm-dd date")
		}
		f.StartDate = d
	}
	if v := c.QueryParam("to"); v != "" {
		d, err := models.ParseDate(v)
		if err != nil {
			return f, tverrors.NewValidationError("to", v, "must be a yyyy-mm-dd date")
		}
		f.EndDate = d
	}
	if v := c.QueryParam("limit"); v != "" {
		n, err := cast.ToIntE(v)
		if err != nil || n < 0 {
			return f, tverrors.NewValidationError("limit", v, "must be a non-negative integer")
		}
		f.Limit = n
	}
	return f, nil
}

func (s *Server) listTrades(c echo.Context) error {
	f, err := tradeFilter(c)
	if err != nil {
		return err
	}
	trades, err := s.svc.ListTrades(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list(trades))
}

func (s *Server) createTrade(c echo.Context) error {
	var in journal.TradeInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	t, err := s.svc.LogTrade(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, t)
}

func (s *Server) getTrade(c echo.Context) error {
	d, err := s.svc.TradeDetail(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

func (s *Server) updateTrade(c echo.Context) error {
	var in journal.TradeInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	t, err := s.svc.UpdateTrade(c.Request().Context(), c.Param("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, t)
}

func (s *Server) deleteTrade(c echo.Context) error {
	if err := s.svc.DeleteTrade(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

type closeRequest struct {
	ExitPrice float64 `json:"exit_price"`
}

func (s *Server) closeTrade(c echo.Context) error {
	var req closeRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	t, err := s.svc.CloseTrade(c.Request().Context(), c.Param("id"), req.ExitPrice)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, t)
}

func (s *Server) closedSummary(c echo.Context) error {
	rows, err := s.svc.ClosedTrades(c.Request().Context(), c.QueryParam("account_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list(rows))
}

// ============================================================================
// Analytics
// ============================================================================

func (s *Server) stats(c echo.Context) error {
	account, f, err := scope(c)
	if err != nil {
		return err
	}
	st, err := s.svc.Stats(c.Request().Context(), account, f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, st)
}

func granularity(c echo.Context) (analytics.Granularity, error) {
	raw := c.QueryParam("period")
	if raw == "" {
		return analytics.Weekly, nil
	}
	g, ok := analytics.ParseGranularity(raw)
	if !ok {
		return "", tverrors.NewValidationError("period", raw, "must be week or month")
	}
	return g, nil
}

func (s *Server) summaries(c echo.Context) error {
	account, f, err := scope(c)
	if err != nil {
		return err
	}
	g, err := granularity(c)
	if err != nil {
		return err
	}
	periods, err := s.svc.Periods(c.Request().Context(), account, g, f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list(periods))
}

func (s *Server) breakdown(c echo.Context) error {
	account, f, err := scope(c)
	if err != nil {
		return err
	}
	by := c.QueryParam("by")
	if by == "" {
		by = string(analytics.DimSession)
	}
	groups, err := s.svc.Breakdown(c.Request().Context(), account, analytics.Dimension(by), f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list(groups))
}

func (s *Server) equity(c echo.Context) error {
	account, f, err := scope(c)
	if err != nil {
		return err
	}
	points, err := s.svc.EquityCurve(c.Request().Context(), account, f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list(points))
}

func (s *Server) distribution(c echo.Context) error {
	account, f, err := scope(c)
	if err != nil {
		return err
	}
	bands, err := s.svc.RDistribution(c.Request().Context(), account, f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list(bands))
}

func (s *Server) strategies(c echo.Context) error {
	account, f, err := scope(c)
	if err != nil {
		return err
	}
	ranking, err := s.svc.StrategyRanking(c.Request().Context(), account, f)
	if err != nil {
		return err
	}
	ranking.Totals = list(ranking.Totals)
	return c.JSON(http.StatusOK, ranking)
}

func (s *Server) report(c echo.Context) error {
	account, f, err := scope(c)
	if err != nil {
		return err
	}
	g, err := granularity(c)
	if err != nil {
		return err
	}
	r, err := s.svc.Report(c.Request().Context(), account, g, f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, r)
}

// ============================================================================
// CSV
// ============================================================================

func (s *Server) exportCSV(c echo.Context) error {
	var buf bytes.Buffer
	if _, err := s.svc.ExportCSV(c.Request().Context(), c.QueryParam("account_id"), &buf); err != nil {
		return err
	}
	name := fmt.Sprintf("tradevault-%s.csv", time.Now().Format(models.DateLayout))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// importCSV accepts either a multipart upload in the "file" field or the
// CSV as the raw request body.
func (s *Server) importCSV(c echo.Context) error {
	account := c.QueryParam("account_id")
	if account == "" {
		return tverrors.NewValidationError("account_id", nil, "is required")
	}

	var body io.Reader = c.Request().Body
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		fh, err := c.FormFile("file")
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "missing file upload")
		}
		f, err := fh.Open()
		if err != nil {
			return err
		}
		defer f.Close()
		body = f
	}

	res, err := s.svc.ImportCSV(c.Request().Context(), account, body)
	if err != nil {
		return err
	}
	res.Warnings = list(res.Warnings)
	return c.JSON(http.StatusOK, res)
}
