package invoices

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oneflow-hq/oneflow/internal/finance/timesheets"
	"github.com/oneflow-hq/oneflow/internal/platform/httpx"
)

func newTestServer(repo *memoryRepo) *httptest.Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(logger, NewService(repo, &stubNumbers{}))
	return httptest.NewServer(Routes(h))
}

func TestHandlerCreateFromTimesheets(t *testing.T) {
	repo := newMemoryRepo()
	seedTimesheet(repo, 1, 10, 100, timesheets.StatusApproved)
	srv := newTestServer(repo)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/from-timesheets", "application/json",
		strings.NewReader(`{"project_id":10,"timesheet_ids":[1]}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result TimesheetInvoiceResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	require.Equal(t, 1, result.TimesheetsInvoiced)
	require.Equal(t, "INV-TEST-0001", result.Invoice.Number)
}

func TestHandlerMapsValidationToBadRequest(t *testing.T) {
	repo := newMemoryRepo()
	srv := newTestServer(repo)
	defer srv.Close()

	// timesheet 9 does not exist
	resp, err := http.Post(srv.URL+"/from-timesheets", "application/json",
		strings.NewReader(`{"project_id":10,"timesheet_ids":[9]}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var problem httpx.ProblemDetail
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&problem))
	require.Equal(t, http.StatusBadRequest, problem.Status)
	require.Contains(t, problem.Detail, "not found")
}

func TestHandlerMapsMissingInvoiceToNotFound(t *testing.T) {
	repo := newMemoryRepo()
	srv := newTestServer(repo)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/123")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandlerRejectsMalformedBody(t *testing.T) {
	repo := newMemoryRepo()
	srv := newTestServer(repo)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/from-timesheets", "application/json",
		strings.NewReader(`{not json`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
