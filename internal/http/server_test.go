package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/auth"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()

	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	sessions := auth.NewManager("0123456789abcdef", time.Hour)
	srv, err := NewServer(Options{
		Addr:           ":0",
		MaxUploadBytes: 1 << 20,
		RateLimit:      ratelimit.Config{RequestsPerMinute: 10000},
	}, repo, services.NewTransactionService(repo, nil), services.NewBudgetService(repo), sessions)
	require.NoError(t, err)
	t.Cleanup(func() {
		srv.limiter.Stop()
		srv.cacheManager.Stop()
	})

	token, err := sessions.IssueToken(1, "tester")
	require.NoError(t, err)
	return srv, token
}

// do performs a request against the router with an optional JSON body and
// decodes the JSON response into out (when non-nil).
func do(t *testing.T, srv *Server, token, method, path string, body any, out any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	if out != nil && rr.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), out),
			"response body: %s", rr.Body.String())
	}
	return rr
}

func findCategoryID(t *testing.T, srv *Server, token, name string) int64 {
	t.Helper()
	var body struct {
		Categories []categoryPayload `json:"categories"`
	}
	rr := do(t, srv, token, http.MethodGet, "/api/categories", nil, &body)
	require.Equal(t, http.StatusOK, rr.Code)
	for _, c := range body.Categories {
		if c.Name == name {
			return c.ID
		}
	}
	t.Fatalf("category %q not found", name)
	return 0
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := do(t, srv, "", http.MethodGet, path, nil, nil)
		assert.Equal(t, http.StatusOK, rr.Code, path)
	}
}

func TestPagesRender(t *testing.T) {
	srv, _ := newTestServer(t)

	pages := map[string]string{
		"/":            "Dashboard",
		"/transactions": "Transactions",
		"/categories":  "Categories",
		"/budgets":     "Budgets",
		"/reports":     "Reports",
		"/import":      "Import CSV",
		"/login":       "login-form",
	}
	for path, marker := range pages {
		rr := do(t, srv, "", http.MethodGet, path, nil, nil)
		require.Equal(t, http.StatusOK, rr.Code, path)
		assert.Contains(t, rr.Body.String(), marker, path)
	}
}

func TestAPIRequiresSession(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := do(t, srv, "", http.MethodGet, "/api/transactions", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuthFlow(t *testing.T) {
	srv, _ := newTestServer(t)

	creds := map[string]string{"username": "alice", "password": "supersecret"}
	rr := do(t, srv, "", http.MethodPost, "/api/auth/register", creds, nil)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = do(t, srv, "", http.MethodPost, "/api/auth/register", creds, nil)
	assert.Equal(t, http.StatusConflict, rr.Code)

	var login struct {
		Token    string `json:"token"`
		Username string `json:"username"`
	}
	rr = do(t, srv, "", http.MethodPost, "/api/auth/login", creds, &login)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NotEmpty(t, login.Token)
	assert.Contains(t, rr.Header().Get("Set-Cookie"), auth.SessionCookie)

	var me struct {
		Username string `json:"username"`
	}
	rr = do(t, srv, login.Token, http.MethodGet, "/api/auth/me", nil, &me)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "alice", me.Username)

	bad := map[string]string{"username": "alice", "password": "wrongwrong"}
	rr = do(t, srv, "", http.MethodPost, "/api/auth/login", bad, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestTransactionLifecycle(t *testing.T) {
	srv, token := newTestServer(t)

	// Seeded rules should categorize a coffee purchase automatically.
	var created transactionPayload
	rr := do(t, srv, token, http.MethodPost, "/api/transactions", map[string]any{
		"date":        "2026-08-10",
		"amount":      "-4.75",
		"description": "STARBUCKS STORE 123",
	}, &created)
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, int64(-475), created.AmountCents)
	assert.Equal(t, "manual", created.Source)
	require.NotNil(t, created.CategoryID)
	assert.Equal(t, findCategoryID(t, srv, token, "Coffee Shops"), *created.CategoryID)

	var fetched transactionPayload
	rr = do(t, srv, token, http.MethodGet, fmt.Sprintf("/api/transactions/%d", created.ID), nil, &fetched)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, created.ID, fetched.ID)

	var updated transactionPayload
	rr = do(t, srv, token, http.MethodPut, fmt.Sprintf("/api/transactions/%d", created.ID), map[string]any{
		"date":         "2026-08-11",
		"amount_cents": -500,
		"description":  "STARBUCKS STORE 123",
		"category_id":  created.CategoryID,
	}, &updated)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, int64(-500), updated.AmountCents)
	assert.Equal(t, "manual", updated.Source)

	var list struct {
		Transactions []transactionPayload `json:"transactions"`
		Total        int                  `json:"total"`
	}
	rr = do(t, srv, token, http.MethodGet, "/api/transactions?search=starbucks", nil, &list)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, list.Total)

	rr = do(t, srv, token, http.MethodDelete, fmt.Sprintf("/api/transactions/%d", created.ID), nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = do(t, srv, token, http.MethodGet, fmt.Sprintf("/api/transactions/%d", created.ID), nil, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestTransactionValidation(t *testing.T) {
	srv, token := newTestServer(t)

	rr := do(t, srv, token, http.MethodPost, "/api/transactions", map[string]any{
		"date":        "2026-08-10",
		"amount":      "0",
		"description": "nothing",
	}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = do(t, srv, token, http.MethodPost, "/api/transactions", map[string]any{
		"date":        "2026-08-10",
		"amount":      "not a number",
		"description": "bad amount",
	}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestBulkCategorize(t *testing.T) {
	srv, token := newTestServer(t)

	var ids []int64
	for i := 0; i < 3; i++ {
		var created transactionPayload
		rr := do(t, srv, token, http.MethodPost, "/api/transactions", map[string]any{
			"date":        fmt.Sprintf("2026-08-%02d", i+1),
			"amount":      "-10.00",
			"description": fmt.Sprintf("mystery merchant %d", i),
		}, &created)
		require.Equal(t, http.StatusCreated, rr.Code)
		ids = append(ids, created.ID)
	}

	target := findCategoryID(t, srv, token, "Shopping")
	var result struct {
		Updated int64 `json:"updated"`
	}
	rr := do(t, srv, token, http.MethodPost, "/api/transactions/bulk", map[string]any{
		"transaction_ids": ids,
		"category_id":     target,
	}, &result)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, int64(3), result.Updated)

	rr = do(t, srv, token, http.MethodPost, "/api/transactions/bulk", map[string]any{
		"transaction_ids": ids,
		"category_id":     int64(999999),
	}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestRecategorizeEndpoint(t *testing.T) {
	srv, token := newTestServer(t)

	var created transactionPayload
	rr := do(t, srv, token, http.MethodPost, "/api/transactions", map[string]any{
		"date":        "2026-08-10",
		"amount":      "-9.99",
		"description": "NETFLIX.COM",
		"category_id": findCategoryID(t, srv, token, "Shopping"),
	}, &created)
	require.Equal(t, http.StatusCreated, rr.Code)

	// Without a broker the job runs inline; scope "all" moves the
	// transaction to the rule's category.
	rr = do(t, srv, token, http.MethodPost, "/api/transactions/recategorize", map[string]any{
		"scope": "all",
	}, nil)
	require.Equal(t, http.StatusAccepted, rr.Code)

	var fetched transactionPayload
	do(t, srv, token, http.MethodGet, fmt.Sprintf("/api/transactions/%d", created.ID), nil, &fetched)
	require.NotNil(t, fetched.CategoryID)
	assert.Equal(t, findCategoryID(t, srv, token, "Streaming Services"), *fetched.CategoryID)

	rr = do(t, srv, token, http.MethodPost, "/api/transactions/recategorize", map[string]any{
		"scope": "everything",
	}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestCategoryEndpoints(t *testing.T) {
	srv, token := newTestServer(t)

	parent := findCategoryID(t, srv, token, "Shopping")

	var created categoryPayload
	rr := do(t, srv, token, http.MethodPost, "/api/categories", map[string]any{
		"name":      "Hobby Supplies",
		"parent_id": parent,
		"color":     "#ff8800",
	}, &created)
	require.Equal(t, http.StatusCreated, rr.Code)
	require.NotNil(t, created.ParentID)
	assert.Equal(t, parent, *created.ParentID)

	rr = do(t, srv, token, http.MethodPost, "/api/categories", map[string]any{
		"name":      "Hobby Supplies",
		"parent_id": parent,
	}, nil)
	assert.Equal(t, http.StatusConflict, rr.Code)

	var children struct {
		Categories []categoryPayload `json:"categories"`
	}
	rr = do(t, srv, token, http.MethodGet, fmt.Sprintf("/api/categories/%d/children", parent), nil, &children)
	require.Equal(t, http.StatusOK, rr.Code)
	names := make([]string, 0, len(children.Categories))
	for _, c := range children.Categories {
		names = append(names, c.Name)
	}
	assert.Contains(t, names, "Hobby Supplies")

	var tree struct {
		Categories []struct {
			Name     string `json:"name"`
			Children []struct {
				Name string `json:"name"`
			} `json:"children"`
		} `json:"categories"`
	}
	rr = do(t, srv, token, http.MethodGet, "/api/categories/hierarchy", nil, &tree)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NotEmpty(t, tree.Categories)

	// A parent with children cannot be deleted.
	rr = do(t, srv, token, http.MethodDelete, fmt.Sprintf("/api/categories/%d", parent), nil, nil)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = do(t, srv, token, http.MethodDelete, fmt.Sprintf("/api/categories/%d", created.ID), nil, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestBudgetEndpoints(t *testing.T) {
	srv, token := newTestServer(t)

	var created budgetPayload
	rr := do(t, srv, token, http.MethodPost, "/api/budgets", map[string]any{
		"name":   "Groceries",
		"amount": "400.00",
		"period": "monthly",
	}, &created)
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, int64(40000), created.AmountCents)

	rr = do(t, srv, token, http.MethodPost, "/api/budgets", map[string]any{
		"name":   "Broken",
		"amount": "100.00",
		"period": "fortnightly",
	}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	var summary struct {
		Budgets []budgetProgressPayload `json:"budgets"`
	}
	rr = do(t, srv, token, http.MethodGet, "/api/budgets/summary", nil, &summary)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, summary.Budgets, 1)
	assert.Equal(t, "good", summary.Budgets[0].Status)
	assert.Equal(t, int64(0), summary.Budgets[0].SpentCents)

	rr = do(t, srv, token, http.MethodDelete, fmt.Sprintf("/api/budgets/%d", created.ID), nil, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRuleEndpoints(t *testing.T) {
	srv, token := newTestServer(t)

	target := findCategoryID(t, srv, token, "Shopping")

	var created rulePayload
	rr := do(t, srv, token, http.MethodPost, "/api/rules", map[string]any{
		"priority":    5,
		"match_field": "description",
		"match_type":  "contains",
		"pattern":     "hardware store",
		"category_id": target,
	}, &created)
	require.Equal(t, http.StatusCreated, rr.Code)

	var list struct {
		Rules []rulePayload `json:"rules"`
	}
	rr = do(t, srv, token, http.MethodGet, "/api/rules", nil, &list)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NotEmpty(t, list.Rules)
	// Ascending priority order; the new rule outranks the seeded ones.
	assert.Equal(t, created.ID, list.Rules[0].ID)

	rr = do(t, srv, token, http.MethodPost, "/api/rules", map[string]any{
		"priority":    5,
		"match_field": "description",
		"match_type":  "contains",
		"pattern":     "orphan",
		"category_id": int64(999999),
	}, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, srv, token, http.MethodDelete, fmt.Sprintf("/api/rules/%d", created.ID), nil, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func multipartUpload(t *testing.T, csv, mapping string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "export.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(csv))
	require.NoError(t, err)
	if mapping != "" {
		require.NoError(t, mw.WriteField("mapping", mapping))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestImportPreviewAndRun(t *testing.T) {
	srv, token := newTestServer(t)

	csv := strings.Join([]string{
		"Date,Description,Amount",
		"2026-08-01,STARBUCKS 42,-4.50",
		"2026-08-02,Paycheck,2500.00",
		"2026-08-02,Paycheck,2500.00",
	}, "\n")

	// Preview: no mapping field
	body, contentType := multipartUpload(t, csv, "")
	req := httptest.NewRequest(http.MethodPost, "/api/import", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var preview struct {
		Preview  bool `json:"preview"`
		Proposal struct {
			Headers   []string `json:"headers"`
			TotalRows int      `json:"total_rows"`
		} `json:"proposal"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &preview))
	assert.True(t, preview.Preview)
	assert.Equal(t, 3, preview.Proposal.TotalRows)

	// Run with an explicit mapping
	mapping := `{"date":"Date","amount":"Amount","description":"Description"}`
	body, contentType = multipartUpload(t, csv, mapping)
	req = httptest.NewRequest(http.MethodPost, "/api/import", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	rr = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var report struct {
		RunID    string `json:"run_id"`
		Imported int    `json:"imported"`
		Skipped  int    `json:"skipped"`
		Failed   int    `json:"failed"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &report))
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 2, report.Imported)
	assert.Equal(t, 1, report.Skipped) // in-batch duplicate paycheck
	assert.Equal(t, 0, report.Failed)

	// The starbucks row was auto-categorized on the way in.
	var list struct {
		Transactions []transactionPayload `json:"transactions"`
	}
	do(t, srv, token, http.MethodGet, "/api/transactions?search=starbucks", nil, &list)
	require.Len(t, list.Transactions, 1)
	require.NotNil(t, list.Transactions[0].CategoryID)
	assert.Equal(t, "imported", list.Transactions[0].Source)
}

func TestImportRejectsUnmappedRequired(t *testing.T) {
	srv, token := newTestServer(t)

	csv := "Date,Description,Amount\n2026-08-01,coffee,-4.50"
	body, contentType := multipartUpload(t, csv, `{"date":"Date"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/import", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestReportsEndpoints(t *testing.T) {
	srv, token := newTestServer(t)

	for _, tx := range []map[string]any{
		{"date": "2026-08-05", "amount": "-25.00", "description": "WALMART GROCERY"},
		{"date": "2026-08-06", "amount": "3000.00", "description": "Salary"},
	} {
		rr := do(t, srv, token, http.MethodPost, "/api/transactions", tx, nil)
		require.Equal(t, http.StatusCreated, rr.Code)
	}

	var spending spendingReportPayload
	rr := do(t, srv, token, http.MethodGet,
		"/api/reports/spending-by-category?from=2026-08-01&to=2026-08-31&type=expense", nil, &spending)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "expense", spending.Type)
	assert.Equal(t, int64(2500), spending.TotalCents)

	// Second read comes from the cache and must match.
	var cached spendingReportPayload
	do(t, srv, token, http.MethodGet,
		"/api/reports/spending-by-category?from=2026-08-01&to=2026-08-31&type=expense", nil, &cached)
	assert.Equal(t, spending, cached)

	var trend struct {
		Months []monthPointPayload `json:"months"`
	}
	rr = do(t, srv, token, http.MethodGet, "/api/reports/trend?from=2026-08-01&to=2026-08-31", nil, &trend)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, trend.Months, 1)
	assert.Equal(t, int64(300000), trend.Months[0].IncomeCents)
	assert.Equal(t, int64(2500), trend.Months[0].ExpenseCents)

	rr = do(t, srv, token, http.MethodGet, "/api/reports/spending-by-category?type=bogus", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestReportChartEndpoints(t *testing.T) {
	srv, token := newTestServer(t)

	groceriesID := findCategoryID(t, srv, token, "Groceries")

	// 2026-08-03 is a Monday; the payday lands in the following week.
	for _, tx := range []map[string]any{
		{"date": "2026-08-03", "amount": "-40.00", "description": "veggies", "category_id": groceriesID},
		{"date": "2026-08-04", "amount": "-10.00", "description": "mystery charge"},
		{"date": "2026-08-10", "amount": "500.00", "description": "payday"},
	} {
		rr := do(t, srv, token, http.MethodPost, "/api/transactions", tx, nil)
		require.Equal(t, http.StatusCreated, rr.Code)
	}

	var series periodSeriesPayload
	rr := do(t, srv, token, http.MethodGet,
		"/api/reports/spending-over-time?from=2026-08-03&to=2026-08-16&group_by=week", nil, &series)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, series.Labels, 2)
	assert.Equal(t, "Week of Aug 03", series.Labels[0])
	assert.Equal(t, int64(5000), series.Datasets.ExpenseCents[0])
	assert.Equal(t, int64(-5000), series.Datasets.NetCents[0])
	assert.Equal(t, int64(50000), series.Datasets.IncomeCents[1])

	// Day grouping gap-fills days without transactions.
	rr = do(t, srv, token, http.MethodGet,
		"/api/reports/spending-over-time?from=2026-08-03&to=2026-08-05&group_by=day", nil, &series)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, series.Labels, 3)
	assert.Equal(t, int64(4000), series.Datasets.ExpenseCents[0])
	assert.Equal(t, int64(1000), series.Datasets.ExpenseCents[1])
	assert.Zero(t, series.Datasets.ExpenseCents[2])

	// Category filter narrows the series.
	rr = do(t, srv, token, http.MethodGet,
		fmt.Sprintf("/api/reports/spending-over-time?from=2026-08-03&to=2026-08-05&group_by=day&category_id=%d", groceriesID),
		nil, &series)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, int64(4000), series.Datasets.ExpenseCents[0])
	assert.Zero(t, series.Datasets.ExpenseCents[1])

	rr = do(t, srv, token, http.MethodGet, "/api/reports/spending-over-time?group_by=hour", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	var trend categoryTrendPayload
	rr = do(t, srv, token, http.MethodGet,
		"/api/reports/category-trend?from=2026-08-03&to=2026-08-16&group_by=week", nil, &trend)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, trend.Labels, 2)
	require.Len(t, trend.Datasets, 2, "income stays out of the expense trend")
	assert.Equal(t, "Groceries", trend.Datasets[0].Label)
	assert.Equal(t, []int64{4000, 0}, trend.Datasets[0].DataCents)
	assert.Nil(t, trend.Datasets[1].CategoryID, "uncategorized bucket comes last")
	assert.Equal(t, []int64{1000, 0}, trend.Datasets[1].DataCents)

	var histogram histogramPayload
	rr = do(t, srv, token, http.MethodGet,
		"/api/reports/spending-histogram?from=2026-08-01&to=2026-08-31&bins=2", nil, &histogram)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []int{1, 1}, histogram.Data)
	assert.Equal(t, 2, histogram.Count)
	assert.Equal(t, int64(1000), histogram.MinCents)
	assert.Equal(t, int64(4000), histogram.MaxCents)
	assert.Equal(t, int64(2500), histogram.AverageCents)

	rr = do(t, srv, token, http.MethodGet,
		"/api/reports/spending-histogram?from=2026-08-01&to=2026-08-31&type=income", nil, &histogram)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []int{1}, histogram.Data, "identical amounts collapse into one bin")
	assert.Equal(t, 1, histogram.Count)

	rr = do(t, srv, token, http.MethodGet,
		"/api/reports/spending-histogram?from=2026-01-01&to=2026-01-31", nil, &histogram)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Zero(t, histogram.Count, "empty range yields an empty distribution")
	assert.Empty(t, histogram.Data)

	rr = do(t, srv, token, http.MethodGet, "/api/reports/spending-histogram?bins=0", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	var summary rangeSummaryPayload
	rr = do(t, srv, token, http.MethodGet,
		"/api/reports/summary?from=2026-08-01&to=2026-08-31", nil, &summary)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 3, summary.TransactionCount)
	assert.Equal(t, int64(50000), summary.IncomeCents)
	assert.Equal(t, int64(5000), summary.ExpenseCents)
	assert.Equal(t, int64(45000), summary.NetCents)
	assert.Equal(t, int64(15000), summary.AverageCents)
	require.Len(t, summary.Categories, 2)
	assert.Equal(t, "Uncategorized", summary.Categories[0].Name, "most active category first")
	assert.Equal(t, 2, summary.Categories[0].Count)
	assert.Equal(t, "Groceries", summary.Categories[1].Name)
	assert.Equal(t, int64(-4000), summary.Categories[1].TotalCents)
}

func TestMLEndpoints(t *testing.T) {
	srv, token := newTestServer(t)

	var status struct {
		Trained bool `json:"trained"`
	}
	rr := do(t, srv, token, http.MethodGet, "/api/ml/status", nil, &status)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.False(t, status.Trained)

	var prediction struct {
		CategoryID *int64 `json:"category_id"`
	}
	rr = do(t, srv, token, http.MethodPost, "/api/ml/predict", map[string]any{
		"description": "some merchant",
	}, &prediction)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Nil(t, prediction.CategoryID)
}
