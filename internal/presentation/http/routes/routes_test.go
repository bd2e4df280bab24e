package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/collection-desk/internal/application/service"
	"github.com/sangkips/collection-desk/internal/config"
	"github.com/sangkips/collection-desk/internal/domain/entity"
	"github.com/sangkips/collection-desk/internal/infrastructure/database"
	"github.com/sangkips/collection-desk/internal/infrastructure/lock"
	"github.com/sangkips/collection-desk/internal/infrastructure/metrics"
	"github.com/sangkips/collection-desk/internal/infrastructure/notifier"
	"github.com/sangkips/collection-desk/internal/infrastructure/repository"
	"github.com/sangkips/collection-desk/internal/presentation/http/handler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingLedger struct {
	calls int32
}

func (l *countingLedger) CreateReceiptRecord(_ context.Context, record entity.ReceiptRecord) (string, error) {
	n := atomic.AddInt32(&l.calls, 1)
	return fmt.Sprintf("RV-%d", n), nil
}

type apiBody struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Reason  string          `json:"reason"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	router *gin.Engine
	ledger *countingLedger
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := zap.NewNop()
	db, err := database.NewSQLiteDB(":memory:", log)
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db, log))

	bookRepo := repository.NewBookRepository(db)
	summaryRepo := repository.NewSummaryRepository(db)
	entryRepo := repository.NewPostedEntryRepository(db)
	locker := lock.NewLocalLocker()
	collector := metrics.New()
	ledger := &countingLedger{}
	validator := service.NewEntryValidator()

	cycle := service.NewCycleService(bookRepo, summaryRepo, entryRepo, locker, collector, log)
	posting := service.NewPostingService(service.PostingDeps{
		BookRepo:  bookRepo,
		EntryRepo: entryRepo,
		Completer: cycle,
		Ledger:    ledger,
		Notifier:  notifier.NullNotifier{},
		Locker:    locker,
		Validator: validator,
		Metrics:   collector,
		Logger:    log,
	})

	cfg := &config.Config{
		App:       config.AppConfig{Name: "collection-desk-test"},
		RateLimit: config.RateLimitConfig{Requests: 1000, Duration: 1},
	}
	router := Setup(&Handlers{
		Book:    handler.NewBookHandler(service.NewBookAllocator(bookRepo, collector, log), cycle),
		Summary: handler.NewSummaryHandler(service.NewSummaryService(bookRepo, summaryRepo, validator, locker, log)),
		Posting: handler.NewPostingHandler(posting, time.Minute),
		Party:   handler.NewPartyHandler(service.NewPartyService(repository.NewPartyRepository(db))),
	}, &Deps{
		Cfg:             cfg,
		Logger:          log,
		IdempotencyRepo: repository.NewIdempotencyRepository(db),
		Metrics:         collector.Handler(),
	})

	return &testServer{router: router, ledger: ledger}
}

func (s *testServer) do(t *testing.T, method, path string, body any, headers ...string) (*httptest.ResponseRecorder, apiBody) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var parsed apiBody
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") != "" {
		_ = json.Unmarshal(w.Body.Bytes(), &parsed)
	}
	return w, parsed
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w, _ = s.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestBookLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)

	w, body := s.do(t, http.MethodPost, "/api/v1/books/bulk", map[string]any{
		"range_start": 1, "range_end": 10, "pages_per_book": 5, "batch_label": "K", "activate": true,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var allocated struct {
		Books []entity.ReceiptBook `json:"books"`
		Count int                  `json:"count"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &allocated))
	require.Equal(t, 2, allocated.Count)
	assert.Equal(t, "KA", allocated.Books[0].BookLabel)
	id := allocated.Books[0].ID.String()

	w, _ = s.do(t, http.MethodPost, "/api/v1/books/assign", map[string]any{
		"book_ids": []string{id}, "staff_name": "Ram", "route_name": "Lakeside",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, body = s.do(t, http.MethodDelete, "/api/v1/books/"+id, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "BOOK_IN_USE", body.Reason)

	w, _ = s.do(t, http.MethodPut, "/api/v1/books/"+id+"/summary", map[string]any{
		"entry_count": 2, "cash": "300", "fonepay": 0,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	entries := []map[string]any{
		{"receipt_number": 1, "party_name": "Shree Traders", "cash": 100},
		{"receipt_number": 2, "party_name": "Himal Stores", "cash": "200.00"},
	}

	w, body = s.do(t, http.MethodPost, "/api/v1/books/"+id+"/summary/compare", map[string]any{"entries": entries})
	require.Equal(t, http.StatusOK, w.Code)
	var reconciliation service.ReconciliationResult
	require.NoError(t, json.Unmarshal(body.Data, &reconciliation))
	assert.True(t, reconciliation.EntriesMatch)
	assert.True(t, reconciliation.TotalsMatch)

	submit := map[string]any{"date": "2026-04-02", "staff_name": "Ram", "entries": entries}

	w, _ = s.do(t, http.MethodPost, "/api/v1/books/"+id+"/submit", submit)
	assert.Equal(t, http.StatusBadRequest, w.Code, "idempotency key is required")

	w, body = s.do(t, http.MethodPost, "/api/v1/books/"+id+"/submit", submit, "Idempotency-Key", "batch-1")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var session service.PostingSession
	require.NoError(t, json.Unmarshal(body.Data, &session))
	assert.Equal(t, 2, session.SuccessCount)
	assert.Equal(t, 2, session.TotalCount)
	first := w.Body.String()

	w, _ = s.do(t, http.MethodPost, "/api/v1/books/"+id+"/submit", submit, "Idempotency-Key", "batch-1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "true", w.Header().Get("X-Idempotency-Replayed"))
	assert.Equal(t, first, w.Body.String())
	assert.EqualValues(t, 2, atomic.LoadInt32(&s.ledger.calls))

	w, body = s.do(t, http.MethodPost, "/api/v1/books/"+id+"/submit", submit, "Idempotency-Key", "batch-2")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "DUPLICATE_RECEIPT_NUMBER", body.Reason)

	w, body = s.do(t, http.MethodGet, "/api/v1/books/"+id+"/entries?limit=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history struct {
		Items      []entity.PostedEntry `json:"items"`
		Pagination struct {
			HasNext bool `json:"has_next"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &history))
	assert.Len(t, history.Items, 1)
	assert.True(t, history.Pagination.HasNext)

	w, body = s.do(t, http.MethodPost, "/api/v1/books/"+id+"/reready", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var book entity.ReceiptBook
	require.NoError(t, json.Unmarshal(body.Data, &book))
	assert.Equal(t, 1, book.CurrentCycle)
	assert.Equal(t, 3, book.AvailableFrom)

	w, body = s.do(t, http.MethodGet, "/api/v1/books/inventory", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var inv service.Inventory
	require.NoError(t, json.Unmarshal(body.Data, &inv))
	assert.Equal(t, 2, inv.Ready.Count)
}

func TestBookErrorsOverHTTP(t *testing.T) {
	s := newTestServer(t)

	w, body := s.do(t, http.MethodPost, "/api/v1/books/bulk", map[string]any{
		"range_start": 10, "range_end": 1, "pages_per_book": 5,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_RANGE", body.Reason)

	w, _ = s.do(t, http.MethodPost, "/api/v1/books/bulk", map[string]any{
		"range_start": -math.MaxInt, "range_end": math.MaxInt, "pages_per_book": 1,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = s.do(t, http.MethodPost, "/api/v1/books/bulk", map[string]any{
		"range_start": 1, "range_end": 10, "pages_per_book": math.MaxInt,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var single struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &single))
	assert.Equal(t, 1, single.Count)

	w, _ = s.do(t, http.MethodGet, "/api/v1/books/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = s.do(t, http.MethodGet, "/api/v1/books/00000000-0000-0000-0000-000000000001", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", body.Reason)

	w, _ = s.do(t, http.MethodGet, "/api/v1/books?status=Lost", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPartiesOverHTTP(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, http.MethodPost, "/api/v1/parties", map[string]any{"name": "Shree Traders", "route_name": "Lakeside"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, _ = s.do(t, http.MethodPost, "/api/v1/parties", map[string]any{"name": "Shree Traders"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, body := s.do(t, http.MethodGet, "/api/v1/parties?search=shree", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Items []entity.Party `json:"items"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Shree Traders", page.Items[0].Name)
}
