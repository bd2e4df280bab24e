package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/collection-desk/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type memoryIdempotencyRepo struct {
	mu   sync.Mutex
	keys map[string]*entity.IdempotencyKey
}

func (r *memoryIdempotencyRepo) GetByKey(_ context.Context, key, endpoint string) (*entity.IdempotencyKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.keys[endpoint+"|"+key], nil
}

func (r *memoryIdempotencyRepo) Reserve(_ context.Context, ikey *entity.IdempotencyKey) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := ikey.Endpoint + "|" + ikey.Key
	if existing, ok := r.keys[id]; ok && !existing.IsExpired() {
		return false, nil
	}
	r.keys[id] = ikey
	return true, nil
}

func (r *memoryIdempotencyRepo) Complete(_ context.Context, key, endpoint string, code int, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if k, ok := r.keys[endpoint+"|"+key]; ok {
		k.ResponseCode = code
		k.ResponseBody = body
	}
	return nil
}

func (r *memoryIdempotencyRepo) Release(_ context.Context, key, endpoint string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if k, ok := r.keys[endpoint+"|"+key]; ok && k.IsPending() {
		delete(r.keys, endpoint+"|"+key)
	}
	return nil
}

func (r *memoryIdempotencyRepo) DeleteExpired(context.Context) error { return nil }

func init() {
	gin.SetMode(gin.TestMode)
}

func TestIdempotencyRequired(t *testing.T) {
	repo := &memoryIdempotencyRepo{keys: map[string]*entity.IdempotencyKey{}}
	calls := 0
	status := http.StatusOK

	router := gin.New()
	router.POST("/books/:id/submit", IdempotencyRequired(IdempotencyConfig{Repo: repo}), func(c *gin.Context) {
		calls++
		c.JSON(status, gin.H{"calls": calls})
	})

	send := func(path, key string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		if key != "" {
			req.Header.Set(IdempotencyKeyHeader, key)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusBadRequest, send("/books/a/submit", "").Code)
	assert.Zero(t, calls)

	first := send("/books/a/submit", "k1")
	replay := send("/books/a/submit", "k1")
	assert.Equal(t, 1, calls)
	assert.Equal(t, first.Body.String(), replay.Body.String())
	assert.Equal(t, "true", replay.Header().Get("X-Idempotency-Replayed"))

	send("/books/b/submit", "k1")
	assert.Equal(t, 2, calls, "keys are scoped to the endpoint")

	status = http.StatusConflict
	send("/books/c/submit", "k2")
	send("/books/c/submit", "k2")
	assert.Equal(t, 4, calls, "failed responses are not replayed")
}

func TestIdempotencyRequired_ExpiredKey(t *testing.T) {
	repo := &memoryIdempotencyRepo{keys: map[string]*entity.IdempotencyKey{
		"POST /submit|old": {Key: "old", Endpoint: "POST /submit", ResponseCode: 200, ResponseBody: "{}", ExpiresAt: time.Now().Add(-time.Minute)},
	}}
	calls := 0
	router := gin.New()
	router.POST("/submit", IdempotencyRequired(IdempotencyConfig{Repo: repo}), func(c *gin.Context) {
		calls++
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/submit", nil)
	req.Header.Set(IdempotencyKeyHeader, "old")
	router.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, 1, calls)
}

func TestIdempotencyRequired_ConcurrentSameKey(t *testing.T) {
	repo := &memoryIdempotencyRepo{keys: map[string]*entity.IdempotencyKey{}}
	entered := make(chan struct{})
	proceed := make(chan struct{})
	var calls int32

	router := gin.New()
	router.POST("/submit", IdempotencyRequired(IdempotencyConfig{Repo: repo}), func(c *gin.Context) {
		atomic.AddInt32(&calls, 1)
		close(entered)
		<-proceed
		c.JSON(http.StatusOK, gin.H{"posted": true})
	})

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/submit", nil)
		req.Header.Set(IdempotencyKeyHeader, "batch")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	firstDone := make(chan *httptest.ResponseRecorder)
	go func() { firstDone <- send() }()
	<-entered

	second := send()
	assert.Equal(t, http.StatusConflict, second.Code, "a key in flight is not run twice")

	close(proceed)
	first := <-firstDone
	require.Equal(t, http.StatusOK, first.Code)

	replay := send()
	assert.Equal(t, first.Body.String(), replay.Body.String())
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestIdempotencyRequired_PanicReleasesKey(t *testing.T) {
	repo := &memoryIdempotencyRepo{keys: map[string]*entity.IdempotencyKey{}}
	router := gin.New()
	router.Use(gin.Recovery())
	router.POST("/submit", IdempotencyRequired(IdempotencyConfig{Repo: repo}), func(c *gin.Context) {
		panic("boom")
	})

	req := httptest.NewRequest(http.MethodPost, "/submit", nil)
	req.Header.Set(IdempotencyKeyHeader, "k")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	got, err := repo.GetByKey(context.Background(), "k", "POST /submit")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestClientRateLimiter(t *testing.T) {
	rl := NewClientRateLimiter(RateLimiterConfig{RequestsPerSecond: 0.001, BurstSize: 2})
	router := gin.New()
	router.Use(rl.Middleware())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 3)
	for i := range codes {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		codes[i] = w.Code
	}
	assert.Equal(t, []int{200, 200, 429}, codes)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, "limits are per client")

	rl.cleanup(time.Now().Add(time.Hour))
	assert.Empty(t, rl.limiters)
}

func TestLoggerMiddleware(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	router := gin.New()
	router.Use(LoggerMiddleware(zap.New(core)))
	router.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	req := httptest.NewRequest(http.MethodGet, "/missing?x=1", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zap.WarnLevel, entry.Level)
	assert.Equal(t, "req-42", entry.ContextMap()["request_id"])
	assert.Equal(t, "/missing?x=1", entry.ContextMap()["path"])
}
