// Package ledger talks to the external accounting ledger over HTTP.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sangkips/collection-desk/internal/config"
	"github.com/sangkips/collection-desk/internal/domain/entity"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RejectedError is returned when the ledger answers with a non-2xx status
type RejectedError struct {
	StatusCode int
	Message    string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("ledger rejected receipt (%d): %s", e.StatusCode, e.Message)
}

// Client creates receipt records in the ledger
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	logger     *zap.Logger
}

type receiptRequest struct {
	PartyName   string          `json:"party_name"`
	Date        string          `json:"date"`
	Reference   string          `json:"reference,omitempty"`
	Cash        decimal.Decimal `json:"cash"`
	Fonepay     decimal.Decimal `json:"fonepay"`
	Cheque      decimal.Decimal `json:"cheque"`
	BankDeposit decimal.Decimal `json:"bank_deposit"`
	Discount    decimal.Decimal `json:"discount"`
	Total       decimal.Decimal `json:"total"`
}

type receiptResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// NewClient creates a ledger client from configuration
func NewClient(cfg config.LedgerConfig, logger *zap.Logger) *Client {
	logger = logger.Named("ledger")

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "ledger",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// A rejected receipt means the ledger is up
		IsSuccessful: func(err error) bool {
			var rejected *RejectedError
			return err == nil || errors.As(err, &rejected)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("ledger circuit breaker state changed",
				zap.String("from", from.String()), zap.String("to", to.String()))
		},
	})

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, burst),
		breaker:    breaker,
		logger:     logger,
	}
}

// CreateReceiptRecord posts one receipt and returns the ledger's record id
func (c *Client) CreateReceiptRecord(ctx context.Context, record entity.ReceiptRecord) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("ledger rate limit wait: %w", err)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.post(ctx, record)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("ledger unavailable: %w", err)
		}
		return "", err
	}
	return result.(string), nil
}

func (c *Client) post(ctx context.Context, record entity.ReceiptRecord) (string, error) {
	body, err := json.Marshal(receiptRequest{
		PartyName:   record.PartyName,
		Date:        record.Date.Format(time.DateOnly),
		Reference:   record.Reference,
		Cash:        record.Cash,
		Fonepay:     record.Fonepay,
		Cheque:      record.Cheque,
		BankDeposit: record.BankDeposit,
		Discount:    record.Discount,
		Total:       record.Total(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode receipt: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/receipts", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build ledger request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ledger request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read ledger response: %w", err)
	}

	var decoded receiptResponse
	_ = json.Unmarshal(raw, &decoded)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := decoded.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		if resp.StatusCode >= 500 {
			return "", fmt.Errorf("ledger server error (%d): %s", resp.StatusCode, msg)
		}
		return "", &RejectedError{StatusCode: resp.StatusCode, Message: msg}
	}
	if decoded.ID == "" {
		return "", errors.New("ledger response missing record id")
	}

	c.logger.Debug("receipt recorded", zap.String("reference", record.Reference), zap.String("record_id", decoded.ID))
	return decoded.ID, nil
}
