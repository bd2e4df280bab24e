package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/collection-desk/internal/domain/entity"
	"github.com/sangkips/collection-desk/internal/infrastructure/lock"
)

// Locker serialises read-modify-write sequences on one key
type Locker interface {
	WithLock(ctx context.Context, key string, fn func() error) error
}

// LedgerGateway creates receipt records in the external ledger
type LedgerGateway interface {
	CreateReceiptRecord(ctx context.Context, record entity.ReceiptRecord) (string, error)
}

// Notifier is told once about every finished posting batch
type Notifier interface {
	NotifyPosting(ctx context.Context, notice entity.PostingNotice) error
}

// Metrics records posting outcomes and book transitions
type Metrics interface {
	ObserveEntry(success bool, elapsed time.Duration)
	ObserveBatch(notSubmitted int)
	ObserveTransition(status string)
}

type nopMetrics struct{}

func (nopMetrics) ObserveEntry(bool, time.Duration) {}
func (nopMetrics) ObserveBatch(int)                 {}
func (nopMetrics) ObserveTransition(string)         {}

func metricsOrNop(m Metrics) Metrics {
	if m == nil {
		return nopMetrics{}
	}
	return m
}

func bookKey(id uuid.UUID) string {
	return lock.BookKey(id)
}
