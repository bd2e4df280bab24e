// Package notifier tells the back office that a posting batch finished.
package notifier

import (
	"context"
	"time"

	"github.com/sangkips/collection-desk/internal/config"
	"github.com/sangkips/collection-desk/internal/domain/entity"
	"github.com/sangkips/collection-desk/pkg/email"
)

// Notifier is implemented by every delivery channel
type Notifier interface {
	NotifyPosting(ctx context.Context, notice entity.PostingNotice) error
}

// EmailNotifier mails a posting report to the configured recipients
type EmailNotifier struct {
	service    *email.EmailService
	recipients []string
}

// NewEmailNotifier creates an SMTP-backed notifier
func NewEmailNotifier(cfg config.EmailConfig) *EmailNotifier {
	return &EmailNotifier{
		service: email.NewEmailService(email.EmailConfig{
			SMTPHost:     cfg.SMTPHost,
			SMTPPort:     cfg.SMTPPort,
			SMTPUsername: cfg.SMTPUsername,
			SMTPPassword: cfg.SMTPPassword,
			FromName:     cfg.FromName,
			FromEmail:    cfg.FromEmail,
		}),
		recipients: cfg.Recipients,
	}
}

func (n *EmailNotifier) NotifyPosting(ctx context.Context, notice entity.PostingNotice) error {
	return n.service.SendPostingReport(n.recipients, Summary(notice))
}

// Summary converts a notice into the email report content
func Summary(notice entity.PostingNotice) email.PostingSummary {
	failed := make([]email.FailedLine, len(notice.FailedReceipts))
	for i, f := range notice.FailedReceipts {
		failed[i] = email.FailedLine{ReceiptNumber: f.ReceiptNumber, PartyName: f.PartyName, Error: f.Error}
	}
	return email.PostingSummary{
		BookLabel:    notice.BookLabel,
		Cycle:        notice.Cycle,
		StaffName:    notice.StaffName,
		Date:         notice.Date.Format(time.DateOnly),
		SuccessCount: notice.SuccessCount,
		TotalCount:   notice.TotalCount,
		PostedTotal:  notice.PostedTotal.StringFixed(2),
		NotSubmitted: notice.NotSubmitted,
		Failed:       failed,
	}
}

// NullNotifier drops notifications when no SMTP host is configured
type NullNotifier struct{}

func (NullNotifier) NotifyPosting(context.Context, entity.PostingNotice) error {
	return nil
}

// New picks the email notifier when SMTP is configured
func New(cfg config.EmailConfig) Notifier {
	if cfg.SMTPHost == "" || len(cfg.Recipients) == 0 {
		return NullNotifier{}
	}
	return NewEmailNotifier(cfg)
}
