package email

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"
)

// EmailConfig holds SMTP configuration
type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromName     string
	FromEmail    string
}

// PostingSummary is the content of a posting report email
type PostingSummary struct {
	BookLabel    string
	Cycle        int
	StaffName    string
	Date         string
	SuccessCount int
	TotalCount   int
	PostedTotal  string
	NotSubmitted []int
	Failed       []FailedLine
}

// FailedLine is one receipt the ledger did not accept
type FailedLine struct {
	ReceiptNumber int
	PartyName     string
	Error         string
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailService handles email sending
type EmailService struct {
	config EmailConfig
	send   sendFunc
}

// NewEmailService creates a new email service
func NewEmailService(config EmailConfig) *EmailService {
	return &EmailService{config: config, send: smtp.SendMail}
}

// SendPostingReport mails the outcome of a posting batch to recipients
func (s *EmailService) SendPostingReport(recipients []string, summary PostingSummary) error {
	if len(recipients) == 0 {
		return nil
	}

	htmlContent, err := renderPostingReport(summary)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	subject := fmt.Sprintf("Receipt book %s posted: %d of %d accepted",
		summary.BookLabel, summary.SuccessCount, summary.TotalCount)
	message := s.buildHTMLEmail(recipients, subject, htmlContent)

	return s.sendEmail(recipients, message)
}

// sendEmail sends an email using SMTP
func (s *EmailService) sendEmail(to []string, message []byte) error {
	addr := fmt.Sprintf("%s:%d", s.config.SMTPHost, s.config.SMTPPort)

	var auth smtp.Auth
	if s.config.SMTPUsername != "" {
		auth = smtp.PlainAuth("", s.config.SMTPUsername, s.config.SMTPPassword, s.config.SMTPHost)
	}

	if err := s.send(addr, auth, s.config.FromEmail, to, message); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// buildHTMLEmail builds an HTML email message
func (s *EmailService) buildHTMLEmail(to []string, subject, htmlBody string) []byte {
	headers := fmt.Sprintf(
		"From: %s <%s>\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=\"UTF-8\"\r\n"+
			"\r\n",
		s.config.FromName,
		s.config.FromEmail,
		strings.Join(to, ", "),
		subject,
	)

	return []byte(headers + htmlBody)
}

func renderPostingReport(summary PostingSummary) (string, error) {
	tmpl, err := template.New("posting_report").Parse(postingReportTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, summary); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const postingReportTemplate = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Receipt book {{.BookLabel}} posted</title>
</head>
<body style="margin: 0; padding: 24px; font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; background-color: #f4f7fa;">
    <table role="presentation" style="max-width: 600px; margin: 0 auto; background-color: #ffffff; border-radius: 12px; padding: 30px;">
        <tr>
            <td>
                <h2 style="color: #1a1a2e; margin: 0 0 20px 0;">Receipt book {{.BookLabel}} (cycle {{.Cycle}})</h2>
                <p style="color: #4a5568; font-size: 16px;">
                    Collected by <strong>{{.StaffName}}</strong> on {{.Date}}.
                </p>
                <p style="color: #4a5568; font-size: 16px;">
                    <strong>{{.SuccessCount}}</strong> of <strong>{{.TotalCount}}</strong> receipts were accepted by the ledger, totalling <strong>{{.PostedTotal}}</strong>.
                </p>
                {{if .Failed}}
                <h3 style="color: #c53030;">Receipts to retry</h3>
                <table style="width: 100%; border-collapse: collapse; font-size: 14px;">
                    <tr><th align="left">No.</th><th align="left">Party</th><th align="left">Error</th></tr>
                    {{range .Failed}}
                    <tr><td>{{.ReceiptNumber}}</td><td>{{.PartyName}}</td><td>{{.Error}}</td></tr>
                    {{end}}
                </table>
                {{end}}
                {{if .NotSubmitted}}
                <p style="color: #718096; font-size: 14px;">Not submitted before the request ended: {{range $i, $n := .NotSubmitted}}{{if $i}}, {{end}}{{$n}}{{end}}</p>
                {{end}}
            </td>
        </tr>
    </table>
</body>
</html>
`
