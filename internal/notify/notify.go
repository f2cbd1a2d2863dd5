package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"cryptoscout/internal/asset"
	"cryptoscout/internal/report"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("cryptoscout/internal/notify")

type SmtpConfig struct {
	Server       string   `json:"server"`
	Port         int      `json:"port"`
	EmailAddress string   `json:"email_address"`
	Password     string   `json:"password"`
	To           []string `json:"to"`
}

// Enabled reports whether enough is configured to send mail.
func (c SmtpConfig) Enabled() bool {
	return c.Server != "" && c.EmailAddress != "" && len(c.To) > 0
}

type Notifier struct {
	config SmtpConfig
}

func NewNotifier(config SmtpConfig) Notifier {
	return Notifier{config: config}
}

func Subject(threshold float64, count int) string {
	return fmt.Sprintf("%d assets below a market cap / FDV ratio of %s", count, asset.FormatThreshold(threshold))
}

// NotifyFiltered mails the result of a ratio filter to every recipient.
func (n Notifier) NotifyFiltered(ctx context.Context, threshold float64, records []asset.Record) error {
	_, span := tracer.Start(ctx, "NotifyFiltered")
	defer span.End()
	span.SetAttributes(
		attribute.Int("records", len(records)),
		attribute.StringSlice("to", n.config.To),
	)

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("cryptoscout <%s>", n.config.EmailAddress)
	mail.To = n.config.To
	mail.Subject = Subject(threshold, len(records))

	table := report.RecordsTable(records)
	mail.Text = []byte(table.Render())
	mail.HTML = []byte(table.RenderHTML())

	addr := fmt.Sprintf("%s:%d", n.config.Server, n.config.Port)
	err := mail.Send(
		addr,
		smtp.PlainAuth("", n.config.EmailAddress, n.config.Password, n.config.Server),
	)
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}
