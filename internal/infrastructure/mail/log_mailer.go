package mail

import (
	"context"

	"go.uber.org/zap"

	"github.com/storefront/backend/internal/application/notification"
)

// LogMailer writes outbound mail to the application log instead of
// delivering it. It stands in for a real provider in development and in
// environments where no SMTP relay is configured.
type LogMailer struct {
	from   string
	logger *zap.Logger
}

// NewLogMailer creates a LogMailer sending from the given address
func NewLogMailer(from string, logger *zap.Logger) *LogMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogMailer{from: from, logger: logger}
}

// Send logs the message and reports success
func (m *LogMailer) Send(_ context.Context, to, subject, body string) error {
	m.logger.Info("Outbound mail",
		zap.String("from", m.from),
		zap.String("to", to),
		zap.String("subject", subject),
		zap.Int("body_bytes", len(body)),
	)
	return nil
}

var _ notification.Mailer = (*LogMailer)(nil)
