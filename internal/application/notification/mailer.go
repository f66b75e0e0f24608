package notification

import "context"

// Mailer delivers transactional mail. Implementations must be safe for
// concurrent use; delivery failures are logged by the callers and never
// affect the transaction that raised the triggering event.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}
