package repo

import "context"

// Notifier hands a message off to the outbound mail pipeline. Delivery is
// fire-and-forget from the caller's point of view; implementations must
// respect the context deadline.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}
