package wa

import "context"

// Sender delivers outbound text to a phone number through the WhatsApp
// gateway. Implementations must be safe for concurrent use; the session
// watchers call this from their own goroutines.
type Sender interface {
	SendText(ctx context.Context, phone, text string) error
}
