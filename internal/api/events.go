package api

// Notification is an out-of-band event emitted when a request fails,
// so a presentation layer can react (plan-limit banners, toasts)
// without every caller wiring its own error handling.
type Notification struct {
	StatusCode int
	Message    string
	Detail     string
	RequestID  string
}

// Notifier receives failure notifications from the pipeline. Notify is
// called synchronously on the request path and must not block.
type Notifier interface {
	Notify(n Notification)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

// Notify implements Notifier.
func (NopNotifier) Notify(Notification) {}

// ChanNotifier delivers notifications on a buffered channel, dropping
// events when no consumer keeps up. Suitable for UI event loops.
type ChanNotifier struct {
	ch chan Notification
}

// NewChanNotifier creates a ChanNotifier with the given buffer size.
func NewChanNotifier(size int) *ChanNotifier {
	if size <= 0 {
		size = 16
	}
	return &ChanNotifier{ch: make(chan Notification, size)}
}

// Notify implements Notifier.
func (c *ChanNotifier) Notify(n Notification) {
	select {
	case c.ch <- n:
	default:
	}
}

// Events returns the receive side of the notification channel.
func (c *ChanNotifier) Events() <-chan Notification {
	return c.ch
}
