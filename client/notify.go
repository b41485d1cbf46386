package client

// Notifier is the sink for out-of-focus message alerts. The terminal
// client rings the bell; a desktop embedding can plug in native
// notifications.
type Notifier interface {
	Notify(title, body string)
	Beep()
}

// NopNotifier discards all alerts.
type NopNotifier struct{}

func (NopNotifier) Notify(title, body string) {}
func (NopNotifier) Beep()                     {}
