package notify

import "log/slog"

// Kind classifies a user-facing notification
type Kind string

const (
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
	KindWarning Kind = "warning"
	KindError   Kind = "error"
)

// Notifier is the fire-and-forget user notification channel (the toast /
// snackbar surface on the client). Callers never block on or read a
// response from it; implementations must not fail loudly.
type Notifier interface {
	Notify(kind Kind, title, message string)
}

// LogNotifier emits notifications through the structured log. It stands in
// for the client toast channel in server deployments and in tests.
type LogNotifier struct {
	Logger *slog.Logger
}

// NewLogNotifier creates a Notifier backed by the given logger.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{Logger: logger}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(kind Kind, title, message string) {
	n.Logger.Info("user notification", "kind", string(kind), "title", title, "message", message)
}

// Nop is a Notifier that discards everything.
type Nop struct{}

// Notify implements Notifier.
func (Nop) Notify(Kind, string, string) {}
