package events

import "log/slog"

// NewAuditHandler logs every event it is given
func NewAuditHandler(logger *slog.Logger) Handler {
	return HandlerFunc(func(event Event) error {
		logger.Info("event",
			"event_type", event.Type,
			"event_id", event.ID.String(),
			"stream", event.Stream,
			"version", event.Version)
		return nil
	})
}
