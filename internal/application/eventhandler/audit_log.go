package eventhandler

import (
	"log/slog"

	"github.com/intern-hub/progress-ledger/internal/domain/shared"
)

// AuditLogHandler writes every domain event to the log, giving operators a
// trail of who checked in, completed what and earned which badge.
type AuditLogHandler struct {
	logger *slog.Logger
}

// NewAuditLogHandler creates a new AuditLogHandler.
func NewAuditLogHandler(logger *slog.Logger) *AuditLogHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogHandler{logger: logger.With("handler", "audit_log")}
}

// Register subscribes to all events.
func (h *AuditLogHandler) Register(sub shared.EventSubscriber) error {
	return sub.SubscribeAll(h.Handle)
}

// Handle implements shared.EventHandler.
func (h *AuditLogHandler) Handle(event shared.Event) error {
	args := []any{
		"event_type", string(event.EventType()),
		"aggregate_id", event.AggregateID(),
		"occurred_at", event.OccurredAt(),
	}
	for k, v := range event.Payload() {
		args = append(args, slog.Any(k, v))
	}
	h.logger.Info("domain event", args...)
	return nil
}
