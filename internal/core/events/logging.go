package events

import (
	"context"
	"log/slog"
)

// SubscribeLogger writes one structured log line for every checkout event.
func SubscribeLogger(bus *EventBus, logger *slog.Logger) {
	for _, eventType := range CheckoutEventTypes {
		bus.Subscribe(eventType, func(ctx context.Context, event Event) error {
			logger.Info("checkout event",
				"event_type", event.EventType(),
				"event_id", event.EventID(),
				"occurred_at", event.OccurredAt(),
				"payload", event.Payload())
			return nil
		})
	}
}
