package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/hosted-checkout/internal/core/events"
	"github.com/frahmantamala/hosted-checkout/pkg/logger"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Publish checkout events to the in-process bus to check the registered handlers`,
}

var publishEventCmd = &cobra.Command{
	Use:       "publish [event-type]",
	Short:     "Publish a test event",
	Long:      `Publish a sample checkout event and print what the logging subscriber receives`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: events.CheckoutEventTypes,
	RunE: func(cmd *cobra.Command, args []string) error {
		return publishTestEvent(args[0])
	},
}

var (
	eventCartID    int64
	eventReference string
)

func publishTestEvent(eventType string) error {
	log := logger.LoggerWrapper()

	bus := events.NewEventBus(log)
	events.SubscribeLogger(bus, log)

	event, err := sampleEvent(eventType)
	if err != nil {
		return err
	}

	log.Info("publishing test event", "event_type", eventType, "event_id", event.EventID())

	if err := bus.PublishSync(context.Background(), event); err != nil {
		return fmt.Errorf("publish %s: %w", eventType, err)
	}
	log.Info("test event published", "at", time.Now())
	return nil
}

func sampleEvent(eventType string) (events.Event, error) {
	switch eventType {
	case events.EventTypeCheckoutCancelled:
		return events.NewCheckoutCancelledEvent(eventCartID), nil
	case events.EventTypeCheckoutSessionCreated:
		return events.NewCheckoutSessionCreatedEvent(eventCartID, eventReference, "SESSION-CLI"), nil
	case events.EventTypeOrderFinalized:
		return events.NewOrderFinalizedEvent(1, eventCartID, eventReference, "PAYMENT_ACCEPTED", "0.00"), nil
	case events.EventTypeOrderPaymentError:
		return events.NewOrderPaymentErrorEvent(1, eventReference, "payment", "cli test"), nil
	default:
		return nil, fmt.Errorf("unknown event type %q", eventType)
	}
}

func init() {
	publishEventCmd.Flags().Int64Var(&eventCartID, "cart-id", 1, "Cart id carried by the event")
	publishEventCmd.Flags().StringVar(&eventReference, "reference", "CLI-1", "Order reference carried by the event")

	eventCmd.AddCommand(publishEventCmd)
	rootCmd.AddCommand(eventCmd)
}
