package payments

import (
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

const EventPaymentIntentSucceeded = "payment_intent.succeeded"

// ParseEvent verifies the Stripe-Signature header (5 minute tolerance) and decodes the event.
func ParseEvent(payload []byte, sigHeader, secret string) (stripe.Event, error) {
	if sigHeader == "" || secret == "" {
		return stripe.Event{}, fmt.Errorf("missing signature or secret")
	}
	return webhook.ConstructEventWithOptions(payload, sigHeader, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
}

// IntentFromEvent decodes the payment intent carried by a payment_intent.* event.
func IntentFromEvent(ev stripe.Event) (*stripe.PaymentIntent, error) {
	if ev.Data == nil {
		return nil, fmt.Errorf("event %s has no data", ev.ID)
	}
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(ev.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("decode payment intent: %w", err)
	}
	return &pi, nil
}
