package payments

import (
	"fmt"

	checkoutsvc "wardrobe-backend/internal/application/checkout"
	"wardrobe-backend/internal/infrastructure/payments"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

type WebhookHandler struct {
	Ledger        *checkoutsvc.Ledger
	WebhookSecret string
}

// HandleWebhook POST /api/v1/stripe/webhook. Needs the raw body for signature verification.
// Anything past verification answers 200 so Stripe does not redeliver on domain errors.
func (wh *WebhookHandler) HandleWebhook(c *fiber.Ctx) error {
	rawBody := c.BodyRaw()
	sig := c.Get("Stripe-Signature")

	if len(rawBody) == 0 {
		log.Warn().Msg("Stripe webhook received empty body")
		return c.Status(fiber.StatusBadRequest).SendString("Webhook Error: empty body")
	}

	event, err := payments.ParseEvent(rawBody, sig, wh.WebhookSecret)
	if err != nil {
		log.Warn().Err(err).Bool("has_sig", sig != "").Bool("has_secret", wh.WebhookSecret != "").
			Msg("Stripe webhook signature verification failed")
		return c.Status(fiber.StatusBadRequest).SendString(fmt.Sprintf("Webhook Error: %s", err.Error()))
	}

	if string(event.Type) != payments.EventPaymentIntentSucceeded || wh.Ledger == nil {
		return c.Status(fiber.StatusOK).SendString("ok")
	}

	pi, err := payments.IntentFromEvent(event)
	if err != nil {
		log.Warn().Err(err).Str("event_id", event.ID).Msg("Stripe webhook payment intent unreadable")
		return c.Status(fiber.StatusOK).SendString("ok")
	}

	created, err := wh.Ledger.RecordSucceeded(c.UserContext(), checkoutsvc.SucceededPayment{
		EventID:         event.ID,
		PaymentIntentID: pi.ID,
		AmountReceived:  pi.AmountReceived,
		Currency:        string(pi.Currency),
		Status:          string(pi.Status),
		UserID:          pi.Metadata["user_id"],
		Raw:             event.Data.Raw,
	})
	if err != nil {
		log.Error().Err(err).Str("payment_intent_id", pi.ID).Msg("succeeded payment not recorded")
		return c.Status(fiber.StatusOK).SendString("ok")
	}
	log.Info().Str("payment_intent_id", pi.ID).Bool("created", created).Msg("succeeded payment recorded")
	return c.Status(fiber.StatusOK).SendString("ok")
}
