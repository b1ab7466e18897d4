package checkout

import (
	"errors"

	checkoutsvc "wardrobe-backend/internal/application/checkout"
	"wardrobe-backend/internal/application/emails"
	"wardrobe-backend/internal/domain"
	"wardrobe-backend/internal/middleware"
	"wardrobe-backend/internal/pkg/response"
	"wardrobe-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	Orchestrator *checkoutsvc.Orchestrator
	Mailer       emails.Sender
}

type intentRequest struct {
	Currency string `json:"currency" validate:"omitempty,len=3,alpha"`
}

type completeRequest struct {
	PaymentIntentID string                 `json:"payment_intent_id" validate:"required,startswith=pi_"`
	Shipping        domain.ShippingDetails `json:"shipping"`
}

var statusByErr = []struct {
	err  error
	code int
}{
	{checkoutsvc.ErrEmptyCart, fiber.StatusBadRequest},
	{checkoutsvc.ErrNotPurchasable, fiber.StatusBadRequest},
	{checkoutsvc.ErrIntentMismatch, fiber.StatusForbidden},
	{checkoutsvc.ErrPaymentPending, fiber.StatusConflict},
	{checkoutsvc.ErrPaymentNotSucceeded, fiber.StatusPaymentRequired},
	{checkoutsvc.ErrCartChanged, fiber.StatusConflict},
	{checkoutsvc.ErrIntentFailed, fiber.StatusBadGateway},
	{checkoutsvc.ErrConfirmFailed, fiber.StatusBadGateway},
	{checkoutsvc.ErrOrderNotRecorded, fiber.StatusInternalServerError},
}

func status(err error) int {
	for _, s := range statusByErr {
		if errors.Is(err, s.err) {
			return s.code
		}
	}
	return fiber.StatusInternalServerError
}

// message returns the sentinel text so processor internals stay out of responses.
func message(err error) string {
	for _, s := range statusByErr {
		if errors.Is(err, s.err) {
			return s.err.Error()
		}
	}
	return "Internal server error"
}

// POST /api/v1/checkout/intent
func (h *Handlers) CreateIntent(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUserID(c)
	var req intentRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return response.BadBody(c)
		}
	}
	if fields := validation.Struct(req); fields != nil {
		return response.Invalid(c, fields)
	}
	res, err := h.Orchestrator.CreateIntent(c.UserContext(), userID, req.Currency)
	if err != nil {
		return response.Error(c, message(err), status(err), nil)
	}
	return response.SuccessCreated(c, "Payment intent created", res, nil)
}

// POST /api/v1/checkout/complete
// Called after the client confirmed the payment. Safe to repeat for the same payment intent.
func (h *Handlers) Complete(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUserID(c)
	var req completeRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadBody(c)
	}
	if fields := validation.Struct(req); fields != nil {
		return response.Invalid(c, fields)
	}

	res, err := h.Orchestrator.Complete(c.UserContext(), userID, req.PaymentIntentID, req.Shipping)
	if err != nil {
		details := fiber.Map{}
		if res != nil {
			details["state"] = res.State
			details["paid"] = res.State.Paid()
		}
		if status(err) == fiber.StatusInternalServerError {
			log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Str("payment_intent_id", req.PaymentIntentID).
				Msg("checkout completion failed")
		}
		return response.Error(c, message(err), status(err), details)
	}

	if res.Created {
		h.confirm(c, res)
	}

	msg := "Order placed successfully"
	if res.Availability.HasFailures() {
		msg = "Order placed; some listings are still shown as available"
	}
	return response.Success(c, msg, res, nil)
}

// confirm mails the receipt for a newly recorded order. Repeats of the same completion send nothing.
func (h *Handlers) confirm(c *fiber.Ctx, res *checkoutsvc.Result) {
	if h.Mailer == nil || res.Order == nil {
		return
	}
	m, _ := middleware.GetUser(c).(map[string]interface{})
	email, _ := m["email"].(string)
	name, _ := m["full_name"].(string)
	if err := h.Mailer.SendOrderConfirmation(c.UserContext(), email, name, res.Order); err != nil {
		log.Warn().Err(err).Str("order_id", res.Order.ID.String()).Msg("order confirmation not sent")
	}
}
