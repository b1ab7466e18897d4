package trades

import (
	"errors"

	tradesvc "wardrobe-backend/internal/application/trades"
	"wardrobe-backend/internal/middleware"
	"wardrobe-backend/internal/pkg/response"
	"wardrobe-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	Service *tradesvc.Service
}

type proposeRequest struct {
	OfferedListingIDs  []uuid.UUID `json:"offered_listing_ids" validate:"required,min=1,max=3"`
	RequestedListingID uuid.UUID   `json:"requested_listing_id" validate:"required"`
	Message            string      `json:"message" validate:"max=500"`
}

func status(err error) int {
	switch {
	case errors.Is(err, tradesvc.ErrNotFound), errors.Is(err, tradesvc.ErrListingNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, tradesvc.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, tradesvc.ErrNotPending):
		return fiber.StatusConflict
	case errors.Is(err, tradesvc.ErrOfferCount), errors.Is(err, tradesvc.ErrSelfTrade),
		errors.Is(err, tradesvc.ErrOfferedNotOwned), errors.Is(err, tradesvc.ErrRequestedNotTrade):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func fail(c *fiber.Ctx, err error) error {
	code := status(err)
	if code == fiber.StatusInternalServerError {
		log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Str("path", c.Path()).Msg("trades request failed")
		return response.Internal(c)
	}
	return response.Error(c, err.Error(), code, nil)
}

func tradeID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params("id"))
	return id, err == nil
}

// POST /api/v1/trades
func (h *Handlers) Propose(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUserID(c)
	var req proposeRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadBody(c)
	}
	if fields := validation.Struct(req); fields != nil {
		return response.Invalid(c, fields)
	}
	p, err := h.Service.Propose(c.UserContext(), tradesvc.ProposeInput{
		ProposerID:         userID,
		OfferedListingIDs:  req.OfferedListingIDs,
		RequestedListingID: req.RequestedListingID,
		Message:            req.Message,
	})
	if err != nil {
		return fail(c, err)
	}
	return response.SuccessCreated(c, "Trade proposed", p, nil)
}

// GET /api/v1/trades?box=sent|received
func (h *Handlers) List(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUserID(c)
	box := tradesvc.Box(c.Query("box"))
	if box != tradesvc.BoxAll && box != tradesvc.BoxSent && box != tradesvc.BoxReceived {
		return response.Invalid(c, map[string]string{"box": "must be one of sent, received"})
	}
	proposals, err := h.Service.List(c.UserContext(), userID, box)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Trade proposals retrieved", proposals, fiber.Map{"count": len(proposals)})
}

// GET /api/v1/trades/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUserID(c)
	id, ok := tradeID(c)
	if !ok {
		return response.Error(c, "Invalid trade id", fiber.StatusBadRequest, nil)
	}
	p, err := h.Service.Get(c.UserContext(), userID, id)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Trade proposal retrieved", p, nil)
}

// POST /api/v1/trades/:id/accept
func (h *Handlers) Accept(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUserID(c)
	id, ok := tradeID(c)
	if !ok {
		return response.Error(c, "Invalid trade id", fiber.StatusBadRequest, nil)
	}
	p, availability, err := h.Service.Accept(c.UserContext(), userID, id)
	if err != nil {
		return fail(c, err)
	}
	msg := "Trade accepted"
	if availability.HasFailures() {
		msg = "Trade accepted; some listings are still shown as available"
	}
	return response.Success(c, msg, fiber.Map{"trade": p, "availability": availability}, nil)
}

// POST /api/v1/trades/:id/reject
func (h *Handlers) Reject(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUserID(c)
	id, ok := tradeID(c)
	if !ok {
		return response.Error(c, "Invalid trade id", fiber.StatusBadRequest, nil)
	}
	p, err := h.Service.Reject(c.UserContext(), userID, id)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Trade rejected", p, nil)
}

// POST /api/v1/trades/:id/cancel
func (h *Handlers) Cancel(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUserID(c)
	id, ok := tradeID(c)
	if !ok {
		return response.Error(c, "Invalid trade id", fiber.StatusBadRequest, nil)
	}
	p, err := h.Service.Cancel(c.UserContext(), userID, id)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, "Trade cancelled", p, nil)
}
