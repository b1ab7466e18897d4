package orders

import (
	"errors"

	ordersvc "wardrobe-backend/internal/application/orders"
	"wardrobe-backend/internal/middleware"
	"wardrobe-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	Service *ordersvc.Service
}

// GET /api/v1/orders
func (h *Handlers) List(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUserID(c)
	orders, err := h.Service.ListForUser(c.UserContext(), userID)
	if err != nil {
		log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Msg("orders: list failed")
		return response.Internal(c)
	}
	return response.Success(c, "Orders retrieved", orders, fiber.Map{"count": len(orders)})
}

// GET /api/v1/orders/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUserID(c)
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid order id", fiber.StatusBadRequest, nil)
	}
	order, err := h.Service.Get(c.UserContext(), userID, id)
	if errors.Is(err, ordersvc.ErrNotFound) {
		return response.Error(c, err.Error(), fiber.StatusNotFound, nil)
	}
	if err != nil {
		log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Msg("orders: get failed")
		return response.Internal(c)
	}
	return response.Success(c, "Order retrieved", order, nil)
}
