package orders

import (
	"context"
	"errors"
	"fmt"

	"wardrobe-backend/internal/application/pricing"
	"wardrobe-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound     = errors.New("Order not found")
	ErrNoItems      = errors.New("Order has no items")
	ErrMissingOwner = errors.New("Order user is required")
)

type Service struct {
	DB *gorm.DB
}

type RecordInput struct {
	UserID          uuid.UUID
	PaymentIntentID string
	Currency        string
	Shipping        domain.ShippingDetails
	Items           []domain.CartItem
}

// Record writes the order and its items in one transaction. The payment intent id is the idempotency
// key: if an order already exists for it, that order is returned and created is false.
func (s *Service) Record(ctx context.Context, in RecordInput) (order *domain.Order, created bool, err error) {
	if in.UserID == uuid.Nil {
		return nil, false, ErrMissingOwner
	}
	if len(in.Items) == 0 {
		return nil, false, ErrNoItems
	}
	if existing, err := s.FindByPaymentIntent(ctx, in.PaymentIntentID); err == nil {
		return existing, false, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	total := decimal.Zero
	items := make([]domain.OrderItem, 0, len(in.Items))
	for _, it := range in.Items {
		sub := pricing.Subtotal(it.Listing, it.Quantity)
		total = total.Add(sub)
		items = append(items, domain.OrderItem{
			ListingID: it.ListingID,
			Quantity:  it.Quantity,
			Price:     pricing.PriceOf(it.Listing).Unit().InexactFloat64(),
			Subtotal:  sub.InexactFloat64(),
		})
	}
	order = &domain.Order{
		UserID:          in.UserID,
		PaymentIntentID: in.PaymentIntentID,
		TotalAmount:     total.Round(2).InexactFloat64(),
		Currency:        in.Currency,
		Status:          domain.OrderStatusPaid,
	}
	if err := order.SetShipping(in.Shipping); err != nil {
		return nil, false, err
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "payment_intent_id"}}, DoNothing: true}).Create(order)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// lost a race with another recorder of the same intent
			return errAlreadyRecorded
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := tx.Create(&items).Error; err != nil {
			return fmt.Errorf("order items: %w", err)
		}
		order.Items = items
		return nil
	})
	if errors.Is(err, errAlreadyRecorded) {
		existing, ferr := s.FindByPaymentIntent(ctx, in.PaymentIntentID)
		return existing, false, ferr
	}
	if err != nil {
		return nil, false, fmt.Errorf("Failed to record order: %w", err)
	}
	return order, true, nil
}

var errAlreadyRecorded = errors.New("order already recorded")

func (s *Service) FindByPaymentIntent(ctx context.Context, paymentIntentID string) (*domain.Order, error) {
	var order domain.Order
	err := s.DB.WithContext(ctx).Preload("Items").Where("payment_intent_id = ?", paymentIntentID).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListForUser returns the buyer's orders, newest first.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.Order, error) {
	orders := []domain.Order{}
	if err := s.DB.WithContext(ctx).Preload("Items").Where("user_id = ?", userID).Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// Get returns one order; orders of other users read as not found.
func (s *Service) Get(ctx context.Context, userID, orderID uuid.UUID) (*domain.Order, error) {
	var order domain.Order
	err := s.DB.WithContext(ctx).Preload("Items").Where("id = ? AND user_id = ?", orderID, userID).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}
