package checkout

import (
	"context"
	"fmt"
	"strings"

	"wardrobe-backend/internal/application/cart"
	"wardrobe-backend/internal/application/orders"
	"wardrobe-backend/internal/application/pricing"
	"wardrobe-backend/internal/domain"
	"wardrobe-backend/internal/infrastructure/messaging"
	"wardrobe-backend/internal/infrastructure/payments"
	"wardrobe-backend/internal/pkg/batch"
	"wardrobe-backend/internal/pkg/retry"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Carts is the part of the cart store checkout reads and clears.
type Carts interface {
	Get(ctx context.Context, userID uuid.UUID) (*domain.Cart, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

// OrderRecorder writes orders idempotently by payment intent id.
type OrderRecorder interface {
	Record(ctx context.Context, in orders.RecordInput) (*domain.Order, bool, error)
	FindByPaymentIntent(ctx context.Context, paymentIntentID string) (*domain.Order, error)
}

// AvailabilityUpdater takes purchased listings off the market.
type AvailabilityUpdater interface {
	MarkUnavailable(ctx context.Context, listingID uuid.UUID) error
}

// Orchestrator runs checkout as a saga: CreateIntent, ConfirmPayment, RecordOrder, UpdateAvailability.
// Nothing is compensated once the payment has succeeded; the later steps are retried instead and
// RecordOrder is idempotent on the payment intent id.
type Orchestrator struct {
	Carts    Carts
	Gateway  payments.Gateway
	Orders   OrderRecorder
	Listings AvailabilityUpdater
	Events   messaging.Publisher
	Retry    retry.Policy
	Currency string
}

type IntentResult struct {
	State           State  `json:"state"`
	PaymentIntentID string `json:"payment_intent_id"`
	ClientSecret    string `json:"client_secret"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
}

type Result struct {
	State        State                   `json:"state"`
	Order        *domain.Order           `json:"order,omitempty"`
	Created      bool                    `json:"created"`
	Availability batch.Result[uuid.UUID] `json:"availability"`
}

func (o *Orchestrator) currency(c string) string {
	c = strings.ToLower(strings.TrimSpace(c))
	if c != "" {
		return c
	}
	if o.Currency != "" {
		return o.Currency
	}
	return "usd"
}

// CreateIntent charges the cart total. Failures are returned as is and never retried.
func (o *Orchestrator) CreateIntent(ctx context.Context, userID uuid.UUID, currency string) (*IntentResult, error) {
	c, err := o.Carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if c == nil || len(c.Items) == 0 {
		return nil, ErrEmptyCart
	}
	for _, it := range c.Items {
		if !pricing.PriceOf(it.Listing).Purchasable() {
			return nil, ErrNotPurchasable
		}
	}
	amount := pricing.ToCents(cart.Total(c.Items))
	if amount <= 0 {
		return nil, ErrEmptyCart
	}
	cur := o.currency(currency)

	ids := make([]string, 0, len(c.Items))
	for _, id := range c.ListingIDs() {
		ids = append(ids, id.String())
	}
	metadata := map[string]string{
		"user_id":     userID.String(),
		"listing_ids": strings.Join(ids, ","),
		"item_count":  fmt.Sprint(len(c.Items)),
	}

	intent, err := o.Gateway.CreateIntent(ctx, amount, cur, metadata)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID.String()).Int64("amount", amount).Msg("payment intent not created")
		return nil, fmt.Errorf("%w: %v", ErrIntentFailed, err)
	}
	log.Info().Str("user_id", userID.String()).Str("payment_intent_id", intent.ID).Int64("amount", amount).Msg("payment intent created")
	return &IntentResult{
		State:           StateIntentReady,
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
		Amount:          amount,
		Currency:        cur,
	}, nil
}

// ConfirmPayment verifies with the processor that the client-side confirmation succeeded.
func (o *Orchestrator) ConfirmPayment(ctx context.Context, userID uuid.UUID, paymentIntentID string) (*payments.Intent, State, error) {
	intent, err := o.Gateway.RetrieveIntent(ctx, paymentIntentID)
	if err != nil {
		return nil, StateConfirming, fmt.Errorf("%w: %v", ErrConfirmFailed, err)
	}
	if owner := intent.Metadata["user_id"]; owner != userID.String() {
		return nil, StateFailed, ErrIntentMismatch
	}
	switch intent.Status {
	case payments.StatusSucceeded:
		return intent, StateSucceeded, nil
	case payments.StatusProcessing:
		return intent, StateConfirming, ErrPaymentPending
	default:
		return intent, StateFailed, fmt.Errorf("%w: status %s", ErrPaymentNotSucceeded, intent.Status)
	}
}

// RecordOrder writes the order, retrying on rate limits. A repeat call for the same intent returns
// the existing order.
func (o *Orchestrator) RecordOrder(ctx context.Context, in orders.RecordInput) (*domain.Order, bool, error) {
	var (
		order   *domain.Order
		created bool
	)
	err := retry.Do(ctx, o.Retry, "checkout.record_order", func(ctx context.Context) error {
		var err error
		order, created, err = o.Orders.Record(ctx, in)
		return err
	})
	return order, created, err
}

// UpdateAvailability marks every purchased listing unavailable, each with its own retries.
// Failures are collected, never returned.
func (o *Orchestrator) UpdateAvailability(ctx context.Context, listingIDs []uuid.UUID) batch.Result[uuid.UUID] {
	var res batch.Result[uuid.UUID]
	for _, id := range listingIDs {
		err := retry.Do(ctx, o.Retry, "checkout.mark_unavailable", func(ctx context.Context) error {
			return o.Listings.MarkUnavailable(ctx, id)
		})
		if err != nil {
			log.Warn().Err(err).Str("listing_id", id.String()).Msg("listing not marked unavailable after purchase")
			res.Fail(id, err)
			continue
		}
		res.Ok(id)
	}
	return res
}

// Complete runs everything after the client has confirmed the payment.
func (o *Orchestrator) Complete(ctx context.Context, userID uuid.UUID, paymentIntentID string, shipping domain.ShippingDetails) (*Result, error) {
	logger := log.With().Str("user_id", userID.String()).Str("payment_intent_id", paymentIntentID).Logger()

	intent, state, err := o.ConfirmPayment(ctx, userID, paymentIntentID)
	if err != nil {
		return &Result{State: state}, err
	}

	c, err := o.Carts.Get(ctx, userID)
	if err != nil {
		logger.Error().Err(err).Msg("paid but cart could not be read")
		return &Result{State: StateSucceeded}, fmt.Errorf("%w: %v", ErrOrderNotRecorded, err)
	}
	if c == nil || len(c.Items) == 0 {
		// A retry after a completed checkout finds the cart already cleared.
		if existing, ferr := o.Orders.FindByPaymentIntent(ctx, paymentIntentID); ferr == nil {
			return &Result{State: StateOrderRecorded, Order: existing}, nil
		}
		logger.Error().Msg("paid but cart is empty, nothing to record")
		return &Result{State: StateSucceeded}, ErrEmptyCart
	}

	if want := pricing.ToCents(cart.Total(c.Items)); want != intent.Amount || !sameListings(c.ListingIDs(), intent.Metadata["listing_ids"]) {
		// The cart may have been refilled after this intent already produced an order.
		if existing, ferr := o.Orders.FindByPaymentIntent(ctx, paymentIntentID); ferr == nil {
			return &Result{State: StateOrderRecorded, Order: existing}, nil
		}
		logger.Error().Int64("cart_amount", want).Int64("intent_amount", intent.Amount).
			Str("intent_listings", intent.Metadata["listing_ids"]).Msg("paid but cart no longer matches the payment")
		return &Result{State: StateSucceeded}, ErrCartChanged
	}

	order, created, err := o.RecordOrder(ctx, orders.RecordInput{
		UserID:          userID,
		PaymentIntentID: paymentIntentID,
		Currency:        o.currency(intent.Currency),
		Shipping:        shipping,
		Items:           c.Items,
	})
	if err != nil {
		logger.Error().Err(err).Msg("paid order not recorded")
		return &Result{State: StateSucceeded}, fmt.Errorf("%w: %v", ErrOrderNotRecorded, err)
	}

	result := &Result{State: StateOrderRecorded, Order: order, Created: created}
	result.Availability = o.UpdateAvailability(ctx, c.ListingIDs())

	if err := o.Carts.Clear(ctx, userID); err != nil {
		logger.Warn().Err(err).Msg("cart not cleared after checkout")
	}

	if created && o.Events != nil {
		err := o.Events.Publish(ctx, messaging.OrderCreated, map[string]interface{}{
			"order_id":          order.ID,
			"user_id":           userID,
			"payment_intent_id": paymentIntentID,
			"total_amount":      order.TotalAmount,
			"currency":          order.Currency,
			"listing_ids":       c.ListingIDs(),
		})
		if err != nil {
			logger.Warn().Err(err).Msg("order.created not published")
		}
	}

	logger.Info().Str("order_id", order.ID.String()).Bool("created", created).
		Int("unavailable_failed", len(result.Availability.Failed)).Msg("checkout completed")
	return result, nil
}

// sameListings compares the cart with the comma-separated ids stored on the intent, ignoring order.
func sameListings(ids []uuid.UUID, charged string) bool {
	var want []string
	if charged != "" {
		want = strings.Split(charged, ",")
	}
	if len(want) != len(ids) {
		return false
	}
	seen := make(map[string]int, len(want))
	for _, id := range want {
		seen[id]++
	}
	for _, id := range ids {
		k := id.String()
		if seen[k] == 0 {
			return false
		}
		seen[k]--
	}
	return true
}
