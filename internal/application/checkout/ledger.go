package checkout

import (
	"context"
	"errors"

	"wardrobe-backend/internal/application/orders"
	"wardrobe-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SucceededPayment is what the processor reports for a succeeded payment intent.
type SucceededPayment struct {
	EventID         string
	PaymentIntentID string
	AmountReceived  int64
	Currency        string
	Status          string
	UserID          string
	Raw             []byte
}

// Ledger records processor-confirmed payments independently of the order write, so a paid
// checkout whose order was never recorded can be found later.
type Ledger struct {
	DB     *gorm.DB
	Orders OrderRecorder
}

// RecordSucceeded stores the payment once per payment intent. It returns created=false for repeats.
func (l *Ledger) RecordSucceeded(ctx context.Context, p SucceededPayment) (bool, error) {
	payment := domain.Payment{
		StripePaymentIntentID: p.PaymentIntentID,
		StripeEventID:         p.EventID,
		AmountReceivedCents:   p.AmountReceived,
		Currency:              p.Currency,
		Status:                p.Status,
		RawPaymentIntent:      datatypes.JSON(p.Raw),
	}
	if id, err := uuid.Parse(p.UserID); err == nil {
		payment.UserID = &id
	}

	res := l.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&payment)
	if res.Error != nil {
		return false, res.Error
	}
	created := res.RowsAffected > 0

	if l.Orders != nil {
		if _, err := l.Orders.FindByPaymentIntent(ctx, p.PaymentIntentID); errors.Is(err, orders.ErrNotFound) {
			log.Warn().Str("payment_intent_id", p.PaymentIntentID).Str("user_id", p.UserID).
				Msg("payment succeeded with no order recorded yet")
		} else if err != nil {
			return created, err
		}
	}
	return created, nil
}
