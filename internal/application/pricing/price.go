package pricing

import (
	"encoding/json"

	"wardrobe-backend/internal/domain"

	"github.com/shopspring/decimal"
)

// Kind tells how a listing's amount is charged.
type Kind string

const (
	KindDaily      Kind = "daily"
	KindFlat       Kind = "flat"
	KindNegotiable Kind = "negotiable"
)

// Price is the resolved price of a listing. Listings store a single daily_price column that means
// a per-day rate for Rent and a one-off price for Buy/Sell; PriceOf is the only place that reads it.
type Price struct {
	Kind   Kind
	Amount decimal.Decimal
}

func Daily(amount float64) Price { return Price{Kind: KindDaily, Amount: decimal.NewFromFloat(amount)} }
func Flat(amount float64) Price  { return Price{Kind: KindFlat, Amount: decimal.NewFromFloat(amount)} }
func Negotiable() Price          { return Price{Kind: KindNegotiable, Amount: decimal.Zero} }

// PriceOf resolves the price variant from listing_type.
func PriceOf(l domain.Listing) Price {
	switch l.ListingType {
	case domain.ListingTypeRent:
		return Daily(l.DailyPrice)
	case domain.ListingTypeBuy, domain.ListingTypeSell:
		return Flat(l.DailyPrice)
	default:
		return Negotiable()
	}
}

// Unit is what one unit costs when added to a cart: one day for Daily, the price for Flat,
// nothing for Negotiable (trades carry no money).
func (p Price) Unit() decimal.Decimal {
	if p.Kind == KindNegotiable {
		return decimal.Zero
	}
	return p.Amount
}

func (p Price) Purchasable() bool {
	return p.Kind != KindNegotiable
}

func (p Price) MarshalJSON() ([]byte, error) {
	out := struct {
		Kind   Kind     `json:"kind"`
		Amount *float64 `json:"amount"`
	}{Kind: p.Kind}
	if p.Kind != KindNegotiable {
		f := p.Amount.InexactFloat64()
		out.Amount = &f
	}
	return json.Marshal(out)
}

// Subtotal is unit price times quantity, rounded to cents.
func Subtotal(l domain.Listing, quantity int) decimal.Decimal {
	return PriceOf(l).Unit().Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}

// ToCents converts a major-unit amount to the integer minor units payment processors expect.
func ToCents(amount float64) int64 {
	return decimal.NewFromFloat(amount).Shift(2).Round(0).IntPart()
}

// FromCents is the inverse of ToCents.
func FromCents(cents int64) float64 {
	return decimal.New(cents, -2).InexactFloat64()
}
