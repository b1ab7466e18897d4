package pricing

import (
	"errors"
	"math"
	"strings"
	"time"

	"wardrobe-backend/internal/domain"

	"github.com/shopspring/decimal"
)

var ErrInvalidDate = errors.New("invalid date")

const day = 24 * time.Hour

// RentalPeriod is a quote for renting a listing over a date range.
type RentalPeriod struct {
	StartDate  string  `json:"start_date"`
	EndDate    string  `json:"end_date"`
	TotalDays  int     `json:"total_days"`
	TotalPrice float64 `json:"total_price"`
}

// Calculate quotes listing for [start, end]. Days are rounded up and never fewer than one, so a
// same-day or inverted range is charged as a single day. With a weekly price and at least seven
// days, whole weeks are charged at the weekly rate and the remainder at the daily rate.
func Calculate(listing domain.Listing, startISO, endISO string) (RentalPeriod, error) {
	start, err := ParseDate(startISO)
	if err != nil {
		return RentalPeriod{}, err
	}
	end, err := ParseDate(endISO)
	if err != nil {
		return RentalPeriod{}, err
	}

	days := int(math.Ceil(float64(end.Sub(start)) / float64(day)))
	if days < 1 {
		days = 1
	}

	daily := decimal.NewFromFloat(listing.DailyPrice)
	var total decimal.Decimal
	if listing.WeeklyPrice != nil && days >= 7 {
		weeks := decimal.NewFromInt(int64(days / 7))
		rest := decimal.NewFromInt(int64(days % 7))
		total = weeks.Mul(decimal.NewFromFloat(*listing.WeeklyPrice)).Add(rest.Mul(daily))
	} else {
		total = decimal.NewFromInt(int64(days)).Mul(daily)
	}

	return RentalPeriod{
		StartDate:  startISO,
		EndDate:    endISO,
		TotalDays:  days,
		TotalPrice: total.Round(2).InexactFloat64(),
	}, nil
}

// ParseDate accepts RFC3339 timestamps or plain YYYY-MM-DD dates (UTC midnight).
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Time{}, ErrInvalidDate
}
