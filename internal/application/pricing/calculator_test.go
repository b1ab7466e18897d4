package pricing

import (
	"testing"
	"time"

	"wardrobe-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func weekly(v float64) *float64 { return &v }

func TestCalculate_DailyOnlyIsDaysTimesRate(t *testing.T) {
	l := domain.Listing{DailyPrice: 12.5, ListingType: domain.ListingTypeRent}
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for n := 1; n <= 30; n++ {
		end := start.AddDate(0, 0, n)
		q, err := Calculate(l, start.Format(time.RFC3339), end.Format(time.RFC3339))
		require.NoError(t, err)
		assert.Equal(t, n, q.TotalDays)
		assert.InDelta(t, float64(n)*12.5, q.TotalPrice, 0.001, "n=%d", n)
	}
}

func TestCalculate_WeeklyTier(t *testing.T) {
	l := domain.Listing{DailyPrice: 20, WeeklyPrice: weekly(100)}
	q, err := Calculate(l, "2024-03-01", "2024-03-11")
	require.NoError(t, err)
	assert.Equal(t, 10, q.TotalDays)
	assert.Equal(t, 160.0, q.TotalPrice)
	assert.Equal(t, "2024-03-01", q.StartDate)
	assert.Equal(t, "2024-03-11", q.EndDate)
}

func TestCalculate_WeeklyIgnoredUnderSevenDays(t *testing.T) {
	l := domain.Listing{DailyPrice: 20, WeeklyPrice: weekly(100)}
	q, err := Calculate(l, "2024-03-01", "2024-03-07")
	require.NoError(t, err)
	assert.Equal(t, 6, q.TotalDays)
	assert.Equal(t, 120.0, q.TotalPrice)
}

func TestCalculate_ExactWeeks(t *testing.T) {
	l := domain.Listing{DailyPrice: 20, WeeklyPrice: weekly(100)}
	q, err := Calculate(l, "2024-03-01", "2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, 14, q.TotalDays)
	assert.Equal(t, 200.0, q.TotalPrice)
}

func TestCalculate_MinimumOneDay(t *testing.T) {
	l := domain.Listing{DailyPrice: 30}
	q, err := Calculate(l, "2024-03-01T10:00:00Z", "2024-03-01T10:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, 1, q.TotalDays)
	assert.Equal(t, 30.0, q.TotalPrice)

	q, err = Calculate(l, "2024-03-05", "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, 1, q.TotalDays)
}

func TestCalculate_PartialDayRoundsUp(t *testing.T) {
	l := domain.Listing{DailyPrice: 10}
	q, err := Calculate(l, "2024-03-01T00:00:00Z", "2024-03-02T01:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, 2, q.TotalDays)
}

func TestCalculate_CentsDoNotDrift(t *testing.T) {
	l := domain.Listing{DailyPrice: 0.1}
	q, err := Calculate(l, "2024-03-01", "2024-03-04")
	require.NoError(t, err)
	assert.Equal(t, 0.3, q.TotalPrice)
}

func TestCalculate_InvalidDate(t *testing.T) {
	_, err := Calculate(domain.Listing{DailyPrice: 10}, "yesterday", "2024-03-01")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestPriceOf(t *testing.T) {
	assert.Equal(t, KindDaily, PriceOf(domain.Listing{ListingType: domain.ListingTypeRent, DailyPrice: 5}).Kind)
	assert.Equal(t, KindFlat, PriceOf(domain.Listing{ListingType: domain.ListingTypeBuy, DailyPrice: 5}).Kind)
	assert.Equal(t, KindFlat, PriceOf(domain.Listing{ListingType: domain.ListingTypeSell, DailyPrice: 5}).Kind)

	trade := PriceOf(domain.Listing{ListingType: domain.ListingTypeTrade, DailyPrice: 5})
	assert.Equal(t, KindNegotiable, trade.Kind)
	assert.True(t, trade.Unit().IsZero())
	assert.False(t, trade.Purchasable())
}

func TestCents(t *testing.T) {
	assert.Equal(t, int64(4500), ToCents(45))
	assert.Equal(t, int64(1999), ToCents(19.99))
	assert.Equal(t, 19.99, FromCents(1999))
}
