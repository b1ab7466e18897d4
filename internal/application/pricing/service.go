package pricing

import (
	"context"
	"errors"

	"wardrobe-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrListingNotFound = errors.New("Listing not found")
	ErrNotRentable     = errors.New("Listing is not available for rent")
)

type Service struct {
	DB *gorm.DB
}

// Quote loads a Rent listing and prices the requested period.
func (s *Service) Quote(ctx context.Context, listingID uuid.UUID, start, end string) (RentalPeriod, error) {
	var listing domain.Listing
	if err := s.DB.WithContext(ctx).Where("id = ?", listingID).First(&listing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RentalPeriod{}, ErrListingNotFound
		}
		return RentalPeriod{}, err
	}
	if listing.ListingType != domain.ListingTypeRent || !listing.IsAvailable {
		return RentalPeriod{}, ErrNotRentable
	}
	return Calculate(listing, start, end)
}
