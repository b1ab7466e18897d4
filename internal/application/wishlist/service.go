package wishlist

import (
	"context"
	"errors"

	"wardrobe-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrListingNotFound = errors.New("Listing not found")
	ErrNotSaved        = errors.New("Listing is not in your wishlist")
)

type Service struct {
	DB *gorm.DB
}

// Add saves a listing for the user. Saving the same listing twice is a no-op; created reports which case happened.
func (s *Service) Add(ctx context.Context, userID, listingID uuid.UUID) (*domain.WishlistItem, bool, error) {
	var count int64
	if err := s.DB.WithContext(ctx).Model(&domain.Listing{}).Where("id = ?", listingID).Count(&count).Error; err != nil {
		return nil, false, err
	}
	if count == 0 {
		return nil, false, ErrListingNotFound
	}

	item := &domain.WishlistItem{UserID: userID, ListingID: listingID}
	res := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "listing_id"}},
		DoNothing: true,
	}).Create(item)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 0 {
		var existing domain.WishlistItem
		if err := s.DB.WithContext(ctx).Where("user_id = ? AND listing_id = ?", userID, listingID).First(&existing).Error; err != nil {
			return nil, false, err
		}
		return &existing, false, nil
	}
	return item, true, nil
}

func (s *Service) Remove(ctx context.Context, userID, listingID uuid.UUID) error {
	res := s.DB.WithContext(ctx).Where("user_id = ? AND listing_id = ?", userID, listingID).Delete(&domain.WishlistItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotSaved
	}
	return nil
}

// List returns saved items with their listings, most recent first.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]domain.WishlistItem, error) {
	var items []domain.WishlistItem
	err := s.DB.WithContext(ctx).
		Preload("Listing").
		Preload("Listing.Images", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
