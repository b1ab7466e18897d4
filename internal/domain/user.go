package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Profile is the public profile row. ID is the auth provider's user id, so it is never generated here.
type Profile struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Email     string    `gorm:"column:email" json:"email"`
	Username  *string   `gorm:"column:username;uniqueIndex" json:"username"`
	FullName  string    `gorm:"column:full_name" json:"full_name"`
	Bio       string    `gorm:"column:bio" json:"bio"`
	AvatarURL string    `gorm:"column:avatar_url" json:"avatar_url"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}

// WishlistItem marks a listing saved by a user; (user_id, listing_id) is unique.
type WishlistItem struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_wishlist_user_listing" json:"user_id"`
	ListingID uuid.UUID `gorm:"column:listing_id;type:uuid;not null;uniqueIndex:idx_wishlist_user_listing" json:"listing_id"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`

	Listing *Listing `gorm:"foreignKey:ListingID" json:"listing,omitempty"`
}

func (WishlistItem) TableName() string {
	return "wishlist"
}

func (w *WishlistItem) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}
