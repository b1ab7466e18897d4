package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ListingType is how a listing is offered. The value set matches the listings.listing_type column.
type ListingType string

const (
	ListingTypeRent  ListingType = "Rent"
	ListingTypeBuy   ListingType = "Buy"
	ListingTypeSell  ListingType = "Sell"
	ListingTypeTrade ListingType = "Trade"
)

// ListingTypes is the full set accepted on create/update.
var ListingTypes = []ListingType{ListingTypeRent, ListingTypeBuy, ListingTypeSell, ListingTypeTrade}

// Valid reports whether t is one of ListingTypes.
func (t ListingType) Valid() bool {
	for _, v := range ListingTypes {
		if v == t {
			return true
		}
	}
	return false
}

// Listing is a clothing item offered for rent, sale or trade.
// DailyPrice doubles as the flat price for Buy/Sell listings; use pricing.PriceOf to read it.
type Listing struct {
	ID          uuid.UUID   `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID   `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	Title       string      `gorm:"column:title;not null" json:"title"`
	Description string      `gorm:"column:description" json:"description"`
	Brand       string      `gorm:"column:brand" json:"brand"`
	Size        string      `gorm:"column:size" json:"size"`
	Condition   string      `gorm:"column:condition" json:"condition"`
	DailyPrice  float64     `gorm:"column:daily_price;type:decimal(10,2);not null" json:"daily_price"`
	WeeklyPrice *float64    `gorm:"column:weekly_price;type:decimal(10,2)" json:"weekly_price"`
	Location    string      `gorm:"column:location" json:"location"`
	Latitude    *float64    `gorm:"column:latitude" json:"latitude"`
	Longitude   *float64    `gorm:"column:longitude" json:"longitude"`
	IsAvailable bool        `gorm:"column:is_available;not null" json:"is_available"`
	ListingType ListingType `gorm:"column:listing_type;type:varchar(10);not null;index" json:"listing_type"`
	CreatedAt   time.Time   `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time   `gorm:"column:updated_at" json:"updated_at"`

	Images       []ListingImage        `gorm:"foreignKey:ListingID" json:"images,omitempty"`
	Tags         []ListingTag          `gorm:"foreignKey:ListingID" json:"tags,omitempty"`
	Availability []ListingAvailability `gorm:"foreignKey:ListingID" json:"availability,omitempty"`
}

func (Listing) TableName() string {
	return "listings"
}

// BeforeCreate sets id if not already set (DBs without default uuid).
func (l *Listing) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// ListingImage is one ordered image of a listing. Path is the storage object key, URL its public address.
type ListingImage struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ListingID uuid.UUID `gorm:"column:listing_id;type:uuid;not null;index" json:"listing_id"`
	URL       string    `gorm:"column:image_url;not null" json:"image_url"`
	Path      string    `gorm:"column:storage_path" json:"storage_path,omitempty"`
	Position  int       `gorm:"column:position;not null" json:"position"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (ListingImage) TableName() string {
	return "listing_images"
}

func (i *ListingImage) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

type ListingTag struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ListingID uuid.UUID `gorm:"column:listing_id;type:uuid;not null;index" json:"listing_id"`
	Tag       string    `gorm:"column:tag;not null" json:"tag"`
}

func (ListingTag) TableName() string {
	return "listing_tags"
}

func (t *ListingTag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// ListingAvailability is a window in which a Rent listing can be booked.
type ListingAvailability struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ListingID uuid.UUID `gorm:"column:listing_id;type:uuid;not null;index" json:"listing_id"`
	StartDate time.Time `gorm:"column:start_date;not null" json:"start_date"`
	EndDate   time.Time `gorm:"column:end_date;not null" json:"end_date"`
}

func (ListingAvailability) TableName() string {
	return "listing_availability"
}

func (a *ListingAvailability) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
