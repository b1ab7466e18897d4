package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	// OrderStatusPaid is the only status an order is created with: orders exist only after a succeeded payment.
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// ShippingDetails is stored as jsonb on the order row.
type ShippingDetails struct {
	Name         string `json:"name" validate:"required,max=120"`
	AddressLine1 string `json:"address_line1" validate:"required,max=200"`
	AddressLine2 string `json:"address_line2,omitempty" validate:"max=200"`
	City         string `json:"city" validate:"required,max=100"`
	State        string `json:"state,omitempty" validate:"max=100"`
	PostalCode   string `json:"postal_code" validate:"required,max=20"`
	Country      string `json:"country" validate:"required,len=2"`
	Phone        string `json:"phone,omitempty" validate:"max=30"`
}

// Order is the durable record of a completed purchase. PaymentIntentID is unique and doubles as
// the idempotency key for recording.
type Order struct {
	ID              uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID      `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	PaymentIntentID string         `gorm:"column:payment_intent_id;uniqueIndex;not null" json:"payment_intent_id"`
	ShippingDetails datatypes.JSON `gorm:"column:shipping_details;type:jsonb" json:"shipping_details"`
	TotalAmount     float64        `gorm:"column:total_amount;type:decimal(10,2);not null" json:"total_amount"`
	Currency        string         `gorm:"column:currency;not null" json:"currency"`
	Status          OrderStatus    `gorm:"column:status;type:varchar(20);not null" json:"status"`
	CreatedAt       time.Time      `gorm:"column:created_at" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"column:updated_at" json:"updated_at"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// SetShipping encodes s into the jsonb column.
func (o *Order) SetShipping(s ShippingDetails) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	o.ShippingDetails = datatypes.JSON(b)
	return nil
}

// OrderItem snapshots what was bought; it is not reconciled against later listing changes.
type OrderItem struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrderID   uuid.UUID `gorm:"column:order_id;type:uuid;not null;index" json:"order_id"`
	ListingID uuid.UUID `gorm:"column:listing_id;type:uuid;not null;index" json:"listing_id"`
	Quantity  int       `gorm:"column:quantity;not null" json:"quantity"`
	Price     float64   `gorm:"column:price;type:decimal(10,2);not null" json:"price"`
	Subtotal  float64   `gorm:"column:subtotal;type:decimal(10,2);not null" json:"subtotal"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
