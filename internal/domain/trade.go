package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TradeStatus string

const (
	TradeStatusPending   TradeStatus = "pending"
	TradeStatusAccepted  TradeStatus = "accepted"
	TradeStatusRejected  TradeStatus = "rejected"
	TradeStatusCancelled TradeStatus = "cancelled"
)

// TradeProposal offers one to three of the proposer's listings for one of the recipient's.
type TradeProposal struct {
	ID                 uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ProposerID         uuid.UUID      `gorm:"column:proposer_id;type:uuid;not null;index" json:"proposer_id"`
	RecipientID        uuid.UUID      `gorm:"column:recipient_id;type:uuid;not null;index" json:"recipient_id"`
	OfferedListingIDs  datatypes.JSON `gorm:"column:offered_listing_ids;type:jsonb;not null" json:"offered_listing_ids"`
	RequestedListingID uuid.UUID      `gorm:"column:requested_listing_id;type:uuid;not null" json:"requested_listing_id"`
	Message            string         `gorm:"column:message" json:"message"`
	Status             TradeStatus    `gorm:"column:status;type:varchar(20);not null" json:"status"`
	CreatedAt          time.Time      `gorm:"column:created_at" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"column:updated_at" json:"updated_at"`
}

func (TradeProposal) TableName() string {
	return "trade_proposals"
}

func (t *TradeProposal) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// OfferedIDs decodes the jsonb list of offered listing ids.
func (t *TradeProposal) OfferedIDs() ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if len(t.OfferedListingIDs) == 0 {
		return ids, nil
	}
	if err := json.Unmarshal(t.OfferedListingIDs, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (t *TradeProposal) SetOfferedIDs(ids []uuid.UUID) error {
	b, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	t.OfferedListingIDs = datatypes.JSON(b)
	return nil
}
