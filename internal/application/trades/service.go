package trades

import (
	"context"
	"errors"
	"fmt"

	"wardrobe-backend/internal/domain"
	"wardrobe-backend/internal/infrastructure/messaging"
	"wardrobe-backend/internal/pkg/batch"
	"wardrobe-backend/internal/pkg/retry"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var (
	ErrNotFound          = errors.New("Trade proposal not found")
	ErrListingNotFound   = errors.New("Listing not found")
	ErrOfferCount        = errors.New("Offer between 1 and 3 of your listings")
	ErrSelfTrade         = errors.New("You cannot trade with yourself")
	ErrOfferedNotOwned   = errors.New("Offered listings must be your own available trade listings")
	ErrRequestedNotTrade = errors.New("Requested listing is not available for trade")
	ErrForbidden         = errors.New("You cannot act on this trade proposal")
	ErrNotPending        = errors.New("Trade proposal is no longer pending")
)

const maxOffered = 3

// Availability takes listings off the market once a trade is accepted.
type Availability interface {
	MarkUnavailable(ctx context.Context, listingID uuid.UUID) error
}

type Service struct {
	DB       *gorm.DB
	Listings Availability
	Events   messaging.Publisher
	Retry    retry.Policy
}

type ProposeInput struct {
	ProposerID         uuid.UUID
	OfferedListingIDs  []uuid.UUID
	RequestedListingID uuid.UUID
	Message            string
}

// Propose offers 1..3 of the proposer's available Trade listings for one available Trade listing owned by
// someone else.
func (s *Service) Propose(ctx context.Context, in ProposeInput) (*domain.TradeProposal, error) {
	offered := dedupe(in.OfferedListingIDs)
	if len(offered) == 0 || len(offered) > maxOffered {
		return nil, ErrOfferCount
	}

	var requested domain.Listing
	if err := s.DB.WithContext(ctx).Where("id = ?", in.RequestedListingID).First(&requested).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	if requested.UserID == in.ProposerID {
		return nil, ErrSelfTrade
	}
	if !requested.IsAvailable || requested.ListingType != domain.ListingTypeTrade {
		return nil, ErrRequestedNotTrade
	}

	var owned int64
	if err := s.DB.WithContext(ctx).Model(&domain.Listing{}).
		Where("id IN ? AND user_id = ? AND is_available = ? AND listing_type = ?", offered, in.ProposerID, true, domain.ListingTypeTrade).
		Count(&owned).Error; err != nil {
		return nil, err
	}
	if int(owned) != len(offered) {
		return nil, ErrOfferedNotOwned
	}

	proposal := &domain.TradeProposal{
		ProposerID:         in.ProposerID,
		RecipientID:        requested.UserID,
		RequestedListingID: requested.ID,
		Message:            in.Message,
		Status:             domain.TradeStatusPending,
	}
	if err := proposal.SetOfferedIDs(offered); err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Create(proposal).Error; err != nil {
		return nil, fmt.Errorf("Failed to create trade proposal: %w", err)
	}
	s.publish(ctx, messaging.TradeProposed, proposal)
	return proposal, nil
}

// Accept is allowed for the recipient of a pending proposal. Every listing in the trade is then marked
// unavailable; failures there are reported and do not undo the acceptance.
func (s *Service) Accept(ctx context.Context, userID, tradeID uuid.UUID) (*domain.TradeProposal, batch.Result[uuid.UUID], error) {
	var res batch.Result[uuid.UUID]
	proposal, err := s.transition(ctx, tradeID, domain.TradeStatusAccepted, func(p *domain.TradeProposal) bool {
		return p.RecipientID == userID
	})
	if err != nil {
		return nil, res, err
	}

	ids, err := proposal.OfferedIDs()
	if err != nil {
		return proposal, res, err
	}
	ids = append(ids, proposal.RequestedListingID)
	for _, id := range ids {
		if s.Listings == nil {
			res.Fail(id, errors.New("listings not configured"))
			continue
		}
		err := retry.Do(ctx, s.Retry, "trades.mark_unavailable", func(ctx context.Context) error {
			return s.Listings.MarkUnavailable(ctx, id)
		})
		if err != nil {
			log.Warn().Err(err).Str("trade_id", tradeID.String()).Str("listing_id", id.String()).
				Msg("traded listing still marked available")
			res.Fail(id, err)
			continue
		}
		res.Ok(id)
	}
	s.publish(ctx, messaging.TradeAccepted, proposal)
	return proposal, res, nil
}

// Reject is allowed for the recipient of a pending proposal.
func (s *Service) Reject(ctx context.Context, userID, tradeID uuid.UUID) (*domain.TradeProposal, error) {
	proposal, err := s.transition(ctx, tradeID, domain.TradeStatusRejected, func(p *domain.TradeProposal) bool {
		return p.RecipientID == userID
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, messaging.TradeRejected, proposal)
	return proposal, nil
}

// Cancel is allowed for the proposer of a pending proposal.
func (s *Service) Cancel(ctx context.Context, userID, tradeID uuid.UUID) (*domain.TradeProposal, error) {
	proposal, err := s.transition(ctx, tradeID, domain.TradeStatusCancelled, func(p *domain.TradeProposal) bool {
		return p.ProposerID == userID
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, messaging.TradeCancelled, proposal)
	return proposal, nil
}

// transition moves a pending proposal to status. The update is conditional on status so two
// concurrent decisions cannot both win.
func (s *Service) transition(ctx context.Context, tradeID uuid.UUID, status domain.TradeStatus, allowed func(*domain.TradeProposal) bool) (*domain.TradeProposal, error) {
	proposal, err := s.find(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if !allowed(proposal) {
		return nil, ErrForbidden
	}
	if proposal.Status != domain.TradeStatusPending {
		return nil, ErrNotPending
	}
	res := s.DB.WithContext(ctx).Model(&domain.TradeProposal{}).
		Where("id = ? AND status = ?", tradeID, domain.TradeStatusPending).
		Update("status", status)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotPending
	}
	proposal.Status = status
	return proposal, nil
}

// Box filters List.
type Box string

const (
	BoxAll      Box = ""
	BoxSent     Box = "sent"
	BoxReceived Box = "received"
)

// List returns the user's proposals, newest first.
func (s *Service) List(ctx context.Context, userID uuid.UUID, box Box) ([]domain.TradeProposal, error) {
	q := s.DB.WithContext(ctx).Order("created_at DESC")
	switch box {
	case BoxSent:
		q = q.Where("proposer_id = ?", userID)
	case BoxReceived:
		q = q.Where("recipient_id = ?", userID)
	default:
		q = q.Where("proposer_id = ? OR recipient_id = ?", userID, userID)
	}
	out := []domain.TradeProposal{}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns a proposal visible to either party.
func (s *Service) Get(ctx context.Context, userID, tradeID uuid.UUID) (*domain.TradeProposal, error) {
	p, err := s.find(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if p.ProposerID != userID && p.RecipientID != userID {
		return nil, ErrNotFound
	}
	return p, nil
}

func (s *Service) find(ctx context.Context, id uuid.UUID) (*domain.TradeProposal, error) {
	var p domain.TradeProposal
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Service) publish(ctx context.Context, key string, p *domain.TradeProposal) {
	if s.Events == nil {
		return
	}
	if err := s.Events.Publish(ctx, key, p); err != nil {
		log.Warn().Err(err).Str("trade_id", p.ID.String()).Str("event", key).Msg("trade event not published")
	}
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
