package listings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wardrobe-backend/internal/domain"
	"wardrobe-backend/internal/infrastructure/supabase"
	"wardrobe-backend/internal/pkg/batch"
	"wardrobe-backend/internal/pkg/retry"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var (
	ErrNotFound      = errors.New("Listing not found")
	ErrForbidden     = errors.New("Only the owner can change this listing")
	ErrInvalidType   = errors.New("Invalid listing_type")
	ErrInvalidPrice  = errors.New("Invalid price")
	ErrTitleRequired = errors.New("title is required")
	ErrInvalidWindow = errors.New("Availability window ends before it starts")
	ErrNoChanges     = errors.New("No valid changes provided")
)

const maxPageSize = 100

type Service struct {
	DB      *gorm.DB
	Storage supabase.Storage
	Bucket  string
	Retry   retry.Policy
}

type ImageInput struct {
	URL  string `json:"image_url"`
	Path string `json:"storage_path,omitempty"`
}

type WindowInput struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

type CreateInput struct {
	UserID       uuid.UUID
	Title        string
	Description  string
	Brand        string
	Size         string
	Condition    string
	DailyPrice   float64
	WeeklyPrice  *float64
	Location     string
	Latitude     *float64
	Longitude    *float64
	ListingType  domain.ListingType
	Tags         []string
	Images       []ImageInput
	Availability []WindowInput
}

// CreateReport tells which associated rows were written. The listing itself exists either way.
type CreateReport struct {
	Tags         batch.Result[string]      `json:"tags"`
	Images       batch.Result[ImageInput]  `json:"images"`
	Availability batch.Result[WindowInput] `json:"availability"`
}

func (in CreateInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return ErrTitleRequired
	}
	if !in.ListingType.Valid() {
		return ErrInvalidType
	}
	if in.DailyPrice < 0 || (in.ListingType != domain.ListingTypeTrade && in.DailyPrice == 0) {
		return ErrInvalidPrice
	}
	if in.WeeklyPrice != nil && *in.WeeklyPrice <= 0 {
		return ErrInvalidPrice
	}
	for _, w := range in.Availability {
		if w.EndDate.Before(w.StartDate) {
			return ErrInvalidWindow
		}
	}
	return nil
}

// Create inserts the listing, then its tags, images and availability windows one by one.
// Failures on the associated rows are reported in CreateReport rather than failing the call.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Listing, *CreateReport, error) {
	if err := in.validate(); err != nil {
		return nil, nil, err
	}
	listing := &domain.Listing{
		UserID:      in.UserID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Brand:       in.Brand,
		Size:        in.Size,
		Condition:   in.Condition,
		DailyPrice:  in.DailyPrice,
		WeeklyPrice: in.WeeklyPrice,
		Location:    in.Location,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		IsAvailable: true,
		ListingType: in.ListingType,
	}
	if err := s.DB.WithContext(ctx).Create(listing).Error; err != nil {
		return nil, nil, fmt.Errorf("Failed to create listing: %w", err)
	}

	report := &CreateReport{}
	for _, tag := range normaliseTags(in.Tags) {
		row := domain.ListingTag{ListingID: listing.ID, Tag: tag}
		if err := s.DB.WithContext(ctx).Create(&row).Error; err != nil {
			report.Tags.Fail(tag, err)
			continue
		}
		listing.Tags = append(listing.Tags, row)
		report.Tags.Ok(tag)
	}
	for i, img := range in.Images {
		row, err := s.insertImage(ctx, listing.ID, img, i)
		if err != nil {
			report.Images.Fail(img, err)
			continue
		}
		listing.Images = append(listing.Images, *row)
		report.Images.Ok(img)
	}
	for _, w := range in.Availability {
		row := domain.ListingAvailability{ListingID: listing.ID, StartDate: w.StartDate, EndDate: w.EndDate}
		if err := s.DB.WithContext(ctx).Create(&row).Error; err != nil {
			report.Availability.Fail(w, err)
			continue
		}
		listing.Availability = append(listing.Availability, row)
		report.Availability.Ok(w)
	}

	if report.Tags.HasFailures() || report.Images.HasFailures() || report.Availability.HasFailures() {
		log.Warn().Str("listing_id", listing.ID.String()).
			Int("tags_failed", len(report.Tags.Failed)).
			Int("images_failed", len(report.Images.Failed)).
			Int("windows_failed", len(report.Availability.Failed)).
			Msg("listing created with incomplete details")
	}
	return listing, report, nil
}

func (s *Service) insertImage(ctx context.Context, listingID uuid.UUID, img ImageInput, position int) (*domain.ListingImage, error) {
	if strings.TrimSpace(img.URL) == "" {
		return nil, errors.New("image_url is required")
	}
	row := &domain.ListingImage{ListingID: listingID, URL: img.URL, Path: img.Path, Position: position}
	if err := s.DB.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// AddImage appends an image to a listing owned by ownerID.
func (s *Service) AddImage(ctx context.Context, ownerID, listingID uuid.UUID, img ImageInput) (*domain.ListingImage, error) {
	listing, err := s.owned(ctx, ownerID, listingID)
	if err != nil {
		return nil, err
	}
	var count int64
	if err := s.DB.WithContext(ctx).Model(&domain.ListingImage{}).Where("listing_id = ?", listing.ID).Count(&count).Error; err != nil {
		return nil, err
	}
	return s.insertImage(ctx, listing.ID, img, int(count))
}

func normaliseTags(tags []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Tags").
		Preload("Availability", func(db *gorm.DB) *gorm.DB { return db.Order("start_date ASC") })
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Listing, error) {
	var listing domain.Listing
	if err := withDetails(s.DB.WithContext(ctx)).Where("id = ?", id).First(&listing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &listing, nil
}

// GetByIDs loads listings with one IN query. Missing ids are skipped.
func (s *Service) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Listing, error) {
	if len(ids) == 0 {
		return []domain.Listing{}, nil
	}
	var listings []domain.Listing
	if err := withDetails(s.DB.WithContext(ctx)).Where("id IN ?", ids).Find(&listings).Error; err != nil {
		return nil, err
	}
	return listings, nil
}

type Filter struct {
	Type      domain.ListingType
	Available *bool
	OwnerID   *uuid.UUID
	Brand     string
	Size      string
	Search    string
	Limit     int
	Offset    int
}

type Page struct {
	Listings []domain.Listing `json:"listings"`
	Total    int64            `json:"total"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
}

func (s *Service) List(ctx context.Context, f Filter) (*Page, error) {
	if f.Limit <= 0 || f.Limit > maxPageSize {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	filters := func(q *gorm.DB) *gorm.DB {
		if f.Type != "" {
			q = q.Where("listing_type = ?", f.Type)
		}
		if f.Available != nil {
			q = q.Where("is_available = ?", *f.Available)
		}
		if f.OwnerID != nil {
			q = q.Where("user_id = ?", *f.OwnerID)
		}
		if f.Brand != "" {
			q = q.Where("LOWER(brand) = ?", strings.ToLower(f.Brand))
		}
		if f.Size != "" {
			q = q.Where("size = ?", f.Size)
		}
		if f.Search != "" {
			like := "%" + strings.ToLower(f.Search) + "%"
			q = q.Where("(LOWER(title) LIKE ? OR LOWER(description) LIKE ?)", like, like)
		}
		return q
	}

	var total int64
	if err := s.DB.WithContext(ctx).Model(&domain.Listing{}).Scopes(filters).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("Failed to count listings: %w", err)
	}
	listings := []domain.Listing{}
	if err := withDetails(s.DB.WithContext(ctx)).Scopes(filters).Order("created_at DESC").Limit(f.Limit).Offset(f.Offset).Find(&listings).Error; err != nil {
		return nil, fmt.Errorf("Failed to fetch listings: %w", err)
	}
	return &Page{Listings: listings, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}

type UpdateInput struct {
	Title       *string
	Description *string
	Brand       *string
	Size        *string
	Condition   *string
	DailyPrice  *float64
	WeeklyPrice *float64
	Location    *string
	IsAvailable *bool
}

func (s *Service) Update(ctx context.Context, ownerID, id uuid.UUID, in UpdateInput) (*domain.Listing, error) {
	listing, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return nil, ErrTitleRequired
		}
		updates["title"] = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.Brand != nil {
		updates["brand"] = *in.Brand
	}
	if in.Size != nil {
		updates["size"] = *in.Size
	}
	if in.Condition != nil {
		updates["condition"] = *in.Condition
	}
	if in.DailyPrice != nil {
		if *in.DailyPrice < 0 || (listing.ListingType != domain.ListingTypeTrade && *in.DailyPrice == 0) {
			return nil, ErrInvalidPrice
		}
		updates["daily_price"] = *in.DailyPrice
	}
	if in.WeeklyPrice != nil {
		if *in.WeeklyPrice <= 0 {
			return nil, ErrInvalidPrice
		}
		updates["weekly_price"] = *in.WeeklyPrice
	}
	if in.Location != nil {
		updates["location"] = *in.Location
	}
	if in.IsAvailable != nil {
		updates["is_available"] = *in.IsAvailable
	}
	if len(updates) == 0 {
		return nil, ErrNoChanges
	}
	if err := s.DB.WithContext(ctx).Model(listing).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// SetAvailability flips is_available in a single attempt. Last write wins; callers that must
// survive rate limits (checkout, trades) wrap it in their own retry policy.
func (s *Service) SetAvailability(ctx context.Context, id uuid.UUID, available bool) error {
	res := s.DB.WithContext(ctx).Model(&domain.Listing{}).Where("id = ?", id).Update("is_available", available)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkUnavailable takes a sold or traded listing off the market.
func (s *Service) MarkUnavailable(ctx context.Context, id uuid.UUID) error {
	return s.SetAvailability(ctx, id, false)
}

// Delete removes the listing and its rows, then its stored images. Storage failures do not undo the delete;
// they come back in the result so the caller can report them.
func (s *Service) Delete(ctx context.Context, ownerID, id uuid.UUID) (batch.Result[string], error) {
	var removed batch.Result[string]
	listing, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return removed, err
	}
	var images []domain.ListingImage
	if err := s.DB.WithContext(ctx).Where("listing_id = ?", id).Find(&images).Error; err != nil {
		return removed, err
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{&domain.ListingImage{}, &domain.ListingTag{}, &domain.ListingAvailability{}, &domain.WishlistItem{}} {
			if err := tx.Where("listing_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Delete(listing).Error
	})
	if err != nil {
		return removed, fmt.Errorf("Failed to delete listing: %w", err)
	}

	paths := make([]string, 0, len(images))
	for _, img := range images {
		if img.Path != "" {
			paths = append(paths, img.Path)
		}
	}
	return s.removeObjects(ctx, paths), nil
}

func (s *Service) removeObjects(ctx context.Context, paths []string) batch.Result[string] {
	var res batch.Result[string]
	if len(paths) == 0 {
		return res
	}
	if s.Storage == nil {
		for _, p := range paths {
			res.Fail(p, errors.New("storage not configured"))
		}
		return res
	}
	err := retry.Do(ctx, s.Retry, "storage.remove", func(ctx context.Context) error {
		return s.Storage.Remove(ctx, s.Bucket, paths)
	})
	for _, p := range paths {
		if err != nil {
			res.Fail(p, err)
		} else {
			res.Ok(p)
		}
	}
	if err != nil {
		log.Warn().Err(err).Strs("paths", paths).Msg("stored images not removed")
	}
	return res
}

func (s *Service) owned(ctx context.Context, ownerID, id uuid.UUID) (*domain.Listing, error) {
	var listing domain.Listing
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&listing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if listing.UserID != ownerID {
		return nil, ErrForbidden
	}
	return &listing, nil
}
