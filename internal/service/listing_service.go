package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"adstream/internal/apperr"
	"adstream/internal/channel"
	"adstream/internal/identity"
	"adstream/internal/models"
	"adstream/internal/repository"
)

// ListingService owns content listings and their ad slot inventory.
type ListingService struct {
	Repo          repository.Repository
	Logger        *zap.Logger
	Channels      channel.Provider
	Flags         *SystemSettingsService
	BiddingWindow time.Duration
	Now           func() time.Time
}

type SlotInput struct {
	SlotType        string
	ReservePrice    string
	DurationSeconds *int
	Position        *string
}

type CreateListingInput struct {
	Title              string
	Topic              string
	SeriesName         string
	Description        string
	PlannedPublishDate time.Time
	Slots              []SlotInput
}

// DiscoverItem is a listing as shown to brands.
type DiscoverItem struct {
	Listing     models.ContentListing
	PendingBids int64
	BiddingOpen bool
	Channel     *channel.Info
}

func (s *ListingService) CreateListing(ctx context.Context, caller identity.Identity, in CreateListingInput) (*models.ContentListing, error) {
	if !caller.Is(identity.RoleCreator) {
		return nil, apperr.Forbidden("only creators can create listings")
	}
	title := strings.TrimSpace(in.Title)
	topic := strings.TrimSpace(in.Topic)
	if title == "" {
		return nil, apperr.InvalidArgument("title is required")
	}
	if topic == "" {
		return nil, apperr.InvalidArgument("topic is required")
	}
	if in.PlannedPublishDate.IsZero() {
		return nil, apperr.InvalidArgument("planned publish date is required")
	}
	now := nowFrom(s.Now)
	publish := in.PlannedPublishDate.UTC()
	if !publish.After(now) {
		return nil, apperr.InvalidArgument("planned publish date must be in the future")
	}
	if len(in.Slots) == 0 {
		return nil, apperr.InvalidArgument("at least one ad slot is required")
	}
	slots, err := BuildSlots(in.Slots, now)
	if err != nil {
		return nil, err
	}

	listing := &models.ContentListing{
		CreatorID:          caller.UserID,
		ChannelID:          caller.ChannelID,
		Title:              title,
		Topic:              topic,
		SeriesName:         strings.TrimSpace(in.SeriesName),
		Description:        strings.TrimSpace(in.Description),
		PlannedPublishDate: publish,
		Status:             models.ListingStatusActive,
		AdSlots:            slots,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	err = s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		return s.Repo.CreateListingTx(ctx, tx, listing)
	})
	if err != nil {
		return nil, storeErr(err)
	}
	if s.Logger != nil {
		s.Logger.Info("listing created",
			zap.String("listing_id", listing.ID),
			zap.String("creator_id", listing.CreatorID),
			zap.Int("slots", len(listing.AdSlots)),
		)
	}
	return listing, nil
}

// BuildSlots validates slot specs and returns AVAILABLE slots ready to insert.
func BuildSlots(specs []SlotInput, now time.Time) ([]models.AdSlot, error) {
	out := make([]models.AdSlot, 0, len(specs))
	for i, spec := range specs {
		slotType := strings.ToUpper(strings.TrimSpace(spec.SlotType))
		if !models.IsValidSlotType(slotType) {
			return nil, apperr.Newf(apperr.KindInvalidArgument, "slot %d: unknown slot type %q", i+1, spec.SlotType)
		}
		reserve, err := parseMoney("reserve price", spec.ReservePrice)
		if err != nil {
			return nil, apperr.Newf(apperr.KindInvalidArgument, "slot %d: %s", i+1, apperr.MessageOf(err))
		}
		if spec.DurationSeconds != nil && *spec.DurationSeconds < 0 {
			return nil, apperr.Newf(apperr.KindInvalidArgument, "slot %d: duration must not be negative", i+1)
		}
		var position *string
		if spec.Position != nil {
			if p := strings.TrimSpace(*spec.Position); p != "" {
				position = &p
			}
		}
		out = append(out, models.AdSlot{
			SlotType:        slotType,
			ReservePrice:    reserve,
			DurationSeconds: spec.DurationSeconds,
			Position:        position,
			Status:          models.SlotStatusAvailable,
			CreatedAt:       now.Add(time.Duration(i) * time.Microsecond),
			UpdatedAt:       now,
		})
	}
	return out, nil
}

// AddSlots appends new AVAILABLE slots to an active listing owned by the caller.
func (s *ListingService) AddSlots(ctx context.Context, caller identity.Identity, listingID string, specs []SlotInput) ([]models.AdSlot, error) {
	if !caller.Is(identity.RoleCreator) {
		return nil, apperr.Forbidden("only creators can add ad slots")
	}
	if len(specs) == 0 {
		return nil, apperr.InvalidArgument("at least one ad slot is required")
	}
	now := nowFrom(s.Now)
	slots, err := BuildSlots(specs, now)
	if err != nil {
		return nil, err
	}
	err = s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		listing, err := s.Repo.GetListingByIDTx(ctx, tx, listingID)
		if err != nil {
			return err
		}
		if listing == nil {
			return apperr.NotFound("listing not found")
		}
		if listing.CreatorID != caller.UserID {
			return apperr.Forbidden("only the listing's creator can add slots")
		}
		if listing.Status != models.ListingStatusActive {
			return apperr.InvalidState("listing is closed")
		}
		for i := range slots {
			slots[i].ListingID = listing.ID
		}
		return s.Repo.CreateAdSlotsTx(ctx, tx, slots)
	})
	if err != nil {
		return nil, storeErr(err)
	}
	if s.Logger != nil {
		s.Logger.Info("ad slots added", zap.String("listing_id", listingID), zap.Int("slots", len(slots)))
	}
	return slots, nil
}

func (s *ListingService) GetListing(ctx context.Context, caller identity.Identity, id string) (*models.ContentListing, error) {
	if caller.IsZero() {
		return nil, apperr.Unauthorized("authentication required")
	}
	listing, err := s.Repo.GetListingByID(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}
	if listing == nil {
		return nil, apperr.NotFound("listing not found")
	}
	return listing, nil
}

// ListCreatorListings returns the caller's listings with their slots and received bids.
func (s *ListingService) ListCreatorListings(ctx context.Context, caller identity.Identity, page Page) ([]models.ContentListing, int64, error) {
	if !caller.Is(identity.RoleCreator) {
		return nil, 0, apperr.Forbidden("only creators have listings")
	}
	page = page.normalized()
	creatorID := caller.UserID
	params := repository.ListListingsParams{
		Limit:     page.Limit,
		Offset:    page.Offset,
		CreatorID: &creatorID,
		OrderBy:   "created_at",
	}
	items, err := s.Repo.ListListings(ctx, params)
	if err != nil {
		return nil, 0, storeErr(err)
	}
	total, err := s.Repo.CountListings(ctx, params)
	if err != nil {
		return nil, 0, storeErr(err)
	}
	return items, total, nil
}

// Discover lists active listings with a future publish date and at least one available slot,
// soonest first.
func (s *ListingService) Discover(ctx context.Context, caller identity.Identity, topic string, page Page) ([]DiscoverItem, int64, error) {
	if !caller.Is(identity.RoleBrand) && !caller.Is(identity.RoleAdmin) {
		return nil, 0, apperr.Forbidden("only brands can browse listings")
	}
	page = page.normalized()
	now := nowFrom(s.Now)
	params := repository.DiscoverParams{Limit: page.Limit, Offset: page.Offset, Now: now}
	if t := strings.TrimSpace(topic); t != "" {
		params.Topic = &t
	}
	listings, err := s.Repo.ListDiscoverableListings(ctx, params)
	if err != nil {
		return nil, 0, storeErr(err)
	}
	total, err := s.Repo.CountDiscoverableListings(ctx, params)
	if err != nil {
		return nil, 0, storeErr(err)
	}

	ids := make([]string, 0, len(listings))
	channelIDs := make([]string, 0, len(listings))
	for _, l := range listings {
		ids = append(ids, l.ID)
		channelIDs = append(channelIDs, l.ChannelID)
	}
	counts, err := s.Repo.CountPendingBidsByListingIDs(ctx, ids)
	if err != nil {
		return nil, 0, storeErr(err)
	}
	var channels map[string]channel.Info
	if s.Channels != nil && (s.Flags == nil || s.Flags.IsEnabled(ctx, FeatureChannelEnrichment, true)) {
		channels = channel.Lookups(ctx, s.Channels, channelIDs)
	}

	window := s.window()
	out := make([]DiscoverItem, 0, len(listings))
	for _, l := range listings {
		item := DiscoverItem{
			Listing:     l,
			PendingBids: counts[l.ID],
			BiddingOpen: BiddingOpen(l.PlannedPublishDate, now, window),
		}
		if info, ok := channels[l.ChannelID]; ok {
			item.Channel = &info
		}
		out = append(out, item)
	}
	return out, total, nil
}

func (s *ListingService) window() time.Duration {
	if s.BiddingWindow > 0 {
		return s.BiddingWindow
	}
	return DefaultBiddingWindow
}

// BiddingOpen reports whether a bid placed at now still leaves at least window before publish.
func BiddingOpen(publish, now time.Time, window time.Duration) bool {
	return publish.Sub(now) >= window
}
