package handler

import (
	"encoding/json"
	"time"

	"adstream/internal/channel"
	"adstream/internal/models"
	"adstream/internal/service"
)

// Response DTOs. Money is always a fixed-point string with two decimals.

type SlotView struct {
	ID              string    `json:"id"`
	ListingID       string    `json:"listing_id"`
	SlotType        string    `json:"slot_type"`
	ReservePrice    string    `json:"reserve_price"`
	DurationSeconds *int      `json:"duration_seconds,omitempty"`
	Position        *string   `json:"position,omitempty"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}

type ListingView struct {
	ID                 string     `json:"id"`
	CreatorID          string     `json:"creator_id"`
	ChannelID          string     `json:"channel_id,omitempty"`
	Title              string     `json:"title"`
	Topic              string     `json:"topic"`
	SeriesName         string     `json:"series_name,omitempty"`
	Description        string     `json:"description,omitempty"`
	PlannedPublishDate time.Time  `json:"planned_publish_date"`
	Status             string     `json:"status"`
	AdSlots            []SlotView `json:"ad_slots"`
	Bids               []BidView  `json:"bids,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

type DiscoverView struct {
	ListingView
	PendingBids int64         `json:"pending_bids"`
	BiddingOpen bool          `json:"bidding_open"`
	Channel     *channel.Info `json:"channel,omitempty"`
}

type BidView struct {
	ID        string    `json:"id"`
	BrandID   string    `json:"brand_id"`
	SlotID    string    `json:"slot_id"`
	ListingID string    `json:"listing_id"`
	CreatorID string    `json:"creator_id"`
	Amount    string    `json:"amount"`
	Message   string    `json:"message,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type DealView struct {
	ID                 string     `json:"id"`
	BidID              string     `json:"bid_id"`
	SlotID             string     `json:"slot_id"`
	CreatorID          string     `json:"creator_id"`
	BrandID            string     `json:"brand_id"`
	DealAmount         string     `json:"deal_amount"`
	PlatformFee        string     `json:"platform_fee"`
	CreatorPayout      string     `json:"creator_payout"`
	PaymentTiming      string     `json:"payment_timing"`
	PaymentStatus      string     `json:"payment_status"`
	ContentDelivered   bool       `json:"content_delivered"`
	ContentURL         string     `json:"content_url,omitempty"`
	DeliveredAt        *time.Time `json:"delivered_at,omitempty"`
	VerificationStatus string     `json:"verification_status"`
	VerificationNotes  string     `json:"verification_notes,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`

	SlotType string           `json:"slot_type,omitempty"`
	Listing  *DealListingView `json:"listing,omitempty"`
}

// DealListingView is the part of the listing a deal row needs for display.
type DealListingView struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	Topic              string    `json:"topic"`
	ChannelID          string    `json:"channel_id,omitempty"`
	PlannedPublishDate time.Time `json:"planned_publish_date"`
}

type AcceptView struct {
	Bid  BidView  `json:"bid"`
	Deal DealView `json:"deal"`
}

type LedgerEntryView struct {
	ID        uint64          `json:"id"`
	DealID    string          `json:"deal_id"`
	Kind      string          `json:"kind"`
	ActorID   string          `json:"actor_id"`
	Details   json.RawMessage `json:"details,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

func slotView(s models.AdSlot) SlotView {
	return SlotView{
		ID:              s.ID,
		ListingID:       s.ListingID,
		SlotType:        s.SlotType,
		ReservePrice:    s.ReservePrice.StringFixed(2),
		DurationSeconds: s.DurationSeconds,
		Position:        s.Position,
		Status:          s.Status,
		CreatedAt:       s.CreatedAt,
	}
}

func slotViews(items []models.AdSlot) []SlotView {
	out := make([]SlotView, 0, len(items))
	for _, it := range items {
		out = append(out, slotView(it))
	}
	return out
}

func listingView(l models.ContentListing) ListingView {
	v := ListingView{
		ID:                 l.ID,
		CreatorID:          l.CreatorID,
		ChannelID:          l.ChannelID,
		Title:              l.Title,
		Topic:              l.Topic,
		SeriesName:         l.SeriesName,
		Description:        l.Description,
		PlannedPublishDate: l.PlannedPublishDate,
		Status:             l.Status,
		AdSlots:            slotViews(l.AdSlots),
		CreatedAt:          l.CreatedAt,
		UpdatedAt:          l.UpdatedAt,
	}
	if len(l.Bids) > 0 {
		v.Bids = bidViews(l.Bids)
	}
	return v
}

func listingViews(items []models.ContentListing) []ListingView {
	out := make([]ListingView, 0, len(items))
	for _, it := range items {
		out = append(out, listingView(it))
	}
	return out
}

func discoverViews(items []service.DiscoverItem) []DiscoverView {
	out := make([]DiscoverView, 0, len(items))
	for _, it := range items {
		out = append(out, DiscoverView{
			ListingView: listingView(it.Listing),
			PendingBids: it.PendingBids,
			BiddingOpen: it.BiddingOpen,
			Channel:     it.Channel,
		})
	}
	return out
}

func bidView(b models.Bid) BidView {
	return BidView{
		ID:        b.ID,
		BrandID:   b.BrandID,
		SlotID:    b.SlotID,
		ListingID: b.ListingID,
		CreatorID: b.CreatorID,
		Amount:    b.Amount.StringFixed(2),
		Message:   b.Message,
		Status:    b.Status,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

func bidViews(items []models.Bid) []BidView {
	out := make([]BidView, 0, len(items))
	for _, it := range items {
		out = append(out, bidView(it))
	}
	return out
}

func dealView(d models.Deal) DealView {
	v := DealView{
		ID:                 d.ID,
		BidID:              d.BidID,
		SlotID:             d.SlotID,
		CreatorID:          d.CreatorID,
		BrandID:            d.BrandID,
		DealAmount:         d.DealAmount.StringFixed(2),
		PlatformFee:        d.PlatformFee.StringFixed(2),
		CreatorPayout:      d.CreatorPayout.StringFixed(2),
		PaymentTiming:      d.PaymentTiming,
		PaymentStatus:      d.PaymentStatus,
		ContentDelivered:   d.ContentDelivered,
		ContentURL:         d.ContentURL,
		DeliveredAt:        d.DeliveredAt,
		VerificationStatus: d.VerificationStatus,
		VerificationNotes:  d.VerificationNotes,
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
		CompletedAt:        d.CompletedAt,
	}
	if d.Slot != nil {
		v.SlotType = d.Slot.SlotType
		if l := d.Slot.Listing; l != nil {
			v.Listing = &DealListingView{
				ID:                 l.ID,
				Title:              l.Title,
				Topic:              l.Topic,
				ChannelID:          l.ChannelID,
				PlannedPublishDate: l.PlannedPublishDate,
			}
		}
	}
	return v
}

func dealViews(items []models.Deal) []DealView {
	out := make([]DealView, 0, len(items))
	for _, it := range items {
		out = append(out, dealView(it))
	}
	return out
}

func ledgerViews(items []models.LedgerEntry) []LedgerEntryView {
	out := make([]LedgerEntryView, 0, len(items))
	for _, it := range items {
		out = append(out, LedgerEntryView{
			ID:        it.ID,
			DealID:    it.DealID,
			Kind:      it.Kind,
			ActorID:   it.ActorID,
			Details:   json.RawMessage(it.Details),
			CreatedAt: it.CreatedAt,
		})
	}
	return out
}
