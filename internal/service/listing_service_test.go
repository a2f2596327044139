package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adstream/internal/apperr"
	"adstream/internal/channel"
	"adstream/internal/models"
)

func TestCreateListing_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	future := f.now.Add(7 * 24 * time.Hour)
	slot := []SlotInput{{SlotType: "SHOUTOUT", ReservePrice: "50"}}
	negative := -5

	cases := []struct {
		name string
		in   CreateListingInput
		kind apperr.Kind
	}{
		{"missing title", CreateListingInput{Topic: "tech", PlannedPublishDate: future, Slots: slot}, apperr.KindInvalidArgument},
		{"missing topic", CreateListingInput{Title: "t", PlannedPublishDate: future, Slots: slot}, apperr.KindInvalidArgument},
		{"missing date", CreateListingInput{Title: "t", Topic: "tech", Slots: slot}, apperr.KindInvalidArgument},
		{"past date", CreateListingInput{Title: "t", Topic: "tech", PlannedPublishDate: f.now, Slots: slot}, apperr.KindInvalidArgument},
		{"no slots", CreateListingInput{Title: "t", Topic: "tech", PlannedPublishDate: future}, apperr.KindInvalidArgument},
		{"unknown slot type", CreateListingInput{Title: "t", Topic: "tech", PlannedPublishDate: future,
			Slots: []SlotInput{{SlotType: "BILLBOARD", ReservePrice: "10"}}}, apperr.KindInvalidArgument},
		{"negative reserve", CreateListingInput{Title: "t", Topic: "tech", PlannedPublishDate: future,
			Slots: []SlotInput{{SlotType: "STORY", ReservePrice: "-1"}}}, apperr.KindInvalidArgument},
		{"negative duration", CreateListingInput{Title: "t", Topic: "tech", PlannedPublishDate: future,
			Slots: []SlotInput{{SlotType: "STORY", ReservePrice: "1", DurationSeconds: &negative}}}, apperr.KindInvalidArgument},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.listings.CreateListing(ctx, creatorAlice, tc.in)
			require.Error(t, err)
			assert.Equal(t, tc.kind, apperr.KindOf(err))
		})
	}

	_, err := f.listings.CreateListing(ctx, brandAcme, CreateListingInput{Title: "t", Topic: "tech", PlannedPublishDate: future, Slots: slot})
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestCreateListing_PersistsSlots(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dur := 60
	pos := "mid-roll"
	l, err := f.listings.CreateListing(ctx, creatorAlice, CreateListingInput{
		Title:              "Episode 12",
		Topic:              "tech",
		SeriesName:         "Build log",
		PlannedPublishDate: f.now.Add(7 * 24 * time.Hour),
		Slots: []SlotInput{
			{SlotType: "in_video_integration", ReservePrice: "250.00", DurationSeconds: &dur, Position: &pos},
			{SlotType: "DESCRIPTION_LINK", ReservePrice: "0"},
		},
	})
	require.NoError(t, err)

	got, err := f.listings.GetListing(ctx, brandAcme, l.ID)
	require.NoError(t, err)
	assert.Equal(t, "UCalice", got.ChannelID)
	assert.Equal(t, "Build log", got.SeriesName)
	assert.Equal(t, models.ListingStatusActive, got.Status)
	require.Len(t, got.AdSlots, 2)
	assert.Equal(t, models.SlotTypeInVideoIntegration, got.AdSlots[0].SlotType)
	assert.Equal(t, "250.00", got.AdSlots[0].ReservePrice.StringFixed(2))
	require.NotNil(t, got.AdSlots[0].DurationSeconds)
	assert.Equal(t, 60, *got.AdSlots[0].DurationSeconds)
	assert.Equal(t, models.SlotStatusAvailable, got.AdSlots[1].Status)

	_, err = f.listings.GetListing(ctx, brandAcme, "missing")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestAddSlots(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.listing(t, creatorAlice, 7*24*time.Hour)
	more := []SlotInput{{SlotType: "LIVE_MENTION", ReservePrice: "75"}}

	_, err := f.listings.AddSlots(ctx, creatorBob, l.ID, more)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	slots, err := f.listings.AddSlots(ctx, creatorAlice, l.ID, more)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, l.ID, slots[0].ListingID)

	got, err := f.listings.GetListing(ctx, creatorAlice, l.ID)
	require.NoError(t, err)
	assert.Len(t, got.AdSlots, 2)

	require.NoError(t, f.db.Model(&models.ContentListing{}).Where("id = ?", l.ID).Update("status", models.ListingStatusClosed).Error)
	_, err = f.listings.AddSlots(ctx, creatorAlice, l.ID, more)
	assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))
}

func TestListCreatorListings_IncludesBids(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.listing(t, creatorAlice, 7*24*time.Hour)
	f.listing(t, creatorBob, 7*24*time.Hour)
	f.bid(t, brandAcme, l.AdSlots[0].ID, "120")

	items, total, err := f.listings.ListCreatorListings(ctx, creatorAlice, Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Len(t, items[0].Bids, 1)
	assert.Len(t, items[0].AdSlots, 1)

	_, _, err = f.listings.ListCreatorListings(ctx, brandAcme, Page{})
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

type stubChannels map[string]channel.Info

func (s stubChannels) Lookup(ctx context.Context, id string) (*channel.Info, error) {
	info, ok := s[id]
	if !ok {
		return nil, channel.ErrNotFound
	}
	return &info, nil
}

func TestDiscover(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.listings.Channels = stubChannels{"UCalice": {ChannelID: "UCalice", Title: "Alice Cooks", SubscriberCount: 42000}}

	late := f.listing(t, creatorAlice, 20*24*time.Hour)
	early := f.listing(t, creatorBob, 5*24*time.Hour)
	closing := f.listing(t, creatorAlice, 48*time.Hour)
	sold := f.listing(t, creatorAlice, 6*24*time.Hour)

	f.bid(t, brandAcme, late.AdSlots[0].ID, "110")
	f.bid(t, brandGlobex, late.AdSlots[0].ID, "120")
	won := f.bid(t, brandAcme, sold.AdSlots[0].ID, "120")
	_, err := f.settle.AcceptBid(ctx, creatorAlice, won.ID, "")
	require.NoError(t, err)

	items, total, err := f.listings.Discover(ctx, brandAcme, "", Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, items, 3)

	assert.Equal(t, closing.ID, items[0].Listing.ID)
	assert.False(t, items[0].BiddingOpen)
	assert.Equal(t, early.ID, items[1].Listing.ID)
	assert.True(t, items[1].BiddingOpen)
	assert.Nil(t, items[1].Channel)
	assert.Equal(t, late.ID, items[2].Listing.ID)
	assert.Equal(t, int64(2), items[2].PendingBids)
	require.NotNil(t, items[2].Channel)
	assert.Equal(t, int64(42000), items[2].Channel.SubscriberCount)

	_, _, err = f.listings.Discover(ctx, creatorAlice, "", Page{})
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	_, total, err = f.listings.Discover(ctx, brandAcme, "FOOD", Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	_, total, err = f.listings.Discover(ctx, brandAcme, "gaming", Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
}
