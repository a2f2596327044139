package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adstream/internal/apperr"
	"adstream/internal/identity"
	"adstream/internal/models"
)

func TestPlaceBid_DerivesCreatorAndListing(t *testing.T) {
	f := newFixture(t)
	l := f.listing(t, creatorAlice, 10*24*time.Hour, "100")

	b, err := f.bids.PlaceBid(context.Background(), brandAcme, PlaceBidInput{
		SlotID:  l.AdSlots[0].ID,
		Amount:  "150.50",
		Message: "  launch campaign ",
	})
	require.NoError(t, err)
	assert.Equal(t, models.BidStatusPending, b.Status)
	assert.Equal(t, creatorAlice.UserID, b.CreatorID)
	assert.Equal(t, l.ID, b.ListingID)
	assert.Equal(t, brandAcme.UserID, b.BrandID)
	assert.Equal(t, "launch campaign", b.Message)
	assert.Equal(t, "150.50", b.Amount.StringFixed(2))

	stored := f.reloadBid(t, b.ID)
	assert.True(t, stored.Amount.Equal(b.Amount))
}

func TestPlaceBid_Validation(t *testing.T) {
	f := newFixture(t)
	l := f.listing(t, creatorAlice, 10*24*time.Hour, "100")
	slotID := l.AdSlots[0].ID

	cases := []struct {
		name   string
		caller identity.Identity
		slotID string
		amount string
		kind   apperr.Kind
	}{
		{name: "creator cannot bid", caller: creatorAlice, slotID: slotID, amount: "150", kind: apperr.KindForbidden},
		{name: "garbage amount", caller: brandAcme, slotID: slotID, amount: "lots", kind: apperr.KindInvalidArgument},
		{name: "zero amount", caller: brandAcme, slotID: slotID, amount: "0", kind: apperr.KindInvalidArgument},
		{name: "negative amount", caller: brandAcme, slotID: slotID, amount: "-10", kind: apperr.KindInvalidArgument},
		{name: "sub-cent amount", caller: brandAcme, slotID: slotID, amount: "150.001", kind: apperr.KindInvalidArgument},
		{name: "unknown slot", caller: brandAcme, slotID: "missing", amount: "150", kind: apperr.KindNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.bids.PlaceBid(context.Background(), tc.caller, PlaceBidInput{SlotID: tc.slotID, Amount: tc.amount})
			require.Error(t, err)
			assert.Equal(t, tc.kind, apperr.KindOf(err))
		})
	}
}

func TestPlaceBid_ReserveBoundary(t *testing.T) {
	f := newFixture(t)
	l := f.listing(t, creatorAlice, 10*24*time.Hour, "100")
	slotID := l.AdSlots[0].ID

	_, err := f.bids.PlaceBid(context.Background(), brandAcme, PlaceBidInput{SlotID: slotID, Amount: "99.99"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
	assert.Equal(t, "bid must be at least $100.00", apperr.MessageOf(err))

	b, err := f.bids.PlaceBid(context.Background(), brandAcme, PlaceBidInput{SlotID: slotID, Amount: "100"})
	require.NoError(t, err)
	assert.Equal(t, models.BidStatusPending, b.Status)
}

func TestPlaceBid_WindowBoundary(t *testing.T) {
	f := newFixture(t)
	exact := f.listing(t, creatorAlice, 72*time.Hour)
	short := f.listing(t, creatorAlice, 72*time.Hour-time.Minute)

	_, err := f.bids.PlaceBid(context.Background(), brandAcme, PlaceBidInput{SlotID: exact.AdSlots[0].ID, Amount: "100"})
	require.NoError(t, err)

	_, err = f.bids.PlaceBid(context.Background(), brandAcme, PlaceBidInput{SlotID: short.AdSlots[0].ID, Amount: "100"})
	assert.ErrorIs(t, err, ErrBiddingWindowClosed)
}

func TestPlaceBid_SoldSlotIsUnavailable(t *testing.T) {
	f := newFixture(t)
	l := f.listing(t, creatorAlice, 10*24*time.Hour)
	slotID := l.AdSlots[0].ID

	b := f.bid(t, brandAcme, slotID, "120")
	_, err := f.settle.AcceptBid(context.Background(), creatorAlice, b.ID, "")
	require.NoError(t, err)

	_, err = f.bids.PlaceBid(context.Background(), brandGlobex, PlaceBidInput{SlotID: slotID, Amount: "500"})
	assert.ErrorIs(t, err, ErrSlotUnavailable)
}

func TestPlaceBid_NoDeduplication(t *testing.T) {
	f := newFixture(t)
	l := f.listing(t, creatorAlice, 10*24*time.Hour)
	a := f.bid(t, brandAcme, l.AdSlots[0].ID, "120")
	b := f.bid(t, brandAcme, l.AdSlots[0].ID, "120")
	assert.NotEqual(t, a.ID, b.ID)
}

func TestRejectBid(t *testing.T) {
	f := newFixture(t)
	l := f.listing(t, creatorAlice, 10*24*time.Hour)
	b := f.bid(t, brandAcme, l.AdSlots[0].ID, "120")
	ctx := context.Background()

	_, err := f.bids.RejectBid(ctx, creatorBob, b.ID, "")
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	rejected, err := f.bids.RejectBid(ctx, creatorAlice, b.ID, "wrong audience")
	require.NoError(t, err)
	assert.Equal(t, models.BidStatusRejected, rejected.Status)
	assert.Equal(t, "Rejected: wrong audience", rejected.Message)

	_, err = f.bids.RejectBid(ctx, creatorAlice, b.ID, "")
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))
	assert.Equal(t, "bid is no longer pending", apperr.MessageOf(err))

	slot := f.reloadSlot(t, l.AdSlots[0].ID)
	assert.Equal(t, models.SlotStatusAvailable, slot.Status)
}

func TestRejectBid_WithoutReasonKeepsMessage(t *testing.T) {
	f := newFixture(t)
	l := f.listing(t, creatorAlice, 10*24*time.Hour)
	b, err := f.bids.PlaceBid(context.Background(), brandAcme, PlaceBidInput{SlotID: l.AdSlots[0].ID, Amount: "120", Message: "hi"})
	require.NoError(t, err)

	rejected, err := f.bids.RejectBid(context.Background(), creatorAlice, b.ID, "  ")
	require.NoError(t, err)
	assert.Equal(t, "hi", rejected.Message)
}

func TestListBids_ScopedByRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.listing(t, creatorAlice, 10*24*time.Hour)
	bob := f.listing(t, creatorBob, 10*24*time.Hour)
	f.bid(t, brandAcme, alice.AdSlots[0].ID, "120")
	f.bid(t, brandAcme, bob.AdSlots[0].ID, "130")
	f.bid(t, brandGlobex, alice.AdSlots[0].ID, "140")

	items, total, err := f.bids.ListBids(ctx, brandAcme, ListBidsInput{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, it := range items {
		assert.Equal(t, brandAcme.UserID, it.BrandID)
	}

	items, total, err = f.bids.ListBids(ctx, creatorAlice, ListBidsInput{Status: "pending"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, it := range items {
		assert.Equal(t, creatorAlice.UserID, it.CreatorID)
	}

	_, _, err = f.bids.ListBids(ctx, brandAcme, ListBidsInput{Status: "WON"})
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))

	_, total, err = f.bids.ListBids(ctx, adminRoot, ListBidsInput{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
}

func TestGetBid_PartiesOnly(t *testing.T) {
	f := newFixture(t)
	l := f.listing(t, creatorAlice, 10*24*time.Hour)
	b := f.bid(t, brandAcme, l.AdSlots[0].ID, "120")
	ctx := context.Background()

	_, err := f.bids.GetBid(ctx, brandAcme, b.ID)
	assert.NoError(t, err)
	_, err = f.bids.GetBid(ctx, creatorAlice, b.ID)
	assert.NoError(t, err)
	_, err = f.bids.GetBid(ctx, brandGlobex, b.ID)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	_, err = f.bids.GetBid(ctx, adminRoot, "nope")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
