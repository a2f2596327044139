package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adstream/internal/models"
)

func TestBidExpirySweeper_ExpiresBidsOfPublishedListings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	soon := f.listing(t, creatorAlice, 4*24*time.Hour, "10", "10")
	later := f.listing(t, creatorAlice, 30*24*time.Hour)

	pending := f.bid(t, brandAcme, soon.AdSlots[0].ID, "20")
	won := f.bid(t, brandAcme, soon.AdSlots[1].ID, "20")
	untouched := f.bid(t, brandAcme, later.AdSlots[0].ID, "150")
	_, err := f.settle.AcceptBid(ctx, creatorAlice, won.ID, "")
	require.NoError(t, err)

	res, err := f.sweeper.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, SweepResult{}, res)

	f.now = f.now.Add(5 * 24 * time.Hour)
	res, err = f.sweeper.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.ExpiredBids)
	assert.Equal(t, int64(1), res.ClosedListings)

	assert.Equal(t, models.BidStatusExpired, f.reloadBid(t, pending.ID).Status)
	assert.Equal(t, models.BidStatusAccepted, f.reloadBid(t, won.ID).Status)
	assert.Equal(t, models.BidStatusPending, f.reloadBid(t, untouched.ID).Status)

	l, err := f.repo.GetListingByID(ctx, soon.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ListingStatusClosed, l.Status)

	res, err = f.sweeper.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, SweepResult{}, res)
}

func TestBidExpirySweeper_DisabledBySwitch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.listing(t, creatorAlice, 4*24*time.Hour)
	b := f.bid(t, brandAcme, l.AdSlots[0].ID, "150")

	require.NoError(t, f.settings.SetEnabled(ctx, adminRoot, FeatureBidExpirySweep, false))
	f.now = f.now.Add(5 * 24 * time.Hour)

	res, err := f.sweeper.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, SweepResult{}, res)
	assert.Equal(t, models.BidStatusPending, f.reloadBid(t, b.ID).Status)
}
