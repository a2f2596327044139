package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"adstream/internal/identity"
	"adstream/internal/models"
	gormrepository "adstream/internal/repository/gorm"
	"adstream/internal/testutil"
)

type fixture struct {
	db   *gorm.DB
	repo *gormrepository.Store
	now  time.Time

	settings *SystemSettingsService
	listings *ListingService
	bids     *BidService
	settle   *SettlementService
	delivery *DeliveryService
	sweeper  *BidExpirySweeper
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	f := &fixture{
		db:   db,
		repo: gormrepository.New(db),
		now:  time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return f.now }
	f.settings = &SystemSettingsService{Repo: f.repo}
	f.listings = &ListingService{Repo: f.repo, Flags: f.settings, Now: clock}
	f.bids = &BidService{Repo: f.repo, Now: clock}
	f.settle = &SettlementService{Repo: f.repo, FeeRate: DefaultPlatformFeeRate, Now: clock}
	f.delivery = &DeliveryService{Repo: f.repo, Now: clock}
	f.sweeper = &BidExpirySweeper{Repo: f.repo, Flags: f.settings, Now: clock}
	return f
}

// listing creates an active listing publishing after the given delay, one slot per reserve price.
func (f *fixture) listing(t *testing.T, creator identity.Identity, publishIn time.Duration, reserves ...string) *models.ContentListing {
	t.Helper()
	if len(reserves) == 0 {
		reserves = []string{"100"}
	}
	slots := make([]SlotInput, 0, len(reserves))
	for _, r := range reserves {
		slots = append(slots, SlotInput{SlotType: models.SlotTypeInVideoIntegration, ReservePrice: r})
	}
	l, err := f.listings.CreateListing(context.Background(), creator, CreateListingInput{
		Title:              "Weekly cooking stream",
		Topic:              "food",
		PlannedPublishDate: f.now.Add(publishIn),
		Slots:              slots,
	})
	require.NoError(t, err)
	require.Len(t, l.AdSlots, len(reserves))
	return l
}

func (f *fixture) bid(t *testing.T, brand identity.Identity, slotID, amount string) *models.Bid {
	t.Helper()
	b, err := f.bids.PlaceBid(context.Background(), brand, PlaceBidInput{SlotID: slotID, Amount: amount})
	require.NoError(t, err)
	return b
}

func (f *fixture) reloadBid(t *testing.T, id string) *models.Bid {
	t.Helper()
	b, err := f.repo.GetBidByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, b)
	return b
}

func (f *fixture) reloadSlot(t *testing.T, id string) *models.AdSlot {
	t.Helper()
	s, err := f.repo.GetAdSlotByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, s)
	return s
}

func (f *fixture) countDeals(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.Deal{}).Count(&n).Error)
	return n
}

var (
	creatorAlice = identity.Identity{UserID: "creator-alice", Role: identity.RoleCreator, ChannelID: "UCalice"}
	creatorBob   = identity.Creator("creator-bob")
	brandAcme    = identity.Brand("brand-acme")
	brandGlobex  = identity.Brand("brand-globex")
	adminRoot    = identity.Admin("admin-root")
)
