package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adstream/internal/apperr"
	"adstream/internal/models"
)

func (f *fixture) deal(t *testing.T, timing string) *models.Deal {
	t.Helper()
	l := f.listing(t, creatorAlice, 10*24*time.Hour)
	b := f.bid(t, brandAcme, l.AdSlots[0].ID, "200")
	res, err := f.settle.AcceptBid(context.Background(), creatorAlice, b.ID, timing)
	require.NoError(t, err)
	return &res.Deal
}

func TestSubmitContent_OnceOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.deal(t, "")

	_, err := f.delivery.SubmitContent(ctx, creatorBob, d.ID, "https://youtube.com/watch?v=abc")
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	for _, bad := range []string{"", "youtube.com/watch?v=abc", "ftp://files/x", "/relative"} {
		_, err = f.delivery.SubmitContent(ctx, creatorAlice, d.ID, bad)
		assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err), bad)
	}

	out, err := f.delivery.SubmitContent(ctx, creatorAlice, d.ID, "https://youtube.com/watch?v=abc")
	require.NoError(t, err)
	assert.True(t, out.ContentDelivered)
	assert.Equal(t, "https://youtube.com/watch?v=abc", out.ContentURL)
	require.NotNil(t, out.DeliveredAt)
	assert.True(t, out.DeliveredAt.Equal(f.now))
	assert.Equal(t, models.VerificationPending, out.VerificationStatus)

	_, err = f.delivery.SubmitContent(ctx, creatorAlice, d.ID, "https://youtube.com/watch?v=other")
	assert.ErrorIs(t, err, ErrContentAlreadySubmitted)
	_, err = f.delivery.SubmitContent(ctx, creatorAlice, d.ID, "not a url")
	assert.ErrorIs(t, err, ErrContentAlreadySubmitted)

	again, err := f.delivery.GetDeal(ctx, creatorAlice, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://youtube.com/watch?v=abc", again.ContentURL)
}

func TestSubmitContent_RequiresPendingVerification(t *testing.T) {
	f := newFixture(t)
	d := f.deal(t, "")
	require.NoError(t, f.db.Model(&models.Deal{}).Where("id = ?", d.ID).Update("verification_status", models.VerificationRejected).Error)

	_, err := f.delivery.SubmitContent(context.Background(), creatorAlice, d.ID, "https://youtube.com/watch?v=abc")
	assert.ErrorIs(t, err, ErrDealNotSubmittable)
	_, err = f.delivery.SubmitContent(context.Background(), creatorAlice, d.ID, "")
	assert.ErrorIs(t, err, ErrDealNotSubmittable)
}

func TestReviewDelivery_ApprovalMakesPaymentPayable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.deal(t, "")

	_, err := f.delivery.ReviewDelivery(ctx, brandAcme, d.ID, "APPROVED", "")
	assert.ErrorIs(t, err, ErrContentNotSubmitted)

	_, err = f.delivery.SubmitContent(ctx, creatorAlice, d.ID, "https://youtube.com/watch?v=abc")
	require.NoError(t, err)

	_, err = f.delivery.ReviewDelivery(ctx, brandGlobex, d.ID, "APPROVED", "")
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	_, err = f.delivery.ReviewDelivery(ctx, creatorAlice, d.ID, "APPROVED", "")
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	_, err = f.delivery.ReviewDelivery(ctx, brandAcme, d.ID, "MAYBE", "")
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))

	out, err := f.delivery.ReviewDelivery(ctx, brandAcme, d.ID, "approved", "looks great")
	require.NoError(t, err)
	assert.Equal(t, models.VerificationApproved, out.VerificationStatus)
	assert.Equal(t, "looks great", out.VerificationNotes)
	assert.Equal(t, models.PaymentStatusProcessing, out.PaymentStatus)
	assert.Nil(t, out.CompletedAt)

	_, err = f.delivery.ReviewDelivery(ctx, brandAcme, d.ID, "REJECTED", "")
	assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))

	paid, err := f.delivery.UpdatePaymentStatus(ctx, adminRoot, d.ID, "PAID")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, paid.PaymentStatus)
	require.NotNil(t, paid.CompletedAt)

	entries, err := f.delivery.Ledger(ctx, adminRoot, d.ID)
	require.NoError(t, err)
	kinds := make([]string, 0, len(entries))
	for _, e := range entries {
		kinds = append(kinds, e.Kind)
	}
	assert.Equal(t, []string{
		models.LedgerDealCreated,
		models.LedgerContentSubmitted,
		models.LedgerVerificationReviewed,
		models.LedgerPaymentUpdated,
	}, kinds)
}

func TestReviewDelivery_DisputeResolvedByAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.deal(t, "")
	_, err := f.delivery.SubmitContent(ctx, creatorAlice, d.ID, "https://youtube.com/watch?v=abc")
	require.NoError(t, err)

	out, err := f.delivery.ReviewDelivery(ctx, brandAcme, d.ID, "DISPUTED", "mention was cut")
	require.NoError(t, err)
	assert.Equal(t, models.VerificationDisputed, out.VerificationStatus)
	assert.Equal(t, models.PaymentStatusPending, out.PaymentStatus)

	_, err = f.delivery.ReviewDelivery(ctx, brandAcme, d.ID, "REJECTED", "")
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	_, err = f.delivery.ReviewDelivery(ctx, adminRoot, d.ID, "DISPUTED", "")
	assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))

	out, err = f.delivery.ReviewDelivery(ctx, adminRoot, d.ID, "REJECTED", "not delivered as agreed")
	require.NoError(t, err)
	assert.Equal(t, models.VerificationRejected, out.VerificationStatus)
	assert.Equal(t, models.PaymentStatusPending, out.PaymentStatus)

	_, err = f.delivery.UpdatePaymentStatus(ctx, adminRoot, d.ID, "PROCESSING")
	assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))
}

func TestUpdatePaymentStatus_UpfrontFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.deal(t, "UPFRONT")

	_, err := f.delivery.UpdatePaymentStatus(ctx, brandAcme, d.ID, "PROCESSING")
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	_, err = f.delivery.UpdatePaymentStatus(ctx, adminRoot, d.ID, "SENT")
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
	_, err = f.delivery.UpdatePaymentStatus(ctx, adminRoot, d.ID, "PAID")
	assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))

	for _, step := range []string{"PROCESSING", "FAILED", "PROCESSING", "PAID"} {
		out, err := f.delivery.UpdatePaymentStatus(ctx, adminRoot, d.ID, step)
		require.NoError(t, err, step)
		assert.Equal(t, step, out.PaymentStatus)
		assert.Nil(t, out.CompletedAt)
	}

	_, err = f.delivery.SubmitContent(ctx, creatorAlice, d.ID, "https://youtube.com/watch?v=abc")
	require.NoError(t, err)
	out, err := f.delivery.ReviewDelivery(ctx, brandAcme, d.ID, "APPROVED", "")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, out.PaymentStatus)
	require.NotNil(t, out.CompletedAt)

	out, err = f.delivery.UpdatePaymentStatus(ctx, adminRoot, d.ID, "REFUNDED")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusRefunded, out.PaymentStatus)
}

func TestPaymentTransitionAllowed(t *testing.T) {
	cases := []struct {
		from, timing, verification, to string
		want                           bool
	}{
		{models.PaymentStatusPending, models.PaymentTimingUpfront, models.VerificationPending, models.PaymentStatusProcessing, true},
		{models.PaymentStatusPending, models.PaymentTimingAfterDelivery, models.VerificationPending, models.PaymentStatusProcessing, false},
		{models.PaymentStatusPending, models.PaymentTimingAfterDelivery, models.VerificationApproved, models.PaymentStatusProcessing, true},
		{models.PaymentStatusPending, models.PaymentTimingUpfront, models.VerificationPending, models.PaymentStatusPaid, false},
		{models.PaymentStatusProcessing, models.PaymentTimingUpfront, models.VerificationPending, models.PaymentStatusPaid, true},
		{models.PaymentStatusProcessing, models.PaymentTimingUpfront, models.VerificationPending, models.PaymentStatusFailed, true},
		{models.PaymentStatusProcessing, models.PaymentTimingUpfront, models.VerificationPending, models.PaymentStatusRefunded, false},
		{models.PaymentStatusFailed, models.PaymentTimingUpfront, models.VerificationPending, models.PaymentStatusProcessing, true},
		{models.PaymentStatusPaid, models.PaymentTimingUpfront, models.VerificationApproved, models.PaymentStatusRefunded, true},
		{models.PaymentStatusRefunded, models.PaymentTimingUpfront, models.VerificationApproved, models.PaymentStatusProcessing, false},
	}
	for _, tc := range cases {
		d := &models.Deal{PaymentStatus: tc.from, PaymentTiming: tc.timing, VerificationStatus: tc.verification}
		assert.Equal(t, tc.want, PaymentTransitionAllowed(d, tc.to), "%s -> %s (%s, %s)", tc.from, tc.to, tc.timing, tc.verification)
	}
}

func TestListDeals_Filters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	open := f.deal(t, "")
	done := f.deal(t, "")
	_, err := f.delivery.SubmitContent(ctx, creatorAlice, done.ID, "https://youtube.com/watch?v=done")
	require.NoError(t, err)
	_, err = f.delivery.ReviewDelivery(ctx, brandAcme, done.ID, "APPROVED", "")
	require.NoError(t, err)

	items, total, err := f.delivery.ListDeals(ctx, creatorAlice, "completed", Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, done.ID, items[0].ID)

	items, total, err = f.delivery.ListDeals(ctx, brandAcme, "pending", Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, open.ID, items[0].ID)

	_, total, err = f.delivery.ListDeals(ctx, brandAcme, "active", Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	_, total, err = f.delivery.ListDeals(ctx, brandGlobex, "", Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)

	_, _, err = f.delivery.ListDeals(ctx, adminRoot, "archived", Page{})
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
}
