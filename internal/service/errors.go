package service

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"adstream/internal/apperr"
	"adstream/internal/repository"
)

var (
	ErrSlotUnavailable         = apperr.Conflict("slot no longer available")
	ErrBiddingWindowClosed     = apperr.Conflict("bidding window closed")
	ErrBidNotPending           = apperr.Conflict("bid is no longer pending")
	ErrContentAlreadySubmitted = apperr.Conflict("content already submitted")
	ErrDealNotSubmittable      = apperr.Conflict("deal is not in a valid state for content submission")
	ErrContentNotSubmitted     = apperr.Conflict("content has not been submitted")
	ErrDealChanged             = apperr.Conflict("deal was modified concurrently")
)

// DefaultBiddingWindow is how long before the planned publish date bidding closes.
const DefaultBiddingWindow = 72 * time.Hour

type Page struct {
	Limit  int
	Offset int
}

func (p Page) normalized() Page {
	if p.Limit <= 0 {
		p.Limit = 50
	}
	if p.Limit > 200 {
		p.Limit = 200
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

func nowFrom(fn func() time.Time) time.Time {
	if fn != nil {
		return fn().UTC()
	}
	return time.Now().UTC()
}

// storeErr classifies a repository failure. Races become ErrSlotUnavailable only in settlement.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrWriteConflict) {
		return apperr.Wrap(apperr.KindConflict, "concurrent update, refresh and retry", err)
	}
	return apperr.Infrastructure(err)
}

// parseMoney reads a non-negative amount with at most two decimal places.
func parseMoney(field, raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, apperr.Newf(apperr.KindInvalidArgument, "%s is required", field)
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, apperr.Newf(apperr.KindInvalidArgument, "%s must be a decimal number", field)
	}
	if v.IsNegative() {
		return decimal.Zero, apperr.Newf(apperr.KindInvalidArgument, "%s must not be negative", field)
	}
	if !v.Equal(v.Round(2)) {
		return decimal.Zero, apperr.Newf(apperr.KindInvalidArgument, "%s must have at most two decimal places", field)
	}
	return v.Round(2), nil
}
