package service

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var DefaultPlatformFeeRate = decimal.RequireFromString("0.20")

// FeeSplit is the frozen money breakdown of a deal. PlatformFee + CreatorPayout == Amount.
type FeeSplit struct {
	Amount        decimal.Decimal
	Rate          decimal.Decimal
	PlatformFee   decimal.Decimal
	CreatorPayout decimal.Decimal
}

// SplitFee rounds the platform fee to cents and gives the remainder to the creator.
func SplitFee(amount, rate decimal.Decimal) FeeSplit {
	fee := amount.Mul(rate).Round(2)
	return FeeSplit{
		Amount:        amount,
		Rate:          rate,
		PlatformFee:   fee,
		CreatorPayout: amount.Sub(fee),
	}
}

// ParseFeeRate reads a configured rate. An empty value means DefaultPlatformFeeRate.
func ParseFeeRate(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultPlatformFeeRate, nil
	}
	rate, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, err
	}
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return decimal.Zero, errors.New("platform fee rate must be in [0, 1)")
	}
	return rate, nil
}
