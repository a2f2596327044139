package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"gorm.io/datatypes"

	"adstream/internal/apperr"
	"adstream/internal/identity"
	"adstream/internal/models"
	"adstream/internal/repository"
)

const (
	FeatureBidExpirySweep    = "feature.bid_expiry_sweep"
	FeatureChannelEnrichment = "feature.channel_enrichment"
)

func DefaultFeatureSwitches() map[string]bool {
	return map[string]bool{
		FeatureBidExpirySweep:    true,
		FeatureChannelEnrichment: true,
	}
}

type SystemSettingsService struct {
	Repo repository.Repository
}

// EnsureDefaultSwitches creates missing switches. Existing values are left alone.
func (s *SystemSettingsService) EnsureDefaultSwitches(ctx context.Context) error {
	if s == nil || s.Repo == nil {
		return nil
	}
	now := time.Now().UTC()
	for key, enabled := range DefaultFeatureSwitches() {
		existing, err := s.Repo.GetSystemSettingByKey(ctx, key)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		raw, _ := json.Marshal(enabled)
		item := &models.SystemSetting{
			Key:         key,
			Value:       datatypes.JSON(raw),
			Description: "feature switch",
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.Repo.UpsertSystemSetting(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

func (s *SystemSettingsService) IsEnabled(ctx context.Context, key string, fallback bool) bool {
	if s == nil || s.Repo == nil {
		return fallback
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fallback
	}
	item, err := s.Repo.GetSystemSettingByKey(ctx, key)
	if err != nil || item == nil || len(item.Value) == 0 {
		return fallback
	}
	var enabled bool
	if err := json.Unmarshal(item.Value, &enabled); err != nil {
		return fallback
	}
	return enabled
}

func (s *SystemSettingsService) SetEnabled(ctx context.Context, caller identity.Identity, key string, enabled bool) error {
	if !caller.Is(identity.RoleAdmin) {
		return apperr.Forbidden("only admins can change feature switches")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return apperr.InvalidArgument("switch key is required")
	}
	raw, _ := json.Marshal(enabled)
	now := time.Now().UTC()
	item := &models.SystemSetting{
		Key:         key,
		Value:       datatypes.JSON(raw),
		Description: "feature switch",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return storeErr(s.Repo.UpsertSystemSetting(ctx, item))
}

func (s *SystemSettingsService) Put(ctx context.Context, caller identity.Identity, key string, value any, description string) (*models.SystemSetting, error) {
	if !caller.Is(identity.RoleAdmin) {
		return nil, apperr.Forbidden("only admins can change system settings")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, apperr.InvalidArgument("setting key is required")
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, apperr.InvalidArgument("setting value must be JSON")
	}
	now := time.Now().UTC()
	item := &models.SystemSetting{
		Key:         key,
		Value:       datatypes.JSON(raw),
		Description: strings.TrimSpace(description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Repo.UpsertSystemSetting(ctx, item); err != nil {
		return nil, storeErr(err)
	}
	next, err := s.Repo.GetSystemSettingByKey(ctx, key)
	if err != nil {
		return nil, storeErr(err)
	}
	return next, nil
}
