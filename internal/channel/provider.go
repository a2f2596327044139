// Package channel looks up display metadata (title, subscribers) for creator channels.
// The values are shown to brands; no marketplace rule depends on them.
package channel

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"adstream/internal/cache"
)

var ErrNotFound = errors.New("channel not found")

type Info struct {
	ChannelID       string `json:"channel_id"`
	Title           string `json:"title"`
	SubscriberCount int64  `json:"subscriber_count"`
	ThumbnailURL    string `json:"thumbnail_url,omitempty"`
	URL             string `json:"url"`
}

type Provider interface {
	Lookup(ctx context.Context, channelID string) (*Info, error)
}

// CachedProvider serves lookups from a cache.Store and falls through to Next on a miss.
type CachedProvider struct {
	Next   Provider
	Cache  cache.Store
	TTL    time.Duration
	Logger *zap.Logger
}

func (p *CachedProvider) Lookup(ctx context.Context, channelID string) (*Info, error) {
	channelID = strings.TrimSpace(channelID)
	if channelID == "" {
		return nil, ErrNotFound
	}
	key := "channel:" + channelID
	if p.Cache != nil {
		var cached Info
		ok, err := cache.GetJSON(ctx, p.Cache, key, &cached)
		if err != nil && p.Logger != nil {
			p.Logger.Debug("channel cache read failed", zap.String("channel_id", channelID), zap.Error(err))
		}
		if ok {
			return &cached, nil
		}
	}
	if p.Next == nil {
		return nil, ErrNotFound
	}
	info, err := p.Next.Lookup(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if p.Cache != nil && info != nil {
		if err := cache.SetJSON(ctx, p.Cache, key, info, p.TTL); err != nil && p.Logger != nil {
			p.Logger.Debug("channel cache write failed", zap.String("channel_id", channelID), zap.Error(err))
		}
	}
	return info, nil
}

// Lookups resolves many channels best-effort; failures are skipped.
func Lookups(ctx context.Context, p Provider, channelIDs []string) map[string]Info {
	out := map[string]Info{}
	if p == nil {
		return out
	}
	for _, id := range channelIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := out[id]; ok {
			continue
		}
		info, err := p.Lookup(ctx, id)
		if err != nil || info == nil {
			continue
		}
		out[id] = *info
	}
	return out
}
