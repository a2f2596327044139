package channel

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adstream/internal/cache"
)

func TestYouTubeClient_Lookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/channels", r.URL.Path)
		assert.Equal(t, "UCabc", r.URL.Query().Get("id"))
		assert.Equal(t, "k", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"id":"UCabc","snippet":{"title":"Cooking Lab","thumbnails":{"default":{"url":"https://img/x.jpg"}}},"statistics":{"subscriberCount":"125000"}}]}`))
	}))
	defer srv.Close()

	c := &YouTubeClient{BaseURL: srv.URL, APIKey: "k", HTTP: srv.Client()}
	info, err := c.Lookup(context.Background(), "UCabc")
	require.NoError(t, err)
	assert.Equal(t, "Cooking Lab", info.Title)
	assert.Equal(t, int64(125000), info.SubscriberCount)
	assert.Equal(t, "https://youtube.com/channel/UCabc", info.URL)
}

func TestYouTubeClient_EmptyItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items":[]}`))
	}))
	defer srv.Close()

	c := &YouTubeClient{BaseURL: srv.URL, APIKey: "k", HTTP: srv.Client()}
	_, err := c.Lookup(context.Background(), "UCmissing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

type countingProvider struct {
	calls int
}

func (p *countingProvider) Lookup(ctx context.Context, channelID string) (*Info, error) {
	p.calls++
	return &Info{ChannelID: channelID, Title: "t", SubscriberCount: 10}, nil
}

func TestCachedProvider_HitsCacheOnSecondLookup(t *testing.T) {
	next := &countingProvider{}
	p := &CachedProvider{Next: next, Cache: cache.NewMemoryStore(), TTL: time.Hour}

	for i := 0; i < 3; i++ {
		info, err := p.Lookup(context.Background(), "UC1")
		require.NoError(t, err)
		assert.Equal(t, int64(10), info.SubscriberCount)
	}
	assert.Equal(t, 1, next.calls)
}

func TestLookups_SkipsBlankAndDuplicates(t *testing.T) {
	next := &countingProvider{}
	out := Lookups(context.Background(), next, []string{"UC1", "", "UC1", "UC2"})
	assert.Len(t, out, 2)
	assert.Equal(t, 2, next.calls)
}
