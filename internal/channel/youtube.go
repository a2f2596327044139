package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// YouTubeClient reads channel snippets and statistics from the YouTube Data API v3.
type YouTubeClient struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

type channelsResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title      string `json:"title"`
			Thumbnails struct {
				Default struct {
					URL string `json:"url"`
				} `json:"default"`
			} `json:"thumbnails"`
		} `json:"snippet"`
		Statistics struct {
			SubscriberCount string `json:"subscriberCount"`
		} `json:"statistics"`
	} `json:"items"`
}

func (c *YouTubeClient) Lookup(ctx context.Context, channelID string) (*Info, error) {
	channelID = strings.TrimSpace(channelID)
	if channelID == "" {
		return nil, ErrNotFound
	}
	if strings.TrimSpace(c.APIKey) == "" {
		return nil, errors.New("youtube api key is empty")
	}
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		base = "https://www.googleapis.com/youtube/v3"
	}
	q := url.Values{}
	q.Set("part", "snippet,statistics")
	q.Set("id", channelID)
	q.Set("key", c.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/channels?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("youtube channels http %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var out channelsResponse
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, ErrNotFound
	}
	item := out.Items[0]
	subs, _ := strconv.ParseInt(item.Statistics.SubscriberCount, 10, 64)
	return &Info{
		ChannelID:       item.ID,
		Title:           item.Snippet.Title,
		SubscriberCount: subs,
		ThumbnailURL:    item.Snippet.Thumbnails.Default.URL,
		URL:             "https://youtube.com/channel/" + item.ID,
	}, nil
}

func (c *YouTubeClient) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return &http.Client{Timeout: 10 * time.Second}
}
