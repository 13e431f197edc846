// Package youtube fetches video and channel metadata from the YouTube Data
// API. It authenticates with an API key when one is configured and falls back
// to the OAuth device flow otherwise, persisting refreshed tokens to disk.
package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"tubeinsight/internal/models"
	"tubeinsight/shared/config"
	"tubeinsight/shared/pipeline"
	"tubeinsight/shared/storage"
	"tubeinsight/shared/timeparse"
)

type Client struct {
	service *youtube.Service
	cache   *storage.ChannelCache
	log     *logrus.Entry
}

// NewClient builds the metadata client. API-key auth is preferred; when no
// key is configured the OAuth device flow runs, which may block on user
// interaction the first time.
func NewClient(ctx context.Context, cfg *config.YouTubeConfig, cache *storage.ChannelCache, log *logrus.Entry) (*Client, error) {
	var opts []option.ClientOption
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	} else {
		oauthConfig := &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Scopes:       []string{"https://www.googleapis.com/auth/youtube.readonly"},
			Endpoint:     google.Endpoint,
		}
		token, err := getToken(oauthConfig, cfg.TokenFile, log)
		if err != nil {
			return nil, fmt.Errorf("failed to get OAuth token: %w", err)
		}
		httpClient := oauth2.NewClient(ctx, &tokenSaver{
			config:    oauthConfig,
			token:     token,
			tokenFile: cfg.TokenFile,
			log:       log,
		})
		opts = append(opts, option.WithHTTPClient(httpClient))
	}

	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	return &Client{service: service, cache: cache, log: log}, nil
}

// Fetch retrieves the metadata for one video. Returns (nil, nil) when the
// video does not exist so the caller can distinguish absence from transport
// failure.
func (c *Client) Fetch(ctx context.Context, videoID string) (*models.Video, error) {
	call := c.service.Videos.List([]string{"snippet", "contentDetails", "statistics"}).
		Id(videoID).
		Context(ctx)

	resp, err := call.Do()
	if err != nil {
		return nil, classifyAPIError(err)
	}
	if len(resp.Items) == 0 {
		return nil, nil
	}

	item := resp.Items[0]
	video := &models.Video{
		VideoID:     item.Id,
		Title:       item.Snippet.Title,
		Description: item.Snippet.Description,
		Channel:     item.Snippet.ChannelTitle,
		ChannelID:   item.Snippet.ChannelId,
		PublishedAt: item.Snippet.PublishedAt,
		Tags:        item.Snippet.Tags,
	}

	if item.ContentDetails != nil {
		video.Duration = timeparse.ParseISODuration(item.ContentDetails.Duration)
	}
	if item.Snippet.Thumbnails != nil && item.Snippet.Thumbnails.High != nil {
		video.ThumbnailURL = item.Snippet.Thumbnails.High.Url
	}
	if item.Statistics != nil {
		video.ViewCount = int64(item.Statistics.ViewCount)
		if item.Statistics.LikeCount > 0 {
			likes := int64(item.Statistics.LikeCount)
			video.LikeCount = &likes
		}
		if item.Statistics.CommentCount > 0 {
			comments := int64(item.Statistics.CommentCount)
			video.CommentCount = &comments
		}
	}

	// Warm the channel cache alongside the video lookup. Failures here are
	// cosmetic; the video record is already complete.
	if video.ChannelID != "" {
		if info, err := c.Channel(ctx, video.ChannelID); err != nil {
			c.log.WithError(err).WithField("channel_id", video.ChannelID).Debug("Channel lookup failed")
		} else if info.Title != "" {
			video.Channel = info.Title
		}
	}

	return video, nil
}

// Channel returns channel metadata, served from the TTL cache when fresh.
// Cache write failures are logged and ignored; the lookup result is still
// returned.
func (c *Client) Channel(ctx context.Context, channelID string) (storage.ChannelInfo, error) {
	if c.cache != nil {
		if info, ok := c.cache.Get(channelID); ok {
			return info, nil
		}
	}

	call := c.service.Channels.List([]string{"snippet", "statistics"}).
		Id(channelID).
		Context(ctx)

	resp, err := call.Do()
	if err != nil {
		return storage.ChannelInfo{}, classifyAPIError(err)
	}
	if len(resp.Items) == 0 {
		return storage.ChannelInfo{}, fmt.Errorf("%w: channel %s", pipeline.ErrNotFound, channelID)
	}

	item := resp.Items[0]
	info := storage.ChannelInfo{
		ID:          item.Id,
		Title:       item.Snippet.Title,
		Description: item.Snippet.Description,
	}
	if item.Statistics != nil {
		info.SubscriberCount = int64(item.Statistics.SubscriberCount)
	}

	if c.cache != nil {
		if err := c.cache.Put(info); err != nil {
			c.log.WithError(err).Warn("Failed to persist channel cache")
		}
	}
	return info, nil
}

// classifyAPIError maps Data API errors onto the pipeline failure taxonomy so
// the orchestrator records a meaningful cause.
func classifyAPIError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == 404:
			return fmt.Errorf("%w: %v", pipeline.ErrNotFound, err)
		case apiErr.Code == 403 && hasReason(apiErr, "quotaExceeded", "rateLimitExceeded", "dailyLimitExceeded"):
			return fmt.Errorf("%w: %v", pipeline.ErrQuotaExceeded, err)
		}
	}
	return err
}

func hasReason(apiErr *googleapi.Error, reasons ...string) bool {
	for _, item := range apiErr.Errors {
		for _, reason := range reasons {
			if item.Reason == reason {
				return true
			}
		}
	}
	return false
}

// tokenSaver wraps an oauth2.TokenSource to persist refreshed tokens so they
// survive restarts.
type tokenSaver struct {
	config    *oauth2.Config
	token     *oauth2.Token
	tokenFile string
	log       *logrus.Entry
	mu        sync.Mutex
}

func (ts *tokenSaver) Token() (*oauth2.Token, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	newToken, err := ts.config.TokenSource(context.Background(), ts.token).Token()
	if err != nil {
		return nil, err
	}

	if newToken.AccessToken != ts.token.AccessToken {
		ts.log.Info("Token refreshed, saving to file")
		ts.token = newToken
		if err := saveToken(ts.tokenFile, newToken); err != nil {
			ts.log.WithError(err).Warn("Failed to save refreshed token")
		}
	}
	return newToken, nil
}

// getToken loads a token from disk, keeping expired tokens that carry a
// refresh token since those can be refreshed transparently. Only when no
// usable token exists does the device flow run.
func getToken(config *oauth2.Config, tokenFile string, log *logrus.Entry) (*oauth2.Token, error) {
	tok, err := tokenFromFile(tokenFile)
	if err == nil {
		if tok.RefreshToken != "" {
			log.WithField("expires", tok.Expiry).Debug("Loaded token from file")
			return tok, nil
		}
		if tok.Valid() {
			return tok, nil
		}
	}

	log.Info("Getting new token via device authorization flow")
	tok, err = getTokenWithDeviceFlow(config)
	if err != nil {
		return nil, fmt.Errorf("device authorization failed: %w. Ensure your OAuth client is created as 'TVs and Limited Input devices' and that the YouTube Data API v3 is enabled", err)
	}

	if err := saveToken(tokenFile, tok); err != nil {
		log.WithError(err).Warn("Failed to save token")
	}
	return tok, nil
}

func getTokenWithDeviceFlow(config *oauth2.Config) (*oauth2.Token, error) {
	ctx := context.Background()

	resp, err := config.DeviceAuth(ctx, oauth2.AccessTypeOffline)
	if err != nil {
		return nil, fmt.Errorf("unable to start device authorization: %w", err)
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 80))
	fmt.Printf("YOUTUBE DEVICE AUTHORIZATION REQUIRED\n")
	fmt.Printf("%s\n", strings.Repeat("=", 80))
	fmt.Printf("1. Visit %s in your browser (any device works).\n", resp.VerificationURI)
	fmt.Printf("2. Enter this code when prompted: %s\n\n", resp.UserCode)
	fmt.Printf("Waiting for authorization to complete... (Ctrl+C to cancel)\n")

	tok, err := config.DeviceAccessToken(ctx, resp, oauth2.AccessTypeOffline)
	if err != nil {
		return nil, fmt.Errorf("device authorization did not complete: %w", err)
	}
	return tok, nil
}

func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

func saveToken(path string, token *oauth2.Token) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("unable to create token directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to cache oauth token: %w", err)
	}
	defer f.Close()

	return json.NewEncoder(f).Encode(token)
}
