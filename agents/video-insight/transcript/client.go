// Package transcript fetches timed caption tracks from the YouTube timedtext
// endpoint. Videos without a caption track yield (nil, nil); transport
// problems are retried with exponential backoff before surfacing as errors.
package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"tubeinsight/internal/models"
)

const (
	timedtextURL    = "https://www.youtube.com/api/timedtext"
	maxRetryElapsed = 30 * time.Second
)

type Client struct {
	httpClient *http.Client
	baseURL    string
	language   string
	log        *logrus.Entry
}

func NewClient(language string, log *logrus.Entry) *Client {
	if language == "" {
		language = "en"
	}
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    timedtextURL,
		language:   language,
		log:        log,
	}
}

// Fetch retrieves the caption track for a video in the configured language,
// falling back to auto-generated captions when no manual track exists.
func (c *Client) Fetch(ctx context.Context, videoID string) ([]models.TranscriptSegment, error) {
	segments, err := c.fetchTrack(ctx, videoID, "")
	if err != nil {
		return nil, err
	}
	if segments == nil {
		// No manual track; try the ASR (auto-generated) one.
		segments, err = c.fetchTrack(ctx, videoID, "asr")
		if err != nil {
			return nil, err
		}
	}
	if segments != nil {
		c.log.WithFields(logrus.Fields{
			"video_id": videoID,
			"segments": len(segments),
		}).Debug("Fetched caption track")
	}
	return segments, nil
}

// fetchTrack requests one timedtext track variant. An empty response body
// means the track does not exist, which the endpoint reports with status 200.
func (c *Client) fetchTrack(ctx context.Context, videoID, kind string) ([]models.TranscriptSegment, error) {
	params := url.Values{}
	params.Set("v", videoID)
	params.Set("lang", c.language)
	params.Set("fmt", "json3")
	if kind != "" {
		params.Set("kind", kind)
	}
	endpoint := c.baseURL + "?" + params.Encode()

	var body []byte
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("timedtext request failed: %w", err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			body = nil
			return nil
		case resp.StatusCode >= 500:
			return fmt.Errorf("timedtext returned status %d", resp.StatusCode)
		case resp.StatusCode != http.StatusOK:
			return backoff.Permanent(fmt.Errorf("timedtext returned status %d", resp.StatusCode))
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read timedtext response: %w", err)
		}
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = maxRetryElapsed

	if err := backoff.Retry(op, backoff.WithContext(policy, ctx)); err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, nil
	}
	return parseJSON3(body)
}

// json3 wire format: events carry a start offset and duration in
// milliseconds plus a list of text segments.
type json3Response struct {
	Events []struct {
		StartMs    float64 `json:"tStartMs"`
		DurationMs float64 `json:"dDurationMs"`
		Segs       []struct {
			UTF8 string `json:"utf8"`
		} `json:"segs"`
	} `json:"events"`
}

func parseJSON3(body []byte) ([]models.TranscriptSegment, error) {
	var decoded json3Response
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode timedtext response: %w", err)
	}
	if len(decoded.Events) == 0 {
		return nil, nil
	}

	segments := make([]models.TranscriptSegment, 0, len(decoded.Events))
	for _, event := range decoded.Events {
		var sb strings.Builder
		for _, seg := range event.Segs {
			sb.WriteString(seg.UTF8)
		}
		text := strings.TrimSpace(strings.ReplaceAll(sb.String(), "\n", " "))
		if text == "" {
			continue
		}
		segments = append(segments, models.TranscriptSegment{
			Text:     text,
			Start:    event.StartMs / 1000,
			Duration: event.DurationMs / 1000,
		})
	}
	if len(segments) == 0 {
		return nil, nil
	}
	return segments, nil
}
