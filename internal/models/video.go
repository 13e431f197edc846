package models

// TranscriptSegment is a single caption span. Segments are ordered by Start
// and Start is never negative.
type TranscriptSegment struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration,omitempty"`
}

// Video holds everything we know about a video before analysis: metadata from
// the YouTube Data API plus the fetched transcript. It is built once per
// pipeline run and not mutated afterwards.
type Video struct {
	VideoID      string              `json:"video_id"`
	Title        string              `json:"title"`
	Description  string              `json:"description"`
	Channel      string              `json:"channel"`
	ChannelID    string              `json:"channel_id"`
	PublishedAt  string              `json:"published_at"`
	Transcript   []TranscriptSegment `json:"transcript"`
	ThumbnailURL string              `json:"thumbnail_url,omitempty"`
	Duration     int                 `json:"duration"`
	ViewCount    int64               `json:"view_count"`
	LikeCount    *int64              `json:"like_count,omitempty"`
	CommentCount *int64              `json:"comment_count,omitempty"`
	Tags         []string            `json:"tags"`
}

// TranscriptEnd returns the end offset of the last transcript segment, or 0
// when no transcript is available.
func (v *Video) TranscriptEnd() float64 {
	if len(v.Transcript) == 0 {
		return 0
	}
	last := v.Transcript[len(v.Transcript)-1]
	return last.Start + last.Duration
}

// TranscriptText joins all segment texts with single spaces.
func (v *Video) TranscriptText() string {
	if len(v.Transcript) == 0 {
		return ""
	}
	out := ""
	for i, seg := range v.Transcript {
		if i > 0 {
			out += " "
		}
		out += seg.Text
	}
	return out
}

// UnknownVideo returns the placeholder record substituted when metadata
// retrieval fails. Every field carries a schema-valid default so downstream
// stages can still run.
func UnknownVideo(videoID string) *Video {
	return &Video{
		VideoID:     videoID,
		Title:       "Error retrieving data",
		Description: "An error occurred while retrieving video data",
		Channel:     "Unknown",
		ChannelID:   "Unknown",
		PublishedAt: "Unknown",
		Transcript:  []TranscriptSegment{},
		Tags:        []string{},
	}
}
