package models

// Sentiment vocabulary accepted by the analysis schema. Anything else is
// coerced to SentimentUnknown.
const (
	SentimentPositive      = "Positive"
	SentimentNegative      = "Negative"
	SentimentNeutral       = "Neutral"
	SentimentMixed         = "Mixed"
	SentimentControversial = "Controversial"
	SentimentUnknown       = "Unknown"
)

// TopicSegment maps a detected topic to a time window inside the video.
// EndTime is always >= StartTime.
type TopicSegment struct {
	Topic     string   `json:"topic"`
	StartTime float64  `json:"start_time"`
	EndTime   float64  `json:"end_time"`
	KeyPoints []string `json:"key_points"`
}

// SoftwareMention is a tool or library the video talks about.
type SoftwareMention struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Analysis is the structured result of a model run over one video. Instances
// are produced either by strict decoding of model output or by fallback
// extraction; in both cases the schema contract guarantees the invariants
// documented on each field.
type Analysis struct {
	OriginalData     *Video            `json:"original_data"`
	MainTopics       []string          `json:"main_topics"`      // at most 7
	TopicSegments    []TopicSegment    `json:"topic_segments"`   // ordered by start time
	KeyPoints        []string          `json:"key_points"`       // at most 8
	Sentiment        string            `json:"sentiment"`        // sentiment vocabulary above
	TargetAudience   []string          `json:"target_audience"`
	LanguageLevel    string            `json:"language_level"`
	ContentQuality   int               `json:"content_quality"` // 1..10
	EngagementHooks  []string          `json:"engagement_hooks"`
	Summary          string            `json:"summary"` // never empty
	EducationalValue string            `json:"educational_value,omitempty"`
	ContentWarnings  []string          `json:"content_warnings"`
	RelatedTopics    []string          `json:"related_topics"`
	SoftwareMentions []SoftwareMention `json:"software_mentions"`
}
