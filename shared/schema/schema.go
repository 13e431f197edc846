// Package schema declares the expected shape of every record the pipeline
// produces and coerces loosely-typed candidates into valid records. Coercion
// is total: a missing or malformed field falls back to its default instead of
// rejecting the whole record, because partial extraction is still worth
// keeping.
package schema

import (
	"fmt"
	"sort"
	"strings"

	"tubeinsight/internal/models"
)

// Limits and defaults applied during coercion.
const (
	MaxMainTopics         = 7
	MaxKeyPoints          = 8
	MinContentQuality     = 1
	MaxContentQuality     = 10
	DefaultContentQuality = 5

	DefaultSummary       = "Analysis failed. Summary could not be extracted."
	DefaultLanguageLevel = "Unknown"
)

// FieldIssue notes a candidate field that failed validation and was replaced
// by its default. Issues are diagnostic; they never abort coercion.
type FieldIssue struct {
	Field  string
	Reason string
}

func (e FieldIssue) Error() string {
	return fmt.Sprintf("field %q: %s", e.Field, e.Reason)
}

var sentimentVocabulary = []string{
	models.SentimentPositive,
	models.SentimentNegative,
	models.SentimentNeutral,
	models.SentimentMixed,
	models.SentimentControversial,
	models.SentimentUnknown,
}

// SentimentVocabulary returns the accepted sentiment values in their
// canonical Title-cased form.
func SentimentVocabulary() []string {
	out := make([]string, len(sentimentVocabulary))
	copy(out, sentimentVocabulary)
	return out
}

// NormalizeSentiment maps free-text sentiment onto the vocabulary, matching
// case-insensitively. Anything outside the vocabulary becomes Unknown.
func NormalizeSentiment(s string) string {
	s = strings.TrimSpace(s)
	for _, v := range sentimentVocabulary {
		if strings.EqualFold(s, v) {
			return v
		}
	}
	return models.SentimentUnknown
}

// ClampContentQuality forces a quality score into [1,10].
func ClampContentQuality(q int) int {
	if q < MinContentQuality {
		return MinContentQuality
	}
	if q > MaxContentQuality {
		return MaxContentQuality
	}
	return q
}

// ValidateAndCoerce turns a decoded candidate mapping into an Analysis tied
// to the given video. It never fails: every field that is absent or of the
// wrong shape is replaced by its default, and the replacement is reported as
// a FieldIssue so callers can log what was lost.
func ValidateAndCoerce(candidate map[string]any, video *models.Video) (*models.Analysis, []FieldIssue) {
	collected := make([]FieldIssue, 0)
	note := func(field, reason string) {
		collected = append(collected, FieldIssue{Field: field, Reason: reason})
	}

	a := &models.Analysis{
		OriginalData:     video,
		TargetAudience:   []string{"General audience"},
		LanguageLevel:    DefaultLanguageLevel,
		Sentiment:        models.SentimentUnknown,
		ContentQuality:   DefaultContentQuality,
		Summary:          DefaultSummary,
		MainTopics:       []string{},
		TopicSegments:    []models.TopicSegment{},
		KeyPoints:        []string{},
		EngagementHooks:  []string{},
		ContentWarnings:  []string{},
		RelatedTopics:    []string{},
		SoftwareMentions: []models.SoftwareMention{},
	}
	if candidate == nil {
		note("", "candidate is not a mapping")
		finalize(a)
		return a, collected
	}

	if v, ok := stringField(candidate, "summary"); ok && strings.TrimSpace(v) != "" {
		a.Summary = v
	} else if _, present := candidate["summary"]; present {
		note("summary", "not a non-empty string")
	}

	a.MainTopics = stringListField(candidate, "main_topics", note)
	a.KeyPoints = stringListField(candidate, "key_points", note)
	a.EngagementHooks = stringListField(candidate, "engagement_hooks", note)
	a.ContentWarnings = stringListField(candidate, "content_warnings", note)
	a.RelatedTopics = stringListField(candidate, "related_topics", note)

	if v, ok := stringListFieldOK(candidate, "target_audience"); ok && len(v) > 0 {
		a.TargetAudience = v
	} else if s, ok := stringField(candidate, "target_audience"); ok && s != "" {
		// Some model outputs use a single string rather than a list.
		a.TargetAudience = []string{s}
	}

	if v, ok := stringField(candidate, "sentiment"); ok {
		a.Sentiment = NormalizeSentiment(v)
	}
	if v, ok := stringField(candidate, "language_level"); ok && strings.TrimSpace(v) != "" {
		a.LanguageLevel = strings.TrimSpace(v)
	}
	if v, ok := stringField(candidate, "educational_value"); ok {
		a.EducationalValue = v
	}

	if raw, present := candidate["content_quality"]; present {
		if q, ok := numberField(raw); ok {
			a.ContentQuality = ClampContentQuality(int(q))
		} else {
			note("content_quality", "not numeric, using default")
		}
	}

	a.TopicSegments = topicSegmentsField(candidate, note)
	a.SoftwareMentions = softwareMentionsField(candidate, note)

	finalize(a)
	return a, collected
}

// finalize enforces the cross-field invariants after per-field coercion:
// list length caps, non-empty topic/key-point floors, and ordered segments.
func finalize(a *models.Analysis) {
	if len(a.MainTopics) > MaxMainTopics {
		a.MainTopics = a.MainTopics[:MaxMainTopics]
	}
	if len(a.KeyPoints) > MaxKeyPoints {
		a.KeyPoints = a.KeyPoints[:MaxKeyPoints]
	}
	if len(a.MainTopics) == 0 {
		a.MainTopics = []string{"Topic extraction failed"}
	}
	if len(a.KeyPoints) == 0 {
		a.KeyPoints = []string{"Key points extraction failed"}
	}
	if strings.TrimSpace(a.Summary) == "" {
		a.Summary = DefaultSummary
	}
	a.ContentQuality = ClampContentQuality(a.ContentQuality)
	a.Sentiment = NormalizeSentiment(a.Sentiment)

	for i := range a.TopicSegments {
		if a.TopicSegments[i].EndTime < a.TopicSegments[i].StartTime {
			a.TopicSegments[i].EndTime = a.TopicSegments[i].StartTime
		}
		if a.TopicSegments[i].KeyPoints == nil {
			a.TopicSegments[i].KeyPoints = []string{}
		}
	}
	sort.SliceStable(a.TopicSegments, func(i, j int) bool {
		return a.TopicSegments[i].StartTime < a.TopicSegments[j].StartTime
	})
}

// NormalizeVideo repairs a video record in place: negative counters and
// durations become zero, empty identity fields get their unknown defaults,
// and transcript segments are sorted with negative offsets dropped.
func NormalizeVideo(v *models.Video) {
	if v.Duration < 0 {
		v.Duration = 0
	}
	if v.ViewCount < 0 {
		v.ViewCount = 0
	}
	if v.LikeCount != nil && *v.LikeCount < 0 {
		v.LikeCount = nil
	}
	if v.CommentCount != nil && *v.CommentCount < 0 {
		v.CommentCount = nil
	}
	if v.Channel == "" {
		v.Channel = "Unknown"
	}
	if v.ChannelID == "" {
		v.ChannelID = "Unknown"
	}
	if v.PublishedAt == "" {
		v.PublishedAt = "Unknown"
	}
	if v.Tags == nil {
		v.Tags = []string{}
	}
	v.Transcript = NormalizeSegments(v.Transcript)
}

// NormalizeSegments drops segments with negative offsets or empty text and
// returns the rest ordered by start offset.
func NormalizeSegments(segments []models.TranscriptSegment) []models.TranscriptSegment {
	out := make([]models.TranscriptSegment, 0, len(segments))
	for _, seg := range segments {
		if seg.Start < 0 || strings.TrimSpace(seg.Text) == "" {
			continue
		}
		if seg.Duration < 0 {
			seg.Duration = 0
		}
		out = append(out, seg)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

func stringField(m map[string]any, key string) (string, bool) {
	v, ok := m[key].(string)
	return v, ok
}

func numberField(raw any) (float64, bool) {
	switch n := raw.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func stringListFieldOK(m map[string]any, key string) ([]string, bool) {
	raw, present := m[key]
	if !present {
		return nil, false
	}
	items, ok := raw.([]any)
	if !ok {
		if typed, ok := raw.([]string); ok {
			return typed, true
		}
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out, true
}

func stringListField(m map[string]any, key string, note func(field, reason string)) []string {
	if _, present := m[key]; !present {
		return []string{}
	}
	out, ok := stringListFieldOK(m, key)
	if !ok {
		note(key, "not a list of strings")
		return []string{}
	}
	return out
}

func topicSegmentsField(m map[string]any, note func(field, reason string)) []models.TopicSegment {
	raw, present := m["topic_segments"]
	if !present {
		return []models.TopicSegment{}
	}
	if typed, ok := raw.([]models.TopicSegment); ok {
		return typed
	}
	items, ok := raw.([]any)
	if !ok {
		note("topic_segments", "not a list")
		return []models.TopicSegment{}
	}

	out := make([]models.TopicSegment, 0, len(items))
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			note("topic_segments", "entry is not a mapping")
			continue
		}
		topic, _ := stringField(entry, "topic")
		if strings.TrimSpace(topic) == "" {
			note("topic_segments", "entry has no topic label")
			continue
		}
		start, _ := numberField(entry["start_time"])
		end, okEnd := numberField(entry["end_time"])
		if !okEnd || end < start {
			end = start
		}
		seg := models.TopicSegment{
			Topic:     topic,
			StartTime: start,
			EndTime:   end,
			KeyPoints: []string{},
		}
		if points, ok := stringListFieldOK(entry, "key_points"); ok {
			seg.KeyPoints = points
		}
		out = append(out, seg)
	}
	return out
}

func softwareMentionsField(m map[string]any, note func(field, reason string)) []models.SoftwareMention {
	raw, present := m["software_mentions"]
	if !present {
		return []models.SoftwareMention{}
	}
	if typed, ok := raw.([]models.SoftwareMention); ok {
		return typed
	}
	items, ok := raw.([]any)
	if !ok {
		note("software_mentions", "not a list")
		return []models.SoftwareMention{}
	}
	out := make([]models.SoftwareMention, 0, len(items))
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name, _ := stringField(entry, "name")
		if strings.TrimSpace(name) == "" {
			continue
		}
		desc, _ := stringField(entry, "description")
		out = append(out, models.SoftwareMention{Name: name, Description: desc})
	}
	return out
}
