// Package prompt builds the analysis prompt sent to the generative model.
package prompt

import (
	"fmt"
	"strings"

	"tubeinsight/internal/models"
	"tubeinsight/shared/timeparse"
)

// Rough token budget for the transcript block. Characters approximate tokens
// at about 4:1 for English text.
const (
	defaultMaxTranscriptTokens = 6000
	charsPerToken              = 4
)

// Builder renders video records into analysis prompts.
type Builder struct {
	maxTranscriptTokens int
}

func NewBuilder() *Builder {
	return &Builder{maxTranscriptTokens: defaultMaxTranscriptTokens}
}

// WithTranscriptBudget overrides the transcript token budget. Zero or
// negative restores the default.
func (b *Builder) WithTranscriptBudget(tokens int) *Builder {
	if tokens <= 0 {
		tokens = defaultMaxTranscriptTokens
	}
	b.maxTranscriptTokens = tokens
	return b
}

// FormatTranscript lays out segments as "H:MM:SS: text" lines, truncating
// once the character budget is exhausted so long videos do not blow the
// model's context window.
func (b *Builder) FormatTranscript(segments []models.TranscriptSegment) string {
	charLimit := b.maxTranscriptTokens * charsPerToken
	var entries []string
	total := 0

	for _, seg := range segments {
		entry := fmt.Sprintf("%s: %s", timeparse.FormatTimestamp(seg.Start), seg.Text)
		entries = append(entries, entry)
		total += len(entry)
		if total > charLimit {
			entries = append(entries, "...[transcript truncated due to length]...")
			break
		}
	}
	return strings.Join(entries, "\n")
}

// Build renders the full analysis prompt for one video.
func (b *Builder) Build(video *models.Video) string {
	likes := "Unknown"
	if video.LikeCount != nil {
		likes = fmt.Sprintf("%d", *video.LikeCount)
	}
	tags := "None"
	if len(video.Tags) > 0 {
		tags = strings.Join(video.Tags, ", ")
	}

	transcriptText := b.FormatTranscript(video.Transcript)
	if transcriptText == "" {
		transcriptText = "(no transcript available)"
	}

	return fmt.Sprintf(`# YouTube Video Analysis Task

## Video Metadata
- TITLE: %s
- CHANNEL: %s
- VIEWS: %d
- LIKES: %s
- TAGS: %s

## Video Description
%s

## Transcript with Timestamps
%s

## Analysis Instructions
Analyze this YouTube video content thoroughly and provide a detailed structured analysis with the following components:

1. Identify the main topics discussed in the video (5-7 topics)
2. For each topic, determine approximate start and end timestamps based on the transcript
3. Extract 3-5 key points for each topic segment
4. Determine overall key points of the entire video (5-8 points)
5. Assess the general sentiment/tone (positive, negative, neutral, mixed, controversial)
6. Identify the likely target audience(s)
7. Evaluate language/education level (beginner, intermediate, advanced, technical, etc.)
8. Rate content quality on a scale of 1-10
9. Identify hooks or elements that drive viewer engagement
10. Write a comprehensive 3-5 sentence summary of the content
11. Evaluate educational value (if applicable)
12. Note any content warnings if applicable (sensitive topics, misleading information, etc.)
13. Suggest related topics that viewers might be interested in
14. List software tools or libraries mentioned, each with a short description

Respond with a single valid JSON object using exactly these keys:
"main_topics", "topic_segments" (objects with "topic", "start_time", "end_time", "key_points"),
"key_points", "sentiment", "target_audience", "language_level", "content_quality",
"engagement_hooks", "summary", "educational_value", "content_warnings",
"related_topics", "software_mentions" (objects with "name", "description").

Return ONLY the JSON object, with no commentary and no markdown fences.`,
		video.Title,
		video.Channel,
		video.ViewCount,
		likes,
		tags,
		video.Description,
		transcriptText,
	)
}

// SchemaHint is passed to the model client so providers that support response
// schemas can bias generation toward the record shape.
func SchemaHint() string {
	return `{
  "type": "object",
  "properties": {
    "main_topics": {"type": "array", "items": {"type": "string"}},
    "topic_segments": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "topic": {"type": "string"},
          "start_time": {"type": "number"},
          "end_time": {"type": "number"},
          "key_points": {"type": "array", "items": {"type": "string"}}
        }
      }
    },
    "key_points": {"type": "array", "items": {"type": "string"}},
    "sentiment": {"type": "string"},
    "target_audience": {"type": "array", "items": {"type": "string"}},
    "language_level": {"type": "string"},
    "content_quality": {"type": "integer"},
    "engagement_hooks": {"type": "array", "items": {"type": "string"}},
    "summary": {"type": "string"},
    "educational_value": {"type": "string"},
    "content_warnings": {"type": "array", "items": {"type": "string"}},
    "related_topics": {"type": "array", "items": {"type": "string"}},
    "software_mentions": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "name": {"type": "string"},
          "description": {"type": "string"}
        }
      }
    }
  },
  "required": ["main_topics", "key_points", "sentiment", "summary", "content_quality"]
}`
}
