package parse

import (
	"fmt"
	"regexp"
	"strings"

	"tubeinsight/internal/models"
	"tubeinsight/shared/schema"
	"tubeinsight/shared/timeparse"
)

// Keywords that turn a line into a section header even without a heading
// marker. The trailing colon keeps prose mentions from being misread as
// headers.
var sectionKeywords = []string{"topics:", "sentiment:", "audience:", "key points:", "summary:"}

var levelKeywords = []string{"beginner", "intermediate", "advanced", "technical", "academic", "professional"}

// When a topic has no chronologically later topic and the video has no
// transcript, its segment gets this fixed window.
const defaultTopicWindow = 300.0

var (
	bulletRe       = regexp.MustCompile(`^[-*•]\s*`)
	numberedRe     = regexp.MustCompile(`^\d+\.\s*`)
	headingMarkRe  = regexp.MustCompile(`^#+\s*`)
	summaryFieldRe = regexp.MustCompile(`"summary"\s*:\s*"([^"]+)"`)
	nameFieldRe    = regexp.MustCompile(`"name"\s*:\s*"([^"]+)"`)
)

type section struct {
	name  string
	lines []string
}

// Extract recovers a best-effort analysis from model text that failed strict
// decoding. It never fails and has no hidden state: the same input always
// produces the same record. Internally each heuristic that finds nothing
// simply leaves its field to the schema contract's defaults.
func Extract(raw string, video *models.Video) *models.Analysis {
	sections := splitSections(raw)

	var (
		mainTopics    []string
		keyPoints     []string
		sentiment     string
		languageLevel string
		summary       string
	)
	timestamps := map[string]float64{}

	for _, sec := range sections {
		joined := strings.ToLower(strings.Join(sec.lines, " "))

		if strings.Contains(sec.name, "topic") || strings.Contains(sec.name, "main") {
			if topics := bulletItems(sec.lines); len(topics) > 0 {
				mainTopics = cleanTopicLabels(topics)
			} else if topics := delimitedItems(sec.lines); len(topics) > 0 {
				mainTopics = cleanTopicLabels(topics)
			}
		}

		if strings.Contains(sec.name, "sentiment") || strings.Contains(sec.name, "tone") {
			for _, word := range []string{"positive", "negative", "neutral", "mixed", "controversial"} {
				if strings.Contains(joined, word) {
					sentiment = titleCase(word)
					break
				}
			}
		}

		if strings.Contains(sec.name, "language") || strings.Contains(sec.name, "education") {
			for _, word := range levelKeywords {
				if strings.Contains(joined, word) {
					languageLevel = titleCase(word)
					break
				}
			}
		}

		if strings.Contains(sec.name, "key point") || strings.Contains(sec.name, "main point") {
			if points := bulletItems(sec.lines); len(points) > 0 {
				keyPoints = points
			}
		}

		if strings.Contains(sec.name, "summary") {
			summary = strings.Join(sec.lines, " ")
		}

		collectTimestamps(sec.lines, timestamps)
	}

	// Last-resort topic scan over the whole text: numbered or bulleted lines
	// of plausible topic length. The length guard keeps whole paragraphs out.
	if len(mainTopics) == 0 {
		for _, line := range strings.Split(raw, "\n") {
			line = strings.TrimSpace(line)
			if !numberedRe.MatchString(line) && !bulletRe.MatchString(line) {
				continue
			}
			cleaned := strings.TrimSpace(numberedRe.ReplaceAllString(bulletRe.ReplaceAllString(line, ""), ""))
			if len(cleaned) > 3 && len(cleaned) < 100 {
				mainTopics = append(mainTopics, cleaned)
			}
		}
	}

	segments := alignTopics(mainTopics, timestamps, video)

	if strings.TrimSpace(summary) == "" {
		if groups := summaryFieldRe.FindStringSubmatch(raw); groups != nil {
			summary = groups[1]
		}
	}
	if strings.TrimSpace(summary) == "" {
		summary = fmt.Sprintf(
			"Auto-generated summary: the video %q by %s covers topics that could not be automatically extracted; a manual review is recommended.",
			video.Title, video.Channel)
	}

	var mentions []models.SoftwareMention
	for _, groups := range nameFieldRe.FindAllStringSubmatch(raw, -1) {
		mentions = append(mentions, models.SoftwareMention{
			Name:        groups[1],
			Description: "Extracted via fallback parsing",
		})
	}

	candidate := map[string]any{}
	if len(mainTopics) > 0 {
		candidate["main_topics"] = mainTopics
	}
	if len(keyPoints) > 0 {
		candidate["key_points"] = keyPoints
	}
	if sentiment != "" {
		candidate["sentiment"] = sentiment
	}
	if languageLevel != "" {
		candidate["language_level"] = languageLevel
	}
	candidate["summary"] = summary
	if len(segments) > 0 {
		candidate["topic_segments"] = segments
	}
	if len(mentions) > 0 {
		candidate["software_mentions"] = mentions
	}

	analysis, _ := schema.ValidateAndCoerce(candidate, video)
	return analysis
}

// splitSections cuts text into header-delimited sections. A header is a
// heading-marker line or a line containing one of the section keywords. Text
// before the first header is discarded. Any text on the header line after its
// colon counts as section content, so "Sentiment: positive" still yields a
// scannable value.
func splitSections(raw string) []section {
	var sections []section
	current := -1

	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if isHeader(trimmed) {
			name := headingMarkRe.ReplaceAllString(strings.ToLower(trimmed), "")
			name = strings.TrimSuffix(name, ":")
			sections = append(sections, section{name: name})
			current = len(sections) - 1

			if idx := strings.Index(trimmed, ":"); idx != -1 {
				if rest := strings.TrimSpace(trimmed[idx+1:]); rest != "" {
					sections[current].lines = append(sections[current].lines, rest)
				}
			}
			continue
		}

		if current >= 0 {
			sections[current].lines = append(sections[current].lines, trimmed)
		}
	}
	return sections
}

func isHeader(line string) bool {
	if strings.HasPrefix(line, "#") {
		return true
	}
	lower := strings.ToLower(line)
	for _, kw := range sectionKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// bulletItems returns the text of bullet-marked lines with markers stripped.
func bulletItems(lines []string) []string {
	var items []string
	for _, line := range lines {
		if bulletRe.MatchString(line) {
			if item := strings.TrimSpace(bulletRe.ReplaceAllString(line, "")); item != "" {
				items = append(items, item)
			}
		}
	}
	return items
}

// delimitedItems falls back to comma/semicolon splitting when a section lists
// items inline instead of as bullets.
func delimitedItems(lines []string) []string {
	for _, line := range lines {
		if !strings.ContainsAny(line, ",;") {
			continue
		}
		var items []string
		for _, part := range regexp.MustCompile(`[,;]`).Split(line, -1) {
			if part = strings.TrimSpace(part); part != "" {
				items = append(items, part)
			}
		}
		if len(items) > 0 {
			return items
		}
	}
	return nil
}

// cleanTopicLabels strips a trailing ": <timestamp>" from topic items so the
// label matches the key collectTimestamps stored for the same line.
func cleanTopicLabels(topics []string) []string {
	out := make([]string, 0, len(topics))
	for _, topic := range topics {
		if label, value, found := strings.Cut(topic, ":"); found {
			if _, ok := timeparse.Parse(strings.TrimSpace(value)); ok {
				topic = strings.TrimSpace(label)
			}
		}
		out = append(out, topic)
	}
	return out
}

// collectTimestamps records every "label: value" line whose value contains a
// recognizable timestamp, keyed by the lowercased label.
func collectTimestamps(lines []string, out map[string]float64) {
	for _, line := range lines {
		label, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		label = strings.ToLower(strings.TrimSpace(bulletRe.ReplaceAllString(label, "")))
		if label == "" {
			continue
		}
		if seconds, ok := timeparse.Parse(strings.TrimSpace(value)); ok {
			if _, exists := out[label]; !exists {
				out[label] = seconds
			}
		}
	}
}

// alignTopics maps each detected topic with a known start time to a segment.
// A topic's end is the start of the chronologically next topic; without one,
// it is the end of the transcript when a transcript exists, else a fixed
// five-minute window.
func alignTopics(topics []string, timestamps map[string]float64, video *models.Video) []models.TopicSegment {
	var segments []models.TopicSegment

	for _, topic := range topics {
		start, ok := timestamps[strings.ToLower(topic)]
		if !ok {
			continue
		}

		end := -1.0
		for _, other := range topics {
			if other == topic {
				continue
			}
			otherStart, ok := timestamps[strings.ToLower(other)]
			if !ok || otherStart <= start {
				continue
			}
			if end < 0 || otherStart < end {
				end = otherStart
			}
		}

		if end < 0 {
			if transcriptEnd := video.TranscriptEnd(); transcriptEnd > start {
				end = transcriptEnd
			} else {
				end = start + defaultTopicWindow
			}
		}

		segments = append(segments, models.TopicSegment{
			Topic:     topic,
			StartTime: start,
			EndTime:   end,
			KeyPoints: []string{},
		})
	}
	return segments
}

func titleCase(word string) string {
	if word == "" {
		return word
	}
	return strings.ToUpper(word[:1]) + word[1:]
}
