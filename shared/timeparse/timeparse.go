// Package timeparse converts the timestamp spellings that show up in model
// output and YouTube metadata into seconds. Matching is deliberately an
// ordered list of patterns tried in sequence so each format stays auditable
// on its own.
package timeparse

import (
	"regexp"
	"strconv"
)

type matcher struct {
	re      *regexp.Regexp
	convert func(groups []string) float64
}

// Pattern precedence is fixed: first match wins. H:MM:SS must come before
// M:SS, and XmYs before the bare Xm / Xs forms, or the shorter patterns
// would swallow prefixes of the longer ones.
var matchers = []matcher{
	{
		re: regexp.MustCompile(`(\d+):(\d+):(\d+)`),
		convert: func(g []string) float64 {
			return float64(atoi(g[1])*3600 + atoi(g[2])*60 + atoi(g[3]))
		},
	},
	{
		re: regexp.MustCompile(`(\d+):(\d+)`),
		convert: func(g []string) float64 {
			return float64(atoi(g[1])*60 + atoi(g[2]))
		},
	},
	{
		re: regexp.MustCompile(`(\d+)m(\d+)s`),
		convert: func(g []string) float64 {
			return float64(atoi(g[1])*60 + atoi(g[2]))
		},
	},
	{
		re: regexp.MustCompile(`(\d+)m`),
		convert: func(g []string) float64 {
			return float64(atoi(g[1]) * 60)
		},
	},
	{
		re: regexp.MustCompile(`(\d+)s`),
		convert: func(g []string) float64 {
			return float64(atoi(g[1]))
		},
	},
	{
		re: regexp.MustCompile(`(\d+\.\d+)`),
		convert: func(g []string) float64 {
			f, _ := strconv.ParseFloat(g[1], 64)
			return f
		},
	},
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// Parse finds the first timestamp-shaped substring in text and returns it as
// seconds. The second return value is false when no pattern matches. Parse
// never fails on malformed input.
func Parse(text string) (float64, bool) {
	for _, m := range matchers {
		if groups := m.re.FindStringSubmatch(text); groups != nil {
			return m.convert(groups), true
		}
	}
	return 0, false
}

var isoDurationRe = regexp.MustCompile(`PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?`)

// ParseISODuration converts an ISO-8601 duration like "PT21M53S" to total
// seconds. Malformed input yields 0 rather than an error; metadata callers
// treat a zero duration as unknown.
func ParseISODuration(duration string) int {
	if duration == "" {
		return 0
	}

	groups := isoDurationRe.FindStringSubmatch(duration)
	if groups == nil {
		return 0
	}

	total := 0
	if groups[1] != "" {
		total += atoi(groups[1]) * 3600
	}
	if groups[2] != "" {
		total += atoi(groups[2]) * 60
	}
	if groups[3] != "" {
		total += atoi(groups[3])
	}
	return total
}

// FormatTimestamp renders seconds as H:MM:SS, or M:SS below one hour. Used
// when laying transcripts out for the model prompt.
func FormatTimestamp(seconds float64) string {
	s := int(seconds)
	h := s / 3600
	m := (s % 3600) / 60
	sec := s % 60
	if h > 0 {
		return pad(h) + ":" + pad2(m) + ":" + pad2(sec)
	}
	return strconv.Itoa(m) + ":" + pad2(sec)
}

func pad(n int) string {
	return strconv.Itoa(n)
}

func pad2(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
