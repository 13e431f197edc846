package pipeline

import (
	"net/url"
	"strings"
)

// ExtractVideoID pulls the video id out of the YouTube URL forms we accept:
// youtu.be/<id>, /watch?v=<id>, /embed/<id> and /v/<id>. A bare 11-character
// id passes through unchanged. Returns "" when nothing usable is found.
func ExtractVideoID(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}

	host := strings.TrimPrefix(u.Host, "www.")
	switch host {
	case "youtu.be":
		return strings.Trim(u.Path, "/")
	case "youtube.com", "m.youtube.com":
		if u.Path == "/watch" {
			return u.Query().Get("v")
		}
		for _, prefix := range []string{"/embed/", "/v/", "/shorts/"} {
			if strings.HasPrefix(u.Path, prefix) {
				rest := strings.TrimPrefix(u.Path, prefix)
				if idx := strings.Index(rest, "/"); idx != -1 {
					rest = rest[:idx]
				}
				return rest
			}
		}
		return ""
	}

	// Not a URL at all: treat a plain video id as itself.
	if u.Scheme == "" && u.Host == "" && !strings.ContainsAny(raw, "/?&= ") {
		return raw
	}
	return ""
}
