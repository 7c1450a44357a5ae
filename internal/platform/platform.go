package platform

import (
	"net/url"
	"regexp"
	"strings"
)

// Platform identifies a supported third-party event host.
type Platform string

const (
	Luma       Platform = "luma"
	Eventbrite Platform = "eventbrite"
	Humanitix  Platform = "humanitix"
	Partiful   Platform = "partiful"
	Unknown    Platform = "unknown"
)

var eventbriteIDSuffix = regexp.MustCompile(`-(\d+)/?$`)

// Detect classifies a URL by hostname. Unknown is a normal return value,
// not an error; callers surface it as "unsupported platform".
func Detect(rawURL string) Platform {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return Unknown
	}

	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")

	reg := LoadedRegistry()
	for _, pc := range reg.Platforms {
		for _, h := range pc.Hosts {
			if host == h || strings.HasSuffix(host, "."+h) {
				return Platform(pc.ID)
			}
		}
	}
	return Unknown
}

// ExtractID pulls the platform-specific event identifier out of the URL path.
// An empty result means the URL shape is invalid for that platform, which is
// a distinct failure from Unknown.
func ExtractID(rawURL string, p Platform) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}

	segments := splitPath(u.Path)
	if len(segments) == 0 {
		return ""
	}

	switch p {
	case Luma:
		// First non-empty path segment is the event slug.
		return segments[0]
	case Eventbrite:
		// Preferred shape: /e/some-event-tickets-123456789
		for _, seg := range segments {
			if m := eventbriteIDSuffix.FindStringSubmatch(seg); m != nil {
				return m[1]
			}
		}
		// Fallback: any purely numeric segment.
		for _, seg := range segments {
			if isDigits(seg) {
				return seg
			}
		}
		return ""
	case Humanitix:
		// Slug is the last path segment, e.g. /host/some-event-slug.
		return segments[len(segments)-1]
	case Partiful:
		// Shape: /e/<id>
		for i, seg := range segments {
			if seg == "e" && i+1 < len(segments) {
				return segments[i+1]
			}
		}
		return segments[len(segments)-1]
	}
	return ""
}

func splitPath(path string) []string {
	var out []string
	for _, seg := range strings.Split(path, "/") {
		seg = strings.TrimSpace(seg)
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
