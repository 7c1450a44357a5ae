package importer

import (
	"errors"
	"fmt"

	"github.com/david/event-finder/internal/platform"
)

// FailureKind is the user-facing error taxonomy. Everything here is
// terminal for the import; enrichment failures are deliberately not part
// of it (they downgrade to defaults instead).
type FailureKind string

const (
	FailUnsupportedPlatform FailureKind = "unsupported_platform"
	FailInvalidURLFormat    FailureKind = "invalid_url_format"
	FailAlreadyImported     FailureKind = "already_imported"
	FailFetchExhausted      FailureKind = "fetch_exhausted"
)

// ImportError is a structured, user-safe import failure. The wrapped Err
// carries the low-level cause for logs; Message is what the user sees.
type ImportError struct {
	Kind     FailureKind
	Message  string
	Platform platform.Platform
	URL      string
	// ExistingTitle is set for AlreadyImported so the conflict can be
	// displayed by name.
	ExistingTitle string
	Err           error
}

func (e *ImportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *ImportError) Unwrap() error { return e.Err }

// AsImportError unwraps err into an *ImportError if it is one.
func AsImportError(err error) (*ImportError, bool) {
	var ie *ImportError
	if errors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}

func errUnsupportedPlatform(url string) *ImportError {
	return &ImportError{
		Kind:     FailUnsupportedPlatform,
		Message:  "This platform is not supported. Supported platforms: Luma, Eventbrite, Humanitix, Partiful.",
		Platform: platform.Unknown,
		URL:      url,
	}
}

func errInvalidURLFormat(p platform.Platform, url string) *ImportError {
	return &ImportError{
		Kind:     FailInvalidURLFormat,
		Message:  "Invalid URL format: could not find an event ID in this link.",
		Platform: p,
		URL:      url,
	}
}

func errAlreadyImported(p platform.Platform, url, title string) *ImportError {
	return &ImportError{
		Kind:          FailAlreadyImported,
		Message:       fmt.Sprintf("%q has already been imported. Use force update to re-import it.", title),
		Platform:      p,
		URL:           url,
		ExistingTitle: title,
	}
}

func errFetchExhausted(p platform.Platform, url string, cause error) *ImportError {
	return &ImportError{
		Kind:     FailFetchExhausted,
		Message:  "Both the API and the scraper failed to fetch this event. It may be private, the URL may be wrong, or the page structure may have changed.",
		Platform: p,
		URL:      url,
		Err:      cause,
	}
}
