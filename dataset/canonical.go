// CLAUDE:SUMMARY Canonical URL form used as the dataset dedup key: lowercase scheme/host, strip fragment and trailing slash, keep query.
package dataset

import (
	"fmt"
	"net/url"
	"strings"
)

// Canonicalize normalizes a URL into the form used as the dataset
// deduplication key. For http/https URLs: lowercases scheme and host,
// removes the fragment, strips the trailing slash (except root). The query
// string is preserved as-is — the portal encodes record identity in query
// parameters, so reordering or re-escaping them would split identities.
func Canonicalize(raw string) (string, error) {
	if raw == "" {
		return "", fmt.Errorf("%w: empty URL", ErrInvalidURL)
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidURL)
	}

	parsed.Scheme = scheme
	parsed.Host = strings.ToLower(parsed.Host)
	parsed.Fragment = ""
	parsed.Path = strings.TrimRight(parsed.Path, "/")

	return parsed.String(), nil
}
