// CLAUDE:SUMMARY Extracts URLs embedded in inline onclick handlers: quoted absolute URLs and window-open-style call arguments.
package harvest

import "regexp"

// The portal's grids often carry navigation in inline handlers instead of
// hrefs. Two shapes appear in practice: a quoted absolute URL anywhere in
// the handler, and a relative path passed as the first string argument of a
// window-open-style call (window.open, gx.popup.open and friends).
var (
	reQuotedAbsURL = regexp.MustCompile(`['"](https?://[^'"]+)['"]`)
	reOpenCall     = regexp.MustCompile(`(?i)\b(?:window\.open|open|popup|gx\.popup\.open|showpopup)\s*\(\s*['"]([^'"]+)['"]`)
)

// URLsFromHandler extracts URL-like strings from an inline handler body.
// Absolute URLs are returned as-is; open-call arguments may be relative and
// are resolved by the caller against the frame's base URL. Order preserved,
// duplicates removed.
func URLsFromHandler(handler string) []string {
	if handler == "" {
		return nil
	}

	var out []string
	seen := make(map[string]struct{})
	add := func(s string) {
		if s == "" {
			return
		}
		if _, dup := seen[s]; dup {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	for _, m := range reQuotedAbsURL.FindAllStringSubmatch(handler, -1) {
		add(m[1])
	}
	for _, m := range reOpenCall.FindAllStringSubmatch(handler, -1) {
		add(m[1])
	}
	return out
}
