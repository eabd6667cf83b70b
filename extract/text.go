// CLAUDE:SUMMARY Field text readout: value property for inputs, visible text, then markup-stripped raw content as last resort.
package extract

import (
	"html"
	"regexp"
	"strings"

	"github.com/go-rod/rod"
	"github.com/microcosm-cc/bluemonday"
)

var stripPolicy = bluemonday.StrictPolicy()

var wsRun = regexp.MustCompile(`\s+`)

// CleanText strips any residual markup from a raw readout and normalizes it
// into a single trimmed line.
func CleanText(raw string) string {
	s := stripPolicy.Sanitize(raw)
	s = html.UnescapeString(s)
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.TrimSpace(wsRun.ReplaceAllString(s, " "))
}

// inputTags are elements whose text lives in the value property.
var inputTags = map[string]bool{"input": true, "select": true, "textarea": true}

// fieldText reads an element's textual content: the value property for
// input-like elements, else trimmed visible text, else the raw contents with
// markup stripped. Returns "" when nothing is readable.
func fieldText(el *rod.Element) string {
	tag := tagName(el)

	if inputTags[tag] {
		if v, err := el.Property("value"); err == nil {
			if s := strings.TrimSpace(v.Str()); s != "" {
				return s
			}
		}
	}

	if txt, err := el.Text(); err == nil {
		if s := CleanText(txt); s != "" {
			return s
		}
	}

	if raw, err := el.HTML(); err == nil {
		return CleanText(raw)
	}
	return ""
}

func tagName(el *rod.Element) string {
	res, err := el.Eval(`() => this.tagName.toLowerCase()`)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}
