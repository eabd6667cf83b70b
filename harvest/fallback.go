// CLAUDE:SUMMARY Structural fallback: clickable elements under likely grid containers, for rows exposing no extractable URL.
package harvest

import (
	"log/slog"
	"time"

	"github.com/go-rod/rod"

	"cfeharvest/browser"
	"cfeharvest/dataset"
)

// gridContainerSelectors are guesses at the containers the portal renders
// its results grid into. GeneXus names grid tables with a Grid infix and
// action columns with vCOL* control IDs. Best effort only.
var gridContainerSelectors = []string{
	`table[id*="Grid"]`,
	`div[id*="Grid"]`,
	`table[class*="Grid"]`,
	`[id^="vCOL"]`,
}

// clickableSelector matches elements a grid row uses as its action trigger.
const clickableSelector = `a, img, input[type="image"], button`

// Clickable is a grid element with no extractable URL that will have to be
// clicked to reach its record.
type Clickable struct {
	Context *rod.Page
	Element *rod.Element
}

// FallbackClickables finds clickable elements under likely grid containers,
// for rows not already covered by URL-based harvesting. seen holds the
// canonical URLs harvested earlier: an element whose href or onclick
// resolves into that set is skipped. No correctness guarantee on exact row
// correspondence — this pass exists so rows without URLs are not silently
// dropped.
func FallbackClickables(page *rod.Page, seen map[string]struct{}, logger *slog.Logger) []Clickable {
	if logger == nil {
		logger = slog.Default()
	}

	var out []Clickable
	for _, ctx := range browser.Contexts(page) {
		base := contextURL(ctx)
		for _, container := range gridContainerSelectors {
			elements, err := ctx.Timeout(2 * time.Second).Elements(container + " " + clickableSelector)
			if err != nil {
				continue
			}
			for _, el := range elements {
				if coveredByHarvest(el, base, seen) {
					continue
				}
				out = append(out, Clickable{Context: ctx, Element: el})
			}
		}
	}

	logger.Info("harvest: fallback clickables collected", "count", len(out))
	return out
}

// coveredByHarvest reports whether an element's own URL attributes resolve
// into the already-harvested set.
func coveredByHarvest(el *rod.Element, base string, seen map[string]struct{}) bool {
	for _, attr := range []string{"href", "onclick"} {
		v, err := el.Attribute(attr)
		if err != nil || v == nil || *v == "" {
			continue
		}
		raws := []string{*v}
		if attr == "onclick" {
			raws = URLsFromHandler(*v)
		}
		for _, raw := range raws {
			if inSeen(raw, base, seen) {
				return true
			}
		}
	}
	return false
}

func inSeen(raw, base string, seen map[string]struct{}) bool {
	abs := raw
	if b := parseBase(base); b != nil {
		abs = resolveURL(b, raw)
	}
	if abs == "" {
		return false
	}
	canon, err := dataset.Canonicalize(abs)
	if err != nil {
		return false
	}
	_, ok := seen[canon]
	return ok
}
