// CLAUDE:SUMMARY Harvests candidate record URLs from the results grid: anchors, images, and onclick handlers across every frame, deduplicated.
// Package harvest enumerates candidate record URLs from the results page.
// It scans the main document and every frame for anchors and images carrying
// a navigable URL and for inline onclick handlers that embed one, resolving
// relative URLs against the owning frame's own base URL. The output is
// order-preserving and duplicate-free by canonical URL.
package harvest

import (
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"

	"cfeharvest/browser"
	"cfeharvest/dataset"
)

// Candidate is one harvested record URL.
type Candidate struct {
	URL       string // absolute form, as resolved
	Canonical string // dedup key
}

// Links scans the page and all of its frames for candidate URLs.
func Links(page *rod.Page, logger *slog.Logger) []Candidate {
	if logger == nil {
		logger = slog.Default()
	}

	var out []Candidate
	seen := make(map[string]struct{})

	for _, ctx := range browser.Contexts(page) {
		html, err := ctx.HTML()
		if err != nil {
			logger.Debug("harvest: context HTML unavailable, skipping frame", "error", err)
			continue
		}
		base := contextURL(ctx)
		for _, c := range FromHTML(html, base) {
			if _, dup := seen[c.Canonical]; dup {
				continue
			}
			seen[c.Canonical] = struct{}{}
			out = append(out, c)
		}
	}

	logger.Info("harvest: candidate URLs collected", "count", len(out))
	return out
}

func contextURL(ctx *rod.Page) string {
	info, err := ctx.Info()
	if err != nil || info == nil {
		return ""
	}
	return info.URL
}

// FromHTML extracts candidate URLs from one context's HTML, resolving
// relative URLs against baseURL (the frame's own URL, or its <base href>
// when present). Order follows document order: anchors and images as
// encountered, onclick-extracted URLs from the same elements inline.
func FromHTML(html, baseURL string) []Candidate {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	base := resolveBase(doc, baseURL)

	var out []Candidate
	seen := make(map[string]struct{})
	add := func(raw string) {
		abs := resolveURL(base, raw)
		if abs == "" {
			return
		}
		canon, err := dataset.Canonicalize(abs)
		if err != nil {
			return
		}
		if _, dup := seen[canon]; dup {
			return
		}
		seen[canon] = struct{}{}
		out = append(out, Candidate{URL: abs, Canonical: canon})
	}

	doc.Find("a, img, input[type='image'], [onclick]").Each(func(_ int, sel *goquery.Selection) {
		if href, ok := sel.Attr("href"); ok {
			add(href)
		}
		if src, ok := sel.Attr("src"); ok && imageSource(sel) {
			add(src)
		}
		if onclick, ok := sel.Attr("onclick"); ok {
			for _, raw := range URLsFromHandler(onclick) {
				add(raw)
			}
		}
	})

	return out
}

// imageSource reports whether an element's src attribute is a navigable
// record image: an <img> or an <input type="image"> grid button.
func imageSource(sel *goquery.Selection) bool {
	switch goquery.NodeName(sel) {
	case "img":
		return true
	case "input":
		return strings.EqualFold(sel.AttrOr("type", ""), "image")
	}
	return false
}

func parseBase(s string) *url.URL {
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil {
		return nil
	}
	return u
}

// resolveBase returns the effective base URL of a document: an explicit
// <base href> wins over the frame's own URL.
func resolveBase(doc *goquery.Document, frameURL string) *url.URL {
	frame, err := url.Parse(frameURL)
	if err != nil {
		frame = nil
	}
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if b, err := url.Parse(href); err == nil {
			if frame != nil {
				return frame.ResolveReference(b)
			}
			return b
		}
	}
	return frame
}

// resolveURL resolves raw against base and filters out non-navigable values.
func resolveURL(base *url.URL, raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "#" {
		return ""
	}
	lower := strings.ToLower(raw)
	for _, prefix := range []string{"javascript:", "mailto:", "data:", "about:"} {
		if strings.HasPrefix(lower, prefix) {
			return ""
		}
	}

	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if u.IsAbs() {
		return u.String()
	}
	if base == nil {
		return ""
	}
	return base.ResolveReference(u).String()
}
