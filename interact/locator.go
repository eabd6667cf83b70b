// CLAUDE:SUMMARY Polling element locator over a page and all of its frames; absence is a result, not an error.
// Package interact implements the three browser-interaction primitives the
// workflow is built from: locating elements across frames, setting form
// values through a strategy cascade, and resolving what a click did to the
// navigation state.
package interact

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-rod/rod"

	"cfeharvest/browser"
)

// Located pairs an element with the browsing context it was found in. The
// pair is ephemeral: both handles die when the context navigates away.
type Located struct {
	Context *rod.Page
	Element *rod.Element
}

// Finder searches a page and all of its nested frames for elements, polling
// until found or the timeout budget lapses.
type Finder struct {
	// Contexts enumerates the browsing contexts of a page. Defaults to
	// browser.Contexts.
	Contexts func(*rod.Page) []*rod.Page

	// Interval is the poll interval. Default 250ms.
	Interval time.Duration

	Logger *slog.Logger
}

func (f *Finder) defaults() {
	if f.Contexts == nil {
		f.Contexts = browser.Contexts
	}
	if f.Interval <= 0 {
		f.Interval = 250 * time.Millisecond
	}
	if f.Logger == nil {
		f.Logger = slog.Default()
	}
}

// Find searches for a CSS selector in the page's main context, then every
// nested frame, repeating until the timeout. Absence returns found=false —
// never an error — and transient failures from contexts that are navigating
// mid-search are swallowed.
func (f *Finder) Find(page *rod.Page, selector string, timeout time.Duration) (Located, bool) {
	f.defaults()
	return f.poll(page, timeout, func(ctx *rod.Page) (*rod.Element, bool) {
		el, err := ctx.Sleeper(rod.NotFoundSleeper).Element(selector)
		if err != nil || el == nil {
			return nil, false
		}
		return el, true
	})
}

// FindAny tries an ordered list of selectors on every poll pass, returning
// the first match. Earlier selectors win within a pass.
func (f *Finder) FindAny(page *rod.Page, selectors []string, timeout time.Duration) (Located, bool) {
	f.defaults()
	return f.poll(page, timeout, func(ctx *rod.Page) (*rod.Element, bool) {
		for _, sel := range selectors {
			el, err := ctx.Sleeper(rod.NotFoundSleeper).Element(sel)
			if err == nil && el != nil {
				return el, true
			}
		}
		return nil, false
	})
}

// FindLinkText searches for an anchor containing the given text (partial,
// whitespace-normalized match) across the page and its frames.
func (f *Finder) FindLinkText(page *rod.Page, text string, timeout time.Duration) (Located, bool) {
	f.defaults()
	xpath := fmt.Sprintf(`//a[contains(normalize-space(.), %q)]`, strings.TrimSpace(text))
	return f.poll(page, timeout, func(ctx *rod.Page) (*rod.Element, bool) {
		el, err := ctx.Sleeper(rod.NotFoundSleeper).ElementX(xpath)
		if err != nil || el == nil {
			return nil, false
		}
		return el, true
	})
}

// poll runs probe over each context until it reports a match or the budget
// lapses. probe must not block: it is called with a no-retry sleeper.
func (f *Finder) poll(page *rod.Page, timeout time.Duration, probe func(*rod.Page) (*rod.Element, bool)) (Located, bool) {
	deadline := time.Now().Add(timeout)
	for {
		for _, ctx := range f.Contexts(page) {
			el, ok := safeProbe(probe, ctx)
			if ok {
				return Located{Context: ctx, Element: el}, true
			}
		}
		if time.Now().After(deadline) {
			return Located{}, false
		}
		time.Sleep(f.Interval)
	}
}

// safeProbe guards against panics from a context torn down mid-query.
func safeProbe(probe func(*rod.Page) (*rod.Element, bool), ctx *rod.Page) (el *rod.Element, ok bool) {
	defer func() {
		if recover() != nil {
			el, ok = nil, false
		}
	}()
	return probe(ctx)
}
