// CLAUDE:SUMMARY Incremental per-URL extraction: fresh tab, context pick, field readout, immediate append; failures skip, never abort.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"

	"cfeharvest/audit"
	"cfeharvest/browser"
	"cfeharvest/dataset"
	"cfeharvest/harvest"
	"cfeharvest/interact"
)

// Extractor processes candidate URLs one at a time and writes records
// through the dataset store the moment they are extracted.
type Extractor struct {
	Browser     *rod.Browser
	Store       *dataset.Store
	Audit       *audit.Logger
	Arbiter     *interact.Arbiter
	LoadTimeout time.Duration
	Logger      *slog.Logger

	// visit processes one candidate end to end. Defaults to processURL;
	// injectable so the run loop's isolation is testable without a browser.
	visit func(ctx context.Context, cand harvest.Candidate) error
}

func (e *Extractor) defaults() {
	if e.LoadTimeout <= 0 {
		e.LoadTimeout = 30 * time.Second
	}
	if e.Logger == nil {
		e.Logger = slog.Default()
	}
	if e.Arbiter == nil {
		e.Arbiter = &interact.Arbiter{Logger: e.Logger}
	}
	if e.visit == nil {
		e.visit = e.processURL
	}
}

// Stats summarizes one extraction pass.
type Stats struct {
	Appended   int
	Duplicates int
	Failed     int
}

// Run processes candidates in order. Each candidate is isolated: a failure
// (navigation error, extraction panic) is logged, audited, and skipped —
// it never aborts the remaining candidates.
func (e *Extractor) Run(ctx context.Context, candidates []harvest.Candidate) Stats {
	e.defaults()
	var st Stats

	for _, cand := range candidates {
		if e.Store.Seen(cand.Canonical) {
			e.Logger.Info("extract: already processed, skipping", "url", cand.Canonical)
			e.auditURL(ctx, audit.EventDuplicate, cand.Canonical, "", true)
			st.Duplicates++
			continue
		}

		err := e.visit(ctx, cand)
		if err != nil {
			e.Logger.Warn("extract: candidate failed, continuing", "url", cand.URL, "error", err)
			e.auditURL(ctx, audit.EventFailed, cand.Canonical, err.Error(), false)
			st.Failed++
			continue
		}
		e.auditURL(ctx, audit.EventAppended, cand.Canonical, "", true)
		st.Appended++
	}

	e.Logger.Info("extract: pass finished",
		"appended", st.Appended, "duplicates", st.Duplicates, "failed", st.Failed)
	return st
}

// processURL opens the candidate in its own tab so the results grid keeps
// its state, extracts, appends, and closes the tab in all paths.
func (e *Extractor) processURL(ctx context.Context, cand harvest.Candidate) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extract: panic: %v", r)
		}
	}()

	page, err := browser.OpenTab(ctx, e.Browser, cand.URL, e.LoadTimeout, e.Logger)
	if err != nil {
		return err
	}
	defer page.Close()

	target := e.pickContext(page)
	return e.appendFrom(target, cand.URL)
}

// pickContext prefers a nested frame containing a known anchor field; the
// top document is the fallback.
func (e *Extractor) pickContext(page *rod.Page) *rod.Page {
	for _, ctx := range browser.Contexts(page) {
		if ctx == page {
			continue
		}
		for _, sel := range anchorSelectors {
			if el, err := ctx.Sleeper(rod.NotFoundSleeper).Element(sel); err == nil && el != nil {
				e.Logger.Debug("extract: using nested frame as extraction target", "anchor", sel)
				return ctx
			}
		}
	}
	return page
}

// appendFrom reads every field off the target context and appends one record.
func (e *Extractor) appendFrom(target *rod.Page, sourceURL string) error {
	values := make(map[string]string, len(Fields))
	missing := 0
	for _, f := range Fields {
		v := extractField(target, f)
		values[f.Column] = v
		if v == "" {
			missing++
		}
	}
	if missing == len(Fields) {
		return fmt.Errorf("extract: no fields present at %s", sourceURL)
	}
	if missing > 0 {
		e.Logger.Debug("extract: partial record", "url", sourceURL, "missing", missing)
	}

	return e.Store.Append(dataset.Record{Fields: values, SourceURL: sourceURL})
}

// extractField tries a field's selector candidates in order on one context.
// Absence yields the empty string.
func extractField(target *rod.Page, f Field) string {
	for _, sel := range f.Selectors {
		el, err := target.Sleeper(rod.NotFoundSleeper).Element(sel)
		if err != nil || el == nil {
			continue
		}
		if v := fieldText(el); v != "" {
			return v
		}
	}
	return ""
}

// RunFallback processes clickable grid elements that exposed no URL. Each is
// clicked, the resulting page resolved through the arbiter and extracted with
// the page's own URL as provenance; afterwards a new tab is closed, or the
// results page restored via back-navigation when the click mutated it in
// place. Best effort: row correspondence is not guaranteed.
func (e *Extractor) RunFallback(ctx context.Context, results *rod.Page, clickables []harvest.Clickable) Stats {
	e.defaults()
	var st Stats

	for i, cl := range clickables {
		err := e.processClickable(ctx, results, cl, &st)
		if err != nil {
			e.Logger.Warn("extract: fallback element failed, continuing", "index", i, "error", err)
			e.auditURL(ctx, audit.EventFailed, fmt.Sprintf("fallback#%d", i), err.Error(), false)
			st.Failed++
		}
	}
	return st
}

func (e *Extractor) processClickable(ctx context.Context, results *rod.Page, cl harvest.Clickable, st *Stats) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extract: panic: %v", r)
		}
	}()

	out := e.Arbiter.ResolveClick(results, cl.Element)

	// Guaranteed restore of the results page whatever extraction does.
	defer func() {
		switch out.Kind {
		case interact.KindNewPage:
			out.Page.Close()
		case interact.KindSamePage:
			if backErr := results.NavigateBack(); backErr != nil {
				results.Reload()
			}
			browser.Settle(results, e.LoadTimeout, e.Logger)
		}
	}()

	if out.Kind == interact.KindNone {
		return fmt.Errorf("extract: click produced no navigation")
	}

	info, err := out.Page.Info()
	if err != nil || info == nil || info.URL == "" {
		return fmt.Errorf("extract: fallback page has no URL")
	}
	canon, err := dataset.Canonicalize(info.URL)
	if err != nil {
		return err
	}
	if e.Store.Seen(canon) {
		e.auditURL(ctx, audit.EventDuplicate, canon, "fallback", true)
		st.Duplicates++
		return nil
	}

	if err := e.appendFrom(e.pickContext(out.Page), info.URL); err != nil {
		return err
	}
	e.auditURL(ctx, audit.EventAppended, canon, "fallback", true)
	st.Appended++
	return nil
}

func (e *Extractor) auditURL(ctx context.Context, event, subject, detail string, ok bool) {
	if e.Audit == nil {
		return
	}
	e.Audit.Log(ctx, event, subject, detail, ok)
}
