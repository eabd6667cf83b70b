// CLAUDE:SUMMARY Portal workflow state machine: login, entity confirmation, results menu, filters, query — every step bounded and degradable.
// Package session drives the portal from the login page to the results grid.
// The workflow is a fixed sequence of states; every transition has a bounded
// timeout and a defined degraded outcome, so a terminal state is always
// reached within a bounded wall-clock budget. The only fatal condition is
// login fields absent from both the main document and the login iframe.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-rod/rod"

	"cfeharvest/audit"
	"cfeharvest/browser"
	"cfeharvest/config"
	"cfeharvest/interact"
)

// State names the workflow's progress points.
type State string

const (
	StateInit                 State = "Init"
	StateAwaitingLogin        State = "AwaitingLogin"
	StateLoggedIn             State = "LoggedIn"
	StateAwaitingConfirmation State = "AwaitingConfirmation"
	StateConfirmed            State = "Confirmed"
	StateOnResultsMenu        State = "OnResultsMenu"
	StateFiltersSet           State = "FiltersSet"
	StateQueried              State = "Queried"
)

// States is the canonical transition order.
var States = []State{
	StateInit, StateAwaitingLogin, StateLoggedIn, StateAwaitingConfirmation,
	StateConfirmed, StateOnResultsMenu, StateFiltersSet, StateQueried,
}

// ErrLoginFieldsMissing is the workflow's one fatal condition.
var ErrLoginFieldsMissing = errors.New("session: login fields not found on main page or in login iframe")

// Result is where the workflow ended up. State below StateQueried with a nil
// error is a degraded stop: the caller received the best-known current page
// and decides whether downstream steps are still meaningful.
type Result struct {
	Page  *rod.Page
	URL   string
	State State
}

// Workflow orchestrates the session. One value per run.
type Workflow struct {
	Config  config.Config
	Finder  *interact.Finder
	Setter  *interact.Setter
	Arbiter *interact.Arbiter
	Audit   *audit.Logger
	Logger  *slog.Logger
}

func (w *Workflow) defaults() {
	if w.Finder == nil {
		w.Finder = &interact.Finder{}
	}
	if w.Setter == nil {
		w.Setter = &interact.Setter{}
	}
	if w.Arbiter == nil {
		w.Arbiter = &interact.Arbiter{
			NavTimeout:  w.Config.NavTimeout,
			LoadTimeout: w.Config.LoadTimeout,
		}
	}
	if w.Logger == nil {
		w.Logger = slog.Default()
	}
}

// Run drives the portal from the freshly opened login page to the queried
// results grid.
func (w *Workflow) Run(ctx context.Context, page *rod.Page) (Result, error) {
	w.defaults()
	log := w.Logger

	// Init → AwaitingLogin: the portal is usually usable well before its
	// idle signal, so a settle timeout is tolerated.
	w.step(ctx, StateAwaitingLogin)
	browser.Settle(page, w.Config.LoadTimeout, log)

	// AwaitingLogin → LoggedIn.
	if err := w.login(page); err != nil {
		browser.Dump(page, "login_failed", log)
		return Result{Page: page, URL: pageURL(page), State: StateAwaitingLogin}, err
	}
	w.step(ctx, StateLoggedIn)

	// Bounded poll for the entity-selection URL marker. Absence is a
	// warning, not a failure — the confirmation probe below is independent.
	if !w.waitURLContains(page, entityURLMark, w.Config.NavTimeout*2) {
		log.Warn("session: entity-selection URL marker not seen, probing for confirmation anyway")
	}

	// LoggedIn → Confirmed via the Continuar control.
	w.step(ctx, StateAwaitingConfirmation)
	loc, found := w.Finder.Find(page, continueButton, 30*time.Second)
	if !found {
		log.Warn("session: confirmation control not found, stopping with current page")
		browser.Dump(page, "no_confirmation", log)
		return Result{Page: page, URL: pageURL(page), State: StateAwaitingConfirmation}, nil
	}
	_ = loc.Element.ScrollIntoView()
	out := w.Arbiter.ResolveClick(page, loc.Element)
	current := out.Page
	w.step(ctx, StateConfirmed)
	log.Info("session: confirmed", "kind", out.Kind.String(), "url", pageURL(current))

	// Confirmed → OnResultsMenu via the named menu link.
	link, found := w.Finder.FindLinkText(current, resultsMenuLinkText, 15*time.Second)
	if !found {
		log.Warn("session: results menu link not found, stopping with current page",
			"link", resultsMenuLinkText)
		browser.Dump(current, "no_results_link", log)
		return Result{Page: current, URL: pageURL(current), State: StateConfirmed}, nil
	}
	out = w.Arbiter.ResolveClick(current, link.Element)
	if out.Kind == interact.KindNone {
		// The menu sometimes swaps frame content with no navigation event.
		// Re-dispatch once, then accept the page as-is.
		log.Debug("session: no navigation after menu click, re-dispatching scripted click")
		_ = interact.ScriptedClick(link.Element)
		browser.Settle(current, w.Config.LoadTimeout/2, log)
	}
	current = out.Page
	w.step(ctx, StateOnResultsMenu)

	// OnResultsMenu → FiltersSet.
	w.applyFilters(current)
	w.step(ctx, StateFiltersSet)

	// FiltersSet → Queried.
	w.submitQuery(current)
	w.step(ctx, StateQueried)

	return Result{Page: current, URL: pageURL(current), State: StateQueried}, nil
}

// login fills credentials and clicks the submit control. The fields are
// looked for on the main document first, then inside the login iframe —
// exactly one fallback level.
func (w *Workflow) login(page *rod.Page) error {
	log := w.Logger

	target, ok := w.loginTarget(page)
	if !ok {
		return ErrLoginFieldsMissing
	}

	user, err := target.Timeout(8 * time.Second).Element(usernameInput)
	if err != nil {
		return ErrLoginFieldsMissing
	}
	pass, err := target.Timeout(4 * time.Second).Element(passwordInput)
	if err != nil {
		return ErrLoginFieldsMissing
	}

	log.Info("session: filling credentials")
	if err := fillField(user, w.Config.RUT); err != nil {
		return fmt.Errorf("session: fill username: %w", err)
	}
	if err := fillField(pass, w.Config.Clave); err != nil {
		return fmt.Errorf("session: fill password: %w", err)
	}

	return w.clickSubmit(target)
}

// loginTarget returns the context holding the login fields: the main page,
// or the login iframe (any iframe as the looser probe).
func (w *Workflow) loginTarget(page *rod.Page) (*rod.Page, bool) {
	if _, err := page.Timeout(8 * time.Second).Element(usernameInput); err == nil {
		w.Logger.Info("session: login fields on main page")
		return page, true
	}

	w.Logger.Info("session: login fields not on main page, checking iframe")
	for _, sel := range []string{loginIframe, "iframe"} {
		el, err := page.Sleeper(rod.NotFoundSleeper).Element(sel)
		if err != nil || el == nil {
			continue
		}
		frame, err := el.Frame()
		if err != nil || frame == nil {
			continue
		}
		if _, err := frame.Timeout(4 * time.Second).Element(usernameInput); err == nil {
			w.Logger.Info("session: using login iframe")
			return frame, true
		}
	}
	return nil, false
}

// clickSubmit tries the submit controls in priority order.
func (w *Workflow) clickSubmit(target *rod.Page) error {
	for _, sel := range submitSelectors {
		el, err := target.Sleeper(rod.NotFoundSleeper).Element(sel)
		if err != nil || el == nil {
			continue
		}
		w.Logger.Info("session: clicking login submit", "selector", sel)
		return interact.ClickWithRetry(el, w.Logger)
	}

	xpath := fmt.Sprintf(`//button[contains(normalize-space(.), %q)]`, submitButtonText)
	el, err := target.Sleeper(rod.NotFoundSleeper).ElementX(xpath)
	if err != nil || el == nil {
		return fmt.Errorf("session: no login submit control found")
	}
	w.Logger.Info("session: clicking text-labeled login button")
	return interact.ClickWithRetry(el, w.Logger)
}

// applyFilters sets the document-type dropdown and the date range. Blank
// dates are skipped; a filter that cannot be set is a warning, the query
// proceeds with partial filters.
func (w *Workflow) applyFilters(page *rod.Page) {
	log := w.Logger
	log.Info("session: applying filters",
		"tipo", w.Config.TipoCFE, "from", w.Config.FromDate, "to", w.Config.ToDate)

	if loc, found := w.Finder.Find(page, selectTipoCFE, 5*time.Second); found {
		if !w.Setter.SetSelect(loc, selectTipoCFE, w.Config.TipoCFE) {
			log.Warn("session: could not set document type filter")
		}
	} else {
		log.Warn("session: document type dropdown not found")
	}

	for _, f := range []struct{ sel, value, name string }{
		{dateFromInput, w.Config.FromDate, "from date"},
		{dateToInput, w.Config.ToDate, "to date"},
	} {
		if f.value == "" {
			continue
		}
		loc, found := w.Finder.Find(page, f.sel, 5*time.Second)
		if !found {
			log.Warn("session: date filter not found", "filter", f.name)
			continue
		}
		if !w.Setter.SetInput(loc, f.value) {
			log.Warn("session: could not set date filter", "filter", f.name)
		}
	}
}

// submitQuery clicks the query control — main page first, then each frame,
// first success wins — and resolves the navigation. A no-navigation outcome
// is accepted: the grid often refreshes in place.
func (w *Workflow) submitQuery(page *rod.Page) {
	loc, found := w.Finder.Find(page, consultarButton, 10*time.Second)
	if !found {
		w.Logger.Warn("session: query button not found")
		browser.Dump(page, "no_query_button", w.Logger)
		return
	}

	out := w.Arbiter.ResolveClick(page, loc.Element)
	w.Logger.Info("session: query submitted", "kind", out.Kind.String(), "url", pageURL(out.Page))
}

// waitURLContains polls the page URL for a substring.
func (w *Workflow) waitURLContains(page *rod.Page, substr string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if strings.Contains(pageURL(page), substr) {
			return true
		}
		time.Sleep(500 * time.Millisecond)
	}
	return false
}

func (w *Workflow) step(ctx context.Context, s State) {
	if w.Audit != nil {
		w.Audit.Step(ctx, string(s))
	}
	w.Logger.Debug("session: state", "state", string(s))
}

func pageURL(page *rod.Page) string {
	info, err := page.Info()
	if err != nil || info == nil {
		return ""
	}
	return info.URL
}

func fillField(el *rod.Element, value string) error {
	// Select-all first so Input overwrites any prefilled value.
	_ = el.SelectAllText()
	return el.Input(value)
}
