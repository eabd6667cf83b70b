// CLAUDE:SUMMARY Navigation arbiter: races same-page navigation, new-tab creation, and timeout into one current-page outcome.
package interact

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"cfeharvest/browser"
)

// Kind classifies what a triggering click did to the navigation state.
type Kind int

const (
	// KindNone: nothing detectable happened before the timeout. The page may
	// still have updated in place; the caller decides whether to retry.
	KindNone Kind = iota
	// KindSamePage: the triggering context navigated.
	KindSamePage
	// KindNewPage: a new tab or window was created.
	KindNewPage
)

func (k Kind) String() string {
	switch k {
	case KindSamePage:
		return "same-page"
	case KindNewPage:
		return "new-page"
	default:
		return "none"
	}
}

// Outcome is the normalized result of a triggering action: exactly one
// current page, however the portal chose to navigate.
type Outcome struct {
	Page *rod.Page
	Kind Kind
}

// Waiters are armed before the trigger runs. Each blocks until its signal
// fires or its context is done, and reports whether it actually fired.
// They are injected so the race is testable without a browser.
type Waiters struct {
	SamePage func(ctx context.Context) bool
	NewPage  func(ctx context.Context) (*rod.Page, bool)
}

// Arbiter resolves the outcome of clicks that may or may not navigate.
type Arbiter struct {
	// NavTimeout bounds the same-page navigation wait and the overall race.
	NavTimeout time.Duration
	// NewPageTimeout bounds the new-tab wait. The portal opens pop-ups fast
	// or not at all, so this is much shorter than NavTimeout.
	NewPageTimeout time.Duration
	// LoadTimeout bounds the settle ladder applied to a new page.
	LoadTimeout time.Duration

	Logger *slog.Logger
}

func (a *Arbiter) defaults() {
	if a.NavTimeout <= 0 {
		a.NavTimeout = 30 * time.Second
	}
	if a.NewPageTimeout <= 0 {
		a.NewPageTimeout = 5 * time.Second
	}
	if a.LoadTimeout <= 0 {
		a.LoadTimeout = 30 * time.Second
	}
	if a.Logger == nil {
		a.Logger = slog.Default()
	}
}

// ResolveClick clicks el and resolves the resulting navigation state. If the
// click itself throws (element detached mid-click), it is retried once via a
// scripted .click() dispatch before giving up.
func (a *Arbiter) ResolveClick(prior *rod.Page, el *rod.Element) Outcome {
	a.defaults()
	w := a.armWaiters(prior)
	return a.resolve(prior, w, func() error { return ClickWithRetry(el, a.Logger) })
}

// armWaiters builds the production waiters from Rod primitives. They must be
// constructed before the trigger so no event is missed.
func (a *Arbiter) armWaiters(prior *rod.Page) Waiters {
	b := prior.Browser()
	return Waiters{
		SamePage: func(ctx context.Context) bool {
			wait := prior.Context(ctx).WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
			wait()
			return ctx.Err() == nil
		},
		NewPage: func(ctx context.Context) (*rod.Page, bool) {
			// Navigation spawns OOPIF iframe and worker targets too; keep
			// listening until an actual page target arrives or time runs out.
			var id proto.TargetTargetID
			wait := b.Context(ctx).EachEvent(func(e *proto.TargetTargetCreated) bool {
				got, ok := newPageTarget(e)
				if ok {
					id = got
				}
				return ok
			})
			wait()
			if ctx.Err() != nil || id == "" {
				return nil, false
			}
			p, err := b.PageFromTarget(id)
			if err != nil {
				return nil, false
			}
			return p, true
		},
	}
}

// newPageTarget reports whether a target-created event is a genuine pop-up
// page. Iframe and worker targets created mid-navigation do not qualify.
func newPageTarget(e *proto.TargetTargetCreated) (proto.TargetTargetID, bool) {
	if e == nil || e.TargetInfo == nil || e.TargetInfo.Type != "page" {
		return "", false
	}
	return e.TargetInfo.TargetID, true
}

// resolve races the armed waiters against the trigger's effects. Exactly one
// outcome is produced; no path raises.
func (a *Arbiter) resolve(prior *rod.Page, w Waiters, trigger func() error) Outcome {
	a.defaults()

	root, cancel := context.WithCancel(context.Background())
	defer cancel()

	sameCh := make(chan struct{}, 1)
	newCh := make(chan *rod.Page, 1)

	go func() {
		ctx, done := context.WithTimeout(root, a.NavTimeout)
		defer done()
		if w.SamePage(ctx) {
			sameCh <- struct{}{}
		}
	}()
	go func() {
		ctx, done := context.WithTimeout(root, a.NewPageTimeout)
		defer done()
		if p, ok := w.NewPage(ctx); ok {
			newCh <- p
		}
	}()

	if err := trigger(); err != nil {
		a.Logger.Warn("interact: trigger failed", "error", err)
		return Outcome{Page: prior, Kind: KindNone}
	}

	timer := time.NewTimer(a.NavTimeout)
	defer timer.Stop()

	select {
	case p := <-newCh:
		a.Logger.Info("interact: click opened a new page")
		browser.Settle(p, a.LoadTimeout, a.Logger)
		return Outcome{Page: p, Kind: KindNewPage}
	case <-sameCh:
		a.Logger.Info("interact: same-page navigation detected")
		return Outcome{Page: prior, Kind: KindSamePage}
	case <-timer.C:
		a.Logger.Warn("interact: no navigation detected, keeping current page")
		return Outcome{Page: prior, Kind: KindNone}
	}
}

// ClickWithRetry clicks an element, falling back once to a scripted .click()
// dispatch when the native click throws (element detached mid-click).
func ClickWithRetry(el *rod.Element, logger *slog.Logger) (err error) {
	if logger == nil {
		logger = slog.Default()
	}
	defer func() {
		if r := recover(); r != nil {
			err = ScriptedClick(el)
		}
	}()
	if err = el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		logger.Debug("interact: native click failed, dispatching scripted click", "error", err)
		return ScriptedClick(el)
	}
	return nil
}

// ScriptedClick dispatches a .click() inside the page, bypassing hit testing.
func ScriptedClick(el *rod.Element) error {
	_, err := el.Eval(`() => this.click()`)
	return err
}
