// CLAUDE:SUMMARY Tab creation with stealth and the degrading load-settle ladder (load, idle, best effort).
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// OpenTab creates a new tab with stealth applied and, when url is non-empty,
// navigates there and waits for the page to settle.
func OpenTab(ctx context.Context, b *rod.Browser, url string, loadTimeout time.Duration, logger *slog.Logger) (*rod.Page, error) {
	if logger == nil {
		logger = slog.Default()
	}

	page, err := stealth.Page(b)
	if err != nil {
		// Stealth injection can fail on exotic Chrome builds; a plain tab
		// still lets the run proceed.
		logger.Warn("browser: stealth page failed, using plain tab", "error", err)
		page, err = b.Page(proto.TargetCreateTarget{})
		if err != nil {
			return nil, fmt.Errorf("browser: create tab: %w", err)
		}
	}
	page = page.Context(ctx)

	if url == "" {
		return page, nil
	}

	if err := page.Timeout(loadTimeout).Navigate(url); err != nil {
		page.Close()
		return nil, fmt.Errorf("browser: navigate %s: %w", url, err)
	}
	Settle(page, loadTimeout, logger)
	return page, nil
}

// Settle waits for a page to stabilize, degrading from a full load event to
// network/JS idleness to best effort. It never fails: the portal is often
// usable well before its idle signal fires, so a timeout is a warning only.
func Settle(page *rod.Page, timeout time.Duration, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := page.Timeout(timeout).WaitLoad(); err == nil {
		return
	}
	if err := page.WaitIdle(timeout / 2); err == nil {
		logger.Debug("browser: settled on idle fallback")
		return
	}
	logger.Warn("browser: page did not reach a stable load state, continuing")
}
