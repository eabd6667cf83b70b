// CLAUDE:SUMMARY Best-effort portal XLS export: find the export control across frames, click it, capture the download.
package session

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"

	"cfeharvest/browser"
	"cfeharvest/interact"
)

// ExportXLS clicks the portal's own export control on the results grid and
// saves the resulting spreadsheet under dir. The control only exists on some
// portal builds, so absence is reported as an error the caller should treat
// as a warning rather than a failure.
func ExportXLS(b *rod.Browser, page *rod.Page, dir string, timeout time.Duration, finder *interact.Finder, logger *slog.Logger) (string, error) {
	if finder == nil {
		finder = &interact.Finder{Logger: logger}
	}
	if logger == nil {
		logger = slog.Default()
	}

	loc, found := finder.FindAny(page, exportSelectors, 10*time.Second)
	if !found {
		return "", fmt.Errorf("session: export control not found")
	}

	logger.Info("session: triggering portal export")
	path, err := browser.SaveDownload(b, dir, timeout, func() error {
		return interact.ClickWithRetry(loc.Element, logger)
	})
	if err != nil {
		return "", fmt.Errorf("session: export download: %w", err)
	}
	logger.Info("session: export saved", "path", path)
	return path, nil
}
