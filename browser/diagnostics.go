// CLAUDE:SUMMARY Diagnostic dumps on failure: full-page screenshot, raw HTML, and a markdown rendition for quick review.
package browser

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/go-rod/rod"
)

var mdConverter = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
		table.NewTablePlugin(),
	),
)

// Dump saves diagnostic artifacts for the current page into the working
// directory: <prefix>_<ts>.png (full page), .html (raw document), and .md
// (readable rendition). Best effort on every artifact — diagnostics must
// never turn a failing run into a crashing one.
func Dump(page *rod.Page, prefix string, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	ts := time.Now().Unix()

	if img, err := page.Screenshot(true, nil); err == nil {
		name := fmt.Sprintf("%s_%d.png", prefix, ts)
		if werr := os.WriteFile(name, img, 0o644); werr == nil {
			logger.Info("browser: saved diagnostic screenshot", "path", name)
		}
	} else {
		logger.Warn("browser: diagnostic screenshot failed", "error", err)
	}

	html, err := page.HTML()
	if err != nil {
		logger.Warn("browser: diagnostic HTML failed", "error", err)
		return
	}

	name := fmt.Sprintf("%s_%d.html", prefix, ts)
	if err := os.WriteFile(name, []byte(html), 0o644); err == nil {
		logger.Info("browser: saved diagnostic HTML", "path", name)
	}

	if md, err := mdConverter.ConvertString(html); err == nil {
		mdName := fmt.Sprintf("%s_%d.md", prefix, ts)
		if werr := os.WriteFile(mdName, []byte(md), 0o644); werr == nil {
			logger.Info("browser: saved diagnostic markdown", "path", mdName)
		}
	}
}
