// CLAUDE:SUMMARY Download capture: arm a download waiter, run the triggering click, save under the suggested filename.
package browser

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-rod/rod"
)

// SaveDownload arms a download waiter on the browser, runs trigger, and waits
// for the resulting download to finish in dir. The file is renamed from Rod's
// GUID name to the server-suggested filename and the final path returned.
func SaveDownload(b *rod.Browser, dir string, timeout time.Duration, trigger func() error) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("browser: download dir: %w", err)
	}

	wait := b.Timeout(timeout).WaitDownload(dir)
	if err := trigger(); err != nil {
		return "", fmt.Errorf("browser: download trigger: %w", err)
	}

	info := wait()
	if info == nil {
		return "", fmt.Errorf("browser: download did not start within %s", timeout)
	}

	src := filepath.Join(dir, info.GUID)
	name := info.SuggestedFilename
	if name == "" {
		name = "export.xls"
	}
	dst := filepath.Join(dir, name)
	if err := os.Rename(src, dst); err != nil {
		// The GUID file is still a valid download; report it as-is.
		return src, nil
	}
	return dst, nil
}
