// CLAUDE:SUMMARY Flat enumeration of a page's browsing contexts: the page itself plus every reachable nested iframe.
package browser

import (
	"time"

	"github.com/go-rod/rod"
)

// maxContexts caps frame enumeration. Legacy portals nest generated iframes
// several levels deep; anything past this is noise.
const maxContexts = 32

// Contexts returns the page followed by every nested iframe's page handle,
// breadth-first, as a flat list. Frames that cannot be entered (cross-origin
// restrictions, mid-navigation detachment) are skipped silently — callers
// poll, so a frame missed now is found on the next pass.
func Contexts(page *rod.Page) []*rod.Page {
	out := []*rod.Page{page}
	for i := 0; i < len(out) && len(out) < maxContexts; i++ {
		iframes, err := out[i].Timeout(2 * time.Second).Elements("iframe")
		if err != nil {
			continue
		}
		for _, el := range iframes {
			frame, err := el.Frame()
			if err != nil || frame == nil {
				continue
			}
			out = append(out, frame)
			if len(out) >= maxContexts {
				break
			}
		}
	}
	return out
}
