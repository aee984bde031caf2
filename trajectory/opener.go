package trajectory

import (
	"io"

	"github.com/pkg/browser"
)

// BrowserOpener opens URLs in the default browser of the desktop.
type BrowserOpener struct{}

func (BrowserOpener) Open(url string) error {
	browser.Stdout = io.Discard
	return browser.OpenURL(url)
}
