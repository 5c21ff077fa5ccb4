// Package browser hands issue URLs off to the user's default browser.
package browser

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/browser"
	"go.uber.org/zap"
)

// Opener opens URLs in the default browser. The indirection exists so
// the interactive flow can be tested without touching a real browser.
type Opener interface {
	OpenURL(url string) error
}

// SystemOpener launches the platform's default browser.
type SystemOpener struct {
	log *zap.Logger
}

// NewSystemOpener returns an Opener backed by the OS browser handler.
func NewSystemOpener(logger *zap.Logger) *SystemOpener {
	if logger == nil {
		logger = zap.NewNop()
	}
	// xdg-open and friends write noise to stdout/stderr
	browser.Stdout = io.Discard
	browser.Stderr = io.Discard
	return &SystemOpener{log: logger}
}

// OpenURL opens the page. Only http(s) URLs are accepted.
func (o *SystemOpener) OpenURL(url string) error {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return fmt.Errorf("refusing to open non-http url %q", url)
	}
	o.log.Debug("opening browser", zap.Int("url_length", len(url)))
	if err := browser.OpenURL(url); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}
