// Package browser opens ClassPulse web dashboard pages in the system browser.
package browser

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

// DashboardPath is the web route of an activity dashboard.
const DashboardPath = "/professor/activity/"

// starter launches the platform command; replaced in tests.
var starter = func(cmd *exec.Cmd) error { return cmd.Start() }

// DashboardURL returns the web dashboard URL of an activity.
func DashboardURL(frontendURL, activityID string) (string, error) {
	if activityID == "" {
		return "", fmt.Errorf("activity id must not be empty")
	}
	base, err := Validate(frontendURL)
	if err != nil {
		return "", err
	}
	return base.JoinPath(DashboardPath, url.PathEscape(activityID)).String(), nil
}

// Validate parses urlString and accepts only http and https URLs.
func Validate(urlString string) (*url.URL, error) {
	parsedURL, err := url.Parse(urlString)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme: %s (only http and https allowed)", parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid URL: missing host")
	}

	return parsedURL, nil
}

// Open opens the specified URL in the default browser.
// It validates the URL before passing it to the system browser to prevent command injection.
func Open(urlString string) error {
	if _, err := Validate(urlString); err != nil {
		return err
	}

	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "linux":
		cmd = exec.Command("xdg-open", urlString) // #nosec G204 -- URL validated above
	case "darwin":
		cmd = exec.Command("open", urlString) // #nosec G204 -- URL validated above
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", urlString) // #nosec G204 -- URL validated above
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return starter(cmd)
}
