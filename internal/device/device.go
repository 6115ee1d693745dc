// Package device describes the handset that raised a panic alert, for the audit trail.
package device

import (
	"strings"

	"github.com/mssola/useragent"
)

// Info is the parsed view of a User-Agent header.
type Info struct {
	Browser string `json:"browser,omitempty"`
	OS      string `json:"os,omitempty"`
	Mobile  bool   `json:"mobile"`
	// Display is a human readable "Browser on OS" label.
	Display string `json:"display"`
}

// Parse extracts browser, OS and form factor from a User-Agent string.
func Parse(userAgent string) Info {
	userAgent = strings.TrimSpace(userAgent)
	if userAgent == "" {
		return Info{Display: "Unknown Device"}
	}

	ua := useragent.New(userAgent)
	browser, _ := ua.Browser()
	os := ua.OS()
	if os == "" {
		os = ua.Platform()
	}

	info := Info{
		Browser: browser,
		OS:      os,
		Mobile:  ua.Mobile(),
	}
	info.Display = displayName(browser, os)
	return info
}

// ParseUserAgent returns only the display label.
func ParseUserAgent(userAgent string) string {
	return Parse(userAgent).Display
}

func displayName(browser, os string) string {
	if browser == "" {
		browser = "Unknown Browser"
	}
	if os == "" {
		os = "Unknown OS"
	}
	return strings.TrimSpace(browser + " on " + os)
}
