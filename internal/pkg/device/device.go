// internal/pkg/device/device.go
package device

import (
	"strings"

	"github.com/mssola/user_agent"
)

type Type string

const (
	Desktop Type = "desktop"
	Mobile  Type = "mobile"
	Tablet  Type = "tablet"
	Bot     Type = "bot"
)

// Info is what a User-Agent header says about the client.
type Info struct {
	Browser        string `json:"browser"`
	BrowserVersion string `json:"browser_version"`
	OS             string `json:"os"`
	Type           Type   `json:"type"`
}

// Parse extracts device information from a raw User-Agent string.
func Parse(ua string) Info {
	if strings.TrimSpace(ua) == "" {
		return Info{}
	}

	parsed := user_agent.New(ua)
	browser, version := parsed.Browser()

	kind := Desktop
	lower := strings.ToLower(ua)
	switch {
	case strings.Contains(lower, "tablet"), strings.Contains(lower, "ipad"):
		kind = Tablet
	case parsed.Mobile():
		kind = Mobile
	case parsed.Bot():
		kind = Bot
	}

	return Info{
		Browser:        browser,
		BrowserVersion: version,
		OS:             parsed.OS(),
		Type:           kind,
	}
}

// Describe renders ua as e.g. "Firefox 120.0 on Linux x86_64".
func Describe(ua string) string {
	info := Parse(ua)

	var out string
	if info.Browser != "" {
		out = info.Browser
		if info.BrowserVersion != "" {
			out += " " + info.BrowserVersion
		}
	}
	if info.OS != "" {
		if out != "" {
			out += " on "
		}
		out += info.OS
	}
	if info.Type != "" && info.Type != Desktop {
		out += " (" + string(info.Type) + ")"
	}

	if out == "" {
		return "Unknown Device"
	}
	return out
}
