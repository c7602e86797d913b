package rendering

import (
	"os"
	"strings"
)

// Capabilities describes what the current terminal supports.
type Capabilities struct {
	Hyperlinks bool
	Type       string
}

// hyperlinkTerminals are the TERM_PROGRAM values known to render OSC 8.
var hyperlinkTerminals = map[string]bool{
	"ghostty":   true,
	"kitty":     true,
	"wezterm":   true,
	"iTerm.app": true,
	"vscode":    true,
}

// DetectCapabilities inspects the environment for terminal features. When
// detection fails the result is conservative; plain text beats broken
// escape codes.
func DetectCapabilities() Capabilities {
	termProgram := os.Getenv("TERM_PROGRAM")
	termName := os.Getenv("TERM")

	caps := Capabilities{Type: termProgram}
	if caps.Type == "" {
		caps.Type = termName
	}

	if hyperlinkTerminals[termProgram] {
		caps.Hyperlinks = true
	}
	if os.Getenv("KITTY_WINDOW_ID") != "" {
		caps.Hyperlinks = true
	}
	if strings.Contains(termName, "xterm") {
		caps.Hyperlinks = true
	}

	return caps
}

// IsHyperlinksSupported reports whether the terminal renders OSC 8 links.
func IsHyperlinksSupported() bool {
	return DetectCapabilities().Hyperlinks
}

// TerminalInfo returns a human-readable capability summary.
func TerminalInfo() string {
	caps := DetectCapabilities()
	info := "Terminal: " + caps.Type
	if caps.Hyperlinks {
		info += " (supports: hyperlinks)"
	}
	return info
}
