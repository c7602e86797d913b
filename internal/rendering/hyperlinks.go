package rendering

import (
	"fmt"
	"strings"

	"mvdan.cc/xurls/v2"
)

// MakeHyperlink wraps displayText in an OSC 8 terminal hyperlink. When the
// terminal does not support hyperlinks, the plain text comes back unchanged.
func MakeHyperlink(displayText, targetURL string) string {
	if !IsHyperlinksSupported() || targetURL == "" {
		return displayText
	}
	return fmt.Sprintf("\x1b]8;;%s\x1b\\%s\x1b]8;;\x1b\\", targetURL, displayText)
}

// AutoLinkText converts URLs found in text to clickable hyperlinks.
func AutoLinkText(text string) string {
	if !IsHyperlinksSupported() {
		return text
	}

	parser := xurls.Relaxed()
	return parser.ReplaceAllStringFunc(text, func(match string) string {
		targetURL := match
		if !strings.HasPrefix(match, "http://") && !strings.HasPrefix(match, "https://") {
			targetURL = "https://" + match
		}
		return MakeHyperlink(match, targetURL)
	})
}

// ExtractURLs returns all URLs found in text.
func ExtractURLs(text string) []string {
	return xurls.Relaxed().FindAllString(text, -1)
}

// EnhanceTextWithLinks makes URLs in message text clickable where supported.
func EnhanceTextWithLinks(text string) string {
	if !IsHyperlinksSupported() {
		return text
	}
	return AutoLinkText(text)
}
