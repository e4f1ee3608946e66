package store

import (
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

// Skip reasons recorded on filtered messages and surfaced in fan-out events.
const (
	SkipNoReplySender      = "no_reply_sender"
	SkipSystemSender       = "system_sender"
	SkipSelfAddress        = "self_address"
	SkipUnsubscribeContent = "unsubscribe_content"
)

var noReplyMarkers = []string{
	"no-reply", "noreply", "no_reply", "donotreply", "do-not-reply",
	"mailer-daemon", "postmaster@", "bounce",
}

// FilterVerdict says whether an inbound message is eligible for automated
// handling, and if not, why.
type FilterVerdict struct {
	Skip   bool
	Reason string
}

// Eligibility runs the ingestion filter pipeline over an inbound message.
// Filtered messages are still stored for the record, they just never reach
// classification or reply generation.
func Eligibility(msg Message, selfAddress, systemSender string) FilterVerdict {
	sender := strings.ToLower(strings.TrimSpace(msg.Sender))

	for _, marker := range noReplyMarkers {
		if strings.Contains(sender, marker) {
			return FilterVerdict{Skip: true, Reason: SkipNoReplySender}
		}
	}
	if systemSender != "" && strings.Contains(sender, strings.ToLower(systemSender)) {
		return FilterVerdict{Skip: true, Reason: SkipSystemSender}
	}
	if selfAddress != "" && strings.Contains(sender, strings.ToLower(selfAddress)) {
		return FilterVerdict{Skip: true, Reason: SkipSelfAddress}
	}

	haystack := strings.ToLower(msg.Subject + "\n" + msg.BodyText)
	if strings.Contains(haystack, "unsubscribe") || strings.Contains(haystack, "opt out of these emails") {
		return FilterVerdict{Skip: true, Reason: SkipUnsubscribeContent}
	}
	return FilterVerdict{}
}

// NormalizeBody picks the plain-text rendition of a message body,
// converting HTML to markdown when no text part came through. Conversion
// failures degrade to the raw HTML rather than dropping the body.
func NormalizeBody(text, html string) string {
	if strings.TrimSpace(text) != "" {
		return text
	}
	if strings.TrimSpace(html) == "" {
		return ""
	}
	md, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return html
	}
	return strings.TrimSpace(md)
}
