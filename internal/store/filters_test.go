package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEligibility(t *testing.T) {
	tests := []struct {
		name       string
		msg        Message
		wantSkip   bool
		wantReason string
	}{
		{
			name: "plain customer message passes",
			msg:  Message{Sender: "alice@example.com", Subject: "Question", BodyText: "Do you ship abroad?"},
		},
		{
			name:       "noreply sender",
			msg:        Message{Sender: "noreply@shop.example", BodyText: "Your order shipped"},
			wantSkip:   true,
			wantReason: SkipNoReplySender,
		},
		{
			name:       "hyphenated no-reply sender",
			msg:        Message{Sender: "Support <no-reply@saas.example>", BodyText: "hi"},
			wantSkip:   true,
			wantReason: SkipNoReplySender,
		},
		{
			name:       "bounce daemon",
			msg:        Message{Sender: "MAILER-DAEMON@mx.example", BodyText: "delivery failed"},
			wantSkip:   true,
			wantReason: SkipNoReplySender,
		},
		{
			name:       "system sender",
			msg:        Message{Sender: "alerts@omnibox.example", BodyText: "weekly digest"},
			wantSkip:   true,
			wantReason: SkipSystemSender,
		},
		{
			name:       "own address echoed back",
			msg:        Message{Sender: "Box <box@tenant.example>", BodyText: "fwd"},
			wantSkip:   true,
			wantReason: SkipSelfAddress,
		},
		{
			name:       "newsletter with unsubscribe footer",
			msg:        Message{Sender: "news@vendor.example", BodyText: "Deals!\n\nClick here to unsubscribe."},
			wantSkip:   true,
			wantReason: SkipUnsubscribeContent,
		},
		{
			name:       "unsubscribe in subject",
			msg:        Message{Sender: "list@vendor.example", Subject: "How to unsubscribe", BodyText: "x"},
			wantSkip:   true,
			wantReason: SkipUnsubscribeContent,
		},
		{
			name: "unsubscribe mentioned by a real customer is still filtered",
			msg:  Message{Sender: "bob@example.com", BodyText: "please unsubscribe me from your list"},
			// Deliberate: content filter wins over sender legitimacy.
			wantSkip:   true,
			wantReason: SkipUnsubscribeContent,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Eligibility(tt.msg, "box@tenant.example", "alerts@omnibox.example")
			assert.Equal(t, tt.wantSkip, v.Skip)
			assert.Equal(t, tt.wantReason, v.Reason)
		})
	}
}

func TestEligibilityEmptySelfAndSystem(t *testing.T) {
	v := Eligibility(Message{Sender: "alice@example.com", BodyText: "hi"}, "", "")
	assert.False(t, v.Skip, "empty filter config must not match every sender")
}

func TestNormalizeBodyPrefersText(t *testing.T) {
	got := NormalizeBody("plain wins", "<p>html loses</p>")
	assert.Equal(t, "plain wins", got)
}

func TestNormalizeBodyConvertsHTML(t *testing.T) {
	got := NormalizeBody("", "<p>Hello <strong>there</strong></p>")
	assert.Equal(t, "Hello **there**", got)
}

func TestNormalizeBodyEmpty(t *testing.T) {
	assert.Equal(t, "", NormalizeBody("", ""))
	assert.Equal(t, "", NormalizeBody("   ", ""))
}
