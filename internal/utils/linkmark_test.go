package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeDecodeLink_RoundTrip(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		text string
		link string
	}{
		{"with link", "Payment 123 is now Completed.", "/payment-history"},
		{"without link", "Payment 123 is now Completed.", ""},
		{"link with query", "3 payments pending", "/cashier/payments?status=pending&method=online"},
		{"text with brackets", "Status changed to [pending]", "/payments/42"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			encoded := EncodeLink(tc.text, tc.link)
			clean, link := DecodeLink(encoded)
			assert.Equal(t, tc.text, clean)
			assert.Equal(t, tc.link, link)
		})
	}
}

func TestEncodeLink_EmptyLinkLeavesTextUnchanged(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Hello", EncodeLink("Hello", ""))
	assert.Equal(t, "Hello", EncodeLink("  Hello  ", ""))
}

func TestDecodeLink_PlainText(t *testing.T) {
	t.Parallel()

	clean, link := DecodeLink("Just a message, no marker")
	assert.Equal(t, "Just a message, no marker", clean)
	assert.Empty(t, link)
}

func TestDecodeLink_TrailingBracketWithoutPrefix(t *testing.T) {
	t.Parallel()

	clean, link := DecodeLink("Totals: [100]")
	assert.Equal(t, "Totals: [100]", clean)
	assert.Empty(t, link)
}

func TestDecodeLink_MarkerQuotedMidTextIsNotALink(t *testing.T) {
	t.Parallel()

	// A user-authored message can quote the marker syntax itself. Only the
	// final token counts, so mid-text markers stay part of the message.
	raw := "Use [@href:/path] markers like [this]"
	clean, link := DecodeLink(raw)
	assert.Equal(t, raw, clean)
	assert.Empty(t, link)
}

func TestDecodeLink_BareMarkerDecodes(t *testing.T) {
	t.Parallel()

	clean, link := DecodeLink("[@href:/payments]")
	assert.Empty(t, clean)
	assert.Equal(t, "/payments", link)
}

func TestContentHash_StableAndLinkSensitive(t *testing.T) {
	t.Parallel()

	h1 := ContentHash("New student inquiry: fees", "/cashier/messages/1")
	h2 := ContentHash("New student inquiry: fees", "/cashier/messages/1")
	assert.Equal(t, h1, h2, "same content must hash identically")
	assert.Len(t, h1, 64)

	h3 := ContentHash("New student inquiry: fees", "/cashier/messages/2")
	assert.NotEqual(t, h1, h3, "different links must produce different hashes")

	h4 := ContentHash("Different text", "/cashier/messages/1")
	assert.NotEqual(t, h1, h4)
}

func TestContentHash_MatchesLegacyEncodedForm(t *testing.T) {
	t.Parallel()

	// Rows migrated from the old portal were hashed over the marker-encoded
	// text, so the split-column hash must agree with it.
	legacy := ContentHash("Payment 123 is now Completed. [@href:/payment-history]", "")
	current := ContentHash("Payment 123 is now Completed.", "/payment-history")
	assert.Equal(t, legacy, current)
}
