package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// The legacy portal stored a notification's navigation target inside the text
// column using a trailing marker, e.g. "Payment 123 is now Completed.
// [@href:/payment-history]". The current schema keeps message and link in
// separate columns, but the encoded form is still the canonical identity for
// deduplication so hashes line up with rows migrated from the old system.

const (
	linkMarkPrefix = "[@href:"
	linkMarkSuffix = "]"
)

// EncodeLink appends the link marker to text. With an empty link the text is
// returned unchanged.
func EncodeLink(text, link string) string {
	text = strings.TrimSpace(text)
	if link == "" {
		return text
	}
	return text + " " + linkMarkPrefix + link + linkMarkSuffix
}

// DecodeLink splits an encoded notification text back into its clean message
// and link. EncodeLink always emits the marker as the final space-separated
// token (links contain no spaces), so only that token is inspected; a marker
// quoted earlier in the text stays part of the message. Text without a
// trailing marker decodes to (trimmed text, "").
func DecodeLink(encoded string) (clean, link string) {
	encoded = strings.TrimSpace(encoded)

	token := encoded
	if i := strings.LastIndexByte(encoded, ' '); i >= 0 {
		token = encoded[i+1:]
	}
	if !strings.HasPrefix(token, linkMarkPrefix) || !strings.HasSuffix(token, linkMarkSuffix) {
		return encoded, ""
	}

	link = token[len(linkMarkPrefix) : len(token)-len(linkMarkSuffix)]
	clean = strings.TrimSpace(encoded[:len(encoded)-len(token)])
	return clean, link
}

// ContentHash is the dedup identity of a (message, link) pair: SHA-256 of the
// marker-encoded text.
func ContentHash(text, link string) string {
	sum := sha256.Sum256([]byte(EncodeLink(text, link)))
	return hex.EncodeToString(sum[:])
}
