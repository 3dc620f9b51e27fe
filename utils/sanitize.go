package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var sanitizer = bluemonday.UGCPolicy()

// maxSanitizePasses bounds the unescape loop in SanitizeField.
const maxSanitizePasses = 4

// Sanitize cleans HTML content to prevent XSS attacks.
func Sanitize(input string) string {
	return sanitizer.Sanitize(input)
}

// SanitizeField trims and sanitizes a user supplied text field and returns it
// as plain text: disallowed markup is removed and the entities the sanitizer
// introduces are decoded again, so "Tom & Jerry" is stored as typed.
// Markup that sanitizes to nothing yields an empty string. Decoding repeats
// until stable so encoded markup cannot survive as a tag.
func SanitizeField(input string) string {
	out := strings.TrimSpace(input)
	for i := 0; i < maxSanitizePasses; i++ {
		next := strings.TrimSpace(html.UnescapeString(Sanitize(out)))
		if next == out {
			return out
		}
		out = next
	}
	return strings.TrimSpace(Sanitize(out))
}
