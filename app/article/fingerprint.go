package article

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// fingerprintBodyPrefix is how much of the body participates in the
// fingerprint. Enough to tell articles apart, short enough that trailing
// boilerplate differences do not split identical content.
const fingerprintBodyPrefix = 500

// Fingerprint derives the content fingerprint for an article: a SHA-256
// hex digest of the normalized title plus the normalized first characters
// of the body. Pure function of its input, so identical normalized content
// always produces the identical fingerprint regardless of URL.
func Fingerprint(title, body string) string {
	normalized := normalizeTitle(title) + normalizeBodyPrefix(body)
	digest := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(digest[:])
}

// normalizeTitle lowercases, keeps only alphanumerics and whitespace, and
// collapses whitespace runs to single spaces.
func normalizeTitle(title string) string {
	lowered := strings.ToLower(norm.NFC.String(title))

	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// normalizeBodyPrefix lowercases and trims the first N characters of the
// body.
func normalizeBodyPrefix(body string) string {
	runes := []rune(norm.NFC.String(body))
	if len(runes) > fingerprintBodyPrefix {
		runes = runes[:fingerprintBodyPrefix]
	}
	return strings.TrimSpace(strings.ToLower(string(runes)))
}
