package article

import (
	"strings"
	"testing"
)

func TestFingerprint_Deterministic(t *testing.T) {
	hash1 := Fingerprint("Test Title", "Test content here")
	hash2 := Fingerprint("Test Title", "Test content here")
	hash3 := Fingerprint("Different", "Different content")

	if hash1 != hash2 {
		t.Error("Same content must produce the same fingerprint")
	}
	if hash1 == hash3 {
		t.Error("Different content must produce different fingerprints")
	}
	if len(hash1) != 64 {
		t.Errorf("Expected 64-char SHA-256 hex digest, got %d chars", len(hash1))
	}
}

func TestFingerprint_CaseInsensitive(t *testing.T) {
	hash1 := Fingerprint("Test Title", "Test Content")
	hash2 := Fingerprint("test title", "test content")

	if hash1 != hash2 {
		t.Error("Fingerprint must be case-insensitive")
	}

	if Fingerprint("Test Title", "x") != Fingerprint("test title", "X") {
		t.Error("Fingerprint must be case-insensitive for short bodies too")
	}
}

func TestFingerprint_TitlePunctuationIgnored(t *testing.T) {
	hash1 := Fingerprint("Breaking: News, Today!", "body text")
	hash2 := Fingerprint("Breaking News Today", "body text")

	if hash1 != hash2 {
		t.Error("Title punctuation must not affect the fingerprint")
	}
}

func TestFingerprint_TitleWhitespaceCollapsed(t *testing.T) {
	hash1 := Fingerprint("Breaking   News\t Today", "body")
	hash2 := Fingerprint("Breaking News Today", "body")

	if hash1 != hash2 {
		t.Error("Whitespace runs in the title must collapse to one space")
	}
}

func TestFingerprint_BodyPrefixOnly(t *testing.T) {
	prefix := strings.Repeat("a", fingerprintBodyPrefix)

	hash1 := Fingerprint("Title", prefix+" trailing part one")
	hash2 := Fingerprint("Title", prefix+" a completely different tail")

	if hash1 != hash2 {
		t.Errorf("Only the first %d body characters participate in the fingerprint", fingerprintBodyPrefix)
	}

	hash3 := Fingerprint("Title", "changed "+prefix)
	if hash1 == hash3 {
		t.Error("Changes within the body prefix must change the fingerprint")
	}
}
