package article

import (
	"testing"
)

func TestClassify_New(t *testing.T) {
	known := KnownRecords{
		FingerprintByURL: map[string]string{},
		URLByFingerprint: map[string]string{},
	}

	got := Classify(known, "https://example.com/a", "fp-1")
	if got != ClassificationNew {
		t.Errorf("Expected new, got %s", got)
	}
}

func TestClassify_SamePageUnchanged(t *testing.T) {
	known := KnownRecords{
		FingerprintByURL: map[string]string{"https://example.com/a": "fp-1"},
		URLByFingerprint: map[string]string{"fp-1": "https://example.com/a"},
	}

	got := Classify(known, "https://example.com/a", "fp-1")
	if got != ClassificationDuplicate {
		t.Errorf("Refetched unchanged page must be duplicate content, got %s", got)
	}
}

func TestClassify_SamePageChangedContent(t *testing.T) {
	known := KnownRecords{
		FingerprintByURL: map[string]string{"https://example.com/a": "fp-1"},
		URLByFingerprint: map[string]string{"fp-1": "https://example.com/a"},
	}

	got := Classify(known, "https://example.com/a", "fp-2")
	if got != ClassificationUpdated {
		t.Errorf("Known URL with changed fingerprint must be updated content, got %s", got)
	}
}

func TestClassify_RepublishedUnderDifferentURL(t *testing.T) {
	// Article A stored under URL1 with fingerprint F; article B arrives
	// under URL2 with the same F.
	known := KnownRecords{
		FingerprintByURL: map[string]string{"https://example.com/url1": "fp-shared"},
		URLByFingerprint: map[string]string{"fp-shared": "https://example.com/url1"},
	}

	got := Classify(known, "https://example.com/url2", "fp-shared")
	if got != ClassificationDuplicate {
		t.Errorf("Same content under another URL must be duplicate content, got %s", got)
	}
}
