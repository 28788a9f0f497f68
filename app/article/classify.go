package article

// Classification describes how a freshly extracted article relates to the
// records already stored.
type Classification string

const (
	// ClassificationNew is content never seen before, by URL or fingerprint.
	ClassificationNew Classification = "new"
	// ClassificationDuplicate is unchanged content: the same page refetched,
	// or the same content republished under another URL. Nothing should be
	// overwritten and no second record created.
	ClassificationDuplicate Classification = "duplicate_content"
	// ClassificationUpdated is a known page whose content changed; the
	// stored record should be overwritten.
	ClassificationUpdated Classification = "updated_content"
)

// KnownRecords indexes previously stored articles two ways: fingerprint by
// URL and URL by fingerprint. Both lookups are consulted independently.
type KnownRecords struct {
	FingerprintByURL map[string]string
	URLByFingerprint map[string]string
}

// Classify decides whether an (URL, fingerprint) pair is new, duplicate,
// or updated content relative to the known records.
func Classify(known KnownRecords, articleURL, fingerprint string) Classification {
	if stored, ok := known.FingerprintByURL[articleURL]; ok {
		if stored == fingerprint {
			return ClassificationDuplicate
		}
		return ClassificationUpdated
	}

	if _, ok := known.URLByFingerprint[fingerprint]; ok {
		return ClassificationDuplicate
	}

	return ClassificationNew
}
