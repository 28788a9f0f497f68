package article

import (
	"log/slog"
	"strings"
	"unicode"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

const (
	// DefaultMatchThreshold is the similarity ratio a fuzzy comparison has
	// to reach to count as a match. Inherited behavior, pinned by tests,
	// not derived from anything.
	DefaultMatchThreshold = 85
	// DefaultMatchBoost rewards multi-signal relevance when more than one
	// keyword matched exactly.
	DefaultMatchBoost = 1.2

	// fuzzyWeight discounts fuzzy matches relative to exact ones.
	fuzzyWeight = 0.7
	// minFuzzyWordLength excludes short strings from fuzzy comparison,
	// where high ratios are spurious.
	minFuzzyWordLength = 3
)

// stopWords are dropped when extracting keywords from a free-text prompt.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "from": true, "about": true, "as": true,
	"is": true, "are": true, "was": true, "were": true, "be": true,
	"been": true, "being": true, "have": true, "has": true, "had": true,
	"do": true, "does": true, "did": true, "will": true, "would": true,
	"should": true, "could": true, "may": true, "might": true, "must": true,
	"can": true, "this": true, "that": true, "these": true, "those": true,
	"i": true, "you": true, "he": true, "she": true, "it": true, "we": true,
	"they": true, "what": true, "which": true, "who": true, "when": true,
	"where": true, "why": true, "how": true,
}

// Criterion is the read-only view of a user-defined interest the matcher
// scores against.
type Criterion struct {
	ID       string
	Name     string
	Keywords []string
	Prompt   string
	Active   bool
}

// Matcher scores articles against criteria using exact substring matching
// with a fuzzy fallback. Threshold and Boost are tunable; the defaults pin
// the inherited behavior.
type Matcher struct {
	Threshold int
	Boost     float64
}

func NewMatcher(threshold int, boost float64) *Matcher {
	return &Matcher{Threshold: threshold, Boost: boost}
}

// Score returns the relevance of an article (title plus summary) to a
// criterion's keywords and prompt, in [0.0, 1.0]. Scoring never fails: any
// internal panic is swallowed and reported as 0.0 so one bad article cannot
// abort a batch.
func (m *Matcher) Score(title, summary string, keywords []string, prompt string) (score float64) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Relevance scoring panicked", "title", title, "panic", r)
			score = 0.0
		}
	}()

	if len(keywords) == 0 && prompt == "" {
		return 0.0
	}

	corpus := normalizeCorpus(title + " " + summary)
	corpusWords := strings.Fields(corpus)

	keywordSet := buildKeywordSet(keywords, prompt)
	if len(keywordSet) == 0 {
		return 0.0
	}

	exactCount := 0
	fuzzyCount := 0
	for _, keyword := range keywordSet {
		if strings.Contains(corpus, keyword) {
			exactCount++
			continue
		}
		if m.fuzzyMatches(keyword, corpusWords) {
			fuzzyCount++
		}
	}

	weighted := float64(exactCount) + fuzzyWeight*float64(fuzzyCount)
	score = weighted / float64(len(keywordSet))

	if exactCount > 1 {
		score = min(score*m.Boost, 1.0)
	}

	return score
}

// fuzzyMatches reports whether a keyword fuzzy-matches anywhere in the
// corpus. Multi-word keywords slide a window of the same word count across
// the corpus; single words are compared individually against every corpus
// word long enough to compare meaningfully.
func (m *Matcher) fuzzyMatches(keyword string, corpusWords []string) bool {
	keywordWords := strings.Fields(keyword)

	if len(keywordWords) > 1 {
		for i := 0; i+len(keywordWords) <= len(corpusWords); i++ {
			window := strings.Join(corpusWords[i:i+len(keywordWords)], " ")
			if fuzzy.Ratio(keyword, window) >= m.Threshold {
				return true
			}
		}
		return false
	}

	if len(keyword) <= minFuzzyWordLength {
		return false
	}
	for _, word := range corpusWords {
		if len(word) <= minFuzzyWordLength {
			continue
		}
		if fuzzy.Ratio(keyword, word) >= m.Threshold {
			return true
		}
	}
	return false
}

// buildKeywordSet merges normalized explicit keywords with keywords
// extracted from the prompt, preserving order and dropping duplicates.
func buildKeywordSet(keywords []string, prompt string) []string {
	seen := make(map[string]bool)
	var set []string

	add := func(keyword string) {
		if keyword == "" || seen[keyword] {
			return
		}
		seen[keyword] = true
		set = append(set, keyword)
	}

	for _, keyword := range keywords {
		normalized := strings.TrimSpace(strings.ToLower(keyword))
		normalized = strings.ReplaceAll(normalized, "-", " ")
		normalized = strings.ReplaceAll(normalized, "_", " ")
		add(normalized)
	}

	for _, token := range strings.Fields(prompt) {
		word := strings.ToLower(strings.Trim(token, `.,!?;:()[]{}"'-`))
		if len(word) <= 2 || stopWords[word] {
			continue
		}
		add(word)
	}

	return set
}

// normalizeCorpus lowercases and replaces every non-alphanumeric character
// with a space, so punctuation and hyphenation never block a match.
func normalizeCorpus(text string) string {
	lowered := strings.ToLower(text)

	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}
