package parser

import "time"

// FeedMetadata contains metadata about a parsed feed
type FeedMetadata struct {
	Title       string
	Link        string
	Description string
	Language    string
	Updated     *time.Time
}
