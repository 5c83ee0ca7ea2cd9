package feed

// CandidateItem is a parsed feed entry that has not passed filtering or dedup yet.
// Every field is the first value found in the source or empty.
type CandidateItem struct {
	Title       string
	Link        string
	Description string
	PubDate     string // As written in the source document
	Image       string // Image embedded in the feed entry, if any
}

// Channel is the feed-level metadata captured when a stream is registered.
type Channel struct {
	Title       string
	Link        string
	Description string
}
