// Package corpus holds the in-memory data model loaded once at process
// startup: the article metadata table, the chunk text table, and the
// gazetteer. All three are immutable for the process lifetime and safe
// for concurrent reads without locking (spec §5).
package corpus

// Article is the immutable-at-query-time record for one article (spec §3).
type Article struct {
	ID       string
	URL      string
	TitleHi  string
	SummaryHi string
	ContentHi string

	PublishedDate string // ISO-8601, empty when unknown
	PublishedTS   int64  // epoch seconds, 0 when unknown

	Categories   []string
	Tags         []string
	Locations    []string
	Contributors []string

	// *_norm counterparts: lowercased + NFKC, used for matching.
	CategoriesNorm   []string
	TagsNorm         []string
	LocationsNorm    []string
	ContributorsNorm []string

	PrimaryCategory string
	PartnerLabel    string
	ArticleType     string
	MultimediaType  string
}

// Chunk is one offline-produced slice of an article's text (spec §3).
type Chunk struct {
	ChunkID      string
	ArticleID    string
	ChunkIndex   int
	ChunkText    string
	ChunkTokens  int

	// Denormalized for snippet display without an article join.
	URL           string
	TitleHi       string
	PublishedDate string
	PublishedTS   int64
}
