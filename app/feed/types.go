package feed

import (
	"time"
)

// Post is one extracted news item. Link doubles as the entry GUID.
type Post struct {
	Title       string
	Body        string
	Link        string
	PublishedAt *time.Time // nil when the source had no usable timestamp
}

// Channel holds the feed-level metadata written once per document.
type Channel struct {
	Title       string
	Link        string
	Description string
	Language    string
	SelfURL     string
}

// Extraction is the outcome of running the extractor over one document.
type Extraction struct {
	Posts      []Post
	Containers int // containers matched by the post selector
	Considered int // containers left after ordering and the max items cap
	Skipped    int
	Filtered   int
	SkipCounts map[SkipReason]int
}

type SkipReason string

const (
	SkipMissingTitle SkipReason = "missing_title"
	SkipMissingBody  SkipReason = "missing_body"
	SkipMissingLink  SkipReason = "missing_link"
	SkipMissingDate  SkipReason = "missing_date"
)

// Configuration types

type Order string

const (
	OrderNewestFirst Order = "newest-first"
	OrderOldestFirst Order = "oldest-first"
)

type DatePolicy string

const (
	DatePolicyOptional DatePolicy = "optional"
	DatePolicyRequired DatePolicy = "required"
)

type Config struct {
	Name      string          // Derived from the profile filename (without extension)
	URL       string          `yaml:"url"`
	Channel   ConfigChannel   `yaml:"channel"`
	Selectors ConfigSelectors `yaml:"selectors"`
	Settings  ConfigSettings  `yaml:"settings"`
	Filters   []ConfigFilter  `yaml:"filters"`
}

type ConfigChannel struct {
	Title       string `yaml:"title"`
	Link        string `yaml:"link"`
	Description string `yaml:"description"`
	Language    string `yaml:"language"`
}

type ConfigSelectors struct {
	Post     string `yaml:"post"`
	Title    string `yaml:"title"`
	Body     string `yaml:"body"`
	Link     string `yaml:"link"`
	LinkAttr string `yaml:"link_attr"`
	Date     string `yaml:"date"` // empty disables date extraction
	DateAttr string `yaml:"date_attr"`
}

type ConfigSettings struct {
	MaxItems   int        `yaml:"max_items"`
	Order      Order      `yaml:"order"`
	DatePolicy DatePolicy `yaml:"date_policy"`
	Timeout    int        `yaml:"timeout"` // seconds
}

type ConfigFilter struct {
	Field    string   `yaml:"field"`
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}
