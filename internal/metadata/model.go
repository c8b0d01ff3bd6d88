package metadata

import (
	"strings"
	"time"
)

const (
	// CacheTTL is how long a fetched result is served from the cache.
	CacheTTL = 30 * time.Minute
	// CacheSize is the number of URLs kept in memory per process.
	CacheSize = 100
)

// Metadata is the product preview returned for a URL. Empty fields are
// omitted from the JSON form.
type Metadata struct {
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Image       string   `json:"image,omitempty"`
	Logo        string   `json:"logo,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	URL         string   `json:"url,omitempty"`
	Site        string   `json:"site,omitempty"`
}

// CacheKey normalizes a source URL into its cache key.
func CacheKey(rawURL string) string {
	return strings.ToLower(rawURL)
}
