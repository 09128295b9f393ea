package models

// FetchSource records where a payload came from
type FetchSource string

const (
	FetchSourceUnset   FetchSource = ""        // Zero value = unset/unknown
	FetchSourceCache   FetchSource = "cache"   // Served from the resource cache
	FetchSourceNetwork FetchSource = "network" // Fetched from the remote origin and cached
)

// String implements fmt.Stringer for logging
func (s FetchSource) String() string {
	if s == "" {
		return "unset"
	}
	return string(s)
}

// IsValid returns true if the source is a known operational value
func (s FetchSource) IsValid() bool {
	switch s {
	case FetchSourceCache, FetchSourceNetwork:
		return true
	}
	return false
}

// CacheHit reports whether the payload was served without network access
func (s FetchSource) CacheHit() bool {
	return s == FetchSourceCache
}
