package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFetchSource_String(t *testing.T) {
	tests := []struct {
		source FetchSource
		want   string
	}{
		{FetchSourceUnset, "unset"},
		{FetchSourceCache, "cache"},
		{FetchSourceNetwork, "network"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.source.String())
	}
}

func TestFetchSource_IsValid(t *testing.T) {
	tests := []struct {
		source FetchSource
		want   bool
	}{
		{FetchSourceCache, true},
		{FetchSourceNetwork, true},
		{FetchSourceUnset, false},
		{FetchSource("arbitrary"), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.source.IsValid(), "FetchSource(%q).IsValid()", string(tt.source))
	}
}

func TestFetchSource_CacheHit(t *testing.T) {
	assert.True(t, FetchSourceCache.CacheHit())
	assert.False(t, FetchSourceNetwork.CacheHit())
	assert.False(t, FetchSourceUnset.CacheHit())
}
