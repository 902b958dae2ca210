package schema

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// PatternCache keeps compiled element patterns between invocations. It holds
// only compiled expressions, never document data.
type PatternCache struct {
	cache *gocache.Cache
}

func NewPatternCache(ttl, cleanupInterval time.Duration) *PatternCache {
	return &PatternCache{cache: gocache.New(ttl, cleanupInterval)}
}

// Compile returns the case-insensitive expression for pattern. A pattern
// written as a literal (/body/flags) is reduced to its body.
func (c *PatternCache) Compile(pattern string) (*regexp.Regexp, error) {
	if c != nil {
		if v, ok := c.cache.Get(pattern); ok {
			return v.(*regexp.Regexp), nil
		}
	}

	re, err := regexp.Compile("(?i)" + patternBody(pattern))
	if err != nil {
		return nil, fmt.Errorf("invalid element pattern %q: %w", pattern, err)
	}

	if c != nil {
		c.cache.SetDefault(pattern, re)
	}
	return re, nil
}

// Len number of cached expressions
func (c *PatternCache) Len() int {
	return c.cache.ItemCount()
}

func patternBody(pattern string) string {
	if len(pattern) < 2 || pattern[0] != '/' {
		return pattern
	}
	end := strings.LastIndex(pattern, "/")
	if end <= 0 {
		return pattern
	}
	for _, f := range pattern[end+1:] {
		if !strings.ContainsRune("gimsuy", f) {
			return pattern
		}
	}
	return pattern[1:end]
}
