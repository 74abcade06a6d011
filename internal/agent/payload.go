package agent

import (
	"encoding/json"
	"sort"
	"unicode/utf8"
)

// FitPayload returns url and content with content cut, on a rune boundary,
// so that the JSON encoding of the pair is at most maxBytes.
func FitPayload(url, content string, maxBytes int) SearchResults {
	full := SearchResults{URL: url, Content: content}
	if encodedLen(full) <= maxBytes {
		return full
	}

	runes := []rune(content)
	// largest prefix length whose encoding still fits
	n := sort.Search(len(runes)+1, func(i int) bool {
		return encodedLen(SearchResults{URL: url, Content: string(runes[:i])}) > maxBytes
	}) - 1
	if n < 0 {
		n = 0
	}
	return SearchResults{URL: url, Content: string(runes[:n])}
}

func encodedLen(r SearchResults) int {
	b, err := json.Marshal(r)
	if err != nil {
		return utf8.RuneCountInString(r.Content)
	}
	return len(b)
}
