package research

import (
	"regexp"
	"slices"
)

var sourceURLPattern = regexp.MustCompile("https?://[^\\s<>\"{}|\\\\^`\\[\\]]+[^\\s<>\"{}|\\\\^`\\[\\].,;:!?]")

// ExtractSources returns the distinct URLs found in an answer, sorted.
func ExtractSources(answer string) []string {
	urls := sourceURLPattern.FindAllString(answer, -1)
	if len(urls) == 0 {
		return []string{}
	}
	slices.Sort(urls)
	return slices.Compact(urls)
}
