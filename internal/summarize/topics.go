package summarize

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

const maxTopics = 5

// KeyTopics returns up to five capitalized words longer than three
// characters once punctuation is stripped, most frequent first. Ties keep the order of first appearance.
func KeyTopics(transcript string) []string {
	if len(strings.TrimSpace(transcript)) < MinTranscriptChars {
		return []string{}
	}

	counts := make(map[string]int)
	order := make([]string, 0)
	for _, word := range strings.Fields(transcript) {
		r, _ := utf8.DecodeRuneInString(word)
		if !unicode.IsUpper(r) {
			continue
		}
		word = strings.Trim(word, ".,!?;:")
		if utf8.RuneCountInString(word) <= 3 {
			continue
		}
		if counts[word] == 0 {
			order = append(order, word)
		}
		counts[word]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > maxTopics {
		order = order[:maxTopics]
	}
	return order
}
