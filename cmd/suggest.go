package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/marcus/onboard/internal/checklist"
	"github.com/sahilm/fuzzy"
)

// maxSuggestions caps "did you mean" lists.
const maxSuggestions = 3

// suggestFrom returns up to maxSuggestions candidates that fuzzy-match
// query, best first.
func suggestFrom(query string, candidates []string) []string {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}
	matches := fuzzy.Find(query, candidates)
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	var out []string
	for _, m := range matches {
		if len(out) == maxSuggestions {
			break
		}
		out = append(out, m.Str)
	}
	return out
}

// didYouMean formats suggestions as an error hint, or "" without any.
func didYouMean(query string, candidates []string) string {
	s := suggestFrom(query, candidates)
	if len(s) == 0 {
		return ""
	}
	return fmt.Sprintf(" (did you mean %s?)", strings.Join(s, ", "))
}

func accountItemIDs() []string {
	var ids []string
	for _, it := range checklist.DefaultAccountItems() {
		ids = append(ids, it.ID)
	}
	return ids
}

// readArgs lists everything `onboard read` accepts.
func readArgs() []string {
	args := append([]string{}, checklist.DevTopics()...)
	args = append(args, checklist.GuideReadKeys()...)
	return append(args, checklist.DevReadKeys()...)
}
