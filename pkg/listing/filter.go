// Package listing derives the visible note list from the stored collection
// and the current search query.
package listing

import (
	"sort"
	"strings"

	"github.com/aretw0/memento/pkg/core"
)

// FilterAndSort keeps the notes whose title or content contains query
// (trimmed, case-insensitive) and orders them pinned first, then newest first.
// Notes with equal keys keep their input order. The input slice is not
// modified.
func FilterAndSort(notes []core.Note, query string) []core.Note {
	q := strings.ToLower(strings.TrimSpace(query))

	out := make([]core.Note, 0, len(notes))
	for _, n := range notes {
		if q == "" || Matches(n, q) {
			out = append(out, n)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Pinned != out[j].Pinned {
			return out[i].Pinned
		}
		return out[i].Timestamp > out[j].Timestamp
	})
	return out
}

// Matches reports whether the lower-cased query occurs in the note's title or
// content.
func Matches(n core.Note, lowerQuery string) bool {
	return strings.Contains(strings.ToLower(n.Title), lowerQuery) ||
		strings.Contains(strings.ToLower(n.Content), lowerQuery)
}
