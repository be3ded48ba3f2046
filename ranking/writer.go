package ranking

import (
	"bufio"
	"cmp"
	"fmt"
	"io"
	"slices"
	"strconv"
)

// FromScores turns per-item scores into entries sorted by descending score,
// which is the form every ranking source must have. Equal scores are ordered
// by item id so the output is deterministic. Comments are optional.
func FromScores(scores map[string]float64, comments map[string]string) []Entry {
	entries := make([]Entry, 0, len(scores))
	for id, score := range scores {
		entries = append(entries, Entry{ID: id, Score: score, Comment: comments[id]})
	}
	slices.SortFunc(entries, func(a, b Entry) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return entries
}

// WriteEntries writes entries in the tab-separated format Read understands.
func WriteEntries(w io.Writer, entries []Entry) error {
	bw := bufio.NewWriter(w)
	for _, entry := range entries {
		line := entry.ID + "\t" + strconv.FormatFloat(entry.Score, 'g', -1, 64)
		if entry.Comment != "" {
			line += "\t" + entry.Comment
		}
		if _, err := bw.WriteString(line + "\n"); err != nil {
			return fmt.Errorf("failed to write entry %s: %w", entry.ID, err)
		}
	}
	return bw.Flush()
}
