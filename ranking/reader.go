package ranking

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/gcbaptista/go-rank-compare/internal/errors"
)

const maxLineBytes = 1024 * 1024

// ReadResult holds the entries read from a ranking source together with the
// lines that had to be skipped.
type ReadResult struct {
	Entries []Entry
	// Skipped lists malformed or duplicate lines; reading continued past them.
	Skipped []*errors.LineError
	// Unsorted lists line numbers whose score is higher than the previous
	// line's, violating the descending order sources are assumed to have.
	Unsorted []int
}

// Read parses the tab-separated ranking format, one item per line:
//
//	item_id \t score [\t comment...]
//
// Blank lines are ignored. A line without a numeric score, without an id, or
// repeating an earlier id is recorded in Skipped. Only I/O failures return an error.
func Read(r io.Reader) (*ReadResult, error) {
	result := &ReadResult{}
	seen := make(map[string]int)
	lastScore := 0.0
	haveLast := false

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimRight(scanner.Text(), "\r")
		if lineno == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		entry, err := parseLine(line)
		if err != nil {
			result.Skipped = append(result.Skipped, errors.NewLineError(lineno, line, err))
			continue
		}
		if first, dup := seen[entry.ID]; dup {
			result.Skipped = append(result.Skipped, errors.NewLineError(lineno, line,
				fmt.Errorf("%w (first seen on line %d)", errors.NewDuplicateItemError(entry.ID), first)))
			continue
		}
		seen[entry.ID] = lineno

		if haveLast && entry.Score > lastScore {
			result.Unsorted = append(result.Unsorted, lineno)
		}
		lastScore, haveLast = entry.Score, true

		result.Entries = append(result.Entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return result, fmt.Errorf("failed to read ranking after line %d: %w", lineno, err)
	}
	return result, nil
}

// Normalize applies the checks Read performs to entries that did not come
// from the tab-separated format. IDs are trimmed, and the 1-based positions
// whose score rises above the previous entry's are recorded in Unsorted.
// The input slice is not modified.
func Normalize(entries []Entry) *ReadResult {
	result := &ReadResult{Entries: make([]Entry, len(entries))}
	for i, entry := range entries {
		entry.ID = strings.TrimSpace(entry.ID)
		if i > 0 && entry.Score > entries[i-1].Score {
			result.Unsorted = append(result.Unsorted, i+1)
		}
		result.Entries[i] = entry
	}
	return result
}

func parseLine(line string) (Entry, error) {
	parts := strings.Split(line, "\t")
	if len(parts) < 2 {
		return Entry{}, fmt.Errorf("expected at least 2 tab-separated fields, got %d", len(parts))
	}
	id := strings.TrimSpace(parts[0])
	if id == "" {
		return Entry{}, fmt.Errorf("empty item id")
	}
	score, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Entry{}, err
	}
	return Entry{
		ID:      id,
		Score:   score,
		Comment: strings.Join(parts[2:], " "),
	}, nil
}

// ReadFile reads a ranking source from a file.
func ReadFile(path string) (*ReadResult, error) {
	file, err := os.Open(path) // #nosec G304 -- ranking paths are supplied by the operator
	if err != nil {
		return nil, fmt.Errorf("failed to open ranking %s: %w", path, err)
	}
	defer file.Close()

	result, err := Read(file)
	if err != nil {
		return result, fmt.Errorf("%s: %w", path, err)
	}
	return result, nil
}
