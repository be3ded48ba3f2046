package ranking

import (
	"fmt"
	"math"
)

// Entry is one scored line of a ranking source: an item identifier, its score and
// an optional free-form comment. Sources list entries by descending score.
type Entry struct {
	ID      string  `json:"id"`
	Score   float64 `json:"score"`
	Comment string  `json:"comment,omitempty"`
}

// Element is one item of a Ranking.
// Two elements are equal iff their Content is equal, and elements order
// lexicographically on Content, never on score or rank.
type Element struct {
	Content string
	Score   float64
	Rank    float64
	Comment string
}

// NewElement creates an element whose score is unset (negative infinity).
func NewElement(content string) *Element {
	return &Element{Content: content, Score: math.Inf(-1)}
}

// Equal reports whether both elements identify the same item.
func (e *Element) Equal(other *Element) bool {
	if other == nil {
		return false
	}
	return e.Content == other.Content
}

// Compare orders elements by Content.
func (e *Element) Compare(other *Element) int {
	switch {
	case e.Content < other.Content:
		return -1
	case e.Content > other.Content:
		return 1
	}
	return 0
}

func (e *Element) String() string {
	return e.Content
}

// LongString renders content, rank, score and comment for diagnostics.
func (e *Element) LongString() string {
	return fmt.Sprintf("%s %.1f [%.2f %s]", e.Content, e.Rank, e.Score, e.Comment)
}
