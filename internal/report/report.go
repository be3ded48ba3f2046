// Package report renders comparison reports as LaTeX, text tables or JSON.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/gcbaptista/go-rank-compare/internal/errors"
	"github.com/gcbaptista/go-rank-compare/model"
)

// Format names an output format.
type Format string

const (
	FormatLaTeX Format = "latex"
	FormatText  Format = "text"
	FormatJSON  Format = "json"
)

// Formats lists the supported formats.
var Formats = []Format{FormatLaTeX, FormatText, FormatJSON}

// ParseFormat converts a user supplied name into a Format.
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(name))) {
	case FormatLaTeX, "tex":
		return FormatLaTeX, nil
	case FormatText, "txt", "":
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", errors.NewValidationError("format", fmt.Sprintf("unknown format '%s' (use latex, text or json)", name))
}

// ContentType returns the HTTP content type of a rendered format.
func (f Format) ContentType() string {
	switch f {
	case FormatLaTeX:
		return "application/x-latex; charset=utf-8"
	case FormatJSON:
		return "application/json; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Render writes r to w in the given format.
func Render(w io.Writer, r *model.Report, format Format) error {
	switch format {
	case FormatLaTeX:
		return LaTeX(w, r)
	case FormatJSON:
		return JSON(w, r)
	case FormatText:
		return Text(w, r)
	}
	return errors.NewValidationError("format", fmt.Sprintf("unknown format '%s'", format))
}

// shownCutoffs returns the cutoffs up to the first one larger than the
// largest common item count of the report.
func shownCutoffs(r *model.Report) []int {
	items := 0
	for _, entry := range r.Entries {
		if entry.CommonItems > items {
			items = entry.CommonItems
		}
	}

	var shown []int
	for _, k := range r.Settings.Cutoffs {
		if k > items {
			break
		}
		shown = append(shown, k)
	}
	return shown
}

func cutoffStats(entry model.ReportEntry, k int) (model.CutoffStats, bool) {
	for _, stats := range entry.Cutoffs {
		if stats.K == k {
			return stats, true
		}
	}
	return model.CutoffStats{}, false
}
