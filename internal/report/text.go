package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/gcbaptista/go-rank-compare/model"
)

// Text writes the report as aligned tables for a terminal.
func Text(w io.Writer, r *model.Report) error {
	var out strings.Builder

	fmt.Fprintf(&out, "Gold: %s (%d items)\n", r.Gold, r.GoldSize)
	fmt.Fprintf(&out, "Report: %s  trials/candidate: %d  seed: %d\n\n", r.ID, r.Settings.Trials(), r.Settings.Seed)

	headers := []string{"NAME", "N", "COMMON", "RHO", "SIGMA", "TRIALS", "EXCLUDED"}
	for _, k := range r.Settings.Cutoffs {
		k := strconv.Itoa(k)
		headers = append(headers, "P@"+k, "R@"+k, "MAP@"+k)
	}

	rows := make([][]string, 0, len(r.Entries))
	for _, entry := range r.Entries {
		row := []string{
			entry.Name,
			strconv.Itoa(entry.NonZeroEntries),
			strconv.Itoa(entry.CommonItems),
			textNumber(entry.MeanSpearman, 4),
			textNumber(entry.StdDevSpearman, 4),
			strconv.Itoa(entry.Trials),
			strconv.Itoa(entry.Excluded),
		}
		for _, k := range r.Settings.Cutoffs {
			stats, ok := cutoffStats(entry, k)
			if !ok {
				stats = model.CutoffStats{Precision: model.Undefined(), Recall: model.Undefined(), MAP: model.Undefined()}
			}
			row = append(row, textNumber(stats.Precision, 1), textNumber(stats.Recall, 1), textNumber(stats.MAP, 1))
		}
		rows = append(rows, row)
	}

	out.WriteString(newTable(headers, rows))
	out.WriteString("\n")

	for _, entry := range r.Entries {
		if entry.Skipped {
			fmt.Fprintf(&out, "skipped %s: %s\n", entry.Name, entry.SkipReason)
		}
		for _, warning := range entry.Warnings {
			fmt.Fprintf(&out, "warning %s: %s\n", entry.Name, warning)
		}
	}

	if r.Pairwise != nil && len(r.Pairwise.Names) > 0 {
		out.WriteString("\nPairwise Spearman (first trial)\n")
		pairHeaders := append([]string{""}, r.Pairwise.Names...)
		pairRows := make([][]string, len(r.Pairwise.Names))
		for i, name := range r.Pairwise.Names {
			pairRows[i] = []string{name}
			for _, rho := range r.Pairwise.Rho[i] {
				pairRows[i] = append(pairRows[i], textNumber(rho, 2))
			}
		}
		out.WriteString(newTable(pairHeaders, pairRows))
		out.WriteString("\n")
	}

	_, err := io.WriteString(w, out.String())
	return err
}

func newTable(headers []string, rows [][]string) string {
	cell := lipgloss.NewStyle().Padding(0, 1)
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col == 0 {
				return cell
			}
			return cell.Align(lipgloss.Right)
		}).
		String()
}

func textNumber(m model.Metric, precision int) string {
	if !m.Defined() {
		return "-"
	}
	return strconv.FormatFloat(m.Float(), 'f', precision, 64)
}
