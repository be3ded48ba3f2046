package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/gcbaptista/go-rank-compare/model"
)

// pairwiseColumns is the number of candidates per pairwise table.
const pairwiseColumns = 6

// LaTeX writes the report as a LaTeX tabular with one row per candidate and
// one MAP column per cutoff, followed by the RHOS shell array. With a
// pairwise matrix it also writes the pairwise tables and PARIWISERHOS.
func LaTeX(w io.Writer, r *model.Report) error {
	bw := bufio.NewWriter(w)
	cutoffs := shownCutoffs(r)

	var header strings.Builder
	for _, k := range cutoffs {
		fmt.Fprintf(&header, " & %d", k)
	}

	fmt.Fprintf(bw, "\\begin{tabular}{lc|rr%s}\n", strings.Repeat("c", len(cutoffs)))
	fmt.Fprintf(bw, "name & n & $\\rho$ & $\\sigma$%s \\\\\n", header.String())
	fmt.Fprintln(bw, "\\hline")

	rhos := "0.00"
	interRhos := ""
	for _, entry := range r.Entries {
		var row strings.Builder
		fmt.Fprintf(&row, "%s & %d & %s & %s", entry.Name, entry.NonZeroEntries,
			latexNumber(entry.MeanSpearman, "%.4f"), latexNumber(entry.StdDevSpearman, "%.4f"))
		for _, k := range cutoffs {
			meanAP := model.Undefined()
			if stats, ok := cutoffStats(entry, k); ok {
				meanAP = stats.MAP
			}
			fmt.Fprintf(&row, " & %s", latexNumber(meanAP, "%.1f"))
		}
		fmt.Fprintf(bw, "%s \\\\\n", row.String())

		rhos += " " + latexNumber(entry.MeanSpearman, "%.4f")
		interRhos += " " + latexNumber(entry.MeanSpearman, "%.4f")
	}
	fmt.Fprintln(bw, "\\end{tabular}")

	if r.Pairwise != nil {
		interRhos += "\n" + writePairwiseLaTeX(bw, r.Pairwise)
	}

	fmt.Fprintf(bw, "RHOS=(%s)\n", rhos)
	fmt.Fprintf(bw, "PARIWISERHOS=(%s)\n", interRhos)
	return bw.Flush()
}

// writePairwiseLaTeX writes the matrix in tables of pairwiseColumns columns.
// Correlations above 0.8 are bold and below 0.3 italic. It returns the upper
// triangle, one line per row.
func writePairwiseLaTeX(w io.Writer, matrix *model.PairwiseMatrix) string {
	fmt.Fprint(w, "\n-----------------\n\n")

	groups := (len(matrix.Names) + pairwiseColumns - 1) / pairwiseColumns
	tables := make([]strings.Builder, groups)
	for i, name := range matrix.Names {
		fmt.Fprintf(&tables[i/pairwiseColumns], " & %s", name)
	}
	for g := range tables {
		tables[g].WriteString(" \\\\ \n \\hline \n")
	}

	var upper strings.Builder
	for i, name := range matrix.Names {
		for g := range tables {
			tables[g].WriteString(name)
		}
		for j, rho := range matrix.Rho[i] {
			v := rho.Float()
			switch {
			case !rho.Defined():
				fmt.Fprintf(&tables[j/pairwiseColumns], " & %s", latexNumber(rho, "%.02f"))
			case v > 0.8:
				fmt.Fprintf(&tables[j/pairwiseColumns], " & \\bf %.02f", v)
			case v < 0.3:
				fmt.Fprintf(&tables[j/pairwiseColumns], " & \\it %.02f", v)
			default:
				fmt.Fprintf(&tables[j/pairwiseColumns], " & %.02f", v)
			}
			if j > i {
				fmt.Fprintf(&upper, " %s", latexNumber(rho, "%.04f"))
			}
		}
		upper.WriteString("\n")
		for g := range tables {
			tables[g].WriteString(" \\\\ \n")
		}
	}

	for g := range tables {
		fmt.Fprintln(w, "\\begin{tabular}{l|ccccc}")
		fmt.Fprintln(w, tables[g].String())
		fmt.Fprint(w, "\\end{tabular}\n\n\n")
	}
	return upper.String()
}

// latexNumber formats a defined value and prints "--" for an undefined one.
func latexNumber(m model.Metric, format string) string {
	if !m.Defined() {
		return "--"
	}
	return fmt.Sprintf(format, m.Float())
}
