package report

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-rank-compare/config"
	apperrors "github.com/gcbaptista/go-rank-compare/internal/errors"
	"github.com/gcbaptista/go-rank-compare/model"
)

func sampleReport() *model.Report {
	settings := config.DefaultCompareSettings()
	settings.Cutoffs = []int{5, 50}
	settings.Seed = 11

	return &model.Report{
		ID:       "report-1",
		Gold:     "gold",
		GoldSize: 20,
		Settings: settings,
		Entries: []model.ReportEntry{
			{
				Name:           "sys-a",
				NonZeroEntries: 12,
				CommonItems:    20,
				Trials:         50,
				MeanSpearman:   0.35,
				StdDevSpearman: 0.0123,
				Cutoffs: []model.CutoffStats{
					{K: 5, Precision: 40, Recall: 40, MAP: 62.5, Defined: 50},
					{K: 50, Precision: model.Undefined(), Recall: model.Undefined(), MAP: model.Undefined()},
				},
			},
			{
				Name:           "sys-b",
				MeanSpearman:   model.Undefined(),
				StdDevSpearman: model.Undefined(),
				Cutoffs:        []model.CutoffStats{},
				Skipped:        true,
				SkipReason:     "no common items",
			},
		},
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestLaTeX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, LaTeX(&buf, sampleReport()))

	expected := strings.Join([]string{
		`\begin{tabular}{lc|rrc}`,
		`name & n & $\rho$ & $\sigma$ & 5 \\`,
		`\hline`,
		`sys-a & 12 & 0.3500 & 0.0123 & 62.5 \\`,
		`sys-b & 0 & -- & -- & -- \\`,
		`\end{tabular}`,
		`RHOS=(0.00 0.3500 --)`,
		`PARIWISERHOS=( 0.3500 --)`,
		``,
	}, "\n")
	assert.Equal(t, expected, buf.String())
}

func TestLaTeX_Pairwise(t *testing.T) {
	r := sampleReport()
	r.Entries = r.Entries[:1]
	r.Pairwise = &model.PairwiseMatrix{
		Names: []string{"a", "b", "c"},
		Rho: [][]model.Metric{
			{1, 0.9, 0.1},
			{0.9, 1, 0.5},
			{0.1, 0.5, 1},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, LaTeX(&buf, r))
	out := buf.String()

	assert.Contains(t, out, "\\begin{tabular}{l|ccccc}\n & a & b & c \\\\ \n \\hline \n")
	assert.Contains(t, out, "a & \\bf 1.00 & \\bf 0.90 & \\it 0.10 \\\\ \n")
	assert.Contains(t, out, "b & \\bf 0.90 & \\bf 1.00 & 0.50 \\\\ \n")
	assert.Contains(t, out, "PARIWISERHOS=( 0.3500\n 0.9000 0.1000\n 0.5000\n\n)")
}

func TestLaTeX_UndefinedPairwise(t *testing.T) {
	r := sampleReport()
	r.Entries = r.Entries[:1]
	r.Pairwise = &model.PairwiseMatrix{
		Names: []string{"a", "b"},
		Rho: [][]model.Metric{
			{1, model.Undefined()},
			{model.Undefined(), 1},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, LaTeX(&buf, r))
	out := buf.String()

	assert.NotContains(t, out, "NaN")
	assert.Contains(t, out, "a & \\bf 1.00 & -- \\\\ \n")
	assert.Contains(t, out, "b & -- & \\bf 1.00 \\\\ \n")
	assert.Contains(t, out, "PARIWISERHOS=( 0.3500\n --\n\n)")
}

func TestLaTeX_PairwiseGroupsOfSix(t *testing.T) {
	names := []string{"s1", "s2", "s3", "s4", "s5", "s6", "s7"}
	rho := make([][]model.Metric, len(names))
	for i := range rho {
		rho[i] = make([]model.Metric, len(names))
		for j := range rho[i] {
			rho[i][j] = 0.5
		}
	}

	r := sampleReport()
	r.Pairwise = &model.PairwiseMatrix{Names: names, Rho: rho}

	var buf bytes.Buffer
	require.NoError(t, LaTeX(&buf, r))
	assert.Equal(t, 2, strings.Count(buf.String(), `\begin{tabular}{l|ccccc}`))
	assert.Contains(t, buf.String(), " & s7 \\\\ \n \\hline \n")
}

func TestText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Text(&buf, sampleReport()))
	out := buf.String()

	assert.Contains(t, out, "Gold: gold (20 items)")
	assert.Contains(t, out, "seed: 11")
	for _, header := range []string{"NAME", "RHO", "SIGMA", "P@5", "R@5", "MAP@5", "MAP@50"} {
		assert.Contains(t, out, header)
	}
	assert.Contains(t, out, "sys-a")
	assert.Contains(t, out, "0.3500")
	assert.Contains(t, out, "62.5")
	assert.Contains(t, out, "skipped sys-b: no common items")
	assert.NotContains(t, out, "Pairwise")
}

func TestText_Pairwise(t *testing.T) {
	r := sampleReport()
	r.Pairwise = &model.PairwiseMatrix{
		Names: []string{"sys-a"},
		Rho:   [][]model.Metric{{1}},
	}

	var buf bytes.Buffer
	require.NoError(t, Text(&buf, r))
	assert.Contains(t, buf.String(), "Pairwise Spearman")
	assert.Contains(t, buf.String(), "1.00")
}

func TestJSON_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, sampleReport()))
	assert.Contains(t, buf.String(), `"mean_spearman": null`)
	assert.Contains(t, buf.String(), `"skip_reason": "no common items"`)

	decoded, err := DecodeJSON(&buf)
	require.NoError(t, err)
	assert.Equal(t, "report-1", decoded.ID)
	require.Len(t, decoded.Entries, 2)
	assert.Equal(t, 0.35, decoded.Entries[0].MeanSpearman.Float())
	assert.Equal(t, []int{5, 50}, decoded.Settings.Cutoffs)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected Format
	}{
		{"latex", FormatLaTeX},
		{"TEX", FormatLaTeX},
		{"", FormatText},
		{"text", FormatText},
		{" json ", FormatJSON},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}

	_, err := ParseFormat("html")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestRender(t *testing.T) {
	for _, format := range Formats {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Render(&buf, sampleReport(), format))
			assert.NotEmpty(t, buf.String())
			assert.NotEmpty(t, format.ContentType())
		})
	}

	err := Render(&bytes.Buffer{}, sampleReport(), Format("pdf"))
	assert.Error(t, err, fmt.Sprintf("%v", err))
}
