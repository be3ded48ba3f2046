package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gcbaptista/go-rank-compare/config"
	"github.com/gcbaptista/go-rank-compare/internal/engine"
	"github.com/gcbaptista/go-rank-compare/internal/report"
	"github.com/gcbaptista/go-rank-compare/model"
)

func newCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <gold> <system file|dir>...",
		Short: "Compare system ranking files against a gold ranking file",
		Long: `Compare reads the gold ranking and every system ranking, runs the configured
number of trials per system and prints the report.

A directory argument contributes every file in it matching --prefix and --ext.
A system is named after its file: the base name without extension, with
underscores replaced by hyphens.`,
		Args: cobra.MinimumNArgs(2),
		RunE: runCompare,
	}

	flags := cmd.Flags()
	flags.Bool("consider-ties", true, "average the ranks of equally scored system items")
	flags.Bool("shuffle-zero-ties", true, "randomly order zero-score system items instead of averaging them")
	flags.Int("shuffles", config.DefaultNumberShuffles, "number of trials when zero-score ties are shuffled")
	flags.String("cutoffs", "", "comma separated k values for P@k, R@k and MAP, e.g. 5,10,20")
	flags.Uint64("seed", 0, "base seed for trial randomness (0 derives one from the clock)")
	flags.Bool("sort-by-rho", true, "sort systems by descending mean Spearman")
	flags.Bool("intercorrelations", false, "also compute the pairwise Spearman matrix between systems")
	flags.Bool("filter-common", true, "align gold and system to their common items before scoring")
	flags.Bool("gold-consider-ties", false, "average the ranks of equally scored gold items")
	flags.Int("parallelism", 0, "concurrent trials (0 uses GOMAXPROCS)")
	flags.StringP("format", "f", string(report.FormatLaTeX), "report format: latex, text or json")
	flags.String("prefix", "", "only read directory files starting with this prefix")
	flags.String("ext", engine.DefaultExtension, "only read directory files with this extension")
	flags.StringP("output", "o", "", "write the report to this file instead of stdout")
	return cmd
}

func runCompare(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyCompareFlags(cmd, &cfg.Compare); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	formatName, _ := cmd.Flags().GetString("format")
	format, err := report.ParseFormat(formatName)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng := engine.NewEngine("", engine.WithLogger(logger), engine.WithDefaults(cfg.Compare))
	defer func() { _ = eng.Close() }()

	req, err := importRankings(ctx, cmd, eng, args[0], args[1:])
	if err != nil {
		return err
	}

	r, err := eng.Compare(ctx, req)
	if err != nil {
		return fmt.Errorf("comparison failed: %w", err)
	}
	logger.Info(ctx, "Comparison finished",
		zap.String("report_id", r.ID),
		zap.Int("candidates", len(r.Entries)),
		zap.Uint64("seed", r.Settings.Seed),
		zap.Int64("took_ms", r.Took))

	out, closeOut, err := openOutput(cmd)
	if err != nil {
		return err
	}
	defer closeOut()
	return eng.RenderReport(out, r.ID, format)
}

// importRankings stores the gold file and the discovered system files and
// returns the request comparing them. The gold file is skipped when a
// directory argument contains it.
func importRankings(ctx context.Context, cmd *cobra.Command, eng *engine.Engine, goldPath string, systemPaths []string) (model.ComparisonRequest, error) {
	prefix, _ := cmd.Flags().GetString("prefix")
	ext, _ := cmd.Flags().GetString("ext")

	files, err := engine.Discover(systemPaths, engine.DiscoverOptions{Prefix: prefix, Extension: ext})
	if err != nil {
		return model.ComparisonRequest{}, err
	}

	goldName := engine.RankingName(goldPath)
	systems := make([]engine.RankingFile, 0, len(files))
	for _, file := range files {
		if samePath(file.Path, goldPath) {
			continue
		}
		if file.Name == goldName {
			return model.ComparisonRequest{}, fmt.Errorf("system %s has the same name as the gold ranking %s", file.Path, goldPath)
		}
		systems = append(systems, file)
	}
	if len(systems) == 0 {
		return model.ComparisonRequest{}, fmt.Errorf("no system rankings found in %v", systemPaths)
	}

	if _, err := eng.ImportFile(goldName, goldPath); err != nil {
		return model.ComparisonRequest{}, fmt.Errorf("failed to read gold ranking: %w", err)
	}
	if _, err := eng.ImportFiles(ctx, systems, nil); err != nil {
		return model.ComparisonRequest{}, fmt.Errorf("failed to read system rankings: %w", err)
	}

	req := model.ComparisonRequest{Gold: goldName, Candidates: make([]string, len(systems))}
	for i, file := range systems {
		req.Candidates[i] = file.Name
	}
	return req, nil
}

// applyCompareFlags overrides settings with the flags set on the command line.
func applyCompareFlags(cmd *cobra.Command, settings *config.CompareSettings) error {
	flags := cmd.Flags()
	boolFlags := map[string]*bool{
		"consider-ties":      &settings.ConsiderTies,
		"shuffle-zero-ties":  &settings.ShuffleZeroTies,
		"sort-by-rho":        &settings.SortByRho,
		"intercorrelations":  &settings.Intercorrelations,
		"filter-common":      &settings.FilterAllCommon,
		"gold-consider-ties": &settings.GoldConsiderTies,
	}
	for name, target := range boolFlags {
		if flags.Changed(name) {
			*target, _ = flags.GetBool(name)
		}
	}

	if flags.Changed("shuffles") {
		settings.NumberShuffles, _ = flags.GetInt("shuffles")
	}
	if flags.Changed("parallelism") {
		settings.Parallelism, _ = flags.GetInt("parallelism")
	}
	if flags.Changed("seed") {
		settings.Seed, _ = flags.GetUint64("seed")
	}
	if flags.Changed("cutoffs") {
		raw, _ := flags.GetString("cutoffs")
		cutoffs, err := config.ParseCutoffs(raw)
		if err != nil {
			return err
		}
		settings.Cutoffs = cutoffs
	}
	return nil
}

func openOutput(cmd *cobra.Command) (io.Writer, func(), error) {
	path, _ := cmd.Flags().GetString("output")
	if path == "" {
		return cmd.OutOrStdout(), func() {}, nil
	}
	file, err := os.Create(path) // #nosec G304 -- output path is supplied by the operator
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return file, func() { _ = file.Close() }, nil
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
