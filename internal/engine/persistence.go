package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/gcbaptista/go-rank-compare/internal/persistence"
	"github.com/gcbaptista/go-rank-compare/store"
)

const (
	rankingsFile = "rankings.gob"
	reportsFile  = "reports.gob"
)

// loadFromDisk restores the stores from the data directory. A missing or
// corrupted snapshot leaves the corresponding store empty.
func (e *Engine) loadFromDisk() {
	ctx := context.Background()
	e.logger.Info(ctx, "Loading snapshots from disk", zap.String("data_dir", e.dataDir))

	rankings := store.NewRankingStore()
	path := filepath.Join(e.dataDir, rankingsFile)
	switch err := persistence.LoadGob(path, rankings); {
	case errors.Is(err, os.ErrNotExist):
		e.logger.Info(ctx, "Ranking snapshot not found, starting empty", zap.String("path", path))
	case err != nil:
		e.logger.Warn(ctx, "Failed to load ranking snapshot, starting empty", zap.String("path", path), zap.Error(err))
	default:
		e.rankings = rankings
	}

	reports := store.NewReportStore(e.maxReports)
	path = filepath.Join(e.dataDir, reportsFile)
	switch err := persistence.LoadGob(path, reports); {
	case errors.Is(err, os.ErrNotExist):
		e.logger.Info(ctx, "Report snapshot not found, starting empty", zap.String("path", path))
	case err != nil:
		e.logger.Warn(ctx, "Failed to load report snapshot, starting empty", zap.String("path", path), zap.Error(err))
	default:
		e.reports = reports
	}

	e.logger.Info(ctx, "Loaded snapshots",
		zap.Int("rankings", e.rankings.Len()),
		zap.Int("reports", e.reports.Len()))
}

func (e *Engine) persistRankings() error {
	if e.dataDir == "" {
		return nil
	}
	e.persistMu.Lock()
	defer e.persistMu.Unlock()

	if err := persistence.SaveGob(filepath.Join(e.dataDir, rankingsFile), e.rankings); err != nil {
		return fmt.Errorf("failed to persist rankings: %w", err)
	}
	return nil
}

func (e *Engine) persistReports() error {
	if e.dataDir == "" {
		return nil
	}
	e.persistMu.Lock()
	defer e.persistMu.Unlock()

	if err := persistence.SaveGob(filepath.Join(e.dataDir, reportsFile), e.reports); err != nil {
		return fmt.Errorf("failed to persist reports: %w", err)
	}
	return nil
}
