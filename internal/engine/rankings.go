package engine

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/gcbaptista/go-rank-compare/model"
	"github.com/gcbaptista/go-rank-compare/ranking"
)

// PutRanking stores entries under name, replacing any ranking with that name.
func (e *Engine) PutRanking(name string, entries []ranking.Entry) (model.RankingSummary, error) {
	summary, err := e.rankings.Put(name, entries)
	if err != nil {
		return model.RankingSummary{}, err
	}
	if err := e.persistRankings(); err != nil {
		return model.RankingSummary{}, err
	}
	e.logger.Info(context.Background(), "Stored ranking",
		zap.String("name", name),
		zap.Int("size", summary.Size),
		zap.Int("non_zero_entries", summary.NonZeroEntries))
	return summary, nil
}

// ImportRanking reads a tab-separated ranking source and stores it under name.
// Malformed lines are skipped and reported in the result.
func (e *Engine) ImportRanking(name string, r io.Reader) (model.RankingImport, error) {
	result, err := ranking.Read(r)
	if err != nil {
		return model.RankingImport{}, fmt.Errorf("failed to read ranking '%s': %w", name, err)
	}
	return e.storeRead(name, result)
}

// PutEntries stores entries that did not come from the tab-separated format,
// checked the same way a ranking file is: IDs are trimmed and scores rising
// above the previous entry's are reported.
func (e *Engine) PutEntries(name string, entries []ranking.Entry) (model.RankingImport, error) {
	return e.storeRead(name, ranking.Normalize(entries))
}

// ImportFile reads the ranking file at path and stores it under name.
func (e *Engine) ImportFile(name, path string) (model.RankingImport, error) {
	result, err := ranking.ReadFile(path)
	if err != nil {
		return model.RankingImport{}, err
	}
	imported, err := e.storeRead(name, result)
	if err != nil {
		return model.RankingImport{}, err
	}
	imported.Path = path
	return imported, nil
}

func (e *Engine) storeRead(name string, result *ranking.ReadResult) (model.RankingImport, error) {
	imported := model.RankingImport{Unsorted: result.Unsorted}
	ctx := context.Background()
	for _, skipped := range result.Skipped {
		imported.Skipped = append(imported.Skipped, skipped.Error())
		e.logger.Warn(ctx, "Skipped ranking line",
			zap.String("name", name),
			zap.Int("line", skipped.Line),
			zap.Error(skipped.Err))
	}
	if len(result.Unsorted) > 0 {
		e.logger.Warn(ctx, "Ranking is not sorted by descending score",
			zap.String("name", name),
			zap.Ints("lines", result.Unsorted))
	}

	summary, err := e.PutRanking(name, result.Entries)
	if err != nil {
		return model.RankingImport{}, err
	}
	imported.Summary = summary
	return imported, nil
}

// ImportFiles stores every file, stopping at the first failure.
func (e *Engine) ImportFiles(ctx context.Context, files []RankingFile, progress func(done, total int)) ([]model.RankingImport, error) {
	imports := make([]model.RankingImport, 0, len(files))
	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return imports, err
		}
		imported, err := e.ImportFile(file.Name, file.Path)
		if err != nil {
			return imports, err
		}
		imports = append(imports, imported)
		if progress != nil {
			progress(i+1, len(files))
		}
	}
	return imports, nil
}

// LoadRankingsAsync discovers ranking files under paths and imports them in a
// background job. Discovery errors are returned immediately.
func (e *Engine) LoadRankingsAsync(paths []string, opts DiscoverOptions) (string, error) {
	files, err := Discover(paths, opts)
	if err != nil {
		return "", err
	}

	jobID := e.jobManager.CreateJob(model.JobTypeLoadRankings, "", map[string]string{
		"paths": strings.Join(paths, ","),
		"files": strconv.Itoa(len(files)),
	})
	err = e.jobManager.ExecuteJob(jobID, func(ctx context.Context, _ model.Job) error {
		_, err := e.ImportFiles(ctx, files, func(done, total int) {
			e.jobManager.UpdateJobProgress(jobID, done, total, "Importing ranking files")
		})
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to start load rankings job: %w", err)
	}
	return jobID, nil
}

// GetRanking returns the named ranking source.
func (e *Engine) GetRanking(name string) (model.RankingSource, error) {
	return e.rankings.Get(name)
}

// GetRankingSummary returns the statistics of the named ranking.
func (e *Engine) GetRankingSummary(name string) (model.RankingSummary, error) {
	return e.rankings.Summary(name)
}

// ListRankings returns the summaries of all rankings sorted by name.
func (e *Engine) ListRankings() []model.RankingSummary {
	return e.rankings.List()
}

// DeleteRanking removes the named ranking. Reports computed from it are kept.
func (e *Engine) DeleteRanking(name string) error {
	if err := e.rankings.Delete(name); err != nil {
		return err
	}
	if err := e.persistRankings(); err != nil {
		return err
	}
	e.logger.Info(context.Background(), "Deleted ranking", zap.String("name", name))
	return nil
}
