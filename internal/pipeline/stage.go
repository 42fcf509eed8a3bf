package pipeline

import (
	"context"
	"fmt"
	"os"

	"scandoc-translator/internal/document"
	"scandoc-translator/internal/logger"
	"scandoc-translator/internal/parser"
	"scandoc-translator/internal/types"
)

// TransformFunc rewrites one page's Markdown. An error marks the page as
// failed for this run; the page keeps its previous text and the run continues.
type TransformFunc func(ctx context.Context, markdown string) (string, error)

// StageReport records what happened to each page of a stage run.
// Page numbers are 1-based.
type StageReport struct {
	Name      string
	Processed []int
	Skipped   []int
	Failed    []int
	// Errors maps a failed page number to its error message.
	Errors map[int]string
}

// StageConfig describes one stage transition.
type StageConfig struct {
	// Name is used in progress output and logs.
	Name string
	// Store persists the target document.
	Store *document.Store
	// Source is the already-loaded document of the previous stage.
	Source *document.Document
	// TargetPath is the JSON artifact of this stage.
	TargetPath string
	// Transform rewrites a single page.
	Transform TransformFunc
	// Filter restricts processing to a subset of 1-based pages.
	Filter parser.PageFilter
	// Force reprocesses filtered pages even when they look up to date.
	Force bool
	// PageArtifact, when set, returns the per-page Markdown path for a
	// 0-based page index. A page whose artifact already exists is treated as
	// done even if its text still matches the source stage.
	PageArtifact func(pageIndex int) string
}

// RunStage advances one stage: it loads (or seeds) the target document, then
// walks the pages in order, transforming the ones that need it and saving the
// whole target document after every page update. A page needs work when its
// text still equals the source stage's text, meaning no earlier run has
// rewritten it yet.
func RunStage(ctx context.Context, cfg StageConfig) (*document.Document, *StageReport, error) {
	report := &StageReport{Name: cfg.Name}

	var target *document.Document
	if cfg.Store.Exists(cfg.TargetPath) {
		loaded, err := cfg.Store.Load(cfg.TargetPath)
		if err != nil {
			return nil, nil, err
		}
		target = loaded
	} else {
		target = cfg.Source.DeepCopy()
		// Persist the seed right away so an interrupted run leaves a valid
		// artifact behind.
		if err := cfg.Store.Save(target, cfg.TargetPath); err != nil {
			return nil, nil, err
		}
	}

	if target.PageCount() != cfg.Source.PageCount() {
		logger.Error("stage page count mismatch", nil,
			logger.String("stage", cfg.Name),
			logger.Int("sourcePages", cfg.Source.PageCount()),
			logger.Int("targetPages", target.PageCount()))
		return nil, nil, types.NewAppErrorWithDetails(
			types.ErrArtifact,
			"stage artifact page count mismatch",
			fmt.Sprintf("%s: source has %d pages, target has %d", cfg.TargetPath, cfg.Source.PageCount(), target.PageCount()),
			nil,
		)
	}

	total := cfg.Source.PageCount()
	for i := 0; i < total; i++ {
		pageNum := i + 1
		if !shouldProcess(cfg, target, i) {
			fmt.Printf("♻️ Skipping page %d/%d (page index %d)\n", pageNum, total, i)
			report.Skipped = append(report.Skipped, pageNum)
			continue
		}

		fmt.Printf("🔁 Transforming page %d/%d (page index %d)\n", pageNum, total, i)
		newMarkdown, err := cfg.Transform(ctx, cfg.Source.Pages[i].Markdown)
		if err != nil {
			fmt.Printf("⚠️ Page %d (page index %d) was skipped\n", pageNum, i)
			logger.Warn("page transform failed",
				logger.String("stage", cfg.Name),
				logger.Int("page", pageNum),
				logger.Err(err))
			report.Failed = append(report.Failed, pageNum)
			if report.Errors == nil {
				report.Errors = make(map[int]string)
			}
			report.Errors[pageNum] = err.Error()
			continue
		}

		target.Pages[i].Markdown = newMarkdown
		// Persist after every page so a crash costs at most one page of work.
		if err := cfg.Store.Save(target, cfg.TargetPath); err != nil {
			return nil, nil, err
		}
		report.Processed = append(report.Processed, pageNum)
	}

	return target, report, nil
}

// shouldProcess decides whether page i (0-based) needs the transform.
func shouldProcess(cfg StageConfig, target *document.Document, i int) bool {
	if !cfg.Filter.Empty() && !cfg.Filter.Contains(i+1) {
		return false
	}
	if cfg.Force {
		return true
	}
	if cfg.Source.Pages[i].Markdown != target.Pages[i].Markdown {
		// Already rewritten by an earlier run.
		return false
	}
	if cfg.PageArtifact != nil {
		if _, err := os.Stat(cfg.PageArtifact(i)); err == nil {
			return false
		}
	}
	return true
}
