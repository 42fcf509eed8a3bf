package pipeline

import (
	"context"
	"fmt"

	"scandoc-translator/internal/document"
	"scandoc-translator/internal/errors"
	"scandoc-translator/internal/logger"
	"scandoc-translator/internal/markdown"
	"scandoc-translator/internal/parser"
	"scandoc-translator/internal/pdf"
	"scandoc-translator/internal/transform"
	"scandoc-translator/internal/types"
)

// OCRClient runs OCR over a PDF file.
type OCRClient interface {
	Process(ctx context.Context, pdfPath string) (*document.Document, error)
}

// Transformer rewrites page Markdown via the chat API.
type Transformer interface {
	CleanMarkdown(ctx context.Context, content string) (*transform.Result, error)
	Translate(ctx context.Context, content string, sourceCodes []string, targetCode string) (*transform.Result, error)
}

// InspectFunc inspects the input PDF. Overridable in tests.
type InspectFunc func(pdfPath string) (*pdf.Info, error)

// Request describes one pipeline run.
type Request struct {
	// PDFPath is the input PDF.
	PDFPath string
	// Source is the source language spec exactly as the user typed it;
	// it names the stage directories.
	Source string
	// SourceCodes are the parsed source language codes for the translator.
	SourceCodes []string
	// Target is the target language code.
	Target string
	// Options carries the force flags and page filter.
	Options types.PipelineOptions
}

// Summary is the result of a pipeline run.
type Summary struct {
	PageCount int
	Layout    Layout
	OCRReused bool
	Clean     *StageReport
	Translate *StageReport
}

// Pipeline wires the OCR client, the transform engine and the artifact store
// into the staged run.
type Pipeline struct {
	store       *document.Store
	ocr         OCRClient
	transformer Transformer
	inspect     InspectFunc
}

// New creates a Pipeline.
func New(ocrClient OCRClient, transformer Transformer) *Pipeline {
	return &Pipeline{
		store:       document.NewStore(),
		ocr:         ocrClient,
		transformer: transformer,
		inspect:     pdf.Inspect,
	}
}

// Run executes the full pipeline for one PDF: OCR, clean, translate, with a
// Markdown rendition emitted after every stage. Each stage resumes from its
// persisted artifact, so re-running after an interruption repeats at most one
// page of paid API work.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Summary, error) {
	info, err := p.inspect(req.PDFPath)
	if err != nil {
		return nil, err
	}
	logger.Info("input PDF",
		logger.String("file", info.FileName),
		logger.Int("pages", info.PageCount),
		logger.Any("sizeBytes", info.FileSize))
	if info.HasTextLayer {
		fmt.Println("⚠️ The PDF already contains a text layer; OCR may be unnecessary.")
		logger.Warn("input PDF has a text layer", logger.String("file", info.FileName))
	}

	layout := NewLayout(req.PDFPath, req.Source, req.Target)
	if err := layout.EnsureDirs(); err != nil {
		return nil, err
	}
	fmt.Printf("⬆️  Raw source directory: %s\n", layout.StageDir(types.StageRawSource))
	fmt.Printf("➡️  Source directory: %s\n", layout.StageDir(types.StageSource))
	fmt.Printf("⬇️  Raw target directory: %s\n", layout.StageDir(types.StageRawTarget))

	filter := parser.PageFilter(req.Options.LimitToPages)
	summary := &Summary{Layout: layout}

	journal, err := errors.NewJournal(layout.BaseDir)
	if err != nil {
		logger.Warn("failure journal unavailable", logger.Err(err))
		journal = nil
	}

	// Stage 1: OCR. One call covers the whole document, so the unit of reuse
	// is the file, not the page.
	rawSrcJSON := layout.JSONPath(types.StageRawSource)
	if !p.store.Exists(rawSrcJSON) || req.Options.ForceOCR {
		fmt.Printf("👓 OCR'ing %s\n", req.PDFPath)
		doc, err := p.ocr.Process(ctx, req.PDFPath)
		if err != nil {
			return nil, err
		}
		fmt.Printf("💾 Saving raw OCR results to %s\n", rawSrcJSON)
		if err := p.store.Save(doc, rawSrcJSON); err != nil {
			return nil, err
		}
	} else {
		fmt.Printf("♻️ Skipping OCR because file %s already exists.\n", rawSrcJSON)
		summary.OCRReused = true
	}

	// Re-load from disk either way so later stages see exactly the persisted
	// state.
	rawSrc, err := p.store.Load(rawSrcJSON)
	if err != nil {
		return nil, err
	}
	summary.PageCount = rawSrc.PageCount()
	if err := markdown.Emit(rawSrc, layout.MarkdownPath(types.StageRawSource)); err != nil {
		return nil, err
	}

	// Stage 2: clean up the raw OCR Markdown.
	srcMD := layout.MarkdownPath(types.StageSource)
	fmt.Printf("🔁 Post processing %d scanned pages\n", rawSrc.PageCount())
	src, cleanReport, err := RunStage(ctx, StageConfig{
		Name:       "clean",
		Store:      p.store,
		Source:     rawSrc,
		TargetPath: layout.JSONPath(types.StageSource),
		Transform: func(ctx context.Context, md string) (string, error) {
			result, err := p.transformer.CleanMarkdown(ctx, md)
			if err != nil {
				return "", err
			}
			return result.Text, nil
		},
		Filter: filter,
		Force:  req.Options.ForceOCRPostProcess,
		PageArtifact: func(pageIndex int) string {
			return markdown.PageFilePath(srcMD, pageIndex)
		},
	})
	if err != nil {
		return nil, err
	}
	fmt.Println()
	summary.Clean = cleanReport
	recordStageFailures(journal, cleanReport)
	if err := markdown.Emit(src, srcMD); err != nil {
		return nil, err
	}

	// Stage 3: translate.
	fmt.Printf("🔁 Translating %d pages\n", src.PageCount())
	rawTarget, translateReport, err := RunStage(ctx, StageConfig{
		Name:       "translate",
		Store:      p.store,
		Source:     src,
		TargetPath: layout.JSONPath(types.StageRawTarget),
		Transform: func(ctx context.Context, md string) (string, error) {
			result, err := p.transformer.Translate(ctx, md, req.SourceCodes, req.Target)
			if err != nil {
				return "", err
			}
			return result.Text, nil
		},
		Filter: filter,
		Force:  req.Options.ForceTranslate,
	})
	if err != nil {
		return nil, err
	}
	fmt.Println()
	summary.Translate = translateReport
	recordStageFailures(journal, translateReport)
	if err := markdown.Emit(rawTarget, layout.MarkdownPath(types.StageRawTarget)); err != nil {
		return nil, err
	}

	if journal != nil && journal.HasFailures() {
		for _, record := range journal.ListFailures() {
			fmt.Printf("⚠️ %s stage, page %d still failing: %s\n", record.Stage, record.Page, record.ErrorMsg)
		}
	}

	logger.Info("pipeline run finished",
		logger.Int("pages", summary.PageCount),
		logger.Int("cleaned", len(cleanReport.Processed)),
		logger.Int("translated", len(translateReport.Processed)),
		logger.Int("failed", len(cleanReport.Failed)+len(translateReport.Failed)))
	return summary, nil
}

// recordStageFailures mirrors a stage report into the failure journal:
// failed pages are recorded, successfully processed pages clear any earlier
// record. Journal I/O problems only warn; they never fail the run.
func recordStageFailures(journal *errors.Journal, report *StageReport) {
	if journal == nil {
		return
	}
	for _, page := range report.Failed {
		if err := journal.RecordFailure(report.Name, page, report.Errors[page]); err != nil {
			logger.Warn("failed to record page failure", logger.Err(err))
		}
	}
	for _, page := range report.Processed {
		if err := journal.ClearFailure(report.Name, page); err != nil {
			logger.Warn("failed to clear page failure", logger.Err(err))
		}
	}
}
