// Command scandoc-translate OCRs a scanned PDF with the Mistral OCR API,
// cleans up the recognized Markdown and translates it into a target language.
// Intermediate state is kept as JSON artifacts next to the PDF, so re-running
// the command resumes where the previous run stopped instead of repeating
// paid API calls.
//
// Usage:
//
//	scandoc-translate --input scan.pdf --source fr [--target en-US]
//	    [--force_ocr] [--force_ocr_post_process] [--force_translate]
//	    [--limit_to_pages 1,3,5]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"scandoc-translator/internal/config"
	"scandoc-translator/internal/logger"
	"scandoc-translator/internal/ocr"
	"scandoc-translator/internal/parser"
	"scandoc-translator/internal/pipeline"
	"scandoc-translator/internal/transform"
	"scandoc-translator/internal/types"
)

func main() {
	input := flag.String("input", "", "Path to the input PDF file.")
	source := flag.String("source", "", "Source language code(s), comma-separated (e.g. fr or fr,de).")
	target := flag.String("target", "en-US", "Target language code.")
	forceOCR := flag.Bool("force_ocr", false, "Redo the OCR even if its output already exists.")
	forceOCRPostProcess := flag.Bool("force_ocr_post_process", false, "Redo the markdown cleanup for the selected pages.")
	forceTranslate := flag.Bool("force_translate", false, "Redo the translation for the selected pages.")
	limitToPages := flag.String("limit_to_pages", "", "Comma-separated 1-based page numbers to process (default: all pages).")
	flag.Parse()

	if *input == "" || *source == "" {
		fmt.Println("Usage: scandoc-translate --input <scan.pdf> --source <code[,code...]> [--target en-US]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	logConfig := logger.DefaultConfig()
	if err := logger.Init(logConfig); err != nil {
		fmt.Printf("⚠️ Failed to initialize logging: %v\n", err)
	}
	defer logger.Close()

	pdfPath, err := filepath.Abs(*input)
	if err != nil {
		fatal(fmt.Sprintf("Invalid input path %s: %v", *input, err))
	}
	if _, err := os.Stat(pdfPath); os.IsNotExist(err) {
		fatal(fmt.Sprintf("Input file %s does not exist.", pdfPath))
	}

	sourceCodes, err := parser.ParseSourceLanguages(*source)
	if err != nil {
		fatal(fmt.Sprintf("Invalid --source value %q: %v", *source, err))
	}
	if err := parser.ValidateLanguageCode(*target); err != nil {
		fatal(fmt.Sprintf("Invalid --target value %q: %v", *target, err))
	}
	pageFilter, err := parser.ParsePageList(*limitToPages)
	if err != nil {
		fatal(fmt.Sprintf("Invalid --limit_to_pages value %q: %v", *limitToPages, err))
	}

	manager, err := config.NewManager("")
	if err != nil {
		fatal(fmt.Sprintf("Failed to initialize configuration: %v", err))
	}
	if err := manager.Load(); err != nil {
		fatal(fmt.Sprintf("Failed to load configuration: %v", err))
	}
	apiKey, err := manager.RequireAPIKey()
	if err != nil {
		fatal("No Mistral API key configured. Set MISTRAL_API_KEY or add mistral_api_key to the config file.")
	}

	timeout := time.Duration(manager.GetTimeoutSeconds()) * time.Second
	ocrClient := ocr.NewClientWithConfig(apiKey, manager.GetOCRModel(), manager.GetBaseURL(), timeout)

	ctx := context.Background()
	engine, err := transform.NewEngine(ctx, apiKey, manager.GetBaseURL(), manager.GetChatModel())
	if err != nil {
		fatal(fmt.Sprintf("Failed to initialize the transform engine: %v", err))
	}

	p := pipeline.New(ocrClient, engine)
	summary, err := p.Run(ctx, pipeline.Request{
		PDFPath:     pdfPath,
		Source:      *source,
		SourceCodes: sourceCodes,
		Target:      *target,
		Options: types.PipelineOptions{
			ForceOCR:            *forceOCR,
			ForceOCRPostProcess: *forceOCRPostProcess,
			ForceTranslate:      *forceTranslate,
			LimitToPages:        pageFilter,
		},
	})
	if err != nil {
		fatal(fmt.Sprintf("Pipeline failed: %v", err))
	}

	fmt.Printf("✅ Done: %d pages, %d cleaned, %d translated", summary.PageCount,
		len(summary.Clean.Processed), len(summary.Translate.Processed))
	if failed := len(summary.Clean.Failed) + len(summary.Translate.Failed); failed > 0 {
		fmt.Printf(", %d page transform(s) failed (re-run to retry)", failed)
	}
	fmt.Println()
}

func fatal(msg string) {
	fmt.Printf("🛑 %s\n", msg)
	logger.Close()
	os.Exit(1)
}
