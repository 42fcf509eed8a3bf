// Command check_pages reports per-page pipeline progress for a PDF that has
// been (partially) processed by scandoc-translate. It reads the stage
// artifacts and applies the same change-detection the pipeline uses, so its
// answer matches what the next run would actually do.
//
// Usage:
//
//	check_pages <scan.pdf> <source-code> [target-code]
package main

import (
	"fmt"
	"os"

	"scandoc-translator/internal/document"
	"scandoc-translator/internal/markdown"
	"scandoc-translator/internal/pipeline"
	"scandoc-translator/internal/types"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: check_pages <scan.pdf> <source-code> [target-code]")
		fmt.Println()
		fmt.Println("This tool reports per-page pipeline progress for a scanned PDF:")
		fmt.Println("  - whether the OCR stage has run")
		fmt.Println("  - which pages have been cleaned")
		fmt.Println("  - which pages have been translated")
		os.Exit(1)
	}

	pdfPath := os.Args[1]
	source := os.Args[2]
	target := "en-US"
	if len(os.Args) > 3 {
		target = os.Args[3]
	}

	if _, err := os.Stat(pdfPath); os.IsNotExist(err) {
		fmt.Printf("Error: PDF not found: %s\n", pdfPath)
		os.Exit(1)
	}

	layout := pipeline.NewLayout(pdfPath, source, target)
	store := document.NewStore()

	rawSrcJSON := layout.JSONPath(types.StageRawSource)
	if !store.Exists(rawSrcJSON) {
		fmt.Printf("No OCR output yet (%s missing). Run scandoc-translate first.\n", rawSrcJSON)
		os.Exit(2)
	}

	rawSrc, err := store.Load(rawSrcJSON)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	src := loadOrNil(store, layout.JSONPath(types.StageSource))
	rawTarget := loadOrNil(store, layout.JSONPath(types.StageRawTarget))

	fmt.Printf("Pipeline progress for %s (%s -> %s), %d pages:\n\n", pdfPath, source, target, rawSrc.PageCount())
	fmt.Println("page  cleaned  translated")

	srcMD := layout.MarkdownPath(types.StageSource)
	cleanedCount, translatedCount := 0, 0
	for i := range rawSrc.Pages {
		cleaned := pageDone(rawSrc, src, i) || pageArtifactExists(srcMD, i)
		translated := pageDone(src, rawTarget, i)
		if cleaned {
			cleanedCount++
		}
		if translated {
			translatedCount++
		}
		fmt.Printf("%4d  %-7s  %s\n", i+1, mark(cleaned), mark(translated))
	}

	fmt.Printf("\n%d/%d cleaned, %d/%d translated\n",
		cleanedCount, rawSrc.PageCount(), translatedCount, rawSrc.PageCount())

	if cleanedCount < rawSrc.PageCount() || translatedCount < rawSrc.PageCount() {
		os.Exit(2)
	}
}

func loadOrNil(store *document.Store, path string) *document.Document {
	if !store.Exists(path) {
		return nil
	}
	doc, err := store.Load(path)
	if err != nil {
		fmt.Printf("Warning: %v\n", err)
		return nil
	}
	return doc
}

// pageDone reports whether the later stage has diverged from its source for
// page i, the same heuristic the pipeline uses to skip finished pages.
func pageDone(source, target *document.Document, i int) bool {
	if source == nil || target == nil {
		return false
	}
	if i >= source.PageCount() || i >= target.PageCount() {
		return false
	}
	return source.Pages[i].Markdown != target.Pages[i].Markdown
}

func pageArtifactExists(aggregatePath string, i int) bool {
	_, err := os.Stat(markdown.PageFilePath(aggregatePath, i))
	return err == nil
}

func mark(done bool) string {
	if done {
		return "✅"
	}
	return "—"
}
