// Package markdown renders pipeline documents to Markdown files: one
// aggregate file per stage, one file per page, and the decoded page images.
package markdown

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vincent-petithory/dataurl"

	"scandoc-translator/internal/document"
	"scandoc-translator/internal/logger"
	"scandoc-translator/internal/types"
)

// Normalize rewrites every lone line break into a Markdown hard line break
// (two trailing spaces before the newline). A line break is lone when neither
// the preceding nor the following character is itself a newline, so blank-line
// paragraph breaks are left untouched.
//
// OCR output uses bare newlines for visual line wrapping; without the
// trailing spaces Markdown renderers would join those lines into one.
func Normalize(text string) string {
	var sb strings.Builder
	sb.Grow(len(text))
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == '\n' {
			prevIsNewline := i > 0 && text[i-1] == '\n'
			nextIsNewline := i+1 < len(text) && text[i+1] == '\n'
			if !prevIsNewline && !nextIsNewline {
				sb.WriteString("  \n")
				continue
			}
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

// PageFilePath returns the per-page Markdown path for the given aggregate
// path and 0-based page index. Page numbers in file names are 1-based.
func PageFilePath(aggregatePath string, pageIndex int) string {
	ext := filepath.Ext(aggregatePath)
	stem := strings.TrimSuffix(aggregatePath, ext)
	return stem + "_page_" + strconv.Itoa(pageIndex+1) + ".md"
}

// Emit writes the document's Markdown rendition: the aggregate file at
// aggregatePath with every page's normalized text concatenated in page
// order, one file per page next to it, and every embedded image decoded
// into the aggregate file's directory, named by the image ID.
//
// Emit is not incremental; it always re-renders everything from the
// in-memory document and overwrites existing files.
func Emit(doc *document.Document, aggregatePath string) error {
	dir := filepath.Dir(aggregatePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return types.NewAppError(types.ErrArtifact, "failed to create markdown directory", err)
	}

	var aggregate strings.Builder
	for _, page := range doc.Pages {
		aggregate.WriteString(Normalize(page.Markdown))
	}
	if err := os.WriteFile(aggregatePath, []byte(aggregate.String()), 0644); err != nil {
		return types.NewAppError(types.ErrArtifact, "failed to write markdown file", err)
	}

	for _, page := range doc.Pages {
		for _, img := range page.Images {
			if err := saveImage(dir, img); err != nil {
				return err
			}
		}
	}

	for i, page := range doc.Pages {
		pagePath := PageFilePath(aggregatePath, i)
		if err := os.WriteFile(pagePath, []byte(Normalize(page.Markdown)), 0644); err != nil {
			return types.NewAppError(types.ErrArtifact, "failed to write page markdown file", err)
		}
	}

	logger.Debug("markdown emitted",
		logger.String("path", aggregatePath),
		logger.Int("pages", doc.PageCount()))
	return nil
}

// saveImage decodes the image's data URI payload and writes it into dir
// under the image's ID.
func saveImage(dir string, img document.Image) error {
	decoded, err := dataurl.DecodeString(img.ImageBase64)
	if err != nil {
		return types.NewAppErrorWithDetails(types.ErrEncoding, "failed to decode image payload", img.ID, err)
	}
	path := filepath.Join(dir, img.ID)
	if err := os.WriteFile(path, decoded.Data, 0644); err != nil {
		return types.NewAppErrorWithDetails(types.ErrArtifact, "failed to write image", img.ID, err)
	}
	return nil
}
