// Package pipeline drives the staged OCR/clean/translate run over a single
// PDF and owns the on-disk layout of its artifacts.
package pipeline

import (
	"os"
	"path/filepath"
	"strings"

	"scandoc-translator/internal/types"
)

// Layout maps pipeline stages to their directories and files. Everything
// lives under a directory named after the PDF, next to the PDF itself:
//
//	scan.pdf
//	scan/raw.<src>/scan.raw.<src>.json   OCR output
//	scan/<src>/scan.<src>.json           cleaned source
//	scan/raw.<target>/scan.raw.<target>.json  translation
//
// plus a .md aggregate, per-page _page_N.md files and decoded images next to
// each JSON artifact. Language codes appear in paths exactly as the user
// typed them.
type Layout struct {
	PDFPath string
	BaseDir string
	Stem    string
	Source  string
	Target  string
}

// NewLayout computes the layout for a PDF and language pair.
func NewLayout(pdfPath, source, target string) Layout {
	ext := filepath.Ext(pdfPath)
	base := strings.TrimSuffix(pdfPath, ext)
	return Layout{
		PDFPath: pdfPath,
		BaseDir: base,
		Stem:    strings.TrimSuffix(filepath.Base(pdfPath), ext),
		Source:  source,
		Target:  target,
	}
}

// stageName returns the directory name for a stage ("raw.fr", "fr", "raw.en-US").
func (l Layout) stageName(stage types.Stage) string {
	switch stage {
	case types.StageRawSource:
		return "raw." + l.Source
	case types.StageSource:
		return l.Source
	default:
		return "raw." + l.Target
	}
}

// StageDir returns the directory holding a stage's artifacts.
func (l Layout) StageDir(stage types.Stage) string {
	return filepath.Join(l.BaseDir, l.stageName(stage))
}

// JSONPath returns the stage's document artifact path.
func (l Layout) JSONPath(stage types.Stage) string {
	return filepath.Join(l.StageDir(stage), l.Stem+"."+l.stageName(stage)+".json")
}

// MarkdownPath returns the stage's aggregate Markdown path.
func (l Layout) MarkdownPath(stage types.Stage) string {
	return filepath.Join(l.StageDir(stage), l.Stem+"."+l.stageName(stage)+".md")
}

// EnsureDirs creates the three stage directories.
func (l Layout) EnsureDirs() error {
	for _, stage := range []types.Stage{types.StageRawSource, types.StageSource, types.StageRawTarget} {
		if err := os.MkdirAll(l.StageDir(stage), 0755); err != nil {
			return types.NewAppError(types.ErrArtifact, "failed to create stage directory", err)
		}
	}
	return nil
}
