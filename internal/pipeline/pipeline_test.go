package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scandoc-translator/internal/document"
	"scandoc-translator/internal/pdf"
	"scandoc-translator/internal/transform"
	"scandoc-translator/internal/types"
)

type fakeOCR struct {
	calls int
	doc   *document.Document
}

func (f *fakeOCR) Process(ctx context.Context, pdfPath string) (*document.Document, error) {
	f.calls++
	return f.doc.DeepCopy(), nil
}

type fakeTransformer struct {
	cleanCalls     int
	translateCalls int
}

func (f *fakeTransformer) CleanMarkdown(ctx context.Context, content string) (*transform.Result, error) {
	f.cleanCalls++
	return &transform.Result{Text: "clean(" + content + ")"}, nil
}

func (f *fakeTransformer) Translate(ctx context.Context, content string, sourceCodes []string, targetCode string) (*transform.Result, error) {
	f.translateCalls++
	return &transform.Result{Text: "translate(" + content + ")"}, nil
}

func newTestPipeline(ocrDoc *document.Document) (*Pipeline, *fakeOCR, *fakeTransformer) {
	ocr := &fakeOCR{doc: ocrDoc}
	tr := &fakeTransformer{}
	p := New(ocr, tr)
	p.inspect = func(pdfPath string) (*pdf.Info, error) {
		return &pdf.Info{
			FilePath:  pdfPath,
			FileName:  filepath.Base(pdfPath),
			PageCount: ocrDoc.PageCount(),
			FileSize:  1234,
		}, nil
	}
	return p, ocr, tr
}

func testRequest(t *testing.T) Request {
	t.Helper()
	dir := t.TempDir()
	pdfPath := filepath.Join(dir, "scan.pdf")
	require.NoError(t, os.WriteFile(pdfPath, []byte("%PDF-1.4"), 0644))
	return Request{
		PDFPath:     pdfPath,
		Source:      "fr",
		SourceCodes: []string{"fr"},
		Target:      "en-US",
	}
}

func TestRunFullPipeline(t *testing.T) {
	p, ocr, tr := newTestPipeline(sourceDoc("bonjour", "au revoir"))
	req := testRequest(t)

	summary, err := p.Run(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 1, ocr.calls)
	assert.Equal(t, 2, tr.cleanCalls)
	assert.Equal(t, 2, tr.translateCalls)
	assert.Equal(t, 2, summary.PageCount)
	assert.False(t, summary.OCRReused)
	assert.Equal(t, []int{1, 2}, summary.Clean.Processed)
	assert.Equal(t, []int{1, 2}, summary.Translate.Processed)

	layout := summary.Layout

	// All three stage artifacts exist with the expected content.
	store := document.NewStore()
	rawSrc, err := store.Load(layout.JSONPath(types.StageRawSource))
	require.NoError(t, err)
	assert.Equal(t, "bonjour", rawSrc.Pages[0].Markdown)

	src, err := store.Load(layout.JSONPath(types.StageSource))
	require.NoError(t, err)
	assert.Equal(t, "clean(bonjour)", src.Pages[0].Markdown)

	rawTarget, err := store.Load(layout.JSONPath(types.StageRawTarget))
	require.NoError(t, err)
	assert.Equal(t, "translate(clean(bonjour))", rawTarget.Pages[0].Markdown)

	// Markdown renditions emitted for every stage, pages and aggregate.
	for _, stage := range []types.Stage{types.StageRawSource, types.StageSource, types.StageRawTarget} {
		assert.FileExists(t, layout.MarkdownPath(stage))
	}
	content, err := os.ReadFile(layout.MarkdownPath(types.StageRawTarget))
	require.NoError(t, err)
	assert.Contains(t, string(content), "translate(clean(bonjour))")
}

func TestRunIsIdempotent(t *testing.T) {
	p, ocr, tr := newTestPipeline(sourceDoc("bonjour"))
	req := testRequest(t)

	_, err := p.Run(context.Background(), req)
	require.NoError(t, err)

	summary, err := p.Run(context.Background(), req)
	require.NoError(t, err)

	// Nothing is recomputed on the second run.
	assert.Equal(t, 1, ocr.calls)
	assert.Equal(t, 1, tr.cleanCalls)
	assert.Equal(t, 1, tr.translateCalls)
	assert.True(t, summary.OCRReused)
	assert.Equal(t, []int{1}, summary.Clean.Skipped)
	assert.Equal(t, []int{1}, summary.Translate.Skipped)
}

func TestRunForceOCR(t *testing.T) {
	p, ocr, _ := newTestPipeline(sourceDoc("bonjour"))
	req := testRequest(t)

	_, err := p.Run(context.Background(), req)
	require.NoError(t, err)

	req.Options.ForceOCR = true
	_, err = p.Run(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 2, ocr.calls)
}

func TestRunForceTranslateOnly(t *testing.T) {
	p, _, tr := newTestPipeline(sourceDoc("bonjour"))
	req := testRequest(t)

	_, err := p.Run(context.Background(), req)
	require.NoError(t, err)

	req.Options.ForceTranslate = true
	summary, err := p.Run(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 1, tr.cleanCalls)
	assert.Equal(t, 2, tr.translateCalls)
	assert.Equal(t, []int{1}, summary.Clean.Skipped)
	assert.Equal(t, []int{1}, summary.Translate.Processed)
}

func TestRunLimitToPages(t *testing.T) {
	p, _, tr := newTestPipeline(sourceDoc("one", "two", "three"))
	req := testRequest(t)
	req.Options.LimitToPages = []int{2}

	summary, err := p.Run(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 1, tr.cleanCalls)
	assert.Equal(t, 1, tr.translateCalls)
	assert.Equal(t, []int{2}, summary.Clean.Processed)
	assert.Equal(t, []int{1, 3}, summary.Clean.Skipped)
}

func TestRunInspectFailureIsFatal(t *testing.T) {
	p, _, _ := newTestPipeline(sourceDoc("one"))
	p.inspect = func(pdfPath string) (*pdf.Info, error) {
		return nil, types.NewAppError(types.ErrFileNotFound, "文件不存在，请检查路径", nil)
	}

	_, err := p.Run(context.Background(), testRequest(t))
	require.Error(t, err)
	assert.Equal(t, types.ErrFileNotFound, types.CodeOf(err))
}

type flakyTransformer struct {
	fakeTransformer
	failTranslations int
}

func (f *flakyTransformer) Translate(ctx context.Context, content string, sourceCodes []string, targetCode string) (*transform.Result, error) {
	f.translateCalls++
	if f.translateCalls <= f.failTranslations {
		return nil, types.NewAppError(types.ErrTransform, "chat API call failed", nil)
	}
	return &transform.Result{Text: "translate(" + content + ")"}, nil
}

func TestRunRecordsAndClearsFailures(t *testing.T) {
	ocr := &fakeOCR{doc: sourceDoc("bonjour")}
	tr := &flakyTransformer{failTranslations: 1}
	p := New(ocr, tr)
	p.inspect = func(pdfPath string) (*pdf.Info, error) {
		return &pdf.Info{FileName: filepath.Base(pdfPath), PageCount: 1}, nil
	}
	req := testRequest(t)

	summary, err := p.Run(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, summary.Translate.Failed)

	journalPath := filepath.Join(summary.Layout.BaseDir, "failures.json")
	data, err := os.ReadFile(journalPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"stage": "translate"`)

	// The failed page is retried and the journal entry cleared.
	summary, err = p.Run(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, summary.Translate.Processed)

	data, err = os.ReadFile(journalPath)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"stage": "translate"`)
}
