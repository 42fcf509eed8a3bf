// Package pdf inspects input PDF files before OCR: page count, file size,
// structural validation, and a text-layer probe.
package pdf

import (
	"os"
	"path/filepath"
	"unicode"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"scandoc-translator/internal/logger"
	"scandoc-translator/internal/types"
)

// Info 描述输入 PDF 的基本信息
type Info struct {
	FilePath     string
	FileName     string
	PageCount    int
	FileSize     int64
	HasTextLayer bool
}

// Inspect 获取 PDF 基本信息（页数、文件大小、是否已有文本层）
func Inspect(pdfPath string) (*Info, error) {
	fileInfo, err := os.Stat(pdfPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, types.NewAppError(types.ErrFileNotFound, "文件不存在，请检查路径", err)
		}
		return nil, types.NewAppError(types.ErrInvalidInput, "无法访问文件", err)
	}
	if fileInfo.IsDir() {
		return nil, types.NewAppError(types.ErrInvalidInput, "路径指向目录而非文件", nil)
	}

	if err := validate(pdfPath); err != nil {
		return nil, err
	}

	// ledongthuc/pdf 获取页数（对部分 PDF 比 pdfcpu 更可靠）
	f, r, err := pdf.Open(pdfPath)
	if err != nil {
		return nil, types.NewAppError(types.ErrInvalidInput, "无法打开 PDF 文件", err)
	}
	defer f.Close()

	pageCount := r.NumPage()

	hasText, err := HasTextLayer(pdfPath)
	if err != nil {
		// Probe failure is not fatal; assume a scanned document.
		logger.Warn("text layer probe failed", logger.String("path", pdfPath), logger.Err(err))
		hasText = false
	}

	return &Info{
		FilePath:     pdfPath,
		FileName:     filepath.Base(pdfPath),
		PageCount:    pageCount,
		FileSize:     fileInfo.Size(),
		HasTextLayer: hasText,
	}, nil
}

// validate runs pdfcpu structural validation in relaxed mode. Scanned PDFs
// from office scanners are frequently slightly out of spec.
func validate(pdfPath string) error {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if err := api.ValidateFile(pdfPath, conf); err != nil {
		return types.NewAppError(types.ErrInvalidInput, "PDF 结构校验失败", err)
	}
	return nil
}

// HasTextLayer 检查 PDF 是否已包含可提取的文本
// 对已有文本层的文件做 OCR 通常是浪费，调用方据此提示用户。
func HasTextLayer(pdfPath string) (bool, error) {
	f, r, err := pdf.Open(pdfPath)
	if err != nil {
		return false, types.NewAppError(types.ErrInvalidInput, "无法打开 PDF 文件", err)
	}
	defer f.Close()

	// Probe the first few pages; enough non-whitespace text means a text PDF.
	maxPagesToCheck := 3
	if r.NumPage() < maxPagesToCheck {
		maxPagesToCheck = r.NumPage()
	}

	totalTextLength := 0
	for pageNum := 1; pageNum <= maxPagesToCheck; pageNum++ {
		page := r.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}

		for _, c := range content {
			if !unicode.IsSpace(c) {
				totalTextLength++
			}
		}
		if totalTextLength > 50 {
			return true, nil
		}
	}

	return false, nil
}
