// Package types defines core data types and enums shared across the
// scandoc translator application.
package types

// Config 应用配置
type Config struct {
	MistralAPIKey  string `json:"mistral_api_key"`
	MistralBaseURL string `json:"mistral_base_url"` // Mistral 兼容 API 的 Base URL
	OCRModel       string `json:"ocr_model"`        // 文档 OCR 模型
	ChatModel      string `json:"chat_model"`       // 清洗/翻译使用的对话模型
	TimeoutSeconds int    `json:"timeout_seconds"`  // 单次 API 调用超时（秒）
	WorkDirectory  string `json:"work_directory"`
}

// Stage identifies one step of the pipeline. Each stage owns a persisted
// document artifact plus derived Markdown files.
type Stage string

const (
	// StageRawSource is the untouched OCR output ("raw.<src>").
	StageRawSource Stage = "raw_source"
	// StageSource is the cleaned/normalized source text ("<src>").
	StageSource Stage = "source"
	// StageRawTarget is the machine translation ("raw.<target>").
	StageRawTarget Stage = "raw_target"
)

// PipelineOptions carries the per-run overrides taken from the command line.
type PipelineOptions struct {
	ForceOCR            bool  // redo the document OCR even if the artifact exists
	ForceOCRPostProcess bool  // redo the clean stage for every filtered page
	ForceTranslate      bool  // redo the translate stage for every filtered page
	LimitToPages        []int // 1-based page numbers; empty means all pages
}

// ErrorCode 错误代码枚举
type ErrorCode string

const (
	ErrNetwork      ErrorCode = "NETWORK_ERROR"
	ErrFileNotFound ErrorCode = "FILE_NOT_FOUND"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrAPICall      ErrorCode = "API_CALL_ERROR"
	ErrAPIRateLimit ErrorCode = "API_RATE_LIMIT"
	ErrConfig       ErrorCode = "CONFIG_ERROR"
	ErrArtifact     ErrorCode = "ARTIFACT_ERROR"
	ErrEncoding     ErrorCode = "ENCODING_ERROR"
	ErrTransform    ErrorCode = "TRANSFORM_ERROR"
	ErrInternal     ErrorCode = "INTERNAL_ERROR"
)

// AppError 应用错误
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	Cause   error     `json:"-"`
}

// Error implements the error interface for AppError
func (e *AppError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

// Unwrap returns the underlying cause of the error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError creates a new AppError with the given code, message, and optional cause
func NewAppError(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewAppErrorWithDetails creates a new AppError with details
func NewAppErrorWithDetails(code ErrorCode, message, details string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Details: details,
		Cause:   cause,
	}
}

// CodeOf returns the ErrorCode carried by err, or ErrInternal when err is not
// an AppError.
func CodeOf(err error) ErrorCode {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return ErrInternal
}
