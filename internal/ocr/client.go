// Package ocr provides a client for the Mistral OCR API. A PDF is uploaded
// inline as a base64 data URI and the API returns per-page Markdown plus
// extracted images.
package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"scandoc-translator/internal/document"
	"scandoc-translator/internal/logger"
	"scandoc-translator/internal/types"
)

const (
	// DefaultModel is the default Mistral OCR model.
	DefaultModel = "mistral-ocr-latest"
	// DefaultTimeout is the default HTTP client timeout for OCR calls.
	// OCR of a large scan can take minutes.
	DefaultTimeout = 300 * time.Second
	// MaxRetries is the maximum number of attempts for retryable API errors.
	MaxRetries = 2
	// BaseRetryDelay is the base delay between retries.
	BaseRetryDelay = 2 * time.Second
	// MistralAPIBaseURL is the Mistral API base endpoint.
	MistralAPIBaseURL = "https://api.mistral.ai/v1"
)

// Client calls the Mistral OCR endpoint.
type Client struct {
	apiKey string
	client *http.Client
	model  string
	apiURL string
}

// NewClient creates a Client with the default model and timeout.
func NewClient(apiKey string) *Client {
	return NewClientWithConfig(apiKey, DefaultModel, MistralAPIBaseURL, DefaultTimeout)
}

// NewClientWithConfig creates a Client with full configuration.
func NewClientWithConfig(apiKey, model, baseURL string, timeout time.Duration) *Client {
	if model == "" {
		model = DefaultModel
	}
	if baseURL == "" {
		baseURL = MistralAPIBaseURL
	}
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		apiKey: apiKey,
		client: &http.Client{
			Timeout: timeout,
		},
		model:  model,
		apiURL: normalizeAPIURL(baseURL),
	}
}

// normalizeAPIURL ensures the API URL ends with /ocr
func normalizeAPIURL(url string) string {
	url = strings.TrimSuffix(url, "/")
	if strings.HasSuffix(url, "/ocr") {
		return url
	}
	return url + "/ocr"
}

// GetModel returns the OCR model in use.
func (c *Client) GetModel() string {
	return c.model
}

// SetAPIURL sets the full OCR endpoint URL (useful for testing with mock servers).
func (c *Client) SetAPIURL(url string) {
	c.apiURL = url
}

// EncodePDF reads the PDF and encodes it as a base64 data URI suitable for
// the document_url field. Failure here is fatal for the run: without the
// upload payload there is nothing to OCR.
func EncodePDF(pdfPath string) (string, error) {
	data, err := os.ReadFile(pdfPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", types.NewAppError(types.ErrFileNotFound, "文件不存在，请检查路径", err)
		}
		return "", types.NewAppError(types.ErrEncoding, "无法读取 PDF 文件", err)
	}
	encoded := base64.StdEncoding.EncodeToString(data)
	return "data:application/pdf;base64," + encoded, nil
}

// OCRRequest is the request body for the Mistral OCR endpoint.
type OCRRequest struct {
	Model              string      `json:"model"`
	Document           DocumentURL `json:"document"`
	IncludeImageBase64 bool        `json:"include_image_base64"`
}

// DocumentURL identifies the document to process; document_url carries
// either a public URL or an inline data URI.
type DocumentURL struct {
	Type        string `json:"type"`
	DocumentURL string `json:"document_url"`
}

// apiErrorResponse is the error envelope Mistral returns on failures.
type apiErrorResponse struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    any    `json:"code"`
}

// Process runs OCR over the given PDF and returns the recognized document.
// The whole file is uploaded inline, so this is a single call regardless of
// page count.
func (c *Client) Process(ctx context.Context, pdfPath string) (*document.Document, error) {
	logger.Info("starting OCR", logger.String("path", pdfPath), logger.String("model", c.model))

	if c.apiKey == "" {
		return nil, types.NewAppError(types.ErrConfig, "Mistral API key is not configured", nil)
	}

	dataURI, err := EncodePDF(pdfPath)
	if err != nil {
		return nil, err
	}
	logger.Debug("encoded PDF", logger.Int("dataURILength", len(dataURI)))

	return c.processWithRetry(ctx, dataURI)
}

// processWithRetry calls the OCR endpoint with retry logic for transient errors.
func (c *Client) processWithRetry(ctx context.Context, dataURI string) (*document.Document, error) {
	var lastErr error

	for attempt := 1; attempt <= MaxRetries; attempt++ {
		logger.Debug("OCR attempt", logger.Int("attempt", attempt))
		doc, err := c.doProcess(ctx, dataURI)
		if err == nil {
			return doc, nil
		}

		lastErr = err
		logger.Warn("OCR attempt failed", logger.Int("attempt", attempt), logger.Err(err))

		if !isRetryableAPIError(err) {
			logger.Error("non-retryable OCR error", err)
			return nil, err
		}

		if attempt < MaxRetries {
			delay := BaseRetryDelay * time.Duration(attempt)
			logger.Debug("retrying after delay", logger.String("delay", delay.String()))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, types.NewAppError(types.ErrNetwork, "OCR cancelled", ctx.Err())
			}
		}
	}

	logger.Error("OCR failed after all retries", lastErr, logger.Int("maxRetries", MaxRetries))
	return nil, types.NewAppErrorWithDetails(
		types.ErrAPICall,
		"OCR failed after multiple retries",
		fmt.Sprintf("attempted %d times", MaxRetries),
		lastErr,
	)
}

// doProcess performs the actual OCR API call.
func (c *Client) doProcess(ctx context.Context, dataURI string) (*document.Document, error) {
	reqBody := OCRRequest{
		Model: c.model,
		Document: DocumentURL{
			Type:        "document_url",
			DocumentURL: dataURI,
		},
		IncludeImageBase64: true,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		logger.Error("failed to marshal OCR request", err)
		return nil, types.NewAppError(types.ErrInternal, "failed to marshal OCR request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewBuffer(jsonBody))
	if err != nil {
		logger.Error("failed to create HTTP request", err)
		return nil, types.NewAppError(types.ErrInternal, "failed to create HTTP request", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		logger.Error("OCR API request failed", err)
		return nil, types.NewAppError(types.ErrNetwork, "OCR API request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Error("failed to read OCR response", err)
		return nil, types.NewAppError(types.ErrNetwork, "failed to read OCR response", err)
	}

	if resp.StatusCode != http.StatusOK {
		logger.Error("OCR API returned error status", nil, logger.Int("statusCode", resp.StatusCode))
		return nil, handleAPIHTTPError(resp.StatusCode, body)
	}

	var doc document.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		logger.Error("failed to parse OCR response", err)
		return nil, types.NewAppError(types.ErrAPICall, "failed to parse OCR response", err)
	}

	if len(doc.Pages) == 0 {
		logger.Error("OCR returned no pages", nil)
		return nil, types.NewAppError(types.ErrAPICall, "OCR returned no pages", nil)
	}

	pagesProcessed := 0
	if doc.UsageInfo != nil {
		pagesProcessed = doc.UsageInfo.PagesProcessed
	}
	logger.Info("OCR completed",
		logger.Int("pages", len(doc.Pages)),
		logger.String("model", doc.Model),
		logger.Int("pagesProcessed", pagesProcessed))
	return &doc, nil
}

// handleAPIHTTPError creates an appropriate AppError based on the HTTP status
// code and response body.
func handleAPIHTTPError(statusCode int, body []byte) error {
	var errResp apiErrorResponse
	errorDetails := ""
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Message != "" {
		errorDetails = errResp.Message
	}

	switch statusCode {
	case http.StatusUnauthorized:
		return types.NewAppErrorWithDetails(
			types.ErrAPICall,
			"API authentication failed",
			"invalid API key or unauthorized access",
			nil,
		)
	case http.StatusTooManyRequests:
		return types.NewAppErrorWithDetails(
			types.ErrAPIRateLimit,
			"API rate limit exceeded",
			errorDetails,
			nil,
		)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return types.NewAppErrorWithDetails(
			types.ErrAPICall,
			"invalid API request",
			errorDetails,
			nil,
		)
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		return types.NewAppErrorWithDetails(
			types.ErrAPICall,
			"API server error",
			fmt.Sprintf("status %d: %s", statusCode, errorDetails),
			nil,
		)
	default:
		return types.NewAppErrorWithDetails(
			types.ErrAPICall,
			"API request failed",
			fmt.Sprintf("status %d: %s", statusCode, errorDetails),
			nil,
		)
	}
}

// isRetryableAPIError determines if an error should trigger a retry.
func isRetryableAPIError(err error) bool {
	if err == nil {
		return false
	}

	if appErr, ok := err.(*types.AppError); ok {
		switch appErr.Code {
		case types.ErrNetwork:
			return true
		case types.ErrAPIRateLimit:
			return true
		case types.ErrAPICall:
			// Retry on server errors, but not on client errors
			if strings.Contains(appErr.Details, "status 5") {
				return true
			}
			return false
		default:
			return false
		}
	}

	return false
}
