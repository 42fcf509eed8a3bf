// Package transform rewrites OCR Markdown through the Mistral chat API:
// cleanup of OCR formatting damage and translation into a target language.
package transform

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/cloudwego/eino-ext/components/model/openai"

	"scandoc-translator/internal/logger"
	"scandoc-translator/internal/types"
)

// DefaultModel is the default Mistral chat model for page transforms.
const DefaultModel = "mistral-medium-latest"

// chatModel is the subset of the eino chat model used here.
// 便于在测试中用假模型替换。
type chatModel interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// Result is the outcome of a successful page transform. A failed transform is
// reported as an error, never as a nil result.
type Result struct {
	Text string
}

// Engine runs chat-based page transforms. Deterministic output matters more
// than creativity here, so temperature is pinned to zero.
type Engine struct {
	model     chatModel
	modelName string
}

// NewEngine creates an Engine backed by the Mistral chat API
// (OpenAI-compatible endpoint).
func NewEngine(ctx context.Context, apiKey, baseURL, modelName string) (*Engine, error) {
	if apiKey == "" {
		return nil, types.NewAppError(types.ErrConfig, "Mistral API key is not configured", nil)
	}
	if modelName == "" {
		modelName = DefaultModel
	}

	temperature := float32(0)
	chatModelConfig := &openai.ChatModelConfig{
		Model:       modelName,
		APIKey:      apiKey,
		Temperature: &temperature,
	}
	if baseURL != "" {
		chatModelConfig.BaseURL = baseURL
	}

	cm, err := openai.NewChatModel(ctx, chatModelConfig)
	if err != nil {
		logger.Error("failed to create chat model", err)
		return nil, types.NewAppError(types.ErrInternal, "failed to create chat model", err)
	}

	return &Engine{
		model:     cm,
		modelName: modelName,
	}, nil
}

// CleanMarkdown repairs OCR damage in a page's Markdown (broken headers,
// ragged tables) without altering the text content.
func (e *Engine) CleanMarkdown(ctx context.Context, content string) (*Result, error) {
	if content == "" {
		logger.Debug("empty page, skipping cleanup call")
		return &Result{Text: ""}, nil
	}

	return e.generate(ctx, buildCleanSystemPrompt(), content)
}

// Translate translates a page's Markdown from the source language(s) into the
// target language. Multiple source codes cover documents mixing languages.
func (e *Engine) Translate(ctx context.Context, content string, sourceCodes []string, targetCode string) (*Result, error) {
	if content == "" {
		logger.Debug("empty page, skipping translation call")
		return &Result{Text: ""}, nil
	}

	return e.generate(ctx, buildTranslateSystemPrompt(sourceCodes, targetCode), content)
}

func (e *Engine) generate(ctx context.Context, systemPrompt, content string) (*Result, error) {
	logger.Debug("calling chat API", logger.String("model", e.modelName), logger.Int("contentLength", len(content)))

	resp, err := e.model.Generate(ctx, []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(content),
	})
	if err != nil {
		logger.Error("chat API call failed", err)
		return nil, types.NewAppError(types.ErrTransform, "chat API call failed", err)
	}

	text := strings.TrimSpace(resp.Content)
	if text == "" {
		logger.Warn("chat API returned empty content")
		return nil, types.NewAppError(types.ErrTransform, "chat API returned empty content", nil)
	}

	logger.Debug("chat API call successful", logger.Int("resultLength", len(text)))
	return &Result{Text: text}, nil
}

// buildCleanSystemPrompt creates the system prompt for the Markdown cleanup task.
func buildCleanSystemPrompt() string {
	return `You are an expert programmer who excels at fixing markdown text so that it is valid markdown.
Important rules:
- When updating text that is in markdown, you excel at preserving the markdown formatting (headings, tables) in the output text while also making sure that it is valid.
  For instance:
  - IMPORTANT: Ensure that headers are displayed on a standalone line in the resulting text, especially if they are on a standalone line in the source text.
  - Ensure that headers are displayed on a separate line, especially if they are numbered and you identify a gap in the sequence because the header is at the end of an existing line.
  - Ensure that table headers and cells are on a single line, potentially replacing '\n' text with '<br>' to fix markdown.
  - Ensure that all rows in a table (including headers) have the same number of columns. If this is not the case, add empty columns to the row missing columns.
- When fixing markdown that contains LaTeX, you do not modify the LaTeX commands.
  For instance:
  - '$\square$' is preserved as is
  - '$\qquad$' is preserved as is
  - '$\checkmark$' is preserved as is
  In particular, you should never replace LaTeX with a resulting '$$' as it is invalid LaTeX.
- Output only the fixed markdown, with no explanations and no code fences around it.`
}

// buildTranslateSystemPrompt creates the system prompt for the translation task.
func buildTranslateSystemPrompt(sourceCodes []string, targetCode string) string {
	return fmt.Sprintf(`You are an expert translator working from language code(s) %s to language code %s.
Important rules:
- Wrap each block of translated text into a block as follows:
    <section source_language_code="es">
    Hello
    </section>
  where source_language_code indicates the actual source language.
  Always write the <section> tags on a separate line.
  Always write the </section> tags on a separate line.
- When translating content that contains multiple languages, translate the content in all the languages even if it means there are redundancies in the translated output text.
- When translating text that is in markdown, preserve the markdown formatting in the output text while also making sure that it is valid.
  For instance:
  - Headers (line starting with # or ## or ###) are displayed on a separate line, especially if they are on a separate line in the source text.
  - Headers are always preceded by an empty line.
  - Paragraphs and empty lines in the source text are preserved in the output text.
  - Table headers and cells are on a single line, potentially replacing '\n' text with '<br>' to fix markdown.
  - All rows in a table (including headers) have the same number of columns. If this is not the case, add empty columns to the row missing columns.
- When translating markdown that contains LaTeX, you do not modify the LaTeX commands.
  For instance:
  - '$\square$' is preserved as is
  - '$\qquad$' is preserved as is
  - '$\checkmark$' is preserved as is
  In particular, you should never replace LaTeX with a resulting '$$' as it is invalid LaTeX.
- Output only the translated markdown, with no explanations and no code fences around it.`,
		strings.Join(sourceCodes, ","), targetCode)
}
