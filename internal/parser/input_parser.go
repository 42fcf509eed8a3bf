// Package parser provides input parsing for the scandoc translator:
// 1-based page lists and BCP-47 language codes.
package parser

import (
	"strconv"
	"strings"

	"golang.org/x/text/language"

	"scandoc-translator/internal/logger"
	"scandoc-translator/internal/types"
)

// PageFilter is an optional subset of 1-based page numbers restricting which
// pages a stage will process. An empty filter means every page is eligible.
type PageFilter []int

// Empty reports whether the filter restricts nothing.
func (f PageFilter) Empty() bool {
	return len(f) == 0
}

// Contains reports whether the 1-based page number is in the filter.
func (f PageFilter) Contains(page int) bool {
	for _, p := range f {
		if p == page {
			return true
		}
	}
	return false
}

// ParsePageList parses a comma-separated list of 1-based page numbers
// (e.g. "1,3,5") into a PageFilter. An empty string yields an empty filter.
func ParsePageList(input string) (PageFilter, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil
	}

	var filter PageFilter
	for _, part := range strings.Split(input, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		page, err := strconv.Atoi(part)
		if err != nil {
			logger.Warn("invalid page number", logger.String("value", part))
			return nil, types.NewAppErrorWithDetails(types.ErrInvalidInput, "无效的页码", part, err)
		}
		if page < 1 {
			return nil, types.NewAppErrorWithDetails(types.ErrInvalidInput, "页码必须从 1 开始", part, nil)
		}
		filter = append(filter, page)
	}
	return filter, nil
}

// ParseSourceLanguages parses a comma-separated list of language codes
// (e.g. "fr" or "fr,de") and validates each as a BCP-47 tag. The codes are
// returned as written; directory names use the raw user input.
func ParseSourceLanguages(input string) ([]string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, types.NewAppError(types.ErrInvalidInput, "source language code is required", nil)
	}

	var codes []string
	for _, part := range strings.Split(input, ",") {
		code := strings.TrimSpace(part)
		if code == "" {
			continue
		}
		if err := ValidateLanguageCode(code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	if len(codes) == 0 {
		return nil, types.NewAppError(types.ErrInvalidInput, "source language code is required", nil)
	}
	return codes, nil
}

// ValidateLanguageCode checks that code parses as a BCP-47 language tag.
func ValidateLanguageCode(code string) error {
	if _, err := language.Parse(code); err != nil {
		logger.Warn("invalid language code", logger.String("code", code))
		return types.NewAppErrorWithDetails(types.ErrInvalidInput, "invalid language code", code, err)
	}
	return nil
}
