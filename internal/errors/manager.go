// Package errors tracks failed page transforms across pipeline runs. A failed
// page is retried automatically on the next run; the journal exists so users
// can see which pages keep failing and why without digging through logs.
package errors

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// FailureRecord 单页转换失败记录
type FailureRecord struct {
	Stage      string    `json:"stage"`       // 失败阶段（clean / translate）
	Page       int       `json:"page"`        // 1-based 页码
	ErrorMsg   string    `json:"error_msg"`   // 错误信息
	Timestamp  time.Time `json:"timestamp"`   // 首次失败时间
	RetryCount int       `json:"retry_count"` // 重试次数
	LastRetry  time.Time `json:"last_retry"`  // 最后重试时间
}

// Journal 失败记录管理器，按 PDF 归档
type Journal struct {
	baseDir  string
	mu       sync.RWMutex
	failures map[string]*FailureRecord // key: stage + page
}

// NewJournal creates a failure journal stored under baseDir (the per-PDF
// artifact directory).
func NewJournal(baseDir string) (*Journal, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	j := &Journal{
		baseDir:  baseDir,
		failures: make(map[string]*FailureRecord),
	}

	if err := j.load(); err != nil {
		return nil, err
	}

	return j, nil
}

func key(stage string, page int) string {
	return fmt.Sprintf("%s:%d", stage, page)
}

// RecordFailure 记录一次失败。同一页重复失败时累计重试次数。
func (j *Journal) RecordFailure(stage string, page int, errorMsg string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	record := &FailureRecord{
		Stage:     stage,
		Page:      page,
		ErrorMsg:  errorMsg,
		Timestamp: time.Now(),
	}

	if existing, ok := j.failures[key(stage, page)]; ok {
		record.Timestamp = existing.Timestamp
		record.RetryCount = existing.RetryCount + 1
		record.LastRetry = time.Now()
	}

	j.failures[key(stage, page)] = record

	return j.save()
}

// ClearFailure 移除失败记录（该页转换成功后）
func (j *Journal) ClearFailure(stage string, page int) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if _, ok := j.failures[key(stage, page)]; !ok {
		return nil
	}
	delete(j.failures, key(stage, page))
	return j.save()
}

// ListFailures 列出所有失败记录，按阶段和页码排序
func (j *Journal) ListFailures() []*FailureRecord {
	j.mu.RLock()
	defer j.mu.RUnlock()

	records := make([]*FailureRecord, 0, len(j.failures))
	for _, record := range j.failures {
		recordCopy := *record
		records = append(records, &recordCopy)
	}

	sort.Slice(records, func(a, b int) bool {
		if records[a].Stage != records[b].Stage {
			return records[a].Stage < records[b].Stage
		}
		return records[a].Page < records[b].Page
	})

	return records
}

// HasFailures 检查是否有失败记录
func (j *Journal) HasFailures() bool {
	j.mu.RLock()
	defer j.mu.RUnlock()

	return len(j.failures) > 0
}

// load 从文件加载失败记录
func (j *Journal) load() error {
	filePath := filepath.Join(j.baseDir, "failures.json")

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read failures file: %w", err)
	}

	var records []*FailureRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("failed to unmarshal failures: %w", err)
	}

	for _, record := range records {
		j.failures[key(record.Stage, record.Page)] = record
	}

	return nil
}

// save 保存失败记录到文件
func (j *Journal) save() error {
	records := make([]*FailureRecord, 0, len(j.failures))
	for _, record := range j.failures {
		records = append(records, record)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal failures: %w", err)
	}

	filePath := filepath.Join(j.baseDir, "failures.json")
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write failures file: %w", err)
	}

	return nil
}
