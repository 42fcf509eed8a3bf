package document

import (
	"encoding/json"
	"os"
	"path/filepath"

	"scandoc-translator/internal/logger"
	"scandoc-translator/internal/types"
)

// Store reads and writes documents as JSON artifacts on disk. Save is the
// unit of crash recovery: the pipeline persists the whole document after
// every page update, so on-disk state never lags more than one page behind
// memory.
type Store struct{}

// NewStore creates a document store.
func NewStore() *Store {
	return &Store{}
}

// Load parses the JSON artifact at path into a Document.
func (s *Store) Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, types.NewAppError(types.ErrFileNotFound, "artifact not found", err)
		}
		return nil, types.NewAppError(types.ErrArtifact, "failed to read artifact", err)
	}

	doc := &Document{}
	if err := json.Unmarshal(data, doc); err != nil {
		logger.Error("malformed artifact", err, logger.String("path", path))
		return nil, types.NewAppErrorWithDetails(types.ErrArtifact, "malformed artifact", path, err)
	}
	return doc, nil
}

// Exists reports whether an artifact file is present at path.
func (s *Store) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Save serializes the document to JSON at path, fully replacing any existing
// file. The write goes to a temp file in the same directory followed by a
// rename, so a concurrent reader never observes a half-written artifact.
func (s *Store) Save(doc *Document, path string) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return types.NewAppError(types.ErrArtifact, "failed to marshal document", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return types.NewAppError(types.ErrArtifact, "failed to create artifact directory", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return types.NewAppError(types.ErrArtifact, "failed to create temp artifact", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return types.NewAppError(types.ErrArtifact, "failed to write artifact", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return types.NewAppError(types.ErrArtifact, "failed to close artifact", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return types.NewAppError(types.ErrArtifact, "failed to replace artifact", err)
	}

	logger.Debug("artifact saved", logger.String("path", path), logger.Int("pages", doc.PageCount()))
	return nil
}
