package document

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scandoc-translator/internal/types"
)

func sampleDocument() *Document {
	return &Document{
		Model: "mistral-ocr-latest",
		UsageInfo: &UsageInfo{
			PagesProcessed: 2,
			DocSizeBytes:   4096,
		},
		Pages: []Page{
			{
				Index:    0,
				Markdown: "# Title\n\nFirst page.",
				Images: []Image{
					{ID: "img-0.jpeg", ImageBase64: "data:image/jpeg;base64,/9j/4AAQ"},
				},
				Dimensions: &Dimensions{DPI: 200, Height: 2200, Width: 1700},
			},
			{
				Index:    1,
				Markdown: "Second page.",
				Images:   []Image{},
			},
		},
	}
}

func TestStoreSaveLoadRoundTrip(t *testing.T) {
	store := NewStore()
	path := filepath.Join(t.TempDir(), "doc.json")

	doc := sampleDocument()
	require.NoError(t, store.Save(doc, path))

	loaded, err := store.Load(path)
	require.NoError(t, err)
	assert.Equal(t, doc, loaded)
}

func TestStoreSaveOverwrites(t *testing.T) {
	store := NewStore()
	path := filepath.Join(t.TempDir(), "doc.json")

	doc := sampleDocument()
	require.NoError(t, store.Save(doc, path))

	doc.Pages[1].Markdown = "Second page, rewritten."
	require.NoError(t, store.Save(doc, path))

	loaded, err := store.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Second page, rewritten.", loaded.Pages[1].Markdown)
}

func TestStoreSaveLeavesNoTempFiles(t *testing.T) {
	store := NewStore()
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")

	require.NoError(t, store.Save(sampleDocument(), path))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestStoreLoadMissingFile(t *testing.T) {
	store := NewStore()
	_, err := store.Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Equal(t, types.ErrFileNotFound, types.CodeOf(err))
}

func TestStoreLoadMalformedArtifact(t *testing.T) {
	store := NewStore()
	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{\"pages\": [oops"), 0644))

	_, err := store.Load(path)
	require.Error(t, err)
	assert.Equal(t, types.ErrArtifact, types.CodeOf(err))
}

func TestStoreExists(t *testing.T) {
	store := NewStore()
	path := filepath.Join(t.TempDir(), "doc.json")

	assert.False(t, store.Exists(path))
	require.NoError(t, store.Save(sampleDocument(), path))
	assert.True(t, store.Exists(path))
}

func TestDeepCopyIsIndependent(t *testing.T) {
	doc := sampleDocument()
	cp := doc.DeepCopy()

	require.Equal(t, doc, cp)

	cp.Pages[0].Markdown = "mutated"
	cp.Pages[0].Images[0].ID = "mutated.jpeg"
	cp.UsageInfo.PagesProcessed = 99

	assert.Equal(t, "# Title\n\nFirst page.", doc.Pages[0].Markdown)
	assert.Equal(t, "img-0.jpeg", doc.Pages[0].Images[0].ID)
	assert.Equal(t, 2, doc.UsageInfo.PagesProcessed)
}

func TestDeepCopyPreservesPageCount(t *testing.T) {
	doc := sampleDocument()
	cp := doc.DeepCopy()
	assert.Equal(t, doc.PageCount(), cp.PageCount())
}
