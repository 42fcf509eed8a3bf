// Package document defines the OCR result document that flows through the
// pipeline stages, and its on-disk JSON persistence.
//
// The JSON schema mirrors the Mistral OCR response so that saved artifacts
// round-trip losslessly through Save and Load.
package document

// Document is an ordered sequence of OCR'd pages. The page count and order
// are fixed once OCR has produced the document; later stages rewrite page
// text in place but never add, remove, or reorder pages.
type Document struct {
	Pages     []Page     `json:"pages"`
	Model     string     `json:"model,omitempty"`
	UsageInfo *UsageInfo `json:"usage_info,omitempty"`
}

// Page is one OCR'd page: a 0-based index, a Markdown text body, and the
// images embedded in the page. Images are produced by OCR and carried
// through every later stage unchanged.
type Page struct {
	Index      int         `json:"index"`
	Markdown   string      `json:"markdown"`
	Images     []Image     `json:"images"`
	Dimensions *Dimensions `json:"dimensions,omitempty"`
}

// Image is an embedded page image: an identifier (used as the output file
// name) and the binary payload encoded as a data URI.
type Image struct {
	ID           string `json:"id"`
	TopLeftX     int    `json:"top_left_x"`
	TopLeftY     int    `json:"top_left_y"`
	BottomRightX int    `json:"bottom_right_x"`
	BottomRightY int    `json:"bottom_right_y"`
	ImageBase64  string `json:"image_base64"`
}

// Dimensions carries the scanned page geometry reported by the OCR service.
type Dimensions struct {
	DPI    int `json:"dpi"`
	Height int `json:"height"`
	Width  int `json:"width"`
}

// UsageInfo carries the OCR service accounting fields.
type UsageInfo struct {
	PagesProcessed int `json:"pages_processed"`
	DocSizeBytes   int `json:"doc_size_bytes,omitempty"`
}

// PageCount returns the number of pages in the document.
func (d *Document) PageCount() int {
	return len(d.Pages)
}

// DeepCopy returns an independent copy of the document. Mutating the copy's
// pages never affects the original; this is what seeds a new stage from its
// source stage.
func (d *Document) DeepCopy() *Document {
	out := &Document{
		Model: d.Model,
	}
	if d.UsageInfo != nil {
		ui := *d.UsageInfo
		out.UsageInfo = &ui
	}
	out.Pages = make([]Page, len(d.Pages))
	for i, p := range d.Pages {
		cp := Page{
			Index:    p.Index,
			Markdown: p.Markdown,
		}
		if p.Dimensions != nil {
			dim := *p.Dimensions
			cp.Dimensions = &dim
		}
		if p.Images != nil {
			cp.Images = make([]Image, len(p.Images))
			copy(cp.Images, p.Images)
		}
		out.Pages[i] = cp
	}
	return out
}
