// Package textract pulls plain text out of uploaded documents. It handles
// the three formats the API accepts: PDF, DOCX and plain text.
package textract

import (
	"bytes"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/nguyenthenguyen/docx"
)

var allowedExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
	".txt":  true,
}

// AllowedFile reports whether the file extension is supported.
func AllowedFile(fileName string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(fileName))]
}

type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

// Extract returns the plain text of the document, dispatching on extension.
func (e *Extractor) Extract(fileName string, data []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return extractPDF(data)
	case ".docx":
		return extractDocx(data)
	case ".txt":
		return string(data), nil
	default:
		return "", fmt.Errorf("unsupported file type: %s", fileName)
	}
}

func extractPDF(data []byte) (string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	var b strings.Builder
	for i := 0; i < doc.NumPage(); i++ {
		text, err := doc.Text(i)
		if err != nil {
			return "", fmt.Errorf("failed to extract page %d: %w", i, err)
		}
		b.WriteString(text)
		b.WriteByte('\n')
	}
	return b.String(), nil
}

func extractDocx(data []byte) (string, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open DOCX: %w", err)
	}
	defer r.Close()

	return flattenDocumentXML(r.Editable().GetContent()), nil
}

var textRunPattern = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)

var xmlUnescaper = strings.NewReplacer(
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&apos;", "'",
	"&amp;", "&",
)

// flattenDocumentXML turns WordprocessingML into plain text: text runs are
// concatenated and each paragraph ends with a newline.
func flattenDocumentXML(content string) string {
	var b strings.Builder
	for _, paragraph := range strings.Split(content, "</w:p>") {
		runs := textRunPattern.FindAllStringSubmatch(paragraph, -1)
		if len(runs) == 0 {
			continue
		}
		for _, run := range runs {
			b.WriteString(xmlUnescaper.Replace(run[1]))
		}
		b.WriteByte('\n')
	}
	return b.String()
}
