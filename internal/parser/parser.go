// Package parser extracts plain text from supported document binaries.
// An empty result string is the "no text extracted" signal; errors are
// reserved for unreadable inputs.
package parser

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog/log"
)

// SupportedExtensions lists the ingestible document formats.
var SupportedExtensions = []string{".pdf", ".pptx"}

// IsSupported reports whether the filename's extension is on the
// ingestion allow-list.
func IsSupported(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, s := range SupportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// Extractor extracts text from document bytes given a format hint
// (a file extension such as ".pdf").
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(data []byte, formatHint string) (string, error) {
	switch strings.ToLower(formatHint) {
	case ".pdf":
		return extractPDF(data)
	case ".pptx":
		return extractPPTX(data)
	default:
		return "", fmt.Errorf("unsupported file format: %s", formatHint)
	}
}

func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	var text strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			// A bad page loses its text, not the whole document.
			log.Warn().Err(err).Int("page", i).Msg("Skipping unreadable pdf page")
			continue
		}
		text.WriteString(pageText)
		text.WriteString("\n")
	}
	return strings.TrimSpace(text.String()), nil
}

func extractPPTX(data []byte) (string, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open pptx: %w", err)
	}

	// Slide entries come in archive order; sort on the numeric suffix
	// so slide10.xml sorts after slide2.xml and the text keeps
	// document order.
	var slides []*zip.File
	for _, file := range r.File {
		if strings.HasPrefix(file.Name, "ppt/slides/slide") && strings.HasSuffix(file.Name, ".xml") {
			slides = append(slides, file)
		}
	}
	sort.Slice(slides, func(i, j int) bool {
		a, b := slideNumber(slides[i].Name), slideNumber(slides[j].Name)
		if a != b {
			return a < b
		}
		return slides[i].Name < slides[j].Name
	})

	var text strings.Builder
	for _, file := range slides {
		rc, err := file.Open()
		if err != nil {
			log.Warn().Err(err).Str("slide", file.Name).Msg("Skipping unreadable slide")
			continue
		}
		raw, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			log.Warn().Err(err).Str("slide", file.Name).Msg("Skipping unreadable slide")
			continue
		}
		text.WriteString(extractTextFromXML(string(raw)))
		text.WriteString("\n")
	}
	return strings.TrimSpace(text.String()), nil
}

// slideNumber extracts the ordinal from an entry name such as
// "ppt/slides/slide12.xml". Entries without a parseable number sort
// first.
func slideNumber(name string) int {
	trimmed := strings.TrimSuffix(strings.TrimPrefix(name, "ppt/slides/slide"), ".xml")
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return -1
	}
	return n
}

// extractTextFromXML pulls the contents of <a:t> runs out of slide XML.
func extractTextFromXML(xmlContent string) string {
	var text strings.Builder
	parts := strings.Split(xmlContent, "<a:t>")
	for i, part := range parts {
		if i == 0 {
			continue
		}
		endIdx := strings.Index(part, "</a:t>")
		if endIdx >= 0 {
			text.WriteString(part[:endIdx] + " ")
		}
	}
	return text.String()
}
