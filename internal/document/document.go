// Package document loads résumé and job description text from files.
package document

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	pdf "github.com/ledongthuc/pdf"
)

var ErrUnsupportedFormat = errors.New("unsupported file format")

var (
	horizontalSpace = regexp.MustCompile(`[ \t\r\f\v\x{00A0}]+`)
	blankLines      = regexp.MustCompile(`\n{3,}`)
	xmlTags         = regexp.MustCompile(`<[^>]+>`)
)

type Document struct {
	ID   string `json:"id"`
	Path string `json:"path,omitempty"`
	Text string `json:"text"`
}

// Supported reports whether the file extension can be loaded.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".text", "", ".pdf", ".docx":
		return true
	default:
		return false
	}
}

// Load reads a single document. The id is the file name without extension.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", path, err)
	}

	text, err := Parse(path, data)
	if err != nil {
		return nil, fmt.Errorf("parsing %q: %w", path, err)
	}

	base := filepath.Base(path)
	return &Document{
		ID:   strings.TrimSuffix(base, filepath.Ext(base)),
		Path: path,
		Text: text,
	}, nil
}

// LoadAll loads files and the supported files of directories, the latter
// sorted by name and without descending into subdirectories.
func LoadAll(paths []string) ([]*Document, error) {
	var docs []*Document
	seen := make(map[string]struct{})

	add := func(path string) error {
		if _, ok := seen[path]; ok {
			return nil
		}
		seen[path] = struct{}{}
		doc, err := Load(path)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
		return nil
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat %q: %w", p, err)
		}
		if !info.IsDir() {
			if err := add(p); err != nil {
				return nil, err
			}
			continue
		}

		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("listing %q: %w", p, err)
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			if e.IsDir() || strings.HasPrefix(e.Name(), ".") || !Supported(e.Name()) || filepath.Ext(e.Name()) == "" {
				continue
			}
			names = append(names, e.Name())
		}
		sort.Strings(names)
		for _, name := range names {
			if err := add(filepath.Join(p, name)); err != nil {
				return nil, err
			}
		}
	}

	return docs, nil
}

// Parse extracts text from raw file content; the format follows the
// extension of name.
func Parse(name string, data []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".md", ".text", "":
		return normalizeWhitespace(string(data)), nil
	case ".pdf":
		return extractPDF(data)
	case ".docx":
		return extractDocx(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(name))
	}
}

// extractPDF reads the text layer row by row so headings stay on their own
// lines.
func extractPDF(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		for _, row := range rows {
			for _, word := range row.Content {
				b.WriteString(word.S)
			}
			b.WriteByte('\n')
		}
	}

	return normalizeWhitespace(b.String()), nil
}

func extractDocx(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var body []byte
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		body, err = io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", err
		}
		break
	}
	if len(body) == 0 {
		return "", errors.New("no word/document.xml in docx")
	}

	xml := strings.ReplaceAll(string(body), "</w:p>", "\n")
	xml = strings.ReplaceAll(xml, "<w:tab/>", "\t")
	return normalizeWhitespace(html.UnescapeString(xmlTags.ReplaceAllString(xml, ""))), nil
}

// normalizeWhitespace collapses horizontal whitespace, trims every line and
// keeps at most one blank line between paragraphs.
func normalizeWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(horizontalSpace.ReplaceAllString(line, " "))
	}
	s = strings.Join(lines, "\n")
	s = blankLines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
