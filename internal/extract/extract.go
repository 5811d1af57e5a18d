package extract

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"classmate/internal/domain"
)

// FromFile extracts plain text from a document on disk. Supported formats are
// PDF and plain text (.txt, .md). Unsupported or unreadable input surfaces
// domain.ErrParse; a document with no extractable text is treated the same way.
func FromFile(path string) (string, error) {
	var text string
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		text, err = fromPDF(path)
	case ".txt", ".md", ".text":
		text, err = fromPlain(path)
	default:
		return "", fmt.Errorf("%w: unsupported format %q", domain.ErrParse, filepath.Ext(path))
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: no extractable text in %s", domain.ErrParse, filepath.Base(path))
	}
	return text, nil
}

func fromPlain(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrParse, err)
	}
	return string(data), nil
}

func fromPDF(path string) (text string, err error) {
	// The pdf package panics on some malformed inputs; fold that into ErrParse.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("%w: malformed pdf: %v", domain.ErrParse, r)
		}
	}()
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrParse, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	body, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrParse, err)
	}
	if _, err := buf.ReadFrom(body); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrParse, err)
	}
	return buf.String(), nil
}
