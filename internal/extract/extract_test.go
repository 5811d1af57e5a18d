package extract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classmate/internal/domain"
)

func write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestFromFilePlainText(t *testing.T) {
	for _, name := range []string{"notes.txt", "notes.md", "notes.text"} {
		t.Run(name, func(t *testing.T) {
			text, err := FromFile(write(t, name, "Entropy is a measure of disorder."))
			require.NoError(t, err)
			assert.Equal(t, "Entropy is a measure of disorder.", text)
		})
	}
}

func TestFromFileUnsupportedExtension(t *testing.T) {
	_, err := FromFile(write(t, "doc.docx", "whatever"))
	assert.ErrorIs(t, err, domain.ErrParse)
}

func TestFromFileEmptyDocument(t *testing.T) {
	_, err := FromFile(write(t, "empty.txt", "  \n\t "))
	assert.ErrorIs(t, err, domain.ErrParse)
}

func TestFromFileMissing(t *testing.T) {
	_, err := FromFile(filepath.Join(t.TempDir(), "gone.txt"))
	assert.ErrorIs(t, err, domain.ErrParse)
}

func TestFromFileMalformedPDF(t *testing.T) {
	// Not a real PDF; the parser must fail cleanly rather than panic.
	_, err := FromFile(write(t, "broken.pdf", "this is not a pdf"))
	assert.ErrorIs(t, err, domain.ErrParse)
}
