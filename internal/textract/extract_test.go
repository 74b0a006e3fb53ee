package textract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowedFile(t *testing.T) {
	assert.True(t, AllowedFile("resume.pdf"))
	assert.True(t, AllowedFile("Resume.PDF"))
	assert.True(t, AllowedFile("resume.docx"))
	assert.True(t, AllowedFile("notes.txt"))

	assert.False(t, AllowedFile("resume.doc"))
	assert.False(t, AllowedFile("photo.png"))
	assert.False(t, AllowedFile("resume"))
}

func TestExtractPlainText(t *testing.T) {
	e := New()

	text, err := e.Extract("resume.txt", []byte("Jane Doe\nGo developer"))
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nGo developer", text)
}

func TestExtractUnsupportedType(t *testing.T) {
	e := New()

	_, err := e.Extract("resume.odt", []byte("x"))
	assert.Error(t, err)
}

func TestFlattenDocumentXML(t *testing.T) {
	content := `<w:p><w:r><w:t>Jane </w:t></w:r><w:r><w:t xml:space="preserve">Doe</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Skills: Go &amp; SQL</w:t></w:r></w:p>` +
		`<w:p></w:p>`

	got := flattenDocumentXML(content)
	assert.Equal(t, "Jane Doe\nSkills: Go & SQL\n", got)
}
