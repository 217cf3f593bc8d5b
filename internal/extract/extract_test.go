package extract

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/lws-dev/hiring/backend/internal/domain"
	"github.com/lws-dev/hiring/backend/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const documentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Jane Doe</w:t></w:r></w:p>
    <w:p><w:r><w:t xml:space="preserve">Senior </w:t></w:r><w:r><w:t>Go Engineer</w:t></w:r></w:p>
    <w:p><w:r><w:t>Skills:</w:t><w:tab/><w:t>Go, PostgreSQL</w:t></w:r></w:p>
  </w:body>
</w:document>`

func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()

	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)

	files := map[string]string{
		"[Content_Types].xml":          `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"></Types>`,
		"word/document.xml":            documentXML,
		"word/_rels/document.xml.rels": `<?xml version="1.0" encoding="UTF-8"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`,
	}
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	return buf.Bytes()
}

func TestDocumentXMLText(t *testing.T) {
	text, err := documentXMLText(documentXML)
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe\nSenior Go Engineer\nSkills:\tGo, PostgreSQL", text)
}

func TestDocumentXMLTextWithoutRuns(t *testing.T) {
	_, err := documentXMLText(`<w:document><w:body><w:p></w:p><w:p><w:r><w:t> </w:t></w:r></w:p></w:body></w:document>`)
	assert.ErrorIs(t, err, domain.ErrEmptyDocument)
}

func TestDocumentDocx(t *testing.T) {
	text, err := Document(buildDocx(t, documentXML), storage.MimeDOCX)
	require.NoError(t, err)

	assert.Contains(t, text, "Senior Go Engineer")
	assert.Contains(t, text, "Jane Doe\n")
}

func TestDocumentPlainText(t *testing.T) {
	text, err := Document([]byte("plain resume"), "text/plain; charset=utf-8")
	require.NoError(t, err)
	assert.Equal(t, "plain resume", text)
}

func TestDocumentSniffsUnknownType(t *testing.T) {
	text, err := Document([]byte("plain resume"), storage.MimeBin)
	require.NoError(t, err)
	assert.Equal(t, "plain resume", text)
}

func TestDocumentRejectsInvalidUTF8(t *testing.T) {
	_, err := Document([]byte{0xff, 0xfe, 0xfd}, storage.MimeText)
	assert.ErrorIs(t, err, domain.ErrUnsupportedDocument)
}

func TestDocumentUnsupported(t *testing.T) {
	_, err := Document([]byte("legacy"), storage.MimeDOC)
	assert.ErrorIs(t, err, domain.ErrUnsupportedDocument)
}

func TestDocumentEmptyDocx(t *testing.T) {
	empty := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p></w:p></w:body></w:document>`

	_, err := Document(buildDocx(t, empty), storage.MimeDOCX)
	assert.ErrorIs(t, err, domain.ErrEmptyDocument)
}

func TestDocumentBlankText(t *testing.T) {
	_, err := Document([]byte(" \n\t"), storage.MimeText)
	assert.ErrorIs(t, err, domain.ErrEmptyDocument)
}

func TestDocumentBrokenPDF(t *testing.T) {
	_, err := Document([]byte("not a pdf"), storage.MimePDF)
	assert.Error(t, err)
}

func TestSetLicenseWithoutKey(t *testing.T) {
	assert.NoError(t, SetLicense(""))
}
