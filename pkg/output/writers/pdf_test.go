package writers

import (
	"bytes"
	"testing"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppcheck-junit/cppcheck-junit/pkg/output/events"
)

func renderPDF(t *testing.T, config PDFConfig, evs []events.Event) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := NewPDFWriter(&buf, config)
	w.noCompress = true
	feed(t, w, evs)
	return buf.Bytes()
}

func TestPDFWriter_Valid(t *testing.T) {
	raw := renderPDF(t, PDFConfig{}, sampleEvents())

	require.True(t, bytes.HasPrefix(raw, []byte("%PDF")))
	require.NoError(t, pdfapi.Validate(bytes.NewReader(raw), nil))

	pages, err := pdfapi.PageCount(bytes.NewReader(raw), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, pages)

	for _, text := range []string{"Cppcheck report", "Summary", "Issues", "nullPointer", "Null pointer dereference", "3 failing issues"} {
		assert.True(t, bytes.Contains(raw, []byte(text)), "PDF does not contain %q", text)
	}
}

func TestPDFWriter_NoIssues(t *testing.T) {
	raw := renderPDF(t, PDFConfig{Title: "Clean build"}, nil)

	require.NoError(t, pdfapi.Validate(bytes.NewReader(raw), nil))
	pages, err := pdfapi.PageCount(bytes.NewReader(raw), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, pages)
	assert.True(t, bytes.Contains(raw, []byte("No failing issues")))
	assert.True(t, bytes.Contains(raw, []byte("Clean build")))
}

func TestPDFWriter_Landscape(t *testing.T) {
	raw := renderPDF(t, PDFConfig{Orientation: "L", PageSize: "Letter"}, sampleEvents())
	require.NoError(t, pdfapi.Validate(bytes.NewReader(raw), nil))
}
