package source

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildPDF writes a minimal single-font PDF with one page per entry in pages,
// each page showing its text with a single Tj operator.
func buildPDF(pages ...string) []byte {
	var objs []string
	n := len(pages)
	// 1: catalog, 2: pages, 3: font, then (page, content) pairs.
	kids := ""
	for i := 0; i < n; i++ {
		kids += fmt.Sprintf("%d 0 R ", 4+2*i)
	}
	objs = append(objs,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, n),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	)
	for i, text := range pages {
		stream := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		objs = append(objs,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
		)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return buf.Bytes()
}

func TestFromTopic(t *testing.T) {
	s, err := FromTopic("  Data Structures in C++ ")
	require.NoError(t, err)
	assert.Equal(t, KindTopic, s.Kind)
	assert.Equal(t, "Data Structures in C++", s.Title)
	assert.Equal(t, s.Title, s.Text)

	_, err = FromTopic(" \n\t")
	assert.ErrorIs(t, err, ErrEmptyTopic)
}

func TestFromPDFRejectsNonPDF(t *testing.T) {
	_, err := FromPDF("notes.txt", "text/plain", []byte("%PDF-1.4"))
	assert.ErrorIs(t, err, ErrNotPDF)

	_, err = FromPDF("notes.pdf", "application/pdf", []byte("hello"))
	assert.ErrorIs(t, err, ErrNotPDF)

	_, err = FromPDF("notes.pdf", "application/octet-stream", buildPDF("Entropy"))
	assert.ErrorIs(t, err, ErrNotPDF, "only application/pdf is accepted when a type is given")
}

func TestFromPDFContentType(t *testing.T) {
	data := buildPDF("Entropy")
	for _, ct := range []string{"", "application/pdf", "Application/PDF; name=unit1.pdf"} {
		s, err := FromPDF("unit1.pdf", ct, data)
		require.NoError(t, err, ct)
		assert.Equal(t, 1, s.Pages)
	}
}

func TestFromPDFCorrupt(t *testing.T) {
	_, err := FromPDF("broken.pdf", "application/pdf", []byte("%PDF-1.4\nthis is not a pdf"))
	assert.ErrorIs(t, err, ErrUnreadablePDF)
}

func TestFromPDF(t *testing.T) {
	data := buildPDF("Thermodynamics", "Entropy")

	n, err := PageCount(data)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	s, err := FromPDF("unit1.pdf", "application/pdf", data)
	require.NoError(t, err)
	assert.Equal(t, KindPDF, s.Kind)
	assert.Equal(t, "unit1.pdf", s.Title)
	assert.Equal(t, 2, s.Pages)
	assert.Contains(t, s.Text, "Thermodynamics")
	assert.Contains(t, s.Text, "Entropy")
}

func TestNormalizeText(t *testing.T) {
	in := "  The ﬁrst   law\t\tof \r\n\r\n\r\n thermo dynamics  \n"
	assert.Equal(t, "The first law of\n\nthermo dynamics", normalizeText(in))
	assert.Equal(t, "", normalizeText(" \n \n"))
}
