package source

import (
	"bytes"
	"fmt"
	"math"
	"mime"
	"sort"
	"strings"

	lpdf "github.com/ledongthuc/pdf"
	rpdf "rsc.io/pdf"
)

const pdfMagic = "%PDF-"

// FromPDF extracts the text layer of an uploaded PDF. contentType may be
// empty; when present it must be application/pdf. Image-only PDFs have no
// text layer and are reported as unreadable.
func FromPDF(name, contentType string, data []byte) (Source, error) {
	if contentType != "" {
		mt, _, err := mime.ParseMediaType(contentType)
		if err != nil || mt != "application/pdf" {
			return Source{}, ErrNotPDF
		}
	}
	if !bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte(pdfMagic)) {
		return Source{}, ErrNotPDF
	}

	pages, err := ExtractPages(data)
	if err != nil {
		return Source{}, fmt.Errorf("%w: %v", ErrUnreadablePDF, err)
	}
	text := normalizeText(strings.Join(pages, "\n"))
	if text == "" {
		return Source{}, fmt.Errorf("%w: no text layer", ErrUnreadablePDF)
	}
	if name == "" {
		name = "document.pdf"
	}
	n, err := PageCount(data)
	if err != nil || n == 0 {
		n = len(pages)
	}
	return Source{Kind: KindPDF, Title: name, Text: text, Pages: n, Chars: len(text)}, nil
}

// ExtractPages returns the text of each page. The ledongthuc reader handles
// most font encodings; when it fails or yields nothing, rsc.io/pdf is tried.
func ExtractPages(data []byte) ([]string, error) {
	pages, err := plainTextPages(data)
	if err == nil && !allBlank(pages) {
		return pages, nil
	}
	fallback, ferr := contentTextPages(data)
	if ferr != nil {
		if err != nil {
			return nil, fmt.Errorf("%v; fallback: %w", err, ferr)
		}
		return pages, nil
	}
	return fallback, nil
}

func plainTextPages(data []byte) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf reader panic: %v", r)
		}
	}()
	r, err := lpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	fonts := make(map[string]*lpdf.Font)
	n := r.NumPage()
	for i := 1; i <= n; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		for _, name := range p.Fonts() {
			if _, ok := fonts[name]; !ok {
				f := p.Font(name)
				fonts[name] = &f
			}
		}
		text, perr := p.GetPlainText(fonts)
		if perr != nil {
			return nil, fmt.Errorf("read pdf page %d: %w", i, perr)
		}
		pages = append(pages, text)
	}
	return pages, nil
}

// contentTextPages rebuilds lines from positioned glyph runs.
func contentTextPages(data []byte) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf reader panic: %v", r)
		}
	}()
	r, err := rpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	n := r.NumPage()
	for i := 1; i <= n; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, joinRuns(p.Content().Text))
	}
	return pages, nil
}

func joinRuns(runs []rpdf.Text) string {
	if len(runs) == 0 {
		return ""
	}
	sorted := make([]rpdf.Text, len(runs))
	copy(sorted, runs)
	// Top of page first, then left to right.
	sort.SliceStable(sorted, func(i, j int) bool {
		if math.Abs(sorted[i].Y-sorted[j].Y) > 1 {
			return sorted[i].Y > sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})
	var b strings.Builder
	prev := sorted[0]
	b.WriteString(prev.S)
	for _, t := range sorted[1:] {
		switch {
		case math.Abs(t.Y-prev.Y) > 1:
			b.WriteByte('\n')
		case t.X-(prev.X+prev.W) > t.FontSize*0.2:
			b.WriteByte(' ')
		}
		b.WriteString(t.S)
		prev = t
	}
	return b.String()
}

func allBlank(pages []string) bool {
	for _, p := range pages {
		if strings.TrimSpace(p) != "" {
			return false
		}
	}
	return true
}

// PageCount reports the number of pages without extracting text.
func PageCount(data []byte) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf reader panic: %v", r)
		}
	}()
	r, err := rpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, err
	}
	return r.NumPage(), nil
}
