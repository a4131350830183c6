package render

import "strings"

type SpanKind string

const (
	SpanText   SpanKind = "text"
	SpanStrong SpanKind = "strong"
	SpanEm     SpanKind = "em"
	SpanCode   SpanKind = "code"
	SpanMath   SpanKind = "math"
)

type Span struct {
	Kind SpanKind `json:"kind"`
	Text string   `json:"text"`
}

// ParseInline scans a single line. Unmatched delimiters are kept as text.
func ParseInline(s string) []Span {
	var (
		spans []Span
		buf   strings.Builder
	)
	emit := func(k SpanKind, text string) {
		if buf.Len() > 0 {
			spans = append(spans, Span{Kind: SpanText, Text: buf.String()})
			buf.Reset()
		}
		spans = append(spans, Span{Kind: k, Text: text})
	}

	for i := 0; i < len(s); {
		switch {
		case s[i] == '$':
			if j := strings.IndexByte(s[i+1:], '$'); j > 0 {
				emit(SpanMath, s[i+1:i+1+j])
				i += j + 2
				continue
			}
		case strings.HasPrefix(s[i:], "**"):
			if j := strings.Index(s[i+2:], "**"); j > 0 {
				emit(SpanStrong, s[i+2:i+2+j])
				i += j + 4
				continue
			}
		case s[i] == '`':
			if j := strings.IndexByte(s[i+1:], '`'); j > 0 {
				emit(SpanCode, s[i+1:i+1+j])
				i += j + 2
				continue
			}
		case s[i] == '_' && (i == 0 || !isWordByte(s[i-1])):
			if k := closingUnderscore(s, i); k > 0 {
				emit(SpanEm, s[i+1:k])
				i = k + 1
				continue
			}
		}
		buf.WriteByte(s[i])
		i++
	}
	if buf.Len() > 0 {
		spans = append(spans, Span{Kind: SpanText, Text: buf.String()})
	}
	return spans
}

// closingUnderscore finds the first '_' after open that is not followed by a
// word character, so snake_case inside emphasis does not close it early.
func closingUnderscore(s string, open int) int {
	for k := open + 2; k < len(s); k++ {
		if s[k] != '_' {
			continue
		}
		if k+1 == len(s) || !isWordByte(s[k+1]) {
			return k
		}
	}
	return -1
}

func isWordByte(c byte) bool {
	return c == '_' || c >= 0x80 ||
		(c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// PlainText flattens spans, keeping math delimiters.
func PlainText(spans []Span) string {
	var b strings.Builder
	for _, sp := range spans {
		if sp.Kind == SpanMath {
			b.WriteString("$" + sp.Text + "$")
			continue
		}
		b.WriteString(sp.Text)
	}
	return b.String()
}
