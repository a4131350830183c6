package render

import (
	"fmt"
	"html"
	"strings"
)

// HTML renders blocks as an HTML fragment. Math is wrapped in \( \) and \[ \]
// delimiters inside marker elements so the page's typesetter can pick it up;
// when no typesetter is loaded the TeX source stays readable.
func HTML(blocks []Block) string {
	var b strings.Builder
	writeBlocks(&b, blocks)
	return b.String()
}

func writeBlocks(b *strings.Builder, blocks []Block) {
	for _, blk := range blocks {
		switch blk.Kind {
		case KindHeading:
			fmt.Fprintf(b, "<h%d>", blk.Level)
			writeSpans(b, blk.Inline)
			fmt.Fprintf(b, "</h%d>\n", blk.Level)
		case KindParagraph:
			b.WriteString("<p>")
			writeSpans(b, blk.Inline)
			b.WriteString("</p>\n")
		case KindList:
			if blk.Ordered {
				if blk.Start > 1 {
					fmt.Fprintf(b, "<ol start=\"%d\">\n", blk.Start)
				} else {
					b.WriteString("<ol>\n")
				}
			} else {
				b.WriteString("<ul>\n")
			}
			for _, item := range blk.Items {
				b.WriteString("<li>")
				writeSpans(b, item)
				b.WriteString("</li>\n")
			}
			if blk.Ordered {
				b.WriteString("</ol>\n")
			} else {
				b.WriteString("</ul>\n")
			}
		case KindMath:
			writeDisplayMath(b, blk.TeX)
		case KindFormula:
			fmt.Fprintf(b, "<div class=\"formula-explainer\" data-formula=\"%s\">\n", html.EscapeString(blk.TeX))
			writeDisplayMath(b, blk.TeX)
			writeBlocks(b, blk.Explanation)
			b.WriteString("</div>\n")
		case KindRule:
			b.WriteString("<hr>\n")
		}
	}
}

func writeDisplayMath(b *strings.Builder, tex string) {
	b.WriteString("<div class=\"math-display\">\\[")
	b.WriteString(html.EscapeString(tex))
	b.WriteString("\\]</div>\n")
}

func writeSpans(b *strings.Builder, spans []Span) {
	for _, sp := range spans {
		text := html.EscapeString(sp.Text)
		switch sp.Kind {
		case SpanStrong:
			b.WriteString("<strong>" + text + "</strong>")
		case SpanEm:
			b.WriteString("<em>" + text + "</em>")
		case SpanCode:
			b.WriteString("<code>" + text + "</code>")
		case SpanMath:
			b.WriteString("<span class=\"math-inline\">\\(" + text + "\\)</span>")
		default:
			b.WriteString(text)
		}
	}
}
