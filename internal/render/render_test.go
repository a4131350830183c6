package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInline(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []Span
	}{
		{"plain", "hello", []Span{{SpanText, "hello"}}},
		{"math", "area is $\\pi r^2$ here", []Span{{SpanText, "area is "}, {SpanMath, "\\pi r^2"}, {SpanText, " here"}}},
		{"strong code em", "**bold** `x := 1` _soft_", []Span{{SpanStrong, "bold"}, {SpanText, " "}, {SpanCode, "x := 1"}, {SpanText, " "}, {SpanEm, "soft"}}},
		{"lone dollar", "costs $5", []Span{{SpanText, "costs $5"}}},
		{"empty math", "$$", []Span{{SpanText, "$$"}}},
		{"snake case", "use max_heap_size here", []Span{{SpanText, "use max_heap_size here"}}},
		{"em with snake case", "_see max_heap_", []Span{{SpanEm, "see max_heap"}}},
		{"unclosed strong", "**open", []Span{{SpanText, "**open"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseInline(tt.in))
		})
	}
}

func TestSegmentLists(t *testing.T) {
	blocks := Segment("Intro line\n- one\n* two\n1. first\n2. second\n\n- again\n### Heading")
	require.Len(t, blocks, 5)

	assert.Equal(t, KindParagraph, blocks[0].Kind)

	assert.Equal(t, KindList, blocks[1].Kind)
	assert.False(t, blocks[1].Ordered)
	assert.Len(t, blocks[1].Items, 2)

	assert.True(t, blocks[2].Ordered)
	assert.Equal(t, 1, blocks[2].Start)
	assert.Len(t, blocks[2].Items, 2)

	// the blank line closed the ordered list; a new bullet list starts
	assert.Equal(t, KindList, blocks[3].Kind)
	assert.False(t, blocks[3].Ordered)
	assert.Len(t, blocks[3].Items, 1)

	assert.Equal(t, KindHeading, blocks[4].Kind)
	assert.Equal(t, 3, blocks[4].Level)
	assert.Equal(t, "Heading", PlainText(blocks[4].Inline))
}

func TestSegmentDisplayMath(t *testing.T) {
	blocks := Segment("Before\n$$\nE = mc^2\n$$\nAfter $x$")
	require.Len(t, blocks, 3)
	assert.Equal(t, KindParagraph, blocks[0].Kind)
	assert.Equal(t, Block{Kind: KindMath, TeX: "E = mc^2"}, blocks[1])
	assert.Equal(t, []Span{{SpanText, "After "}, {SpanMath, "x"}}, blocks[2].Inline)
}

func TestSegmentRule(t *testing.T) {
	blocks := Segment("a\n---\n**b**")
	require.Len(t, blocks, 3)
	assert.Equal(t, KindRule, blocks[1].Kind)
	assert.Equal(t, SpanStrong, blocks[2].Inline[0].Kind)
}

func TestSegmentFormulaExplainer(t *testing.T) {
	content := "## Ohm\nIntro\n$$V = IR$$\n\n### Formula Breakdown\n- $V$ is voltage\n- $I$ is current\n### Next\nMore text"
	blocks := Segment(content)
	require.Len(t, blocks, 5)

	assert.Equal(t, KindHeading, blocks[0].Kind)
	assert.Equal(t, 2, blocks[0].Level)
	assert.Equal(t, KindParagraph, blocks[1].Kind)

	f := blocks[2]
	assert.Equal(t, KindFormula, f.Kind)
	assert.Equal(t, "V = IR", f.TeX)
	assert.Equal(t, "### Formula Breakdown\n- $V$ is voltage\n- $I$ is current", f.Source)
	require.Len(t, f.Explanation, 2)
	assert.Equal(t, KindHeading, f.Explanation[0].Kind)
	assert.Len(t, f.Explanation[1].Items, 2)

	assert.Equal(t, KindHeading, blocks[3].Kind)
	assert.Equal(t, "Next", PlainText(blocks[3].Inline))
	assert.Equal(t, KindParagraph, blocks[4].Kind)
}

func TestSegmentFormulaExplainerRunsToEnd(t *testing.T) {
	content := "$$a^2+b^2=c^2$$ ### Formula Breakdown\nSides of a triangle.\n$$c = \\sqrt{a^2+b^2}$$"
	blocks := Segment(content)
	require.Len(t, blocks, 1)
	f := blocks[0]
	assert.Equal(t, KindFormula, f.Kind)
	// the second formula belongs to the explanation
	require.Len(t, f.Explanation, 3)
	assert.Equal(t, KindMath, f.Explanation[2].Kind)
}

func TestSegmentPlainIgnoresBreakdown(t *testing.T) {
	blocks := SegmentPlain("$$x$$\n### Formula Breakdown\ntext")
	require.Len(t, blocks, 3)
	assert.Equal(t, KindMath, blocks[0].Kind)
	assert.Equal(t, KindHeading, blocks[1].Kind)
}

func TestSegmentEmpty(t *testing.T) {
	assert.Empty(t, Segment(""))
	assert.Empty(t, Segment("\n \n"))
}

func TestHTML(t *testing.T) {
	out := HTML(Segment("### T <1>\n3. c\n4. d\n- **b** $x<y$\n$$a&b$$"))
	assert.Equal(t,
		"<h3>T &lt;1&gt;</h3>\n"+
			"<ol start=\"3\">\n<li>c</li>\n<li>d</li>\n</ol>\n"+
			"<ul>\n<li><strong>b</strong> <span class=\"math-inline\">\\(x&lt;y\\)</span></li>\n</ul>\n"+
			"<div class=\"math-display\">\\[a&amp;b\\]</div>\n",
		out)
}

func TestHTMLFormula(t *testing.T) {
	out := HTML(Segment("$$F=ma$$\n### Formula Breakdown\nforce"))
	assert.Contains(t, out, "<div class=\"formula-explainer\" data-formula=\"F=ma\">")
	assert.Contains(t, out, "<p>force</p>")
}
