// Package render segments model output (a small Markdown dialect with LaTeX
// math) into blocks that a front end can draw, and renders those blocks to
// HTML with math left for a client-side typesetter.
//
// Recognised syntax:
//
//	$$ ... $$            display math, may span lines
//	$ ... $              inline math within a line
//	**x**, _x_, `x`      strong, emphasis, code
//	- x / * x            bullet list item
//	1. x                 ordered list item
//	# .. ######          headings
//	---                  horizontal rule
//
// A display formula followed by a "### Formula Breakdown" section is grouped
// into a single FormulaExplainer block.
package render

import (
	"regexp"
	"strconv"
	"strings"
)

type BlockKind string

const (
	KindHeading   BlockKind = "heading"
	KindParagraph BlockKind = "paragraph"
	KindList      BlockKind = "list"
	KindMath      BlockKind = "math"
	KindFormula   BlockKind = "formula_explainer"
	KindRule      BlockKind = "rule"
)

type Block struct {
	Kind    BlockKind `json:"kind"`
	Level   int       `json:"level,omitempty"`
	Inline  []Span    `json:"inline,omitempty"`
	Ordered bool      `json:"ordered,omitempty"`
	Start   int       `json:"start,omitempty"`
	Items   [][]Span  `json:"items,omitempty"`
	TeX     string    `json:"tex,omitempty"`
	// Explanation is set on formula explainers; Source keeps its raw text
	// so it can be sent back for simplification.
	Explanation []Block `json:"explanation,omitempty"`
	Source      string  `json:"source,omitempty"`
}

// FormulaBreakdownMarker introduces the explanation that follows a display formula.
const FormulaBreakdownMarker = "### Formula Breakdown"

var (
	displayMathRe = regexp.MustCompile(`(?s)\$\$(.*?)\$\$`)
	bulletRe      = regexp.MustCompile(`^\s*[*-]\s+(.*)$`)
	orderedRe     = regexp.MustCompile(`^\s*(\d+)\.\s+(.*)$`)
	headingRe     = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)
	ruleRe        = regexp.MustCompile(`^\s*(?:-{3,}|\*{3,}|_{3,})\s*$`)
	// An explanation runs until the next level-2 or level-3 heading marker.
	explanationStopRe = regexp.MustCompile(`#{2,3}\s`)
)

// Segment splits content into blocks, grouping formula explainers.
func Segment(content string) []Block {
	if !strings.Contains(content, FormulaBreakdownMarker) {
		return segmentDefault(content)
	}

	var blocks []Block
	last := 0
	for _, loc := range displayMathRe.FindAllStringSubmatchIndex(content, -1) {
		start, end := loc[0], loc[1]
		if start < last {
			continue
		}
		rest := content[end:]
		trimmed := strings.TrimLeft(rest, " \t\r\n")
		if !strings.HasPrefix(trimmed, FormulaBreakdownMarker) {
			continue
		}
		explStart := end + len(rest) - len(trimmed)
		explEnd := len(content)
		searchFrom := explStart + len(FormulaBreakdownMarker)
		if stop := explanationStopRe.FindStringIndex(content[searchFrom:]); stop != nil {
			explEnd = searchFrom + stop[0]
		}

		blocks = append(blocks, segmentDefault(content[last:start])...)
		explanation := strings.TrimSpace(content[explStart:explEnd])
		blocks = append(blocks, Block{
			Kind:        KindFormula,
			TeX:         strings.TrimSpace(content[loc[2]:loc[3]]),
			Explanation: SegmentPlain(explanation),
			Source:      explanation,
		})
		last = explEnd
	}
	return append(blocks, segmentDefault(content[last:])...)
}

// SegmentPlain splits content without grouping formula explainers.
func SegmentPlain(content string) []Block {
	return segmentDefault(content)
}

func segmentDefault(text string) []Block {
	var blocks []Block
	last := 0
	for _, loc := range displayMathRe.FindAllStringSubmatchIndex(text, -1) {
		blocks = append(blocks, segmentLines(text[last:loc[0]])...)
		blocks = append(blocks, Block{Kind: KindMath, TeX: strings.TrimSpace(text[loc[2]:loc[3]])})
		last = loc[1]
	}
	return append(blocks, segmentLines(text[last:])...)
}

func segmentLines(text string) []Block {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	var (
		blocks []Block
		list   *Block
	)
	flush := func() {
		if list != nil {
			blocks = append(blocks, *list)
			list = nil
		}
	}
	addItem := func(ordered bool, start int, item string) {
		if list == nil || list.Ordered != ordered {
			flush()
			list = &Block{Kind: KindList, Ordered: ordered}
			if ordered {
				list.Start = start
			}
		}
		list.Items = append(list.Items, ParseInline(item))
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if ruleRe.MatchString(line) {
			flush()
			blocks = append(blocks, Block{Kind: KindRule})
			continue
		}
		if m := bulletRe.FindStringSubmatch(line); m != nil {
			addItem(false, 0, m[1])
			continue
		}
		if m := orderedRe.FindStringSubmatch(line); m != nil {
			n, _ := strconv.Atoi(m[1])
			addItem(true, n, m[2])
			continue
		}
		flush()
		if m := headingRe.FindStringSubmatch(line); m != nil {
			blocks = append(blocks, Block{Kind: KindHeading, Level: len(m[1]), Inline: ParseInline(strings.TrimSpace(m[2]))})
			continue
		}
		if strings.TrimSpace(line) != "" {
			blocks = append(blocks, Block{Kind: KindParagraph, Inline: ParseInline(strings.TrimSpace(line))})
		}
	}
	flush()
	return blocks
}
