// Package slides cuts Markdown into slides at level-2 headings and keeps the
// position of a slideshow.
package slides

import (
	"fmt"
	"regexp"
	"strings"
)

type Slide struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

var slideHeadingRe = regexp.MustCompile(`(?m)^##\s`)

// Split starts a new slide at every line beginning with "##" and whitespace.
// The first line of each section is its title and the rest is its body, so
// text before the first heading is titled by its own first line. Content
// that is blank becomes one empty slide titled fallbackTitle.
func Split(content, fallbackTitle string) []Slide {
	var out []Slide
	for _, section := range sections(content) {
		title, body, _ := strings.Cut(strings.TrimSpace(section), "\n")
		title = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(title), "##"))
		if title == "" {
			title = fallbackTitle
		}
		out = append(out, Slide{Title: title, Content: strings.TrimSpace(body)})
	}
	if len(out) == 0 {
		return []Slide{{Title: fallbackTitle, Content: strings.TrimSpace(content)}}
	}
	return out
}

// sections cuts content before every slide heading and drops blank pieces.
func sections(content string) []string {
	var out []string
	prev := 0
	for _, loc := range slideHeadingRe.FindAllStringIndex(content, -1) {
		out = append(out, content[prev:loc[0]])
		prev = loc[0]
	}
	out = append(out, content[prev:])

	kept := out[:0]
	for _, s := range out {
		if strings.TrimSpace(s) != "" {
			kept = append(kept, s)
		}
	}
	return kept
}

// Deck is a slideshow cursor. The zero Deck has no slides.
type Deck struct {
	Title  string  `json:"title"`
	Slides []Slide `json:"slides"`
	index  int
}

func NewDeck(title, content string) *Deck {
	return &Deck{Title: title, Slides: Split(content, title)}
}

// Presentation builds the full-screen deck titled "<source> - <action>".
func Presentation(sourceTitle, action, content string) *Deck {
	return NewDeck(sourceTitle+" - "+action, content)
}

func (d *Deck) Len() int   { return len(d.Slides) }
func (d *Deck) Index() int { return d.index }

func (d *Deck) Current() (Slide, bool) {
	if len(d.Slides) == 0 {
		return Slide{}, false
	}
	return d.Slides[d.index], true
}

// Next moves forward and reports whether the position changed.
func (d *Deck) Next() bool {
	if d.index >= len(d.Slides)-1 {
		return false
	}
	d.index++
	return true
}

// Prev moves back and reports whether the position changed.
func (d *Deck) Prev() bool {
	if d.index == 0 {
		return false
	}
	d.index--
	return true
}

func (d *Deck) GoTo(i int) error {
	if i < 0 || i >= len(d.Slides) {
		return fmt.Errorf("slide %d out of range [0,%d)", i, len(d.Slides))
	}
	d.index = i
	return nil
}

func (d *Deck) AtStart() bool { return d.index == 0 }
func (d *Deck) AtEnd() bool   { return len(d.Slides) == 0 || d.index == len(d.Slides)-1 }

// Position is the human counter, e.g. "2 of 5".
func (d *Deck) Position() string {
	if len(d.Slides) == 0 {
		return "0 of 0"
	}
	return fmt.Sprintf("%d of %d", d.index+1, len(d.Slides))
}

// View is a serialisable snapshot of the deck at its current position.
type View struct {
	Title    string `json:"title"`
	Index    int    `json:"index"`
	Total    int    `json:"total"`
	Position string `json:"position"`
	Slide    Slide  `json:"slide"`
	HasPrev  bool   `json:"has_prev"`
	HasNext  bool   `json:"has_next"`
}

func (d *Deck) View() View {
	cur, _ := d.Current()
	return View{
		Title:    d.Title,
		Index:    d.index,
		Total:    len(d.Slides),
		Position: d.Position(),
		Slide:    cur,
		HasPrev:  !d.AtStart(),
		HasNext:  !d.AtEnd(),
	}
}
