// Package export writes generated study material to disk as Markdown pages
// with YAML front matter, plus a JSON manifest.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/thywilljoshua/study-buddy/internal/ai"
	"github.com/thywilljoshua/study-buddy/internal/quiz"
	"github.com/thywilljoshua/study-buddy/internal/render"
	"github.com/thywilljoshua/study-buddy/internal/slides"
)

var nonSlug = regexp.MustCompile(`[^a-z0-9\-]+`)

// Slugify lowercases s, strips accents and joins words with dashes.
func Slugify(s string) string {
	var b strings.Builder
	for _, r := range norm.NFKD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	s = strings.ToLower(strings.TrimSpace(b.String()))
	s = strings.NewReplacer(" ", "-", "/", "-", ".", "-").Replace(s)
	s = nonSlug.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	return s
}

// Meta describes where the material came from.
type Meta struct {
	Source string
	Action string
	Now    time.Time
}

type frontMatter struct {
	Title  string `yaml:"title"`
	Source string `yaml:"source,omitempty"`
	Action string `yaml:"action,omitempty"`
	Slide  int    `yaml:"slide,omitempty"`
}

// Manifest is written to deck.json next to the pages.
type Manifest struct {
	Title       string         `json:"title"`
	Source      string         `json:"source,omitempty"`
	Action      string         `json:"action,omitempty"`
	GeneratedAt time.Time      `json:"generated_at"`
	Pages       []ManifestPage `json:"pages"`
}

type ManifestPage struct {
	Title string `json:"title"`
	File  string `json:"file"`
}

func writePage(path string, fm frontMatter, body string) error {
	head, err := yaml.Marshal(fm)
	if err != nil {
		return err
	}
	var b strings.Builder
	b.WriteString("---\n")
	b.Write(head)
	b.WriteString("---\n\n")
	b.WriteString("# ")
	b.WriteString(fm.Title)
	b.WriteString("\n\n")
	if body = strings.TrimSpace(body); body != "" {
		b.WriteString(body)
		b.WriteString("\n")
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// WriteDeck writes one NN-<slug>.md page per slide, an index.md linking them
// and a deck.json manifest. It returns the manifest.
func WriteDeck(dir string, d *slides.Deck, meta Meta) (Manifest, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Manifest{}, err
	}
	if meta.Now.IsZero() {
		meta.Now = time.Now()
	}
	m := Manifest{Title: d.Title, Source: meta.Source, Action: meta.Action, GeneratedAt: meta.Now.UTC()}

	for i, s := range d.Slides {
		title := plainTitle(s.Title)
		slug := Slugify(title)
		if slug == "" {
			slug = "slide"
		}
		name := fmt.Sprintf("%02d-%s.md", i+1, slug)
		fm := frontMatter{Title: title, Source: meta.Source, Action: meta.Action, Slide: i + 1}
		if err := writePage(filepath.Join(dir, name), fm, s.Content); err != nil {
			return Manifest{}, fmt.Errorf("write %s: %w", name, err)
		}
		m.Pages = append(m.Pages, ManifestPage{Title: title, File: name})
	}

	if err := writeIndex(dir, m); err != nil {
		return Manifest{}, err
	}
	if err := writeManifest(dir, m); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

// plainTitle drops inline Markdown markers from a slide title.
func plainTitle(s string) string {
	return render.PlainText(render.ParseInline(s))
}

func writeIndex(dir string, m Manifest) error {
	var b strings.Builder
	b.WriteString("## Slides\n\n")
	for i, p := range m.Pages {
		fmt.Fprintf(&b, "%d. [%s](./%s)\n", i+1, p.Title, p.File)
	}
	return writePage(filepath.Join(dir, "index.md"), frontMatter{Title: m.Title, Source: m.Source, Action: m.Action}, b.String())
}

func writeManifest(dir string, m Manifest) error {
	out, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "deck.json"), out, 0o644)
}

// WriteQuiz writes the questions with their answers to quiz.md as a study sheet.
func WriteQuiz(dir string, questions []quiz.Question, meta Meta) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	var b strings.Builder
	for i, q := range questions {
		fmt.Fprintf(&b, "## %d. %s\n\n", i+1, q.Question)
		for j, o := range q.Options {
			fmt.Fprintf(&b, "- %s. %s\n", quiz.OptionLabel(j), o)
		}
		fmt.Fprintf(&b, "\n**Answer:** %s\n\n", q.Answer)
		if q.Reason != "" {
			fmt.Fprintf(&b, "%s\n\n", q.Reason)
		}
	}
	path := filepath.Join(dir, "quiz.md")
	title := "Exam Mode Quiz"
	if meta.Source != "" {
		title = meta.Source + " - " + title
	}
	return path, writePage(path, frontMatter{Title: title, Source: meta.Source, Action: meta.Action}, b.String())
}

// WriteVideos writes the suggestions with their search links to videos.md.
func WriteVideos(dir string, videos []ai.VideoSuggestion, meta Meta) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	var b strings.Builder
	for _, v := range videos {
		fmt.Fprintf(&b, "## %s\n\n", v.Title)
		if v.Topic != "" {
			fmt.Fprintf(&b, "_%s_\n\n", v.Topic)
		}
		if v.Description != "" {
			fmt.Fprintf(&b, "%s\n\n", v.Description)
		}
		fmt.Fprintf(&b, "[Search on YouTube](%s)\n\n", v.SearchURL())
	}
	path := filepath.Join(dir, "videos.md")
	title := "Videos"
	if meta.Source != "" {
		title = meta.Source + " - " + title
	}
	return path, writePage(path, frontMatter{Title: title, Source: meta.Source, Action: meta.Action}, b.String())
}
