package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thywilljoshua/study-buddy/internal/ai"
)

func TestExportTextResultWritesDeck(t *testing.T) {
	m := newManager(&fakeGen{text: "## Light\nTravels fast.\n## Lenses\nBend light."})
	v := m.Create(ModeSearch)
	_, err := m.SetSource(v.ID, topic(t, "Optics"))
	require.NoError(t, err)

	dir := t.TempDir()
	_, err = m.Export(v.ID, dir)
	assert.ErrorIs(t, err, ErrNoResult)

	_, err = m.SelectAction(context.Background(), v.ID, ActionSummary)
	require.NoError(t, err)

	files, err := m.Export(v.ID, dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "01-light.md"),
		filepath.Join(dir, "02-lenses.md"),
		filepath.Join(dir, "index.md"),
		filepath.Join(dir, "deck.json"),
	}, files)
	for _, f := range files {
		assert.FileExists(t, f)
	}
}

func TestExportQuizAndVideos(t *testing.T) {
	gen := &fakeGen{
		questions: []ai.QuizQuestion{{Question: "2+2?", Options: []string{"3", "4"}, Answer: "4", Reason: "sum"}},
		videos:    []ai.VideoSuggestion{{Topic: "Optics", Title: "Snell's Law"}},
	}
	m := newManager(gen)
	v := m.Create(ModeSearch)
	_, err := m.SetSource(v.ID, topic(t, "Optics"))
	require.NoError(t, err)

	_, err = m.SelectAction(context.Background(), v.ID, ActionExam)
	require.NoError(t, err)
	dir := t.TempDir()
	files, err := m.Export(v.ID, dir)
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, "quiz.md")}, files)
	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "**Answer:** 4")

	_, err = m.SelectAction(context.Background(), v.ID, ActionVideos)
	require.NoError(t, err)
	_, err = m.Export(v.ID, dir)
	assert.ErrorIs(t, err, ErrNoResult)

	_, err = m.FindVideos(context.Background(), v.ID, ai.VideoPrefs{})
	require.NoError(t, err)
	files, err = m.Export(v.ID, dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "videos.md")}, files)
}
