package session

import (
	"path/filepath"

	"go.uber.org/zap"

	"github.com/thywilljoshua/study-buddy/internal/export"
)

// Export writes the finished result of session id under dir and returns the
// files written. Text results become a slide deck, quizzes a study sheet and
// videos a link list.
func (m *Manager) Export(id, dir string) ([]string, error) {
	s, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Status != StatusDone {
		return nil, ErrNoResult
	}
	meta := export.Meta{Action: string(s.Action), Now: m.now()}
	if s.Source != nil {
		meta.Source = s.Source.Title
	}

	var files []string
	switch {
	case s.Quiz != nil:
		path, err := export.WriteQuiz(dir, s.Quiz.Questions(), meta)
		if err != nil {
			return nil, err
		}
		files = append(files, path)
	case s.Action == ActionVideos:
		path, err := export.WriteVideos(dir, s.Videos, meta)
		if err != nil {
			return nil, err
		}
		files = append(files, path)
	case s.Deck != nil:
		man, err := export.WriteDeck(dir, s.Deck, meta)
		if err != nil {
			return nil, err
		}
		for _, p := range man.Pages {
			files = append(files, filepath.Join(dir, p.File))
		}
		files = append(files, filepath.Join(dir, "index.md"), filepath.Join(dir, "deck.json"))
	default:
		return nil, ErrNoResult
	}
	m.log.Info("result exported",
		zap.String("session", id),
		zap.String("dir", dir),
		zap.Int("files", len(files)))
	return files, nil
}
