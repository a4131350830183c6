package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVideoLength(t *testing.T) {
	for in, want := range map[string]VideoLength{
		"":        LengthAny,
		"any":     LengthAny,
		" Short ": LengthShort,
		"medium":  LengthMedium,
		"LONG":    LengthLong,
	} {
		got, err := ParseVideoLength(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseVideoLength("epic")
	assert.Error(t, err)
}

func TestVideosPromptPreferences(t *testing.T) {
	p := videosPrompt("content", VideoPrefs{Channels: "  ", Length: LengthAny})
	assert.NotContains(t, p, "prioritize content")
	assert.NotContains(t, p, "give preference")

	p = videosPrompt("content", VideoPrefs{Channels: "3Blue1Brown", Length: LengthLong})
	assert.Contains(t, p, "following YouTube channels if suitable videos exist for the topics: 3Blue1Brown.")
	assert.Contains(t, p, "videos that are over 30 minutes long.")

	p = videosPrompt("content", VideoPrefs{Length: LengthMedium})
	assert.Contains(t, p, "between 10 and 30 minutes")
}

func TestSearchURL(t *testing.T) {
	v := VideoSuggestion{Title: "Fourier Series & Transforms"}
	assert.Equal(t, "https://www.youtube.com/results?search_query=Fourier+Series+%26+Transforms", v.SearchURL())
}

func TestValidateQuiz(t *testing.T) {
	ok := QuizQuestion{Question: "q", Options: []string{"a", "b"}, Answer: "a"}
	assert.NoError(t, validateQuiz([]QuizQuestion{ok}))

	tests := map[string][]QuizQuestion{
		"no questions":     nil,
		"blank question":   {{Question: " ", Options: ok.Options, Answer: "a"}},
		"one option":       {{Question: "q", Options: []string{"a"}, Answer: "a"}},
		"answer not found": {{Question: "q", Options: ok.Options, Answer: "c"}},
		"blank option":     {{Question: "q", Options: []string{"", "B"}, Answer: "B"}},
		"spaces option":    {{Question: "q", Options: []string{"A", "  "}, Answer: "A"}},
		"duplicate option": {{Question: "q", Options: []string{"A", "A"}, Answer: "A"}},
		"second bad":       {ok, {Question: "q2", Options: []string{"x", "x", "y"}, Answer: "y"}},
	}
	for name, qs := range tests {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, validateQuiz(qs), ErrMalformedResponse)
		})
	}
}
