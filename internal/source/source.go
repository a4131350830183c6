// Package source turns user input (an uploaded PDF or a typed topic) into the
// plain text that is sent to the model.
package source

import (
	"errors"
	"strings"
)

var (
	ErrEmptyTopic    = errors.New("Please enter a topic.")
	ErrNotPDF        = errors.New("Please upload a valid PDF file.")
	ErrUnreadablePDF = errors.New("Failed to process PDF. It may be corrupted or protected.")
)

type Kind string

const (
	KindPDF   Kind = "pdf"
	KindTopic Kind = "topic"
)

type Source struct {
	Kind  Kind   `json:"kind"`
	Title string `json:"title"`
	Text  string `json:"-"`
	Pages int    `json:"pages,omitempty"`
	Chars int    `json:"chars"`
}

// FromTopic uses the topic itself as both title and content.
func FromTopic(topic string) (Source, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return Source{}, ErrEmptyTopic
	}
	return Source{Kind: KindTopic, Title: topic, Text: topic, Chars: len(topic)}, nil
}
