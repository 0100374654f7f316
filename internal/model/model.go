// Package model holds the value types shared by the session core, the
// remote gateway, and the CLI/MCP surfaces.
package model

import (
	"encoding/json"
	"fmt"
)

// Record is a classified patient message. Records are immutable and are
// identified by their position in the classification history.
type Record struct {
	Content string `json:"content"`
	Label   Label  `json:"label"`
}

// Attachment is a snapshot of a Record taken at attach time. It is a copy,
// so later changes to the history never alter what gets sent.
type Attachment struct {
	Content string `json:"content"`
	Label   Label  `json:"label"`
}

// Snapshot copies r into an Attachment.
func (r Record) Snapshot() Attachment {
	return Attachment{Content: r.Content, Label: r.Label}
}

// Matches reports whether a was taken from a record equal to r.
func (a Attachment) Matches(r Record) bool {
	return a.Content == r.Content && a.Label == r.Label
}

// Speaker identifies who produced a chat turn.
type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

// Valid reports whether s is one of the known speakers.
func (s Speaker) Valid() bool {
	return s == SpeakerUser || s == SpeakerAssistant
}

// UnmarshalJSON accepts only "user" and "assistant".
func (s *Speaker) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch Speaker(raw) {
	case SpeakerUser, SpeakerAssistant:
		*s = Speaker(raw)
		return nil
	}
	return fmt.Errorf("unknown speaker %q", raw)
}

// Turn is one entry in the chat transcript. The remote API calls the
// speaker field "role".
type Turn struct {
	Speaker Speaker `json:"role"`
	Content string  `json:"content"`
}

// Hit is one past interaction returned by search, most similar first.
type Hit struct {
	Content    string  `json:"content"`
	Context    string  `json:"context"`
	Similarity float64 `json:"similarity"`
}

// Entry is a Record with its position and severity, as listed to callers.
type Entry struct {
	Index    int      `json:"index"`
	Content  string   `json:"content"`
	Label    Label    `json:"label"`
	Severity Severity `json:"severity"`
}

// Entries numbers records in order. It never returns nil.
func Entries(records []Record) []Entry {
	out := make([]Entry, len(records))
	for i, r := range records {
		out[i] = Entry{Index: i, Content: r.Content, Label: r.Label, Severity: r.Label.Severity()}
	}
	return out
}
