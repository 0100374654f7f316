// Package render formats session state for display: assistant replies as
// HTML, and history, transcript, and search results as plain text for the
// interactive shell.
package render

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/T-Lind/health-frontend/internal/model"
)

// md renders CommonMark plus GFM tables, strikethrough, and autolinks.
// Raw HTML in the source is dropped.
var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Markdown converts markdown text to HTML. On a conversion failure it
// returns the escaped source so the text still displays.
func Markdown(src string) string {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "<p>" + html.EscapeString(src) + "</p>\n"
	}
	return buf.String()
}

// HTMLTurn is a transcript turn with display-ready HTML.
type HTMLTurn struct {
	Speaker model.Speaker `json:"role"`
	Content string        `json:"content"`
	HTML    string        `json:"html"`
}

// TurnsHTML renders assistant turns as markdown and escapes user turns,
// which are shown verbatim.
func TurnsHTML(turns []model.Turn) []HTMLTurn {
	out := make([]HTMLTurn, 0, len(turns))
	for _, t := range turns {
		h := HTMLTurn{Speaker: t.Speaker, Content: t.Content}
		if t.Speaker == model.SpeakerAssistant {
			h.HTML = Markdown(t.Content)
		} else {
			h.HTML = "<p>" + html.EscapeString(t.Content) + "</p>\n"
		}
		out = append(out, h)
	}
	return out
}

// Records writes the classification history, one numbered line per record.
func Records(w io.Writer, records []model.Record) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "(no classifications)")
		return err
	}
	for i, r := range records {
		if _, err := fmt.Fprintf(w, "[%d] %-10s %-8s %s\n", i, r.Label, r.Label.Severity(), oneLine(r.Content)); err != nil {
			return err
		}
	}
	return nil
}

// Classification writes a freshly classified record with its advice.
func Classification(w io.Writer, index int, r model.Record) error {
	_, err := fmt.Fprintf(w, "[%d] %s (%s)\n    %s\n", index, r.Label, r.Label.Severity(), r.Label.Advice())
	return err
}

// Transcript writes the chat, one block per turn.
func Transcript(w io.Writer, turns []model.Turn) error {
	if len(turns) == 0 {
		_, err := fmt.Fprintln(w, "(no messages)")
		return err
	}
	for _, t := range turns {
		if _, err := fmt.Fprintf(w, "%s: %s\n", speakerName(t.Speaker), t.Content); err != nil {
			return err
		}
	}
	return nil
}

// Hits writes search results in the order given.
func Hits(w io.Writer, hits []model.Hit) error {
	if len(hits) == 0 {
		_, err := fmt.Fprintln(w, "(no matching interactions)")
		return err
	}
	for i, h := range hits {
		if _, err := fmt.Fprintf(w, "%d. (%.3f) %s\n", i+1, h.Similarity, oneLine(h.Content)); err != nil {
			return err
		}
		if h.Context != "" {
			if _, err := fmt.Fprintf(w, "   %s\n", oneLine(h.Context)); err != nil {
				return err
			}
		}
	}
	return nil
}

// Pending describes the attachment the next message will carry.
func Pending(a model.Attachment, ok bool) string {
	if !ok {
		return "no attachment"
	}
	return fmt.Sprintf("attached: %s %q", a.Label, truncate(oneLine(a.Content), 60))
}

func speakerName(s model.Speaker) string {
	if s == model.SpeakerUser {
		return "you"
	}
	return string(s)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
