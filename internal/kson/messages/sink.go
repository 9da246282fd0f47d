// Package messages implements the ordered diagnostic collector from §4.7:
// an append-only Sink that every compilation (parse or schema evaluation)
// owns for its own lifetime, plus the two rendering surfaces external
// collaborators read from — a colorized terminal printer and a
// structured JSON dump — mirroring the teacher's dual-format error
// reporting (human-readable alongside machine-readable).
package messages

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/kson-org/kson-sub001/internal/kson/diag"
)

// Sink collects diagnostics in emission order for one compilation. It is
// single-owner per parse/validate call, same as the Builder it usually
// sits alongside (§9 "mutable shared builder").
type Sink struct {
	messages []diag.Message
}

// New creates an empty Sink.
func New() *Sink {
	return &Sink{}
}

// Add appends messages in the order given.
func (s *Sink) Add(msgs ...diag.Message) {
	s.messages = append(s.messages, msgs...)
}

// HasErrors reports whether the sink holds any diagnostic at all; KSON's
// core draws no severity distinction below "diagnostic", so any message
// present counts (§4.7).
func (s *Sink) HasErrors() bool {
	return len(s.messages) > 0
}

// Messages returns the collected diagnostics in emission order. The
// returned slice must not be mutated by the caller.
func (s *Sink) Messages() []diag.Message {
	return s.messages
}

// Fprint renders every message as "Error:L.C – L.C, text" (§4.7), one per
// line. When colorized is true, the location prefix is rendered in bold
// red and the text in bold, matching the teacher's terminal error
// formatter.
func (s *Sink) Fprint(w io.Writer, colorized bool) {
	prefix := fmt.Sprint
	text := fmt.Sprint
	if colorized {
		prefix = color.New(color.FgRed, color.Bold).Sprint
		text = color.New(color.Bold).Sprint
	}
	for _, m := range s.messages {
		fmt.Fprintf(w, "%s %s\n",
			prefix(fmt.Sprintf("Error:%d.%d – %d.%d,", m.Loc.FirstLine+1, m.Loc.FirstColumn+1, m.Loc.LastLine+1, m.Loc.LastColumn+1)),
			text(m.Text),
		)
	}
}

// jsonMessage is the wire shape for MarshalJSON: exported field names,
// one-based display coordinates, independent of diag.Message's internal
// zero-based Location.
type jsonMessage struct {
	Kind  string `json:"kind"`
	Text  string `json:"text"`
	Start struct {
		Line   int `json:"line"`
		Column int `json:"column"`
	} `json:"start"`
	End struct {
		Line   int `json:"line"`
		Column int `json:"column"`
	} `json:"end"`
}

// MarshalJSON renders the sink's messages as a structured array, for
// callers (editors, CI tooling) that want machine-readable diagnostics
// instead of the human-facing Fprint format.
func (s *Sink) MarshalJSON() ([]byte, error) {
	out := make([]jsonMessage, len(s.messages))
	for i, m := range s.messages {
		jm := jsonMessage{Kind: string(m.Kind), Text: m.Text}
		jm.Start.Line, jm.Start.Column = m.Loc.FirstLine+1, m.Loc.FirstColumn+1
		jm.End.Line, jm.End.Column = m.Loc.LastLine+1, m.Loc.LastColumn+1
		out[i] = jm
	}
	return json.Marshal(out)
}
