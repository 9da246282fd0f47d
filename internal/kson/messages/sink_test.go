package messages

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/kson-org/kson-sub001/internal/kson/diag"
	"github.com/kson-org/kson-sub001/internal/kson/loc"
)

func TestSink_HasErrors(t *testing.T) {
	s := New()
	if s.HasErrors() {
		t.Fatal("empty sink must not report errors")
	}
	s.Add(diag.New(diag.IllegalChar, loc.Zero, "bad char"))
	if !s.HasErrors() {
		t.Fatal("sink with a message must report errors")
	}
}

func TestSink_FprintUncolorized(t *testing.T) {
	s := New()
	s.Add(diag.New(diag.ExpectedValue, loc.Location{FirstLine: 1, FirstColumn: 2, LastLine: 1, LastColumn: 3}, "expected a value"))
	var buf bytes.Buffer
	s.Fprint(&buf, false)
	got := buf.String()
	if !strings.Contains(got, "Error:2.3 – 2.4,") || !strings.Contains(got, "expected a value") {
		t.Errorf("unexpected output: %q", got)
	}
}

func TestSink_MarshalJSON(t *testing.T) {
	s := New()
	s.Add(diag.New(diag.TypeMismatch, loc.Location{FirstLine: 0, FirstColumn: 0, LastLine: 0, LastColumn: 1}, "mismatch"))
	raw, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded []map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(decoded) != 1 || decoded[0]["kind"] != string(diag.TypeMismatch) {
		t.Errorf("got %v", decoded)
	}
}
