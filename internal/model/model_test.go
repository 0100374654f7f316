package model

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseLabel(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Label
		wantErr bool
	}{
		{name: "exact", input: "Ideation", want: LabelIdeation},
		{name: "lowercase", input: "attempt", want: LabelAttempt},
		{name: "padded", input: "  Supportive\n", want: LabelSupportive},
		{name: "unknown", input: "Happy", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLabel(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseLabel(%q) error = nil, want error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLabel(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseLabel(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestLabel_Severity(t *testing.T) {
	want := map[Label]Severity{
		LabelSupportive: SeverityInfo,
		LabelIndicator:  SeverityWarning,
		LabelIdeation:   SeverityWarning,
		LabelBehavior:   SeverityCritical,
		LabelAttempt:    SeverityCritical,
	}
	for l, sev := range want {
		if got := l.Severity(); got != sev {
			t.Errorf("%s.Severity() = %q, want %q", l, got, sev)
		}
	}
}

func TestLabel_Advice(t *testing.T) {
	for _, l := range Labels {
		if !l.Valid() {
			t.Errorf("%s.Valid() = false", l)
		}
		if l.Advice() == "No specific advice available." {
			t.Errorf("%s has no advice", l)
		}
	}
	if Label("Other").Valid() {
		t.Error("unknown label reported valid")
	}
	if Label("Other").Advice() != "No specific advice available." {
		t.Error("unknown label should fall back to generic advice")
	}
}

func TestRecord_JSON(t *testing.T) {
	var records []Record
	data := `[{"content":"I feel hopeless","label":"ideation"},{"content":"ok","label":"Supportive"}]`
	if err := json.Unmarshal([]byte(data), &records); err != nil {
		t.Fatalf("Unmarshal error = %v", err)
	}

	want := []Record{
		{Content: "I feel hopeless", Label: LabelIdeation},
		{Content: "ok", Label: LabelSupportive},
	}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestRecord_JSONRejectsUnknownLabel(t *testing.T) {
	var records []Record
	data := `[{"content":"x","label":"Bogus"}]`
	if err := json.Unmarshal([]byte(data), &records); err == nil {
		t.Fatal("Unmarshal error = nil, want unknown label error")
	}
}

func TestSnapshotAndMatches(t *testing.T) {
	r := Record{Content: "I feel hopeless", Label: LabelIdeation}
	a := r.Snapshot()

	if !a.Matches(r) {
		t.Error("snapshot should match its source record")
	}
	if a.Matches(Record{Content: "I feel hopeless", Label: LabelAttempt}) {
		t.Error("snapshot matched a record with a different label")
	}
}

func TestTurn_JSON(t *testing.T) {
	var turns []Turn
	data := `[{"role":"user","content":"hi"},{"role":"assistant","content":"hello"}]`
	if err := json.Unmarshal([]byte(data), &turns); err != nil {
		t.Fatalf("Unmarshal error = %v", err)
	}
	want := []Turn{
		{Speaker: SpeakerUser, Content: "hi"},
		{Speaker: SpeakerAssistant, Content: "hello"},
	}
	if diff := cmp.Diff(want, turns); diff != "" {
		t.Errorf("turns mismatch (-want +got):\n%s", diff)
	}

	if err := json.Unmarshal([]byte(`[{"role":"system","content":"x"}]`), &turns); err == nil {
		t.Error("Unmarshal accepted unknown role")
	}
}

func TestEntries(t *testing.T) {
	got := Entries([]Record{
		{Content: "a", Label: LabelSupportive},
		{Content: "b", Label: LabelAttempt},
	})
	want := []Entry{
		{Index: 0, Content: "a", Label: LabelSupportive, Severity: SeverityInfo},
		{Index: 1, Content: "b", Label: LabelAttempt, Severity: SeverityCritical},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Entries mismatch (-want +got):\n%s", diff)
	}

	if empty := Entries(nil); empty == nil {
		t.Error("Entries(nil) = nil, want empty slice")
	}
}

func TestSpeaker_Valid(t *testing.T) {
	for _, s := range []Speaker{SpeakerUser, SpeakerAssistant} {
		if !s.Valid() {
			t.Errorf("%q.Valid() = false, want true", s)
		}
	}
	for _, s := range []Speaker{"", "system", "User"} {
		if s.Valid() {
			t.Errorf("%q.Valid() = true, want false", s)
		}
	}
}
