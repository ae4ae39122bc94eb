package lyrics

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"blank line dropped", "line1\n\nline2\nline3", []string{"line1", "line2", "line3"}},
		{"whitespace only dropped", "a\n   \n\t\nb", []string{"a", "b"}},
		{"crlf", "a\r\nb\r\n", []string{"a", "b"}},
		{"empty", "", nil},
		{"keeps indentation", "  verse one\nverse two", []string{"  verse one", "verse two"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitLines(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitLines(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNewDocument(t *testing.T) {
	doc := NewDocument("line1\n\nline2\nline3")
	if doc.ID == "" {
		t.Error("expected document id")
	}
	if doc.Len() != 3 {
		t.Fatalf("expected 3 lines, got %d", doc.Len())
	}
	if doc.Line(1) != "line2" {
		t.Errorf("unexpected line 1: %q", doc.Line(1))
	}
	if doc.Line(3) != "" || doc.Line(-1) != "" {
		t.Error("out of range lines should be empty")
	}
	var nilDoc *Document
	if nilDoc.Len() != 0 {
		t.Error("nil document should have no lines")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		wantErr bool
	}{
		{"valid", Request{Theme: "Ocean Waves", Mood: "Chill", Length: Medium}, false},
		{"empty theme", Request{Theme: "", Mood: "Chill", Length: Medium}, true},
		{"blank mood", Request{Theme: "City", Mood: "   ", Length: Short}, true},
		{"missing length", Request{Theme: "City", Mood: "Dark"}, true},
		{"unknown length", Request{Theme: "City", Mood: "Dark", Length: "epic"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestProfiles(t *testing.T) {
	tests := []struct {
		length Length
		lines  int
		budget int
	}{
		{Short, 8, 200},
		{Medium, 16, 400},
		{Long, 24, 600},
	}
	for _, tt := range tests {
		p, ok := ProfileOf(tt.length)
		if !ok {
			t.Fatalf("missing profile for %s", tt.length)
		}
		if p.Lines != tt.lines || p.Budget != tt.budget {
			t.Errorf("%s: got %d/%d, want %d/%d", tt.length, p.Lines, p.Budget, tt.lines, tt.budget)
		}
	}
	if _, err := ParseLength(" Long "); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := ParseLength("huge"); !errors.Is(err, ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestLoadPresets(t *testing.T) {
	dir := t.TempDir()
	yml := filepath.Join(dir, "presets.yaml")
	if err := os.WriteFile(yml, []byte("- label: Night Drive\n  theme: Highway\n  mood: Moody\n  length: long\n- theme: Rain\n  mood: Sad\n"), 0644); err != nil {
		t.Fatal(err)
	}
	presets, err := LoadPresets(yml)
	if err != nil {
		t.Fatal(err)
	}
	if len(presets) != 2 {
		t.Fatalf("expected 2 presets, got %d", len(presets))
	}
	if presets[0].Length != Long {
		t.Errorf("unexpected length %q", presets[0].Length)
	}
	if presets[1].Label != "Rain" || presets[1].Length != Medium {
		t.Errorf("defaults not applied: %+v", presets[1])
	}

	csv := filepath.Join(dir, "presets.csv")
	if err := os.WriteFile(csv, []byte("label,theme,mood,length\nGym,Grind,Hype,short\n"), 0644); err != nil {
		t.Fatal(err)
	}
	presets, err = LoadPresets(csv)
	if err != nil {
		t.Fatal(err)
	}
	if p, ok := FindPreset(presets, "gym"); !ok || p.Length != Short {
		t.Errorf("unexpected csv preset: %+v", presets)
	}

	bad := filepath.Join(dir, "bad.csv")
	if err := os.WriteFile(bad, []byte("label,theme,mood,length\nX,,Hype,short\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadPresets(bad); !errors.Is(err, ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}
