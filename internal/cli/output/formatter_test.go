package output

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

type sample struct {
	ID        string         `json:"id"`
	Owner     string         `json:"owner,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	State     map[string]any `json:"state,omitempty"`
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatTable, false},
		{"table", FormatTable, false},
		{"JSON", FormatJSON, false},
		{" yaml ", FormatYAML, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewFormatter(t *testing.T) {
	if _, ok := NewFormatter(FormatJSON).(*JSONFormatter); !ok {
		t.Error("expected JSONFormatter")
	}
	if _, ok := NewFormatter(FormatYAML).(*YAMLFormatter); !ok {
		t.Error("expected YAMLFormatter")
	}
	if _, ok := NewFormatter("unknown").(*TableFormatter); !ok {
		t.Error("unknown formats should fall back to table")
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONFormatter{}).Format(&buf, sample{ID: "ohob-1"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "\n  \"id\": \"ohob-1\"") {
		t.Errorf("output not indented JSON: %s", buf.String())
	}
}

func TestJSONFormatter_NoHTMLEscape(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONFormatter{}).Format(&buf, sample{ID: "ohob-1", Owner: "a<b>&c"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"owner": "a<b>&c"`) {
		t.Errorf("owner escaped: %s", buf.String())
	}
}

func TestJSONFormatter_NilSlice(t *testing.T) {
	var buf bytes.Buffer
	var objects []sample
	if err := (&JSONFormatter{}).Format(&buf, objects); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(buf.String()); got != "[]" {
		t.Errorf("nil slice = %q, want []", got)
	}
}

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	data := sample{
		ID:        "ohob-1",
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		State:     map[string]any{"keys": 2},
	}
	if err := (&YAMLFormatter{}).Format(&buf, data); err != nil {
		t.Fatal(err)
	}

	got := buf.String()
	for _, want := range []string{"id: ohob-1\n", "created_at: ", "2026-01-02T03:04:05Z", "state:\n  keys: 2\n"} {
		if !strings.Contains(got, want) {
			t.Errorf("YAML output missing %q:\n%s", want, got)
		}
	}
	if strings.ContainsAny(got, "{}") {
		t.Errorf("YAML output should use block style:\n%s", got)
	}
	if strings.Index(got, "id:") > strings.Index(got, "state:") {
		t.Error("field order should follow the JSON encoding")
	}
	if strings.Contains(got, "owner") {
		t.Error("omitempty fields should be omitted")
	}
}
