package markup

import (
	"errors"
	"testing"
)

func TestSpansCarryNestedTags(t *testing.T) {
	spans, err := Spans("plain [b]bold [color=#ff0000]red[/color][/b] [x!]")
	if err != nil {
		t.Fatalf("spans: %v", err)
	}
	if len(spans) != 4 {
		t.Fatalf("expected 4 spans, got %+v", spans)
	}
	if spans[0].Text != "plain " || len(spans[0].Tags) != 0 {
		t.Fatalf("unexpected first span %+v", spans[0])
	}
	red := spans[2]
	if red.Text != "red" || !red.Has("b") {
		t.Fatalf("unexpected red span %+v", red)
	}
	if c, ok := red.Tag("color"); !ok || c.Value != "#ff0000" {
		t.Fatalf("expected color tag, got %+v", red.Tags)
	}
	if spans[3].Text != " [x!]" {
		t.Fatalf("literal brackets should stay text, got %q", spans[3].Text)
	}
	if _, err := Spans("a[/b]"); !errors.Is(err, ErrUnbalancedMarkup) {
		t.Fatalf("expected ErrUnbalancedMarkup, got %v", err)
	}
}

func TestSplitLines(t *testing.T) {
	spans, err := Spans("[i]one\ntwo[/i]\n\nthree")
	if err != nil {
		t.Fatalf("spans: %v", err)
	}
	lines := SplitLines(spans)
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d: %+v", len(lines), lines)
	}
	if lines[0][0].Text != "one" || !lines[1][0].Has("i") || len(lines[2]) != 0 || lines[3][0].Text != "three" {
		t.Fatalf("unexpected lines %+v", lines)
	}
}
