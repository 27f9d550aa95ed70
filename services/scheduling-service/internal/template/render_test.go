package template

import "testing"

func TestRender_Basic(t *testing.T) {
	got := Render("Hi {name}, see you {date}", map[string]any{"name": "Jan", "date": "2025-01-25"})
	if got != "Hi Jan, see you 2025-01-25" {
		t.Fatalf("unexpected render: %q", got)
	}
}

func TestRender_UnknownPlaceholderStaysLiteral(t *testing.T) {
	got := Render("Hi {name}, see you {date}", map[string]any{"name": "Jan"})
	if got != "Hi Jan, see you {date}" {
		t.Fatalf("unexpected render: %q", got)
	}
}

func TestRender_NumbersAndRepeats(t *testing.T) {
	got := Render("{h}h before: {h} hours, {who}", map[string]any{"h": 24, "who": "Anna"})
	if got != "24h before: 24 hours, Anna" {
		t.Fatalf("unexpected render: %q", got)
	}
}

func TestRender_FixedPoint(t *testing.T) {
	data := map[string]any{"name": "Jan", "date": "jutro"}
	once := Render("Hi {name}, see you {date}", data)
	twice := Render(once, map[string]any{})
	if once != twice {
		t.Fatalf("render is not a fixed point: %q vs %q", once, twice)
	}
}

func TestRender_EmptyData(t *testing.T) {
	tpl := "Nothing {here} changes"
	if got := Render(tpl, nil); got != tpl {
		t.Fatalf("unexpected render: %q", got)
	}
}
