package theme

import (
	"strings"
	"testing"
)

func TestLookupFallsBackToDefault(t *testing.T) {
	got := Lookup("no-such-theme")
	if got.Name != DefaultName {
		t.Fatalf("expected %q, got %q", DefaultName, got.Name)
	}
}

func TestNamesIncludesEveryTemplate(t *testing.T) {
	want := []string{"academic", "coral", "dark", "default", "focus", "geometric", "luxe", "minimal", "paperback", "slate", "streamline", "swiss"}
	got := Names()
	if len(got) != len(want) {
		t.Fatalf("expected %d templates, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("expected %q at %d, got %q", want[i], i, got[i])
		}
	}
}

func TestMetricsDerivedFromDocxSizes(t *testing.T) {
	d := Lookup("default")
	// 22 half-points = 11pt = 14.67px
	if d.BodySize < 14.6 || d.BodySize > 14.7 {
		t.Errorf("expected body size near 14.67, got %f", d.BodySize)
	}
	if d.HeadingSize(1) != 32 {
		t.Errorf("expected h1 32px, got %f", d.HeadingSize(1))
	}
	if d.HeadingSize(9) != d.HeadingSize(6) {
		t.Errorf("expected out-of-range level to clamp to h6")
	}
	if Lookup("academic").BodySize <= d.BodySize {
		t.Errorf("expected academic body larger than default")
	}
}

func TestDocxHeadingClamps(t *testing.T) {
	d := Lookup("luxe").Docx
	if d.Heading(1).Size != 64 || !d.Heading(1).Center {
		t.Errorf("expected luxe h1 64 centred, got %+v", d.Heading(1))
	}
	if d.Heading(6) != d.Heading(4) {
		t.Errorf("expected h6 to reuse h4 style")
	}
}

func TestCSSScopedToClass(t *testing.T) {
	css := Lookup("swiss").CSS()
	if !strings.HasPrefix(css, ".theme-swiss{") {
		t.Fatalf("expected css to start with class selector, got %q", css[:40])
	}
	if !strings.Contains(css, "#DC2626") {
		t.Errorf("expected swiss heading colour in css")
	}
	if !strings.Contains(css, ".theme-swiss pre{") {
		t.Errorf("expected pre rule")
	}
}
