package browser

import (
	"strings"
	"testing"
)

func TestSelectorConstructors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		selector Selector
		wantExpr string
		wantKind string
	}{
		{"css selector", CSS("input#url-input"), "input#url-input", "css"},
		{"css all selector", CSSAll("li.error-tab"), "li.error-tab", "css"},
		{"xpath selector", XPath("//h2"), "//h2", "xpath"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.selector.Expr(); got != tt.wantExpr {
				t.Errorf("Expr() = %q, want %q", got, tt.wantExpr)
			}
			if !strings.HasPrefix(tt.selector.String(), tt.wantKind+" ") {
				t.Errorf("String() = %q, want %q prefix", tt.selector.String(), tt.wantKind)
			}
		})
	}
}

func TestSelectorString(t *testing.T) {
	t.Parallel()

	got := CSS("form#lookup-form").String()
	want := `css "form#lookup-form"`
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestTextSelectors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		selector Selector
		want     string
	}{
		{
			"button by text",
			ButtonByText("submit", "Enter edit"),
			`//button[@type="submit" and normalize-space() = "Enter edit"]`,
		},
		{
			"link by text",
			LinkByText("Edit note"),
			`//a[normalize-space() = "Edit note"]`,
		},
		{
			"link by partial text",
			LinkByPartialText("Open with MagicISRC"),
			`//a[contains(normalize-space(.), "Open with MagicISRC")]`,
		},
		{
			"submit input by value",
			SubmitInputByValue("Import into MusicBrainz"),
			`//input[@type='submit' and @value="Import into MusicBrainz"]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.selector.Expr(); got != tt.want {
				t.Errorf("Expr() = %q, want %q", got, tt.want)
			}
		})
	}
}
