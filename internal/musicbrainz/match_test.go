package musicbrainz

import "testing"

func TestFoldLabelName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercases", "Warp Records", "warp records"},
		{"collapses whitespace", "  Warp \t Records ", "warp records"},
		{"folds sharp s", "Straße", "strasse"},
		{"normalizes compatibility forms", "Ｗａｒｐ", "warp"},
		{"empty input", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := FoldLabelName(tt.input); got != tt.want {
				t.Errorf("FoldLabelName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestLabelsMatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		seeded    string
		candidate string
		want      bool
	}{
		{"exact match", "Warp Records", "Warp Records", true},
		{"case difference", "warp records", "Warp Records", true},
		{"accented composed vs decomposed", "Café Del Mar", "Café del mar", true},
		{"different labels", "Warp Records", "Ninja Tune", false},
		{"substring is not a match", "Warp", "Warp Records", false},
		{"empty seeded never matches", "", "", false},
		{"whitespace differences", "Ninja  Tune", "Ninja Tune", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := LabelsMatch(tt.seeded, tt.candidate); got != tt.want {
				t.Errorf("LabelsMatch(%q, %q) = %v, want %v", tt.seeded, tt.candidate, got, tt.want)
			}
		})
	}
}
