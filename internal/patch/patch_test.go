package patch

import "testing"

func TestComputeRoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		original  string
		formatted string
	}{
		{"identical", "<?php\n$a = 1;\n", "<?php\n$a = 1;\n"},
		{"empty both", "", ""},
		{"empty original", "", "<?php\n"},
		{"empty formatted", "<?php\n", ""},
		{"insert middle", "ab", "aab"},
		{"delete middle", "aab", "ab"},
		{"replace all", "abc", "xyz"},
		{"trailing whitespace", "$a = 1;  \n", "$a = 1;\n"},
		{"line endings", "a\r\nb\r\n", "a\nb\n"},
		{"common prefix and suffix", "<?php\n  $a=1;\n", "<?php\n\n$a = 1;\n"},
		{"shrink repeated", "aa", "a"},
		{"grow repeated", "a", "aa"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			edit, changed := Compute(tt.original, tt.formatted)
			if tt.original == tt.formatted {
				if changed {
					t.Fatalf("Compute(%q, %q) reported a change for equal inputs", tt.original, tt.formatted)
				}
				return
			}
			if !changed {
				t.Fatalf("Compute(%q, %q) reported no change", tt.original, tt.formatted)
			}
			if got := edit.Apply(tt.original); got != tt.formatted {
				t.Errorf("Apply() = %q, want %q (edit %+v)", got, tt.formatted, edit)
			}
			if edit.Start < 0 || edit.End > len(tt.original) || edit.End < edit.Start {
				t.Errorf("edit region [%d,%d) out of bounds for len %d", edit.Start, edit.End, len(tt.original))
			}
		})
	}
}

// TestComputeMinimal verifies no smaller (prefix, suffix) pair also
// reconciles the inputs: the common prefix and suffix the edit leaves
// untouched are maximal.
func TestComputeMinimal(t *testing.T) {
	tests := []struct {
		original  string
		formatted string
		wantStart int
		wantEnd   int
		wantText  string
	}{
		{"<?php\n  $a=1;\n", "<?php\n\n$a = 1;\n", 6, 13, "\n$a = 1"},
		{"ab", "aab", 1, 1, "a"},
		{"abc", "abxc", 2, 2, "x"},
		{"abc", "ac", 1, 2, ""},
	}

	for _, tt := range tests {
		edit, changed := Compute(tt.original, tt.formatted)
		if !changed {
			t.Fatalf("Compute(%q, %q) reported no change", tt.original, tt.formatted)
		}
		if edit.Start != tt.wantStart || edit.End != tt.wantEnd || edit.Text != tt.wantText {
			t.Errorf("Compute(%q, %q) = %+v, want {%d %d %q}",
				tt.original, tt.formatted, edit, tt.wantStart, tt.wantEnd, tt.wantText)
		}
		if edit.SpanLen() > len(tt.original) {
			t.Errorf("span %d exceeds original length %d", edit.SpanLen(), len(tt.original))
		}
	}
}

func TestComputeExcludesCommonPrefix(t *testing.T) {
	original := "<?php\n  $a=1;\n"
	formatted := "<?php\n\n$a = 1;\n"

	edit, changed := Compute(original, formatted)
	if !changed {
		t.Fatal("expected a change")
	}
	if edit.Start < len("<?php\n") {
		t.Errorf("edit starts at %d, inside the untouched %q prefix", edit.Start, "<?php\n")
	}
}

func TestMapCaret(t *testing.T) {
	// "aaaa[bbbb]cccc" -> "aaaa[XX]cccc"
	edit := Edit{Start: 4, End: 8, Text: "XX"}

	tests := []struct {
		name  string
		caret int
		want  int
	}{
		{"before region", 2, 2},
		{"at region start", 4, 4},
		{"inside, within replacement", 5, 5},
		{"inside, past replacement end", 7, 6},
		{"at region end", 8, 6},
		{"after region", 10, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MapCaret(edit, tt.caret); got != tt.want {
				t.Errorf("MapCaret(%+v, %d) = %d, want %d", edit, tt.caret, got, tt.want)
			}
		})
	}
}

func TestMapCaretGraphemeBoundary(t *testing.T) {
	// Replacement is "e" plus a combining acute accent: one cluster, 3 bytes.
	edit := Edit{Start: 0, End: 10, Text: "e\u0301"}

	// A caret landing between the base letter and the combining mark
	// snaps back to the cluster start.
	if got := MapCaret(edit, 2); got != 0 {
		t.Errorf("MapCaret inside combining sequence = %d, want 0", got)
	}
	// After the region: shifted by the length delta (3 - 10 = -7).
	if got := MapCaret(edit, 15); got != 8 {
		t.Errorf("MapCaret after region = %d, want 8", got)
	}
}
