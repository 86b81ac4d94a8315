package diff

import "testing"

func strPtr(s string) *string { return &s }

func TestContent(t *testing.T) {
	got := Content("f.txt", "a\nb\nc", "a\nx\nc")
	want := "--- from/f.txt\n+++ to/f.txt\n  a\n- b\n+ x\n  c"
	if got != want {
		t.Errorf("Content() = %q, want %q", got, want)
	}
}

func TestContentAllContext(t *testing.T) {
	got := Content("f.txt", "a\nb", "a\nb")
	want := "--- from/f.txt\n+++ to/f.txt\n  a\n  b"
	if got != want {
		t.Errorf("Content() = %q, want %q", got, want)
	}
}

func TestBuildFileDiff(t *testing.T) {
	tests := []struct {
		name     string
		from, to *string
		want     FileDiff
	}{
		{
			name: "absent on both sides",
			want: FileDiff{Data: "File not present in either version.", IsDiff: false},
		},
		{
			name: "added only",
			to:   strPtr("line1\nline2"),
			want: FileDiff{Data: "--- /dev/null\n+++ to/f.txt\n+ line1\n+ line2", IsDiff: true},
		},
		{
			name: "removed only",
			from: strPtr("line1"),
			want: FileDiff{Data: "--- from/f.txt\n+++ /dev/null\n- line1", IsDiff: true},
		},
		{
			name: "unchanged returns raw content",
			from: strPtr("same\n"),
			to:   strPtr("same\n"),
			want: FileDiff{Data: "same\n", IsDiff: false},
		},
		{
			name: "modified returns diff",
			from: strPtr("a\nb"),
			to:   strPtr("a\nc"),
			want: FileDiff{Data: "--- from/f.txt\n+++ to/f.txt\n  a\n- b\n+ c", IsDiff: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildFileDiff("f.txt", tt.from, tt.to)
			if got != tt.want {
				t.Errorf("BuildFileDiff() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCountLines(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"a", 1},
		{"a\n", 1},
		{"a\nb", 2},
		{"a\nb\n", 2},
	}

	for _, tt := range tests {
		if got := countLines(tt.in); got != tt.want {
			t.Errorf("countLines(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
