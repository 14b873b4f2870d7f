package extract

import (
	"strings"
	"testing"
)

func TestIsNameFragment(t *testing.T) {
	tests := []struct {
		frag string
		want bool
	}{
		{"张三", true},
		{"欧阳修文", true},
		{"李明华", true},
		{"张", false},       // too short
		{"张三李四王", false},   // too long
		{"Tom", false},     // no Han rune
		{"12", false},      // numeric, no Han
		{"A", false},       // answer letter
		{"", false},        // blank
		{"第1题", true},      // mixed Han and digit still passes
		{"姓名", true},       // header cells are indistinguishable from names
	}
	for _, tt := range tests {
		if got := isNameFragment(tt.frag); got != tt.want {
			t.Errorf("isNameFragment(%q) = %v, want %v", tt.frag, got, tt.want)
		}
	}
}

func TestIsAnswerFragment(t *testing.T) {
	for _, valid := range []string{"A", "B", "C", "D"} {
		if !isAnswerFragment(valid) {
			t.Errorf("isAnswerFragment(%q) = false, want true", valid)
		}
	}
	for _, invalid := range []string{"E", "a", "AB", "", "1"} {
		if isAnswerFragment(invalid) {
			t.Errorf("isAnswerFragment(%q) = true, want false", invalid)
		}
	}
}

func TestReconstructAnswerTable(t *testing.T) {
	fragments := []string{
		"张三", "A", "B", "", "D",
		"李四", "C", "C",
	}
	got := ReconstructAnswerTable(fragments)
	want := "张三: A B _ D\n李四: C C"
	if got != want {
		t.Errorf("ReconstructAnswerTable() = %q, want %q", got, want)
	}
}

func TestReconstructAnswerTableIgnoresLeadingNoise(t *testing.T) {
	// Answer letters and blanks before the first name have no active
	// student and are dropped.
	fragments := []string{"A", "", "B", "王五", "A"}
	got := ReconstructAnswerTable(fragments)
	if got != "王五: A" {
		t.Errorf("ReconstructAnswerTable() = %q, want %q", got, "王五: A")
	}
}

func TestReconstructAnswerTableBlankCap(t *testing.T) {
	fragments := []string{"赵六"}
	for i := 0; i < maxSheetQuestions+10; i++ {
		fragments = append(fragments, "")
	}
	got := ReconstructAnswerTable(fragments)
	placeholders := strings.Count(got, blankAnswer)
	if placeholders != maxSheetQuestions {
		t.Errorf("placeholder count = %d, want %d", placeholders, maxSheetQuestions)
	}
}

func TestReconstructAnswerTableEmpty(t *testing.T) {
	if got := ReconstructAnswerTable(nil); got != "" {
		t.Errorf("ReconstructAnswerTable(nil) = %q, want empty", got)
	}
	// Fragments with no recognizable names produce no rows.
	if got := ReconstructAnswerTable([]string{"Part I", "1", "2", "3"}); got != "" {
		t.Errorf("ReconstructAnswerTable(headers) = %q, want empty", got)
	}
}
