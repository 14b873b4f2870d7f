package extract

import (
	"strings"
	"unicode"
)

// maxSheetQuestions caps how many blank placeholders one student's row may
// accumulate; the exams graded here have at most 43 questions.
const maxSheetQuestions = 43

// blankAnswer marks a question the student left empty in the sheet.
const blankAnswer = "_"

// ReconstructAnswerTable rebuilds the row structure of an answer-sheet
// table from a flat sequence of document fragments. The heuristic scans in
// document order: a name fragment starts a new student row, answer-letter
// fragments extend the active row, blank fragments extend it with a
// placeholder. Output is one "<name>: <ans1> <ans2> ..." line per student.
//
// This is a best-effort parse; the downstream LLM normalization step is
// expected to tolerate residual noise.
func ReconstructAnswerTable(fragments []string) string {
	var lines []string
	var name string
	var answers []string

	finalize := func() {
		if name == "" {
			return
		}
		lines = append(lines, name+": "+strings.Join(answers, " "))
		name, answers = "", nil
	}

	for _, frag := range fragments {
		trimmed := strings.TrimSpace(frag)
		switch {
		case isNameFragment(trimmed):
			finalize()
			name = trimmed
		case isAnswerFragment(trimmed) && name != "":
			answers = append(answers, trimmed)
		case isBlankFragment(trimmed) && name != "" && len(answers) < maxSheetQuestions:
			answers = append(answers, blankAnswer)
		}
	}
	finalize()

	return strings.Join(lines, "\n")
}

// isNameFragment reports whether a fragment looks like a student name:
// 2 to 4 runes, at least one Han character, not purely numeric, and not an
// answer letter.
func isNameFragment(s string) bool {
	runes := []rune(s)
	if len(runes) < 2 || len(runes) > 4 {
		return false
	}
	if !containsHan(runes) {
		return false
	}
	if isNumeric(runes) {
		return false
	}
	return !isAnswerFragment(s)
}

// isAnswerFragment reports whether a fragment is exactly one answer letter.
func isAnswerFragment(s string) bool {
	return s == "A" || s == "B" || s == "C" || s == "D"
}

// isBlankFragment reports whether a fragment is empty or whitespace-only.
func isBlankFragment(s string) bool {
	return s == ""
}

func containsHan(runes []rune) bool {
	for _, r := range runes {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

func isNumeric(runes []rune) bool {
	for _, r := range runes {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return len(runes) > 0
}
