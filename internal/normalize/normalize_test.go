package normalize

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestObjectRecovery(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want map[string]any
	}{
		{
			"bare object",
			`{"students": []}`,
			map[string]any{"students": []any{}},
		},
		{
			"fenced with language tag",
			"```json\n{\"students\": []}\n```",
			map[string]any{"students": []any{}},
		},
		{
			"fenced without language tag",
			"```\n{\"a\": 1}\n```",
			map[string]any{"a": float64(1)},
		},
		{
			"missing closing fence",
			"```json\n{\"a\": 1}",
			map[string]any{"a": float64(1)},
		},
		{
			"commentary around fenced object",
			"Here is the result:\n```json\n{\"students\": []}\n```\nThanks!",
			map[string]any{"students": []any{}},
		},
		{
			"trailing prose after object",
			`{"x": "y"} Note that question 3 was ambiguous.`,
			map[string]any{"x": "y"},
		},
		{
			"braces inside string values",
			`noise {"text": "use {braces} carefully", "n": 2} more noise`,
			map[string]any{"text": "use {braces} carefully", "n": float64(2)},
		},
		{
			"escaped quote inside string",
			`{"text": "he said \"hi\" {"}`,
			map[string]any{"text": `he said "hi" {`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Object(tt.raw)
			if err != nil {
				t.Fatalf("Object() error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Object() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestObjectMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"plain prose", "I could not find any questions in the document."},
		{"truncated object", `{"students": [{"name": "a"`},
		{"unbalanced noise", "{{{"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Object(tt.raw)
			if !errors.Is(err, ErrMalformedResponse) {
				t.Errorf("Object() error = %v, want ErrMalformedResponse", err)
			}
		})
	}
}

func TestObjectIdempotentOnCleanInput(t *testing.T) {
	raw := `{"answers": {"1": "A", "2": "B"}, "name": "甲"}`
	first, err := Object(raw)
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}
	reserialized, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	second, err := Object(string(reserialized))
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("normalize not idempotent: %#v vs %#v", first, second)
	}
}

func TestIntKeyedAnswers(t *testing.T) {
	in := map[string]any{"1": "A", "x": "B", "3": "C", "4": 7}
	got := IntKeyedAnswers(in)
	want := map[int]string{1: "A", 3: "C"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("IntKeyedAnswers() = %v, want %v", got, want)
	}
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no fences", `{"a": 1}`, `{"a": 1}`},
		{"json tag", "```json\n{}\n```", "{}"},
		{"bare fences", "```\n{}\n```", "{}"},
		{"whitespace", "   {}   ", "{}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripFences(tt.in); got != tt.want {
				t.Errorf("StripFences(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDecodeStudentSheets(t *testing.T) {
	raw := "```json\n" + `{"students": [{"name": "张三", "answers": {"1": "A", "2": "B", "note": "guessed"}}]}` + "\n```"
	sheets, err := DecodeStudentSheets(raw)
	if err != nil {
		t.Fatalf("DecodeStudentSheets() error: %v", err)
	}
	if len(sheets) != 1 {
		t.Fatalf("expected 1 sheet, got %d", len(sheets))
	}
	s := sheets[0]
	if s.Name != "张三" {
		t.Errorf("name = %q, want 张三", s.Name)
	}
	want := map[int]string{1: "A", 2: "B"}
	if !reflect.DeepEqual(s.Answers, want) {
		t.Errorf("answers = %v, want %v", s.Answers, want)
	}
	if s.TotalAnswered() != len(s.Answers) {
		t.Errorf("TotalAnswered() = %d, want %d", s.TotalAnswered(), len(s.Answers))
	}
}

func TestDecodeExam(t *testing.T) {
	raw := `The extracted questions:
{"grammar_questions": [{"question_number": 1, "correct_answer": "A"}],
 "reading_questions": [{"passage_title": "A", "questions": [{"question_number": 21, "correct_answer": "C"}]}],
 "language_use_questions": []}`
	exam, err := DecodeExam(raw)
	if err != nil {
		t.Fatalf("DecodeExam() error: %v", err)
	}
	counts := exam.Counts()
	if counts.GrammarCount != 1 || counts.ReadingCount != 1 || counts.LanguageUseCount != 0 {
		t.Errorf("counts = %+v, want 1/1/0", counts)
	}
	if counts.TotalQuestions != 2 {
		t.Errorf("total = %d, want 2", counts.TotalQuestions)
	}
}
