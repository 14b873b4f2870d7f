package grade

import (
	"testing"

	"github.com/LIANENGUANG/AI-Education/internal/model"
)

func TestGradeStudentsOutcomes(t *testing.T) {
	key := map[int]string{1: "A", 2: "B", 3: "C"}
	students := []model.StudentSheet{
		{Name: "甲", Answers: map[int]string{1: "A", 2: "C"}},
	}

	results, _ := GradeStudents(students, key)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}

	r := results[0]
	if r.CorrectCount != 1 || r.WrongCount != 1 || r.MissingCount != 1 {
		t.Errorf("counts = %d/%d/%d, want 1/1/1", r.CorrectCount, r.WrongCount, r.MissingCount)
	}
	if r.Score != 33.3 {
		t.Errorf("score = %v, want 33.3", r.Score)
	}
	if len(r.Details) != len(key) {
		t.Errorf("details cover %d questions, want %d", len(r.Details), len(key))
	}

	checks := []struct {
		num     int
		status  model.AnswerStatus
		student string
	}{
		{1, model.StatusCorrect, "A"},
		{2, model.StatusWrong, "C"},
		{3, model.StatusMissing, ""},
	}
	for _, c := range checks {
		d, ok := r.Details[c.num]
		if !ok {
			t.Fatalf("question %d missing from details", c.num)
		}
		if d.Status != c.status {
			t.Errorf("question %d status = %q, want %q", c.num, d.Status, c.status)
		}
		if d.StudentAnswer != c.student {
			t.Errorf("question %d student answer = %q, want %q", c.num, d.StudentAnswer, c.student)
		}
		if d.CorrectAnswer != key[c.num] {
			t.Errorf("question %d correct answer = %q, want %q", c.num, d.CorrectAnswer, key[c.num])
		}
	}
}

func TestGradeStudentsCountInvariant(t *testing.T) {
	key := map[int]string{1: "A", 2: "B", 3: "C", 4: "D", 5: "A"}
	students := []model.StudentSheet{
		{Name: "full", Answers: map[int]string{1: "A", 2: "B", 3: "C", 4: "D", 5: "A"}},
		{Name: "none", Answers: map[int]string{}},
		{Name: "partial", Answers: map[int]string{1: "B", 3: "C", 9: "A"}},
	}

	results, _ := GradeStudents(students, key)
	if len(results) != len(students) {
		t.Fatalf("expected %d results, got %d", len(students), len(results))
	}
	for _, r := range results {
		sum := r.CorrectCount + r.WrongCount + r.MissingCount
		if sum != len(key) {
			t.Errorf("%s: correct+wrong+missing = %d, want %d", r.Name, sum, len(key))
		}
		if r.Score < 0 || r.Score > 100 {
			t.Errorf("%s: score %v out of [0,100]", r.Name, r.Score)
		}
		if (r.Score == 0) != (r.CorrectCount == 0) {
			t.Errorf("%s: score = %v with correct = %d", r.Name, r.Score, r.CorrectCount)
		}
	}
}

func TestGradeStudentsEmptyKey(t *testing.T) {
	students := []model.StudentSheet{
		{Name: "a", Answers: map[int]string{1: "A"}},
	}
	results, stats := GradeStudents(students, map[int]string{})
	if results[0].Score != 0 {
		t.Errorf("empty key score = %v, want 0", results[0].Score)
	}
	if stats.TotalStudents != 1 {
		t.Errorf("total students = %d, want 1", stats.TotalStudents)
	}
}

func TestGradeStudentsEmptyCohort(t *testing.T) {
	results, stats := GradeStudents(nil, map[int]string{1: "A"})
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
	if stats.TotalStudents != 0 {
		t.Errorf("total students = %d, want 0", stats.TotalStudents)
	}
	if stats.TotalQuestions != 1 {
		t.Errorf("total questions = %d, want 1", stats.TotalQuestions)
	}
}

func TestScoreBucketBoundaries(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{100, "90-100"},
		{90, "90-100"},
		{89.9, "80-89"},
		{80, "80-89"},
		{70, "70-79"},
		{60.0, "60-69"},
		{59.9, "0-59"},
		{0, "0-59"},
	}
	for _, tt := range tests {
		if got := scoreBucket(tt.score); got != tt.want {
			t.Errorf("scoreBucket(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestStatisticsHistogramPartition(t *testing.T) {
	// One student per bucket plus a boundary case.
	results := []model.StudentGradeResult{
		{Name: "a", Score: 95},
		{Name: "b", Score: 90}, // boundary: belongs to 90-100
		{Name: "c", Score: 85},
		{Name: "d", Score: 72},
		{Name: "e", Score: 60},
		{Name: "f", Score: 12},
	}

	stats := Statistics(results, 43)
	sum := 0
	for _, r := range distributionRanges {
		count, ok := stats.ScoreDistribution[r]
		if !ok {
			t.Errorf("bucket %q missing from distribution", r)
		}
		sum += count
	}
	if sum != len(results) {
		t.Errorf("bucket counts sum to %d, want %d", sum, len(results))
	}
	if stats.ScoreDistribution["90-100"] != 2 {
		t.Errorf("90-100 count = %d, want 2", stats.ScoreDistribution["90-100"])
	}
	if stats.ScoreDistribution["60-69"] != 1 {
		t.Errorf("60-69 count = %d, want 1", stats.ScoreDistribution["60-69"])
	}
}

func TestStatisticsAggregates(t *testing.T) {
	results := []model.StudentGradeResult{
		{Name: "a", Score: 90, CorrectCount: 27},
		{Name: "b", Score: 50, CorrectCount: 15},
		{Name: "c", Score: 70, CorrectCount: 21},
	}

	stats := Statistics(results, 30)
	if stats.AverageScore != 70.0 {
		t.Errorf("average = %v, want 70.0", stats.AverageScore)
	}
	if stats.HighestScore != 90 || stats.LowestScore != 50 {
		t.Errorf("min/max = %v/%v, want 50/90", stats.LowestScore, stats.HighestScore)
	}
	if stats.AverageCorrect != 21.0 {
		t.Errorf("average correct = %v, want 21.0", stats.AverageCorrect)
	}
	// Two of three at or above 60.
	if stats.PassRate != 66.7 {
		t.Errorf("pass rate = %v, want 66.7", stats.PassRate)
	}
}
