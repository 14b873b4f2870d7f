package grade

import (
	"math"

	"github.com/LIANENGUANG/AI-Education/internal/model"
)

// PassScore is the minimum score counted toward the pass rate.
const PassScore = 60.0

// distributionRanges lists the histogram buckets from highest to lowest.
// Bucket bounds are closed-open except "90-100", which includes 100.
var distributionRanges = []string{"90-100", "80-89", "70-79", "60-69", "0-59"}

// GradeStudents grades every sheet against the answer key and computes
// cohort statistics. Iteration is over the key, not the student's answers,
// so every key question appears in each result's detail map. An empty key
// is a valid degenerate input and yields zero scores.
func GradeStudents(students []model.StudentSheet, key map[int]string) ([]model.StudentGradeResult, model.CohortStatistics) {
	results := make([]model.StudentGradeResult, 0, len(students))
	for _, s := range students {
		results = append(results, gradeOne(s, key))
	}
	return results, Statistics(results, len(key))
}

func gradeOne(s model.StudentSheet, key map[int]string) model.StudentGradeResult {
	r := model.StudentGradeResult{
		Name:    s.Name,
		Answers: s.Answers,
		Details: make(map[int]model.GradedQuestionDetail, len(key)),
	}

	for num, correct := range key {
		detail := model.GradedQuestionDetail{CorrectAnswer: correct}
		answer, answered := s.Answers[num]
		switch {
		case !answered:
			detail.Status = model.StatusMissing
			r.MissingCount++
		case answer == correct:
			detail.Status = model.StatusCorrect
			detail.StudentAnswer = answer
			r.CorrectCount++
		default:
			detail.Status = model.StatusWrong
			detail.StudentAnswer = answer
			r.WrongCount++
		}
		r.Details[num] = detail
	}

	if len(key) > 0 {
		r.Score = round1(float64(r.CorrectCount) * (100.0 / float64(len(key))))
	}
	return r
}

// Statistics computes cohort statistics over graded results. An empty
// cohort yields a zero-value statistics object, not an error.
func Statistics(results []model.StudentGradeResult, totalQuestions int) model.CohortStatistics {
	if len(results) == 0 {
		return model.CohortStatistics{TotalQuestions: totalQuestions}
	}

	stats := model.CohortStatistics{
		TotalStudents:     len(results),
		TotalQuestions:    totalQuestions,
		HighestScore:      results[0].Score,
		LowestScore:       results[0].Score,
		ScoreDistribution: make(map[string]int, len(distributionRanges)),
	}
	for _, r := range distributionRanges {
		stats.ScoreDistribution[r] = 0
	}

	var scoreSum, correctSum float64
	passed := 0
	for _, r := range results {
		scoreSum += r.Score
		correctSum += float64(r.CorrectCount)
		if r.Score > stats.HighestScore {
			stats.HighestScore = r.Score
		}
		if r.Score < stats.LowestScore {
			stats.LowestScore = r.Score
		}
		if r.Score >= PassScore {
			passed++
		}
		stats.ScoreDistribution[scoreBucket(r.Score)]++
	}

	n := float64(len(results))
	stats.AverageScore = round1(scoreSum / n)
	stats.AverageCorrect = round1(correctSum / n)
	stats.PassRate = round1(float64(passed) / n * 100)
	return stats
}

func scoreBucket(score float64) string {
	switch {
	case score >= 90:
		return "90-100"
	case score >= 80:
		return "80-89"
	case score >= 70:
		return "70-79"
	case score >= 60:
		return "60-69"
	default:
		return "0-59"
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
