package grade

import (
	"sort"

	"github.com/LIANENGUANG/AI-Education/internal/model"
)

// AggregatePerformance computes per-question statistics across a cohort of
// graded results. Only question numbers that appear in at least one detail
// map are reported. Output is sorted ascending by question number; an empty
// cohort yields an empty slice.
func AggregatePerformance(results []model.StudentGradeResult) []model.QuestionPerformance {
	if len(results) == 0 {
		return nil
	}

	byNumber := make(map[int]*model.QuestionPerformance)
	for _, r := range results {
		for num, detail := range r.Details {
			perf, ok := byNumber[num]
			if !ok {
				perf = &model.QuestionPerformance{QuestionNumber: num}
				byNumber[num] = perf
			}
			switch detail.Status {
			case model.StatusCorrect:
				perf.CorrectCount++
			case model.StatusWrong:
				perf.WrongCount++
			case model.StatusMissing:
				perf.MissingCount++
			}
		}
	}

	total := float64(len(results))
	out := make([]model.QuestionPerformance, 0, len(byNumber))
	for _, perf := range byNumber {
		perf.AccuracyRate = round1(float64(perf.CorrectCount) / total * 100)
		out = append(out, *perf)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].QuestionNumber < out[j].QuestionNumber
	})
	return out
}
