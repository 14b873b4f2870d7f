// Package grade derives answer keys from structured exams and grades
// student answer sheets against them.
package grade

import (
	"log/slog"

	"github.com/LIANENGUANG/AI-Education/internal/model"
)

// BuildAnswerKey flattens the three question categories into a single
// question-number to correct-letter mapping. Categories are processed in a
// fixed order (grammar, reading, language use) so a duplicate question
// number is resolved deterministically: the later category wins.
func BuildAnswerKey(exam *model.StructuredExam) map[int]string {
	key := make(map[int]string)

	insert := func(q model.ExamQuestion, category string) {
		if prev, ok := key[q.QuestionNumber]; ok && prev != q.CorrectAnswer {
			slog.Debug("duplicate question number in answer key",
				"question", q.QuestionNumber, "category", category,
				"previous", prev, "replacement", q.CorrectAnswer)
		}
		key[q.QuestionNumber] = q.CorrectAnswer
	}

	for _, q := range exam.GrammarQuestions {
		insert(q, "grammar")
	}
	for _, p := range exam.ReadingQuestions {
		for _, q := range p.Questions {
			insert(q, "reading")
		}
	}
	for _, p := range exam.LanguageUseQuestions {
		for _, q := range p.Questions {
			insert(q, "language_use")
		}
	}
	return key
}
