package model

import (
	"context"
	"time"
)

// UserRole represents a user's access level.
type UserRole string

const (
	// UserRoleTeacher is a teacher user role.
	UserRoleTeacher UserRole = "teacher"
	// UserRoleAdmin is an admin user role.
	UserRoleAdmin UserRole = "admin"
)

// User represents a system user.
type User struct {
	ID           int64
	Username     string
	DisplayName  string
	PasswordHash string
	Role         UserRole
	Active       bool
	CreatedAt    time.Time
}

// AuthSession represents an authentication session.
type AuthSession struct {
	ID        string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

type userCtxKey struct{}

// ContextWithUser stores a user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}

// Document is an uploaded exam or answer-sheet file. Content caches the
// extracted text; it is written once on first successful extraction and
// reused afterwards.
type Document struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	FilePath  string    `json:"-"`
	Content   string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// HasContent reports whether the extracted-text cache is populated.
func (d *Document) HasContent() bool {
	return d.Content != ""
}

// ExamQuestion is a single multiple-choice question. The correct answer is
// one letter, A through D.
type ExamQuestion struct {
	QuestionNumber int      `json:"question_number"`
	QuestionText   string   `json:"question_text,omitempty"`
	Options        []string `json:"options,omitempty"`
	CorrectAnswer  string   `json:"correct_answer"`
	BlankNumber    int      `json:"blank_number,omitempty"`
}

// ReadingPassage groups reading-comprehension questions under shared text.
type ReadingPassage struct {
	PassageTitle string         `json:"passage_title,omitempty"`
	PassageText  string         `json:"passage_text,omitempty"`
	Questions    []ExamQuestion `json:"questions"`
}

// ClozePassage groups language-use (cloze) blanks under shared text.
type ClozePassage struct {
	PassageText string         `json:"passage_text,omitempty"`
	Questions   []ExamQuestion `json:"questions"`
}

// StructuredExam is the three-category question taxonomy the LLM extracts
// from an exam document.
type StructuredExam struct {
	GrammarQuestions     []ExamQuestion   `json:"grammar_questions"`
	ReadingQuestions     []ReadingPassage `json:"reading_questions"`
	LanguageUseQuestions []ClozePassage   `json:"language_use_questions"`
}

// ExamCounts holds per-category question totals.
type ExamCounts struct {
	GrammarCount     int `json:"grammar_count"`
	ReadingCount     int `json:"reading_count"`
	LanguageUseCount int `json:"language_use_count"`
	TotalQuestions   int `json:"total_questions"`
}

// Counts tallies questions per category.
func (e *StructuredExam) Counts() ExamCounts {
	c := ExamCounts{GrammarCount: len(e.GrammarQuestions)}
	for _, p := range e.ReadingQuestions {
		c.ReadingCount += len(p.Questions)
	}
	for _, p := range e.LanguageUseQuestions {
		c.LanguageUseCount += len(p.Questions)
	}
	c.TotalQuestions = c.GrammarCount + c.ReadingCount + c.LanguageUseCount
	return c
}

// IsEmpty reports whether no questions were extracted in any category.
func (e *StructuredExam) IsEmpty() bool {
	return e.Counts().TotalQuestions == 0
}

// StudentSheet is one student's parsed answer sheet. Answers is sparse:
// only questions the student actually answered are present.
type StudentSheet struct {
	Name    string         `json:"name"`
	Answers map[int]string `json:"answers"`
}

// TotalAnswered returns the number of answered questions.
func (s *StudentSheet) TotalAnswered() int {
	return len(s.Answers)
}

// AnswerStatus classifies one graded answer.
type AnswerStatus string

const (
	StatusCorrect AnswerStatus = "correct"
	StatusWrong   AnswerStatus = "wrong"
	StatusMissing AnswerStatus = "missing"
)

// GradedQuestionDetail is the outcome for one key question. StudentAnswer
// is present only when the student answered.
type GradedQuestionDetail struct {
	Status        AnswerStatus `json:"status"`
	StudentAnswer string       `json:"student_answer,omitempty"`
	CorrectAnswer string       `json:"correct_answer"`
}

// StudentGradeResult is one student's graded sheet. Details covers every
// question in the answer key, including ones the student never attempted.
type StudentGradeResult struct {
	Name         string                       `json:"name"`
	Answers      map[int]string               `json:"answers"`
	CorrectCount int                          `json:"correct_count"`
	WrongCount   int                          `json:"wrong_count"`
	MissingCount int                          `json:"missing_count"`
	Score        float64                      `json:"score"`
	Details      map[int]GradedQuestionDetail `json:"details"`
}

// CohortStatistics aggregates a batch of graded results.
type CohortStatistics struct {
	TotalStudents     int            `json:"total_students"`
	AverageScore      float64        `json:"average_score"`
	HighestScore      float64        `json:"highest_score"`
	LowestScore       float64        `json:"lowest_score"`
	AverageCorrect    float64        `json:"average_correct"`
	PassRate          float64        `json:"pass_rate"`
	ScoreDistribution map[string]int `json:"score_distribution"`
	TotalQuestions    int            `json:"total_questions"`
}

// QuestionPerformance is cohort-wide performance on one question.
type QuestionPerformance struct {
	QuestionNumber int     `json:"question_number"`
	CorrectCount   int     `json:"correct_count"`
	WrongCount     int     `json:"wrong_count"`
	MissingCount   int     `json:"missing_count"`
	AccuracyRate   float64 `json:"accuracy_rate"`
}

// GradeReport is the full grading output for one answer sheet.
type GradeReport struct {
	GradedResults  []StudentGradeResult `json:"graded_results"`
	Statistics     CohortStatistics     `json:"statistics"`
	TotalQuestions int                  `json:"total_questions"`
}

// PerformanceReport is the question-performance output for a cohort.
type PerformanceReport struct {
	Questions     []QuestionPerformance `json:"questions"`
	TotalStudents int                   `json:"total_students"`
}
