// Package review orchestrates the grading pipeline: document text
// extraction, LLM structure analysis, response normalization, and grading.
// Gateway and normalizer failures degrade to empty structured results so a
// dead upstream never turns into a fatal request error.
package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/LIANENGUANG/AI-Education/internal/extract"
	"github.com/LIANENGUANG/AI-Education/internal/grade"
	"github.com/LIANENGUANG/AI-Education/internal/llm"
	"github.com/LIANENGUANG/AI-Education/internal/llm/prompts"
	"github.com/LIANENGUANG/AI-Education/internal/model"
	"github.com/LIANENGUANG/AI-Education/internal/normalize"
)

// ErrNoContent is returned when a document yields no extractable text.
var ErrNoContent = errors.New("document has no extractable content")

// Completer is the gateway call the pipeline depends on.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (string, error)
}

// ContentCacher persists a document's extracted text. The implementation
// must keep the first successful write and ignore later ones.
type ContentCacher interface {
	CacheDocumentContent(id int64, content string) error
}

// Analyzer runs the review pipeline.
type Analyzer struct {
	llm   Completer
	cache ContentCacher // nil disables caching (offline CLI)
	trace TraceSink
}

// New creates an Analyzer. cache may be nil; a nil trace falls back to the
// no-op sink.
func New(completer Completer, cache ContentCacher, trace TraceSink) *Analyzer {
	if trace == nil {
		trace = NopSink{}
	}
	return &Analyzer{llm: completer, cache: cache, trace: trace}
}

// AnalysisResult is the outcome of analyzing one exam document.
type AnalysisResult struct {
	DocumentTitle  string                `json:"document_title"`
	StructuredData *model.StructuredExam `json:"structured_data"`
	Statistics     model.ExamCounts      `json:"statistics"`
	Degraded       bool                  `json:"degraded,omitempty"`
	Message        string                `json:"message"`
}

// AnalyzeDocument extracts the exam text and asks the LLM for the
// three-category question structure. The returned error is fatal only for
// input problems (unreadable or empty document); an LLM or parse failure
// yields a degraded empty result instead.
func (a *Analyzer) AnalyzeDocument(ctx context.Context, doc *model.Document) (*AnalysisResult, error) {
	text, err := a.documentText(doc, false)
	if err != nil {
		return nil, err
	}

	result := &AnalysisResult{
		DocumentTitle:  doc.Title,
		StructuredData: &model.StructuredExam{},
	}

	raw, err := a.llm.Complete(ctx, llm.Request{
		System: prompts.AnalyzeExamSystem,
		Prompt: prompts.AnalyzeExam(text),
	})
	if err != nil {
		slog.Warn("exam analysis degraded", "document", doc.Title, "error", err)
		result.Degraded = true
		result.Message = fmt.Sprintf("llm analysis failed: %v", err)
		return result, nil
	}
	a.trace.Record("analyze_exam_response", []byte(raw))

	exam, err := normalize.DecodeExam(raw)
	if err != nil {
		slog.Warn("exam analysis unparseable", "document", doc.Title, "error", err)
		result.Degraded = true
		result.Message = fmt.Sprintf("llm response unparseable: %v", err)
		return result, nil
	}

	result.StructuredData = exam
	result.Statistics = exam.Counts()
	slog.Info("exam analyzed", "document", doc.Title,
		"grammar", result.Statistics.GrammarCount,
		"reading", result.Statistics.ReadingCount,
		"language_use", result.Statistics.LanguageUseCount)
	return result, nil
}

// ParseAnswerSheet extracts the answer-sheet table and asks the LLM to
// turn it into student sheets. degraded is true when the gateway or the
// normalizer failed; err is reserved for input problems.
func (a *Analyzer) ParseAnswerSheet(ctx context.Context, doc *model.Document) (sheets []model.StudentSheet, degraded bool, err error) {
	text, err := a.documentText(doc, true)
	if err != nil {
		return nil, false, err
	}
	a.trace.Record("answer_sheet_table", []byte(text))

	raw, err := a.llm.Complete(ctx, llm.Request{
		System: prompts.ParseSheetSystem,
		Prompt: prompts.ParseAnswerSheet(text),
	})
	if err != nil {
		slog.Warn("answer sheet parsing degraded", "document", doc.Title, "error", err)
		return nil, true, nil
	}
	a.trace.Record("answer_sheet_response", []byte(raw))

	sheets, err = normalize.DecodeStudentSheets(raw)
	if err != nil {
		slog.Warn("answer sheet response unparseable", "document", doc.Title, "error", err)
		return nil, true, nil
	}
	return sheets, false, nil
}

// GradeAnswerSheet parses the sheet document and grades every student
// against the key derived from the structured exam.
func (a *Analyzer) GradeAnswerSheet(ctx context.Context, doc *model.Document, exam *model.StructuredExam) (*model.GradeReport, []model.StudentSheet, bool, error) {
	sheets, degraded, err := a.ParseAnswerSheet(ctx, doc)
	if err != nil {
		return nil, nil, false, err
	}

	key := grade.BuildAnswerKey(exam)
	results, stats := grade.GradeStudents(sheets, key)
	report := &model.GradeReport{
		GradedResults:  results,
		Statistics:     stats,
		TotalQuestions: len(key),
	}
	return report, sheets, degraded, nil
}

// AnalyzeStudent asks the LLM for a per-student ability breakdown.
// Failures degrade to a nil object.
func (a *Analyzer) AnalyzeStudent(ctx context.Context, result model.StudentGradeResult, counts model.ExamCounts) (map[string]any, bool) {
	raw, err := a.llm.Complete(ctx, llm.Request{
		Prompt: prompts.AnalyzeStudent(result, counts),
	})
	if err != nil {
		slog.Warn("student analysis degraded", "student", result.Name, "error", err)
		return nil, true
	}
	a.trace.Record("student_analysis_response", []byte(raw))

	obj, err := normalize.Object(raw)
	if err != nil {
		slog.Warn("student analysis unparseable", "student", result.Name, "error", err)
		return nil, true
	}
	return obj, false
}

// documentText returns the cached extracted text, extracting and caching
// it on first use. Callers serialize per-document access.
func (a *Analyzer) documentText(doc *model.Document, answerSheet bool) (string, error) {
	if doc.HasContent() {
		return doc.Content, nil
	}

	text, err := extract.Text(doc.FilePath, answerSheet)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", doc.Title, err)
	}
	if text == "" {
		return "", ErrNoContent
	}

	doc.Content = text
	if a.cache != nil {
		if err := a.cache.CacheDocumentContent(doc.ID, text); err != nil {
			slog.Warn("cache document content", "document", doc.Title, "error", err)
		}
	}
	return text, nil
}
