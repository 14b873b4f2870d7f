// Package handler exposes the review pipeline as a JSON HTTP API.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/LIANENGUANG/AI-Education/internal/extract"
	"github.com/LIANENGUANG/AI-Education/internal/grade"
	"github.com/LIANENGUANG/AI-Education/internal/i18n"
	"github.com/LIANENGUANG/AI-Education/internal/model"
	"github.com/LIANENGUANG/AI-Education/internal/review"
	"github.com/LIANENGUANG/AI-Education/internal/store"
)

const maxUploadBytes = 32 << 20

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store         *store.Store
	analyzer      *review.Analyzer
	uploadDir     string
	secureCookies bool
}

// New creates a new Handler. uploadDir is created if missing.
func New(s *store.Store, a *review.Analyzer, uploadDir string, secureCookies bool) (*Handler, error) {
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Handler{store: s, analyzer: a, uploadDir: uploadDir, secureCookies: secureCookies}, nil
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/api/v1/health", h.handleHealth)

	r.Post("/api/auth/login", h.handleLogin)
	r.Post("/api/auth/logout", h.handleLogout)

	r.Route("/api/english/documents", func(r chi.Router) {
		r.Get("/", h.handleListDocuments)
		r.Post("/", h.handleUploadDocument)
		r.Post("/{documentID}/analyze_types/", h.handleAnalyzeTypes)
		r.Post("/grade_answer_sheet/", h.handleGradeAnswerSheet)
		r.Post("/analyze_question_performance/", h.handleQuestionPerformance)
		r.Post("/analyze_student_performance/", h.handleStudentPerformance)
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(h.requireAuth, requireRole(model.UserRoleAdmin))
		r.Get("/users", h.handleListUsers)
		r.Post("/users/{userID}/toggle", h.handleToggleUser)
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "error": err.Error()})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.store.ListDocuments()
	if err != nil {
		slog.Error("list documents", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (h *Handler) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "SelectFile")
		return
	}
	defer file.Close()

	path, err := h.saveUpload(file, header)
	if err != nil {
		slog.Error("save upload", "file", header.Filename, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	title := r.FormValue("title")
	if title == "" {
		title = strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename))
	}

	doc := model.Document{Title: title, FilePath: path}
	id, err := h.store.CreateDocument(doc)
	if err != nil {
		slog.Error("create document", "title", title, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	doc.ID = id

	slog.Info("document uploaded", "id", id, "title", title, "file", header.Filename)
	respondJSON(w, http.StatusCreated, map[string]any{
		"message":  i18n.T(r.Context(), "UploadSuccess"),
		"document": doc,
	})
}

func (h *Handler) handleAnalyzeTypes(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "documentID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid document ID", http.StatusBadRequest)
		return
	}
	doc, err := h.store.GetDocument(id)
	if err != nil {
		slog.Error("get document", "id", id, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if doc == nil {
		respondError(w, r, http.StatusNotFound, "DocumentNotFound")
		return
	}

	result, err := h.analyzer.AnalyzeDocument(r.Context(), doc)
	if err != nil {
		h.respondExtractError(w, r, doc, err)
		return
	}

	msgID := "AnalysisComplete"
	if result.Degraded {
		msgID = "AnalysisDegraded"
	} else if data, err := json.Marshal(result.StructuredData); err == nil {
		if err := h.store.SaveAnalysis(doc.ID, string(data)); err != nil {
			slog.Warn("save analysis", "document", doc.Title, "error", err)
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message":         i18n.T(r.Context(), msgID),
		"document_title":  result.DocumentTitle,
		"structured_data": result.StructuredData,
		"statistics":      result.Statistics,
		"degraded":        result.Degraded,
	})
}

func (h *Handler) handleGradeAnswerSheet(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("answer_sheet")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "SelectFile")
		return
	}
	defer file.Close()

	rawKey := r.FormValue("standard_answers")
	if rawKey == "" {
		respondError(w, r, http.StatusBadRequest, "MissingAnswerKey")
		return
	}
	var exam model.StructuredExam
	if err := json.Unmarshal([]byte(rawKey), &exam); err != nil {
		respondError(w, r, http.StatusBadRequest, "MissingAnswerKey")
		return
	}

	path, err := h.saveUpload(file, header)
	if err != nil {
		slog.Error("save upload", "file", header.Filename, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	title := strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename))
	doc := model.Document{Title: title, FilePath: path}
	if doc.ID, err = h.store.CreateDocument(doc); err != nil {
		slog.Error("create document", "title", title, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	report, sheets, degraded, err := h.analyzer.GradeAnswerSheet(r.Context(), &doc, &exam)
	if err != nil {
		h.respondExtractError(w, r, &doc, err)
		return
	}

	msg := i18n.Tp(r.Context(), "GradingComplete", len(report.GradedResults))
	if degraded {
		msg = i18n.T(r.Context(), "SheetParseDegraded")
	}
	slog.Info("answer sheet graded", "document", title,
		"students", len(report.GradedResults), "degraded", degraded)

	respondJSON(w, http.StatusOK, map[string]any{
		"parse_result": map[string]any{
			"total_students": len(sheets),
			"students":       sheets,
		},
		"grade_result": report,
		"degraded":     degraded,
		"message":      msg,
	})
}

func (h *Handler) handleQuestionPerformance(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GradedResults []model.StudentGradeResult `json:"graded_results"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.GradedResults) == 0 {
		respondError(w, r, http.StatusBadRequest, "NoGradedResults")
		return
	}

	report := model.PerformanceReport{
		Questions:     grade.AggregatePerformance(req.GradedResults),
		TotalStudents: len(req.GradedResults),
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"message":        i18n.T(r.Context(), "QuestionAnalysisComplete"),
		"questions":      report.Questions,
		"total_students": report.TotalStudents,
	})
}

func (h *Handler) handleStudentPerformance(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StudentData     *model.StudentGradeResult `json:"student_data"`
		StandardAnswers *model.StructuredExam     `json:"standard_answers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.StudentData == nil {
		respondError(w, r, http.StatusBadRequest, "NoGradedResults")
		return
	}

	var counts model.ExamCounts
	if req.StandardAnswers != nil {
		counts = req.StandardAnswers.Counts()
	}

	analysis, degraded := h.analyzer.AnalyzeStudent(r.Context(), *req.StudentData, counts)
	msgID := "StudentAnalysisComplete"
	if degraded {
		msgID = "StudentAnalysisDegraded"
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"message":  i18n.T(r.Context(), msgID),
		"analysis": analysis,
		"degraded": degraded,
	})
}

// respondExtractError maps pipeline input errors to client responses.
func (h *Handler) respondExtractError(w http.ResponseWriter, r *http.Request, doc *model.Document, err error) {
	var unsupported *extract.UnsupportedFormatError
	switch {
	case errors.Is(err, review.ErrNoContent):
		respondError(w, r, http.StatusBadRequest, "NoContent")
	case errors.As(err, &unsupported):
		respondError(w, r, http.StatusBadRequest, "UnsupportedFormat")
	default:
		slog.Error("analyze document", "document", doc.Title, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// saveUpload stores an uploaded file under the upload directory with a
// unique name, keeping the original extension.
func (h *Handler) saveUpload(file multipart.File, header *multipart.FileHeader) (string, error) {
	name := fmt.Sprintf("%d_%s", time.Now().UnixNano(), filepath.Base(header.Filename))
	path := filepath.Join(h.uploadDir, name)

	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, io.LimitReader(file, maxUploadBytes)); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, r *http.Request, status int, msgID string) {
	respondJSON(w, status, map[string]string{"error": i18n.T(r.Context(), msgID)})
}
