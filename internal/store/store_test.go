package store

import (
	"testing"

	"github.com/LIANENGUANG/AI-Education/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestDocumentCRUD(t *testing.T) {
	s := newTestStore(t)

	docs, err := s.ListDocuments()
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if len(docs) != 0 {
		t.Fatalf("expected empty list, got %d", len(docs))
	}

	id, err := s.CreateDocument(model.Document{Title: "期末试卷", FilePath: "/data/uploads/exam.docx"})
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	d, err := s.GetDocument(id)
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if d == nil {
		t.Fatal("expected document, got nil")
	}
	if d.Title != "期末试卷" {
		t.Errorf("title = %q", d.Title)
	}
	if d.HasContent() {
		t.Error("fresh document should have empty content cache")
	}

	// Not found.
	missing, err := s.GetDocument(9999)
	if err != nil {
		t.Fatalf("GetDocument(missing): %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing document")
	}

	if _, err := s.CreateDocument(model.Document{Title: "答题卡", FilePath: "/data/uploads/sheet.docx"}); err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}
	docs, err = s.ListDocuments()
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
}

func TestCacheDocumentContentFirstWriterSticks(t *testing.T) {
	s := newTestStore(t)
	id, err := s.CreateDocument(model.Document{Title: "t", FilePath: "/tmp/t.txt"})
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	if err := s.CacheDocumentContent(id, "first extraction"); err != nil {
		t.Fatalf("CacheDocumentContent: %v", err)
	}
	// A second write must not replace the populated cache.
	if err := s.CacheDocumentContent(id, "second extraction"); err != nil {
		t.Fatalf("CacheDocumentContent: %v", err)
	}

	d, err := s.GetDocument(id)
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if d.Content != "first extraction" {
		t.Errorf("content = %q, want first write preserved", d.Content)
	}
}

func TestAnalyses(t *testing.T) {
	s := newTestStore(t)
	id, err := s.CreateDocument(model.Document{Title: "t", FilePath: "/tmp/t.docx"})
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	latest, err := s.LatestAnalysis(id)
	if err != nil {
		t.Fatalf("LatestAnalysis: %v", err)
	}
	if latest != "" {
		t.Errorf("expected empty analysis, got %q", latest)
	}

	if err := s.SaveAnalysis(id, `{"grammar_questions": []}`); err != nil {
		t.Fatalf("SaveAnalysis: %v", err)
	}
	if err := s.SaveAnalysis(id, `{"grammar_questions": [{"question_number": 1}]}`); err != nil {
		t.Fatalf("SaveAnalysis: %v", err)
	}

	latest, err = s.LatestAnalysis(id)
	if err != nil {
		t.Fatalf("LatestAnalysis: %v", err)
	}
	if latest != `{"grammar_questions": [{"question_number": 1}]}` {
		t.Errorf("latest analysis = %q", latest)
	}
}

func TestUserAndAuthSession(t *testing.T) {
	s := newTestStore(t)

	count, err := s.UserCount()
	if err != nil {
		t.Fatalf("UserCount: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 users, got %d", count)
	}

	id, err := s.CreateUser(model.User{
		Username:     "admin",
		DisplayName:  "Administrator",
		PasswordHash: "hash",
		Role:         model.UserRoleAdmin,
		Active:       true,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	u, err := s.GetUserByUsername("admin")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if u == nil || u.ID != id {
		t.Fatalf("unexpected user %+v", u)
	}

	token, err := s.CreateAuthSession(id)
	if err != nil {
		t.Fatalf("CreateAuthSession: %v", err)
	}
	sess, err := s.GetAuthSession(token)
	if err != nil {
		t.Fatalf("GetAuthSession: %v", err)
	}
	if sess == nil || sess.UserID != id {
		t.Fatalf("unexpected session %+v", sess)
	}

	if err := s.DeleteAuthSession(token); err != nil {
		t.Fatalf("DeleteAuthSession: %v", err)
	}
	sess, err = s.GetAuthSession(token)
	if err != nil {
		t.Fatalf("GetAuthSession after delete: %v", err)
	}
	if sess != nil {
		t.Error("expected nil session after delete")
	}
}

func TestToggleUserActive(t *testing.T) {
	s := newTestStore(t)

	id, err := s.CreateUser(model.User{
		Username: "teacher1", DisplayName: "Teacher", PasswordHash: "hash",
		Role: model.UserRoleTeacher, Active: true,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	if err := s.ToggleUserActive(id); err != nil {
		t.Fatalf("ToggleUserActive: %v", err)
	}
	u, err := s.GetUserByID(id)
	if err != nil || u == nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if u.Active {
		t.Error("user should be inactive after toggle")
	}

	if err := s.ToggleUserActive(9999); err == nil {
		t.Error("expected error toggling unknown user")
	}

	users, err := s.ListUsers()
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 1 || users[0].Username != "teacher1" {
		t.Errorf("users = %+v", users)
	}
}

func TestMetadata(t *testing.T) {
	s := newTestStore(t)

	v, err := s.GetMetadata("missing")
	if err != nil {
		t.Fatalf("GetMetadata: %v", err)
	}
	if v != "" {
		t.Errorf("expected empty value, got %q", v)
	}

	if err := s.SetMetadata("llm_backend", "siliconflow"); err != nil {
		t.Fatalf("SetMetadata: %v", err)
	}
	if err := s.SetMetadata("llm_backend", "openai"); err != nil {
		t.Fatalf("SetMetadata upsert: %v", err)
	}
	v, err = s.GetMetadata("llm_backend")
	if err != nil {
		t.Fatalf("GetMetadata: %v", err)
	}
	if v != "openai" {
		t.Errorf("value = %q, want openai", v)
	}
}
