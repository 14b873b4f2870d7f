package store

import (
	"database/sql"
	"time"

	"github.com/LIANENGUANG/AI-Education/internal/model"
)

// CreateDocument inserts an uploaded document record.
func (s *Store) CreateDocument(d model.Document) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO documents (title, file_path, content, created_at) VALUES (?, ?, ?, ?)`,
		d.Title, d.FilePath, d.Content, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetDocument returns a document by ID, or nil if not found.
func (s *Store) GetDocument(id int64) (*model.Document, error) {
	var d model.Document
	err := s.db.QueryRow(
		`SELECT id, title, file_path, content, created_at FROM documents WHERE id = ?`, id,
	).Scan(&d.ID, &d.Title, &d.FilePath, &d.Content, &d.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ListDocuments returns all documents, newest first.
func (s *Store) ListDocuments() ([]model.Document, error) {
	rows, err := s.db.Query(
		`SELECT id, title, file_path, content, created_at FROM documents ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var docs []model.Document
	for rows.Next() {
		var d model.Document
		if err := rows.Scan(&d.ID, &d.Title, &d.FilePath, &d.Content, &d.CreatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// CacheDocumentContent stores the extracted text for a document. The
// first successful write sticks: a populated cache is never overwritten.
func (s *Store) CacheDocumentContent(id int64, content string) error {
	_, err := s.db.Exec(
		`UPDATE documents SET content = ? WHERE id = ? AND content = ''`,
		content, id,
	)
	return err
}

// SaveAnalysis stores the structured-exam JSON produced for a document.
func (s *Store) SaveAnalysis(documentID int64, structuredJSON string) error {
	_, err := s.db.Exec(
		`INSERT INTO analyses (document_id, structured_json, created_at) VALUES (?, ?, ?)`,
		documentID, structuredJSON, time.Now(),
	)
	return err
}

// LatestAnalysis returns the most recent structured-exam JSON for a
// document, or empty string when the document was never analyzed.
func (s *Store) LatestAnalysis(documentID int64) (string, error) {
	var j string
	err := s.db.QueryRow(
		`SELECT structured_json FROM analyses WHERE document_id = ? ORDER BY id DESC LIMIT 1`,
		documentID,
	).Scan(&j)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return j, err
}
