// Package extract turns uploaded exam documents into raw text. Plain text
// and PDF files are read linearly; Word answer sheets go through an
// element-level walk so tabular name/answer data survives flattening.
package extract

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	pdf "github.com/ledongthuc/pdf"
)

// UnsupportedFormatError reports a file extension no loader handles.
type UnsupportedFormatError struct {
	Ext string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported document format: %q", e.Ext)
}

// answerSheetMarkers flag a filename or title as a student answer sheet.
var answerSheetMarkers = []string{"answer sheet", "answersheet", "student", "答题卡", "学生"}

// IsAnswerSheet reports whether a document name looks like a student
// answer sheet rather than an exam paper.
func IsAnswerSheet(name string) bool {
	lower := strings.ToLower(name)
	for _, marker := range answerSheetMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// Text extracts raw text from the document at path, dispatching on the
// file extension. When answerSheet is set, Word documents are read
// element-by-element and reassembled into one name-and-answers line per
// student; other formats are unaffected by the flag.
func Text(path string, answerSheet bool) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".txt":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read text file: %w", err)
		}
		return string(data), nil
	case ".pdf":
		return pdfText(path)
	case ".docx", ".doc":
		return wordText(path, answerSheet)
	default:
		return "", &UnsupportedFormatError{Ext: ext}
	}
}

func pdfText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pdf reader: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("pdf plaintext: %w", err)
	}
	b, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("pdf read: %w", err)
	}
	return string(b), nil
}

func wordText(path string, answerSheet bool) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read word file: %w", err)
	}
	if answerSheet {
		frags, err := wordFragments(data)
		if err != nil {
			return "", err
		}
		return ReconstructAnswerTable(frags), nil
	}
	paras, err := wordParagraphs(data)
	if err != nil {
		return "", err
	}
	return strings.Join(paras, "\n"), nil
}
