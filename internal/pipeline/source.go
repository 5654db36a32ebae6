package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/leakbench/leakbench/internal/model"
)

// Document is one corpus document ready for extraction
type Document struct {
	ID   string // file name relative to the corpus directory
	Text string

	// Observation date from the file name prefix, nil when absent.
	// Evidence without a date falls back to the configured FX policy.
	ObservedDate *model.Date
}

// datePrefixRe matches a "YYYY-MM-DD" prefix in a document file name,
// e.g. "2024-03-15_forum-post.txt"
var datePrefixRe = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})[-_ ]`)

// LoadDocuments reads every .txt, .md and .html file under dir, in
// deterministic name order. HTML is reduced to visible text. A file that
// cannot be read or decoded is skipped and counted, never fatal: one bad
// dump must not abort a corpus run.
func LoadDocuments(dir string) ([]Document, int, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".txt", ".md", ".html", ".htm":
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("walk %s: %w", dir, err)
	}
	sort.Strings(paths)

	var docs []Document
	failed := 0
	for _, path := range paths {
		doc, err := loadDocument(dir, path)
		if err != nil {
			failed++
			continue
		}
		docs = append(docs, doc)
	}

	return docs, failed, nil
}

func loadDocument(dir, path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, err
	}
	if !utf8.Valid(data) {
		return Document{}, fmt.Errorf("%s: not valid UTF-8", path)
	}

	text := string(data)
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".html" || ext == ".htm" {
		text, err = VisibleText(text)
		if err != nil {
			return Document{}, fmt.Errorf("%s: %w", path, err)
		}
	}

	id, err := filepath.Rel(dir, path)
	if err != nil {
		id = filepath.Base(path)
	}
	id = filepath.ToSlash(id)

	return Document{
		ID:           id,
		Text:         text,
		ObservedDate: dateFromName(filepath.Base(path)),
	}, nil
}

// dateFromName parses the observation date out of the file name prefix
func dateFromName(name string) *model.Date {
	m := datePrefixRe.FindStringSubmatch(name)
	if m == nil {
		return nil
	}
	date, err := model.ParseDate(m[1])
	if err != nil {
		return nil
	}
	return &date
}
