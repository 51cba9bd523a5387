package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/seo-optimizer/contentscore/analyzer"
)

// DocumentRecord is a stored document
type DocumentRecord struct {
	analyzer.Document
	UpdatedAt time.Time `json:"updatedAt"`
}

// ReportRecord is the latest report cached for a document
type ReportRecord struct {
	Report     analyzer.Report `json:"report"`
	AnalyzedAt time.Time       `json:"analyzedAt"`
}

const documentColumns = `id, title, slug, content, meta_title, meta_description, focus_keyword,
    canonical_url, robots, og_title, og_description, twitter_title, twitter_description, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (DocumentRecord, error) {
	var rec DocumentRecord
	var updated int64
	d := &rec.Document
	err := row.Scan(&d.ID, &d.Title, &d.Slug, &d.Content, &d.MetaTitle, &d.MetaDescription,
		&d.FocusKeyword, &d.CanonicalURL, &d.Robots, &d.OGTitle, &d.OGDescription,
		&d.TwitterTitle, &d.TwitterDescription, &updated)
	if err != nil {
		return DocumentRecord{}, err
	}
	rec.UpdatedAt = time.Unix(0, updated).UTC()
	return rec, nil
}

// SaveDocument upserts a document. A document without an id gets a new one.
// The focus keyphrase is stored trimmed.
func (s *Store) SaveDocument(doc analyzer.Document) (DocumentRecord, error) {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	doc.FocusKeyword = strings.TrimSpace(doc.FocusKeyword)
	now := s.now().UTC()

	_, err := s.db.Exec(`
INSERT INTO documents (`+documentColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    title = excluded.title,
    slug = excluded.slug,
    content = excluded.content,
    meta_title = excluded.meta_title,
    meta_description = excluded.meta_description,
    focus_keyword = excluded.focus_keyword,
    canonical_url = excluded.canonical_url,
    robots = excluded.robots,
    og_title = excluded.og_title,
    og_description = excluded.og_description,
    twitter_title = excluded.twitter_title,
    twitter_description = excluded.twitter_description,
    updated_at = excluded.updated_at`,
		doc.ID, doc.Title, doc.Slug, doc.Content, doc.MetaTitle, doc.MetaDescription,
		doc.FocusKeyword, doc.CanonicalURL, doc.Robots, doc.OGTitle, doc.OGDescription,
		doc.TwitterTitle, doc.TwitterDescription, now.UnixNano())
	if err != nil {
		return DocumentRecord{}, fmt.Errorf("save document %s: %w", doc.ID, err)
	}
	return DocumentRecord{Document: doc, UpdatedAt: now}, nil
}

// GetDocument returns a single document by id
func (s *Store) GetDocument(id string) (DocumentRecord, error) {
	row := s.db.QueryRow(`SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	rec, err := scanDocument(row)
	if err != nil {
		return DocumentRecord{}, notFound(err, "document "+id)
	}
	return rec, nil
}

// ListDocuments returns every document, most recently updated first
func (s *Store) ListDocuments() ([]DocumentRecord, error) {
	rows, err := s.db.Query(`SELECT ` + documentColumns + ` FROM documents ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []DocumentRecord{}
	for rows.Next() {
		rec, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, rec)
	}
	return docs, rows.Err()
}

// DeleteDocument removes a document and its cached report
func (s *Store) DeleteDocument(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("document %s: %w", id, ErrNotFound)
	}
	if _, err := tx.Exec(`DELETE FROM reports WHERE document_id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// LookupDocument returns the stored fields of a document for back-filling.
// An unknown id yields a zero Document and no error.
func (s *Store) LookupDocument(id string) (analyzer.Document, error) {
	rec, err := s.GetDocument(id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return analyzer.Document{}, nil
		}
		return analyzer.Document{}, err
	}
	return rec.Document, nil
}

// KeywordUsedElsewhere reports whether any document other than excludingID
// has exactly this focus keyphrase
func (s *Store) KeywordUsedElsewhere(keyword, excludingID string) (bool, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return false, nil
	}
	var used bool
	err := s.db.QueryRow(
		`SELECT EXISTS(SELECT 1 FROM documents WHERE focus_keyword = ? AND id <> ?)`,
		keyword, excludingID).Scan(&used)
	return used, err
}

// SaveReport stores report as the latest analysis of document id
func (s *Store) SaveReport(id string, report *analyzer.Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	seoScore := 0
	if report.SEOScore != nil {
		seoScore = report.SEOScore.Score
	}
	_, err = s.db.Exec(`INSERT OR REPLACE INTO reports (document_id, report, seo_score, readability_score, analyzed_at) VALUES (?, ?, ?, ?, ?)`,
		id, string(data), seoScore, report.ReadabilityScore.Score, s.now().UTC().UnixNano())
	if err != nil {
		return fmt.Errorf("save report %s: %w", id, err)
	}
	return nil
}

// GetReport returns the latest report stored for document id
func (s *Store) GetReport(id string) (ReportRecord, error) {
	var data string
	var analyzed int64
	err := s.db.QueryRow(`SELECT report, analyzed_at FROM reports WHERE document_id = ?`, id).
		Scan(&data, &analyzed)
	if err != nil {
		return ReportRecord{}, notFound(err, "report "+id)
	}

	var rec ReportRecord
	if err := json.Unmarshal([]byte(data), &rec.Report); err != nil {
		return ReportRecord{}, fmt.Errorf("failed to decode report %s: %w", id, err)
	}
	rec.AnalyzedAt = time.Unix(0, analyzed).UTC()
	return rec, nil
}
