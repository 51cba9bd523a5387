package store

import (
	"fmt"
	"time"

	"github.com/seo-optimizer/contentscore/redirects"
)

// NotFoundEntry is one row of the 404 log
type NotFoundEntry struct {
	URL       string    `json:"url"`
	Hits      int64     `json:"hits"`
	FirstSeen time.Time `json:"firstSeen"`
	LastSeen  time.Time `json:"lastSeen"`
}

// CreateRedirect validates and stores a rule. A missing status defaults to
// redirects.DefaultStatus and exact sources are stored normalized.
func (s *Store) CreateRedirect(r redirects.Redirect) (redirects.Redirect, error) {
	if r.Status == 0 {
		r.Status = redirects.DefaultStatus
	}
	if err := r.Validate(); err != nil {
		return redirects.Redirect{}, err
	}
	if !r.Regex {
		r.Source = redirects.Normalize(r.Source)
	}
	if r.Gone() {
		r.Target = ""
	}

	res, err := s.db.Exec(`INSERT INTO redirects (source, target, status, regex, hits) VALUES (?, ?, ?, ?, 0)`,
		r.Source, r.Target, r.Status, r.Regex)
	if err != nil {
		return redirects.Redirect{}, fmt.Errorf("create redirect: %w", err)
	}
	if r.ID, err = res.LastInsertId(); err != nil {
		return redirects.Redirect{}, err
	}
	r.Hits = 0
	return r, nil
}

// ListRedirects returns every rule ordered by id
func (s *Store) ListRedirects() ([]redirects.Redirect, error) {
	rows, err := s.db.Query(`SELECT id, source, target, status, regex, hits FROM redirects ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []redirects.Redirect{}
	for rows.Next() {
		var r redirects.Redirect
		if err := rows.Scan(&r.ID, &r.Source, &r.Target, &r.Status, &r.Regex, &r.Hits); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteRedirect removes a rule by id
func (s *Store) DeleteRedirect(id int64) error {
	res, err := s.db.Exec(`DELETE FROM redirects WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("redirect %d: %w", id, ErrNotFound)
	}
	return nil
}

// RecordHit increments the hit counter of a rule
func (s *Store) RecordHit(id int64) error {
	_, err := s.db.Exec(`UPDATE redirects SET hits = hits + 1 WHERE id = ?`, id)
	return err
}

// LogNotFound counts a request for a missing URL. URLs are normalized so
// query strings and trailing slashes do not split the counts.
func (s *Store) LogNotFound(rawURL string) error {
	now := s.now().UTC().UnixNano()
	_, err := s.db.Exec(`
INSERT INTO not_found (url, hits, first_seen, last_seen) VALUES (?, 1, ?, ?)
ON CONFLICT(url) DO UPDATE SET hits = hits + 1, last_seen = excluded.last_seen`,
		redirects.Normalize(rawURL), now, now)
	return err
}

// ListNotFound returns the most requested missing URLs. A non-positive
// limit returns every entry.
func (s *Store) ListNotFound(limit int) ([]NotFoundEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`SELECT url, hits, first_seen, last_seen FROM not_found ORDER BY hits DESC, last_seen DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []NotFoundEntry{}
	for rows.Next() {
		var e NotFoundEntry
		var first, last int64
		if err := rows.Scan(&e.URL, &e.Hits, &first, &last); err != nil {
			return nil, err
		}
		e.FirstSeen = time.Unix(0, first).UTC()
		e.LastSeen = time.Unix(0, last).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// PurgeNotFound deletes entries not seen within olderThan and returns how
// many were removed
func (s *Store) PurgeNotFound(olderThan time.Duration) (int64, error) {
	cutoff := s.now().UTC().Add(-olderThan).UnixNano()
	res, err := s.db.Exec(`DELETE FROM not_found WHERE last_seen < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
