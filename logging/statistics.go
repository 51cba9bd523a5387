package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Statistics represents the collected usage statistics
type Statistics struct {
	UniqueVisitors   map[string]time.Time `json:"uniqueVisitors"`   // IP -> last visit time
	AnalysisRequests int                  `json:"analysisRequests"` // total number of analysis requests
	ErrorCount       int                  `json:"errorCount"`
	PopularKeywords  map[string]int       `json:"popularKeywords"` // focus keyphrase -> count
	AverageLoadTime  float64              `json:"averageLoadTime"` // milliseconds
	TotalLoadTime    float64              `json:"totalLoadTime"`
	TotalSEOScore    int                  `json:"totalSeoScore"`
	ScoredRequests   int                  `json:"scoredRequests"`
	LastPersisted    time.Time            `json:"lastPersisted"`

	path  string
	mutex sync.RWMutex
	now   func() time.Time
}

// KeywordCount is a focus keyphrase and how often it was analyzed
type KeywordCount struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}

// NewStatistics creates statistics persisted at path and loads any existing
// file. A load failure is logged and starts from empty statistics.
func NewStatistics(path string) *Statistics {
	s := &Statistics{
		UniqueVisitors:  make(map[string]time.Time),
		PopularKeywords: make(map[string]int),
		path:            path,
		now:             time.Now,
	}
	if err := s.Load(); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Could not load existing statistics")
	}
	return s
}

// TrackVisitor records a unique visitor
func (s *Statistics) TrackVisitor(ip string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.UniqueVisitors[ip] = s.now()
}

// TrackAnalysis records one analysis request. seoScore is negative when the
// request produced no score.
func (s *Statistics) TrackAnalysis(keyword string, seoScore int, loadTime float64, hasError bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.AnalysisRequests++
	if kw := strings.ToLower(strings.TrimSpace(keyword)); kw != "" {
		s.PopularKeywords[kw]++
	}
	if hasError {
		s.ErrorCount++
	}
	if seoScore >= 0 {
		s.TotalSEOScore += seoScore
		s.ScoredRequests++
	}

	s.TotalLoadTime += loadTime
	s.AverageLoadTime = s.TotalLoadTime / float64(s.AnalysisRequests)
}

// TotalRequests returns the number of analysis requests tracked so far
func (s *Statistics) TotalRequests() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.AnalysisRequests
}

// GetUniqueVisitorsCount returns the number of unique visitors in the last 24 hours
func (s *Statistics) GetUniqueVisitorsCount() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.uniqueVisitors()
}

func (s *Statistics) uniqueVisitors() int {
	count := 0
	cutoff := s.now().Add(-24 * time.Hour)
	for _, lastVisit := range s.UniqueVisitors {
		if lastVisit.After(cutoff) {
			count++
		}
	}
	return count
}

// GetPopularKeywords returns the n most analyzed focus keyphrases
func (s *Statistics) GetPopularKeywords(n int) []KeywordCount {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.popularKeywords(n)
}

func (s *Statistics) popularKeywords(n int) []KeywordCount {
	out := make([]KeywordCount, 0, len(s.PopularKeywords))
	for kw, count := range s.PopularKeywords {
		out = append(out, KeywordCount{Keyword: kw, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Keyword < out[j].Keyword
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// GetErrorRate returns the error rate as a percentage
func (s *Statistics) GetErrorRate() float64 {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.errorRate()
}

func (s *Statistics) errorRate() float64 {
	if s.AnalysisRequests == 0 {
		return 0
	}
	return float64(s.ErrorCount) / float64(s.AnalysisRequests) * 100
}

func (s *Statistics) averageSEOScore() float64 {
	if s.ScoredRequests == 0 {
		return 0
	}
	return float64(s.TotalSEOScore) / float64(s.ScoredRequests)
}

// Snapshot returns the statistics for the API. Popular keyphrases are only
// included in development mode.
func (s *Statistics) Snapshot(devMode bool) map[string]any {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := map[string]any{
		"uniqueVisitors24h": s.uniqueVisitors(),
		"totalRequests":     s.AnalysisRequests,
		"errorRate":         s.errorRate(),
		"averageLoadTime":   s.AverageLoadTime,
		"averageSeoScore":   s.averageSEOScore(),
	}
	if devMode {
		out["popularKeywords"] = s.popularKeywords(5)
	}
	return out
}

// Save persists the statistics to their file
func (s *Statistics) Save() error {
	s.mutex.Lock()
	s.LastPersisted = s.now()
	data, err := json.Marshal(s)
	s.mutex.Unlock()
	if err != nil {
		return fmt.Errorf("could not encode statistics: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("could not create statistics directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), "statistics-*.tmp")
	if err != nil {
		return fmt.Errorf("could not create statistics file: %w", err)
	}
	_, err = tmp.Write(data)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("could not write statistics file: %w", err)
	}
	return os.Rename(tmp.Name(), s.path)
}

// Load reads the statistics from their file. A missing file is not an error.
func (s *Statistics) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("could not open statistics file: %w", err)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	if err := json.Unmarshal(data, s); err != nil {
		return fmt.Errorf("could not decode statistics: %w", err)
	}
	if s.UniqueVisitors == nil {
		s.UniqueVisitors = make(map[string]time.Time)
	}
	if s.PopularKeywords == nil {
		s.PopularKeywords = make(map[string]int)
	}
	return nil
}
