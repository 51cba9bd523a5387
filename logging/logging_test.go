package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	Setup(false, "debug")
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())

	Setup(true, "WARN")
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	Setup(false, "nonsense")
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestStatistics_Tracking(t *testing.T) {
	s := NewStatistics(filepath.Join(t.TempDir(), "statistics.json"))
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.TrackVisitor("10.0.0.1")
	s.TrackVisitor("10.0.0.2")
	s.UniqueVisitors["10.0.0.3"] = now.Add(-48 * time.Hour)

	s.TrackAnalysis("Coffee Beans", 80, 10, false)
	s.TrackAnalysis(" coffee beans", 60, 30, false)
	s.TrackAnalysis("tea", -1, 20, true)
	s.TrackAnalysis("", 40, 40, false)

	assert.Equal(t, 2, s.GetUniqueVisitorsCount())
	assert.Equal(t, 4, s.TotalRequests())
	assert.Equal(t, 25.0, s.GetErrorRate())
	assert.Equal(t, []KeywordCount{{"coffee beans", 2}, {"tea", 1}}, s.GetPopularKeywords(5))
	assert.Equal(t, []KeywordCount{{"coffee beans", 2}}, s.GetPopularKeywords(1))

	snap := s.Snapshot(false)
	assert.Equal(t, 4, snap["totalRequests"])
	assert.Equal(t, 25.0, snap["averageLoadTime"])
	assert.Equal(t, 60.0, snap["averageSeoScore"])
	assert.NotContains(t, snap, "popularKeywords")

	assert.Contains(t, s.Snapshot(true), "popularKeywords")
}

func TestStatistics_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "statistics.json")

	s := NewStatistics(path)
	s.TrackAnalysis("coffee", 70, 12, false)
	require.NoError(t, s.Save())

	loaded := NewStatistics(path)
	assert.Equal(t, 1, loaded.TotalRequests())
	assert.Equal(t, 1, loaded.PopularKeywords["coffee"])
	assert.False(t, loaded.LastPersisted.IsZero())
}

func TestStatistics_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "statistics.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0644))

	s := NewStatistics(path)
	assert.Equal(t, 0, s.TotalRequests())
	assert.NotNil(t, s.PopularKeywords)
}
