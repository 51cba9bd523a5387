package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/seo-optimizer/contentscore/logging"
)

// Context keys handlers set so Stats can attribute an analysis
const (
	AnalysisKeywordKey = "analysis_keyword"
	AnalysisScoreKey   = "analysis_seo_score"
)

// saveEvery is how many analyses pass between statistics writes
const saveEvery = 100

// Stats tracks visitors and analysis requests. Only requests whose handler
// set AnalysisKeywordKey count as analyses.
func Stats(stats *logging.Statistics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		stats.TrackVisitor(c.ClientIP())

		c.Next()

		keyword, ok := c.Get(AnalysisKeywordKey)
		if !ok {
			return
		}
		kw, _ := keyword.(string)
		score := -1
		if v, ok := c.Get(AnalysisScoreKey); ok {
			if s, ok := v.(int); ok {
				score = s
			}
		}
		loadTime := float64(time.Since(start).Milliseconds())
		stats.TrackAnalysis(kw, score, loadTime, c.Writer.Status() >= 400)

		if stats.TotalRequests()%saveEvery == 0 {
			go func() {
				if err := stats.Save(); err != nil {
					log.Error().Err(err).Msg("Failed to save statistics")
				}
			}()
		}
	}
}

// Logger logs one line per request
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		event := log.Info()
		switch {
		case status >= 500:
			event = log.Error()
		case status >= 400:
			event = log.Warn()
		}
		event.
			Str("request_id", c.GetString(RequestIDKey)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("Request handled")
	}
}
