package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/seo-optimizer/contentscore/analyzer"
	"github.com/seo-optimizer/contentscore/cache"
	"github.com/seo-optimizer/contentscore/middleware"
	"github.com/seo-optimizer/contentscore/redirects"
)

const defaultNotFoundLimit = 100

type analyzeRequest struct {
	Content         string `json:"content"`
	Title           string `json:"title"`
	Slug            string `json:"slug"`
	FocusKeyword    string `json:"focusKeyword"`
	MetaTitle       string `json:"metaTitle"`
	MetaDescription string `json:"metaDescription"`
	DocumentID      string `json:"documentId"`
}

func (r analyzeRequest) document() *analyzer.Document {
	return &analyzer.Document{
		ID:      r.DocumentID,
		Content: r.Content,
		Title:   r.Title,
		Slug:    r.Slug,
		Metadata: analyzer.Metadata{
			MetaTitle:       r.MetaTitle,
			MetaDescription: r.MetaDescription,
			FocusKeyword:    r.FocusKeyword,
		},
	}
}

// trackAnalysis hands the analysis to the usage statistics middleware
func trackAnalysis(c *gin.Context, doc *analyzer.Document, report *analyzer.Report) {
	c.Set(middleware.AnalysisKeywordKey, doc.FocusKeyword)
	c.Set(middleware.AnalysisScoreKey, report.SEOScore.Score)
}

func (s *Server) analyze(c *gin.Context) {
	var request analyzeRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		badRequest(c, "Invalid analysis request")
		return
	}
	doc := request.document()

	key := cache.Key(request)
	if report, found := s.cache.Get(key); found {
		trackAnalysis(c, doc, report)
		c.JSON(http.StatusOK, report)
		return
	}

	// a document write during Analyze clears the cache and drops this report
	gen := s.cache.Generation()
	report, err := s.analyzer.Analyze(doc)
	if err != nil {
		fail(c, err)
		return
	}
	s.cache.PutIfCurrent(key, report, gen)
	s.monthly.IncrementStats(0, 0, 1)

	trackAnalysis(c, doc, report)
	c.JSON(http.StatusOK, report)
}

func (s *Server) listDocuments(c *gin.Context) {
	docs, err := s.store.ListDocuments()
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, docs)
}

func (s *Server) getDocument(c *gin.Context) {
	doc, err := s.store.GetDocument(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (s *Server) putDocument(c *gin.Context) {
	var doc analyzer.Document
	if err := c.ShouldBindJSON(&doc); err != nil {
		badRequest(c, "Invalid document")
		return
	}
	doc.ID = c.Param("id")

	rec, err := s.store.SaveDocument(doc)
	if err != nil {
		fail(c, err)
		return
	}
	// cached reports may depend on the stored fields and keyphrases
	s.cache.Clear()
	c.JSON(http.StatusOK, rec)
}

func (s *Server) deleteDocument(c *gin.Context) {
	if err := s.store.DeleteDocument(c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	s.cache.Clear()
	c.Status(http.StatusNoContent)
}

func (s *Server) analyzeDocument(c *gin.Context) {
	rec, err := s.store.GetDocument(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	report, err := s.analyzer.Analyze(&rec.Document)
	if err != nil {
		fail(c, err)
		return
	}
	if err := s.store.SaveReport(rec.ID, report); err != nil {
		fail(c, err)
		return
	}
	s.monthly.IncrementStats(0, 0, 1)

	trackAnalysis(c, &rec.Document, report)
	c.JSON(http.StatusOK, report)
}

func (s *Server) getReport(c *gin.Context) {
	rec, err := s.store.GetReport(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) listRedirects(c *gin.Context) {
	rules, err := s.store.ListRedirects()
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rules)
}

func (s *Server) createRedirect(c *gin.Context) {
	var request struct {
		Source string `json:"source" binding:"required"`
		Target string `json:"target"`
		Status int    `json:"status"`
		Regex  bool   `json:"regex"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		badRequest(c, "Invalid redirect")
		return
	}

	rule, err := s.store.CreateRedirect(redirects.Redirect{
		Source: request.Source,
		Target: request.Target,
		Status: request.Status,
		Regex:  request.Regex,
	})
	if err != nil {
		fail(c, err)
		return
	}
	if err := s.reloadRedirects(); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, rule)
}

func (s *Server) deleteRedirect(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, "Invalid redirect id")
		return
	}
	if err := s.store.DeleteRedirect(id); err != nil {
		fail(c, err)
		return
	}
	if err := s.reloadRedirects(); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// resolveRedirect looks up the rule for ?path=. Unmatched paths are counted
// in the 404 log.
func (s *Server) resolveRedirect(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		badRequest(c, "Missing path")
		return
	}

	match, ok := s.currentMatcher().Match(path)
	if !ok {
		if err := s.store.LogNotFound(path); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Failed to log missing URL")
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "No redirect for path"})
		return
	}

	if err := s.store.RecordHit(match.RedirectID); err != nil {
		log.Warn().Err(err).Int64("redirect", match.RedirectID).Msg("Failed to record redirect hit")
	}
	c.JSON(http.StatusOK, gin.H{
		"target": match.Target,
		"status": match.Status,
	})
}

func (s *Server) listNotFound(c *gin.Context) {
	limit := defaultNotFoundLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			badRequest(c, "Invalid limit")
			return
		}
		limit = n
	}

	entries, err := s.store.ListNotFound(limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (s *Server) statistics(c *gin.Context) {
	out := s.usage.Snapshot(s.cfg.DevMode)
	out["currentMonth"] = s.monthly.GetCurrentStats()
	out["months"] = s.monthly.GetAllMonths()
	c.JSON(http.StatusOK, out)
}
