package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seo-optimizer/contentscore/analyzer"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	analyzeOpts = analyzeOptions{}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestVersionCmd(t *testing.T) {
	original := version
	version = "test-1.0.0"
	defer func() { version = original }()

	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "contentscore version test-1.0.0")
}

func TestAnalyzeCmd_Stdin(t *testing.T) {
	content := "<h1>Coffee</h1><p>Fresh coffee tastes better. Grind the beans just before brewing.</p>"
	out, err := execute(t, content, "analyze", "--keyword", "coffee", "--meta-title", "Coffee at home")
	require.NoError(t, err)

	var report analyzer.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "coffee", report.Keyword.Keyword)
	assert.Equal(t, 2, report.Keyword.Count)
	require.NotNil(t, report.SEOScore)
	assert.NotEmpty(t, report.SEO.Problems)
}

func TestAnalyzeCmd_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "post.html")
	require.NoError(t, os.WriteFile(path, []byte("<p>One short paragraph about tea.</p>"), 0o644))

	out, err := execute(t, "", "analyze", path, "--pretty")
	require.NoError(t, err)
	assert.Contains(t, out, "\n  \"wordCount\": 5")
}

func TestAnalyzeCmd_MissingFile(t *testing.T) {
	_, err := execute(t, "", "analyze", filepath.Join(t.TempDir(), "missing.html"))
	assert.Error(t, err)
}

func TestAnalyzeCmd_InvalidUTF8(t *testing.T) {
	_, err := execute(t, "\xff\xfe", "analyze")
	require.Error(t, err)
	assert.ErrorIs(t, err, analyzer.ErrInvalidInput)
}
