package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/seo-optimizer/contentscore/analyzer"
)

type analyzeOptions struct {
	keyword         string
	title           string
	metaTitle       string
	metaDescription string
	slug            string
	origin          string
	pretty          bool
}

var analyzeOpts analyzeOptions

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Analyze a document",
	Long: `Analyzes an HTML or plain text document and prints the report as JSON.
Reads standard input when no file is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	f := analyzeCmd.Flags()
	f.StringVarP(&analyzeOpts.keyword, "keyword", "k", "", "focus keyphrase")
	f.StringVar(&analyzeOpts.title, "title", "", "document title")
	f.StringVar(&analyzeOpts.metaTitle, "meta-title", "", "SEO title")
	f.StringVar(&analyzeOpts.metaDescription, "meta-description", "", "meta description")
	f.StringVar(&analyzeOpts.slug, "slug", "", "URL slug")
	f.StringVar(&analyzeOpts.origin, "origin", "", "site origin used to classify internal links")
	f.BoolVar(&analyzeOpts.pretty, "pretty", false, "indent the JSON output")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	content, err := readContent(cmd, args)
	if err != nil {
		return err
	}

	a := analyzer.New(
		analyzer.WithSiteOrigin(analyzeOpts.origin),
		analyzer.WithLogger(log.Logger),
	)
	report, err := a.Analyze(&analyzer.Document{
		Content: content,
		Title:   analyzeOpts.title,
		Slug:    analyzeOpts.slug,
		Metadata: analyzer.Metadata{
			MetaTitle:       analyzeOpts.metaTitle,
			MetaDescription: analyzeOpts.metaDescription,
			FocusKeyword:    analyzeOpts.keyword,
		},
	})
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	var data []byte
	if analyzeOpts.pretty {
		data, err = json.MarshalIndent(report, "", "  ")
	} else {
		data, err = json.Marshal(report)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}

func readContent(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return string(data), nil
}
