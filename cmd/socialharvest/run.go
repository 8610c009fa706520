package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/insightbr/socialharvest/internal/harvest"
	"github.com/insightbr/socialharvest/internal/report"
)

type runFlags struct {
	locale      string
	country     string
	recencyDays int
	segment     string
	product     string
	audience    string
	out         string
}

func newRunCmd() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run <query>",
		Short: "Execute a single harvest and print the report",
		Long: `Runs the full pipeline for one query: searches every configured
provider, extracts and scores the content, and writes the ranked
report as JSON to stdout or to --out.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRunCommand(cmd, strings.Join(args, " "), flags)
		},
	}

	cmd.Flags().StringVar(&flags.locale, "locale", "", "query locale (defaults to search.locale)")
	cmd.Flags().StringVar(&flags.country, "country", "", "query country (defaults to search.country)")
	cmd.Flags().IntVar(&flags.recencyDays, "recency-days", 0, "restrict results to the last N days")
	cmd.Flags().StringVar(&flags.segment, "segment", "", "business segment for relevance scoring")
	cmd.Flags().StringVar(&flags.product, "product", "", "product or service for relevance scoring")
	cmd.Flags().StringVar(&flags.audience, "audience", "", "target audience for relevance scoring")
	cmd.Flags().StringVar(&flags.out, "out", "", "write the report to this file instead of stdout")

	return cmd
}

func runRunCommand(cmd *cobra.Command, queryText string, flags runFlags) error {
	instance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	logger := instance.Logger

	query := harvest.SearchQuery{
		Text:        queryText,
		Locale:      firstNonEmpty(flags.locale, instance.Config.Search.Locale),
		Country:     firstNonEmpty(flags.country, instance.Config.Search.Country),
		RecencyDays: flags.recencyDays,
	}
	qctx := harvest.QueryContext{
		Segment:  flags.segment,
		Product:  flags.product,
		Audience: flags.audience,
	}

	res, err := instance.Orchestrator.Run(cmd.Context(), query, qctx)
	if err != nil {
		return fmt.Errorf("run harvest: %w", err)
	}
	if res.Degraded {
		logger.Warn("harvest completed degraded", zap.String("reason", res.DegradedReason))
	}

	doc := report.Build(res)
	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	if flags.out != "" {
		if err := os.WriteFile(flags.out, payload, 0o600); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		logger.Info("report written",
			zap.String("path", flags.out),
			zap.Int("items", len(res.RankedItems)),
		)
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(payload))
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
