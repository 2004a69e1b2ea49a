package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/phishscan/internal/database"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show detections recorded with --save",
		Long: `History lists detections stored in the history database, newest first.

Detections are only stored when "detect --save" or "serve --save" is used.
Stored verdicts are never reused: every check runs the full procedure.

Examples:
  # Show the 50 most recent detections
  phishscan history

  # Show phishing verdicts for one domain
  phishscan history --domain evilphisher.org --phishing

  # Per-domain statistics as JSON
  phishscan history --domains --json`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().String("domain", "",
		"Only show detections whose canonical domain matches exactly")
	cmd.Flags().Bool("phishing", false,
		"Only show phishing verdicts")
	cmd.Flags().IntP("limit", "n", database.DefaultListLimit,
		"Maximum number of detections to show")
	cmd.Flags().Bool("domains", false,
		"Show per-domain statistics instead of detections")
	addDBDirFlag(cmd)
	addReportFlags(cmd)

	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) (err error) {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.ValidateSettings(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	setupLogger(cmd.ErrOrStderr(), cfg.Verbose)

	flags := cmd.Flags()
	domain, err := flags.GetString("domain")
	if err != nil {
		return err
	}
	phishingOnly, err := flags.GetBool("phishing")
	if err != nil {
		return err
	}
	limit, err := flags.GetInt("limit")
	if err != nil {
		return err
	}
	showDomains, err := flags.GetBool("domains")
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	out, closeOut, err := openOutput(cmd, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeOut(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close output file: %w", cerr)
		}
	}()

	ctx := commandContext(cmd)
	if showDomains {
		stats, err := db.Domains(ctx)
		if err != nil {
			return err
		}
		switch {
		case cfg.JSONReport:
			return writeDomainsJSON(out, stats)
		case cfg.MarkdownReport:
			return writeDomainsMarkdown(out, stats)
		default:
			return writeDomainsText(out, stats)
		}
	}

	detections, err := db.ListDetections(ctx, database.ListFilter{
		Domain:       domain,
		PhishingOnly: phishingOnly,
		Limit:        limit,
	})
	if err != nil {
		return err
	}
	_, err = newReportWriter(out, cfg).WriteSummary(detections)
	return err
}

func writeDomainsJSON(w io.Writer, stats []database.DomainStat) error {
	if stats == nil {
		stats = []database.DomainStat{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(stats)
}

func writeDomainsMarkdown(w io.Writer, stats []database.DomainStat) error {
	md := markdown.NewMarkdown(w)
	md.H2("Domains")
	md.PlainText("")
	if len(stats) == 0 {
		md.PlainText("No detections recorded.")
		return md.Build()
	}

	rows := make([][]string, 0, len(stats))
	for _, s := range stats {
		rows = append(rows, []string{
			"`" + s.Domain + "`",
			strconv.Itoa(s.Checks),
			strconv.Itoa(s.Phishing),
			s.LastChecked.Format(time.RFC3339),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Domain", "Checks", "Phishing", "Last Checked"},
		Rows:   rows,
	})
	return md.Build()
}

func writeDomainsText(w io.Writer, stats []database.DomainStat) error {
	if len(stats) == 0 {
		_, err := fmt.Fprintln(w, "No detections recorded.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DOMAIN\tCHECKS\tPHISHING\tLAST CHECKED")
	for _, s := range stats {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", s.Domain, s.Checks, s.Phishing, s.LastChecked.Format(time.RFC3339))
	}
	return tw.Flush()
}
