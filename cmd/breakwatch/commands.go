package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rpggio/breakwatch/internal/analysis"
	"github.com/rpggio/breakwatch/internal/backup"
	"github.com/rpggio/breakwatch/internal/domain/scan"
	"github.com/rpggio/breakwatch/internal/report"
)

func newReportCmd() *cobra.Command {
	var (
		days    int
		asJSON  bool
		records bool
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Analyze the stored scans and print the dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 0 || days > analysis.MaxTrendDays {
				return fmt.Errorf("--days must be between 0 and %d", analysis.MaxTrendDays)
			}
			env, err := openEnvironment(true)
			if err != nil {
				return err
			}
			defer env.close()

			res, err := env.app.Analysis.RunWith(cmd.Context(), analysis.Options{TrendDays: days})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return backup.EncodeReport(out, backup.NewReportDocument(res, res.GeneratedAt))
			}
			if err := report.RenderDashboard(out, res); err != nil {
				return err
			}
			if records {
				loc, _ := env.cfg.Location()
				fmt.Fprintln(out)
				return report.RenderRecords(out, res.Records, loc)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "trend window in days (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report document as JSON")
	cmd.Flags().BoolVar(&records, "records", false, "also list every interval record")
	return cmd
}

func newBackupCmd() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write a full backup document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnvironment(true)
			if err != nil {
				return err
			}
			defer env.close()

			doc, err := env.app.Backups.ExportBackup(cmd.Context())
			if err != nil {
				return err
			}
			if outPath == "" {
				return backup.EncodeBackup(cmd.OutOrStdout(), doc)
			}
			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("create backup file: %w", err)
			}
			if err := backup.EncodeBackup(f, doc); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d events and %d identities to %s\n", len(doc.Events), len(doc.Identities), outPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")
	return cmd
}

func newRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <file>",
		Short: "Replace stored data with the sections of a backup document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open backup file: %w", err)
			}
			defer f.Close()

			env, err := openEnvironment(true)
			if err != nil {
				return err
			}
			defer env.close()

			result, err := env.app.Backups.Restore(cmd.Context(), f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "restored %v (events %d, identities %d)\n", result.Sections, result.Events, result.Identities)
			return nil
		},
	}
}

func newScanCmd() *cobra.Command {
	var (
		at     string
		status string
	)
	cmd := &cobra.Command{
		Use:   "scan <badge>",
		Short: "Record one badge scan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnvironment(true)
			if err != nil {
				return err
			}
			defer env.close()

			ev, err := env.app.Scans.Ingest(cmd.Context(), scan.IngestRequest{
				BadgeCode: args[0],
				Timestamp: at,
				Status:    scan.Status(status),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", ev.BadgeCode, ev.Timestamp.Format("2006-01-02 15:04:05"), ev.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "scan time, RFC 3339 or YYYY-MM-DD HH:MM[:SS] (default now)")
	cmd.Flags().StringVar(&status, "status", "", "capture status: success or error")
	return cmd
}
