package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"cinema/internal/catalog"
)

func newDedupCommand(ctx *commandContext) *cobra.Command {
	var domainFlag string
	var sourceFlag string
	var auditPath string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "dedup",
		Short: "Remove lower-priority duplicate rows",
		Long: "Deletes every row tagged with the dedup source that shares its name and director\n" +
			"with another row. Each domain runs in one transaction; removed rows are written to an audit log.",
		RunE: func(cmd *cobra.Command, args []string) error {
			domains, err := parseDomains(domainFlag)
			if err != nil {
				return err
			}
			cfg := ctx.configValue()
			source := strings.TrimSpace(sourceFlag)
			if source == "" {
				source = cfg.Dedup.Source
			}
			target := strings.TrimSpace(auditPath)
			if target == "" {
				target = filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("dedup_%s.log", time.Now().Format("20060102")))
			}

			return ctx.withStores(cmd, domains, func(runCtx context.Context, set *storeSet) error {
				reports := make([]catalog.AuditReport, 0, len(domains))
				for _, domain := range domains {
					job, err := catalog.NewDedupJob(set.get(domain), source, catalog.DedupOptions{Logger: ctx.loggerValue()})
					if err != nil {
						return err
					}
					entries, err := job.Run(runCtx)
					if err != nil {
						runErr := fmt.Errorf("dedup %s: %w", domain, err)
						if len(reports) == 0 {
							return runErr
						}
						// Earlier domains already committed their deletions.
						if auditErr := writeAuditFile(target, reports); auditErr != nil {
							return errors.Join(runErr, auditErr)
						}
						return fmt.Errorf("%w (audit log for completed domains written to %s)", runErr, target)
					}
					reports = append(reports, catalog.AuditReport{Domain: domain, Entries: entries})
				}

				if err := writeAuditFile(target, reports); err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, map[string]any{"source": source, "auditLog": target, "reports": reports})
				}
				out := cmd.OutOrStdout()
				for _, report := range reports {
					fmt.Fprintf(out, "%s: removed %d duplicate records (source %s)\n", report.Domain, len(report.Entries), source)
				}
				fmt.Fprintf(out, "Audit log written to %s\n", target)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&domainFlag, "domain", "d", "all", "Catalog domain (movie, tvshow, or all)")
	cmd.Flags().StringVar(&sourceFlag, "source", "", "Source tag to remove (default dedup.source)")
	cmd.Flags().StringVar(&auditPath, "audit-log", "", "Audit log path (default <log_dir>/dedup_YYYYMMDD.log)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output")
	return cmd
}

func writeAuditFile(path string, reports []catalog.AuditReport) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create audit log directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	if err := catalog.WriteAuditLog(file, reports...); err != nil {
		file.Close()
		return fmt.Errorf("write audit log: %w", err)
	}
	return file.Close()
}
