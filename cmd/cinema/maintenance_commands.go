package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"cinema/internal/catalog"
)

const maxDuplicateGroupsShown = 10

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var domainFlag string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report row counts, source distribution and duplicate titles",
		RunE: func(cmd *cobra.Command, args []string) error {
			domains, err := parseDomains(domainFlag)
			if err != nil {
				return err
			}
			return ctx.withStores(cmd, domains, func(runCtx context.Context, set *storeSet) error {
				reports := make([]catalog.CheckReport, 0, len(domains))
				for _, domain := range domains {
					report, err := set.get(domain).Check(runCtx)
					if err != nil {
						return fmt.Errorf("check %s: %w", domain, err)
					}
					reports = append(reports, report)
				}
				if jsonOut {
					return writeJSON(cmd, reports)
				}
				for i, report := range reports {
					if i > 0 {
						fmt.Fprintln(cmd.OutOrStdout())
					}
					printCheckReport(cmd, report)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&domainFlag, "domain", "d", "all", "Catalog domain (movie, tvshow, or all)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output")
	return cmd
}

func printCheckReport(cmd *cobra.Command, report catalog.CheckReport) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s)\n", report.Domain, report.Path)
	fmt.Fprintf(out, "Total records: %d\n", report.Total)
	fmt.Fprintf(out, "Integrity check: %s\n", yesNo(report.IntegrityCheck))
	if len(report.MissingColumns) > 0 {
		fmt.Fprintf(out, "Missing columns: %s\n", strings.Join(report.MissingColumns, ", "))
	}
	fmt.Fprintf(out, "Pool: %d connections, %d free\n", report.Pool.Size, report.Pool.Free)

	rows := make([][]string, 0, len(report.Sources))
	for _, sc := range report.Sources {
		rows = append(rows, []string{sc.Source, strconv.Itoa(sc.Count)})
	}
	fmt.Fprintln(out, renderTable(out, []string{"Source", "Records"}, rows, []columnAlignment{alignLeft, alignRight}))

	if len(report.Duplicates) == 0 {
		fmt.Fprintln(out, "No duplicate titles found")
		return
	}
	fmt.Fprintf(out, "Found %d duplicate titles:\n", len(report.Duplicates))
	for i, group := range report.Duplicates {
		if i == maxDuplicateGroupsShown {
			fmt.Fprintf(out, "  ... %d more\n", len(report.Duplicates)-maxDuplicateGroupsShown)
			break
		}
		fmt.Fprintf(out, "  %d. %s (director: %s) - %d records\n", i+1, group.Name, group.Director, len(group.Members))
		for _, member := range group.Members {
			fmt.Fprintf(out, "     ID: %d, source: %s\n", member.ID, member.Source)
		}
	}
}

func newBackupCommand(ctx *commandContext) *cobra.Command {
	var domainFlag string
	var dirFlag string

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write dated snapshot copies of the catalog databases",
		RunE: func(cmd *cobra.Command, args []string) error {
			domains, err := parseDomains(domainFlag)
			if err != nil {
				return err
			}
			dir := strings.TrimSpace(dirFlag)
			if dir == "" {
				dir = ctx.configValue().Paths.BackupDir
			}
			return ctx.withStores(cmd, domains, func(runCtx context.Context, set *storeSet) error {
				now := time.Now()
				for _, domain := range domains {
					target, err := set.get(domain).Backup(runCtx, dir, now)
					if err != nil {
						return fmt.Errorf("backup %s: %w", domain, err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", domain, target)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&domainFlag, "domain", "d", "all", "Catalog domain (movie, tvshow, or all)")
	cmd.Flags().StringVar(&dirFlag, "dir", "", "Backup directory (default paths.backup_dir)")
	return cmd
}
