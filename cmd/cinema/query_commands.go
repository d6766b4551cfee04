package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"cinema/internal/catalog"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var domainFlag string
	var query catalog.PageQuery
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List one page of catalog records",
		RunE: func(cmd *cobra.Command, args []string) error {
			domain, err := catalog.ParseDomain(domainFlag)
			if err != nil {
				return err
			}
			return ctx.withStores(cmd, []catalog.Domain{domain}, func(runCtx context.Context, set *storeSet) error {
				records, err := set.get(domain).ListPage(runCtx, query)
				if err != nil {
					return err
				}
				return printRecords(cmd, records, jsonOut)
			})
		},
	}

	cmd.Flags().StringVarP(&domainFlag, "domain", "d", string(catalog.DomainMovie), "Catalog domain (movie or tvshow)")
	cmd.Flags().IntVarP(&query.Page, "page", "p", 1, "Page number (1-based)")
	cmd.Flags().IntVarP(&query.PerPage, "count", "n", catalog.DefaultPerPage, "Records per page")
	cmd.Flags().StringVar(&query.SortBy, "sort-by", catalog.SortByTime, "Sort key (time or score)")
	cmd.Flags().StringVar(&query.SortOrder, "sort-order", catalog.SortDesc, "Sort order (asc or desc)")
	cmd.Flags().StringVar(&query.Area, "area", "", "Only records whose area contains this value")
	cmd.Flags().StringVar(&query.Category, "category", "", "Only records whose category contains this value")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output")
	return cmd
}

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var domainFlag string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "search <name>",
		Short: "Find records whose name contains a substring",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			domain, err := catalog.ParseDomain(domainFlag)
			if err != nil {
				return err
			}
			return ctx.withStores(cmd, []catalog.Domain{domain}, func(runCtx context.Context, set *storeSet) error {
				records, err := set.get(domain).Search(runCtx, args[0])
				if err != nil {
					return err
				}
				return printRecords(cmd, records, jsonOut)
			})
		},
	}

	cmd.Flags().StringVarP(&domainFlag, "domain", "d", string(catalog.DomainMovie), "Catalog domain (movie or tvshow)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output")
	return cmd
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	var domainFlag string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one record with its download links",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			domain, err := catalog.ParseDomain(domainFlag)
			if err != nil {
				return err
			}
			id, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
			if err != nil {
				return fmt.Errorf("invalid id %q", args[0])
			}
			return ctx.withStores(cmd, []catalog.Domain{domain}, func(runCtx context.Context, set *storeSet) error {
				record, err := set.get(domain).Detail(runCtx, id)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, record)
				}
				printRecord(cmd, record)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&domainFlag, "domain", "d", string(catalog.DomainMovie), "Catalog domain (movie or tvshow)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output")
	return cmd
}

func newFacetsCommand(ctx *commandContext) *cobra.Command {
	var domainFlag string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "facets <area|category|language>",
		Short: "List the distinct values of a composite field",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			domain, err := catalog.ParseDomain(domainFlag)
			if err != nil {
				return err
			}
			field, err := catalog.ParseField(args[0])
			if err != nil {
				return err
			}
			return ctx.withStores(cmd, []catalog.Domain{domain}, func(runCtx context.Context, set *storeSet) error {
				values, err := set.get(domain).DistinctValues(runCtx, field)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, values)
				}
				for _, value := range values {
					fmt.Fprintln(cmd.OutOrStdout(), value)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&domainFlag, "domain", "d", string(catalog.DomainMovie), "Catalog domain (movie or tvshow)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output")
	return cmd
}

func printRecords(cmd *cobra.Command, records []catalog.Record, jsonOut bool) error {
	if jsonOut {
		return writeJSON(cmd, records)
	}
	out := cmd.OutOrStdout()
	if len(records) == 0 {
		fmt.Fprintln(out, "No records found")
		return nil
	}
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{
			strconv.FormatInt(rec.ID, 10),
			rec.Name,
			rec.Director,
			strconv.FormatFloat(rec.Score, 'f', 1, 64),
			rec.ReleaseDate,
			strings.Join(rec.DownloadLinks.Sources(), ", "),
		})
	}
	fmt.Fprintln(out, renderTable(out,
		[]string{"ID", "Name", "Director", "Score", "Released", "Sources"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
	))
	return nil
}

func printRecord(cmd *cobra.Command, rec *catalog.Record) {
	out := cmd.OutOrStdout()
	fields := [][2]string{
		{"ID", strconv.FormatInt(rec.ID, 10)},
		{"Name", rec.Name},
		{"Director", rec.Director},
		{"Score", strconv.FormatFloat(rec.Score, 'f', 1, 64)},
		{"Area", rec.Area},
		{"Language", rec.Language},
		{"Category", rec.Category},
		{"Released", rec.ReleaseDate},
		{"Duration", rec.Duration},
		{"Actors", rec.Actors},
		{"Cover", rec.Cover},
		{"Local cover", rec.LocalCover},
		{"Created by", rec.Source},
	}
	for _, field := range fields {
		if field[1] == "" {
			continue
		}
		fmt.Fprintf(out, "%-12s %s\n", field[0]+":", field[1])
	}
	if rec.Summary != "" {
		fmt.Fprintf(out, "\n%s\n", rec.Summary)
	}

	fmt.Fprintln(out)
	for _, source := range rec.DownloadLinks.Sources() {
		link := rec.DownloadLinks[source]
		if !link.IsList() {
			fmt.Fprintf(out, "[%s] %s\n", source, link.URI)
			continue
		}
		fmt.Fprintf(out, "[%s] %d episodes\n", source, len(link.Episodes))
		for _, ep := range link.Episodes {
			fmt.Fprintf(out, "  %s  %s\n", ep.Name, ep.Link)
		}
	}
}
