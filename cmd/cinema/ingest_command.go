package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"cinema/internal/catalog"
	"cinema/internal/ingest"
	"cinema/internal/logging"
)

func newIngestCommand(ctx *commandContext) *cobra.Command {
	var domainFlag string
	var workers int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "ingest [file...]",
		Short: "Reconcile JSON Lines candidates into a catalog",
		Long: "Reads one candidate per line from each file (or stdin when no file or \"-\" is given)\n" +
			"and merges it into the catalog of the selected domain.",
		RunE: func(cmd *cobra.Command, args []string) error {
			domain, err := catalog.ParseDomain(domainFlag)
			if err != nil {
				return err
			}
			cfg := ctx.configValue()
			if workers <= 0 {
				workers = cfg.Ingest.Workers
			}
			if len(args) == 0 {
				args = []string{"-"}
			}

			return ctx.withStores(cmd, []catalog.Domain{domain}, func(runCtx context.Context, set *storeSet) error {
				runner := &ingest.Runner{
					Store:   set.get(domain),
					Workers: workers,
					Retry: ingest.RetryPolicy{
						Attempts: cfg.Ingest.RetryAttempts,
						Backoff:  cfg.RetryBackoff(),
					},
					Logger: logging.NewComponentLogger(ctx.loggerValue(), "ingest"),
				}

				totals := make(map[string]ingest.Summary, len(args))
				order := make([]string, 0, len(args))
				for _, name := range args {
					summary, err := ingestInput(runCtx, cmd, runner, name)
					totals[name] = summary
					order = append(order, name)
					if err != nil {
						return fmt.Errorf("ingest %s: %w", name, err)
					}
				}

				if jsonOut {
					return writeJSON(cmd, totals)
				}
				rows := make([][]string, 0, len(order))
				for _, name := range order {
					s := totals[name]
					rows = append(rows, []string{
						name,
						strconv.Itoa(s.Read),
						strconv.Itoa(s.Created),
						strconv.Itoa(s.Updated),
						strconv.Itoa(s.Skipped),
						strconv.Itoa(s.Failed),
						strconv.Itoa(s.Retries),
					})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(out,
					[]string{"Input", "Read", "Created", "Updated", "Skipped", "Failed", "Retries"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
				))
				for _, name := range order {
					for _, failure := range totals[name].Failures {
						fmt.Fprintf(out, "%s:%d %s [%s] %s\n", name, failure.Line, failure.Name, failure.Kind, failure.Error)
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&domainFlag, "domain", "d", string(catalog.DomainMovie), "Catalog domain (movie or tvshow)")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Concurrent reconcilers (default ingest.workers)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output")
	return cmd
}

func ingestInput(ctx context.Context, cmd *cobra.Command, runner *ingest.Runner, name string) (ingest.Summary, error) {
	var input io.Reader
	if name == "-" {
		input = cmd.InOrStdin()
	} else {
		file, err := os.Open(name)
		if err != nil {
			return ingest.Summary{}, err
		}
		defer file.Close()
		input = file
	}
	return runner.Run(ctx, input)
}
