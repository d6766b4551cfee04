package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"cinema/internal/extract"
)

func newExtractCommand() *cobra.Command {
	var layout string
	var pageURL string
	var strict bool

	cmd := &cobra.Command{
		Use:         "extract <page.html>...",
		Short:       "Parse saved detail pages into JSON Lines candidates",
		Long:        "Layouts: " + strings.Join(extract.Layouts(), ", ") + ". Output feeds `cinema ingest`.",
		Args:        cobra.MinimumNArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			parser, err := extract.Lookup(layout)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetEscapeHTML(false)
			for _, path := range args {
				html, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read %s: %w", path, err)
				}
				base := pageURL
				if base == "" {
					base = "file://" + path
				}
				cand, err := parser(html, base)
				if err != nil {
					if !strict && errors.Is(err, extract.ErrNotDetailPage) {
						fmt.Fprintf(cmd.ErrOrStderr(), "skip %s: %v\n", path, err)
						continue
					}
					return fmt.Errorf("parse %s: %w", path, err)
				}
				if err := enc.Encode(cand); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&layout, "layout", "l", "", "Page layout ("+strings.Join(extract.Layouts(), ", ")+")")
	cmd.Flags().StringVar(&pageURL, "url", "", "Original page URL used to resolve relative cover links")
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail on pages that are not detail pages instead of skipping them")
	_ = cmd.MarkFlagRequired("layout")
	return cmd
}
