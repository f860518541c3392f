package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"musicreplacer/internal/media"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search YouTube for candidate override audio",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.openRuntime(cmd, runtimeOptions{})
			if err != nil {
				return err
			}
			defer rt.Close()

			if limit <= 0 {
				limit = rt.cfg.Extractor.SearchLimit
			}
			items, err := rt.extractor.Search(cmd.Context(), strings.Join(args, " "), limit)
			if err != nil {
				return err
			}
			if asJSON {
				if items == nil {
					items = []media.StreamItem{}
				}
				return writeJSON(cmd, items)
			}
			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(out, "No results")
				return nil
			}
			fmt.Fprintln(out, renderTable(searchColumns, searchRows(items)))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum results (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func searchRows(items []media.StreamItem) [][]string {
	rows := make([][]string, 0, len(items))
	for i, item := range items {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			item.Name,
			formatClock(item.Duration.Seconds()),
			item.UploaderName,
			item.URL,
		})
	}
	return rows
}

// formatClock renders seconds as m:ss or h:mm:ss.
func formatClock(seconds float64) string {
	if seconds <= 0 {
		return "-"
	}
	total := int(seconds + 0.5)
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
