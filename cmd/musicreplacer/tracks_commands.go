package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

type trackRow struct {
	Name       string `json:"name"`
	Overridden bool   `json:"overridden"`
}

func newTracksCommand(ctx *commandContext) *cobra.Command {
	tracksCmd := &cobra.Command{
		Use:   "tracks",
		Short: "Inspect the known game track names",
	}
	tracksCmd.AddCommand(newTracksListCommand(ctx))
	tracksCmd.AddCommand(newTracksExistsCommand(ctx))
	return tracksCmd
}

func newTracksListCommand(ctx *commandContext) *cobra.Command {
	var filter string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List track names and whether each is overridden",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.openRuntime(cmd, runtimeOptions{})
			if err != nil {
				return err
			}
			defer rt.Close()

			names, err := rt.overrides.Tracks(cmd.Context())
			if err != nil {
				return fmt.Errorf("load track names from %s: %w", rt.cfg.Paths.TrackList, err)
			}
			overridden, err := rt.overrides.OverriddenTracks(cmd.Context())
			if err != nil {
				return err
			}
			set := make(map[string]struct{}, len(overridden))
			for _, name := range overridden {
				set[name] = struct{}{}
			}

			needle := strings.ToLower(strings.TrimSpace(filter))
			rows := make([]trackRow, 0, len(names))
			for _, name := range names {
				if needle != "" && !strings.Contains(strings.ToLower(name), needle) {
					continue
				}
				_, ok := set[name]
				rows = append(rows, trackRow{Name: name, Overridden: ok})
			}

			if asJSON {
				return writeJSON(cmd, rows)
			}
			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, "No tracks found")
				return nil
			}
			table := make([][]string, 0, len(rows))
			for _, row := range rows {
				table = append(table, []string{row.Name, yesNo(row.Overridden)})
			}
			fmt.Fprintln(out, renderTable(trackColumns, table))
			return nil
		},
	}
	cmd.Flags().StringVarP(&filter, "filter", "f", "", "Only show tracks containing this text")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func newTracksExistsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "exists <name>",
		Short: "Report whether a track name is known",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.openRuntime(cmd, runtimeOptions{})
			if err != nil {
				return err
			}
			defer rt.Close()

			known := rt.overrides.Exists(cmd.Context(), args[0])
			fmt.Fprintln(cmd.OutOrStdout(), yesNo(known))
			return nil
		},
	}
}
