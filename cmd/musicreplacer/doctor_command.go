package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"musicreplacer/internal/deps"
	"musicreplacer/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check external tools, configured locations, and the converter",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			for _, line := range renderSectionHeader("Dependencies", colorize) {
				fmt.Fprintln(out, line)
			}
			statuses := deps.CheckBinaries(deps.Requirements(cfg))
			for _, line := range dependencyLines(statuses, colorize) {
				fmt.Fprintln(out, line)
			}

			fmt.Fprintln(out)
			for _, line := range renderSectionHeader("Preflight", colorize) {
				fmt.Fprintln(out, line)
			}
			results := preflight.RunAll(cmd.Context(), cfg, preflight.Options{SkipNetwork: offline})
			for _, line := range preflightLines(results, colorize) {
				fmt.Fprintln(out, line)
			}

			missing := len(deps.MissingRequired(statuses))
			failed := len(preflight.Failed(results))
			if missing > 0 || failed > 0 {
				return fmt.Errorf("doctor found %d missing dependency(ies) and %d failed check(s)", missing, failed)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "Skip the converter reachability check")
	return cmd
}
