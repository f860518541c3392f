package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"musicreplacer/internal/config"
	"musicreplacer/internal/media"
	"musicreplacer/internal/overrides"
)

func newOverrideCommand(ctx *commandContext) *cobra.Command {
	overrideCmd := &cobra.Command{
		Use:     "override",
		Aliases: []string{"overrides"},
		Short:   "Manage replacement music for game tracks",
	}
	overrideCmd.AddCommand(newOverrideListCommand(ctx))
	overrideCmd.AddCommand(newOverrideShowCommand(ctx))
	overrideCmd.AddCommand(newOverrideAddCommand(ctx))
	overrideCmd.AddCommand(newOverrideBulkCommand(ctx))
	overrideCmd.AddCommand(newOverrideRemoveCommand(ctx))
	overrideCmd.AddCommand(newOverrideClearCommand(ctx))
	return overrideCmd
}

func newOverrideListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List overridden tracks",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.openRuntime(cmd, runtimeOptions{})
			if err != nil {
				return err
			}
			defer rt.Close()

			list, err := rt.overrides.List(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, list)
			}
			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, "No overrides")
				return nil
			}
			rows := make([][]string, 0, len(list))
			for _, o := range list {
				rows = append(rows, []string{
					o.Name,
					overrideSource(o),
					o.AdditionalInfo[overrides.InfoDuration],
					o.OriginalPath,
				})
			}
			fmt.Fprintln(out, renderTable(overrideColumns, rows))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func newOverrideShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <track>",
		Short: "Show the override for a track",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.openRuntime(cmd, runtimeOptions{})
			if err != nil {
				return err
			}
			defer rt.Close()

			o, err := rt.overrides.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if o == nil {
				return fmt.Errorf("no override for %q", args[0])
			}
			if asJSON {
				return writeJSON(cmd, o)
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, line := range renderSectionHeader(o.Name, colorize) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out, renderField("Source", overrideSource(o)))
			fmt.Fprintln(out, renderField("Origin", o.OriginalPath))
			fmt.Fprintln(out, renderField("File", o.Path(rt.overrides.Dir())))
			keys := make([]string, 0, len(o.AdditionalInfo))
			for key := range o.AdditionalInfo {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			for _, key := range keys {
				fmt.Fprintln(out, renderField(key, o.AdditionalInfo[key]))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func newOverrideAddCommand(ctx *commandContext) *cobra.Command {
	var (
		file   string
		url    string
		title  string
		search string
		pick   int
	)

	cmd := &cobra.Command{
		Use:   "add <track>",
		Short: "Override a track from a local .wav file, a video URL, or a YouTube search",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			sources := 0
			for _, value := range []string{file, url, search} {
				if strings.TrimSpace(value) != "" {
					sources++
				}
			}
			if sources != 1 {
				return errors.New("exactly one of --file, --url, or --search is required")
			}

			rt, err := ctx.openRuntime(cmd, runtimeOptions{exclusive: true, progress: progressTarget(cmd)})
			if err != nil {
				return err
			}
			defer rt.Close()

			var id string
			switch {
			case strings.TrimSpace(file) != "":
				path, err := config.ExpandPath(strings.TrimSpace(file))
				if err != nil {
					return err
				}
				id, err = rt.overrides.SubmitFromFile(cmd.Context(), name, path)
				if err != nil {
					return err
				}
			default:
				item := media.StreamItem{URL: strings.TrimSpace(url), Name: strings.TrimSpace(title)}
				if q := strings.TrimSpace(search); q != "" {
					item, err = pickSearchResult(cmd, rt, q, pick)
					if err != nil {
						return err
					}
				}
				id, err = rt.overrides.CreateFromStream(cmd.Context(), name, item)
				if err != nil {
					return err
				}
			}

			if err := rt.await(id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Override for %s created\n", name)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Local .wav file to use")
	cmd.Flags().StringVar(&url, "url", "", "Video page URL to convert")
	cmd.Flags().StringVar(&title, "title", "", "Display name recorded with --url")
	cmd.Flags().StringVar(&search, "search", "", "Search YouTube and use a result")
	cmd.Flags().IntVar(&pick, "pick", 1, "Search result to use (1-based)")
	return cmd
}

func pickSearchResult(cmd *cobra.Command, rt *runtime, query string, pick int) (media.StreamItem, error) {
	if pick < 1 {
		return media.StreamItem{}, fmt.Errorf("--pick must be at least 1, got %d", pick)
	}
	limit := max(rt.cfg.Extractor.SearchLimit, pick)
	items, err := rt.extractor.Search(cmd.Context(), query, limit)
	if err != nil {
		return media.StreamItem{}, err
	}
	if pick > len(items) {
		return media.StreamItem{}, fmt.Errorf("search for %q returned %d results, cannot pick %d", query, len(items), pick)
	}
	item := items[pick-1]
	fmt.Fprintf(cmd.OutOrStdout(), "Using %q (%s)\n", item.Name, item.URL)
	return item, nil
}

func newOverrideBulkCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "bulk <dir>",
		Short: "Override every track with a matching file in a directory",
		Long: "Every file whose name, up to the first dot, matches a known track " +
			"is copied as that track's override. Files must be .wav.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := config.ExpandPath(strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			rt, err := ctx.openRuntime(cmd, runtimeOptions{exclusive: true, progress: progressTarget(cmd)})
			if err != nil {
				return err
			}
			defer rt.Close()

			before, err := rt.overrides.OverriddenTracks(cmd.Context())
			if err != nil {
				return err
			}
			id, err := rt.overrides.BulkCreate(cmd.Context(), dir)
			if err != nil {
				return err
			}
			taskErr := rt.await(id)
			after, err := rt.overrides.OverriddenTracks(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Overrides: %d before, %d after\n", len(before), len(after))
			return taskErr
		},
	}
}

func newOverrideRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <track>",
		Aliases: []string{"rm"},
		Short:   "Remove the override for a track",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.openRuntime(cmd, runtimeOptions{exclusive: true})
			if err != nil {
				return err
			}
			defer rt.Close()

			id, err := rt.overrides.Remove(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if id == "" {
				fmt.Fprintf(out, "No override for %s\n", args[0])
				return nil
			}
			if err := rt.await(id); err != nil {
				return err
			}
			fmt.Fprintf(out, "Override for %s removed\n", args[0])
			return nil
		},
	}
}

func newOverrideClearCommand(ctx *commandContext) *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every override",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return errors.New("refusing to remove every override without --yes")
			}
			rt, err := ctx.openRuntime(cmd, runtimeOptions{exclusive: true})
			if err != nil {
				return err
			}
			defer rt.Close()

			ids, removeErr := rt.overrides.RemoveAll(cmd.Context())
			taskErr := rt.await(ids...)
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d override(s)\n", len(ids))
			return errors.Join(removeErr, taskErr)
		},
	}
	cmd.Flags().BoolVarP(&confirm, "yes", "y", false, "Confirm removing every override")
	return cmd
}

func overrideSource(o *overrides.TrackOverride) string {
	if o.FromLocal {
		return "local"
	}
	return "remote"
}
