package preflight

import (
	"context"

	"musicreplacer/internal/config"
	"musicreplacer/internal/convert"
)

// Result reports the outcome of a single preflight check. Optional checks
// degrade features rather than block them.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// Options tunes RunAll.
type Options struct {
	// SkipNetwork omits checks that contact remote services.
	SkipNetwork bool
	// Doer performs the converter reachability check; nil uses a short-timeout client.
	Doer convert.HTTPDoer
}

// RunAll executes every applicable check for cfg.
func RunAll(ctx context.Context, cfg *config.Config, opts Options) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Overrides directory", cfg.Paths.OverridesDir),
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckTrackList(ctx, cfg.Paths.TrackList),
	}
	if !opts.SkipNetwork {
		results = append(results, CheckConverter(ctx, cfg.Converter.Endpoint, opts.Doer))
	}
	return results
}

// Failed returns the non-optional results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			failed = append(failed, r)
		}
	}
	return failed
}
