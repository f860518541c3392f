package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"musicreplacer/internal/catalog"
	"musicreplacer/internal/config"
	"musicreplacer/internal/convert"
	"musicreplacer/internal/instance"
	"musicreplacer/internal/logging"
	"musicreplacer/internal/media"
	"musicreplacer/internal/overrides"
	"musicreplacer/internal/settings"
	"musicreplacer/internal/workpool"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) logLevel() string {
	if c.logLevelFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.logLevelFlag)
}

// runtime holds the collaborators one command invocation works with.
type runtime struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *settings.SQLiteStore
	pool      *workpool.Pool
	catalog   *catalog.Catalog
	extractor *media.Extractor
	converter *convert.Client
	overrides *overrides.Manager
	lock      *instance.Lock
}

type runtimeOptions struct {
	// exclusive takes the single-instance lock before touching the store.
	exclusive bool
	// progress receives download progress bars; nil disables them.
	progress io.Writer
}

func (c *commandContext) openRuntime(cmd *cobra.Command, opts runtimeOptions) (*runtime, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.NewFromConfig(cfg, c.logLevel())
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	rt := &runtime{cfg: cfg, logger: logger}
	if opts.exclusive {
		lock, err := instance.Acquire(cfg.LockPath())
		if err != nil {
			if errors.Is(err, instance.ErrLocked) {
				return nil, fmt.Errorf("another musicreplacer process holds %s; stop it or wait for it to finish", cfg.LockPath())
			}
			return nil, err
		}
		rt.lock = lock
	}

	store, err := settings.OpenSQLite(cmd.Context(), cfg.Paths.StorePath)
	if err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("open settings store: %w", err)
	}
	rt.store = store

	rt.extractor, err = media.New(cfg.Extractor.Binary, cfg.ExtractorSocketTimeout(), media.WithLogger(logger))
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	rt.converter = convert.NewConfiguredClient(cfg)
	rt.catalog = catalog.New(catalog.FileSource{Path: cfg.Paths.TrackList}, logger)
	rt.pool = workpool.New(cfg.Pool.Workers, cfg.Pool.QueueSize, logger)

	managerOpts := []overrides.Option{}
	if opts.progress != nil {
		managerOpts = append(managerOpts, overrides.WithProgress(newProgressFunc(opts.progress)))
	}
	rt.overrides, err = overrides.New(cfg.Paths.OverridesDir, cfg.Store.Group, overrides.Deps{
		Tracks:    rt.catalog,
		Store:     store,
		Pool:      rt.pool,
		Resolver:  rt.extractor,
		Converter: rt.converter,
		Logger:    logger,
	}, managerOpts...)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	return rt, nil
}

// await blocks until the pool is idle and reports the failed tasks among ids.
func (r *runtime) await(ids ...string) error {
	r.pool.Wait()
	var errs []error
	for _, id := range ids {
		task, ok := r.pool.Task(id)
		if ok && task.Status == workpool.StatusFailed {
			errs = append(errs, fmt.Errorf("%s: %s", task.Label, task.Error))
		}
	}
	return errors.Join(errs...)
}

func (r *runtime) Close() error {
	if r == nil {
		return nil
	}
	if r.pool != nil {
		r.pool.Close()
	}
	var errs []error
	if r.store != nil {
		errs = append(errs, r.store.Close())
	}
	if r.lock != nil {
		errs = append(errs, r.lock.Release())
	}
	return errors.Join(errs...)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func progressTarget(cmd *cobra.Command) io.Writer {
	if w := cmd.ErrOrStderr(); shouldColorize(w) {
		return w
	}
	return nil
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
