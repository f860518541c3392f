package overrides

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"musicreplacer/internal/catalog"
	"musicreplacer/internal/convert"
	"musicreplacer/internal/logging"
	"musicreplacer/internal/media"
	"musicreplacer/internal/services"
	"musicreplacer/internal/settings"
)

// TrackSet answers which track names can be overridden.
type TrackSet interface {
	Exists(ctx context.Context, name string) bool
	Names(ctx context.Context) ([]string, error)
}

// Submitter schedules background work and returns a task ID.
type Submitter interface {
	Submit(label string, fn func(ctx context.Context) error) (string, error)
}

// ProgressFunc returns a writer that observes the bytes staged for a track.
// total is -1 when the size is unknown. A returned io.Closer is closed once
// the transfer ends.
type ProgressFunc func(name string, total int64) io.Writer

// Deps are the collaborators a Manager works with.
type Deps struct {
	Tracks    TrackSet
	Store     settings.Store
	Pool      Submitter
	Resolver  media.Resolver
	Converter convert.Converter
	Logger    *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithProgress reports staged bytes through fn.
func WithProgress(fn ProgressFunc) Option {
	return func(m *Manager) { m.progress = fn }
}

// WithAudioFormat overrides the stream container requested from the resolver.
func WithAudioFormat(format string) Option {
	return func(m *Manager) {
		if format = strings.TrimSpace(format); format != "" {
			m.audioFormat = format
		}
	}
}

// Manager creates, reads, and removes track overrides.
type Manager struct {
	dir         string
	group       string
	tracks      TrackSet
	store       settings.Store
	pool        Submitter
	resolver    media.Resolver
	converter   convert.Converter
	logger      *slog.Logger
	progress    ProgressFunc
	audioFormat string
}

// New builds a Manager staging files in dir and records in the settings group.
func New(dir, group string, deps Deps, opts ...Option) (*Manager, error) {
	switch {
	case strings.TrimSpace(dir) == "":
		return nil, errors.New("overrides directory required")
	case strings.TrimSpace(group) == "":
		return nil, errors.New("settings group required")
	case deps.Tracks == nil:
		return nil, errors.New("track set required")
	case deps.Store == nil:
		return nil, errors.New("settings store required")
	case deps.Pool == nil:
		return nil, errors.New("work pool required")
	}
	m := &Manager{
		dir:         dir,
		group:       group,
		tracks:      deps.Tracks,
		store:       deps.Store,
		pool:        deps.Pool,
		resolver:    deps.Resolver,
		converter:   deps.Converter,
		logger:      logging.NewComponentLogger(deps.Logger, "overrides"),
		audioFormat: media.DefaultAudioFormat,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Dir returns the directory overrides are staged in.
func (m *Manager) Dir() string { return m.dir }

// Exists reports whether name is a known game track.
func (m *Manager) Exists(ctx context.Context, name string) bool {
	return m.tracks.Exists(ctx, name)
}

// Tracks returns every known game track name in order.
func (m *Manager) Tracks(ctx context.Context) ([]string, error) {
	return m.tracks.Names(ctx)
}

// OverrideExists reports whether a record is stored for name. It does not
// check the backing file.
func (m *Manager) OverrideExists(ctx context.Context, name string) (bool, error) {
	name = catalog.Normalize(name)
	_, ok, err := m.store.Get(ctx, m.group, Key(name))
	if err != nil {
		return false, fmt.Errorf("check override %q: %w", name, err)
	}
	return ok, nil
}

// OverriddenTracks lists the names with a stored record, sorted.
func (m *Manager) OverriddenTracks(ctx context.Context) ([]string, error) {
	keys, err := m.store.Keys(ctx, m.group)
	if err != nil {
		return nil, fmt.Errorf("list overrides: %w", err)
	}
	names := make([]string, 0, len(keys))
	for _, key := range keys {
		if name, ok := strings.CutPrefix(key, KeyPrefix); ok && name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Get returns the override for name, or nil when there is none. A record
// whose staged file is missing, or that cannot be decoded, is deleted and
// reported as absent.
func (m *Manager) Get(ctx context.Context, name string) (*TrackOverride, error) {
	name = catalog.Normalize(name)
	raw, ok, err := m.store.Get(ctx, m.group, Key(name))
	if err != nil {
		return nil, fmt.Errorf("read override %q: %w", name, err)
	}
	if !ok {
		return nil, nil
	}
	logger := logging.WithContext(services.WithTrack(ctx, name), m.logger)

	var override TrackOverride
	if err := json.Unmarshal([]byte(raw), &override); err != nil {
		logging.WarnWithContext(logger, "deleting unreadable override record", "override_self_heal",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "recreate the override"),
			logging.String(logging.FieldImpact, "track plays its original music"),
		)
		return nil, m.unset(ctx, name)
	}
	// The key, not the stored field, decides where the file lives.
	override.Name = name

	path := override.Path(m.dir)
	if _, err := os.Stat(path); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat override file %q: %w", path, err)
		}
		logging.WarnWithContext(logger, "deleting override without a staged file", "override_self_heal",
			logging.String("path", path),
			logging.String(logging.FieldErrorHint, "recreate the override"),
			logging.String(logging.FieldImpact, "track plays its original music"),
		)
		return nil, m.unset(ctx, name)
	}
	return &override, nil
}

// List returns every valid override, healing stale records on the way.
func (m *Manager) List(ctx context.Context) ([]*TrackOverride, error) {
	names, err := m.OverriddenTracks(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*TrackOverride, 0, len(names))
	for _, name := range names {
		override, err := m.Get(ctx, name)
		if err != nil {
			return nil, err
		}
		if override != nil {
			out = append(out, override)
		}
	}
	return out, nil
}

func (m *Manager) commit(ctx context.Context, override *TrackOverride) error {
	data, err := json.Marshal(override)
	if err != nil {
		return fmt.Errorf("encode override: %w", err)
	}
	if err := m.store.Set(ctx, m.group, Key(override.Name), string(data)); err != nil {
		return fmt.Errorf("store override %q: %w", override.Name, err)
	}
	return nil
}

func (m *Manager) unset(ctx context.Context, name string) error {
	if err := m.store.Unset(ctx, m.group, Key(name)); err != nil {
		return fmt.Errorf("delete override %q: %w", name, err)
	}
	return nil
}
