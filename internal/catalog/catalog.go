// Package catalog exposes the set of game track names that can be overridden.
package catalog

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"

	"musicreplacer/internal/logging"
)

// NameSource supplies the raw track names known to the host.
type NameSource interface {
	TrackNames(ctx context.Context) ([]string, error)
}

// StaticSource serves a fixed list of names.
type StaticSource []string

func (s StaticSource) TrackNames(context.Context) ([]string, error) {
	out := make([]string, len(s))
	copy(out, s)
	return out, nil
}

// FileSource reads one track name per line. Blank lines and lines starting
// with '#' are ignored.
type FileSource struct {
	Path string
}

func (f FileSource) TrackNames(context.Context) ([]string, error) {
	if strings.TrimSpace(f.Path) == "" {
		return nil, errors.New("track list path is empty")
	}
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open track list: %w", err)
	}
	defer file.Close()

	var names []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read track list: %w", err)
	}
	return names, nil
}

// Catalog lazily loads and caches the sorted, de-duplicated track names.
type Catalog struct {
	source NameSource
	logger *slog.Logger

	once  sync.Once
	names []string
	index map[string]struct{}
	err   error
}

// New builds a catalog over source. The source is queried at most once.
func New(source NameSource, logger *slog.Logger) *Catalog {
	return &Catalog{
		source: source,
		logger: logging.NewComponentLogger(logger, "catalog"),
	}
}

func (c *Catalog) load(ctx context.Context) {
	c.once.Do(func() {
		if c.source == nil {
			c.err = errors.New("no track name source configured")
			return
		}
		raw, err := c.source.TrackNames(ctx)
		if err != nil {
			c.err = fmt.Errorf("load track names: %w", err)
			return
		}
		c.index = make(map[string]struct{}, len(raw))
		for _, name := range raw {
			name = Normalize(name)
			if name == "" {
				continue
			}
			if _, dup := c.index[name]; dup {
				continue
			}
			c.index[name] = struct{}{}
			c.names = append(c.names, name)
		}
		sort.Strings(c.names)
		c.logger.Debug("track names loaded", logging.Int("count", len(c.names)))
	})
}

// Names returns a copy of the ordered track name set.
func (c *Catalog) Names(ctx context.Context) ([]string, error) {
	c.load(ctx)
	if c.err != nil {
		return nil, c.err
	}
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out, nil
}

// Exists reports whether name is a known track.
func (c *Catalog) Exists(ctx context.Context, name string) bool {
	c.load(ctx)
	if c.err != nil {
		logging.WarnWithContext(c.logger, "track names unavailable", "catalog_unavailable",
			logging.Error(c.err),
			logging.String(logging.FieldErrorHint, "check paths.track_list"),
			logging.String(logging.FieldImpact, "track treated as unknown"),
		)
		return false
	}
	_, ok := c.index[Normalize(name)]
	return ok
}

// Len returns the number of known tracks, zero when loading failed.
func (c *Catalog) Len(ctx context.Context) int {
	c.load(ctx)
	return len(c.names)
}

// Normalize trims and NFC-normalizes a track name so names typed on
// different platforms compare equal.
func Normalize(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}
