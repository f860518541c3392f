package overrides

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"musicreplacer/internal/catalog"
	"musicreplacer/internal/logging"
	"musicreplacer/internal/media"
	"musicreplacer/internal/services"
)

// CreateFromFile validates a local WAV file for name and schedules its copy.
// It returns false, after logging why, when the request is rejected.
func (m *Manager) CreateFromFile(ctx context.Context, name, path string) bool {
	if _, err := m.SubmitFromFile(ctx, name, path); err != nil {
		logging.WarnWithContext(logging.WithContext(services.WithTrack(ctx, name), m.logger),
			"override rejected", "override_rejected",
			logging.String("source", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, services.Hint(err)),
			logging.String(logging.FieldImpact, "override not created"),
		)
		return false
	}
	return true
}

// SubmitFromFile is CreateFromFile returning the task ID and rejection cause.
func (m *Manager) SubmitFromFile(ctx context.Context, name, path string) (string, error) {
	name, err := m.validateName(ctx, name)
	if err != nil {
		return "", err
	}
	if !HasAudioExtension(path) {
		return "", services.Wrap(services.ErrValidation, "overrides", "create",
			fmt.Sprintf("only %s files can be used, got %q", Extension, filepath.Base(path)), nil)
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "overrides", "create", "source file unavailable", err)
	}
	if !info.Mode().IsRegular() {
		return "", services.Wrap(services.ErrValidation, "overrides", "create",
			fmt.Sprintf("%q is not a regular file", path), nil)
	}

	return m.pool.Submit("override "+name+" from file", func(ctx context.Context) error {
		override := &TrackOverride{
			Name:           name,
			OriginalPath:   path,
			FromLocal:      true,
			AdditionalInfo: localInfo(path),
		}
		return m.create(services.WithTrack(ctx, name), override)
	})
}

// CreateFromStream schedules resolving item into its best audio stream,
// converting it, and staging the result for name.
func (m *Manager) CreateFromStream(ctx context.Context, name string, item media.StreamItem) (string, error) {
	name, err := m.validateName(ctx, name)
	if err != nil {
		return "", err
	}
	if err := media.ValidatePageURL(item.URL); err != nil {
		return "", err
	}
	if m.resolver == nil || m.converter == nil {
		return "", services.Wrap(services.ErrConfiguration, "overrides", "create", "remote overrides are not configured", nil)
	}
	return m.pool.Submit("override "+name+" from "+item.URL, func(ctx context.Context) error {
		ctx = services.WithTrack(ctx, name)
		override, err := m.resolve(ctx, name, item)
		if err != nil {
			return err
		}
		return m.create(ctx, override)
	})
}

// BulkCreate schedules one task that creates an override for every file in
// dir whose name, up to the first dot, is a known track.
func (m *Manager) BulkCreate(ctx context.Context, dir string) (string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "overrides", "bulk", "directory unavailable", err)
	}
	if !info.IsDir() {
		return "", services.Wrap(services.ErrValidation, "overrides", "bulk", fmt.Sprintf("%q is not a directory", dir), nil)
	}
	return m.pool.Submit("bulk override from "+dir, func(ctx context.Context) error {
		return m.bulk(ctx, dir)
	})
}

func (m *Manager) bulk(ctx context.Context, dir string) error {
	logger := logging.WithContext(ctx, m.logger)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return services.Wrap(services.ErrTransient, "overrides", "bulk", "list directory", err)
	}

	var matched, created, failed int
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := TrackNameFromFile(entry.Name())
		if !m.tracks.Exists(ctx, name) {
			logger.Debug("skipping file without a matching track", logging.String("file", entry.Name()))
			continue
		}
		matched++
		path := filepath.Join(dir, entry.Name())
		override := &TrackOverride{
			Name:           name,
			OriginalPath:   path,
			FromLocal:      true,
			AdditionalInfo: localInfo(path),
		}
		if err := m.create(services.WithTrack(ctx, name), override); err != nil {
			failed++
			continue
		}
		created++
	}

	logger.Info("bulk override finished",
		logging.String("dir", dir),
		logging.Int("matched", matched),
		logging.Int("created", created),
		logging.Int("failed", failed),
	)
	if failed > 0 {
		return fmt.Errorf("bulk override: %d of %d matched files failed", failed, matched)
	}
	return nil
}

func (m *Manager) resolve(ctx context.Context, name string, item media.StreamItem) (*TrackOverride, error) {
	info, err := m.resolver.Fetch(ctx, item.URL)
	if err != nil {
		return nil, err
	}
	stream, ok := media.BestAudio(info, m.audioFormat)
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, "overrides", "resolve",
			fmt.Sprintf("no %s audio stream for %s", m.audioFormat, item.URL), nil)
	}
	logging.WithContext(ctx, m.logger).Debug("audio stream selected",
		logging.String("format_id", stream.FormatID),
		logging.Any("bitrate", stream.Bitrate),
	)
	return &TrackOverride{
		Name:           name,
		OriginalPath:   stream.URL,
		FromLocal:      false,
		AdditionalInfo: remoteInfo(item, info),
	}, nil
}

// create stages the override's audio and commits its record only after the
// file is in place.
func (m *Manager) create(ctx context.Context, override *TrackOverride) error {
	logger := logging.WithContext(ctx, m.logger)
	if err := m.transfer(ctx, override); err != nil {
		logging.WarnWithContext(logger, "override transfer failed", "transfer_failed",
			logging.String("source", override.OriginalPath),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, services.Hint(err)),
			logging.String(logging.FieldImpact, "previous override kept"),
		)
		return err
	}
	if err := m.commit(ctx, override); err != nil {
		logging.ErrorWithContext(logger, "override record not saved", "commit_failed", logging.Error(err))
		return err
	}
	logger.Info("override created",
		logging.Bool("from_local", override.FromLocal),
		logging.String("path", override.Path(m.dir)),
	)
	return nil
}

// validateName returns the canonical form of name once it is known to be a
// safe, existing track name.
func (m *Manager) validateName(ctx context.Context, name string) (string, error) {
	canonical := catalog.Normalize(name)
	if !safeName(canonical) {
		return "", services.Wrap(services.ErrValidation, "overrides", "validate", fmt.Sprintf("invalid track name %q", name), nil)
	}
	if !m.tracks.Exists(ctx, canonical) {
		return "", services.Wrap(services.ErrValidation, "overrides", "validate", fmt.Sprintf("unknown track %q", name), nil)
	}
	return canonical, nil
}

func remoteInfo(item media.StreamItem, info *media.StreamInfo) map[string]string {
	resolved := info.Item()
	duration := item.Duration
	if duration <= 0 {
		duration = resolved.Duration
	}
	return map[string]string{
		InfoURL:         firstNonEmpty(item.URL, resolved.URL),
		InfoName:        firstNonEmpty(item.Name, resolved.Name),
		InfoDuration:    media.FormatISODuration(duration),
		InfoUploader:    firstNonEmpty(item.UploaderName, resolved.UploaderName),
		InfoUploaderURL: firstNonEmpty(item.UploaderURL, resolved.UploaderURL),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
