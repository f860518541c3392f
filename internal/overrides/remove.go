package overrides

import (
	"context"
	"errors"

	"musicreplacer/internal/catalog"
	"musicreplacer/internal/fileutil"
	"musicreplacer/internal/logging"
	"musicreplacer/internal/services"
)

// Remove schedules deleting the override for name and returns the task ID.
// It returns an empty ID when name has no valid override.
func (m *Manager) Remove(ctx context.Context, name string) (string, error) {
	name = catalog.Normalize(name)
	override, err := m.Get(ctx, name)
	if err != nil {
		return "", err
	}
	if override == nil {
		return "", nil
	}
	return m.pool.Submit("remove override "+name, func(ctx context.Context) error {
		ctx = services.WithTrack(ctx, name)
		if err := m.unset(ctx, name); err != nil {
			return err
		}
		path := override.Path(m.dir)
		logger := logging.WithContext(ctx, m.logger)
		if err := fileutil.RemoveIfExists(path); err != nil {
			logging.WarnWithContext(logger, "could not delete override file", "remove_file_failed",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "delete the file manually"),
				logging.String(logging.FieldImpact, "orphaned audio file left on disk"),
			)
			return nil
		}
		logger.Info("override removed")
		return nil
	})
}

// RemoveAll schedules removal of every override and returns the task IDs.
func (m *Manager) RemoveAll(ctx context.Context) ([]string, error) {
	names, err := m.OverriddenTracks(ctx)
	if err != nil {
		return nil, err
	}
	var (
		ids  []string
		errs []error
	)
	for _, name := range names {
		id, err := m.Remove(ctx, name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids, errors.Join(errs...)
}
