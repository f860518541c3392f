package overrides

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"musicreplacer/internal/fileutil"
	"musicreplacer/internal/services"
)

func (m *Manager) transfer(ctx context.Context, override *TrackOverride) error {
	if override.FromLocal {
		return m.transferLocal(ctx, override)
	}
	return m.transferRemote(ctx, override)
}

func (m *Manager) transferLocal(_ context.Context, override *TrackOverride) error {
	if !HasAudioExtension(override.OriginalPath) {
		return services.Wrap(services.ErrValidation, "overrides", "transfer",
			fmt.Sprintf("only %s files can be used, got %q", Extension, filepath.Base(override.OriginalPath)), nil)
	}
	total := int64(-1)
	if info, err := os.Stat(override.OriginalPath); err == nil {
		total = info.Size()
	}
	progress, done := m.progressWriter(override.Name, total)
	defer done()

	if _, err := fileutil.CopyFileAtomic(override.OriginalPath, override.Path(m.dir), progress); err != nil {
		return services.Wrap(services.ErrTransient, "overrides", "transfer", "copy local file", err)
	}
	return nil
}

func (m *Manager) transferRemote(ctx context.Context, override *TrackOverride) error {
	if m.converter == nil {
		return services.Wrap(services.ErrConfiguration, "overrides", "transfer", "no converter configured", nil)
	}
	downloadURL := override.OriginalPath
	originURL := downloadURL
	if v, ok := override.AdditionalInfo[InfoURL]; ok {
		originURL = v
	}

	fileURL, err := m.converter.Convert(ctx, originURL, downloadURL)
	if err != nil {
		return err
	}

	total := int64(-1)
	if sizer, ok := m.converter.(interface {
		ContentLength(ctx context.Context, fileURL string) int64
	}); ok && m.progress != nil {
		total = sizer.ContentLength(ctx, fileURL)
	}
	progress, done := m.progressWriter(override.Name, total)
	defer done()

	_, err = fileutil.WriteAtomic(override.Path(m.dir), 0o644, func(w io.Writer) (int64, error) {
		if progress != nil {
			w = io.MultiWriter(w, progress)
		}
		return m.converter.Download(ctx, fileURL, w)
	})
	return err
}

func (m *Manager) progressWriter(name string, total int64) (io.Writer, func()) {
	if m.progress == nil {
		return nil, func() {}
	}
	w := m.progress(name, total)
	if w == nil {
		return nil, func() {}
	}
	return w, func() {
		if closer, ok := w.(io.Closer); ok {
			_ = closer.Close()
		}
	}
}
