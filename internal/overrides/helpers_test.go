package overrides_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"musicreplacer/internal/catalog"
	"musicreplacer/internal/media"
	"musicreplacer/internal/overrides"
	"musicreplacer/internal/settings"
	"musicreplacer/internal/workpool"
)

const group = "musicreplacer"

var knownTracks = catalog.StaticSource{"Harmony", "Sea Shanty 2", "Autumn Voyage", "Scape Main"}

type fixture struct {
	dir       string
	store     *settings.MemoryStore
	pool      *workpool.Pool
	manager   *overrides.Manager
	resolver  *stubResolver
	converter *stubConverter
}

func newFixture(t *testing.T, opts ...overrides.Option) *fixture {
	t.Helper()
	f := &fixture{
		dir:       t.TempDir(),
		store:     settings.NewMemoryStore(),
		pool:      workpool.New(2, 32, nil),
		resolver:  &stubResolver{},
		converter: &stubConverter{files: map[string][]byte{}},
	}
	t.Cleanup(f.pool.Close)

	m, err := overrides.New(f.dir, group, overrides.Deps{
		Tracks:    catalog.New(knownTracks, nil),
		Store:     f.store,
		Pool:      f.pool,
		Resolver:  f.resolver,
		Converter: f.converter,
	}, opts...)
	require.NoError(t, err)
	f.manager = m
	return f
}

func (f *fixture) record(t *testing.T, name string) (string, bool) {
	t.Helper()
	value, ok, err := f.store.Get(context.Background(), group, overrides.Key(name))
	require.NoError(t, err)
	return value, ok
}

func (f *fixture) stagedPath(name string) string {
	return overrides.TrackPath(f.dir, name)
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

type stubResolver struct {
	mu    sync.Mutex
	info  *media.StreamInfo
	err   error
	calls []string
}

func (s *stubResolver) Fetch(_ context.Context, pageURL string) (*media.StreamInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, pageURL)
	return s.info, s.err
}

type convertCall struct {
	origin   string
	download string
}

type stubConverter struct {
	mu         sync.Mutex
	calls      []convertCall
	convertErr error
	result     string
	files      map[string][]byte
	// failAfter, when positive, makes Download write that many bytes and fail.
	failAfter int
}

func (s *stubConverter) Convert(_ context.Context, originURL, downloadURL string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, convertCall{origin: originURL, download: downloadURL})
	if s.convertErr != nil {
		return "", s.convertErr
	}
	return s.result, nil
}

func (s *stubConverter) Download(_ context.Context, fileURL string, w io.Writer) (int64, error) {
	s.mu.Lock()
	data, ok := s.files[fileURL]
	failAfter := s.failAfter
	s.mu.Unlock()
	if !ok {
		return 0, errors.New("404 not found")
	}
	if failAfter > 0 {
		n, _ := w.Write(data[:failAfter])
		return int64(n), errors.New("connection reset")
	}
	n, err := io.Copy(w, bytes.NewReader(data))
	return n, err
}
