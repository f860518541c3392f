package overrides_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"musicreplacer/internal/catalog"
	"musicreplacer/internal/media"
	"musicreplacer/internal/overrides"
	"musicreplacer/internal/services"
	"musicreplacer/internal/settings"
	"musicreplacer/internal/workpool"
)

func TestCreateFromFileCommitsRecordAfterCopy(t *testing.T) {
	f := newFixture(t)
	src := writeFile(t, t.TempDir(), "my harmony.WAV", []byte("RIFF-harmony"))

	ok := f.manager.CreateFromFile(context.Background(), "Harmony", src)
	require.True(t, ok)
	f.pool.Wait()

	data, err := os.ReadFile(f.stagedPath("Harmony"))
	require.NoError(t, err)
	assert.Equal(t, "RIFF-harmony", string(data))

	raw, exists := f.record(t, "Harmony")
	require.True(t, exists)
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &rec))
	assert.Equal(t, "Harmony", rec["name"])
	assert.Equal(t, src, rec["originalPath"])
	assert.Equal(t, true, rec["fromLocal"])
	assert.Equal(t, map[string]any{"File": "my harmony.WAV"}, rec["additionalInfo"])

	got, err := f.manager.Get(context.Background(), "Harmony")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.FromLocal)
}

func TestCreateFromFileRejectsInvalidRequests(t *testing.T) {
	f := newFixture(t)
	srcDir := t.TempDir()
	mp3 := writeFile(t, srcDir, "Harmony.mp3", []byte("ID3"))
	wav := writeFile(t, srcDir, "Harmony.wav", []byte("RIFF"))
	folder := filepath.Join(srcDir, "folder.wav")
	require.NoError(t, os.Mkdir(folder, 0o755))

	cases := []struct {
		name, track, path string
	}{
		{"unknown track", "Not A Track", wav},
		{"wrong extension", "Harmony", mp3},
		{"missing file", "Harmony", filepath.Join(srcDir, "nope.wav")},
		{"directory", "Harmony", folder},
		{"path in name", "../Harmony", wav},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.False(t, f.manager.CreateFromFile(context.Background(), tc.track, tc.path))
			_, err := f.manager.SubmitFromFile(context.Background(), tc.track, tc.path)
			assert.True(t, errors.Is(err, services.ErrValidation), "got %v", err)
		})
	}
	f.pool.Wait()
	assert.Empty(t, f.pool.Tasks(), "rejected requests must not reach the pool")
	_, exists := f.record(t, "Harmony")
	assert.False(t, exists)
	_, err := os.Stat(f.stagedPath("Harmony"))
	assert.True(t, os.IsNotExist(err))
}

func TestCreateFromStreamConvertsAndRecordsMetadata(t *testing.T) {
	f := newFixture(t)
	f.resolver.info = &media.StreamInfo{
		URL:          "https://www.youtube.com/watch?v=abc",
		Title:        "Resolved Title",
		Duration:     400 * time.Second,
		UploaderName: "Resolved Uploader",
		UploaderURL:  "https://www.youtube.com/@resolved",
		AudioStreams: []media.AudioStream{
			{URL: "https://cdn/low", Format: "m4a", Bitrate: 48},
			{URL: "https://cdn/high", Format: "m4a", Bitrate: 129},
			{URL: "https://cdn/opus", Format: "webm", Bitrate: 160},
		},
	}
	f.converter.result = "https://files/out.wav"
	f.converter.files["https://files/out.wav"] = []byte("RIFF-converted")

	item := media.StreamItem{
		URL:          "https://www.youtube.com/watch?v=abc",
		Name:         "Sea Shanty 2 (Orchestral)",
		Duration:     205 * time.Second,
		UploaderName: "Composer",
	}
	id, err := f.manager.CreateFromStream(context.Background(), "Sea Shanty 2", item)
	require.NoError(t, err)
	require.NotEmpty(t, id)
	f.pool.Wait()

	task, ok := f.pool.Task(id)
	require.True(t, ok)
	assert.Equal(t, workpool.StatusSucceeded, task.Status, task.Error)

	require.Len(t, f.converter.calls, 1)
	assert.Equal(t, "https://www.youtube.com/watch?v=abc", f.converter.calls[0].origin)
	assert.Equal(t, "https://cdn/high", f.converter.calls[0].download)

	data, err := os.ReadFile(f.stagedPath("Sea Shanty 2"))
	require.NoError(t, err)
	assert.Equal(t, "RIFF-converted", string(data))

	got, err := f.manager.Get(context.Background(), "Sea Shanty 2")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.FromLocal)
	assert.Equal(t, "https://cdn/high", got.OriginalPath)
	assert.Equal(t, map[string]string{
		"Url":          "https://www.youtube.com/watch?v=abc",
		"Name":         "Sea Shanty 2 (Orchestral)",
		"Duration":     "PT3M25S",
		"Uploader":     "Composer",
		"Uploader url": "https://www.youtube.com/@resolved",
	}, got.AdditionalInfo)
}

func TestCreateFromStreamFailureLeavesPriorState(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *fixture)
	}{
		{"converter rejects", func(f *fixture) {
			f.converter.convertErr = services.Wrap(services.ErrExternalTool, "convert", "", "returned 500", nil)
		}},
		{"download interrupted", func(f *fixture) {
			f.converter.failAfter = 3
		}},
		{"no m4a stream", func(f *fixture) {
			f.resolver.info.AudioStreams = []media.AudioStream{{URL: "https://cdn/opus", Format: "webm"}}
		}},
		{"resolver fails", func(f *fixture) {
			f.resolver.err = errors.New("video unavailable")
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.resolver.info = &media.StreamInfo{
				AudioStreams: []media.AudioStream{{URL: "https://cdn/a", Format: "m4a"}},
			}
			f.converter.result = "https://files/new.wav"
			f.converter.files["https://files/new.wav"] = []byte("RIFF-new-audio")

			// existing override that must survive the failed replacement
			writeFile(t, f.dir, "Harmony.wav", []byte("RIFF-old"))
			prior := `{"name":"Harmony","originalPath":"/old.wav","fromLocal":true,"additionalInfo":{}}`
			require.NoError(t, f.store.Set(context.Background(), group, "track_Harmony", prior))

			tt.setup(f)
			id, err := f.manager.CreateFromStream(context.Background(), "Harmony",
				media.StreamItem{URL: "https://www.youtube.com/watch?v=x"})
			require.NoError(t, err)
			f.pool.Wait()

			task, _ := f.pool.Task(id)
			assert.Equal(t, workpool.StatusFailed, task.Status)

			raw, ok := f.record(t, "Harmony")
			require.True(t, ok)
			assert.JSONEq(t, prior, raw)
			data, err := os.ReadFile(f.stagedPath("Harmony"))
			require.NoError(t, err)
			assert.Equal(t, "RIFF-old", string(data))

			entries, err := os.ReadDir(f.dir)
			require.NoError(t, err)
			assert.Len(t, entries, 1, "no partial files left behind")
		})
	}
}

func TestCreateFromStreamValidatesSynchronously(t *testing.T) {
	f := newFixture(t)
	_, err := f.manager.CreateFromStream(context.Background(), "Unknown", media.StreamItem{URL: "https://youtu.be/x"})
	assert.True(t, errors.Is(err, services.ErrValidation))

	_, err = f.manager.CreateFromStream(context.Background(), "Harmony", media.StreamItem{URL: "ftp://x"})
	assert.True(t, errors.Is(err, services.ErrValidation))
	assert.Empty(t, f.pool.Tasks())
}

func TestCreateFromStreamRequiresRemoteDeps(t *testing.T) {
	pool := workpool.New(1, 1, nil)
	defer pool.Close()
	m, err := overrides.New(t.TempDir(), group, overrides.Deps{
		Tracks: catalog.New(knownTracks, nil),
		Store:  settings.NewMemoryStore(),
		Pool:   pool,
	})
	require.NoError(t, err)
	_, err = m.CreateFromStream(context.Background(), "Harmony", media.StreamItem{URL: "https://youtu.be/x"})
	assert.True(t, errors.Is(err, services.ErrConfiguration))
}

func TestGetDeletesRecordWhenFileMissing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Set(ctx, group, "track_Harmony",
		`{"name":"Harmony","originalPath":"/x.wav","fromLocal":true,"additionalInfo":{}}`))

	got, err := f.manager.Get(ctx, "Harmony")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, exists := f.record(t, "Harmony")
	assert.False(t, exists, "stale record must be deleted")
	ok, err := f.manager.OverrideExists(ctx, "Harmony")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetDeletesUnreadableRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	writeFile(t, f.dir, "Harmony.wav", []byte("RIFF"))
	require.NoError(t, f.store.Set(ctx, group, "track_Harmony", "{broken"))

	got, err := f.manager.Get(ctx, "Harmony")
	require.NoError(t, err)
	assert.Nil(t, got)
	_, exists := f.record(t, "Harmony")
	assert.False(t, exists)
}

func TestGetIgnoresStoredName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	writeFile(t, f.dir, "Harmony.wav", []byte("RIFF"))
	require.NoError(t, f.store.Set(ctx, group, "track_Harmony",
		`{"name":"../x","originalPath":"/x.wav","fromLocal":true,"additionalInfo":{}}`))

	got, err := f.manager.Get(ctx, "Harmony")
	require.NoError(t, err)
	require.NotNil(t, got, "record must be resolved against its own key")
	assert.Equal(t, "Harmony", got.Name)
	assert.Equal(t, f.stagedPath("Harmony"), got.Path(f.dir))
	_, exists := f.record(t, "Harmony")
	assert.True(t, exists)
}

func TestCreateStoresCanonicalTrackNames(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	pool := workpool.New(1, 8, nil)
	defer pool.Close()
	m, err := overrides.New(dir, group, overrides.Deps{
		Tracks: catalog.New(catalog.StaticSource{"Caf\u00e9", "Harmony"}, nil),
		Store:  settings.NewMemoryStore(),
		Pool:   pool,
	})
	require.NoError(t, err)

	src := t.TempDir()
	require.True(t, m.CreateFromFile(ctx, "Cafe\u0301", writeFile(t, src, "cafe.wav", []byte("RIFF-cafe"))))
	require.True(t, m.CreateFromFile(ctx, " Harmony ", writeFile(t, src, "harmony.wav", []byte("RIFF-harmony"))))
	pool.Wait()

	names, err := m.OverriddenTracks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Caf\u00e9", "Harmony"}, names)

	for _, name := range []string{"Caf\u00e9", "Harmony"} {
		ok, err := m.OverrideExists(ctx, name)
		require.NoError(t, err)
		assert.True(t, ok, name)

		got, err := m.Get(ctx, name)
		require.NoError(t, err)
		require.NotNil(t, got, name)
		assert.Equal(t, name, got.Name)
		_, err = os.Stat(overrides.TrackPath(dir, name))
		assert.NoError(t, err)
	}

	got, err := m.Get(ctx, "Cafe\u0301")
	require.NoError(t, err)
	require.NotNil(t, got, "lookups normalize their input too")

	id, err := m.Remove(ctx, " Harmony ")
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	pool.Wait()
	ok, err := m.OverrideExists(ctx, "Harmony")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetAbsent(t *testing.T) {
	f := newFixture(t)
	got, err := f.manager.Get(context.Background(), "Harmony")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestOverriddenTracksAndList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, name := range []string{"Scape Main", "Harmony"} {
		writeFile(t, f.dir, name+".wav", []byte("RIFF"))
		rec, _ := json.Marshal(overrides.TrackOverride{Name: name, OriginalPath: "/src/" + name + ".wav", FromLocal: true})
		require.NoError(t, f.store.Set(ctx, group, overrides.Key(name), string(rec)))
	}
	require.NoError(t, f.store.Set(ctx, group, "track_Autumn Voyage", `{"name":"Autumn Voyage"}`))
	require.NoError(t, f.store.Set(ctx, group, "volume", "80"))
	require.NoError(t, f.store.Set(ctx, "other", "track_Sea Shanty 2", "{}"))

	names, err := f.manager.OverriddenTracks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Autumn Voyage", "Harmony", "Scape Main"}, names)

	list, err := f.manager.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Harmony", list[0].Name)
	assert.Equal(t, "Scape Main", list[1].Name)

	names, err = f.manager.OverriddenTracks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Harmony", "Scape Main"}, names, "List heals stale records")
}

func TestExistsUsesCatalog(t *testing.T) {
	f := newFixture(t)
	assert.True(t, f.manager.Exists(context.Background(), "Harmony"))
	assert.False(t, f.manager.Exists(context.Background(), "harmony"))

	names, err := f.manager.Tracks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Autumn Voyage", "Harmony", "Scape Main", "Sea Shanty 2"}, names)
}

func TestNewValidatesDeps(t *testing.T) {
	_, err := overrides.New("", group, overrides.Deps{})
	assert.Error(t, err)
	_, err = overrides.New(t.TempDir(), group, overrides.Deps{Tracks: catalog.New(knownTracks, nil)})
	assert.Error(t, err)
}
