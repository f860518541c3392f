package overrides

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"musicreplacer/internal/catalog"
	"musicreplacer/internal/settings"
)

func id3Frame(id, text string) []byte {
	body := append([]byte{0x00}, text...)
	var buf bytes.Buffer
	buf.WriteString(id)
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(body)))
	buf.Write([]byte{0, 0})
	buf.Write(body)
	return buf.Bytes()
}

func synchsafe(n int) []byte {
	return []byte{byte(n >> 21 & 0x7f), byte(n >> 14 & 0x7f), byte(n >> 7 & 0x7f), byte(n & 0x7f)}
}

func taggedWAV(title, artist string) []byte {
	frames := append(id3Frame("TIT2", title), id3Frame("TPE1", artist)...)
	var file bytes.Buffer
	file.WriteString("ID3")
	file.Write([]byte{3, 0, 0})
	file.Write(synchsafe(len(frames)))
	file.Write(frames)
	file.WriteString("RIFF....WAVE")
	return file.Bytes()
}

func TestLocalInfoReadsEmbeddedTags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Harmony.wav")
	if err := os.WriteFile(path, taggedWAV("Harmony (Piano)", "Local Artist"), 0o644); err != nil {
		t.Fatal(err)
	}

	info := localInfo(path)
	if info[InfoFile] != "Harmony.wav" {
		t.Fatalf("unexpected file entry: %v", info)
	}
	if info[InfoName] != "Harmony (Piano)" {
		t.Fatalf("expected title from tags, got %v", info)
	}
	if info[InfoUploader] != "Local Artist" {
		t.Fatalf("expected artist from tags, got %v", info)
	}
}

func TestLocalInfoWithoutTags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.wav")
	if err := os.WriteFile(path, []byte("RIFF\x24\x00\x00\x00WAVEfmt "), 0o644); err != nil {
		t.Fatal(err)
	}
	info := localInfo(path)
	if len(info) != 1 || info[InfoFile] != "plain.wav" {
		t.Fatalf("expected only the file entry, got %v", info)
	}
}

type deferredPool struct {
	fns []func(ctx context.Context) error
}

func (p *deferredPool) Submit(_ string, fn func(ctx context.Context) error) (string, error) {
	p.fns = append(p.fns, fn)
	return "task-1", nil
}

func TestSubmitFromFileReadsTagsInTask(t *testing.T) {
	ctx := context.Background()
	store := settings.NewMemoryStore()
	pool := &deferredPool{}
	m, err := New(t.TempDir(), "musicreplacer", Deps{
		Tracks: catalog.New(catalog.StaticSource{"Harmony"}, nil),
		Store:  store,
		Pool:   pool,
	})
	if err != nil {
		t.Fatal(err)
	}

	src := filepath.Join(t.TempDir(), "Harmony.wav")
	if err := os.WriteFile(src, []byte("RIFF....WAVE"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := m.SubmitFromFile(ctx, "Harmony", src); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(pool.fns) != 1 {
		t.Fatalf("expected one queued task, got %d", len(pool.fns))
	}

	// Tags written after submission are seen because they are read by the task.
	if err := os.WriteFile(src, taggedWAV("Harmony (Live)", "Busker"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := pool.fns[0](ctx); err != nil {
		t.Fatalf("run task: %v", err)
	}

	raw, ok, err := store.Get(ctx, "musicreplacer", Key("Harmony"))
	if err != nil || !ok {
		t.Fatalf("record missing: ok=%v err=%v", ok, err)
	}
	var override TrackOverride
	if err := json.Unmarshal([]byte(raw), &override); err != nil {
		t.Fatal(err)
	}
	if override.AdditionalInfo[InfoName] != "Harmony (Live)" || override.AdditionalInfo[InfoUploader] != "Busker" {
		t.Fatalf("unexpected info: %v", override.AdditionalInfo)
	}
}
