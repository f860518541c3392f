package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"musicreplacer/internal/logging"
	"musicreplacer/internal/services"
)

// DefaultAudioFormat is the container the conversion service accepts.
const DefaultAudioFormat = "m4a"

// Resolver is the behaviour the override manager needs from an extractor.
type Resolver interface {
	Fetch(ctx context.Context, pageURL string) (*StreamInfo, error)
}

// Searcher lists candidate pages for a free-text query.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]StreamItem, error)
}

// Option configures the extractor.
type Option func(*Extractor)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(e *Extractor) {
		if exec != nil {
			e.exec = exec
		}
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		e.logger = logging.NewComponentLogger(logger, "media")
	}
}

// Extractor drives yt-dlp through go-ytdlp commands.
type Extractor struct {
	binary        string
	socketTimeout time.Duration
	exec          Executor
	logger        *slog.Logger
}

// New constructs an extractor for the given yt-dlp binary.
func New(binary string, socketTimeout time.Duration, opts ...Option) (*Extractor, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("yt-dlp binary required")
	}
	e := &Extractor{
		binary:        binary,
		socketTimeout: socketTimeout,
		exec:          commandExecutor{},
		logger:        logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Extractor) command() *ytdlp.Command {
	cmd := ytdlp.New().
		SetExecutable(e.binary).
		IgnoreConfig().
		NoWarnings().
		DumpJSON()
	if e.socketTimeout > 0 {
		cmd.SocketTimeout(e.socketTimeout.Seconds())
	}
	return cmd
}

// Search returns up to limit pages matching query.
func (e *Extractor) Search(ctx context.Context, query string, limit int) ([]StreamItem, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, services.Wrap(services.ErrValidation, "media", "search", "query is empty", nil)
	}
	if limit <= 0 {
		limit = 10
	}
	cmd := e.command().FlatPlaylist()
	entries, err := e.exec.Run(ctx, cmd, fmt.Sprintf("ytsearch%d:%s", limit, query))
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "media", "search", "yt-dlp search failed", err)
	}

	items := make([]StreamItem, 0, len(entries))
	for _, entry := range entries {
		if item, ok := searchItem(entry); ok {
			items = append(items, item)
		}
	}
	e.logger.Debug("search complete", logging.String("query", query), logging.Int("results", len(items)))
	return items, nil
}

// Fetch resolves a single page into its metadata and audio streams.
func (e *Extractor) Fetch(ctx context.Context, pageURL string) (*StreamInfo, error) {
	if err := ValidatePageURL(pageURL); err != nil {
		return nil, err
	}
	cmd := e.command().NoPlaylist().SkipDownload()
	docs, err := e.exec.Run(ctx, cmd, pageURL)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "media", "fetch", "yt-dlp metadata failed", err)
	}
	if len(docs) == 0 || docs[0] == nil {
		return nil, services.Wrap(services.ErrExternalTool, "media", "fetch", "yt-dlp printed no metadata", nil)
	}

	info := streamInfo(docs[0])
	if info.URL == "" {
		info.URL = pageURL
	}
	e.logger.Debug("stream info resolved",
		logging.String("title", info.Title),
		logging.Int("audio_streams", len(info.AudioStreams)),
	)
	return info, nil
}

// BestAudio selects the audio-only stream in the requested container with
// the highest average bitrate.
func BestAudio(info *StreamInfo, format string) (AudioStream, bool) {
	if info == nil {
		return AudioStream{}, false
	}
	var candidates []AudioStream
	for _, stream := range info.AudioStreams {
		if strings.EqualFold(stream.Format, format) && stream.URL != "" {
			candidates = append(candidates, stream)
		}
	}
	if len(candidates) == 0 {
		return AudioStream{}, false
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Bitrate > candidates[j].Bitrate
	})
	return candidates[0], true
}

// ValidatePageURL checks that pageURL is an absolute http(s) URL.
func ValidatePageURL(pageURL string) error {
	parsed, err := url.Parse(strings.TrimSpace(pageURL))
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return services.Wrap(services.ErrValidation, "media", "validate url", fmt.Sprintf("not an http(s) URL: %q", pageURL), nil)
	}
	return nil
}

func searchItem(entry *ytdlp.ExtractedInfo) (StreamItem, bool) {
	if entry == nil {
		return StreamItem{}, false
	}
	link := deref(entry.URL)
	if link == "" && entry.ID != "" {
		link = "https://www.youtube.com/watch?v=" + entry.ID
	}
	if link == "" {
		return StreamItem{}, false
	}
	return StreamItem{
		URL:          link,
		Name:         deref(entry.Title),
		Duration:     seconds(entry.Duration),
		UploaderName: firstNonEmpty(deref(entry.Uploader), deref(entry.Channel)),
		UploaderURL:  firstNonEmpty(deref(entry.UploaderURL), deref(entry.ChannelURL)),
	}, true
}

func streamInfo(doc *ytdlp.ExtractedInfo) *StreamInfo {
	info := &StreamInfo{
		URL:          deref(doc.WebpageURL),
		Title:        deref(doc.Title),
		Duration:     seconds(doc.Duration),
		UploaderName: firstNonEmpty(deref(doc.Uploader), deref(doc.Channel)),
		UploaderURL:  firstNonEmpty(deref(doc.UploaderURL), deref(doc.ChannelURL)),
	}
	for _, f := range doc.Formats {
		if f == nil {
			continue
		}
		acodec, vcodec := deref(f.ACodec), deref(f.VCodec)
		if acodec == "" || acodec == "none" {
			continue
		}
		if vcodec != "" && vcodec != "none" {
			continue
		}
		stream := AudioStream{
			URL:      f.URL,
			FormatID: deref(f.FormatID),
			Format:   deref(f.Extension),
			Codec:    acodec,
			Bitrate:  float64(deref(f.ABR)),
			Size:     int64(deref(f.FileSize)),
		}
		if stream.Size == 0 {
			stream.Size = int64(deref(f.FileSizeApprox))
		}
		info.AudioStreams = append(info.AudioStreams, stream)
	}
	return info
}

func deref[T any](v *T) T {
	var zero T
	if v == nil {
		return zero
	}
	return *v
}

func seconds(v *float64) time.Duration {
	if v == nil || *v <= 0 {
		return 0
	}
	return time.Duration(*v * float64(time.Second))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
