package config

const (
	defaultConfigPath             = "~/.config/musicreplacer/config.toml"
	defaultDataDir                = "~/.local/share/musicreplacer"
	defaultOverridesDirName       = "music-replacer"
	defaultStoreFileName          = "settings.db"
	defaultTrackListFileName      = "tracks.txt"
	defaultLogDirName             = "logs"
	defaultStoreGroup             = "musicreplacer"
	defaultConverterEndpoint      = "https://4rri42wrbl.execute-api.us-east-1.amazonaws.com/default/convert-to-wav"
	defaultConverterReadTimeout   = 60
	defaultExtractorBinary        = "yt-dlp"
	defaultExtractorSocketTimeout = 15
	defaultExtractorSearchLimit   = 10
	defaultPoolWorkers            = 2
	defaultPoolQueueSize          = 64
	defaultAPIBind                = "127.0.0.1:7490"
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
)

// Default returns a Config populated with repository defaults. Derived paths
// stay empty until normalize fills them relative to the data directory.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
		},
		Store: Store{
			Group: defaultStoreGroup,
		},
		Converter: Converter{
			Endpoint:           defaultConverterEndpoint,
			ReadTimeoutSeconds: defaultConverterReadTimeout,
		},
		Extractor: Extractor{
			Binary:               defaultExtractorBinary,
			SocketTimeoutSeconds: defaultExtractorSocketTimeout,
			SearchLimit:          defaultExtractorSearchLimit,
		},
		Pool: Pool{
			Workers:   defaultPoolWorkers,
			QueueSize: defaultPoolQueueSize,
		},
		API: API{
			Bind: defaultAPIBind,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
