package config

// DefaultBaseURL is the backend origin all table and auth calls are
// relative to.
const DefaultBaseURL = "https://backlify-v2.onrender.com"

// DefaultLogLevel is the default log level.
const DefaultLogLevel = "info"

// DefaultDataDir is the default data directory (before tilde expansion).
const DefaultDataDir = "~/.backlify"

// DefaultConfigFilename is the name of the config file.
const DefaultConfigFilename = "backlify.toml"

// DefaultTimeout is the per-request timeout in seconds.
const DefaultTimeout = 30

// DefaultCacheTTL is the response cache TTL in seconds.
const DefaultCacheTTL = 300

// DefaultCacheMaxEntries is the in-memory cache capacity.
const DefaultCacheMaxEntries = 1000

// DefaultRetentionDays is how long persisted cache rows are kept.
const DefaultRetentionDays = 7

// DefaultRelationPageLimit bounds how many rows of a referenced table
// are fetched to populate a picker.
const DefaultRelationPageLimit = 100

// ValidLogLevels are the accepted log level names.
var ValidLogLevels = []string{"trace", "debug", "info", "warn", "error"}

// ValidTracingExporters are the accepted tracing exporter names.
var ValidTracingExporters = []string{"stdout", "otlp-grpc", "otlp-http"}

// DefaultConfig returns a Config populated with every default value.
func DefaultConfig() *Config {
	return &Config{
		Client: ClientConfig{
			BaseURL:  DefaultBaseURL,
			Timeout:  DefaultTimeout,
			LogLevel: DefaultLogLevel,
			DataDir:  DefaultDataDir,
			SkipAuth: false,
		},
		Cache: CacheConfig{
			Enabled:       true,
			TTLSeconds:    DefaultCacheTTL,
			MaxEntries:    DefaultCacheMaxEntries,
			Persist:       true,
			RetentionDays: DefaultRetentionDays,
		},
		Relations: RelationsConfig{
			PageLimit: DefaultRelationPageLimit,
		},
		Tracing: TracingConfig{
			Enabled:     false,
			Exporter:    "stdout",
			Endpoint:    "",
			ServiceName: "backlify-client",
			SampleRate:  1.0,
			Insecure:    false,
		},
	}
}
