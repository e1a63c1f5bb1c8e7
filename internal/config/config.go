package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/nao1215/notionscan/internal/model"
)

// Default configuration values.
const (
	// DefaultConcurrency is the number of sibling branches traversed at once.
	// The remote API allows about three requests per second, so higher
	// values mostly wait on the client-side throttle.
	DefaultConcurrency = 3

	// DefaultOutputDir is where scan outputs are written.
	DefaultOutputDir = "outputs"

	// DefaultTimeout bounds each HTTP request.
	DefaultTimeout = 30 * time.Second

	// DefaultMinInterval spaces requests to stay under the API rate limit.
	DefaultMinInterval = 334 * time.Millisecond

	// DefaultMaxRetries is the number of retries after the first attempt.
	DefaultMaxRetries = 5

	// DefaultBaseDelay is the first retry delay; it doubles on each retry.
	DefaultBaseDelay = 300 * time.Millisecond

	// DefaultSampleRows is the number of rows sampled per database.
	DefaultSampleRows = 3

	// DefaultRelationTitleLimit is the number of related page titles
	// resolved per relation cell.
	DefaultRelationTitleLimit = 5

	// DefaultRelationConcurrency caps concurrent relation title lookups.
	DefaultRelationConcurrency = 3

	// AppName is the application name used for XDG directory paths.
	AppName = "notionscan"

	// DefaultUserAgent identifies notionscan in HTTP requests.
	DefaultUserAgent = "notionscan (+https://github.com/nao1215/notionscan)"
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Root id sources, reported in scan_meta.json.
const (
	SourceCLI    = "CLI"
	SourceDotEnv = ".env"
	SourceEnv    = "environment"
	SourceConfig = "config"
)

// Config holds all configuration options for a scan.
// It is populated from defaults, the config file, the environment and
// CLI flags, in that order, and passed down by dependency injection.
type Config struct {
	// PageID is the root page or database id.
	PageID string

	// IDSource says where PageID came from (SourceCLI, SourceDotEnv,
	// SourceEnv or SourceConfig).
	IDSource string

	// Token is the integration token. It is never logged.
	Token string

	// Concurrency is the number of sibling branches traversed at once.
	Concurrency int

	// MaxBlocks caps the number of blocks listed. 0 means unlimited.
	MaxBlocks int64

	// IncludeRowValues samples rows of every database.
	IncludeRowValues bool

	// IncludeComments fetches the comments of the root page.
	IncludeComments bool

	// OutputDir is the directory the output files are written to.
	// It is cleared at the start of every write.
	OutputDir string

	// Timeout bounds each HTTP request.
	Timeout time.Duration

	// MinInterval is the minimum spacing between API requests.
	MinInterval time.Duration

	// MaxRetries and BaseDelay configure retries of transient failures.
	MaxRetries int
	BaseDelay  time.Duration

	SampleRows          int
	RelationTitleLimit  int
	RelationConcurrency int

	// Verbose enables debug logging.
	Verbose bool

	// Quiet suppresses the progress spinner and the summary line.
	Quiet bool

	// LogFormat is LogFormatText or LogFormatJSON.
	LogFormat string

	// MetricsFile, when set, receives the prometheus metrics of the scan in
	// the node_exporter textfile format.
	MetricsFile string

	// ConfigFilePath is the path to the configuration file.
	// If empty, .notionscan is searched for in the current directory and
	// then in the home directory.
	ConfigFilePath string

	// DBDir is the directory of the history database.
	DBDir string

	// UserAgent is sent with every API request.
	UserAgent string

	// Proxy is an http, https, socks5 or socks5h URL. Empty uses the
	// HTTP_PROXY family of environment variables.
	Proxy string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Concurrency:         DefaultConcurrency,
		OutputDir:           DefaultOutputDir,
		Timeout:             DefaultTimeout,
		MinInterval:         DefaultMinInterval,
		MaxRetries:          DefaultMaxRetries,
		BaseDelay:           DefaultBaseDelay,
		SampleRows:          DefaultSampleRows,
		RelationTitleLimit:  DefaultRelationTitleLimit,
		RelationConcurrency: DefaultRelationConcurrency,
		LogFormat:           LogFormatText,
		DBDir:               XDGDataDir(),
		UserAgent:           DefaultUserAgent,
	}
}

// XDGDataDir returns the XDG data directory for notionscan.
// On Linux: ~/.local/share/notionscan
// On macOS: ~/Library/Application Support/notionscan
// On Windows: %LOCALAPPDATA%\notionscan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for notionscan.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid and returns the first
// problem found.
func (c *Config) Validate() error {
	if c.PageID == "" {
		return ErrNoRootID
	}
	if _, err := model.NewNotionID(c.PageID); err != nil {
		return err
	}
	if c.Concurrency < 1 {
		return ErrInvalidConcurrency
	}
	if c.MaxBlocks < 0 {
		return ErrInvalidMaxBlocks
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MinInterval < 0 {
		return ErrInvalidMinInterval
	}
	if c.MaxRetries < 0 {
		return ErrInvalidMaxRetries
	}
	if c.SampleRows < 1 || c.SampleRows > 100 {
		return ErrInvalidSampleRows
	}
	if c.LogFormat != LogFormatText && c.LogFormat != LogFormatJSON {
		return ErrInvalidLogFormat
	}
	if c.OutputDir == "" {
		return ErrNoOutputDir
	}
	return nil
}

// RootID returns the validated root id.
func (c *Config) RootID() (model.NotionID, error) {
	if c.PageID == "" {
		return model.NotionID{}, ErrNoRootID
	}
	return model.NewNotionID(c.PageID)
}
