package config

import (
	"fmt"
	"math"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/replaysheet/internal/export"
	"github.com/nao1215/replaysheet/internal/fetch"
	"github.com/nao1215/replaysheet/internal/replay"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "replaysheet"

	// SheetURLPrefix is the prefix every accepted document URL must have.
	SheetURLPrefix = "https://docs.qq.com/sheet/"

	// DefaultYTolerance is the maximum vertical gap, in canvas units, between
	// consecutive fragments of one row.
	DefaultYTolerance = replay.DefaultYTolerance

	// DefaultTimeout bounds each page download.
	DefaultTimeout = fetch.DefaultTimeout

	// DefaultBatchSize is the number of documents processed concurrently.
	// The service rate-limits aggressive clients, so this stays small.
	DefaultBatchSize = 4

	// DefaultOutputFormat is used when neither --format nor the output file
	// extension names a format.
	DefaultOutputFormat = string(export.FormatCSV)

	// DefaultUserAgent is sent with every page request.
	DefaultUserAgent = fetch.DefaultUserAgent

	// DefaultMaxBodySize limits the page size read from the server.
	DefaultMaxBodySize = fetch.DefaultMaxBodySize

	// DefaultTorStartupTimeout is the maximum time to wait for the embedded
	// Tor daemon to bootstrap.
	DefaultTorStartupTimeout = fetch.DefaultTorStartupTimeout
)

// Config holds all configuration options for replaysheet.
// It is populated from CLI flags and the config file and passed through the
// application rather than kept in global state.
//
// Design decision: We use a single flat struct, like the flag set it mirrors.
// Per-document overrides live in Documents and are resolved by ForDocument.
type Config struct {
	// Targets is the list of sheet URLs to process.
	Targets []string

	// YTolerance is the row-splitting threshold.
	YTolerance float64

	// HeaderFilter enables removal of the canvas's own row/column labels.
	HeaderFilter bool

	// Timeout is the timeout for each page download.
	Timeout time.Duration

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes.
	// Set to 0 to use the default.
	MaxBodySize int64

	// BatchSize is the number of documents processed concurrently.
	BatchSize int

	// OutputFile is where the table is written. Empty means no file.
	// With several targets the file name gets a numeric suffix per document.
	OutputFile string

	// OutputFormat is the export format name. Empty means infer it from
	// OutputFile, falling back to DefaultOutputFormat.
	OutputFormat string

	// Normalize applies Unicode NFC normalization to exported cells.
	Normalize bool

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" form.
	ProxyAddress string

	// UseTor starts an embedded Tor daemon and fetches through it.
	UseTor bool

	// TorStartupTimeout bounds the embedded Tor daemon bootstrap.
	TorStartupTimeout time.Duration

	// AllowAnyHost disables the sheet URL prefix check.
	AllowAnyHost bool

	// Verbose enables debug logging. When false only warnings and errors
	// are logged.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, .replaysheet is searched in the current directory and then
	// in the user's home directory.
	ConfigFilePath string

	// Documents holds per-document settings loaded from the config file.
	Documents *File

	// DBDir is the directory of the snapshot database.
	// Defaults to the XDG data directory (~/.local/share/replaysheet on Linux).
	DBDir string

	// SaveToDB stores every successful extraction as a snapshot.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (tolerance, timeout,
// header filter). It also documents what the defaults are.
func NewConfig() *Config {
	return &Config{
		YTolerance:        DefaultYTolerance,
		HeaderFilter:      true,
		Timeout:           DefaultTimeout,
		UserAgent:         DefaultUserAgent,
		MaxBodySize:       DefaultMaxBodySize,
		BatchSize:         DefaultBatchSize,
		TorStartupTimeout: DefaultTorStartupTimeout,
		DBDir:             XDGDataDir(),
		SaveToDB:          true,
	}
}

// XDGDataDir returns the XDG data directory for replaysheet.
// On Linux: ~/.local/share/replaysheet
// On macOS: ~/Library/Application Support/replaysheet
// On Windows: %LOCALAPPDATA%\replaysheet
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for replaysheet.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found.
//
// Design decision: We validate once after CLI parsing, before any network
// traffic, so mistakes fail fast with a clear message.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}

	for _, target := range c.Targets {
		if err := ValidateURL(target, c.AllowAnyHost); err != nil {
			return err
		}
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.YTolerance < 0 || math.IsNaN(c.YTolerance) {
		return fmt.Errorf("%w (got %v)", ErrNegativeTolerance, c.YTolerance)
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	if c.OutputFormat != "" {
		if _, err := export.ParseFormat(c.OutputFormat); err != nil {
			return fmt.Errorf("%w: %q (supported: %s)",
				ErrUnsupportedFormat, c.OutputFormat, strings.Join(export.FormatNames(), ", "))
		}
	}

	if c.ProxyAddress != "" && c.UseTor {
		return ErrConflictingProxy
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	return nil
}

// ValidateURL checks that target is a sheet URL. With allowAnyHost any
// absolute http or https URL is accepted.
func ValidateURL(target string, allowAnyHost bool) error {
	if !allowAnyHost {
		if !strings.HasPrefix(target, SheetURLPrefix) || len(target) == len(SheetURLPrefix) {
			return fmt.Errorf("%w: %q", ErrInvalidURL, target)
		}
		return nil
	}

	u, err := url.Parse(target)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidURL, target)
	}
	return nil
}

// Settings are the effective options for one document after merging the
// global configuration with the config file.
type Settings struct {
	YTolerance   float64
	HeaderFilter bool
	Cookie       string
	Headers      map[string]string
	OutputFile   string
	OutputFormat string
}

// ForDocument returns the effective settings for the target URL.
// Values from the config file override the built-in defaults, and values
// set explicitly on the command line (recorded in explicit by flag name)
// override both.
func (c *Config) ForDocument(target string, explicit map[string]bool) Settings {
	s := Settings{
		YTolerance:   c.YTolerance,
		HeaderFilter: c.HeaderFilter,
		OutputFile:   c.OutputFile,
		OutputFormat: c.OutputFormat,
	}

	if c.Documents == nil {
		return s
	}

	doc := c.Documents.GetDocumentConfig(target)
	s.Cookie = doc.Cookie
	s.Headers = doc.Headers

	if doc.YTolerance != nil && !explicit["y-tolerance"] {
		s.YTolerance = *doc.YTolerance
	}
	if doc.HeaderFilter != nil && !explicit["no-header-filter"] {
		s.HeaderFilter = *doc.HeaderFilter
	}
	if doc.Output != "" && !explicit["output"] {
		s.OutputFile = doc.Output
	}
	if doc.Format != "" && !explicit["format"] {
		s.OutputFormat = doc.Format
	}

	return s
}
