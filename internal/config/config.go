package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "web2proposal"

	// DefaultOutputFile is where the proposal is written when --out is not given.
	DefaultOutputFile = "proposal.md"

	// DefaultBaseURL is the OpenAI-compatible API endpoint.
	DefaultBaseURL = "https://api.openai.com/v1"

	// DefaultModel is the chat model used by every LLM-backed stage.
	DefaultModel = "gpt-3.5-turbo"

	// DefaultTimeout bounds a single page fetch.
	DefaultTimeout = 10 * time.Second

	// DefaultLLMTimeout bounds a single model call. Writing a full proposal
	// can take tens of seconds on slower models.
	DefaultLLMTimeout = 60 * time.Second

	// DefaultConcurrency is the number of pages fetched or extracted at once.
	DefaultConcurrency = 4

	// DefaultUserAgent is sent with every page request. Some sites refuse
	// requests that do not look like they come from a browser.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

	// DefaultMaxBodySize limits the response body read per page.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB
)

// Environment variables consulted by ApplyEnv.
const (
	EnvAPIKey  = "OPENAI_API_KEY"
	EnvBaseURL = "OPENAI_BASE_URL"
	EnvModel   = "OPENAI_MODEL"
)

// Config holds all options for a proposal run.
// It is populated from defaults, the config file, the environment and CLI
// flags, in increasing order of precedence, and then passed down explicitly.
type Config struct {
	// InputFile is the path of the URL list, one URL per line.
	InputFile string

	// OutputFile is the markdown file the proposal is written to.
	OutputFile string

	// DocxFile, when set, also exports the proposal as a Word document.
	DocxFile string

	// JSONFile, when set, dumps every intermediate artifact of the run.
	JSONFile string

	// APIKey authenticates against the LLM endpoint. An empty key is a
	// valid configuration: every LLM-capable stage then runs its
	// deterministic fallback.
	APIKey string

	// BaseURL is the OpenAI-compatible endpoint.
	BaseURL string

	// Model is the chat model name.
	Model string

	// Timeout bounds each page fetch.
	Timeout time.Duration

	// LLMTimeout bounds each model call.
	LLMTimeout time.Duration

	// Concurrency is the number of pages fetched or extracted at once.
	Concurrency int

	// UserAgent is the User-Agent header sent when fetching pages.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes.
	MaxBodySize int64

	// Headers are extra HTTP headers sent when fetching pages.
	Headers map[string]string

	// ConfigFilePath is the explicit config file path, if any.
	ConfigFilePath string

	// SaveHistory stores the finished run in the history database.
	SaveHistory bool

	// DBDir is the directory holding the history database.
	DBDir string

	// Verbose enables debug logging.
	Verbose bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		OutputFile:  DefaultOutputFile,
		BaseURL:     DefaultBaseURL,
		Model:       DefaultModel,
		Timeout:     DefaultTimeout,
		LLMTimeout:  DefaultLLMTimeout,
		Concurrency: DefaultConcurrency,
		UserAgent:   DefaultUserAgent,
		MaxBodySize: DefaultMaxBodySize,
		Headers:     map[string]string{},
		SaveHistory: true,
		DBDir:       XDGDataDir(),
	}
}

// LLMEnabled reports whether an API key is configured.
func (c *Config) LLMEnabled() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// ApplyFile overlays the non-zero values of f onto c.
func (c *Config) ApplyFile(f *File) {
	if f == nil {
		return
	}

	if f.LLM.APIKey != "" {
		c.APIKey = f.LLM.APIKey
	}
	if f.LLM.BaseURL != "" {
		c.BaseURL = f.LLM.BaseURL
	}
	if f.LLM.Model != "" {
		c.Model = f.LLM.Model
	}
	if f.LLM.Timeout != 0 {
		c.LLMTimeout = f.LLM.Timeout
	}

	if f.Fetch.Timeout != 0 {
		c.Timeout = f.Fetch.Timeout
	}
	if f.Fetch.UserAgent != "" {
		c.UserAgent = f.Fetch.UserAgent
	}
	if f.Fetch.MaxBodySize != 0 {
		c.MaxBodySize = f.Fetch.MaxBodySize
	}
	if f.Fetch.Concurrency != 0 {
		c.Concurrency = f.Fetch.Concurrency
	}
	for k, v := range f.Fetch.Headers {
		c.Headers[k] = v
	}

	if f.Output.History != nil {
		c.SaveHistory = *f.Output.History
	}
	if f.Output.DBDir != "" {
		c.DBDir = f.Output.DBDir
	}
}

// ApplyEnv overlays LLM settings found in the environment onto c.
// getenv is usually os.Getenv; tests pass a map lookup.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv(EnvAPIKey)); v != "" {
		c.APIKey = v
	}
	if v := strings.TrimSpace(getenv(EnvBaseURL)); v != "" {
		c.BaseURL = v
	}
	if v := strings.TrimSpace(getenv(EnvModel)); v != "" {
		c.Model = v
	}
}

// XDGDataDir returns the XDG data directory for web2proposal.
// On Linux: ~/.local/share/web2proposal
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for web2proposal.
// On Linux: ~/.config/web2proposal
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found as one of the sentinel errors in errors.go.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.InputFile) == "" {
		return ErrNoInput
	}
	if strings.TrimSpace(c.OutputFile) == "" {
		return ErrEmptyOutput
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.LLMTimeout <= 0 {
		return ErrInvalidLLMTimeout
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.MaxBodySize <= 0 {
		return ErrInvalidMaxBodySize
	}
	if c.LLMEnabled() && strings.TrimSpace(c.Model) == "" {
		return ErrEmptyModel
	}
	return nil
}
