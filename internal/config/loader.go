package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".web2proposal"

// xdgConfigFile is the file name looked up inside XDGConfigDir.
const xdgConfigFile = "config.yaml"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File is the on-disk configuration file.
//
// Example:
//
//	llm:
//	  base_url: https://api.openai.com/v1
//	  model: gpt-4o-mini
//	  timeout: 90s
//	fetch:
//	  timeout: 15s
//	  concurrency: 8
//	  headers:
//	    Accept-Language: zh-CN,zh;q=0.9
//	output:
//	  history: true
type File struct {
	LLM    LLMSection    `yaml:"llm"`
	Fetch  FetchSection  `yaml:"fetch"`
	Output OutputSection `yaml:"output"`
}

// LLMSection configures the language model endpoint.
type LLMSection struct {
	// APIKey is accepted for convenience, but the OPENAI_API_KEY
	// environment variable is the recommended place for it.
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// FetchSection configures page fetching.
type FetchSection struct {
	Timeout     time.Duration     `yaml:"timeout"`
	UserAgent   string            `yaml:"user_agent"`
	MaxBodySize int64             `yaml:"max_body_size"`
	Concurrency int               `yaml:"concurrency"`
	Headers     map[string]string `yaml:"headers"`
}

// OutputSection configures what happens with a finished run.
type OutputSection struct {
	// History is a pointer so that an explicit "false" can be told apart
	// from an absent key.
	History *bool  `yaml:"history"`
	DBDir   string `yaml:"db_dir"`
}

// LoadConfigFile loads a configuration file from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}

	if cf.Fetch.Headers == nil {
		cf.Fetch.Headers = make(map[string]string)
	}

	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .web2proposal in the current directory
// 3. Look for .web2proposal in the user's home directory
// 4. Look for config.yaml in the XDG config directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	candidates := make([]string, 0, 3)
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), xdgConfigFile))

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
