package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"math"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/nao1215/replaysheet/internal/export"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".replaysheet"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// LoadConfigFile loads document configurations from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound.
// Callers should handle this error appropriately based on whether
// the config file path was explicitly specified by the user.
//
// Unknown keys are rejected so that a misspelled option such as
// "ytolerance" fails loudly instead of being ignored. An empty file is a
// valid, empty configuration.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cf); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	if cf.Documents == nil {
		cf.Documents = make(map[string]DocumentConfig)
	}

	if err := cf.Validate(); err != nil {
		return nil, err
	}

	return &cf, nil
}

// Validate checks the values of the defaults and every document entry.
// Entries are checked in key order so the reported error is stable.
func (cf *File) Validate() error {
	if err := cf.Defaults.validate(); err != nil {
		return fmt.Errorf("defaults: %w", err)
	}
	for _, key := range slices.Sorted(maps.Keys(cf.Documents)) {
		if err := cf.Documents[key].validate(); err != nil {
			return fmt.Errorf("document %q: %w", key, err)
		}
	}
	return nil
}

// validate checks one document entry.
func (dc DocumentConfig) validate() error {
	if dc.YTolerance != nil && (*dc.YTolerance < 0 || math.IsNaN(*dc.YTolerance)) {
		return fmt.Errorf("%w (got %v)", ErrNegativeTolerance, *dc.YTolerance)
	}
	if dc.Format != "" {
		if _, err := export.ParseFormat(dc.Format); err != nil {
			return fmt.Errorf("%w: %q", ErrUnsupportedFormat, dc.Format)
		}
	}
	return nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .replaysheet in the current directory
// 3. Look for .replaysheet in the user's home directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	// If explicit path is provided, use it
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	// Check current directory
	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	// Check home directory
	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}
