// Package config loads the test.browser section of a test configuration file
// into a browser.Config. JSON with comments, YAML and HCL documents are
// accepted.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/goliatone/go-browser-opts/browser"
)

// Format names a document syntax.
type Format string

const (
	FormatJSONC Format = "jsonc"
	FormatYAML  Format = "yaml"
	FormatHCL   Format = "hcl"
)

var (
	// ErrUnsupportedFormat indicates a file extension or format name that has
	// no parser.
	ErrUnsupportedFormat = errors.New("config: unsupported format")
	// ErrMissingBrowserSection indicates a document without test.browser.
	ErrMissingBrowserSection = errors.New("config: missing test.browser section")
)

// File is a loaded configuration document.
type File struct {
	Path       string         `json:"path,omitempty"`
	Format     Format         `json:"format"`
	SnapshotID string         `json:"snapshotId"`
	Browser    browser.Config `json:"browser"`
}

// LoadOption configures loading.
type LoadOption func(*loadConfig)

type loadConfig struct {
	strict bool
	logger *slog.Logger
}

// WithStrict rejects keys of the browser section that are not recognised.
func WithStrict() LoadOption {
	return func(cfg *loadConfig) {
		cfg.strict = true
	}
}

// WithLogger sets the logger used for load diagnostics.
func WithLogger(logger *slog.Logger) LoadOption {
	return func(cfg *loadConfig) {
		cfg.logger = logger
	}
}

func applyLoadOptions(options []LoadOption) loadConfig {
	cfg := loadConfig{}
	for _, option := range options {
		if option != nil {
			option(&cfg)
		}
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.DiscardHandler)
	}
	cfg.logger = cfg.logger.With("component", "config")
	return cfg
}

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		return FormatJSONC, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".hcl":
		return FormatHCL, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// ParseFormat accepts a format name as given on a command line.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json", "jsonc":
		return FormatJSONC, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "hcl":
		return FormatHCL, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
}

// LoadFile reads and parses the document at path.
func LoadFile(path string, options ...LoadOption) (*File, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	file, err := parse(data, format, path, applyLoadOptions(options))
	if err != nil {
		return nil, err
	}
	file.Path = path
	return file, nil
}

// Parse parses an in-memory document.
func Parse(data []byte, format Format, options ...LoadOption) (*File, error) {
	return parse(data, format, "inline", applyLoadOptions(options))
}

func parse(data []byte, format Format, source string, cfg loadConfig) (*File, error) {
	snapshotID := SnapshotID(data)
	var (
		section browser.Config
		err     error
	)
	switch format {
	case FormatJSONC:
		section, err = parseJSONC(data, source, cfg.strict)
	case FormatYAML:
		section, err = parseYAML(data, source, cfg.strict)
	case FormatHCL:
		section, err = parseHCL(data, source, cfg.strict)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}
	section.SnapshotID = snapshotID
	cfg.logger.Debug("browser config loaded",
		"source", source,
		"format", format,
		"snapshot", snapshotID,
		"instances", len(section.Instances),
	)
	return &File{Format: format, SnapshotID: snapshotID, Browser: section}, nil
}

var snapshotKey = func() []byte {
	key := make([]byte, 32)
	copy(key, "go-browser-opts config snapshot")
	return key
}()

// SnapshotID returns a short keyed BLAKE3 digest of a raw document. Identical
// bytes always produce the same ID.
func SnapshotID(data []byte) string {
	hasher, err := blake3.NewKeyed(snapshotKey)
	if err != nil {
		panic("config: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	_, _ = hasher.Write(data)
	return hex.EncodeToString(hasher.Sum(nil)[:8])
}
