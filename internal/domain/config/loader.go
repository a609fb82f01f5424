package config

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format is a configuration document syntax.
type Format string

// Supported formats.
const (
	FormatYAML Format = "YAML"
	FormatTOML Format = "TOML"
)

// FormatFor picks the document format from a file extension.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatYAML
}

// Loader loads configuration from the filesystem.
type Loader struct{}

// NewLoader creates a new Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads and validates the document at path. A missing file is an error.
func (l *Loader) Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewConfigNotFoundError(path)
		}
		return nil, NewConfigReadError(path, err)
	}
	return Parse(data, FormatFor(path), path)
}

// LoadOrDefault behaves like Load, except that a missing file yields the
// built-in defaults.
func (l *Loader) LoadOrDefault(path string) (*Config, error) {
	cfg, err := l.Load(path)
	if IsUserError(err, ErrCodeConfigNotFound) {
		return Default(), nil
	}
	return cfg, err
}

// Parse decodes a document and validates it into a Config. Unknown keys are
// rejected. source is used only for error context.
func Parse(data []byte, format Format, source string) (*Config, error) {
	var raw rawDocument
	if err := decode(data, format, &raw); err != nil {
		return nil, NewConfigParseError(source, format, err)
	}
	return build(&raw, source)
}

func decode(data []byte, format Format, raw *rawDocument) error {
	switch format {
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		return dec.Decode(raw)
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(raw); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil
	}
}
