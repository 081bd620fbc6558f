// Package catalog loads question catalogs from YAML or JSON documents.
//
// A document looks like:
//
//	questions:
//	  - key: name
//	    prompt: "Welcome! What is your name?"
//	    type: text
//	    fallback: there
//	  - key: scenery
//	    prompt: "Do you prefer the mountains or the beach?"
//	    type: choice
//	    choices: [Mountains, Beach]
//	summary_template: "Nice to meet you, {{value \"name\"}}!"
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Tyler-Pritchard/Spokesperson/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Format is the encoding of a catalog document.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ErrUnknownFormat is returned for file extensions other than .yaml, .yml and .json.
var ErrUnknownFormat = errors.New("unknown catalog format")

// Document is the decoded catalog file.
type Document struct {
	Questions []domain.QuestionSpec `mapstructure:"questions"`

	// SummaryTemplate optionally replaces the default template summary.
	SummaryTemplate string `mapstructure:"summary_template"`
}

// Loaded is a validated catalog plus its document-level settings.
type Loaded struct {
	Catalog         *domain.Catalog
	SummaryTemplate string
}

// FormatFromPath guesses the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
	}
}

// LoadFile reads and validates a catalog file.
func LoadFile(path string) (*Loaded, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	loaded, err := Load(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return loaded, nil
}

// Load decodes and validates a catalog document.
// Unknown fields are rejected so typos in question metadata fail at startup.
func Load(r io.Reader, format Format) (*Loaded, error) {
	raw, err := decodeRaw(r, format)
	if err != nil {
		return nil, err
	}

	var doc Document
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &doc,
		ErrorUnused:      true,
		WeaklyTypedInput: false,
		TagName:          "mapstructure",
	})
	if err != nil {
		return nil, fmt.Errorf("build decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	for i := range doc.Questions {
		doc.Questions[i].Type = domain.AnswerType(strings.ToLower(string(doc.Questions[i].Type)))
	}

	cat, err := domain.NewCatalog(doc.Questions...)
	if err != nil {
		return nil, err
	}
	return &Loaded{Catalog: cat, SummaryTemplate: doc.SummaryTemplate}, nil
}

func decodeRaw(r io.Reader, format Format) (map[string]any, error) {
	var raw map[string]any
	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, &domain.CatalogError{Index: -1, Reason: "catalog document is empty"}
			}
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, &domain.CatalogError{Index: -1, Reason: "catalog document is empty"}
			}
			return nil, fmt.Errorf("parse json: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return raw, nil
}

// Encode writes a catalog as a YAML document.
func Encode(w io.Writer, c *domain.Catalog) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(struct {
		Questions []domain.QuestionSpec `yaml:"questions"`
	}{Questions: c.Questions()}); err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	return enc.Close()
}
