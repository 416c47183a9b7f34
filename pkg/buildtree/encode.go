package buildtree

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// Format selects a document encoding.
type Format string

const (
	JSON    Format = "json"
	YAML    Format = "yaml"
	Msgpack Format = "msgpack"
)

// Formats lists the supported encodings.
var Formats = []Format{JSON, YAML, Msgpack}

// ParseFormat accepts a format name or a common alias ("yml", "mp").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	case "msgpack", "mp", "mpk":
		return Msgpack, nil
	}
	return "", fmt.Errorf("buildtree: unknown format %q", s)
}

// FormatFor guesses the format from a file name.
func FormatFor(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// Encode writes doc to w. Map keys are always sorted, so equal documents
// encode to equal bytes.
func Encode(w io.Writer, doc *Document, f Format) error {
	switch f {
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	case Msgpack:
		enc := msgpack.NewEncoder(w)
		enc.SetSortMapKeys(true)
		return enc.Encode(doc)
	}
	return fmt.Errorf("buildtree: unknown format %q", f)
}

// Decode reads a document written by Encode.
func Decode(r io.Reader, f Format) (*Document, error) {
	var doc Document
	var err error
	switch f {
	case JSON:
		err = json.NewDecoder(r).Decode(&doc)
	case YAML:
		err = yaml.NewDecoder(r).Decode(&doc)
	case Msgpack:
		err = msgpack.NewDecoder(r).Decode(&doc)
	default:
		return nil, fmt.Errorf("buildtree: unknown format %q", f)
	}
	if err != nil {
		return nil, fmt.Errorf("buildtree: decode %s: %w", f, err)
	}
	if doc.Version != FormatVersion {
		return nil, fmt.Errorf("buildtree: unsupported document version %d", doc.Version)
	}
	return &doc, nil
}
