package profile

import (
	"bytes"
	"errors"
	"io"

	"gopkg.in/yaml.v3"
)

// DecodeYAML parses a YAML profile with strict field validation.
// An empty document is an empty profile.
func DecodeYAML(data []byte, path string) (*Profile, error) {
	var p Profile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return nil, &LoadError{Code: ErrCodeParseFailed, Message: err.Error(), Path: path, Line: lineOf(err.Error())}
	}

	if err := p.check(path); err != nil {
		return nil, err
	}
	return &p, nil
}
