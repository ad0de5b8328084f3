package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"
)

// Load error codes (E000-E099)
const (
	ErrCodeGeneric           = "E001" // Generic/unknown error
	ErrCodeNotFound          = "E005" // Path not found
	ErrCodeBuildFailed       = "E006" // CUE build failed
	ErrCodeDecodeFailed      = "E008" // Document does not decode
	ErrCodeUnsupportedFormat = "E009" // Unknown file extension
)

// LoadError reports a query document that cannot be read or decoded.
type LoadError struct {
	Code    string
	Message string
	File    string
	Pos     token.Pos // CUE position if available
	Err     error
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	if e.File != "" {
		return fmt.Sprintf("%s: %s: %s", e.File, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Load reads a query document. The format follows the file extension:
// .yaml or .yml, .json, or .cue.
func Load(path string) (*Query, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: "query file not found", File: path, Err: err}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeGeneric, Message: err.Error(), File: path, Err: err}
	}

	var q *Query
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		q, err = ParseYAML(data)
	case ".json":
		q, err = ParseJSON(data)
	case ".cue":
		q, err = ParseCUE(data, path)
	default:
		return nil, &LoadError{
			Code:    ErrCodeUnsupportedFormat,
			Message: fmt.Sprintf("unsupported query format %q (use .yaml, .yml, .json or .cue)", ext),
			File:    path,
		}
	}
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) && le.File == "" {
			le.File = path
		}
		return nil, err
	}
	return q, nil
}

// ParseYAML decodes a YAML query document. Unknown fields are rejected.
func ParseYAML(data []byte) (*Query, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var q Query
	if err := dec.Decode(&q); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &LoadError{Code: ErrCodeDecodeFailed, Message: "empty query document"}
		}
		return nil, &LoadError{Code: ErrCodeDecodeFailed, Message: fmt.Sprintf("decoding YAML: %v", err), Err: err}
	}
	return &q, nil
}

// ParseJSON decodes a JSON query document. Unknown fields are rejected and
// numbers keep their literal form, so integers stay integers.
func ParseJSON(data []byte) (*Query, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	dec.UseNumber()

	var q Query
	if err := dec.Decode(&q); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &LoadError{Code: ErrCodeDecodeFailed, Message: "empty query document"}
		}
		return nil, &LoadError{Code: ErrCodeDecodeFailed, Message: fmt.Sprintf("decoding JSON: %v", err), Err: err}
	}
	return &q, nil
}

// ParseCUE evaluates a CUE query document and decodes its value. Defaults
// are applied; fields left incomplete are an error. filename is used for
// error positions.
func ParseCUE(data []byte, filename string) (*Query, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, cueLoadError(err)
	}
	if err := v.Validate(); err != nil {
		return nil, cueLoadError(err)
	}

	b, err := v.MarshalJSON()
	if err != nil {
		return nil, cueLoadError(err)
	}
	return ParseJSON(b)
}

// cueLoadError reports the first CUE error with its position.
func cueLoadError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Code: ErrCodeBuildFailed, Message: err.Error(), Err: err}
	}
	first := errs[0]
	le := &LoadError{Code: ErrCodeBuildFailed, Message: first.Error(), Err: err}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}
