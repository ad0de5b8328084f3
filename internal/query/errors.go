package query

import (
	"errors"
	"fmt"
)

// Code identifies a compilation error. Codes are stable and reported by the
// CLI.
type Code string

// Compilation error codes (E200-E299)
const (
	CodeEmptyFeatureTypeFilter Code = "E201" // no feature type selected
	CodeUnknownTypeName        Code = "E202" // type name does not resolve to a selectable type
	CodeMixedVersion           Code = "E203" // selected types span schema versions
	CodeAbstractTypeProjection Code = "E204" // projection targets an abstract type
	CodeInvalidSchemaPath      Code = "E205" // value reference does not resolve
	CodeUnsupportedOperand     Code = "E206" // operand kind not valid for operator
	CodeEmptyIDSet             Code = "E207" // identifier predicate without ids
	CodeEmptyOperator          Code = "E208" // AND/OR without operands

	CodeInvalidCounter    Code = "E209" // counter bounds out of range
	CodeInvalidLodFilter  Code = "E210" // no level or negative depth
	CodeInvalidTiling     Code = "E211" // bad extent, grid or active tile
	CodeInvalidPredicate  Code = "E212" // malformed predicate node
	CodeInvalidLiteral    Code = "E213" // literal not convertible to column type
	CodeInvalidProjection Code = "E214" // bad projection mode or generic attribute
)

var codeNames = map[Code]string{
	CodeEmptyFeatureTypeFilter: "EmptyFeatureTypeFilter",
	CodeUnknownTypeName:        "UnknownTypeName",
	CodeMixedVersion:           "MixedVersion",
	CodeAbstractTypeProjection: "AbstractTypeProjection",
	CodeInvalidSchemaPath:      "InvalidSchemaPath",
	CodeUnsupportedOperand:     "UnsupportedOperand",
	CodeEmptyIDSet:             "EmptyIdSet",
	CodeEmptyOperator:          "EmptyOperator",
	CodeInvalidCounter:         "InvalidCounter",
	CodeInvalidLodFilter:       "InvalidLodFilter",
	CodeInvalidTiling:          "InvalidTiling",
	CodeInvalidPredicate:       "InvalidPredicate",
	CodeInvalidLiteral:         "InvalidLiteral",
	CodeInvalidProjection:      "InvalidProjection",
}

// Name returns the symbolic name of the code.
func (c Code) Name() string {
	if n, ok := codeNames[c]; ok {
		return n
	}
	return string(c)
}

// Error is a configuration or compilation error. Errors are deterministic for
// a given input and are never retried.
type Error struct {
	Code    Code
	Message string
	Field   string // configuration field, e.g. "featureTypes[1]"
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Cause != nil {
		msg = msg + ": " + e.Cause.Error()
	}
	return fmt.Sprintf("[%s] %s", e.Code, msg)
}

func (e *Error) Unwrap() error { return e.Cause }

// Errorf creates an Error with a formatted message.
func Errorf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error caused by err.
func Wrap(code Code, err error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: err}
}

// At returns a copy of e attributed to a configuration field. An existing
// field is nested below the new one.
func (e *Error) At(field string) *Error {
	cp := *e
	if cp.Field == "" {
		cp.Field = field
	} else {
		cp.Field = field + "." + cp.Field
	}
	return &cp
}

// CodeOf extracts the code of the first Error in err's chain.
func CodeOf(err error) (Code, bool) {
	var qe *Error
	if errors.As(err, &qe) {
		return qe.Code, true
	}
	return "", false
}

// IsCode reports whether err carries code.
func IsCode(err error, code Code) bool {
	c, ok := CodeOf(err)
	return ok && c == code
}
