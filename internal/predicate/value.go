package predicate

import (
	"strconv"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Value is a literal operand of a comparison.
//
// Sealed: String, Int, Double, Bool, Timestamp.
type Value interface {
	value() // Marker method - seals interface to this package

	// Canonical renders the literal for structural keys. Distinct values of
	// the same type never share a rendering.
	Canonical() string
}

// String is a text literal, always NFC-normalized.
type String string

// Int is an integer literal.
type Int int64

// Double is a floating point literal.
type Double float64

// Bool is a boolean literal.
type Bool bool

// Timestamp is a date or date-time literal.
type Timestamp time.Time

func (String) value()    {}
func (Int) value()       {}
func (Double) value()    {}
func (Bool) value()      {}
func (Timestamp) value() {}

// NewString creates a String literal in NFC form.
func NewString(s string) String { return String(normalize(s)) }

func (v String) Canonical() string    { return strconv.Quote(string(v)) }
func (v Int) Canonical() string       { return strconv.FormatInt(int64(v), 10) }
func (v Double) Canonical() string    { return strconv.FormatFloat(float64(v), 'g', -1, 64) + "d" }
func (v Bool) Canonical() string      { return strconv.FormatBool(bool(v)) }
func (v Timestamp) Canonical() string { return "@" + time.Time(v).UTC().Format(time.RFC3339Nano) }

func normalize(s string) string {
	return norm.NFC.String(s)
}
