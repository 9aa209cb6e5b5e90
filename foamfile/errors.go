package foamfile

import (
	"fmt"
)

// MissingFileError is returned when a case file cannot be opened
type MissingFileError struct {
	Path string
	Err  error
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("missing file %s: %v", e.Path, e.Err)
}

func (e *MissingFileError) Unwrap() error { return e.Err }

// MalformedBlockError reports a brace/keyword mismatch or an unterminated
// dictionary. It accompanies a partial result rather than replacing it.
type MalformedBlockError struct {
	Line   int // zero based
	Reason string
}

func (e *MalformedBlockError) Error() string {
	return fmt.Sprintf("malformed block at line %d: %s", e.Line+1, e.Reason)
}

// TruncatedError is returned when a data block holds fewer elements than
// its declared count
type TruncatedError struct {
	Want, Got int // bytes for binary payloads, rows for ASCII blocks
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("truncated data block: need %d, have %d", e.Want, e.Got)
}

// SyntaxError is returned for an unparsable count, number or list
type SyntaxError struct {
	Line int // zero based, -1 when unknown
	Msg  string
}

func (e *SyntaxError) Error() string {
	if e.Line < 0 {
		return "syntax error: " + e.Msg
	}
	return fmt.Sprintf("syntax error at line %d: %s", e.Line+1, e.Msg)
}

// ShapeMismatchError is returned when two fields that must line up
// element for element do not
type ShapeMismatchError struct {
	CountA, CountB int
	KindA, KindB   Kind
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("shape mismatch: %d %s values vs %d %s values",
		e.CountA, e.KindA, e.CountB, e.KindB)
}
