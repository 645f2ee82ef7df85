package plist

import (
	"fmt"
	"io"

	"github.com/agilira/go-errors"
)

// ErrorKind identifies the closed set of ways a read or write of a property
// list can fail. It is implemented as a github.com/agilira/go-errors error
// code so that Error can carry structured context (byte offsets, the event
// or object type involved) alongside the human-readable message.
type ErrorKind = errors.ErrorCode

const (
	ErrIO                       ErrorKind = "PLIST_IO"
	ErrUnexpectedEOF            ErrorKind = "PLIST_UNEXPECTED_EOF"
	ErrUnexpectedEndOfEvents    ErrorKind = "PLIST_UNEXPECTED_END_OF_EVENT_STREAM"
	ErrUnexpectedEventType      ErrorKind = "PLIST_UNEXPECTED_EVENT_TYPE"

	ErrInvalidXMLSyntax                    ErrorKind = "PLIST_INVALID_XML_SYNTAX"
	ErrInvalidXMLUTF8                      ErrorKind = "PLIST_INVALID_XML_UTF8"
	ErrUnclosedXMLElement                  ErrorKind = "PLIST_UNCLOSED_XML_ELEMENT"
	ErrUnexpectedXMLOpeningTag             ErrorKind = "PLIST_UNEXPECTED_XML_OPENING_TAG"
	ErrUnknownXMLElement                   ErrorKind = "PLIST_UNKNOWN_XML_ELEMENT"
	ErrUnexpectedXMLCharactersExpectedElem ErrorKind = "PLIST_UNEXPECTED_XML_CHARACTERS_EXPECTED_ELEMENT"

	ErrInvalidDataString    ErrorKind = "PLIST_INVALID_DATA_STRING"
	ErrInvalidDateString    ErrorKind = "PLIST_INVALID_DATE_STRING"
	ErrInvalidIntegerString ErrorKind = "PLIST_INVALID_INTEGER_STRING"
	ErrInvalidRealString    ErrorKind = "PLIST_INVALID_REAL_STRING"

	ErrUidNotSupportedInXMLPlist ErrorKind = "PLIST_UID_NOT_SUPPORTED_IN_XML"

	ErrObjectTooLarge                   ErrorKind = "PLIST_OBJECT_TOO_LARGE"
	ErrInvalidMagic                     ErrorKind = "PLIST_INVALID_MAGIC"
	ErrInvalidTrailerObjectOffsetSize   ErrorKind = "PLIST_INVALID_TRAILER_OFFSET_SIZE"
	ErrInvalidTrailerObjectRefSize      ErrorKind = "PLIST_INVALID_TRAILER_REF_SIZE"
	ErrInvalidObjectLength              ErrorKind = "PLIST_INVALID_OBJECT_LENGTH"
	ErrObjectReferenceTooLarge          ErrorKind = "PLIST_OBJECT_REFERENCE_TOO_LARGE"
	ErrObjectOffsetTooLarge             ErrorKind = "PLIST_OBJECT_OFFSET_TOO_LARGE"
	ErrRecursiveObject                  ErrorKind = "PLIST_RECURSIVE_OBJECT"
	ErrNullObjectUnimplemented          ErrorKind = "PLIST_NULL_OBJECT_UNIMPLEMENTED"
	ErrFillObjectUnimplemented          ErrorKind = "PLIST_FILL_OBJECT_UNIMPLEMENTED"
	ErrIntegerOutOfRange                ErrorKind = "PLIST_INTEGER_OUT_OF_RANGE"
	ErrInfiniteOrNanDate                ErrorKind = "PLIST_INFINITE_OR_NAN_DATE"
	ErrInvalidUTF8String                ErrorKind = "PLIST_INVALID_UTF8_STRING"
	ErrInvalidUTF16String               ErrorKind = "PLIST_INVALID_UTF16_STRING"
	ErrUnknownObjectType                ErrorKind = "PLIST_UNKNOWN_OBJECT_TYPE"

	ErrUnclosedString        ErrorKind = "PLIST_UNCLOSED_STRING"
	ErrIncompleteComment     ErrorKind = "PLIST_INCOMPLETE_COMMENT"
	ErrInvalidUTF8AsciiStream ErrorKind = "PLIST_INVALID_UTF8_ASCII_STREAM"
	ErrInvalidOctalString    ErrorKind = "PLIST_INVALID_OCTAL_STRING"
)

// Error is the error type returned by every Reader and Writer in this
// package. It carries a closed-set Kind, an optional byte offset into the
// stream being processed, and (for ErrIO) the underlying cause.
type Error struct {
	inner *errors.Error
}

func newError(kind ErrorKind, message string) *Error {
	return &Error{inner: errors.New(kind, message)}
}

func newErrorf(kind ErrorKind, format string, args ...interface{}) *Error {
	return newError(kind, fmt.Sprintf(format, args...))
}

func wrapIOError(err error) *Error {
	if err == nil {
		return nil
	}
	if pe, ok := err.(*Error); ok {
		return pe
	}
	return &Error{inner: errors.Wrap(err, ErrIO, "i/o error")}
}

// AtOffset attaches the given byte offset to the error and returns it,
// allowing callers to chain it onto a freshly constructed *Error.
func (e *Error) AtOffset(offset int64) *Error {
	if e == nil {
		return nil
	}
	e.inner = e.inner.WithContext("offset", offset)
	return e
}

// Kind reports which of the closed set of failure modes this error
// represents.
func (e *Error) Kind() ErrorKind {
	if e == nil {
		return ""
	}
	return e.inner.Code
}

// Offset reports the byte offset associated with the error, if any.
func (e *Error) Offset() (int64, bool) {
	if e == nil || e.inner.Context == nil {
		return 0, false
	}
	off, ok := e.inner.Context["offset"].(int64)
	return off, ok
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if off, ok := e.Offset(); ok {
		return fmt.Sprintf("%s (at offset %d)", e.inner.Error(), off)
	}
	return e.inner.Error()
}

func (e *Error) Unwrap() error {
	if e == nil || e.inner.Cause == nil {
		return nil
	}
	return e.inner.Cause
}

// IsIO reports whether the failure was caused by the underlying byte
// source or sink rather than by malformed plist content.
func (e *Error) IsIO() bool {
	return e != nil && e.inner.Code == ErrIO
}

// AsIO returns the underlying IO error, if this error wraps one.
func (e *Error) AsIO() (error, bool) {
	if !e.IsIO() || e.inner.Cause == nil {
		return nil, false
	}
	return e.inner.Cause, true
}

// IntoIO returns the underlying IO error if there is one, or e itself
// otherwise.
func (e *Error) IntoIO() error {
	if io, ok := e.AsIO(); ok {
		return io
	}
	return e
}

// IsEOF reports whether the failure was an unexpected end of input.
func (e *Error) IsEOF() bool {
	return e != nil && e.inner.Code == ErrUnexpectedEOF
}

// ioOrEOF wraps an error coming from a byte source: end of file where a
// complete token or object was expected becomes ErrUnexpectedEOF, anything
// else becomes ErrIO.
func ioOrEOF(err error) *Error {
	if err == nil {
		return nil
	}
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return newError(ErrUnexpectedEOF, "unexpected end of file")
	}
	return wrapIOError(err)
}
