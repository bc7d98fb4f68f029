package iff

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrRootNotForm indicates that a stream does not start with a group
	// chunk.
	ErrRootNotForm = errors.New("root is not a FORM")
	// ErrBadTag indicates four bytes that are not a valid chunk tag.
	ErrBadTag = errors.New("invalid chunk tag")
	// ErrLengthMismatch indicates a group whose declared length does not
	// match the encoded size of its members.
	ErrLengthMismatch = errors.New("group length does not match members")
	// ErrChunkTooLong indicates a chunk whose declared length overruns
	// its enclosing group.
	ErrChunkTooLong = errors.New("chunk length overruns enclosing form")
	// ErrTrailingData indicates bytes in the stream after the end of the
	// root form.
	ErrTrailingData = errors.New("data after root form")
)

// FormatError is a structural violation found while decoding: the chunk
// tag and byte offset locate the offending record.
type FormatError struct {
	// Tag is the tag of the chunk in which the violation was found.
	Tag Tag
	// Offset is the byte offset of the chunk's header.
	Offset int64

	Cause error
}

func (err FormatError) Error() string {
	if err.Offset < 0 {
		return fmt.Sprintf("malformed %q chunk: %s", err.Tag.String(), err.Cause.Error())
	}
	return fmt.Sprintf("malformed %q chunk at offset %d: %s", err.Tag.String(), err.Offset, err.Cause.Error())
}

func (err FormatError) Unwrap() error {
	return err.Cause
}

// DataError wraps an error that occurred while reading or writing raw
// bytes, such as a truncated stream.
type DataError struct {
	// Offset is the byte offset where the error occurred.
	Offset int64

	Cause error
}

func (err DataError) Error() string {
	var s strings.Builder
	s.WriteString("data error")
	if err.Offset >= 0 {
		s.WriteString(" at ")
		s.Write(strconv.AppendInt(nil, err.Offset, 10))
	}
	if err.Cause != nil {
		s.WriteString(": ")
		s.WriteString(err.Cause.Error())
	}
	return s.String()
}

func (err DataError) Unwrap() error {
	return err.Cause
}
