package iff

import (
	"bytes"

	"github.com/anaminus/parse"
)

// PayloadWriter builds a leaf chunk payload from the format's scalar
// types: little-endian 32-bit integers and floats, and NUL-terminated
// strings padded to even length.
type PayloadWriter struct {
	buf bytes.Buffer
	fw  *parse.BinaryWriter
}

// NewPayloadWriter returns an empty payload writer.
func NewPayloadWriter() *PayloadWriter {
	w := new(PayloadWriter)
	w.fw = parse.NewBinaryWriter(&w.buf)
	return w
}

// Long appends a little-endian 32-bit integer.
func (w *PayloadWriter) Long(v int32) *PayloadWriter {
	w.fw.Number(v)
	return w
}

// Float appends a little-endian 32-bit float.
func (w *PayloadWriter) Float(v float32) *PayloadWriter {
	w.fw.Number(v)
	return w
}

// CString appends a NUL-terminated string. A second NUL follows when the
// string's length is even, keeping the field an even number of bytes.
func (w *PayloadWriter) CString(s string) *PayloadWriter {
	w.fw.Bytes([]byte(s))
	if len(s)%2 == 0 {
		w.fw.Bytes([]byte{0, 0})
	} else {
		w.fw.Bytes([]byte{0})
	}
	return w
}

// Chunk returns a leaf chunk with the accumulated payload.
func (w *PayloadWriter) Chunk(tag string) (*Chunk, error) {
	if _, err := w.fw.End(); err != nil {
		return nil, err
	}
	return NewChunk(tag, w.buf.Bytes()), nil
}

// PayloadReader parses a leaf chunk payload using the same scalar
// conventions as PayloadWriter.
type PayloadReader struct {
	fr   *parse.BinaryReader
	size int64
}

// NewPayloadReader reads from the payload of c.
func NewPayloadReader(c *Chunk) *PayloadReader {
	return &PayloadReader{
		fr:   parse.NewBinaryReader(bytes.NewReader(c.Data)),
		size: int64(len(c.Data)),
	}
}

// Long reads a little-endian 32-bit integer.
func (r *PayloadReader) Long(v *int32) (failed bool) {
	return r.fr.Number(v)
}

// Float reads a little-endian 32-bit float.
func (r *PayloadReader) Float(v *float32) (failed bool) {
	return r.fr.Number(v)
}

// CString reads a NUL-terminated string, consuming the trailing pad byte
// when the field was padded to even length.
func (r *PayloadReader) CString(v *string) (failed bool) {
	var s []byte
	var b [1]byte
	for {
		if r.fr.Bytes(b[:]) {
			return true
		}
		if b[0] == 0 {
			break
		}
		s = append(s, b[0])
	}
	if len(s)%2 == 0 && r.Remaining() > 0 {
		if r.fr.Bytes(b[:]) {
			return true
		}
	}
	*v = string(s)
	return false
}

// Remaining returns the number of unread payload bytes.
func (r *PayloadReader) Remaining() int64 {
	return r.size - r.fr.N()
}

// End returns the first error encountered, if any.
func (r *PayloadReader) End() error {
	_, err := r.fr.End()
	return err
}
