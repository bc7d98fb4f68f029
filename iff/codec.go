package iff

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"

	"github.com/anaminus/parse"
)

// Encode writes the chunk tree rooted at root to w. Group lengths are
// computed from the members, and odd-length chunk payloads are padded with
// a single zero byte.
func Encode(w io.Writer, root *Form) (n int64, err error) {
	fw := parse.NewBinaryWriter(w)
	writeForm(fw, root)
	return fw.End()
}

// EncodeBytes encodes the chunk tree rooted at root to a byte slice.
func EncodeBytes(root *Form) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(int(root.EncodedLen()))
	if _, err := Encode(&buf, root); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeForm(fw *parse.BinaryWriter, f *Form) (failed bool) {
	if !f.Type.Valid() || f.Type.group() {
		return fw.Add(0, FormatError{Tag: f.Type, Offset: -1, Cause: ErrBadTag})
	}
	if fw.Bytes(TagForm[:]) {
		return true
	}
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], f.payloadLen())
	if fw.Bytes(length[:]) {
		return true
	}
	if fw.Bytes(f.Type[:]) {
		return true
	}
	for _, m := range f.Members {
		switch m := m.(type) {
		case *Form:
			if writeForm(fw, m) {
				return true
			}
		case *Chunk:
			if writeChunk(fw, m) {
				return true
			}
		}
	}
	return false
}

var padByte = [1]byte{}

func writeChunk(fw *parse.BinaryWriter, c *Chunk) (failed bool) {
	if !c.Tag.Valid() || c.Tag.group() {
		return fw.Add(0, FormatError{Tag: c.Tag, Offset: -1, Cause: ErrBadTag})
	}
	if fw.Bytes(c.Tag[:]) {
		return true
	}
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(c.Data)))
	if fw.Bytes(length[:]) {
		return true
	}
	if fw.Bytes(c.Data) {
		return true
	}
	if len(c.Data)%2 == 1 {
		return fw.Bytes(padByte[:])
	}
	return false
}

// Decode reads a chunk tree from r. The stream must open with a group
// chunk, every nested record must lie entirely within its parent and
// account for the parent's declared length exactly, and the root form must
// end the stream. A violation fails with a FormatError carrying the chunk
// tag and byte offset.
func Decode(r io.Reader) (*Form, error) {
	fr := parse.NewBinaryReader(r)
	offset := fr.N()
	var head Tag
	if fr.Bytes(head[:]) {
		return nil, dataError(fr)
	}
	if !head.group() {
		return nil, FormatError{Tag: head, Offset: offset, Cause: ErrRootNotForm}
	}
	root, err := readForm(fr, offset, math.MaxInt64)
	if err != nil {
		return nil, err
	}
	// A concatenated or corrupt stream is rejected rather than silently
	// truncated at the root form's end.
	var trailing [1]byte
	if !fr.Bytes(trailing[:]) {
		return nil, FormatError{Tag: root.Type, Offset: fr.N() - 1, Cause: ErrTrailingData}
	}
	if err := fr.Err(); err != nil && !errors.Is(err, io.EOF) {
		return nil, DataError{Offset: fr.N(), Cause: err}
	}
	return root, nil
}

// DecodeBytes decodes a chunk tree from a byte slice.
func DecodeBytes(b []byte) (*Form, error) {
	return Decode(bytes.NewReader(b))
}

// readForm parses a form whose group head has already been consumed. limit
// is the number of bytes the form may occupy past its head.
func readForm(fr *parse.BinaryReader, selfOffset, limit int64) (*Form, error) {
	var length [4]byte
	if fr.Bytes(length[:]) {
		return nil, dataError(fr)
	}
	declared := int64(binary.BigEndian.Uint32(length[:]))
	if declared < 4 || declared+4 > limit {
		return nil, FormatError{Tag: TagForm, Offset: selfOffset, Cause: ErrLengthMismatch}
	}

	f := &Form{Offset: selfOffset}
	if fr.Bytes(f.Type[:]) {
		return nil, dataError(fr)
	}
	if !f.Type.Valid() || f.Type.group() {
		return nil, FormatError{Tag: f.Type, Offset: selfOffset, Cause: ErrBadTag}
	}

	remaining := declared - 4
	for remaining > 0 {
		if remaining < 8 {
			return nil, FormatError{Tag: f.Type, Offset: selfOffset, Cause: ErrLengthMismatch}
		}
		childOffset := fr.N()
		var head Tag
		if fr.Bytes(head[:]) {
			return nil, dataError(fr)
		}
		switch {
		case head.group():
			child, err := readForm(fr, childOffset, remaining-4)
			if err != nil {
				return nil, err
			}
			used := fr.N() - childOffset
			if used > remaining {
				return nil, FormatError{Tag: f.Type, Offset: selfOffset, Cause: ErrLengthMismatch}
			}
			remaining -= used
			f.Members = append(f.Members, child)
		case head.Valid():
			child, err := readChunk(fr, head, childOffset, remaining-4)
			if err != nil {
				return nil, err
			}
			remaining -= fr.N() - childOffset
			f.Members = append(f.Members, child)
		default:
			return nil, FormatError{Tag: head, Offset: childOffset, Cause: ErrBadTag}
		}
	}
	return f, nil
}

// Chunk payloads are read in pieces of at most this size, so a corrupt
// declared length cannot demand gigabytes in one allocation.
const chunkAllocStep = 1 << 20

// readChunk parses a leaf chunk whose tag has already been consumed. limit
// is the number of bytes the chunk may occupy past its tag.
func readChunk(fr *parse.BinaryReader, tag Tag, selfOffset, limit int64) (*Chunk, error) {
	var length [4]byte
	if fr.Bytes(length[:]) {
		return nil, dataError(fr)
	}
	declared := int64(binary.BigEndian.Uint32(length[:]))
	padded := declared + declared%2
	if padded+4 > limit {
		return nil, FormatError{Tag: tag, Offset: selfOffset, Cause: ErrChunkTooLong}
	}

	alloc := declared
	if alloc > chunkAllocStep {
		alloc = chunkAllocStep
	}
	c := &Chunk{Tag: tag, Data: make([]byte, 0, alloc), Offset: selfOffset}
	piece := make([]byte, alloc)
	for remaining := declared; remaining > 0; remaining -= int64(len(piece)) {
		if remaining < int64(len(piece)) {
			piece = piece[:remaining]
		}
		if fr.Bytes(piece) {
			return nil, dataError(fr)
		}
		c.Data = append(c.Data, piece...)
	}
	if declared%2 == 1 {
		var pad [1]byte
		if fr.Bytes(pad[:]) {
			return nil, dataError(fr)
		}
	}
	return c, nil
}

func dataError(fr *parse.BinaryReader) error {
	if err := fr.Err(); err != nil {
		return DataError{Offset: fr.N(), Cause: err}
	}
	return nil
}
