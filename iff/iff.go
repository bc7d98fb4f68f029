// The iff package implements the generic tagged-chunk container format
// used by VISION engine assets: EA IFF-85 style FORMs and CHUNKs with
// big-endian length prefixes, nested groups, and even-byte alignment.
//
// The package knows nothing about mesh semantics. It round-trips any
// well-formed tree: for every tree t, Decode(Encode(t)) equals t.
package iff

import (
	"fmt"
)

// Tag is a four-byte ASCII chunk identifier.
type Tag [4]byte

// Group tags open a nested container rather than a leaf payload.
var (
	TagForm = MakeTag("FORM")
	TagCat  = MakeTag("CAT")
	TagList = MakeTag("LIST")
)

// MakeTag builds a Tag from a string, padding short names with spaces the
// way the format does ("FAR" becomes "FAR ").
func MakeTag(s string) Tag {
	var t Tag
	copy(t[:], s)
	for i := len(s); i < 4; i++ {
		t[i] = ' '
	}
	return t
}

func (t Tag) String() string {
	return string(t[:])
}

// Valid reports whether the tag is well formed: ASCII letters and digits,
// with trailing spaces permitted.
func (t Tag) Valid() bool {
	seenSpace := false
	for i, c := range t {
		switch {
		case c == ' ' && i > 0:
			seenSpace = true
		case 'A' <= c && c <= 'Z', 'a' <= c && c <= 'z', '0' <= c && c <= '9':
			if seenSpace {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// group reports whether the tag opens a nested container.
func (t Tag) group() bool {
	return t == TagForm || t == TagCat || t == TagList
}

// Member is a node of a chunk tree: either a *Form or a *Chunk.
type Member interface {
	// EncodedLen is the member's full size on the wire, header and
	// alignment padding included.
	EncodedLen() uint32

	member()
}

// Form is a group chunk: a typed container of Forms and Chunks. Its
// declared length covers the four type bytes plus the encoded lengths of
// all members.
type Form struct {
	Type    Tag
	Members []Member

	// Offset is the byte offset of the form's header in the stream it
	// was decoded from. Zero for forms built by hand.
	Offset int64
}

func (*Form) member() {}

// EncodedLen implements Member.
func (f *Form) EncodedLen() uint32 {
	return 8 + f.payloadLen()
}

func (f *Form) payloadLen() uint32 {
	n := uint32(4)
	for _, m := range f.Members {
		n += m.EncodedLen()
	}
	return n
}

// Append adds members to the form and returns it.
func (f *Form) Append(members ...Member) *Form {
	f.Members = append(f.Members, members...)
	return f
}

// Forms returns the form's members of the given type, in order.
func (f *Form) Forms(typ Tag) []*Form {
	var out []*Form
	for _, m := range f.Members {
		if sub, ok := m.(*Form); ok && sub.Type == typ {
			out = append(out, sub)
		}
	}
	return out
}

// Chunk returns the form's first leaf chunk with the given tag, or nil.
func (f *Form) Chunk(tag Tag) *Chunk {
	for _, m := range f.Members {
		if c, ok := m.(*Chunk); ok && c.Tag == tag {
			return c
		}
	}
	return nil
}

// NewForm builds a form of the given type.
func NewForm(typ string, members ...Member) *Form {
	return &Form{Type: MakeTag(typ), Members: members}
}

// Chunk is a leaf chunk: a tag and a raw payload. A payload of odd length
// is followed on the wire by one zero byte excluded from the declared
// length.
type Chunk struct {
	Tag  Tag
	Data []byte

	// Offset is the byte offset of the chunk's header in the stream it
	// was decoded from. Zero for chunks built by hand.
	Offset int64
}

func (*Chunk) member() {}

// EncodedLen implements Member.
func (c *Chunk) EncodedLen() uint32 {
	n := 8 + uint32(len(c.Data))
	if len(c.Data)%2 == 1 {
		n++
	}
	return n
}

// NewChunk builds a leaf chunk with the given tag and payload.
func NewChunk(tag string, data []byte) *Chunk {
	return &Chunk{Tag: MakeTag(tag), Data: data}
}

func (c *Chunk) String() string {
	return fmt.Sprintf("%q chunk (%d bytes)", c.Tag.String(), len(c.Data))
}
