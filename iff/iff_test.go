package iff

import (
	"bytes"
	"errors"
	"reflect"
	"testing"
)

const goodfile = "FORM\x00\x00\x00\x10DETAGONE\x00\x00\x00\x04*\x00\x00\x00"

// Chunk with an odd payload length; the pad byte is excluded from the
// declared length.
const oddfile = "FORM\x00\x00\x00\x10DETANAME\x00\x00\x00\x03abc\x00"

func TestEncode(t *testing.T) {
	root := NewForm("DETA", NewChunk("GONE", []byte{42, 0, 0, 0}))

	b, err := EncodeBytes(root)
	if err != nil {
		t.Fatalf("encode: %s", err)
	}
	if string(b) != goodfile {
		t.Errorf("encoded %q, want %q", b, goodfile)
	}
	if n := root.EncodedLen(); int(n) != len(goodfile) {
		t.Errorf("EncodedLen = %d, want %d", n, len(goodfile))
	}
}

func TestEncodeOddPadding(t *testing.T) {
	root := NewForm("DETA", NewChunk("NAME", []byte("abc")))

	b, err := EncodeBytes(root)
	if err != nil {
		t.Fatalf("encode: %s", err)
	}
	if string(b) != oddfile {
		t.Errorf("encoded %q, want %q", b, oddfile)
	}
}

func TestEncodeBadTag(t *testing.T) {
	root := NewForm("DETA", NewChunk("b@d!", nil))
	if _, err := EncodeBytes(root); err == nil {
		t.Error("expected error for invalid tag")
	}
}

func TestDecode(t *testing.T) {
	root, err := DecodeBytes([]byte(goodfile))
	if err != nil {
		t.Fatalf("decode: %s", err)
	}
	if root.Type != MakeTag("DETA") {
		t.Errorf("root type %q", root.Type.String())
	}
	c := root.Chunk(MakeTag("GONE"))
	if c == nil {
		t.Fatal("GONE chunk missing")
	}
	if !bytes.Equal(c.Data, []byte{42, 0, 0, 0}) {
		t.Errorf("GONE data = %v", c.Data)
	}
}

func TestRoundTrip(t *testing.T) {
	root := NewForm("DETA",
		NewChunk("RANG", []byte{0, 0, 0, 0, 0, 0, 200, 67}),
		NewForm("MESH",
			NewForm("0000",
				NewForm("MESH",
					NewForm("0012",
						NewChunk("NAME", []byte("ship\x00\x00")),
						NewChunk("VERT", []byte{1, 2, 3}),
					),
				),
			),
		),
		NewForm("HARD"),
	)

	b, err := EncodeBytes(root)
	if err != nil {
		t.Fatalf("encode: %s", err)
	}
	got, err := DecodeBytes(b)
	if err != nil {
		t.Fatalf("decode: %s", err)
	}
	clearOffsets(got)
	if !reflect.DeepEqual(got, root) {
		t.Errorf("round trip mismatch:\ngot  %#v\nwant %#v", got, root)
	}

	// Re-encoding the decoded tree reproduces the stream bit for bit.
	b2, err := EncodeBytes(got)
	if err != nil {
		t.Fatalf("re-encode: %s", err)
	}
	if !bytes.Equal(b, b2) {
		t.Errorf("re-encoded stream differs:\ngot  % x\nwant % x", b2, b)
	}
}

// clearOffsets strips the decoder's offset annotations so a decoded tree
// compares equal to a hand-built one.
func clearOffsets(f *Form) {
	f.Offset = 0
	for _, m := range f.Members {
		switch m := m.(type) {
		case *Form:
			clearOffsets(m)
		case *Chunk:
			m.Offset = 0
		}
	}
}

func TestDecodeRootNotForm(t *testing.T) {
	_, err := DecodeBytes([]byte("GONE\x00\x00\x00\x04*\x00\x00\x00"))
	var ferr FormatError
	if !errors.As(err, &ferr) {
		t.Fatalf("got %v, want FormatError", err)
	}
	if !errors.Is(err, ErrRootNotForm) {
		t.Errorf("got %v, want ErrRootNotForm", err)
	}
}

func TestDecodeLengthMismatch(t *testing.T) {
	// Group declares 20 payload bytes but its only member encodes to 12;
	// the 8 stray bytes cannot open another record.
	bad := "FORM\x00\x00\x00\x18DETAGONE\x00\x00\x00\x04*\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00"
	_, err := DecodeBytes([]byte(bad))
	var ferr FormatError
	if !errors.As(err, &ferr) {
		t.Fatalf("got %v, want FormatError", err)
	}
}

func TestDecodeChunkOverrun(t *testing.T) {
	// Chunk declares more payload than its enclosing form has left.
	bad := "FORM\x00\x00\x00\x10DETAGONE\x00\x00\x00\x40*\x00\x00\x00"
	_, err := DecodeBytes([]byte(bad))
	var ferr FormatError
	if !errors.As(err, &ferr) {
		t.Fatalf("got %v, want FormatError", err)
	}
	if !errors.Is(err, ErrChunkTooLong) {
		t.Errorf("got %v, want ErrChunkTooLong", err)
	}
	if ferr.Tag != MakeTag("GONE") {
		t.Errorf("error tag %q, want GONE", ferr.Tag.String())
	}
	if ferr.Offset != 12 {
		t.Errorf("error offset %d, want 12", ferr.Offset)
	}
}

func TestDecodeTrailingData(t *testing.T) {
	// A second record after the root form; the stream must be rejected
	// rather than silently truncated.
	b := append([]byte(goodfile), "junk"...)
	_, err := DecodeBytes(b)
	if !errors.Is(err, ErrTrailingData) {
		t.Fatalf("got %v, want ErrTrailingData", err)
	}
	var ferr FormatError
	if !errors.As(err, &ferr) {
		t.Fatalf("got %v, want FormatError", err)
	}
	if ferr.Offset != int64(len(goodfile)) {
		t.Errorf("error offset %d, want %d", ferr.Offset, len(goodfile))
	}
}

func TestDecodeLargeChunk(t *testing.T) {
	// A payload spanning several read pieces, with an odd length so the
	// pad byte follows the last piece.
	data := make([]byte, chunkAllocStep+3)
	for i := range data {
		data[i] = byte(i)
	}
	root := NewForm("DETA", NewChunk("VERT", data))
	b, err := EncodeBytes(root)
	if err != nil {
		t.Fatalf("encode: %s", err)
	}
	got, err := DecodeBytes(b)
	if err != nil {
		t.Fatalf("decode: %s", err)
	}
	if !bytes.Equal(got.Chunk(MakeTag("VERT")).Data, data) {
		t.Error("payload mangled across read pieces")
	}
}

func TestDecodeHugeDeclaredLength(t *testing.T) {
	// A 20-byte stream whose headers claim a ~4 GiB chunk. The decode must
	// fail on the missing payload, not on the declared size.
	bad := "FORM\xff\xff\xff\xf0DETAVERT\xff\xff\xff\x00"
	_, err := DecodeBytes([]byte(bad))
	var derr DataError
	if !errors.As(err, &derr) {
		t.Fatalf("got %v, want DataError", err)
	}
}

func TestDecodeTruncated(t *testing.T) {
	b := []byte(goodfile)
	for i := 1; i < len(b); i++ {
		if _, err := DecodeBytes(b[:i]); err == nil {
			t.Errorf("decode of %d-byte prefix succeeded", i)
		}
	}
}

func TestDecodeBadTag(t *testing.T) {
	bad := "FORM\x00\x00\x00\x10DETA\x01\x02\x03\x04\x00\x00\x00\x04*\x00\x00\x00"
	_, err := DecodeBytes([]byte(bad))
	if !errors.Is(err, ErrBadTag) {
		t.Errorf("got %v, want ErrBadTag", err)
	}
}

func TestTagValid(t *testing.T) {
	for tag, want := range map[string]bool{
		"DETA": true,
		"FAR ": true,
		"0012": true,
		"b d":  false, // interior space
		"\x02A\xe9\xe2": false,
	} {
		if got := MakeTag(tag).Valid(); got != want {
			t.Errorf("Tag(%q).Valid() = %v, want %v", tag, got, want)
		}
	}
}

func TestPayloadCString(t *testing.T) {
	// Even-length strings gain a second NUL so fields stay even.
	for s, size := range map[string]int{"ship": 6, "gun": 4} {
		pw := NewPayloadWriter()
		c, err := pw.CString(s).Chunk("NAME")
		if err != nil {
			t.Fatalf("build: %s", err)
		}
		if len(c.Data) != size {
			t.Errorf("CString(%q) encoded to %d bytes, want %d", s, len(c.Data), size)
		}

		pr := NewPayloadReader(c)
		var got string
		if pr.CString(&got) {
			t.Fatalf("read back %q: %s", s, pr.End())
		}
		if got != s {
			t.Errorf("read back %q, want %q", got, s)
		}
		if pr.Remaining() != 0 {
			t.Errorf("%d bytes left after %q", pr.Remaining(), s)
		}
	}
}

func TestPayloadScalars(t *testing.T) {
	pw := NewPayloadWriter()
	c, err := pw.Long(-7).Float(2.5).Chunk("FACE")
	if err != nil {
		t.Fatalf("build: %s", err)
	}
	want := []byte{0xf9, 0xff, 0xff, 0xff, 0, 0, 0x20, 0x40}
	if !bytes.Equal(c.Data, want) {
		t.Errorf("payload = % x, want % x", c.Data, want)
	}

	pr := NewPayloadReader(c)
	var l int32
	var f float32
	if pr.Long(&l) || pr.Float(&f) {
		t.Fatalf("read: %s", pr.End())
	}
	if l != -7 || f != 2.5 {
		t.Errorf("read back %d, %g", l, f)
	}
}
