package mesh

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/wcpmod/iffmesh"
	"github.com/wcpmod/iffmesh/iff"
)

// testModel is a single-triangle model exercising every part of the file:
// one LOD, a hardpoint, a collision sphere, and a FAR chunk.
func testModel() *iffmesh.Model {
	lod := &iffmesh.LODMesh{
		Level: 0,
		Name:  "ship",
		Verts: []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Norms: []mgl32.Vec3{{0, 0, 1}},
		Corners: []iffmesh.FaceVert{
			{Vert: 0, Norm: 0, UV: mgl32.Vec2{0, 0}},
			{Vert: 1, Norm: 0, UV: mgl32.Vec2{1, 0}},
			{Vert: 2, Norm: 0, UV: mgl32.Vec2{0, -1}},
		},
		Faces: []iffmesh.Face{{
			Norm:      0,
			DPlane:    0,
			TexNum:    20,
			FirstVert: 0,
			NumVerts:  3,
			AltMat:    iffmesh.FaceAltMat,
		}},
		Radius: 1,
	}
	return &iffmesh.Model{
		Name:   "ship",
		LODs:   []*iffmesh.LODMesh{lod},
		Ranges: []float32{0},
		Hardpoints: []iffmesh.Hardpoint{{
			Name:     "hp-gun1",
			Position: mgl32.Vec3{1, 2, 3},
			Rotation: mgl32.Ident3(),
		}},
		Collision: iffmesh.Sphere{Radius: 2},
		Textures:  iffmesh.TextureTableFromNumbers([]uint32{20}),
		Far:       &iffmesh.FarRange{Near: 0, Far: 900000},
	}
}

func TestRoundTrip(t *testing.T) {
	m := testModel()

	var buf bytes.Buffer
	if err := (Encoder{}).Encode(&buf, m); err != nil {
		t.Fatalf("encode: %s", err)
	}
	got, err := (Decoder{}).Decode(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("decode: %s", err)
	}
	if !reflect.DeepEqual(got, m) {
		t.Errorf("decoded model differs\n\tgot:  %#v\n\twant: %#v", got, m)
	}

	var buf2 bytes.Buffer
	if err := (Encoder{}).Encode(&buf2, got); err != nil {
		t.Fatalf("re-encode: %s", err)
	}
	if !bytes.Equal(buf2.Bytes(), buf.Bytes()) {
		t.Errorf("re-encoded bytes differ")
	}
}

func TestEncodeLayout(t *testing.T) {
	var buf bytes.Buffer
	if err := (Encoder{}).Encode(&buf, testModel()); err != nil {
		t.Fatalf("encode: %s", err)
	}
	b := buf.Bytes()

	if got := string(b[0:4]); got != "FORM" {
		t.Errorf("file does not open with FORM: %q", got)
	}
	if got := string(b[8:12]); got != "DETA" {
		t.Errorf("root form type %q, want DETA", got)
	}
	// First member is the RANG chunk with one little-endian float 0.
	if got := string(b[12:16]); got != "RANG" {
		t.Errorf("first chunk %q, want RANG", got)
	}
	want := []byte{0x00, 0x00, 0x00, 0x04, 0, 0, 0, 0}
	if got := b[16:24]; !bytes.Equal(got, want) {
		t.Errorf("RANG length and payload = % 02x, want % 02x", got, want)
	}
}

func TestEncodeEmptyLOD(t *testing.T) {
	m := testModel()
	m.LODs = append(m.LODs, &iffmesh.LODMesh{Level: 1, Empty: true})
	m.Ranges = []float32{0, 400}

	var buf bytes.Buffer
	if err := (Encoder{}).Encode(&buf, m); err != nil {
		t.Fatalf("encode: %s", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("0001")) || !bytes.Contains(buf.Bytes(), []byte("EMPT")) {
		t.Errorf("encoded file lacks the EMPT form for level 1")
	}

	got, err := (Decoder{}).Decode(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("decode: %s", err)
	}
	if len(got.LODs) != 2 || !got.LODs[1].Empty {
		t.Errorf("decoded LODs = %d, level 1 empty = %v", len(got.LODs), got.LODs[1].Empty)
	}
}

func TestEncodeInvalidModel(t *testing.T) {
	m := testModel()
	m.LODs[0].Faces[0].TexNum = -1
	m.Hardpoints = append(m.Hardpoints, iffmesh.Hardpoint{Name: "hp-gun1"})

	var buf bytes.Buffer
	err := (Encoder{}).Encode(&buf, m)
	if err == nil {
		t.Fatalf("encode accepted an invalid model")
	}
	var missing iffmesh.MissingMaterialError
	if !errors.As(err, &missing) {
		t.Errorf("error does not report the missing material: %s", err)
	}
	var dup iffmesh.DuplicateHardpointError
	if !errors.As(err, &dup) {
		t.Errorf("error does not report the duplicate hardpoint: %s", err)
	}
	if buf.Len() != 0 {
		t.Errorf("%d bytes written for an invalid model", buf.Len())
	}
}

func decodeTree(t *testing.T, root *iff.Form) (*iffmesh.Model, error) {
	t.Helper()
	b, err := iff.EncodeBytes(root)
	if err != nil {
		t.Fatalf("encode fixture: %s", err)
	}
	return Decoder{}.Decode(bytes.NewReader(b))
}

func TestDecodeRootNotDETA(t *testing.T) {
	_, err := decodeTree(t, iff.NewForm("XXXX"))
	if !errors.Is(err, ErrNotMesh) {
		t.Errorf("error = %v, want ErrNotMesh", err)
	}
}

func TestDecodeUnknownChunk(t *testing.T) {
	root := iff.NewForm("DETA", iff.NewChunk("BOGU", []byte{0, 0, 0, 0}))
	_, err := decodeTree(t, root)
	if !errors.Is(err, ErrUnknownChunk) {
		t.Fatalf("error = %v, want ErrUnknownChunk", err)
	}
	var ferr iff.FormatError
	if !errors.As(err, &ferr) {
		t.Fatalf("error does not carry chunk context: %s", err)
	}
	if string(ferr.Tag[:]) != "BOGU" {
		t.Errorf("error tag = %q, want BOGU", ferr.Tag)
	}
	// The chunk follows the 12-byte root form header.
	if ferr.Offset != 12 {
		t.Errorf("error offset = %d, want 12", ferr.Offset)
	}
}

func TestDecodeBadFaceRecords(t *testing.T) {
	geom := iff.NewForm("0012", iff.NewChunk("FACE", make([]byte, faceSize-1)))
	root := iff.NewForm("DETA",
		iff.NewForm("MESH", iff.NewForm("0000", iff.NewForm("MESH", geom))))
	_, err := decodeTree(t, root)
	if !errors.Is(err, ErrBadPayload) {
		t.Errorf("error = %v, want ErrBadPayload", err)
	}
}

func TestDecodeLODLevelGap(t *testing.T) {
	lod := func(level string) *iff.Form {
		return iff.NewForm(level, iff.NewForm("EMPT"))
	}
	root := iff.NewForm("DETA", iff.NewForm("MESH", lod("0000"), lod("0002")))
	_, err := decodeTree(t, root)
	if err == nil || !strings.Contains(err.Error(), "level 2, want 1") {
		t.Errorf("error = %v, want a level sequence error", err)
	}
}

func TestDecodeDuplicateHardpoints(t *testing.T) {
	hp := func() *iff.Chunk {
		data := make([]byte, hardSize)
		return iff.NewChunk("HARD", append(data, "hp-gun1\x00"...))
	}
	root := iff.NewForm("DETA",
		iff.NewForm("MESH", iff.NewForm("0000", iff.NewForm("EMPT"))),
		iff.NewForm("HARD", hp(), hp()))
	_, err := decodeTree(t, root)
	var dup iffmesh.DuplicateHardpointError
	if !errors.As(err, &dup) {
		t.Fatalf("error = %v, want DuplicateHardpointError", err)
	}
	if string(dup) != "hp-gun1" {
		t.Errorf("duplicate name = %q, want hp-gun1", string(dup))
	}
}

func TestDecodeShortHardpoint(t *testing.T) {
	root := iff.NewForm("DETA",
		iff.NewForm("HARD", iff.NewChunk("HARD", make([]byte, hardSize))))
	_, err := decodeTree(t, root)
	if !errors.Is(err, ErrBadPayload) {
		t.Errorf("error = %v, want ErrBadPayload", err)
	}
}

func TestDecodeRebuildsTextures(t *testing.T) {
	m := testModel()
	var buf bytes.Buffer
	if err := (Encoder{}).Encode(&buf, m); err != nil {
		t.Fatalf("encode: %s", err)
	}
	got, err := (Decoder{}).Decode(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("decode: %s", err)
	}
	n, ok := got.Textures.Lookup("00000020")
	if !ok || n != 20 {
		t.Errorf("Lookup(00000020) = %d, %v; want 20, true", n, ok)
	}
}

func TestWriteListing(t *testing.T) {
	table, err := iffmesh.NewTextureTable([]string{"00416400.png", "wing.jpg"})
	if err != nil {
		t.Fatalf("texture table: %s", err)
	}
	m := &iffmesh.Model{Textures: table}

	var buf strings.Builder
	if err := WriteListing(&buf, m); err != nil {
		t.Fatalf("listing: %s", err)
	}
	want := "wing.jpg     --> 00000000.mat\n" +
		"00416400.png --> 00416400.mat\n"
	if buf.String() != want {
		t.Errorf("listing:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestWriteXMF(t *testing.T) {
	m := testModel()
	m.Far = nil

	var buf strings.Builder
	if err := WriteXMF(&buf, m); err != nil {
		t.Fatalf("xmf: %s", err)
	}
	got := buf.String()

	if !strings.HasPrefix(got, "IFF \"ship.iff\"\n") {
		t.Errorf("first line = %q, want the IFF header", firstLine(got))
	}
	for _, want := range []string{
		"// 00000020 --> 00000020.mat\n",
		"  FORM \"DETA\"\n",
		"    CHUNK \"RANG\"\n",
		"      FORM \"0000\"\n",
		"          FORM \"0012\"\n",
		"              cstring \"ship\"\n",
		"              long $7F0096FF\n",
		"        cstring \"hp-gun1\"\n",
		"    FORM \"COLL\"\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output lacks %q", want)
		}
	}
	if strings.Contains(got, "FAR") {
		t.Errorf("output has a FAR chunk for a model without one")
	}
	if open, close := strings.Count(got, "{"), strings.Count(got, "}"); open != close {
		t.Errorf("%d opening braces, %d closing", open, close)
	}
}

func TestWriteXMFFar(t *testing.T) {
	m := testModel()
	var buf strings.Builder
	if err := WriteXMF(&buf, m); err != nil {
		t.Fatalf("xmf: %s", err)
	}
	want := "    CHUNK \"FAR \"\n" +
		"    {\n" +
		"      float 0.000000\n" +
		"      float 900000.000000\n" +
		"    }\n"
	if !strings.Contains(buf.String(), want) {
		t.Errorf("output lacks the FAR chunk:\n%s", buf.String())
	}
}

func TestDump(t *testing.T) {
	var buf bytes.Buffer
	if err := (Encoder{}).Encode(&buf, testModel()); err != nil {
		t.Fatalf("encode: %s", err)
	}

	var out strings.Builder
	if err := (Decoder{}).Dump(&out, bytes.NewReader(buf.Bytes())); err != nil {
		t.Fatalf("dump: %s", err)
	}
	got := out.String()
	for _, want := range []string{
		"FORM DETA",
		"FORM MESH",
		"VERT",
		"(records:3)",
		"FACE",
		"HARD",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("dump lacks %q", want)
		}
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
