// The mesh package encodes and decodes VISION engine mesh files: the
// binary chunk layout consumed by the game, the companion texture listing,
// and the alternate XMF source rendering compiled by the external
// toolchain.
//
// The chunk layout is fixed by the engine and reproduced bit for bit. A
// mesh file is a DETA form holding a RANG chunk of draw ranges, a MESH
// form of per-LOD geometry forms, a HARD form of hardpoint chunks, a COLL
// form with the collision sphere, and an optional FAR chunk.
package mesh

import (
	"errors"
	"fmt"

	"github.com/wcpmod/iffmesh/iff"
)

// Chunk schema of a mesh file. Tags outside this table are rejected at
// the nesting context where they appear.
var (
	tagDETA = iff.MakeTag("DETA")
	tagRANG = iff.MakeTag("RANG")
	tagMESH = iff.MakeTag("MESH")
	tagHARD = iff.MakeTag("HARD")
	tagCOLL = iff.MakeTag("COLL")
	tagFAR  = iff.MakeTag("FAR")
	tagEMPT = iff.MakeTag("EMPT")
	tagNAME = iff.MakeTag("NAME")
	tagVERT = iff.MakeTag("VERT")
	tagVTNM = iff.MakeTag("VTNM")
	tagFVRT = iff.MakeTag("FVRT")
	tagFACE = iff.MakeTag("FACE")
	tagCNTR = iff.MakeTag("CNTR")
	tagRADI = iff.MakeTag("RADI")
	tagSPHR = iff.MakeTag("SPHR")
)

// Record sizes within geometry chunks, in bytes.
const (
	vertSize = 12 // 3 × f32
	fvrtSize = 16 // 2 × i32, 2 × f32
	faceSize = 28 // 5 × i32, f32 d-plane, i32 alt-mat
	hardSize = 48 // 3 rows of 3 × f32 rotation + f32 position
)

var (
	// ErrNotMesh indicates a chunk tree whose root is not a DETA form.
	ErrNotMesh = errors.New("root form is not DETA")
	// ErrUnknownChunk indicates a tag that has no meaning at its nesting
	// context. Unknown tags are not skipped: a container tag here would
	// desynchronize length accounting.
	ErrUnknownChunk = errors.New("unknown chunk for this context")
	// ErrBadPayload indicates a chunk payload whose size does not divide
	// into whole records.
	ErrBadPayload = errors.New("payload does not divide into records")
)

// chunkError builds the FormatError for a structural violation found in
// a decoded chunk.
func chunkError(tag iff.Tag, offset int64, cause error) error {
	return iff.FormatError{Tag: tag, Offset: offset, Cause: cause}
}

func badLODForm(f *iff.Form, cause string) error {
	return iff.FormatError{Tag: f.Type, Offset: f.Offset, Cause: fmt.Errorf("lod form: %s", cause)}
}
