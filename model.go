// The iffmesh package handles the decoding, encoding, and derivation of
// VISION engine IFF mesh data structures.
//
// A mesh file is a tree of tagged chunks describing a model: one or more
// levels of detail, a set of named hardpoints, and a collision sphere. The
// Model struct is the neutral in-memory form of that tree. Models can be
// decoded from and encoded to the engine's binary format with the "mesh"
// sub-package, which also renders the alternate XMF source form. The
// generic chunk container itself is handled by the "iff" sub-package.
//
// Models are usually not written by hand. The "scene" sub-package derives a
// Model from a neutral scene description (see Scene), which a host adapter
// populates from whatever editor or runtime it fronts.
package iffmesh

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// MeshVersion is the geometry format version emitted for each LOD.
const MeshVersion = 12

// DefaultFarRange is the FAR chunk written when a model asks for one
// without giving explicit planes.
var DefaultFarRange = FarRange{Near: 0, Far: 900000}

// Model is the root of a mesh file: an ordered list of LOD meshes plus
// model-wide metadata. A Model owns all of its parts exclusively; codecs
// and derivation passes never share state between calls.
type Model struct {
	// Name is the model name stored in each LOD's NAME chunk.
	Name string

	// LODs is the ordered detail set. Index i is detail level i; levels
	// are contiguous from 0.
	LODs []*LODMesh

	// Ranges holds one draw distance per LOD. The first must be 0. When
	// empty, codecs substitute DefaultRanges.
	Ranges []float32

	// Hardpoints are the model's named attachment points. Names are
	// unique within a model.
	Hardpoints []Hardpoint

	// Collision is the model's collision sphere.
	Collision Sphere

	// Textures maps texture source filenames to engine texture numbers.
	// Populated by the scene exporter; reconstructed from face texture
	// numbers on import.
	Textures TextureTable

	// Far, if non-nil, emits a FAR chunk with the given planes.
	Far *FarRange
}

// LODMesh is one detail level of a model. Its layout mirrors the engine's
// geometry chunks: a vertex pool, a normal pool, a pool of face corners
// (FVRTs) referencing both, and faces that claim contiguous FVRT runs.
type LODMesh struct {
	// Level is the detail level, 0 being the most detailed.
	Level int

	// Empty marks a level with no geometry (an EMPT form in the file).
	Empty bool

	Name    string
	Verts   []mgl32.Vec3
	Norms   []mgl32.Vec3
	Corners []FaceVert
	Faces   []Face

	// Center and Radius bound the level's geometry for the object camera.
	Center mgl32.Vec3
	Radius float32
}

// FaceVert is one corner of a face: a vertex reference, a normal
// reference, and the corner's UV coordinates.
type FaceVert struct {
	Vert int32
	Norm int32
	UV   mgl32.Vec2
}

// Face is a single polygon. Its corners are Corners[FirstVert :
// FirstVert+NumVerts] of the owning LODMesh.
type Face struct {
	// Norm indexes the LOD's normal pool; it is the face normal used for
	// backface culling.
	Norm int32

	// DPlane is the plane constant -(n · v0), paired with the face
	// normal by the engine's culling test.
	DPlane float32

	// TexNum is the engine texture number the face is drawn with.
	TexNum int32

	FirstVert int32
	NumVerts  int32

	// LightFlags is a bitfield of lighting behavior. Bit 1 marks a
	// full-bright face.
	LightFlags int32

	// AltMat is carried verbatim; the engine's use for it is not known.
	AltMat int32
}

// FaceAltMat is the alternate-material word written for faces produced by
// the exporter.
const FaceAltMat = 0x7F0096FF

// LightFullBright is the light-flag bit for faces that ignore scene
// lighting.
const LightFullBright = 2

// FaceCorners returns the FVRT run belonging to f.
func (m *LODMesh) FaceCorners(f Face) []FaceVert {
	return m.Corners[f.FirstVert : f.FirstVert+f.NumVerts]
}

// Hardpoint is a named attachment point: a position and orientation
// relative to the owning mesh origin.
type Hardpoint struct {
	Name     string
	Position mgl32.Vec3
	Rotation mgl32.Mat3
}

// Sphere is a bounding sphere.
type Sphere struct {
	Center mgl32.Vec3
	Radius float32
}

// Contains reports whether p lies within the sphere.
func (s Sphere) Contains(p mgl32.Vec3) bool {
	return p.Sub(s.Center).Len() <= s.Radius
}

// FarRange holds the near and far planes of a FAR chunk.
type FarRange struct {
	Near float32
	Far  float32
}

// DefaultRanges returns the draw ranges substituted when a model carries
// none: 0 for the first LOD, then 400-unit steps.
func DefaultRanges(numLODs int) []float32 {
	ranges := make([]float32, numLODs)
	for i := range ranges {
		ranges[i] = float32(i) * 400
	}
	return ranges
}

// Validate checks the structural invariants every well-formed model holds:
// contiguous LOD levels from 0, unique hardpoint names, in-range corner
// and face references, and a draw range per LOD starting at 0. All
// violations are reported, not only the first.
func (m *Model) Validate() error {
	var errs []error
	if len(m.LODs) == 0 {
		errs = append(errs, ErrNoMesh)
	}
	for i, lod := range m.LODs {
		if lod.Level != i {
			errs = append(errs, fmt.Errorf("lod %d: level %d out of sequence", i, lod.Level))
			continue
		}
		errs = appendLODErrors(errs, lod)
	}
	if len(m.Ranges) != 0 {
		if len(m.Ranges) != len(m.LODs) {
			errs = append(errs, fmt.Errorf("%d draw ranges for %d LODs", len(m.Ranges), len(m.LODs)))
		} else if m.Ranges[0] != 0 {
			errs = append(errs, fmt.Errorf("first draw range is %g, must be 0", m.Ranges[0]))
		}
	}
	seen := make(map[string]struct{}, len(m.Hardpoints))
	for _, hp := range m.Hardpoints {
		if _, ok := seen[hp.Name]; ok {
			errs = append(errs, DuplicateHardpointError(hp.Name))
			continue
		}
		seen[hp.Name] = struct{}{}
	}
	return union(errs)
}

func appendLODErrors(errs []error, lod *LODMesh) []error {
	if lod.Empty {
		if len(lod.Verts) != 0 || len(lod.Faces) != 0 {
			errs = append(errs, fmt.Errorf("lod %d: empty level carries geometry", lod.Level))
		}
		return errs
	}
	for i, fv := range lod.Corners {
		if fv.Vert < 0 || int(fv.Vert) >= len(lod.Verts) {
			errs = append(errs, fmt.Errorf("lod %d: corner %d: vertex %d out of range", lod.Level, i, fv.Vert))
		}
		if fv.Norm < 0 || int(fv.Norm) >= len(lod.Norms) {
			errs = append(errs, fmt.Errorf("lod %d: corner %d: normal %d out of range", lod.Level, i, fv.Norm))
		}
	}
	for i, f := range lod.Faces {
		if f.NumVerts < 3 {
			errs = append(errs, fmt.Errorf("lod %d: face %d: %d corners", lod.Level, i, f.NumVerts))
		}
		if f.FirstVert < 0 || int(f.FirstVert)+int(f.NumVerts) > len(lod.Corners) {
			errs = append(errs, fmt.Errorf("lod %d: face %d: corner run %d+%d out of range", lod.Level, i, f.FirstVert, f.NumVerts))
		}
		if f.Norm < 0 || int(f.Norm) >= len(lod.Norms) {
			errs = append(errs, fmt.Errorf("lod %d: face %d: normal %d out of range", lod.Level, i, f.Norm))
		}
		if f.TexNum < 0 {
			errs = append(errs, MissingMaterialError{LOD: lod.Level, Face: i})
		}
	}
	return errs
}
