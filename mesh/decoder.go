package mesh

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/wcpmod/iffmesh"
	"github.com/wcpmod/iffmesh/iff"
)

// Decoder decodes the engine's binary mesh format into a Model.
type Decoder struct{}

// Decode reads a mesh file from r. Every structural invariant is checked:
// contiguous LOD levels, unique hardpoint names, record sizes, known tags
// at each nesting context. The first violation fails with an error naming
// the chunk and byte offset.
func (d Decoder) Decode(r io.Reader) (*iffmesh.Model, error) {
	if r == nil {
		return nil, errors.New("nil reader")
	}
	root, err := iff.Decode(r)
	if err != nil {
		return nil, err
	}
	return FromTree(root)
}

// FromTree decomposes a decoded chunk tree into a Model.
func FromTree(root *iff.Form) (*iffmesh.Model, error) {
	if root.Type != tagDETA {
		return nil, chunkError(root.Type, root.Offset, ErrNotMesh)
	}

	m := new(iffmesh.Model)
	for _, member := range root.Members {
		switch mem := member.(type) {
		case *iff.Chunk:
			switch mem.Tag {
			case tagRANG:
				ranges, err := readFloats(mem)
				if err != nil {
					return nil, err
				}
				m.Ranges = ranges
			case tagFAR:
				far, err := readFar(mem)
				if err != nil {
					return nil, err
				}
				m.Far = far
			default:
				return nil, chunkError(mem.Tag, mem.Offset, ErrUnknownChunk)
			}
		case *iff.Form:
			switch mem.Type {
			case tagMESH:
				if err := readLODs(m, mem); err != nil {
					return nil, err
				}
			case tagHARD:
				if err := readHardpoints(m, mem); err != nil {
					return nil, err
				}
			case tagCOLL:
				if err := readCollision(m, mem); err != nil {
					return nil, err
				}
			default:
				return nil, chunkError(mem.Type, mem.Offset, ErrUnknownChunk)
			}
		}
	}

	if len(m.LODs) > 0 {
		m.Name = m.LODs[0].Name
	}
	m.Textures = iffmesh.TextureTableFromNumbers(faceTexNums(m))

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func readLODs(m *iffmesh.Model, lods *iff.Form) error {
	for i, member := range lods.Members {
		lf, ok := member.(*iff.Form)
		if !ok {
			c := member.(*iff.Chunk)
			return chunkError(c.Tag, c.Offset, ErrUnknownChunk)
		}
		level, err := strconv.Atoi(string(lf.Type[:]))
		if err != nil {
			return badLODForm(lf, "type is not a detail level")
		}
		if level != i {
			return badLODForm(lf, fmt.Sprintf("level %d, want %d", level, i))
		}
		lod, err := readLOD(lf, level)
		if err != nil {
			return err
		}
		m.LODs = append(m.LODs, lod)
	}
	return nil
}

func readLOD(lf *iff.Form, level int) (*iffmesh.LODMesh, error) {
	if len(lf.Members) != 1 {
		return nil, badLODForm(lf, "want exactly one MESH or EMPT form")
	}
	inner, ok := lf.Members[0].(*iff.Form)
	if !ok {
		return nil, badLODForm(lf, "want exactly one MESH or EMPT form")
	}

	lod := &iffmesh.LODMesh{Level: level}
	switch inner.Type {
	case tagEMPT:
		lod.Empty = true
		return lod, nil
	case tagMESH:
	default:
		return nil, chunkError(inner.Type, inner.Offset, ErrUnknownChunk)
	}

	if len(inner.Members) != 1 {
		return nil, badLODForm(inner, "want exactly one geometry form")
	}
	geom, ok := inner.Members[0].(*iff.Form)
	if !ok {
		return nil, badLODForm(inner, "want exactly one geometry form")
	}
	// The geometry form's type is the mesh format version, usually 12.
	if _, err := strconv.Atoi(string(geom.Type[:])); err != nil {
		return nil, badLODForm(geom, "type is not a format version")
	}

	for _, member := range geom.Members {
		c, ok := member.(*iff.Chunk)
		if !ok {
			f := member.(*iff.Form)
			return nil, chunkError(f.Type, f.Offset, ErrUnknownChunk)
		}
		if err := readGeometryChunk(lod, c); err != nil {
			return nil, err
		}
	}
	return lod, nil
}

func readGeometryChunk(lod *iffmesh.LODMesh, c *iff.Chunk) error {
	switch c.Tag {
	case tagNAME:
		pr := iff.NewPayloadReader(c)
		var name string
		if pr.CString(&name) {
			return chunkError(c.Tag, c.Offset, pr.End())
		}
		lod.Name = name
	case tagVERT:
		verts, err := readVectors(c)
		if err != nil {
			return err
		}
		lod.Verts = verts
	case tagVTNM:
		norms, err := readVectors(c)
		if err != nil {
			return err
		}
		lod.Norms = norms
	case tagFVRT:
		if len(c.Data)%fvrtSize != 0 {
			return chunkError(c.Tag, c.Offset, ErrBadPayload)
		}
		pr := iff.NewPayloadReader(c)
		lod.Corners = make([]iffmesh.FaceVert, 0, len(c.Data)/fvrtSize)
		for pr.Remaining() > 0 {
			var fv iffmesh.FaceVert
			var u, v float32
			if pr.Long(&fv.Vert) || pr.Long(&fv.Norm) || pr.Float(&u) || pr.Float(&v) {
				return chunkError(c.Tag, c.Offset, pr.End())
			}
			fv.UV = mgl32.Vec2{u, v}
			lod.Corners = append(lod.Corners, fv)
		}
	case tagFACE:
		if len(c.Data)%faceSize != 0 {
			return chunkError(c.Tag, c.Offset, ErrBadPayload)
		}
		pr := iff.NewPayloadReader(c)
		lod.Faces = make([]iffmesh.Face, 0, len(c.Data)/faceSize)
		for pr.Remaining() > 0 {
			var f iffmesh.Face
			if pr.Long(&f.Norm) || pr.Float(&f.DPlane) || pr.Long(&f.TexNum) ||
				pr.Long(&f.FirstVert) || pr.Long(&f.NumVerts) ||
				pr.Long(&f.LightFlags) || pr.Long(&f.AltMat) {
				return chunkError(c.Tag, c.Offset, pr.End())
			}
			lod.Faces = append(lod.Faces, f)
		}
	case tagCNTR:
		center, err := readVectors(c)
		if err != nil {
			return err
		}
		if len(center) != 1 {
			return chunkError(c.Tag, c.Offset, ErrBadPayload)
		}
		lod.Center = center[0]
	case tagRADI:
		if len(c.Data) != 4 {
			return chunkError(c.Tag, c.Offset, ErrBadPayload)
		}
		pr := iff.NewPayloadReader(c)
		if pr.Float(&lod.Radius) {
			return chunkError(c.Tag, c.Offset, pr.End())
		}
	default:
		return chunkError(c.Tag, c.Offset, ErrUnknownChunk)
	}
	return nil
}

func readHardpoints(m *iffmesh.Model, hard *iff.Form) error {
	seen := make(map[string]struct{}, len(hard.Members))
	for _, member := range hard.Members {
		c, ok := member.(*iff.Chunk)
		if !ok || c.Tag != tagHARD {
			if f, isForm := member.(*iff.Form); isForm {
				return chunkError(f.Type, f.Offset, ErrUnknownChunk)
			}
			return chunkError(c.Tag, c.Offset, ErrUnknownChunk)
		}
		if len(c.Data) < hardSize+2 {
			return chunkError(c.Tag, c.Offset, ErrBadPayload)
		}

		pr := iff.NewPayloadReader(c)
		var rows [3]mgl32.Vec3
		var hp iffmesh.Hardpoint
		for row := 0; row < 3; row++ {
			var x, y, z, p float32
			if pr.Float(&x) || pr.Float(&y) || pr.Float(&z) || pr.Float(&p) {
				return chunkError(c.Tag, c.Offset, pr.End())
			}
			rows[row] = mgl32.Vec3{x, y, z}
			hp.Position[row] = p
		}
		hp.Rotation = mat3FromRows(rows[0], rows[1], rows[2])
		if pr.CString(&hp.Name) {
			return chunkError(c.Tag, c.Offset, pr.End())
		}

		if _, dup := seen[hp.Name]; dup {
			return chunkError(c.Tag, c.Offset, iffmesh.DuplicateHardpointError(hp.Name))
		}
		seen[hp.Name] = struct{}{}
		m.Hardpoints = append(m.Hardpoints, hp)
	}
	return nil
}

func readCollision(m *iffmesh.Model, coll *iff.Form) error {
	for _, member := range coll.Members {
		c, ok := member.(*iff.Chunk)
		if !ok || c.Tag != tagSPHR {
			if f, isForm := member.(*iff.Form); isForm {
				return chunkError(f.Type, f.Offset, ErrUnknownChunk)
			}
			return chunkError(c.Tag, c.Offset, ErrUnknownChunk)
		}
		if len(c.Data) != 16 {
			return chunkError(c.Tag, c.Offset, ErrBadPayload)
		}
		pr := iff.NewPayloadReader(c)
		var x, y, z, r float32
		if pr.Float(&x) || pr.Float(&y) || pr.Float(&z) || pr.Float(&r) {
			return chunkError(c.Tag, c.Offset, pr.End())
		}
		m.Collision = iffmesh.Sphere{Center: mgl32.Vec3{x, y, z}, Radius: r}
	}
	return nil
}

func readFloats(c *iff.Chunk) ([]float32, error) {
	if len(c.Data)%4 != 0 {
		return nil, chunkError(c.Tag, c.Offset, ErrBadPayload)
	}
	pr := iff.NewPayloadReader(c)
	out := make([]float32, 0, len(c.Data)/4)
	for pr.Remaining() > 0 {
		var f float32
		if pr.Float(&f) {
			return nil, chunkError(c.Tag, c.Offset, pr.End())
		}
		out = append(out, f)
	}
	return out, nil
}

func readVectors(c *iff.Chunk) ([]mgl32.Vec3, error) {
	if len(c.Data)%vertSize != 0 {
		return nil, chunkError(c.Tag, c.Offset, ErrBadPayload)
	}
	floats, err := readFloats(c)
	if err != nil {
		return nil, err
	}
	out := make([]mgl32.Vec3, 0, len(floats)/3)
	for i := 0; i+2 < len(floats); i += 3 {
		out = append(out, mgl32.Vec3{floats[i], floats[i+1], floats[i+2]})
	}
	return out, nil
}

func readFar(c *iff.Chunk) (*iffmesh.FarRange, error) {
	if len(c.Data) != 8 {
		return nil, chunkError(c.Tag, c.Offset, ErrBadPayload)
	}
	pr := iff.NewPayloadReader(c)
	var far iffmesh.FarRange
	if pr.Float(&far.Near) || pr.Float(&far.Far) {
		return nil, chunkError(c.Tag, c.Offset, pr.End())
	}
	return &far, nil
}

func faceTexNums(m *iffmesh.Model) []uint32 {
	var nums []uint32
	for _, lod := range m.LODs {
		for _, f := range lod.Faces {
			if f.TexNum >= 0 {
				nums = append(nums, uint32(f.TexNum))
			}
		}
	}
	return nums
}

// mat3FromRows builds a column-major mgl32.Mat3 from three row vectors.
func mat3FromRows(r0, r1, r2 mgl32.Vec3) mgl32.Mat3 {
	return mgl32.Mat3{
		r0[0], r1[0], r2[0],
		r0[1], r1[1], r2[1],
		r0[2], r1[2], r2[2],
	}
}
