package mesh

import (
	"fmt"
	"io"

	"github.com/wcpmod/iffmesh"
)

// WriteXMF renders m as IFF source, the textual form compiled back into
// the binary format by the external mesh compiler. The first line must be
// the IFF header or the source will not compile; the texture listing
// follows as comments so the file documents its own material mapping.
func WriteXMF(w io.Writer, m *iffmesh.Model) error {
	if err := m.Validate(); err != nil {
		return err
	}

	x := &xmfWriter{w: w}
	x.printf(`IFF "%s.iff"`+"\n\n", m.Name)
	if x.err == nil {
		x.err = writeListing(w, m, "// ")
	}
	x.printf("\n{\n")

	x.openForm(1, "DETA")
	x.writeRanges(m)
	x.openForm(2, "MESH")
	for _, lod := range m.LODs {
		x.writeLOD(m, lod)
	}
	x.closeBlock(2)
	x.writeHardpoints(m)
	x.writeCollision(m)
	if m.Far != nil {
		x.openChunk(2, "FAR ")
		x.float(3, m.Far.Near)
		x.float(3, m.Far.Far)
		x.closeBlock(2)
	}
	x.closeBlock(1)
	x.printf("}\n")
	return x.err
}

// xmfWriter tracks the first write error so every emitter can be called
// unconditionally, in the manner of the binary writer.
type xmfWriter struct {
	w   io.Writer
	err error
}

func (x *xmfWriter) printf(format string, args ...interface{}) {
	if x.err != nil {
		return
	}
	_, x.err = fmt.Fprintf(x.w, format, args...)
}

// Brace blocks nest by two spaces per depth level.
func (x *xmfWriter) indent(depth int) string {
	const spaces = "                              "
	return spaces[:depth*2]
}

func (x *xmfWriter) openForm(depth int, typ string) {
	x.printf("%sFORM \"%s\"\n%s{\n", x.indent(depth), typ, x.indent(depth))
}

func (x *xmfWriter) openChunk(depth int, tag string) {
	x.printf("%sCHUNK \"%s\"\n%s{\n", x.indent(depth), tag, x.indent(depth))
}

func (x *xmfWriter) closeBlock(depth int) {
	x.printf("%s}\n", x.indent(depth))
}

func (x *xmfWriter) long(depth int, v int32) {
	x.printf("%slong %d\n", x.indent(depth), v)
}

// longHex renders a long as the compiler's hex literal form.
func (x *xmfWriter) longHex(depth int, v int32) {
	x.printf("%slong $%08X\n", x.indent(depth), uint32(v))
}

func (x *xmfWriter) float(depth int, v float32) {
	x.printf("%sfloat %.6f\n", x.indent(depth), v)
}

func (x *xmfWriter) cstring(depth int, s string) {
	x.printf("%scstring \"%s\"\n", x.indent(depth), s)
}

func (x *xmfWriter) writeRanges(m *iffmesh.Model) {
	ranges := m.Ranges
	if len(ranges) == 0 {
		ranges = iffmesh.DefaultRanges(len(m.LODs))
	}
	x.openChunk(2, "RANG")
	for _, r := range ranges {
		x.float(3, r)
	}
	x.closeBlock(2)
}

func (x *xmfWriter) writeLOD(m *iffmesh.Model, lod *iffmesh.LODMesh) {
	x.openForm(3, fmt.Sprintf("%04d", lod.Level))
	if lod.Empty {
		x.openForm(4, "EMPT")
		x.closeBlock(4)
		x.closeBlock(3)
		return
	}

	x.openForm(4, "MESH")
	x.openForm(5, fmt.Sprintf("%04d", iffmesh.MeshVersion))

	name := lod.Name
	if name == "" {
		name = m.Name
	}
	x.openChunk(6, "NAME")
	x.cstring(7, name)
	x.closeBlock(6)

	x.openChunk(6, "VERT")
	for _, v := range lod.Verts {
		x.float(7, v.X())
		x.float(7, v.Y())
		x.float(7, v.Z())
	}
	x.closeBlock(6)

	x.openChunk(6, "VTNM")
	for _, n := range lod.Norms {
		x.float(7, n.X())
		x.float(7, n.Y())
		x.float(7, n.Z())
	}
	x.closeBlock(6)

	x.openChunk(6, "FVRT")
	for _, fv := range lod.Corners {
		x.long(7, fv.Vert)
		x.long(7, fv.Norm)
		x.float(7, fv.UV.X())
		x.float(7, fv.UV.Y())
	}
	x.closeBlock(6)

	x.openChunk(6, "FACE")
	for _, f := range lod.Faces {
		x.long(7, f.Norm)
		x.float(7, f.DPlane)
		x.long(7, f.TexNum)
		x.long(7, f.FirstVert)
		x.long(7, f.NumVerts)
		x.long(7, f.LightFlags)
		x.longHex(7, f.AltMat)
	}
	x.closeBlock(6)

	x.openChunk(6, "CNTR")
	x.float(7, lod.Center.X())
	x.float(7, lod.Center.Y())
	x.float(7, lod.Center.Z())
	x.closeBlock(6)

	x.openChunk(6, "RADI")
	x.float(7, lod.Radius)
	x.closeBlock(6)

	x.closeBlock(5)
	x.closeBlock(4)
	x.closeBlock(3)
}

func (x *xmfWriter) writeHardpoints(m *iffmesh.Model) {
	x.openForm(2, "HARD")
	for _, hp := range m.Hardpoints {
		x.openChunk(3, "HARD")
		for row := 0; row < 3; row++ {
			x.float(4, hp.Rotation.At(row, 0))
			x.float(4, hp.Rotation.At(row, 1))
			x.float(4, hp.Rotation.At(row, 2))
			x.float(4, hp.Position[row])
		}
		x.cstring(4, hp.Name)
		x.closeBlock(3)
	}
	x.closeBlock(2)
}

func (x *xmfWriter) writeCollision(m *iffmesh.Model) {
	x.openForm(2, "COLL")
	x.openChunk(3, "SPHR")
	x.float(4, m.Collision.Center.X())
	x.float(4, m.Collision.Center.Y())
	x.float(4, m.Collision.Center.Z())
	x.float(4, m.Collision.Radius)
	x.closeBlock(3)
	x.closeBlock(2)
}
