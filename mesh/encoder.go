package mesh

import (
	"errors"
	"fmt"
	"io"

	"github.com/wcpmod/iffmesh"
	"github.com/wcpmod/iffmesh/iff"
)

// Encoder encodes a Model into the engine's binary mesh format.
type Encoder struct{}

// Encode validates m and writes its chunk tree to w.
func (e Encoder) Encode(w io.Writer, m *iffmesh.Model) error {
	if w == nil {
		return errors.New("nil writer")
	}
	if err := m.Validate(); err != nil {
		return err
	}
	tree, err := Tree(m)
	if err != nil {
		return err
	}
	_, err = iff.Encode(w, tree)
	return err
}

// Tree composes the chunk tree for a model: DETA { RANG, MESH { lods },
// HARD { hardpoints }, COLL { SPHR }, FAR? }.
func Tree(m *iffmesh.Model) (*iff.Form, error) {
	rang, err := rangChunk(m)
	if err != nil {
		return nil, err
	}

	lods := iff.NewForm("MESH")
	for _, lod := range m.LODs {
		lf, err := lodForm(m, lod)
		if err != nil {
			return nil, err
		}
		lods.Append(lf)
	}

	hard := iff.NewForm("HARD")
	for _, hp := range m.Hardpoints {
		hc, err := hardChunk(hp)
		if err != nil {
			return nil, err
		}
		hard.Append(hc)
	}

	sphr, err := iff.NewPayloadWriter().
		Float(m.Collision.Center.X()).
		Float(m.Collision.Center.Y()).
		Float(m.Collision.Center.Z()).
		Float(m.Collision.Radius).
		Chunk("SPHR")
	if err != nil {
		return nil, err
	}

	root := iff.NewForm("DETA", rang, lods, hard, iff.NewForm("COLL", sphr))

	if m.Far != nil {
		far, err := iff.NewPayloadWriter().
			Float(m.Far.Near).
			Float(m.Far.Far).
			Chunk("FAR")
		if err != nil {
			return nil, err
		}
		root.Append(far)
	}
	return root, nil
}

func rangChunk(m *iffmesh.Model) (*iff.Chunk, error) {
	ranges := m.Ranges
	if len(ranges) == 0 {
		ranges = iffmesh.DefaultRanges(len(m.LODs))
	}
	pw := iff.NewPayloadWriter()
	for _, r := range ranges {
		pw.Float(r)
	}
	return pw.Chunk("RANG")
}

func lodForm(m *iffmesh.Model, lod *iffmesh.LODMesh) (*iff.Form, error) {
	level := iff.NewForm(fmt.Sprintf("%04d", lod.Level))
	if lod.Empty {
		return level.Append(iff.NewForm("EMPT")), nil
	}

	name := lod.Name
	if name == "" {
		name = m.Name
	}
	nameChunk, err := iff.NewPayloadWriter().CString(name).Chunk("NAME")
	if err != nil {
		return nil, err
	}

	vert := iff.NewPayloadWriter()
	for _, v := range lod.Verts {
		vert.Float(v.X()).Float(v.Y()).Float(v.Z())
	}
	vertChunk, err := vert.Chunk("VERT")
	if err != nil {
		return nil, err
	}

	vtnm := iff.NewPayloadWriter()
	for _, n := range lod.Norms {
		vtnm.Float(n.X()).Float(n.Y()).Float(n.Z())
	}
	vtnmChunk, err := vtnm.Chunk("VTNM")
	if err != nil {
		return nil, err
	}

	fvrt := iff.NewPayloadWriter()
	for _, fv := range lod.Corners {
		fvrt.Long(fv.Vert).Long(fv.Norm).Float(fv.UV.X()).Float(fv.UV.Y())
	}
	fvrtChunk, err := fvrt.Chunk("FVRT")
	if err != nil {
		return nil, err
	}

	face := iff.NewPayloadWriter()
	for _, f := range lod.Faces {
		face.Long(f.Norm).
			Float(f.DPlane).
			Long(f.TexNum).
			Long(f.FirstVert).
			Long(f.NumVerts).
			Long(f.LightFlags).
			Long(f.AltMat)
	}
	faceChunk, err := face.Chunk("FACE")
	if err != nil {
		return nil, err
	}

	cntrChunk, err := iff.NewPayloadWriter().
		Float(lod.Center.X()).
		Float(lod.Center.Y()).
		Float(lod.Center.Z()).
		Chunk("CNTR")
	if err != nil {
		return nil, err
	}

	radiChunk, err := iff.NewPayloadWriter().Float(lod.Radius).Chunk("RADI")
	if err != nil {
		return nil, err
	}

	geom := iff.NewForm(fmt.Sprintf("%04d", iffmesh.MeshVersion),
		nameChunk, vertChunk, vtnmChunk, fvrtChunk, faceChunk, cntrChunk, radiChunk)
	return level.Append(iff.NewForm("MESH", geom)), nil
}

func hardChunk(hp iffmesh.Hardpoint) (*iff.Chunk, error) {
	pw := iff.NewPayloadWriter()
	for row := 0; row < 3; row++ {
		pw.Float(hp.Rotation.At(row, 0)).
			Float(hp.Rotation.At(row, 1)).
			Float(hp.Rotation.At(row, 2)).
			Float(hp.Position[row])
	}
	return pw.CString(hp.Name).Chunk("HARD")
}
