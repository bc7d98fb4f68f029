package scene

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/wcpmod/iffmesh"
)

// extractGeometry converts one mesh node into a LODMesh. Vertex identity
// is positional: corners sharing an exact position collapse to one stored
// vertex. Normals are deduplicated the same way and referenced by index.
//
// Per-face problems are collected and returned together; faces that fail
// are left out of the result so the rest of the mesh still extracts.
func extractGeometry(node *iffmesh.MeshNode, level int, textures iffmesh.TextureTable) (*iffmesh.LODMesh, []error) {
	lod := &iffmesh.LODMesh{Level: level}
	var errs []error

	faceNorms, degenerate := faceNormals(node)
	vertNorms := vertexNormals(node, faceNorms)

	verts := newDedup()
	norms := newDedup()

	for i, p := range node.Polygons {
		if degenerate[i] {
			errs = append(errs, iffmesh.DegenerateFaceError{Object: node.Name, Face: i})
			continue
		}
		mat, ok := polygonMaterial(node, p)
		if !ok || mat.Texture == "" {
			errs = append(errs, iffmesh.MissingMaterialError{LOD: level, Face: i})
			continue
		}
		texnum, ok := textures.Lookup(mat.Texture)
		if !ok {
			errs = append(errs, iffmesh.MissingMaterialError{LOD: level, Face: i})
			continue
		}

		normIdx := norms.index(faceNorms[i])
		first := int32(len(lod.Corners))
		for c, vi := range p.Verts {
			corner := iffmesh.FaceVert{
				Vert: verts.index(node.Verts[vi]),
				Norm: normIdx,
			}
			if p.Smooth {
				corner.Norm = norms.index(vertNorms[vi])
			}
			if c < len(p.UV) {
				// The engine's V axis runs opposite to the scene's.
				corner.UV = mgl32.Vec2{p.UV[c].X(), -p.UV[c].Y()}
			}
			lod.Corners = append(lod.Corners, corner)
		}

		firstVert := node.Verts[p.Verts[0]]
		lod.Faces = append(lod.Faces, iffmesh.Face{
			Norm:       normIdx,
			DPlane:     -faceNorms[i].Dot(firstVert),
			TexNum:     int32(texnum),
			FirstVert:  first,
			NumVerts:   int32(len(p.Verts)),
			LightFlags: lightFlags(mat),
			AltMat:     iffmesh.FaceAltMat,
		})
	}

	lod.Verts = verts.values
	lod.Norms = norms.values

	sphere := boundingSphere(lod.Verts)
	lod.Center = sphere.Center
	lod.Radius = sphere.Radius
	return lod, errs
}

// faceNormals computes one normal per polygon by the right-hand rule on
// the first three corners. Polygons whose corners do not span a plane are
// flagged degenerate.
func faceNormals(node *iffmesh.MeshNode) ([]mgl32.Vec3, []bool) {
	normals := make([]mgl32.Vec3, len(node.Polygons))
	degenerate := make([]bool, len(node.Polygons))
	for i, p := range node.Polygons {
		if len(p.Verts) < 3 || !vertsInRange(node, p) {
			degenerate[i] = true
			continue
		}
		a := node.Verts[p.Verts[0]]
		b := node.Verts[p.Verts[1]]
		c := node.Verts[p.Verts[2]]
		n := b.Sub(a).Cross(c.Sub(a))
		if n.Len() == 0 {
			degenerate[i] = true
			continue
		}
		normals[i] = n.Normalize()
	}
	return normals, degenerate
}

func vertsInRange(node *iffmesh.MeshNode, p iffmesh.Polygon) bool {
	for _, vi := range p.Verts {
		if vi < 0 || vi >= len(node.Verts) {
			return false
		}
	}
	return true
}

// vertexNormals averages the adjacent face normals of each pool vertex,
// for smooth-shaded polygons. Vertices with no usable adjacent face keep
// a zero normal; the polygons referencing them are degenerate anyway.
func vertexNormals(node *iffmesh.MeshNode, faceNorms []mgl32.Vec3) []mgl32.Vec3 {
	sums := make([]mgl32.Vec3, len(node.Verts))
	for i, p := range node.Polygons {
		if faceNorms[i] == (mgl32.Vec3{}) || !vertsInRange(node, p) {
			continue
		}
		for _, vi := range p.Verts {
			sums[vi] = sums[vi].Add(faceNorms[i])
		}
	}
	for i, sum := range sums {
		if sum.Len() > 0 {
			sums[i] = sum.Normalize()
		}
	}
	return sums
}

func lightFlags(mat iffmesh.Material) int32 {
	if mat.LightFlags != nil {
		return *mat.LightFlags
	}
	if mat.FullBright {
		return iffmesh.LightFullBright
	}
	return 0
}

// dedup assigns stable indices to distinct Vec3 values in first-use order.
type dedup struct {
	values  []mgl32.Vec3
	indices map[mgl32.Vec3]int32
}

func newDedup() *dedup {
	return &dedup{indices: make(map[mgl32.Vec3]int32)}
}

func (d *dedup) index(v mgl32.Vec3) int32 {
	if i, ok := d.indices[v]; ok {
		return i
	}
	i := int32(len(d.values))
	d.values = append(d.values, v)
	d.indices[v] = i
	return i
}

// boundingSphere is a furthest-point bounding sphere: the center is the
// arithmetic mean of the vertices, the radius the greatest distance from
// it. Deterministic, not minimal.
func boundingSphere(verts []mgl32.Vec3) iffmesh.Sphere {
	if len(verts) == 0 {
		return iffmesh.Sphere{}
	}
	var sum mgl32.Vec3
	for _, v := range verts {
		sum = sum.Add(v)
	}
	center := sum.Mul(1 / float32(len(verts)))
	var radius float32
	for _, v := range verts {
		if d := v.Sub(center).Len(); d > radius {
			radius = d
		}
	}
	return iffmesh.Sphere{Center: center, Radius: radius}
}
