// The scene package derives a Model from a neutral scene description.
//
// A host adapter populates an iffmesh.Scene with mesh and empty nodes;
// Export walks it, assembles the detail-0..detail-N set, extracts
// geometry, numbers textures, collects hardpoints, and computes the
// collision sphere. Each call owns its own intermediate state, so
// concurrent exports of different scenes do not interfere.
package scene

import (
	"strconv"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/wcpmod/iffmesh"
	"github.com/wcpmod/iffmesh/errors"
)

// Reserved names in the scene graph.
const (
	// LODPrefix names the detail set: detail-0 is the most detailed.
	LODPrefix = "detail-"

	// HardpointPrefix marks an empty as a hardpoint; the prefix is
	// stripped to produce the hardpoint name.
	HardpointPrefix = "hp-"

	// CollSphereName marks an empty as the collision sphere override.
	CollSphereName = "collsphr"
)

// Options configures an export. The zero value resolves LOD 0 by name,
// uses default draw ranges, and emits the default FAR chunk.
type Options struct {
	// Name overrides the model name. Empty uses the LOD 0 node's name.
	Name string

	// ActiveAsLOD0 uses the scene's active object as detail level 0
	// when it is a mesh, regardless of its name.
	ActiveAsLOD0 bool

	// Ranges overrides the per-LOD draw ranges. Empty substitutes
	// 400-unit steps starting at 0.
	Ranges []float32

	// Far overrides the FAR chunk planes. Nil emits the default planes.
	Far *iffmesh.FarRange
}

// Export derives a Model from s. All per-face problems (degenerate
// geometry, missing material bindings) are collected across every LOD and
// reported together; structural problems fail immediately.
func Export(s *iffmesh.Scene, opts Options) (*iffmesh.Model, error) {
	lods, err := assembleLODs(s, opts)
	if err != nil {
		return nil, err
	}

	textures, err := indexTextures(lods)
	if err != nil {
		return nil, err
	}

	name := opts.Name
	if name == "" {
		name = lods[0].Base().Name
	}

	m := &iffmesh.Model{
		Name:     name,
		Textures: textures,
	}

	var faceErrs []error
	for level, node := range lods {
		lod, errs := extractGeometry(node, level, textures)
		faceErrs = append(faceErrs, errs...)
		lod.Name = name
		m.LODs = append(m.LODs, lod)
	}
	if len(faceErrs) > 0 {
		return nil, union(faceErrs)
	}

	if m.Hardpoints, err = extractHardpoints(s); err != nil {
		return nil, err
	}
	m.Collision = collisionSphere(s, m.LODs[0])

	m.Ranges = opts.Ranges
	if len(m.Ranges) == 0 {
		m.Ranges = iffmesh.DefaultRanges(len(m.LODs))
	}
	far := iffmesh.DefaultFarRange
	if opts.Far != nil {
		far = *opts.Far
	}
	m.Far = &far

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// assembleLODs resolves the ordered detail set. LOD 0 is the active
// object (when enabled and a mesh) or the node named detail-0; higher
// levels are resolved by name until the first gap.
func assembleLODs(s *iffmesh.Scene, opts Options) ([]*iffmesh.MeshNode, error) {
	var lod0 *iffmesh.MeshNode
	if opts.ActiveAsLOD0 {
		lod0, _ = s.Active.(*iffmesh.MeshNode)
	}
	if lod0 == nil {
		lod0, _ = s.Find(LODPrefix + "0").(*iffmesh.MeshNode)
	}
	if lod0 == nil {
		return nil, iffmesh.ErrNoMesh
	}

	lods := []*iffmesh.MeshNode{lod0}
	for level := 1; ; level++ {
		node, ok := s.Find(LODPrefix + strconv.Itoa(level)).(*iffmesh.MeshNode)
		if !ok || node == lod0 {
			break
		}
		lods = append(lods, node)
	}
	return lods, nil
}

// indexTextures numbers every texture referenced by the detail set, in
// first-use order across LODs. Polygons with unresolvable materials are
// skipped here; geometry extraction reports them.
func indexTextures(lods []*iffmesh.MeshNode) (iffmesh.TextureTable, error) {
	var sources []string
	seen := make(map[string]struct{})
	for _, node := range lods {
		for _, p := range node.Polygons {
			mat, ok := polygonMaterial(node, p)
			if !ok || mat.Texture == "" {
				continue
			}
			if _, dup := seen[mat.Texture]; dup {
				continue
			}
			seen[mat.Texture] = struct{}{}
			sources = append(sources, mat.Texture)
		}
	}
	return iffmesh.NewTextureTable(sources)
}

func polygonMaterial(node *iffmesh.MeshNode, p iffmesh.Polygon) (iffmesh.Material, bool) {
	if p.Material < 0 || p.Material >= len(node.Materials) {
		return iffmesh.Material{}, false
	}
	return node.Materials[p.Material], true
}

// frame is a node's placement accumulated from the scene root: world
// position, world rotation, and componentwise scale.
type frame struct {
	pos   mgl32.Vec3
	rot   mgl32.Mat3
	scale mgl32.Vec3
}

// walkFrames visits every node with its accumulated frame. A zero scale
// on a transform is read as unit scale, so adapters that never touch
// Scale still compose sensibly.
func walkFrames(s *iffmesh.Scene, fn func(iffmesh.Node, frame)) {
	var walk func(iffmesh.Node, frame)
	walk = func(n iffmesh.Node, parent frame) {
		t := n.Base().Transform
		f := frame{
			pos:   parent.pos.Add(parent.rot.Mul3x1(mulEach(parent.scale, t.Position))),
			rot:   parent.rot.Mul3(t.RotationMatrix()),
			scale: mulEach(parent.scale, scaleOrUnit(t.Scale)),
		}
		fn(n, f)
		for _, c := range n.Base().Children {
			walk(c, f)
		}
	}
	root := frame{rot: mgl32.Ident3(), scale: mgl32.Vec3{1, 1, 1}}
	for _, n := range s.Nodes {
		walk(n, root)
	}
}

func scaleOrUnit(s mgl32.Vec3) mgl32.Vec3 {
	if s == (mgl32.Vec3{}) {
		return mgl32.Vec3{1, 1, 1}
	}
	return s
}

func mulEach(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{a.X() * b.X(), a.Y() * b.Y(), a.Z() * b.Z()}
}

func union(errs []error) error {
	return errors.Union(errs...)
}
