package iffmesh

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Scene is the neutral scene description handed to the exporter by a host
// adapter. The core never inspects host-runtime objects; an adapter
// flattens whatever it fronts into Scene nodes.
type Scene struct {
	// Nodes are the scene's root-level objects.
	Nodes []Node

	// Active is the host's currently selected object, or nil. The
	// exporter may use it as detail level 0.
	Active Node
}

// Walk calls fn for every node in the scene, depth first.
func (s *Scene) Walk(fn func(Node)) {
	var walk func(Node)
	walk = func(n Node) {
		fn(n)
		for _, c := range n.Base().Children {
			walk(c)
		}
	}
	for _, n := range s.Nodes {
		walk(n)
	}
}

// Find returns the first node with the given name, or nil.
func (s *Scene) Find(name string) Node {
	var found Node
	s.Walk(func(n Node) {
		if found == nil && n.Base().Name == name {
			found = n
		}
	})
	return found
}

// Node is a scene object: either a *MeshNode or an *EmptyNode.
type Node interface {
	Base() *NodeBase
}

// NodeBase carries what every scene object has: a name, a transform local
// to its parent, a visibility flag, and children.
type NodeBase struct {
	Name      string
	Transform Transform
	Hidden    bool
	Children  []Node
}

// AddChild parents c to n.
func (n *NodeBase) AddChild(c Node) {
	n.Children = append(n.Children, c)
}

// Transform is a node's placement relative to its parent: translation,
// XYZ euler rotation in radians, and per-axis scale.
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Vec3
	Scale    mgl32.Vec3
}

// RotationMatrix returns the transform's rotation as a matrix, composed as
// R = Rz·Ry·Rx.
func (t Transform) RotationMatrix() mgl32.Mat3 {
	return mgl32.Rotate3DZ(t.Rotation.Z()).
		Mul3(mgl32.Rotate3DY(t.Rotation.Y())).
		Mul3(mgl32.Rotate3DX(t.Rotation.X()))
}

// MeshNode is a polygon mesh object.
type MeshNode struct {
	NodeBase

	// Verts is the mesh's vertex pool, in mesh-local coordinates.
	Verts []mgl32.Vec3

	// Polygons reference Verts by index.
	Polygons []Polygon

	// Materials are the mesh's material slots, referenced by polygon
	// material index.
	Materials []Material
}

// Base implements Node.
func (n *MeshNode) Base() *NodeBase { return &n.NodeBase }

// EmptyNode is a marker object with no geometry: a hardpoint, a collision
// sphere override, or any other named locator.
type EmptyNode struct {
	NodeBase

	// DrawSize is the marker's unscaled display radius. The collision
	// override radius is DrawSize times the largest scale axis.
	DrawSize float32
}

// Base implements Node.
func (n *EmptyNode) Base() *NodeBase { return &n.NodeBase }

// Polygon is one face of a mesh: at least three vertex references, a UV
// per corner, and a material slot. Material is -1 when the polygon has no
// material assigned, which the exporter rejects.
type Polygon struct {
	Verts    []int
	UV       []mgl32.Vec2
	Material int

	// Smooth selects per-vertex normals instead of the face normal.
	Smooth bool
}

// Material is a mesh material slot. Texture names the source image file
// the material samples; it is the unit of texture numbering.
type Material struct {
	Name    string
	Texture string

	// FullBright marks faces that ignore scene lighting.
	FullBright bool

	// LightFlags, when non-nil, overrides the computed lighting bitfield
	// verbatim.
	LightFlags *int32
}
