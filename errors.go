package iffmesh

import (
	"fmt"

	"github.com/wcpmod/iffmesh/errors"
)

// ErrNoMesh indicates that no object could be resolved as detail level 0.
var ErrNoMesh = errors.New("no mesh found for detail level 0")

// DuplicateHardpointError indicates two hardpoints sharing a name.
type DuplicateHardpointError string

func (err DuplicateHardpointError) Error() string {
	return fmt.Sprintf("duplicate hardpoint name %q", string(err))
}

// MissingMaterialError indicates a face with no resolvable texture. The
// target format requires a texture number on every face.
type MissingMaterialError struct {
	LOD  int
	Face int
}

func (err MissingMaterialError) Error() string {
	return fmt.Sprintf("lod %d: face %d has no material binding", err.LOD, err.Face)
}

// AmbiguousTextureError indicates two texture sources whose numeric stems
// claim the same engine texture number.
type AmbiguousTextureError struct {
	Number uint32
	First  string
	Second string
}

func (err AmbiguousTextureError) Error() string {
	return fmt.Sprintf("texture number %d claimed by both %q and %q", err.Number, err.First, err.Second)
}

// DegenerateFaceError indicates a face whose corners do not span a plane:
// fewer than three distinct positions, or collinear ones. Geometry
// extraction collects these across the whole mesh and reports them as a
// batch.
type DegenerateFaceError struct {
	Object string
	Face   int
}

func (err DegenerateFaceError) Error() string {
	return fmt.Sprintf("%s: face %d is degenerate", err.Object, err.Face)
}

func union(errs []error) error {
	return errors.Union(errs...)
}
