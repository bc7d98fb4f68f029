package mesh

import (
	"fmt"
	"io"

	"github.com/wcpmod/iffmesh"
)

// WriteListing writes the companion texture listing for m: one line per
// texture binding mapping the source file name to the engine material
// name built from the texture number. The source column is padded to the
// widest name so the arrows line up, and lines are ordered by number.
func WriteListing(w io.Writer, m *iffmesh.Model) error {
	return writeListing(w, m, "")
}

func writeListing(w io.Writer, m *iffmesh.Model, prefix string) error {
	bindings := m.Textures.Bindings()
	width := 0
	for _, b := range bindings {
		if len(b.Source) > width {
			width = len(b.Source)
		}
	}
	for _, b := range bindings {
		_, err := fmt.Fprintf(w, "%s%-*s --> %08d.mat\n", prefix, width, b.Source, b.Number)
		if err != nil {
			return err
		}
	}
	return nil
}
