// The iffmesh-stat command displays stats for a mesh file.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/blake2b"

	"github.com/wcpmod/iffmesh"
	"github.com/wcpmod/iffmesh/mesh"
)

const usage = `usage: iffmesh-stat [FLAGS] [INPUT] [OUTPUT]

Reads a binary IFF mesh file from INPUT, and writes to OUTPUT statistics
for the file.

INPUT and OUTPUT are paths to files. If INPUT is "-" or unspecified, then stdin
is used. If OUTPUT is "-" or unspecified, then stdout is used. Warnings and
errors are written to stderr.

FLAGS
	-dump    Write the raw chunk tree instead of statistics.
`

type LODStats struct {
	Level   int
	Empty   bool `json:",omitempty"`
	Verts   int
	Norms   int
	Corners int
	Faces   int
	Radius  float32
}

type Stats struct {
	// Hash is the blake2b-256 hash of the file content.
	Hash string

	Size int64

	Name string

	LODs []LODStats

	Ranges []float32

	Hardpoints []string

	// Textures maps each texture number's on-disk name to its number.
	Textures map[string]uint32

	CollisionCenter [3]float32
	CollisionRadius float32

	Far *iffmesh.FarRange `json:",omitempty"`
}

func (s *Stats) Fill(m *iffmesh.Model) {
	s.Name = m.Name
	for _, lod := range m.LODs {
		s.LODs = append(s.LODs, LODStats{
			Level:   lod.Level,
			Empty:   lod.Empty,
			Verts:   len(lod.Verts),
			Norms:   len(lod.Norms),
			Corners: len(lod.Corners),
			Faces:   len(lod.Faces),
			Radius:  lod.Radius,
		})
	}
	s.Ranges = m.Ranges
	for _, hp := range m.Hardpoints {
		s.Hardpoints = append(s.Hardpoints, hp.Name)
	}
	s.Textures = map[string]uint32{}
	for _, b := range m.Textures.Bindings() {
		s.Textures[b.Source] = b.Number
	}
	s.CollisionCenter = m.Collision.Center
	s.CollisionRadius = m.Collision.Radius
	s.Far = m.Far
}

func main() {
	var input io.Reader = os.Stdin
	var output io.Writer = os.Stdout

	dump := flag.Bool("dump", false, "")
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usage) }
	flag.Parse()
	args := flag.Args()
	if len(args) >= 1 && args[0] != "-" {
		in, err := os.Open(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, fmt.Errorf("open input: %w", err))
			return
		}
		input = in
		defer in.Close()
	}
	if len(args) >= 2 && args[1] != "-" {
		out, err := os.Create(args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, fmt.Errorf("create output: %w", err))
			return
		}
		defer out.Close()
		defer func() {
			err := out.Sync()
			if err != nil {
				fmt.Fprintln(os.Stderr, fmt.Errorf("sync output: %w", err))
				return
			}
		}()
		output = out
	}

	content, err := io.ReadAll(input)
	if err != nil {
		fmt.Fprintln(os.Stderr, fmt.Errorf("read input: %w", err))
		return
	}

	if *dump {
		err := mesh.Decoder{}.Dump(output, bytes.NewReader(content))
		if err != nil {
			fmt.Fprintln(os.Stderr, fmt.Errorf("dump: %w", err))
		}
		return
	}

	m, err := mesh.Decoder{}.Decode(bytes.NewReader(content))
	if err != nil {
		fmt.Fprintln(os.Stderr, fmt.Errorf("decode: %w", err))
		return
	}

	sum := blake2b.Sum256(content)
	stats := Stats{
		Hash: fmt.Sprintf("%x", sum),
		Size: int64(len(content)),
	}
	stats.Fill(m)

	je := json.NewEncoder(output)
	je.SetIndent("", "\t")
	if err := je.Encode(&stats); err != nil {
		fmt.Fprintln(os.Stderr, fmt.Errorf("encode stats: %w", err))
		return
	}
}
