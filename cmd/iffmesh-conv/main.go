// The iffmesh-conv command rewrites a binary mesh file as XMF source.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/wcpmod/iffmesh/mesh"
)

const usage = `usage: iffmesh-conv [FLAGS] [INPUT] [OUTPUT]

Reads a binary IFF mesh file from INPUT, and writes to OUTPUT the same model
as XMF source, suitable for the external mesh compiler. The texture listing
is embedded as comments, and can additionally be written to its own file.

INPUT and OUTPUT are paths to files. If INPUT is "-" or unspecified, then stdin
is used. If OUTPUT is "-" or unspecified, then stdout is used. Warnings and
errors are written to stderr.

FLAGS
	-listing FILE    Also write the texture listing to FILE.
`

func main() {
	var input io.Reader = os.Stdin
	var output io.Writer = os.Stdout

	listing := flag.String("listing", "", "")
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

	m, err := mesh.Decoder{}.Decode(input)
	if err != nil {
		fmt.Fprintln(os.Stderr, fmt.Errorf("decode: %w", err))
		return
	}

	if err := mesh.WriteXMF(output, m); err != nil {
		fmt.Fprintln(os.Stderr, fmt.Errorf("write xmf: %w", err))
		return
	}

	if *listing != "" {
		lf, err := os.Create(*listing)
		if err != nil {
			fmt.Fprintln(os.Stderr, fmt.Errorf("create listing: %w", err))
			return
		}
		defer lf.Close()
		if err := mesh.WriteListing(lf, m); err != nil {
			fmt.Fprintln(os.Stderr, fmt.Errorf("write listing: %w", err))
			return
		}
	}
}
