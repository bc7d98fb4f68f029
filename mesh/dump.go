package mesh

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"unicode"

	"github.com/wcpmod/iffmesh/iff"
)

// Dump writes to w a readable representation of the chunk tree decoded
// from r. The tree is dumped as containers, not as a Model, so files
// with unknown tags or broken geometry can still be inspected.
func (d Decoder) Dump(w io.Writer, r io.Reader) error {
	if r == nil {
		return errors.New("nil reader")
	}
	if w == nil {
		return errors.New("nil writer")
	}

	root, err := iff.Decode(r)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	dumpForm(bw, 0, root)
	bw.WriteByte('\n')
	return bw.Flush()
}

func dumpForm(w *bufio.Writer, indent int, f *iff.Form) {
	fmt.Fprintf(w, "FORM ")
	dumpTag(w, f.Type)
	fmt.Fprintf(w, " (offset:%d) (len:%d) {", f.Offset, f.EncodedLen())
	for _, member := range f.Members {
		dumpNewline(w, indent+1)
		switch member := member.(type) {
		case *iff.Form:
			dumpForm(w, indent+1, member)
		case *iff.Chunk:
			dumpChunk(w, indent+1, member)
		}
	}
	dumpNewline(w, indent)
	w.WriteByte('}')
}

func dumpChunk(w *bufio.Writer, indent int, c *iff.Chunk) {
	dumpTag(w, c.Tag)
	fmt.Fprintf(w, " (offset:%d) ", c.Offset)
	if n, ok := recordCount(c); ok {
		fmt.Fprintf(w, "(records:%d) ", n)
	}
	dumpBytes(w, indent, c.Data)
}

// recordCount reports how many whole records the payload holds, for
// chunks whose record size is known.
func recordCount(c *iff.Chunk) (int, bool) {
	var size int
	switch c.Tag {
	case tagRANG:
		size = 4
	case tagVERT, tagVTNM:
		size = vertSize
	case tagFVRT:
		size = fvrtSize
	case tagFACE:
		size = faceSize
	default:
		return 0, false
	}
	if len(c.Data)%size != 0 {
		return 0, false
	}
	return len(c.Data) / size, true
}

func dumpNewline(w *bufio.Writer, indent int) {
	w.WriteByte('\n')
	for i := 0; i < indent; i++ {
		w.WriteByte('\t')
	}
}

func dumpTag(w *bufio.Writer, tag iff.Tag) {
	for _, c := range tag {
		if unicode.IsPrint(rune(c)) {
			w.WriteByte(c)
		} else {
			w.WriteByte('.')
		}
	}
	fmt.Fprintf(w, " (% 02X)", tag[:])
}

func dumpBytes(w *bufio.Writer, indent int, b []byte) {
	fmt.Fprintf(w, "(len:%d)", len(b))
	const width = 16
	for j := 0; j < len(b); j += width {
		dumpNewline(w, indent+1)
		w.WriteString("| ")
		for i := j; i < j+width; {
			if i < len(b) {
				s := strconv.FormatUint(uint64(b[i]), 16)
				if len(s) == 1 {
					w.WriteString("0")
				}
				w.WriteString(s)
			} else if len(b) < width {
				break
			} else {
				w.WriteString("  ")
			}
			i++
			if i%8 == 0 && i < j+width {
				w.WriteByte(' ')
			}
		}
		w.WriteString(" |")
	}
}
