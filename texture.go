package iffmesh

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// MaxTexNum is the largest texture number the engine accepts from a
// numeric filename. Larger numeric stems fall back to sequential
// allocation.
const MaxTexNum = 99999990

// TextureBinding ties a texture source filename to its engine texture
// number. The textual form of the number is always 8 digits, zero padded.
type TextureBinding struct {
	Source string
	Number uint32
}

// TextureTable is the filename → texture number mapping for one model.
// Tables are built per export; nothing is shared between runs.
type TextureTable struct {
	bindings []TextureBinding
	byName   map[string]uint32
}

// NewTextureTable resolves an ordered set of distinct texture source
// filenames to engine texture numbers.
//
// A filename whose stem (base name, extension ignored) is entirely digits
// keeps its literal value, so artists can name an image after the engine
// texture it replaces. Two distinct sources resolving to the same number
// make the mapping ambiguous and fail. All other sources receive the
// smallest number not claimed by any numeric stem or earlier binding, in
// first-encountered order.
func NewTextureTable(sources []string) (TextureTable, error) {
	t := TextureTable{byName: make(map[string]uint32, len(sources))}
	claimed := make(map[uint32]string, len(sources))

	// Numeric stems claim their numbers before anything is allocated.
	for _, src := range sources {
		if _, ok := t.byName[src]; ok {
			continue
		}
		n, ok := numericStem(src)
		if !ok {
			continue
		}
		if prev, taken := claimed[n]; taken {
			return TextureTable{}, AmbiguousTextureError{Number: n, First: prev, Second: src}
		}
		claimed[n] = src
		t.add(src, n)
	}

	var next uint32
	for _, src := range sources {
		if _, ok := t.byName[src]; ok {
			continue
		}
		for {
			if _, taken := claimed[next]; !taken {
				break
			}
			next++
		}
		claimed[next] = src
		t.add(src, next)
	}
	return t, nil
}

// TextureTableFromNumbers rebuilds a table from the texture numbers found
// in a decoded model's faces. Sources take the engine's on-disk name for
// the number.
func TextureTableFromNumbers(nums []uint32) TextureTable {
	t := TextureTable{byName: make(map[string]uint32, len(nums))}
	for _, n := range nums {
		src := fmt.Sprintf("%08d", n)
		if _, ok := t.byName[src]; ok {
			continue
		}
		t.add(src, n)
	}
	return t
}

func (t *TextureTable) add(src string, n uint32) {
	t.bindings = append(t.bindings, TextureBinding{Source: src, Number: n})
	t.byName[src] = n
}

// Lookup returns the texture number bound to a source filename.
func (t TextureTable) Lookup(source string) (uint32, bool) {
	n, ok := t.byName[source]
	return n, ok
}

// Len returns the number of bindings.
func (t TextureTable) Len() int {
	return len(t.bindings)
}

// Bindings returns the table's bindings ordered by texture number.
func (t TextureTable) Bindings() []TextureBinding {
	out := make([]TextureBinding, len(t.bindings))
	copy(out, t.bindings)
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// numericStem reports the literal texture number of a source filename
// whose base name, ignoring the extension, parses entirely as digits.
func numericStem(source string) (uint32, bool) {
	base := source
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.LastIndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	if base == "" {
		return 0, false
	}
	for _, r := range base {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseUint(base, 10, 32)
	if err != nil || n > MaxTexNum {
		return 0, false
	}
	return uint32(n), true
}
