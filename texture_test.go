package iffmesh

import (
	"errors"
	"testing"
)

func TestTextureNumbering(t *testing.T) {
	table, err := NewTextureTable([]string{"424242.jpg", "Duhiky.png", "Basicmetal.tga"})
	if err != nil {
		t.Fatalf("NewTextureTable: %s", err)
	}
	for _, want := range []TextureBinding{
		{Source: "424242.jpg", Number: 424242},
		{Source: "Duhiky.png", Number: 0},
		{Source: "Basicmetal.tga", Number: 1},
	} {
		got, ok := table.Lookup(want.Source)
		if !ok || got != want.Number {
			t.Errorf("Lookup(%s) = %d, %v; want %d", want.Source, got, ok, want.Number)
		}
	}
}

func TestTextureNumberingSkipsClaimed(t *testing.T) {
	// The literal 0 is claimed by a numeric stem, so the first
	// non-numeric source gets 1.
	table, err := NewTextureTable([]string{"metal.png", "0.png", "glass.png"})
	if err != nil {
		t.Fatalf("NewTextureTable: %s", err)
	}
	if n, _ := table.Lookup("metal.png"); n != 1 {
		t.Errorf("metal.png = %d, want 1", n)
	}
	if n, _ := table.Lookup("glass.png"); n != 2 {
		t.Errorf("glass.png = %d, want 2", n)
	}
}

func TestTextureNumberingAmbiguous(t *testing.T) {
	_, err := NewTextureTable([]string{"007.png", "7.jpg"})
	var ambiguous AmbiguousTextureError
	if !errors.As(err, &ambiguous) {
		t.Fatalf("error = %v, want AmbiguousTextureError", err)
	}
	if ambiguous.Number != 7 || ambiguous.First != "007.png" || ambiguous.Second != "7.jpg" {
		t.Errorf("ambiguous = %+v", ambiguous)
	}
}

func TestTextureNumberingOverflow(t *testing.T) {
	// Stems above the engine limit are not numeric; they allocate
	// sequentially instead.
	table, err := NewTextureTable([]string{"99999991.png"})
	if err != nil {
		t.Fatalf("NewTextureTable: %s", err)
	}
	if n, _ := table.Lookup("99999991.png"); n != 0 {
		t.Errorf("99999991.png = %d, want sequential 0", n)
	}
}

func TestTextureNumberingPaths(t *testing.T) {
	table, err := NewTextureTable([]string{`textures\00424242.png`, "art/00020000.jpg"})
	if err != nil {
		t.Fatalf("NewTextureTable: %s", err)
	}
	if n, _ := table.Lookup(`textures\00424242.png`); n != 424242 {
		t.Errorf(`textures\00424242.png = %d, want 424242`, n)
	}
	if n, _ := table.Lookup("art/00020000.jpg"); n != 20000 {
		t.Errorf("art/00020000.jpg = %d, want 20000", n)
	}
}

func TestTextureBindingsSorted(t *testing.T) {
	table, err := NewTextureTable([]string{"b.png", "5.png", "a.png"})
	if err != nil {
		t.Fatalf("NewTextureTable: %s", err)
	}
	bindings := table.Bindings()
	for i := 1; i < len(bindings); i++ {
		if bindings[i-1].Number >= bindings[i].Number {
			t.Fatalf("bindings not sorted by number: %+v", bindings)
		}
	}
}

func TestTextureTableFromNumbers(t *testing.T) {
	table := TextureTableFromNumbers([]uint32{20, 424242, 20})
	if table.Len() != 2 {
		t.Errorf("Len = %d, want 2 (duplicate collapsed)", table.Len())
	}
	if n, ok := table.Lookup("00424242"); !ok || n != 424242 {
		t.Errorf("Lookup(00424242) = %d, %v", n, ok)
	}
}
