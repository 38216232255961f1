package fonts

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/font/gofont/goregular"
)

func TestLoadBuiltinAndFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "regular.ttf"), goregular.TTF, 0o644); err != nil {
		t.Fatalf("write font: %v", err)
	}
	set, err := Load(map[string]string{
		"bold":    "builtin:go-bold",
		"regular": "regular.ttf",
	}, dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !set.Has("bold") || !set.Has("regular") {
		t.Fatalf("expected both fonts to be loaded")
	}
	face, err := set.Face("regular", 36)
	if err != nil {
		t.Fatalf("Face: %v", err)
	}
	defer face.Close()

	m := Metrics{Face: face}
	if w := m.Measure("Hello"); w <= 0 {
		t.Fatalf("expected positive width, got %g", w)
	}
	if m.Measure("Hello world") <= m.Measure("Hello") {
		t.Fatalf("longer text must be wider")
	}
	adv := m.LineAdvance()
	if adv <= 0 || adv > 36*1.5 {
		t.Fatalf("unexpected line advance %g for 36px", adv)
	}
}

func TestLoadFailures(t *testing.T) {
	cases := map[string]map[string]string{
		"missing file":    {"body": "does-not-exist.ttf"},
		"unknown builtin": {"body": "builtin:comic-sans"},
		"empty src":       {"body": ""},
	}
	for name, sources := range cases {
		_, err := Load(sources, t.TempDir())
		if !errors.Is(err, ErrLoad) {
			t.Fatalf("%s: expected ErrLoad, got %v", name, err)
		}
		var le *LoadError
		if !errors.As(err, &le) || le.Name != "body" {
			t.Fatalf("%s: expected LoadError for body, got %v", name, err)
		}
	}
}

func TestLoadRejectsGarbage(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.ttf"), []byte("not a font"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(map[string]string{"bad": "bad.ttf"}, dir); !errors.Is(err, ErrLoad) {
		t.Fatalf("expected ErrLoad, got %v", err)
	}
}

func TestFaceUnknownName(t *testing.T) {
	set, err := Load(map[string]string{"a": "builtin:go-regular"}, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := set.Face("b", 12); !errors.Is(err, ErrLoad) {
		t.Fatalf("expected ErrLoad for undeclared font, got %v", err)
	}
}
