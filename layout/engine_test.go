package layout

import (
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"

	"github.com/ByLCY/tweetcard/reshape"
	"github.com/ByLCY/tweetcard/script"
)

// stubFace 是一个等宽字体：每个字符宽 perRune 像素，避免测试依赖真实字体。
type stubFace struct {
	perRune float64
	advance float64
}

func (f stubFace) Measure(s string) float64 { return float64(utf8.RuneCountInString(s)) * f.perRune }
func (f stubFace) LineAdvance() float64     { return f.advance }

func stubFonts() Fonts {
	return Fonts{
		Arabic: stubFace{perRune: 10, advance: 40},
		Latin:  stubFace{perRune: 10, advance: 30},
	}
}

func TestLayoutMixedScenario(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "tweetcard.layout")
	defer teardown()

	engine := NewEngine(nil)
	frame := Frame{X: 31, Y: 145, MaxWidth: 940, LineSpacing: 10}
	res := engine.Layout("Hello مرحبا world", stubFonts(), frame)

	if res.FastPath {
		t.Fatalf("1/3 arabic tokens must not take the fast path")
	}
	if len(res.Lines) != 1 {
		t.Fatalf("expected a single line, got %d", len(res.Lines))
	}
	words := res.Lines[0].Words
	if len(words) != 3 {
		t.Fatalf("expected 3 words, got %d", len(words))
	}
	wantScripts := []script.Script{script.Other, script.Arabic, script.Other}
	wantX := []float64{31, 91, 151}
	for i, w := range words {
		if w.Script != wantScripts[i] {
			t.Fatalf("word %d script = %v, want %v", i, w.Script, wantScripts[i])
		}
		if w.X != wantX[i] {
			t.Fatalf("word %d x = %g, want %g", i, w.X, wantX[i])
		}
	}
	if words[1].Display != (reshape.Arabic{}).Shape("مرحبا") {
		t.Fatalf("arabic word was not reshaped: %q", words[1].Display)
	}
	if words[0].Display != "Hello" || words[0].Run != "Hello " {
		t.Fatalf("latin word must be drawn as-is with a trailing space, got %q / %q", words[0].Display, words[0].Run)
	}
	if res.Lines[0].Y != 145 {
		t.Fatalf("first line must start at frame y, got %g", res.Lines[0].Y)
	}
}

func TestLayoutWrapsWhenExceedingWidth(t *testing.T) {
	engine := NewEngine(reshape.Identity)
	frame := Frame{X: 0, Y: 100, MaxWidth: 150, LineSpacing: 10}
	res := engine.Layout("Hello مرحبا world", stubFonts(), frame)

	if len(res.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(res.Lines))
	}
	if got := len(res.Lines[0].Words); got != 2 {
		t.Fatalf("expected 2 words on first line, got %d", got)
	}
	second := res.Lines[1]
	if second.Words[0].Raw != "world" || second.Words[0].X != 0 {
		t.Fatalf("wrapped word must restart at frame x, got %+v", second.Words[0])
	}
	// 第一行含阿拉伯文，行高取两种字体中较大的 40
	if second.Y != 100+40+10 {
		t.Fatalf("second line y = %g, want 150", second.Y)
	}
}

func TestLayoutKeepsTokenOrder(t *testing.T) {
	text := "one اثنان three أربعة five ستة seven ثمانية nine عشرة eleven"
	res := NewEngine(nil).Layout(text, stubFonts(), Frame{MaxWidth: 120})
	var got []string
	for _, w := range res.Words() {
		got = append(got, w.Raw)
	}
	if strings.Join(got, " ") != strings.Join(strings.Fields(text), " ") {
		t.Fatalf("token order changed: %v", got)
	}
}

func TestLayoutLineWidthLimit(t *testing.T) {
	text := "the quick brown fox jumps over the lazy dog مرحبا بكم again and again"
	limit := 100.0
	res := NewEngine(nil).Layout(text, stubFonts(), Frame{MaxWidth: limit})
	if len(res.Lines) < 2 {
		t.Fatalf("expected wrapping, got %d lines", len(res.Lines))
	}
	for i, ln := range res.Lines {
		if len(ln.Words) == 0 {
			t.Fatalf("line %d is empty", i)
		}
		if ln.Width > limit && len(ln.Words) > 1 {
			t.Fatalf("line %d width %g exceeds limit %g with %d words", i, ln.Width, limit, len(ln.Words))
		}
		for j := 1; j < len(ln.Words); j++ {
			prev := ln.Words[j-1]
			if ln.Words[j].X != prev.X+prev.Width {
				t.Fatalf("line %d word %d is not placed right after its predecessor", i, j)
			}
		}
	}
}

func TestLayoutOversizedWordGetsOwnLine(t *testing.T) {
	engine := NewEngine(nil)
	frame := Frame{MaxWidth: 50}

	res := engine.Layout("supercalifragilistic a", stubFonts(), frame)
	if len(res.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(res.Lines))
	}
	if res.Lines[0].Words[0].Raw != "supercalifragilistic" {
		t.Fatalf("oversized first word must open the first line, got %+v", res.Lines[0])
	}

	res = engine.Layout("a supercalifragilistic b", stubFonts(), frame)
	if len(res.Lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(res.Lines))
	}
	if len(res.Lines[1].Words) != 1 {
		t.Fatalf("oversized word must sit alone, got %d words", len(res.Lines[1].Words))
	}
}

func TestLayoutFastPath(t *testing.T) {
	var calls []string
	spy := reshape.Func(func(s string) string {
		calls = append(calls, s)
		return "<" + s + ">"
	})
	engine := NewEngine(spy)
	text := "مرحبا بكم في hello"
	res := engine.Layout(text, stubFonts(), Frame{X: 31, Y: 145, MaxWidth: 10})

	if !res.FastPath {
		t.Fatalf("3/4 arabic tokens must take the fast path")
	}
	if len(res.Lines) != 1 || len(res.Lines[0].Words) != 1 {
		t.Fatalf("fast path must produce one unwrapped run, got %+v", res.Lines)
	}
	if len(calls) != 1 || calls[0] != text {
		t.Fatalf("whole text must be reshaped once, got %q", calls)
	}
	w := res.Lines[0].Words[0]
	if w.Display != "<"+text+">" || w.X != 31 || w.Script != script.Arabic {
		t.Fatalf("unexpected fast path word %+v", w)
	}
}

func TestLayoutFastPathThresholdInclusive(t *testing.T) {
	text := "ا ب ت ث ج ح خ x y z"
	res := NewEngine(reshape.Identity).Layout(text, stubFonts(), Frame{MaxWidth: 50})
	if !res.FastPath {
		t.Fatalf("exactly 70%% arabic tokens must take the fast path")
	}

	engine := &Engine{Reshaper: reshape.Identity, ArabicThreshold: 1.1}
	if res := engine.Layout(text, stubFonts(), Frame{MaxWidth: 50}); res.FastPath {
		t.Fatalf("threshold above 1 must disable the fast path")
	}
}

func TestLayoutFastPathSplitsExplicitNewlines(t *testing.T) {
	res := NewEngine(reshape.Identity).Layout("مرحبا بكم\r\nفي العالم", stubFonts(), Frame{Y: 10, LineSpacing: 5})
	if len(res.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(res.Lines))
	}
	if res.Lines[1].Y != 10+40+5 {
		t.Fatalf("second line y = %g, want 55", res.Lines[1].Y)
	}
}

func TestLayoutEmptyText(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t"} {
		res := NewEngine(nil).Layout(text, stubFonts(), Frame{MaxWidth: 100})
		if len(res.Lines) != 0 {
			t.Fatalf("text %q must produce zero lines, got %d", text, len(res.Lines))
		}
	}
}

func TestLayoutMissingFontsDoesNotPanic(t *testing.T) {
	res := NewEngine(nil).Layout("hello مرحبا", Fonts{}, Frame{MaxWidth: 100})
	if len(res.Lines) != 1 {
		t.Fatalf("expected one zero-width line, got %d", len(res.Lines))
	}
}

func TestWriteDebugJSON(t *testing.T) {
	res := NewEngine(nil).Layout("hello world", stubFonts(), Frame{MaxWidth: 100})
	path := filepath.Join(t.TempDir(), "nested", "layout.json")
	if err := WriteDebugJSON(res, Frame{MaxWidth: 100}, path); err != nil {
		t.Fatalf("WriteDebugJSON: %v", err)
	}
}
