package layout

import "github.com/ByLCY/tweetcard/script"

// Face 是布局所需的字体度量后端，单位为像素。
type Face interface {
	// Measure 返回 s 的前进宽度。
	Measure(s string) float64
	// LineAdvance 返回参考字形 "A" 自上升线起算的包围盒高度，用于推进行距。
	LineAdvance() float64
}

// Fonts 按书写系统提供字体。缺失的一项回退到另一项。
type Fonts struct {
	Arabic Face
	Latin  Face
}

// For 返回 s 对应的字体，两项都缺失时返回零度量字体。
func (f Fonts) For(s script.Script) Face {
	primary, secondary := f.Latin, f.Arabic
	if s == script.Arabic {
		primary, secondary = f.Arabic, f.Latin
	}
	switch {
	case primary != nil:
		return primary
	case secondary != nil:
		return secondary
	default:
		return zeroFace{}
	}
}

// Frame 描述正文区域：起点、最大行宽与行间距。
type Frame struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	MaxWidth    float64 `json:"maxWidth"`    // <= 0 表示不换行
	LineSpacing float64 `json:"lineSpacing"` // 行与行之间的额外间距
}

type zeroFace struct{}

func (zeroFace) Measure(string) float64 { return 0 }
func (zeroFace) LineAdvance() float64   { return 0 }
