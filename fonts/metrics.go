package fonts

import (
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/ByLCY/tweetcard/layout"
)

// Metrics 把 font.Face 适配为布局所需的度量接口。
type Metrics struct {
	Face font.Face
}

var _ layout.Face = Metrics{}

// Measure 返回 s 的前进宽度（像素）。
func (m Metrics) Measure(s string) float64 {
	return toFloat(font.MeasureString(m.Face, s))
}

// LineAdvance 返回从上升线到 "A" 包围盒底部的距离。
func (m Metrics) LineAdvance() float64 {
	bounds, _ := font.BoundString(m.Face, "A")
	return toFloat(m.Face.Metrics().Ascent + bounds.Max.Y)
}

// Ascent 返回字体上升部高度，用于由行顶部求基线。
func (m Metrics) Ascent() float64 {
	return toFloat(m.Face.Metrics().Ascent)
}

func toFloat(v fixed.Int26_6) float64 { return float64(v) / 64 }
