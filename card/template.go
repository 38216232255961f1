// Package card 描述推文卡片模板：画布尺寸、各元素位置、颜色与字体。
// 模板以 DSL 书写，默认模板内嵌在 default.card 中。
package card

import (
	"image/color"
)

// FontRef 引用 fonts 段中声明的字体及其像素字号。
type FontRef struct {
	Name string  `json:"name"`
	Size float64 `json:"size"`
}

// IsZero reports whether no font is referenced.
func (f FontRef) IsZero() bool { return f.Name == "" }

// Canvas 是基础画布。附件请求会在 Height 之上追加附件区域。
type Canvas struct {
	Width      int         `json:"width"`
	Height     int         `json:"height"`
	Background color.NRGBA `json:"background"`
}

// Avatar 是圆形头像区域，Size 为直径。
type Avatar struct {
	X           float64     `json:"x"`
	Y           float64     `json:"y"`
	Size        float64     `json:"size"`
	Placeholder color.NRGBA `json:"placeholder"`
}

// Text 是单行文本元素（作者名、handle、时间戳）。
type Text struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	// Bottom > 0 时按最终画布高度自底部定位：y = height - Bottom。
	Bottom float64 `json:"bottom"`
	Font   FontRef `json:"font"`
	// Arabic 非空时按书写系统切换字体，并对阿拉伯文做整形。
	Arabic FontRef     `json:"arabic"`
	Color  color.NRGBA `json:"color"`
	// Content 含 ${field} 占位符。
	Content string `json:"content"`
	// Format 是时间字段 now 使用的 Go 时间格式。
	Format string `json:"format,omitempty"`
}

// ResolveY 返回在给定画布高度下的 y 坐标。
func (t Text) ResolveY(canvasHeight int) float64 {
	if t.Bottom > 0 {
		return float64(canvasHeight) - t.Bottom
	}
	return t.Y
}

// Body 是正文区域，交给布局引擎排版。
type Body struct {
	X       float64     `json:"x"`
	Y       float64     `json:"y"`
	Width   float64     `json:"width"`
	Spacing float64     `json:"spacing"`
	Font    FontRef     `json:"font"`
	Arabic  FontRef     `json:"arabic"`
	Color   color.NRGBA `json:"color"`
	Content string      `json:"content"`
}

// Attachment 是附件图片的放置框。请求附件时画布增高 Height + Padding。
type Attachment struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Padding float64 `json:"padding"`
	Radius  float64 `json:"radius"`
}

// Reserve 返回请求附件时画布需要追加的高度。
func (a Attachment) Reserve() int {
	return int(a.Height + a.Padding)
}

// Template 是解析完成的卡片模板，创建后只读，可被并发渲染共享。
type Template struct {
	ID      string  `json:"id"`
	Version string  `json:"version"`
	Title   string  `json:"title"`
	DPI     float64 `json:"dpi"`
	// ArabicThreshold 是正文整段整形的阿拉伯文 token 占比阈值。
	ArabicThreshold float64 `json:"arabicThreshold"`
	// Fonts 为 name → src。
	Fonts map[string]string `json:"fonts"`

	Canvas     Canvas     `json:"canvas"`
	Avatar     Avatar     `json:"avatar"`
	Author     Text       `json:"author"`
	Handle     Text       `json:"handle"`
	Body       Body       `json:"body"`
	Attachment Attachment `json:"attachment"`
	Timestamp  Text       `json:"timestamp"`
}

// Height 返回一次渲染的最终画布高度，只取决于是否请求了附件。
func (t *Template) Height(attachmentRequested bool) int {
	h := t.Canvas.Height
	if attachmentRequested {
		h += t.Attachment.Reserve()
	}
	return h
}

// FontSizes 列出模板用到的全部 (字体, 字号) 组合。
func (t *Template) FontSizes() []FontRef {
	var out []FontRef
	seen := map[FontRef]bool{}
	for _, ref := range []FontRef{
		t.Author.Font, t.Author.Arabic,
		t.Handle.Font, t.Handle.Arabic,
		t.Body.Font, t.Body.Arabic,
		t.Timestamp.Font, t.Timestamp.Arabic,
	} {
		if ref.IsZero() || seen[ref] {
			continue
		}
		seen[ref] = true
		out = append(out, ref)
	}
	return out
}
