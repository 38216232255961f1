package layout

import "github.com/ByLCY/tweetcard/script"

// 该文件定义布局结果，供渲染与调试 JSON 共用。坐标单位均为像素，原点在画布左上角。

// Result 保存一次正文布局的全部行。
type Result struct {
	Lines []Line `json:"lines"`
	// FastPath 为 true 时整段文本按阿拉伯文一次性整形，不做换行。
	FastPath bool `json:"fastPath"`
}

// Line 是一行已定位的词。Y 为行顶部（字体上升线）的位置。
type Line struct {
	Y     float64 `json:"y"`
	Width float64 `json:"width"`
	Words []Word  `json:"words"`
}

// Word 是布局的最小单位，创建后不再修改。
type Word struct {
	Raw     string        `json:"raw"`     // 原始 token（逻辑顺序）
	Display string        `json:"display"` // 整形后的可绘制文本
	Run     string        `json:"run"`     // 实际绘制与测量的文本，含尾随空格
	Script  script.Script `json:"script"`
	X       float64       `json:"x"`
	Width   float64       `json:"width"`
}

// Words 按行序返回全部词，便于检查顺序。
func (r *Result) Words() []Word {
	if r == nil {
		return nil
	}
	var out []Word
	for _, ln := range r.Lines {
		out = append(out, ln.Words...)
	}
	return out
}
