package layout

import (
	"strings"

	"github.com/npillmayer/schuko/tracing"

	"github.com/ByLCY/tweetcard/reshape"
	"github.com/ByLCY/tweetcard/script"
)

// DefaultArabicThreshold 是触发整段快速路径的阿拉伯文 token 占比。
const DefaultArabicThreshold = 0.7

// tracer traces with key 'tweetcard.layout'
func tracer() tracing.Trace {
	return tracing.Select("tweetcard.layout")
}

// Engine 把混合阿拉伯文/拉丁文的正文排成若干行。Engine 无内部状态，可并发使用。
type Engine struct {
	Reshaper reshape.Reshaper
	// ArabicThreshold <= 0 时使用 DefaultArabicThreshold；> 1 时关闭快速路径。
	ArabicThreshold float64
}

// NewEngine 使用给定整形器创建引擎，r 为 nil 时使用 reshape.Arabic。
func NewEngine(r reshape.Reshaper) *Engine {
	return &Engine{Reshaper: r, ArabicThreshold: DefaultArabicThreshold}
}

func (e *Engine) reshaper() reshape.Reshaper {
	if e == nil || e.Reshaper == nil {
		return reshape.Arabic{}
	}
	return e.Reshaper
}

func (e *Engine) threshold() float64 {
	if e == nil || e.ArabicThreshold <= 0 {
		return DefaultArabicThreshold
	}
	return e.ArabicThreshold
}

// Layout 按空白切分 text，并在 frame 内贪心换行。
//
// 阿拉伯文 token 占比达到阈值时走快速路径：整段一次整形，只在显式换行处分行，
// 不按宽度折行。否则逐词分类、整形、选字体并测量 "词+空格" 的宽度；
// 当前行累计宽度加上该词超过 MaxWidth 时换行。超宽的单词独占一行，不会被拆开，
// 也不会产生空行。空文本返回零行。
func (e *Engine) Layout(text string, fonts Fonts, frame Frame) *Result {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return &Result{}
	}
	if share := script.ArabicShare(tokens); share >= e.threshold() {
		tracer().Debugf("arabic share %.2f, laying out whole text", share)
		return e.layoutWhole(text, fonts, frame)
	}
	return e.layoutWords(tokens, fonts, frame)
}

func (e *Engine) layoutWhole(text string, fonts Fonts, frame Frame) *Result {
	face := fonts.For(script.Arabic)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	res := &Result{FastPath: true}
	y := frame.Y
	for _, para := range strings.Split(text, "\n") {
		ln := Line{Y: y}
		if strings.TrimSpace(para) != "" {
			display := e.reshaper().Shape(para)
			w := face.Measure(display)
			ln.Width = w
			ln.Words = []Word{{
				Raw:     para,
				Display: display,
				Run:     display,
				Script:  script.Arabic,
				X:       frame.X,
				Width:   w,
			}}
		}
		res.Lines = append(res.Lines, ln)
		y += face.LineAdvance() + frame.LineSpacing
	}
	return res
}

func (e *Engine) layoutWords(tokens []string, fonts Fonts, frame Frame) *Result {
	res := &Result{}
	current := Line{Y: frame.Y}
	acc := 0.0
	for _, tok := range tokens {
		sc := script.Classify(tok)
		display := tok
		if sc == script.Arabic {
			display = e.reshaper().Shape(tok)
		}
		run := display + " "
		w := fonts.For(sc).Measure(run)

		if frame.MaxWidth > 0 && acc+w > frame.MaxWidth && len(current.Words) > 0 {
			res.Lines = append(res.Lines, current)
			current = Line{Y: current.Y + lineAdvance(current, fonts) + frame.LineSpacing}
			acc = 0
		}
		current.Words = append(current.Words, Word{
			Raw:     tok,
			Display: display,
			Run:     run,
			Script:  sc,
			X:       frame.X + acc,
			Width:   w,
		})
		acc += w
		current.Width = acc
	}
	res.Lines = append(res.Lines, current)
	tracer().Debugf("laid out %d tokens into %d lines", len(tokens), len(res.Lines))
	return res
}

// lineAdvance 取行内各词所用字体中最大的行高，混排时不会与下一行重叠。
func lineAdvance(ln Line, fonts Fonts) float64 {
	adv := 0.0
	for _, w := range ln.Words {
		if a := fonts.For(w.Script).LineAdvance(); a > adv {
			adv = a
		}
	}
	return adv
}
