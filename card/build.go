package card

import (
	"bytes"
	_ "embed"
	"fmt"
	"image/color"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/ByLCY/tweetcard/binding"
	"github.com/ByLCY/tweetcard/dsl"
)

//go:embed default.card
var defaultCard []byte

// DefaultTimeFormat 是时间戳的默认格式（YYYY-MM-DD HH:MM）。
const DefaultTimeFormat = "2006-01-02 15:04"

// Default 解析内嵌的默认模板。
func Default() (*Template, error) {
	return Parse(bytes.NewReader(defaultCard))
}

// ParseFile 从文件读取模板。
func ParseFile(path string) (*Template, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("无法打开模板文件 %s: %w", path, err)
	}
	defer file.Close()
	return Parse(file)
}

// Parse 解析模板 DSL 并构建 Template。
func Parse(r io.Reader) (*Template, error) {
	doc, err := dsl.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("解析模板失败: %w", err)
	}
	return FromDocument(doc)
}

// FromDocument 把 DSL 文档转换为 Template，并校验字体引用与占位符字段。
func FromDocument(doc *dsl.Document) (*Template, error) {
	if doc == nil {
		return nil, fmt.Errorf("模板为空")
	}
	t := &Template{
		ID:      doc.Name,
		Version: doc.Version,
		DPI:     DefaultDPI,
		Fonts:   map[string]string{},
	}
	if err := collectMeta(doc, t); err != nil {
		return nil, err
	}
	if err := collectFonts(doc, t); err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	for _, section := range doc.Sections {
		cmd := section.Element
		if cmd == nil {
			continue
		}
		if seen[cmd.Name] {
			return nil, fmt.Errorf("%s: 元素 %s 重复定义", cmd.Pos, cmd.Name)
		}
		seen[cmd.Name] = true
		if err := buildElement(cmd, t); err != nil {
			return nil, err
		}
	}
	for _, required := range []string{"canvas", "body"} {
		if !seen[required] {
			return nil, fmt.Errorf("模板缺少 %s 元素", required)
		}
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func collectMeta(doc *dsl.Document, t *Template) error {
	for _, section := range doc.Sections {
		if section.Meta == nil {
			continue
		}
		for key, val := range section.Meta.Block.Assignments() {
			switch strings.ToLower(key) {
			case "title":
				t.Title = val.Raw()
			case "dpi":
				dpi, err := strconv.ParseFloat(val.Raw(), 64)
				if err != nil || dpi <= 0 {
					return fmt.Errorf("meta dpi 无效: %q", val.Raw())
				}
				t.DPI = dpi
			case "arabic-threshold":
				th, err := strconv.ParseFloat(val.Raw(), 64)
				if err != nil || th < 0 {
					return fmt.Errorf("meta arabic-threshold 无效: %q", val.Raw())
				}
				t.ArabicThreshold = th
			}
		}
	}
	return nil
}

func collectFonts(doc *dsl.Document, t *Template) error {
	for _, section := range doc.Sections {
		if section.Fonts == nil {
			continue
		}
		for _, cmd := range section.Fonts.Block.Commands() {
			if cmd.Name != "font" || len(cmd.Args) == 0 {
				return fmt.Errorf("%s: fonts 段只允许 font <name> { src: ... }", cmd.Pos)
			}
			name := cmd.Args[0].Value
			src := cmd.Block.Assignments()["src"].Raw()
			if src == "" {
				return fmt.Errorf("%s: 字体 %s 缺少 src", cmd.Pos, name)
			}
			t.Fonts[name] = src
		}
	}
	return nil
}

func buildElement(cmd *dsl.Command, t *Template) error {
	raw, err := cmd.Params()
	if err != nil {
		return err
	}
	p := &params{cmd: cmd, raw: raw, dpi: t.DPI, used: map[string]bool{}}
	switch cmd.Name {
	case "canvas":
		t.Canvas = Canvas{
			Width:      int(p.length("width", 0)),
			Height:     int(p.length("height", 0)),
			Background: p.color("background", color.NRGBA{A: 255}),
		}
	case "avatar":
		t.Avatar = Avatar{
			X:           p.length("x", 0),
			Y:           p.length("y", 0),
			Size:        p.length("size", 80),
			Placeholder: p.color("placeholder", color.NRGBA{R: 100, G: 100, B: 100, A: 255}),
		}
	case "name":
		t.Author = p.text("${username}")
	case "handle":
		t.Handle = p.text("@${handle}")
	case "timestamp":
		t.Timestamp = p.text("${now}")
		t.Timestamp.Format = p.str("format", DefaultTimeFormat)
	case "body":
		text := p.text("${tweet_text}")
		t.Body = Body{
			X:       text.X,
			Y:       text.Y,
			Width:   p.length("width", 0),
			Spacing: p.length("spacing", 0),
			Font:    text.Font,
			Arabic:  text.Arabic,
			Color:   text.Color,
			Content: text.Content,
		}
	case "attachment":
		t.Attachment = Attachment{
			X:       p.length("x", 0),
			Y:       p.length("y", 0),
			Width:   p.length("width", 0),
			Height:  p.length("height", 0),
			Padding: p.length("padding", 0),
			Radius:  p.length("radius", 0),
		}
	default:
		return fmt.Errorf("%s: 未知元素 %s", cmd.Pos, cmd.Name)
	}
	return p.finish()
}

// params 读取命令参数，记录第一个错误与未使用的键。
type params struct {
	cmd  *dsl.Command
	raw  map[string]dsl.Lexeme
	dpi  float64
	used map[string]bool
	err  error
}

func (p *params) lookup(key string) (dsl.Lexeme, bool) {
	lx, ok := p.raw[key]
	if ok {
		p.used[key] = true
	}
	return lx, ok
}

func (p *params) fail(key string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("%s: %s 参数 %s: %w", p.cmd.Pos, p.cmd.Name, key, err)
	}
}

func (p *params) length(key string, def float64) float64 {
	lx, ok := p.lookup(key)
	if !ok {
		return def
	}
	l, err := ParseLength(lx.Value)
	if err != nil {
		p.fail(key, err)
		return def
	}
	return l.Pixels(p.dpi)
}

func (p *params) color(key string, def color.NRGBA) color.NRGBA {
	lx, ok := p.lookup(key)
	if !ok {
		return def
	}
	c, err := ParseColor(lx.Value)
	if err != nil {
		p.fail(key, err)
		return def
	}
	return c
}

func (p *params) str(key, def string) string {
	if lx, ok := p.lookup(key); ok {
		return lx.Value
	}
	return def
}

func (p *params) font(nameKey, sizeKey string) FontRef {
	ref := FontRef{Name: p.str(nameKey, "")}
	ref.Size = p.length(sizeKey, 0)
	if ref.Name != "" && ref.Size <= 0 {
		p.fail(sizeKey, fmt.Errorf("字体 %s 需要正的字号", ref.Name))
	}
	return ref
}

func (p *params) text(content string) Text {
	if s, ok := p.cmd.Text(); ok {
		content = s
	}
	return Text{
		X:       p.length("x", 0),
		Y:       p.length("y", 0),
		Bottom:  p.length("bottom", 0),
		Font:    p.font("font", "size"),
		Arabic:  p.font("arabic-font", "arabic-size"),
		Color:   p.color("color", color.NRGBA{R: 255, G: 255, B: 255, A: 255}),
		Content: content,
	}
}

func (p *params) finish() error {
	if p.err != nil {
		return p.err
	}
	var unknown []string
	for key := range p.raw {
		if !p.used[key] {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("%s: %s 不支持参数 %s", p.cmd.Pos, p.cmd.Name, strings.Join(unknown, ", "))
	}
	return nil
}

// knownFields 是文本占位符可以引用的字段。
var knownFields = map[string]bool{
	"username":           true,
	"handle":             true,
	"tweet_text":         true,
	"profile_url":        true,
	"attached_image_url": true,
	"now":                true,
}

func (t *Template) validate() error {
	if t.Canvas.Width <= 0 || t.Canvas.Height <= 0 {
		return fmt.Errorf("画布尺寸无效: %dx%d", t.Canvas.Width, t.Canvas.Height)
	}
	if t.Body.Font.IsZero() {
		return fmt.Errorf("body 缺少 font")
	}
	for _, ref := range t.FontSizes() {
		if _, ok := t.Fonts[ref.Name]; !ok {
			return fmt.Errorf("引用了未声明的字体 %s", ref.Name)
		}
	}
	for _, content := range []string{t.Author.Content, t.Handle.Content, t.Body.Content, t.Timestamp.Content} {
		for _, field := range binding.Fields(content) {
			if !knownFields[field] {
				return fmt.Errorf("文本引用了未知字段 %s", field)
			}
		}
	}
	return nil
}
