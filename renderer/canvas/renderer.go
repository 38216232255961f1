package canvasrenderer

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"sync"
	"time"

	"github.com/fogleman/gg"
	"github.com/npillmayer/schuko/tracing"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/ByLCY/tweetcard/asset"
	"github.com/ByLCY/tweetcard/binding"
	"github.com/ByLCY/tweetcard/card"
	"github.com/ByLCY/tweetcard/fonts"
	"github.com/ByLCY/tweetcard/layout"
	"github.com/ByLCY/tweetcard/renderer"
	"github.com/ByLCY/tweetcard/reshape"
	"github.com/ByLCY/tweetcard/script"
)

// tracer traces with key 'tweetcard.render'
func tracer() tracing.Trace {
	return tracing.Select("tweetcard.render")
}

// Renderer draws tweet cards: the scene (background, avatar placeholder) via
// github.com/tdewolff/canvas, images and glyphs composited on the raster.
type Renderer struct {
	tpl      *card.Template
	baseDir  string
	fetcher  asset.Fetcher
	reshaper reshape.Reshaper
	now      func() time.Time

	fontMu sync.Mutex
	fonts  *fonts.Set
}

var _ renderer.Renderer = (*Renderer)(nil)

// Options configures the card renderer. Zero values fall back to defaults.
type Options struct {
	Template *card.Template   // nil 时使用内置默认模板
	BaseDir  string           // 相对字体路径的根目录
	Fetcher  asset.Fetcher    // nil 时使用 HTTP 抓取
	Reshaper reshape.Reshaper // nil 时使用阿拉伯文整形
	Now      func() time.Time
}

// Output 是一次合成的结果，Body 供调试输出使用。
type Output struct {
	Image *image.RGBA
	Body  *layout.Result
	Frame layout.Frame
}

// NewRenderer creates a renderer for the given options.
func NewRenderer(opts Options) (*Renderer, error) {
	tpl := opts.Template
	if tpl == nil {
		var err error
		if tpl, err = card.Default(); err != nil {
			return nil, fmt.Errorf("加载默认模板失败: %w", err)
		}
	}
	r := &Renderer{
		tpl:      tpl,
		baseDir:  opts.BaseDir,
		fetcher:  opts.Fetcher,
		reshaper: opts.Reshaper,
		now:      opts.Now,
	}
	if r.fetcher == nil {
		r.fetcher = asset.NewHTTPFetcher(asset.DefaultTimeout)
	}
	if r.reshaper == nil {
		r.reshaper = reshape.Arabic{}
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r, nil
}

// Template returns the template the renderer draws.
func (r *Renderer) Template() *card.Template { return r.tpl }

// Preload 提前解析模板字体。失败不会被缓存，下一次渲染会重试。
func (r *Renderer) Preload() error {
	_, err := r.fontSet()
	return err
}

// Render renders the request into PNG bytes.
func (r *Renderer) Render(ctx context.Context, req card.Request) ([]byte, error) {
	out, err := r.Compose(ctx, req)
	if err != nil {
		return nil, err
	}
	return out.PNG()
}

// PNG 把合成结果编码为 PNG。
func (o *Output) PNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, o.Image); err != nil {
		return nil, fmt.Errorf("编码 PNG 失败: %w", err)
	}
	return buf.Bytes(), nil
}

// Compose 绘制整张卡片。字体失败时直接返回错误，不产生任何画布；
// 头像与附件抓取失败只会降级（占位圆 / 留空）。
func (r *Renderer) Compose(ctx context.Context, req card.Request) (*Output, error) {
	set, err := r.fontSet()
	if err != nil {
		return nil, err
	}
	faces, err := openFaces(set, r.tpl.FontSizes())
	if err != nil {
		return nil, err
	}
	defer faces.close()

	assets := r.fetchAssets(ctx, req)

	tpl := r.tpl
	width, height := tpl.Canvas.Width, tpl.Height(req.AttachmentRequested())
	dst := r.drawScene(width, height, assets.avatar == nil)
	if assets.avatar != nil {
		pasteAvatar(dst, assets.avatar, tpl.Avatar)
	}

	values := req.Values(r.now(), tpl.Timestamp.Format)
	r.drawText(dst, tpl.Author, faces, values, height)
	r.drawText(dst, tpl.Handle, faces, values, height)
	body, frame := r.drawBody(dst, faces, values)
	// 附件盖在正文之上，溢出的正文不会画进附件区域
	if assets.attachment != nil {
		pasteAttachment(dst, assets.attachment, tpl.Attachment)
	}
	r.drawText(dst, tpl.Timestamp, faces, values, height)

	tracer().Debugf("card %dx%d composed, %d body lines", width, height, len(body.Lines))
	return &Output{Image: dst, Body: body, Frame: frame}, nil
}

func (r *Renderer) fontSet() (*fonts.Set, error) {
	r.fontMu.Lock()
	defer r.fontMu.Unlock()
	if r.fonts != nil {
		return r.fonts, nil
	}
	set, err := fonts.Load(r.tpl.Fonts, r.baseDir)
	if err != nil {
		tracer().Errorf("font load: %v", err)
		return nil, err
	}
	r.fonts = set
	return set, nil
}

type assets struct {
	avatar     image.Image
	attachment image.Image
}

// fetchAssets 并发抓取头像与附件，二者都完成后返回。
func (r *Renderer) fetchAssets(ctx context.Context, req card.Request) assets {
	var (
		out assets
		wg  sync.WaitGroup
	)
	get := func(url, what string, dst *image.Image) {
		if url == "" {
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			img, err := r.fetcher.Fetch(ctx, url)
			if err != nil {
				tracer().Infof("%s unavailable: %v", what, err)
				return
			}
			*dst = img
		}()
	}
	get(req.ProfileURL, "avatar", &out.avatar)
	get(req.AttachmentURL, "attachment", &out.attachment)
	wg.Wait()
	return out
}

// drawScene 用 canvas 绘制背景与（需要时）头像占位圆，并栅格化为 1px = 1 单位。
func (r *Renderer) drawScene(width, height int, placeholder bool) *image.RGBA {
	c := canvas.New(float64(width), float64(height))
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与模板保持左上角为原点
	ctx.SetStrokeColor(color.RGBA{0, 0, 0, 0})

	ctx.SetFillColor(r.tpl.Canvas.Background)
	ctx.DrawPath(0, 0, canvas.Rectangle(float64(width), float64(height)))

	if placeholder {
		av := r.tpl.Avatar
		radius := av.Size / 2
		ctx.SetFillColor(av.Placeholder)
		ctx.DrawPath(av.X+radius, av.Y+radius, canvas.Circle(radius))
	}
	return rasterizer.Draw(c, canvas.DPMM(1), canvas.DefaultColorSpace)
}

// pasteAvatar 拉伸缩放到直径大小的正方形，按圆形蒙版贴到画布。
func pasteAvatar(dst draw.Image, src image.Image, av card.Avatar) {
	size := int(math.Round(av.Size))
	if size <= 0 {
		return
	}
	scaled := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), src, src.Bounds(), draw.Src, nil)

	mc := gg.NewContext(size, size)
	mc.DrawCircle(float64(size)/2, float64(size)/2, float64(size)/2)
	mc.Fill()

	at := image.Pt(int(math.Round(av.X)), int(math.Round(av.Y)))
	draw.DrawMask(dst, scaled.Bounds().Add(at), scaled, image.Point{}, mc.AsMask(), image.Point{}, draw.Over)
}

// pasteAttachment 等比缩小到放置框内（从不放大），按圆角蒙版贴到框的左上角。
func pasteAttachment(dst draw.Image, src image.Image, box card.Attachment) {
	w, h := thumbnailSize(src.Bounds().Dx(), src.Bounds().Dy(), box.Width, box.Height)
	if w <= 0 || h <= 0 {
		return
	}
	scaled := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), src, src.Bounds(), draw.Src, nil)

	mc := gg.NewContext(w, h)
	mc.DrawRoundedRectangle(0, 0, float64(w), float64(h), box.Radius)
	mc.Fill()

	at := image.Pt(int(math.Round(box.X)), int(math.Round(box.Y)))
	draw.DrawMask(dst, scaled.Bounds().Add(at), scaled, image.Point{}, mc.AsMask(), image.Point{}, draw.Over)
}

// thumbnailSize 返回放入 maxW×maxH 的尺寸，保持宽高比且不放大。
func thumbnailSize(w, h int, maxW, maxH float64) (int, int) {
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	scale := math.Min(1, math.Min(maxW/float64(w), maxH/float64(h)))
	if scale >= 1 {
		return w, h
	}
	return max(1, int(math.Round(float64(w)*scale))), max(1, int(math.Round(float64(h)*scale)))
}

// drawText 绘制单行文本元素。配置了阿拉伯字体且内容含阿拉伯文时切换字体并整形。
func (r *Renderer) drawText(dst draw.Image, el card.Text, faces faceSet, values map[string]any, height int) {
	if el.Font.IsZero() || el.Content == "" {
		return
	}
	text := binding.Interpolate(el.Content, values)
	if text == "" {
		return
	}
	face := faces[el.Font]
	if !el.Arabic.IsZero() && script.Classify(text) == script.Arabic {
		face = faces[el.Arabic]
		text = r.reshaper.Shape(text)
	}
	drawString(dst, face, el.Color, el.X, el.ResolveY(height), text)
}

// drawBody 交给布局引擎排版正文，再逐词绘制；每个词以行顶部加自身字体上升部为基线。
func (r *Renderer) drawBody(dst draw.Image, faces faceSet, values map[string]any) (*layout.Result, layout.Frame) {
	b := r.tpl.Body
	frame := layout.Frame{X: b.X, Y: b.Y, MaxWidth: b.Width, LineSpacing: b.Spacing}
	latin, arabic := faces[b.Font], faces[b.Arabic]
	lf := layout.Fonts{}
	if latin != nil {
		lf.Latin = fonts.Metrics{Face: latin}
	}
	if arabic != nil {
		lf.Arabic = fonts.Metrics{Face: arabic}
	}

	engine := &layout.Engine{Reshaper: r.reshaper, ArabicThreshold: r.tpl.ArabicThreshold}
	res := engine.Layout(binding.Interpolate(b.Content, values), lf, frame)
	for _, ln := range res.Lines {
		for _, w := range ln.Words {
			face := latin
			if (w.Script == script.Arabic && arabic != nil) || face == nil {
				face = arabic
			}
			drawString(dst, face, b.Color, w.X, ln.Y, w.Run)
		}
	}
	return res, frame
}

// drawString 以 top 为行顶部绘制一段已是视觉顺序的文本。
func drawString(dst draw.Image, face font.Face, c color.NRGBA, x, top float64, s string) {
	if face == nil || s == "" {
		return
	}
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.Int26_6(math.Round(x * 64)),
			Y: fixed.Int26_6(math.Round(top*64)) + face.Metrics().Ascent,
		},
	}
	d.DrawString(s)
}

// faceSet 是一次渲染独占的字体面，按 (字体, 字号) 索引。
type faceSet map[card.FontRef]font.Face

func openFaces(set *fonts.Set, refs []card.FontRef) (faceSet, error) {
	faces := make(faceSet, len(refs))
	for _, ref := range refs {
		face, err := set.Face(ref.Name, ref.Size)
		if err != nil {
			faces.close()
			return nil, err
		}
		faces[ref] = face
	}
	return faces, nil
}

func (fs faceSet) close() {
	for _, f := range fs {
		f.Close()
	}
}
