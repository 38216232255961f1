package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/npillmayer/schuko/tracing/trace2go"
	"github.com/pterm/pterm"

	"github.com/ByLCY/tweetcard/asset"
	"github.com/ByLCY/tweetcard/card"
	"github.com/ByLCY/tweetcard/layout"
	canvasrenderer "github.com/ByLCY/tweetcard/renderer/canvas"
	"github.com/ByLCY/tweetcard/server"
	"github.com/ByLCY/tweetcard/service"
	"github.com/ByLCY/tweetcard/storage"
)

// tracer traces with key 'tweetcard.main'
func tracer() tracing.Trace {
	return tracing.Select("tweetcard.main")
}

var traceKeys = []string{
	"tweetcard.main",
	"tweetcard.render",
	"tweetcard.layout",
	"tweetcard.fonts",
	"tweetcard.asset",
	"tweetcard.storage",
	"tweetcard.service",
	"tweetcard.server",
}

func main() {
	initDisplay()

	addr := flag.String("addr", ":5000", "HTTP 监听地址")
	tplPath := flag.String("template", "", "卡片模板 DSL 文件（默认使用内置模板）")
	baseDir := flag.String("base-dir", ".", "字体文件相对路径的根目录")
	outDir := flag.String("out-dir", "tweet_images", "生成图片的保存目录")
	fetchTimeout := flag.Duration("fetch-timeout", asset.DefaultTimeout, "头像与附件抓取超时")
	tlevel := flag.String("trace", "Info", "Trace level [Debug|Info|Error]")
	renderTo := flag.String("render", "", "只渲染一张卡片到该 PNG 路径，不启动服务")
	username := flag.String("username", card.DefaultUsername, "显示名（-render）")
	handle := flag.String("handle", card.DefaultHandle, "用户 handle（-render）")
	text := flag.String("text", card.DefaultText, "推文正文（-render）")
	profile := flag.String("profile", "", "头像 URL（-render）")
	attachment := flag.String("attachment", "", "附件图片 URL（-render）")
	debug := flag.String("debug", "", "正文布局调试 JSON 输出路径（-render）")
	flag.Parse()

	if err := setupTracing(*tlevel); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}

	r, err := newRenderer(*tplPath, *baseDir, *fetchTimeout)
	if err != nil {
		pterm.Error.Printf("初始化渲染器失败: %v\n", err)
		os.Exit(2)
	}

	if *renderTo != "" {
		req := card.Request{
			Username:      *username,
			Handle:        *handle,
			Text:          *text,
			ProfileURL:    *profile,
			AttachmentURL: *attachment,
		}
		if err := renderOnce(r, req, *renderTo, *debug); err != nil {
			pterm.Error.Printf("生成卡片失败: %v\n", err)
			os.Exit(3)
		}
		pterm.Success.Printf("已生成卡片：%s\n", *renderTo)
		return
	}

	if err := serve(r, *addr, *outDir); err != nil {
		pterm.Error.Printf("服务退出: %v\n", err)
		os.Exit(4)
	}
}

// We use pterm for moderately fancy output.
func initDisplay() {
	pterm.Info.Prefix = pterm.Prefix{
		Text:  " !  ",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  " Error",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
}

func setupTracing(level string) error {
	tracing.RegisterTraceAdapter("go", gologadapter.GetAdapter(), false)
	conf := testconfig.Conf{
		"tracing.adapter": "go",
	}
	for _, key := range traceKeys {
		conf["trace."+key] = "Error"
	}
	if err := trace2go.ConfigureRoot(conf, "trace", trace2go.ReplaceTracers(true)); err != nil {
		return fmt.Errorf("配置 tracing 失败: %w", err)
	}
	tracing.SetTraceSelector(trace2go.Selector())

	var lvl tracing.TraceLevel
	switch level {
	case "Debug":
		lvl = tracing.LevelDebug
	case "Info":
		lvl = tracing.LevelInfo
	case "Error":
		lvl = tracing.LevelError
	default:
		return fmt.Errorf("无效的 trace 级别: %s", level)
	}
	for _, key := range traceKeys {
		tracing.Select(key).SetTraceLevel(lvl)
	}
	tracer().Infof("Trace level is %s", level)
	return nil
}

// newRenderer 加载模板并预解析字体。字体失败只记录，服务照常启动，
// 每个请求会得到服务端错误直到字体可用。
func newRenderer(tplPath, baseDir string, fetchTimeout time.Duration) (*canvasrenderer.Renderer, error) {
	var (
		tpl *card.Template
		err error
	)
	if tplPath == "" {
		tpl, err = card.Default()
	} else {
		tpl, err = card.ParseFile(tplPath)
	}
	if err != nil {
		return nil, err
	}
	r, err := canvasrenderer.NewRenderer(canvasrenderer.Options{
		Template: tpl,
		BaseDir:  baseDir,
		Fetcher:  asset.NewHTTPFetcher(fetchTimeout),
	})
	if err != nil {
		return nil, err
	}
	if err := r.Preload(); err != nil {
		pterm.Warning.Printf("字体尚不可用: %v\n", err)
	} else {
		pterm.Info.Printf("模板 %s %s 已加载，字体 %d 个\n", tpl.ID, tpl.Version, len(tpl.Fonts))
	}
	return r, nil
}

// renderOnce 渲染一张卡片并写入文件，可选输出正文布局调试 JSON。
func renderOnce(r *canvasrenderer.Renderer, req card.Request, outputPath, debugPath string) error {
	out, err := r.Compose(context.Background(), req)
	if err != nil {
		return err
	}
	if debugPath != "" {
		if err := layout.WriteDebugJSON(out.Body, out.Frame, debugPath); err != nil {
			return fmt.Errorf("输出调试 JSON 失败: %w", err)
		}
	}
	if dir := filepath.Dir(outputPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("创建输出目录失败: %w", err)
		}
	}
	data, err := out.PNG()
	if err != nil {
		return err
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return fmt.Errorf("写入 PNG 文件失败: %w", err)
	}
	return nil
}

func serve(r *canvasrenderer.Renderer, addr, outDir string) error {
	store, err := storage.NewDisk(outDir)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           server.New(service.New(r, store)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	pterm.Info.Printf("监听 %s，图片保存在 %s\n", addr, store.Dir())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
