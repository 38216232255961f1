// Package asset 拉取头像与附件等远程图片。任何失败都折叠为 *FetchError，
// 由调用方记录日志后降级处理。
package asset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"time"

	"github.com/npillmayer/schuko/tracing"
	_ "golang.org/x/image/webp"
)

const (
	// DefaultTimeout 是单次拉取（含读取响应体）的上限。
	DefaultTimeout = 5 * time.Second
	// DefaultMaxBytes 是响应体大小上限。
	DefaultMaxBytes = 10 << 20
	// maxPixels 限制解码后的像素数量，避免超大图片占满内存。
	maxPixels = 40_000_000
)

// ErrFetch 匹配所有拉取失败。
var ErrFetch = errors.New("asset fetch failure")

// tracer traces with key 'tweetcard.asset'
func tracer() tracing.Trace {
	return tracing.Select("tweetcard.asset")
}

// Fetcher 拉取并解码一张图片。实现必须可被并发调用。
type Fetcher interface {
	Fetch(ctx context.Context, url string) (image.Image, error)
}

// FetchError 描述一次失败的拉取，errors.Is(err, ErrFetch) 为 true。
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("拉取图片 %s 失败: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is 让所有 FetchError 都匹配 ErrFetch。
func (e *FetchError) Is(target error) bool { return target == ErrFetch }

// HTTPFetcher 通过 HTTP(S) 拉取图片，支持 png/jpeg/gif/webp。
type HTTPFetcher struct {
	Client   *http.Client
	Timeout  time.Duration
	MaxBytes int64
}

var _ Fetcher = (*HTTPFetcher)(nil)

// NewHTTPFetcher 创建带超时的拉取器，timeout <= 0 时使用 DefaultTimeout。
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPFetcher{
		Client:   &http.Client{Timeout: timeout},
		Timeout:  timeout,
		MaxBytes: DefaultMaxBytes,
	}
}

// Fetch 拉取 url 并解码。非 200 响应、超时、超限与解码失败都返回 *FetchError。
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (image.Image, error) {
	img, err := f.fetch(ctx, url)
	if err != nil {
		tracer().Infof("fetch %s failed: %v", url, err)
		return nil, &FetchError{URL: url, Err: err}
	}
	return img, nil
}

func (f *HTTPFetcher) fetch(ctx context.Context, url string) (image.Image, error) {
	if url == "" {
		return nil, errors.New("URL 为空")
	}
	timeout := f.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("响应状态 %s", resp.Status)
	}

	limit := f.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("响应体超过 %d 字节", limit)
	}
	return Decode(data)
}

// Decode 解码图片字节，先检查尺寸再完整解码。
func Decode(data []byte) (image.Image, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("无法识别的图片: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > maxPixels {
		return nil, fmt.Errorf("图片尺寸 %dx%d 不受支持", cfg.Width, cfg.Height)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("解码图片失败: %w", err)
	}
	return img, nil
}
