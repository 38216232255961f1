package renderer

import (
	"context"

	"github.com/ByLCY/tweetcard/card"
)

// Renderer 将一次卡片请求渲染为最终图像，例如 PNG。
// Render 返回编码后的二进制数据以及可能的错误。
type Renderer interface {
	Render(ctx context.Context, req card.Request) ([]byte, error)
}
