package card

import "time"

// 请求字段缺失时使用的默认值。
const (
	DefaultUsername = "User"
	DefaultHandle   = "handle"
	DefaultText     = "تغريدة تجريبية."
)

// Request 是一次卡片渲染的输入。URL 为空表示未提供。
type Request struct {
	Username      string `json:"username"`
	Handle        string `json:"handle"`
	Text          string `json:"tweet_text"`
	ProfileURL    string `json:"profile_url"`
	AttachmentURL string `json:"attached_image_url"`
}

// AttachmentRequested reports whether the caller asked for an attached image,
// independent of whether it can be fetched.
func (r Request) AttachmentRequested() bool { return r.AttachmentURL != "" }

// Values 返回模板占位符可用的字段，now 按 format 格式化。
func (r Request) Values(now time.Time, format string) map[string]any {
	if format == "" {
		format = DefaultTimeFormat
	}
	return map[string]any{
		"username":           r.Username,
		"handle":             r.Handle,
		"tweet_text":         r.Text,
		"profile_url":        r.ProfileURL,
		"attached_image_url": r.AttachmentURL,
		"now":                now.Format(format),
	}
}
