package collector

import (
	"context"
	"regexp"

	"go.uber.org/zap"
)

const PlatformWechat = "微信公众号"

// Wechat 公众号后台只能拿到当前登录账号的数据，依赖有效的登录态 cookie
type Wechat struct {
	f *fetcher
}

func NewWechat(cfg *Config) (*Wechat, error) {
	f, err := newFetcher(cfg.timeout(), cfg.WechatCookie, "https://mp.weixin.qq.com/")
	if err != nil {
		return nil, err
	}
	return &Wechat{f: f}, nil
}

func (w *Wechat) Name() string { return "wechat" }

var (
	wechatNicknamePattern = regexp.MustCompile(`nick_name\s*:\s*"([^"]+)"`)
	wechatFansPattern     = regexp.MustCompile(`total_fans_num["']?\s*[:=]\s*["']?(\d+)`)
)

func (w *Wechat) Collect(ctx context.Context) ([]Snapshot, *PlatformError) {
	zap.S().Info("📱 开始获取微信公众号数据...")
	if w.f.cookie == "" {
		return nil, &PlatformError{Code: "WECHAT_002", Detail: "未配置登录态cookie"}
	}

	body, err := w.f.get(ctx, "https://mp.weixin.qq.com/cgi-bin/home?t=home/index&lang=zh_CN")
	if err != nil {
		return nil, &PlatformError{Code: "WECHAT_001", Detail: err.Error()}
	}

	fans := wechatFansPattern.FindSubmatch(body)
	if fans == nil {
		// 登录态失效时后台会跳转到登录页，页面上不会有粉丝数字段
		return nil, &PlatformError{Code: "WECHAT_003", Detail: "未能从后台页面解析粉丝数，登录状态可能已失效"}
	}
	name := PlatformWechat
	if m := wechatNicknamePattern.FindSubmatch(body); m != nil {
		name = string(m[1])
	}

	snapshot := Snapshot{
		Date:      snapshotDate(),
		Account:   name,
		Platform:  PlatformWechat,
		Followers: parseCount(string(fans[1])),
	}
	zap.S().Infof("  %s: %d 粉丝", name, snapshot.Followers)
	return []Snapshot{snapshot}, nil
}
