package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"go.uber.org/zap"
)

const PlatformWeibo = "微博"

type Weibo struct {
	uids []string
	f    *fetcher
}

func NewWeibo(cfg *Config) (*Weibo, error) {
	f, err := newFetcher(cfg.timeout(), cfg.WeiboCookie, "https://weibo.com/")
	if err != nil {
		return nil, err
	}
	return &Weibo{uids: cfg.WeiboUserIDs, f: f}, nil
}

func (w *Weibo) Name() string { return "weibo" }

func (w *Weibo) Collect(ctx context.Context) ([]Snapshot, *PlatformError) {
	zap.S().Info("🐦 开始获取微博数据...")
	date := snapshotDate()

	var snapshots []Snapshot
	for _, uid := range w.uids {
		name, followers, ok := w.fetchOne(ctx, uid)
		if !ok {
			zap.S().Warnf("⚠️ [WEIBO_004] uid=%s 所有获取方式均失败", uid)
			snapshots = append(snapshots, Snapshot{Date: date, Account: uid, Platform: PlatformWeibo})
			continue
		}
		snapshots = append(snapshots, Snapshot{
			Date:      date,
			Account:   name,
			Platform:  PlatformWeibo,
			Followers: followers,
		})
		zap.S().Infof("  %s: %d 粉丝", name, followers)
	}
	return snapshots, nil
}

// fetchOne 依次尝试 PC 端接口、移动端接口和主页 HTML，任一成功即返回
func (w *Weibo) fetchOne(ctx context.Context, uid string) (string, int64, bool) {
	var pc struct {
		OK   int `json:"ok"`
		Data struct {
			User struct {
				ScreenName     string `json:"screen_name"`
				FollowersCount int64  `json:"followers_count"`
			} `json:"user"`
		} `json:"data"`
	}
	if err := w.f.getJSON(ctx, fmt.Sprintf("https://weibo.com/ajax/profile/info?uid=%s", uid), &pc); err == nil &&
		pc.OK == 1 && pc.Data.User.ScreenName != "" {
		return pc.Data.User.ScreenName, pc.Data.User.FollowersCount, true
	}

	// 移动端的 followers_count 可能是 "123.5万" 形式的文本
	var mobile struct {
		OK   int `json:"ok"`
		Data struct {
			UserInfo struct {
				ScreenName     string          `json:"screen_name"`
				FollowersCount json.RawMessage `json:"followers_count"`
			} `json:"userInfo"`
		} `json:"data"`
	}
	if err := w.f.getJSON(ctx, fmt.Sprintf("https://m.weibo.cn/api/container/getIndex?type=uid&value=%s", uid), &mobile); err == nil &&
		mobile.OK == 1 && mobile.Data.UserInfo.ScreenName != "" {
		raw := mobile.Data.UserInfo.FollowersCount
		var asNum int64
		if json.Unmarshal(raw, &asNum) == nil {
			return mobile.Data.UserInfo.ScreenName, asNum, true
		}
		var asText string
		if json.Unmarshal(raw, &asText) == nil {
			return mobile.Data.UserInfo.ScreenName, parseCount(asText), true
		}
	}

	body, err := w.f.get(ctx, fmt.Sprintf("https://weibo.com/u/%s", uid))
	if err != nil {
		return "", 0, false
	}
	if m := weiboFollowersPattern.FindSubmatch(body); m != nil {
		name := uid
		if n := weiboNamePattern.FindSubmatch(body); n != nil {
			name = string(n[1])
		}
		return name, parseCount(string(m[1])), true
	}
	return "", 0, false
}

var (
	weiboFollowersPattern = regexp.MustCompile(`"followers_count"\s*:\s*"?([\d.,]+万?)"?`)
	weiboNamePattern      = regexp.MustCompile(`"screen_name"\s*:\s*"([^"]+)"`)
)
