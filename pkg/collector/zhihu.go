package collector

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

const PlatformZhihu = "知乎"

type Zhihu struct {
	slugs []string
	f     *fetcher
}

func NewZhihu(cfg *Config) (*Zhihu, error) {
	f, err := newFetcher(cfg.timeout(), cfg.ZhihuCookie, "https://www.zhihu.com/")
	if err != nil {
		return nil, err
	}
	return &Zhihu{slugs: cfg.ZhihuUserSlugs, f: f}, nil
}

func (z *Zhihu) Name() string { return "zhihu" }

func (z *Zhihu) Collect(ctx context.Context) ([]Snapshot, *PlatformError) {
	zap.S().Info("🔍 开始获取知乎数据...")
	date := snapshotDate()

	var snapshots []Snapshot
	for _, slug := range z.slugs {
		var member struct {
			Name          string `json:"name"`
			FollowerCount int64  `json:"follower_count"`
			Error         *struct {
				Code    int    `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		url := fmt.Sprintf("https://www.zhihu.com/api/v4/members/%s?include=follower_count", slug)
		if err := z.f.getJSON(ctx, url, &member); err != nil {
			return snapshots, &PlatformError{Code: "ZHIHU_001", Detail: err.Error()}
		}
		if member.Error != nil || member.Name == "" {
			detail := slug
			if member.Error != nil {
				detail = fmt.Sprintf("%s: %s", slug, member.Error.Message)
			}
			zap.S().Warnf("⚠️ [ZHIHU_002] %s", detail)
			snapshots = append(snapshots, Snapshot{Date: date, Account: slug, Platform: PlatformZhihu})
			continue
		}
		snapshots = append(snapshots, Snapshot{
			Date:      date,
			Account:   member.Name,
			Platform:  PlatformZhihu,
			Followers: member.FollowerCount,
		})
		zap.S().Infof("  %s: %d 关注者", member.Name, member.FollowerCount)
	}
	return snapshots, nil
}
