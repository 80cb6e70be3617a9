package collector

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

const PlatformDouyin = "抖音"

type Douyin struct {
	userIDs []string
	f       *fetcher
}

func NewDouyin(cfg *Config) (*Douyin, error) {
	f, err := newFetcher(cfg.timeout(), cfg.DouyinCookie, "https://www.douyin.com/")
	if err != nil {
		return nil, err
	}
	return &Douyin{userIDs: cfg.DouyinUserIDs, f: f}, nil
}

func (d *Douyin) Name() string { return "douyin" }

func (d *Douyin) Collect(ctx context.Context) ([]Snapshot, *PlatformError) {
	zap.S().Info("🎵 开始获取抖音数据...")
	if d.f.cookie == "" {
		return nil, &PlatformError{Code: "DOUYIN_003", Detail: "无法读取cookie文件"}
	}
	date := snapshotDate()

	var snapshots []Snapshot
	for _, secUID := range d.userIDs {
		var resp struct {
			StatusCode int `json:"status_code"`
			UserInfo   struct {
				Nickname      string `json:"nickname"`
				FollowerCount int64  `json:"follower_count"`
			} `json:"user_info"`
		}
		url := fmt.Sprintf("https://www.iesdouyin.com/web/api/v2/user/info/?sec_uid=%s", secUID)
		if err := d.f.getJSON(ctx, url, &resp); err != nil {
			return snapshots, &PlatformError{Code: "DOUYIN_001", Detail: err.Error()}
		}
		if resp.StatusCode != 0 || resp.UserInfo.Nickname == "" {
			zap.S().Warnf("⚠️ [DOUYIN_002] sec_uid=%s 无效或无数据", secUID)
			snapshots = append(snapshots, Snapshot{Date: date, Account: secUID, Platform: PlatformDouyin})
			continue
		}
		snapshots = append(snapshots, Snapshot{
			Date:      date,
			Account:   resp.UserInfo.Nickname,
			Platform:  PlatformDouyin,
			Followers: resp.UserInfo.FollowerCount,
		})
		zap.S().Infof("  %s: %d 粉丝", resp.UserInfo.Nickname, resp.UserInfo.FollowerCount)
	}
	return snapshots, nil
}
