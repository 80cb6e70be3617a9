package collector

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

const PlatformRedbook = "小红书"

type Redbook struct {
	userIDs []string
	f       *fetcher
}

func NewRedbook(cfg *Config) (*Redbook, error) {
	f, err := newFetcher(cfg.timeout(), cfg.RedbookCookie, "https://www.xiaohongshu.com/")
	if err != nil {
		return nil, err
	}
	return &Redbook{userIDs: cfg.RedbookUserIDs, f: f}, nil
}

func (r *Redbook) Name() string { return "redbook" }

func (r *Redbook) Collect(ctx context.Context) ([]Snapshot, *PlatformError) {
	zap.S().Info("📖 开始获取小红书数据...")
	if r.f.cookie == "" {
		return nil, &PlatformError{Code: "REDBOOK_003", Detail: "无法读取cookie文件"}
	}
	date := snapshotDate()

	var snapshots []Snapshot
	for _, userID := range r.userIDs {
		var resp struct {
			Success bool   `json:"success"`
			Msg     string `json:"msg"`
			Data    struct {
				BasicInfo struct {
					Nickname string `json:"nickname"`
				} `json:"basic_info"`
				Interactions []struct {
					Type  string `json:"type"`
					Count string `json:"count"`
				} `json:"interactions"`
			} `json:"data"`
		}
		url := fmt.Sprintf("https://edith.xiaohongshu.com/api/sns/web/v1/user/otherinfo?target_user_id=%s", userID)
		if err := r.f.getJSON(ctx, url, &resp); err != nil {
			return snapshots, &PlatformError{Code: "REDBOOK_001", Detail: err.Error()}
		}
		if !resp.Success || resp.Data.BasicInfo.Nickname == "" {
			zap.S().Warnf("⚠️ [REDBOOK_002] user_id=%s: %s", userID, resp.Msg)
			snapshots = append(snapshots, Snapshot{Date: date, Account: userID, Platform: PlatformRedbook})
			continue
		}

		var followers int64
		for _, item := range resp.Data.Interactions {
			if item.Type == "fans" {
				followers = parseCount(item.Count)
				break
			}
		}
		snapshots = append(snapshots, Snapshot{
			Date:      date,
			Account:   resp.Data.BasicInfo.Nickname,
			Platform:  PlatformRedbook,
			Followers: followers,
		})
		zap.S().Infof("  %s: %d 粉丝", resp.Data.BasicInfo.Nickname, followers)
	}
	return snapshots, nil
}
