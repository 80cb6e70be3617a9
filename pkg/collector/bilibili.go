package collector

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

const PlatformBilibili = "B站"

type Bilibili struct {
	uids []string
	f    *fetcher
}

func NewBilibili(cfg *Config) (*Bilibili, error) {
	f, err := newFetcher(cfg.timeout(), cfg.BilibiliCookie, "https://www.bilibili.com/")
	if err != nil {
		return nil, err
	}
	return &Bilibili{uids: cfg.BilibiliUIDs, f: f}, nil
}

func (b *Bilibili) Name() string { return "bilibili" }

type biliEnvelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (b *Bilibili) Collect(ctx context.Context) ([]Snapshot, *PlatformError) {
	zap.S().Info("🎬 开始获取Bilibili数据...")
	date := snapshotDate()

	var snapshots []Snapshot
	for _, uid := range b.uids {
		var stat struct {
			biliEnvelope
			Data struct {
				Follower int64 `json:"follower"`
			} `json:"data"`
		}
		url := fmt.Sprintf("https://api.bilibili.com/x/relation/stat?vmid=%s", uid)
		if err := b.f.getJSON(ctx, url, &stat); err != nil {
			return snapshots, &PlatformError{Code: "BILIBILI_001", Detail: err.Error()}
		}
		if stat.Code != 0 {
			code := "BILIBILI_002"
			if stat.Code == -101 {
				code = "BILIBILI_003"
			}
			zap.S().Warnf("⚠️ [%s] uid=%s: %s", code, uid, stat.Message)
			snapshots = append(snapshots, Snapshot{Date: date, Account: uid, Platform: PlatformBilibili})
			continue
		}

		name := b.accountName(ctx, uid)
		snapshots = append(snapshots, Snapshot{
			Date:      date,
			Account:   name,
			Platform:  PlatformBilibili,
			Followers: stat.Data.Follower,
		})
		zap.S().Infof("  %s: %d 粉丝", name, stat.Data.Follower)
	}
	return snapshots, nil
}

// accountName 拉取 UP 主昵称，失败时退回 uid 本身
func (b *Bilibili) accountName(ctx context.Context, uid string) string {
	var info struct {
		biliEnvelope
		Data struct {
			Name string `json:"name"`
		} `json:"data"`
	}
	url := fmt.Sprintf("https://api.bilibili.com/x/space/acc/info?mid=%s", uid)
	if err := b.f.getJSON(ctx, url, &info); err != nil || info.Code != 0 || info.Data.Name == "" {
		return uid
	}
	return info.Data.Name
}
