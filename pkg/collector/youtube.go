package collector

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

const PlatformYoutube = "YouTube"

type Youtube struct {
	channels []string
	f        *fetcher
}

func NewYoutube(cfg *Config) (*Youtube, error) {
	f, err := newFetcher(cfg.timeout(), "", "")
	if err != nil {
		return nil, err
	}
	return &Youtube{channels: cfg.YoutubeChannels, f: f}, nil
}

func (y *Youtube) Name() string { return "youtube" }

var (
	ytTitlePattern      = regexp.MustCompile(`<meta property="og:title" content="([^"]+)"`)
	ytSubscriberPattern = regexp.MustCompile(`"subscriberCountText"\s*:\s*\{[^{}]*"simpleText"\s*:\s*"([^"]+)"`)
	ytSubscriberPlain   = regexp.MustCompile(`([\d.,]+[万KMkm]?)\s*(?:位订阅者|subscribers)`)
)

func (y *Youtube) Collect(ctx context.Context) ([]Snapshot, *PlatformError) {
	zap.S().Info("📺 开始获取YouTube数据...")
	date := snapshotDate()

	var snapshots []Snapshot
	for _, channel := range y.channels {
		url := channel
		if strings.Contains(url, "@") && !strings.HasSuffix(url, "/about") {
			url = strings.TrimRight(url, "/") + "/about"
		}
		body, err := y.f.get(ctx, url)
		if err != nil {
			return snapshots, &PlatformError{Code: "YOUTUBE_001", Detail: err.Error()}
		}

		name := channel
		if m := ytTitlePattern.FindSubmatch(body); m != nil {
			name = string(m[1])
		}

		var followers int64
		if m := ytSubscriberPattern.FindSubmatch(body); m != nil {
			followers = parseCount(strings.TrimSuffix(string(m[1]), " subscribers"))
		} else if m := ytSubscriberPlain.FindSubmatch(body); m != nil {
			followers = parseCount(string(m[1]))
		}
		if followers == 0 {
			zap.S().Warnf("⚠️ [YOUTUBE_003] 未能从页面解析订阅数: %s", channel)
		}

		snapshots = append(snapshots, Snapshot{
			Date:      date,
			Account:   name,
			Platform:  PlatformYoutube,
			Followers: followers,
		})
		if followers > 0 {
			zap.S().Infof("  %s: %d 订阅", name, followers)
		}
	}
	return snapshots, nil
}
