package collector

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// fetcher 单平台共享的出站 HTTP 封装，带固定 UA 与可选 cookie
type fetcher struct {
	http    *http.Client
	cookie  string
	referer string
}

func newFetcher(timeout time.Duration, cookiePath, referer string) (*fetcher, error) {
	cookies, err := LoadCookies(cookiePath)
	if err != nil {
		return nil, err
	}
	return &fetcher{
		http:    &http.Client{Timeout: timeout},
		cookie:  CookieHeader(cookies),
		referer: referer,
	}, nil
}

func (f *fetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "构造请求失败")
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	if f.cookie != "" {
		req.Header.Set("Cookie", f.cookie)
	}
	if f.referer != "" {
		req.Header.Set("Referer", f.referer)
	}

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "请求失败: %s", url)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("请求失败: %s 返回 %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, errors.Wrap(err, "读取响应失败")
	}
	return body, nil
}

func (f *fetcher) getJSON(ctx context.Context, url string, out interface{}) error {
	body, err := f.get(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrapf(err, "解析响应失败: %s", url)
	}
	return nil
}

// parseCount 解析平台展示用的粉丝数文本，支持千分逗号与 万/亿/K/M 后缀
func parseCount(text string) int64 {
	s := strings.TrimSpace(strings.ReplaceAll(text, ",", ""))
	if s == "" {
		return 0
	}
	multiplier := 1.0
	switch {
	case strings.HasSuffix(s, "万"):
		multiplier = 1e4
		s = strings.TrimSuffix(s, "万")
	case strings.HasSuffix(s, "亿"):
		multiplier = 1e8
		s = strings.TrimSuffix(s, "亿")
	case strings.HasSuffix(s, "K"), strings.HasSuffix(s, "k"):
		multiplier = 1e3
		s = s[:len(s)-1]
	case strings.HasSuffix(s, "M"), strings.HasSuffix(s, "m"):
		multiplier = 1e6
		s = s[:len(s)-1]
	}
	f, err := cast.ToFloat64E(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return int64(f * multiplier)
}

// snapshotDate 采集时刻的本地时间文本，进入 CSV 的日期列
func snapshotDate() string {
	return time.Now().Format("2006-01-02 15:04:05")
}
