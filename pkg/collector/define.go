package collector

import (
	"context"
	"time"

	"fansync/pkg/feishu"
)

// Snapshot 一次采集得到的单账号粉丝数快照
type Snapshot struct {
	Date      string `json:"日期"`
	Account   string `json:"账号名"`
	Platform  string `json:"平台"`
	Followers int64  `json:"粉丝数"`
}

// OK 粉丝数为正才视为有效采集，0 与负值都按失败处理
func (s Snapshot) OK() bool {
	return s.Followers > 0
}

// Collector 单平台采集器。实现必须串行发起请求以配合各平台的频控，
// 账号级失败记入返回值而不是 error，error 留给整个平台不可用的场景。
type Collector interface {
	Name() string
	Collect(ctx context.Context) ([]Snapshot, *PlatformError)
}

// PlatformError 平台级采集失败，带机器可读的错误代码
type PlatformError struct {
	Code   string
	Detail string
}

func (e *PlatformError) Error() string {
	if e.Detail != "" {
		return e.Code + ": " + e.Detail
	}
	return e.Code
}

// 错误代码与说明，_001 网络错误 _002 标识无效 _003 凭据失效 _004 其他
var ErrorCodeMessages = map[string]string{
	"BILIBILI_001": "Bilibili数据获取失败 - 网络连接错误",
	"BILIBILI_002": "Bilibili数据获取失败 - 用户ID无效",
	"BILIBILI_003": "Bilibili数据获取失败 - Cookie过期或无效",
	"BILIBILI_004": "Bilibili数据获取失败 - 其他未知错误",
	"YOUTUBE_001":  "YouTube数据获取失败 - 网络连接错误",
	"YOUTUBE_002":  "YouTube数据获取失败 - 频道链接无效",
	"YOUTUBE_003":  "YouTube数据获取失败 - 页面解析错误",
	"YOUTUBE_004":  "YouTube数据获取失败 - 其他未知错误",
	"REDBOOK_001":  "小红书数据获取失败 - 网络连接错误",
	"REDBOOK_002":  "小红书数据获取失败 - 用户ID无效",
	"REDBOOK_003":  "小红书数据获取失败 - Cookie过期或无效",
	"REDBOOK_004":  "小红书数据获取失败 - 其他未知错误",
	"DOUYIN_001":   "抖音数据获取失败 - 网络连接错误",
	"DOUYIN_002":   "抖音数据获取失败 - 用户ID无效",
	"DOUYIN_003":   "抖音数据获取失败 - Cookie过期或无效",
	"DOUYIN_004":   "抖音数据获取失败 - 其他未知错误",
	"WEIBO_001":    "微博数据获取失败 - 网络连接错误",
	"WEIBO_002":    "微博数据获取失败 - 用户ID无效",
	"WEIBO_003":    "微博数据获取失败 - Cookie过期或无效",
	"WEIBO_004":    "微博数据获取失败 - 其他未知错误",
	"WECHAT_001":   "微信公众号数据获取失败 - 网络连接错误",
	"WECHAT_002":   "微信公众号数据获取失败 - 登录状态无效",
	"WECHAT_003":   "微信公众号数据获取失败 - 页面解析错误",
	"WECHAT_004":   "微信公众号数据获取失败 - 其他未知错误",
	"ZHIHU_001":    "知乎数据获取失败 - 网络连接错误",
	"ZHIHU_002":    "知乎数据获取失败 - 用户slug无效",
	"ZHIHU_003":    "知乎数据获取失败 - Cookie过期或无效",
	"ZHIHU_004":    "知乎数据获取失败 - 其他未知错误",
}

type Config struct {
	Feishu  *feishu.Config `json:"feishu" yaml:"feishu"`
	TableID string         `json:"tableId" yaml:"tableId"` // 粉丝数据表 table_id

	OutputCSV string `json:"outputCsv" yaml:"outputCsv"` // 追加式本地备份

	BilibiliUIDs    []string `json:"bilibiliUids,omitempty" yaml:"bilibiliUids,omitempty"`
	YoutubeChannels []string `json:"youtubeChannels,omitempty" yaml:"youtubeChannels,omitempty"`
	RedbookUserIDs  []string `json:"redbookUserIds,omitempty" yaml:"redbookUserIds,omitempty"`
	DouyinUserIDs   []string `json:"douyinUserIds,omitempty" yaml:"douyinUserIds,omitempty"`
	WeiboUserIDs    []string `json:"weiboUserIds,omitempty" yaml:"weiboUserIds,omitempty"`
	WechatEnabled   bool     `json:"wechatEnabled,omitempty" yaml:"wechatEnabled,omitempty"`
	ZhihuUserSlugs  []string `json:"zhihuUserSlugs,omitempty" yaml:"zhihuUserSlugs,omitempty"`

	// 各平台 cookie 文件路径（浏览器导出的 JSON 数组格式）
	BilibiliCookie string `json:"bilibiliCookie,omitempty" yaml:"bilibiliCookie,omitempty"`
	RedbookCookie  string `json:"redbookCookie,omitempty" yaml:"redbookCookie,omitempty"`
	DouyinCookie   string `json:"douyinCookie,omitempty" yaml:"douyinCookie,omitempty"`
	WeiboCookie    string `json:"weiboCookie,omitempty" yaml:"weiboCookie,omitempty"`
	WechatCookie   string `json:"wechatCookie,omitempty" yaml:"wechatCookie,omitempty"`
	ZhihuCookie    string `json:"zhihuCookie,omitempty" yaml:"zhihuCookie,omitempty"`

	// TimeoutSeconds 单次采集请求超时，默认 10 秒
	TimeoutSeconds int `json:"timeoutSeconds,omitempty" yaml:"timeoutSeconds,omitempty"`
}

func (c *Config) timeout() time.Duration {
	if c.TimeoutSeconds > 0 {
		return time.Duration(c.TimeoutSeconds) * time.Second
	}
	return 10 * time.Second
}
