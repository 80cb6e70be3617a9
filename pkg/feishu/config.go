package feishu

import (
	"github.com/pkg/errors"
)

const DefaultBaseURL = "https://open.feishu.cn"

type Config struct {
	AppID     string `json:"appId" yaml:"appId"`         // 飞书应用ID
	AppSecret string `json:"appSecret" yaml:"appSecret"` // 飞书应用密钥
	AppToken  string `json:"appToken" yaml:"appToken"`   // 多维表格 app token
	BaseURL   string `json:"baseUrl,omitempty" yaml:"baseUrl,omitempty"`
	// FailOpen 为 true 时，拉取现有记录失败按"表为空"继续（可能产生重复新增）；
	// 默认 false：失败中止本次增量同步
	FailOpen bool `json:"failOpen,omitempty" yaml:"failOpen,omitempty"`
	// TimeoutSeconds 单次出站请求超时，默认 30 秒
	TimeoutSeconds int `json:"timeoutSeconds,omitempty" yaml:"timeoutSeconds,omitempty"`
}

func NewDefaultConfig() *Config {
	return &Config{
		BaseURL:        DefaultBaseURL,
		TimeoutSeconds: 30,
	}
}

func (c *Config) Validate() []error {
	var errs = make([]error, 0)
	if c.AppID == "" || c.AppSecret == "" {
		errs = append(errs, errors.New("缺少飞书应用凭据 appId/appSecret"))
	}
	return errs
}
