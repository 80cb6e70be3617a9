package feishu

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Client 飞书开放平台客户端：租户令牌换取 + 多维表格/消息接口。
// 凭据与表标识全部来自显式传入的配置，客户端不读任何进程级全局状态。
type Client struct {
	cfg  *Config
	http *http.Client

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

func NewClient(cfg *Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
	}
}

// envelope 开放平台统一响应包裹
type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

type tokenResponse struct {
	Code              int    `json:"code"`
	Msg               string `json:"msg"`
	TenantAccessToken string `json:"tenant_access_token"`
	Expire            int    `json:"expire"`
}

// TenantAccessToken 获取租户访问令牌，距过期一分钟以上时复用缓存值
func (c *Client) TenantAccessToken() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Until(c.tokenExp) > time.Minute {
		return c.token, nil
	}

	payload, _ := json.Marshal(map[string]string{
		"app_id":     c.cfg.AppID,
		"app_secret": c.cfg.AppSecret,
	})
	resp, err := c.http.Post(
		c.cfg.BaseURL+"/open-apis/auth/v3/tenant_access_token/internal",
		"application/json",
		bytes.NewReader(payload),
	)
	if err != nil {
		return "", errors.Wrap(err, "获取飞书访问令牌失败")
	}
	defer func() { _ = resp.Body.Close() }()

	var result tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", errors.Wrap(err, "解析令牌响应失败")
	}
	if result.Code != 0 {
		return "", errors.Errorf("获取飞书访问令牌失败: code=%d msg=%s", result.Code, result.Msg)
	}

	c.token = result.TenantAccessToken
	c.tokenExp = time.Now().Add(time.Duration(result.Expire) * time.Second)
	zap.S().Info("✅ 成功获取飞书访问令牌")
	return c.token, nil
}

func (c *Client) do(method, path string, query url.Values, body interface{}, out interface{}) error {
	token, err := c.TenantAccessToken()
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "序列化请求体失败")
		}
		reader = bytes.NewReader(payload)
	}

	u := c.cfg.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequest(method, u, reader)
	if err != nil {
		return errors.Wrap(err, "构造请求失败")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s 请求失败", method, path)
	}
	defer func() { _ = resp.Body.Close() }()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return errors.Wrapf(err, "%s %s 响应解析失败", method, path)
	}
	if env.Code != 0 {
		return errors.Errorf("%s %s 失败: code=%d msg=%s", method, path, env.Code, env.Msg)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return errors.Wrapf(err, "%s %s data 解析失败", method, path)
		}
	}
	return nil
}

func (c *Client) getJSON(path string, query url.Values, out interface{}) error {
	return c.do(http.MethodGet, path, query, nil, out)
}

func (c *Client) postJSON(path string, body interface{}, out interface{}) error {
	return c.do(http.MethodPost, path, nil, body, out)
}
