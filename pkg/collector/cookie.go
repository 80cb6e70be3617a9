package collector

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/pkg/errors"
)

type browserCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// LoadCookies 读取浏览器导出的 JSON 数组格式 cookie 文件
func LoadCookies(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "读取cookie文件失败: %s", path)
	}
	var cookies []browserCookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return nil, errors.Wrapf(err, "解析cookie文件失败: %s", path)
	}
	out := make(map[string]string, len(cookies))
	for _, c := range cookies {
		out[c.Name] = c.Value
	}
	return out, nil
}

// CookieHeader 拼接 Cookie 请求头
func CookieHeader(cookies map[string]string) string {
	if len(cookies) == 0 {
		return ""
	}
	pairs := make([]string, 0, len(cookies))
	for name, value := range cookies {
		pairs = append(pairs, name+"="+value)
	}
	return strings.Join(pairs, "; ")
}
