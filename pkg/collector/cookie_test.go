package collector

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadCookies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.json")
	content := `[{"name":"SESSDATA","value":"abc123"},{"name":"bili_jct","value":"xyz"}]`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cookies, err := LoadCookies(path)
	if err != nil {
		t.Fatalf("LoadCookies: %v", err)
	}
	if cookies["SESSDATA"] != "abc123" || cookies["bili_jct"] != "xyz" {
		t.Errorf("cookies = %v", cookies)
	}

	header := CookieHeader(cookies)
	if !strings.Contains(header, "SESSDATA=abc123") || !strings.Contains(header, "bili_jct=xyz") {
		t.Errorf("header = %q", header)
	}
	if strings.Count(header, "; ") != 1 {
		t.Errorf("分隔符错误: %q", header)
	}
}

func TestLoadCookiesEmptyPath(t *testing.T) {
	cookies, err := LoadCookies("")
	if err != nil || cookies != nil {
		t.Errorf("空路径应返回 nil/nil, got %v, %v", cookies, err)
	}
}

func TestLoadCookiesMissingFile(t *testing.T) {
	if _, err := LoadCookies(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("缺失文件应报错")
	}
}
