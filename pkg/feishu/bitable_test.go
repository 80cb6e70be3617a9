package feishu

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"fansync/pkg/record"
)

// newTestServer 模拟开放平台：令牌端点 + 业务端点由 handler 接管
func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client, *int64) {
	t.Helper()
	var tokenCalls int64
	mux := http.NewServeMux()
	mux.HandleFunc("/open-apis/auth/v3/tenant_access_token/internal", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&tokenCalls, 1)
		fmt.Fprint(w, `{"code":0,"msg":"ok","tenant_access_token":"t-test","expire":7200}`)
	})
	mux.HandleFunc("/", handler)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := NewClient(&Config{
		AppID:     "cli_test",
		AppSecret: "secret",
		AppToken:  "apptoken",
		BaseURL:   srv.URL,
	})
	return srv, client, &tokenCalls
}

func TestTenantAccessTokenCached(t *testing.T) {
	_, client, tokenCalls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("不应命中业务端点: %s", r.URL.Path)
	})

	for i := 0; i < 3; i++ {
		token, err := client.TenantAccessToken()
		if err != nil {
			t.Fatalf("TenantAccessToken: %v", err)
		}
		if token != "t-test" {
			t.Fatalf("token = %q", token)
		}
	}
	if got := atomic.LoadInt64(tokenCalls); got != 1 {
		t.Errorf("令牌端点调用 %d 次, want 1（应命中缓存）", got)
	}
}

func TestListAllRecordsPaginated(t *testing.T) {
	var pageTokens []string
	_, client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/tables/tbl1/records") {
			t.Errorf("意外路径: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("page_size"); got != "500" {
			t.Errorf("page_size = %q, want 500", got)
		}
		pt := r.URL.Query().Get("page_token")
		pageTokens = append(pageTokens, pt)

		if pt == "" {
			fmt.Fprint(w, `{"code":0,"msg":"ok","data":{"has_more":true,"page_token":"p2","items":[
				{"record_id":"rec1","fields":{"首次发布时间":1753004254000,"阅读量":100}},
				{"record_id":"rec2","fields":{"首次发布时间":"2025年07月21日10时00分00秒","阅读量":50}}
			]}}`)
			return
		}
		fmt.Fprint(w, `{"code":0,"msg":"ok","data":{"has_more":false,"page_token":"","items":[
			{"record_id":"rec3","fields":{"首次发布时间":1753066800000,"阅读量":7}},
			{"record_id":"rec4","fields":{"阅读量":1}}
		]}}`)
	})

	existing, err := client.ListAllRecords("tbl1", "首次发布时间")
	if err != nil {
		t.Fatalf("ListAllRecords: %v", err)
	}

	if len(pageTokens) != 2 || pageTokens[0] != "" || pageTokens[1] != "p2" {
		t.Errorf("分页请求序列 = %v", pageTokens)
	}
	// 缺键的 rec4 被丢弃，数值键解码为全角文本
	if len(existing) != 3 {
		t.Fatalf("记录数 = %d, want 3", len(existing))
	}
	if rec, ok := existing["2025年07月20日17时37分34秒"]; !ok || rec.RecordID != "rec1" {
		t.Errorf("数值键解码失败: %+v", existing)
	}
	if rec, ok := existing["2025年07月21日10时00分00秒"]; !ok || rec.RecordID != "rec2" {
		t.Errorf("文本键映射失败: %+v", existing)
	}
}

func TestBatchCreateChunks(t *testing.T) {
	var sizes []int
	_, client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/batch_create") {
			t.Errorf("意外路径: %s", r.URL.Path)
		}
		var body struct {
			Records []json.RawMessage `json:"records"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("解析请求体: %v", err)
		}
		sizes = append(sizes, len(body.Records))
		fmt.Fprint(w, `{"code":0,"msg":"ok"}`)
	})

	creates := make([]record.Fields, 1200)
	for i := range creates {
		creates[i] = record.Fields{"阅读量": record.Number(float64(i))}
	}
	if err := client.BatchCreate("tbl1", creates); err != nil {
		t.Fatalf("BatchCreate: %v", err)
	}

	want := []int{500, 500, 200}
	if len(sizes) != len(want) {
		t.Fatalf("批次数 = %d, want %d", len(sizes), len(want))
	}
	for i, n := range want {
		if sizes[i] != n {
			t.Errorf("第 %d 批大小 = %d, want %d", i+1, sizes[i], n)
		}
	}
}

func TestBatchCreateAbortsOnFailure(t *testing.T) {
	var calls int
	_, client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 2 {
			fmt.Fprint(w, `{"code":1254001,"msg":"limit exceeded"}`)
			return
		}
		fmt.Fprint(w, `{"code":0,"msg":"ok"}`)
	})

	creates := make([]record.Fields, 1200)
	for i := range creates {
		creates[i] = record.Fields{"阅读量": record.Number(1)}
	}
	err := client.BatchCreate("tbl1", creates)
	if err == nil {
		t.Fatal("第二批失败应整体报错")
	}
	if calls != 2 {
		t.Errorf("失败后不应继续发送剩余批次, calls = %d", calls)
	}
}

func TestBatchUpdatePayload(t *testing.T) {
	var got struct {
		Records []RecordUpdate `json:"records"`
	}
	_, client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/batch_update") {
			t.Errorf("意外路径: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("解析请求体: %v", err)
		}
		fmt.Fprint(w, `{"code":0,"msg":"ok"}`)
	})

	updates := []RecordUpdate{{
		RecordID: "rec1",
		Fields:   map[string]interface{}{"阅读量": int64(150)},
	}}
	if err := client.BatchUpdate("tbl1", updates); err != nil {
		t.Fatalf("BatchUpdate: %v", err)
	}
	if len(got.Records) != 1 || got.Records[0].RecordID != "rec1" {
		t.Fatalf("载荷 = %+v", got.Records)
	}
	if v, ok := got.Records[0].Fields["阅读量"].(float64); !ok || v != 150 {
		t.Errorf("更新字段 = %v", got.Records[0].Fields)
	}
}

func TestBatchCreateEmptyNoop(t *testing.T) {
	_, client, tokenCalls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("空输入不应发起请求: %s", r.URL.Path)
	})
	if err := client.BatchCreate("tbl1", nil); err != nil {
		t.Fatalf("BatchCreate(nil): %v", err)
	}
	if got := atomic.LoadInt64(tokenCalls); got != 0 {
		t.Errorf("空输入不应换取令牌, calls = %d", got)
	}
}
