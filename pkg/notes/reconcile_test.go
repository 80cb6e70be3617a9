package notes

import (
	"testing"

	"fansync/pkg/feishu"
	"fansync/pkg/record"
)

func testColumns() []string {
	return []string{"首次发布时间", "笔记标题", "阅读量", "点赞量"}
}

func TestReconcileCreatesForNewKey(t *testing.T) {
	rows := []record.Row{{
		"首次发布时间": record.Text("2025年07月20日17时37分34秒"),
		"笔记标题":   record.Text("测试笔记"),
		"阅读量":    record.Text("100"),
	}}

	pending := Reconcile(rows, testColumns(), map[string]feishu.RemoteRecord{}, record.DefaultSchema())

	if len(pending.Creates) != 1 || len(pending.Updates) != 0 {
		t.Fatalf("creates = %d, updates = %d, want 1/0", len(pending.Creates), len(pending.Updates))
	}
	fields := pending.Creates[0]
	if fields["首次发布时间"] != record.Number(1753004254000) {
		t.Errorf("唯一键编码 = %v, want 1753004254000", fields["首次发布时间"])
	}
	if fields["阅读量"] != record.Number(100) {
		t.Errorf("阅读量 = %v, want 100", fields["阅读量"])
	}
	if fields["点赞量"] != record.Number(0) {
		t.Errorf("缺失数值列应补零: %v", fields["点赞量"])
	}
}

func TestReconcileIdempotent(t *testing.T) {
	schema := record.DefaultSchema()
	columns := testColumns()
	rows := []record.Row{{
		"首次发布时间": record.Text("2025年07月20日17时37分34秒"),
		"笔记标题":   record.Text("测试笔记"),
		"阅读量":    record.Text("100"),
		"点赞量":    record.Text("8"),
	}}

	first := Reconcile(rows, columns, map[string]feishu.RemoteRecord{}, schema)
	if len(first.Creates) != 1 {
		t.Fatalf("首轮 creates = %d, want 1", len(first.Creates))
	}

	// 把首轮 create 的载荷当作远端回读快照再跑一轮
	snapshot := map[string]feishu.RemoteRecord{
		"2025年07月20日17时37分34秒": {
			RecordID: "recxxx",
			Fields:   first.Creates[0].JSONMap(),
		},
	}
	second := Reconcile(rows, columns, snapshot, schema)
	if !second.IsEmpty() {
		t.Errorf("重跑应无待写集: creates=%d updates=%d", len(second.Creates), len(second.Updates))
	}
}

func TestReconcileMinimalUpdate(t *testing.T) {
	rows := []record.Row{{
		"首次发布时间": record.Text("2025年07月20日17时37分34秒"),
		"笔记标题":   record.Text("测试笔记"),
		"阅读量":    record.Text("150"),
		"点赞量":    record.Text("8"),
	}}
	existing := map[string]feishu.RemoteRecord{
		"2025年07月20日17时37分34秒": {
			RecordID: "recyyy",
			Fields: map[string]interface{}{
				"首次发布时间": float64(1753004254000),
				"笔记标题":   "测试笔记",
				"阅读量":    float64(100),
				"点赞量":    float64(8),
			},
		},
	}

	pending := Reconcile(rows, testColumns(), existing, record.DefaultSchema())

	if len(pending.Creates) != 0 || len(pending.Updates) != 1 {
		t.Fatalf("creates = %d, updates = %d, want 0/1", len(pending.Creates), len(pending.Updates))
	}
	upd := pending.Updates[0]
	if upd.RecordID != "recyyy" {
		t.Errorf("RecordID = %q", upd.RecordID)
	}
	if len(upd.Fields) != 1 {
		t.Fatalf("更新载荷应只含差异字段, got %v", upd.Fields)
	}
	if upd.Fields["阅读量"] != int64(150) {
		t.Errorf("阅读量 = %v, want 150", upd.Fields["阅读量"])
	}
	if _, ok := upd.Fields["首次发布时间"]; ok {
		t.Error("唯一键列不得进入更新载荷")
	}
}

func TestReconcileRemoteTextNumberEquivalence(t *testing.T) {
	// 远端把数值列存成了文本形式，强转后相等就不应产生更新
	rows := []record.Row{{
		"首次发布时间": record.Text("2025年07月20日17时37分34秒"),
		"阅读量":    record.Text("100"),
	}}
	existing := map[string]feishu.RemoteRecord{
		"2025年07月20日17时37分34秒": {
			RecordID: "reczzz",
			Fields: map[string]interface{}{
				"首次发布时间": float64(1753004254000),
				"阅读量":    "100",
			},
		},
	}

	pending := Reconcile(rows, []string{"首次发布时间", "阅读量"}, existing, record.DefaultSchema())
	if !pending.IsEmpty() {
		t.Errorf("文本形式的等值数值不应触发更新: %+v", pending.Updates)
	}
}

func TestReconcileSkipsEmptyKey(t *testing.T) {
	rows := []record.Row{
		{"笔记标题": record.Text("没有时间的行"), "阅读量": record.Text("5")},
		{
			"首次发布时间": record.Text("2025年07月20日17时37分34秒"),
			"阅读量":    record.Text("100"),
		},
	}

	pending := Reconcile(rows, testColumns(), map[string]feishu.RemoteRecord{}, record.DefaultSchema())
	if len(pending.Creates) != 1 {
		t.Errorf("缺键行应被跳过, creates = %d", len(pending.Creates))
	}
}
