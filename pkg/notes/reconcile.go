package notes

import (
	"fansync/pkg/feishu"
	"fansync/pkg/record"

	"go.uber.org/zap"
)

// Reconcile 把本地行集与远端快照做字段级比对，划分出新增集与最小更新集。
// 键在远端不存在的行归一化为完整 create 载荷；键存在的行逐字段比较，
// 只有产生差异的字段进入 update 载荷，唯一键列创建后不可变，永不进入更新。
// 对同一输入和自身写入刷新后的快照重跑，必然得到两个空集。
func Reconcile(rows []record.Row, columns []string, existing map[string]feishu.RemoteRecord, schema record.Schema) PendingWrites {
	var pending PendingWrites
	skipped := 0

	for _, row := range rows {
		key := record.CivilKey(row.Get(schema.UniqueKey).AsString())
		if key == "" {
			skipped++
			continue
		}

		fields := record.Normalize(row, columns, schema)
		remote, ok := existing[key]
		if !ok {
			pending.Creates = append(pending.Creates, fields)
			continue
		}

		changed := diffFields(fields, remote.Fields, columns, schema)
		if len(changed) > 0 {
			pending.Updates = append(pending.Updates, feishu.RecordUpdate{
				RecordID: remote.RecordID,
				Fields:   changed,
			})
		}
	}

	if skipped > 0 {
		zap.S().Warnf("⚠️ 跳过 %d 行缺少唯一键的数据", skipped)
	}
	zap.S().Infof("📋 比对完成: 新增 %d 条, 更新 %d 条", len(pending.Creates), len(pending.Updates))
	return pending
}

// diffFields 逐字段比较本地归一化值与远端存量值，返回仅含差异字段的更新载荷。
// 数值列两侧强转后按数值比较，缺失与不可解析一律取零，文本列按字符串比较。
func diffFields(local record.Fields, remote map[string]interface{}, columns []string, schema record.Schema) map[string]interface{} {
	var changed map[string]interface{}
	for _, col := range columns {
		if col == schema.UniqueKey {
			continue
		}
		localVal := local[col]
		remoteVal := record.FromAny(remote[col])

		var differs bool
		if schema.IsNumeric(col) {
			differs = localVal.AsInt() != remoteVal.AsInt()
		} else {
			differs = localVal.AsString() != remoteVal.AsString()
		}
		if differs {
			if changed == nil {
				changed = make(map[string]interface{})
			}
			changed[col] = localVal.JSON()
		}
	}
	return changed
}
