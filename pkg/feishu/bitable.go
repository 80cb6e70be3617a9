package feishu

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"fansync/pkg/record"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const (
	// PageSize 分页拉取记录的单页上限
	PageSize = 500
	// BatchLimit 批量写接口单次最多接受的记录数
	BatchLimit = 500
	// batchInterval 批次之间的间隔，开放平台频控为 10 次/秒
	batchInterval = 200 * time.Millisecond
)

// RemoteRecord 远端记录：record_id 由多维表格分配且不可变，本系统从不删除远端记录
type RemoteRecord struct {
	RecordID string                 `json:"record_id"`
	Fields   map[string]interface{} `json:"fields"`
}

// RecordUpdate 一条更新操作：record_id + 仅含有差异字段的子集
type RecordUpdate struct {
	RecordID string                 `json:"record_id"`
	Fields   map[string]interface{} `json:"fields"`
}

type listRecordsData struct {
	Items     []RemoteRecord `json:"items"`
	PageToken string         `json:"page_token"`
	HasMore   bool           `json:"has_more"`
}

func (c *Client) tablePath(tableID, op string) string {
	p := fmt.Sprintf("/open-apis/bitable/v1/apps/%s/tables/%s/records", c.cfg.AppToken, tableID)
	if op != "" {
		p += "/" + op
	}
	return p
}

// ListAllRecords 分页拉取目标表的全部记录，构建"本地文本键 → 远端记录"映射。
// 唯一键字段为数值时按 UTC 毫秒时间戳解码为全角本地时间文本，文本值原样作键。
// 任意一页失败即整体失败，由调用方决定中止还是按空表继续（Config.FailOpen）。
func (c *Client) ListAllRecords(tableID, uniqueKey string) (map[string]RemoteRecord, error) {
	existing := make(map[string]RemoteRecord)
	pageToken := ""
	total := 0

	for {
		query := url.Values{}
		query.Set("page_size", strconv.Itoa(PageSize))
		if pageToken != "" {
			query.Set("page_token", pageToken)
		}

		var data listRecordsData
		if err := c.getJSON(c.tablePath(tableID, ""), query, &data); err != nil {
			return nil, errors.Wrap(err, "获取现有记录失败")
		}

		total += len(data.Items)
		for _, item := range data.Items {
			key := record.KeyFromRemote(item.Fields[uniqueKey])
			if key == "" {
				continue
			}
			existing[key] = item
		}

		if data.PageToken == "" || !data.HasMore {
			break
		}
		pageToken = data.PageToken
	}

	zap.S().Infof("📊 获取到 %d 条现有记录", total)
	return existing, nil
}

// BatchCreate 分批新增记录，单批上限 500 条，批间隔 200ms。
// 任一批失败即中止剩余批次并整体报错，已写入的批次不回滚。
func (c *Client) BatchCreate(tableID string, creates []record.Fields) error {
	if len(creates) == 0 {
		zap.S().Info("📄 没有需要新增的记录")
		return nil
	}

	type createEntry struct {
		Fields map[string]interface{} `json:"fields"`
	}

	chunks := lo.Chunk(creates, BatchLimit)
	for i, chunk := range chunks {
		zap.S().Infof("📝 正在新增第 %d/%d 批数据 (%d 条记录)...", i+1, len(chunks), len(chunk))

		entries := make([]createEntry, 0, len(chunk))
		for _, fields := range chunk {
			entries = append(entries, createEntry{Fields: fields.JSONMap()})
		}
		if err := c.postJSON(c.tablePath(tableID, "batch_create"), map[string]interface{}{"records": entries}, nil); err != nil {
			return errors.Wrapf(err, "第 %d 批新增失败", i+1)
		}

		if i < len(chunks)-1 {
			time.Sleep(batchInterval)
		}
	}

	zap.S().Infof("✅ 批量新增完成，成功新增 %d 条记录", len(creates))
	return nil
}

// BatchUpdate 分批更新记录，分批/频控/失败语义与 BatchCreate 一致
func (c *Client) BatchUpdate(tableID string, updates []RecordUpdate) error {
	if len(updates) == 0 {
		zap.S().Info("📄 没有需要更新的记录")
		return nil
	}

	chunks := lo.Chunk(updates, BatchLimit)
	for i, chunk := range chunks {
		zap.S().Infof("🔄 正在更新第 %d/%d 批数据 (%d 条记录)...", i+1, len(chunks), len(chunk))

		if err := c.postJSON(c.tablePath(tableID, "batch_update"), map[string]interface{}{"records": chunk}, nil); err != nil {
			return errors.Wrapf(err, "第 %d 批更新失败", i+1)
		}

		if i < len(chunks)-1 {
			time.Sleep(batchInterval)
		}
	}

	zap.S().Infof("✅ 批量更新完成，成功更新 %d 条记录", len(updates))
	return nil
}
